package agent

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRotateBacksUpAndClears(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "app.log")
	if err := os.WriteFile(logPath, []byte("line one\nline two\n"), 0o600); err != nil {
		t.Fatalf("write log: %v", err)
	}

	NewRotator([]string{logPath}, testLogger{}).Rotate()

	backup, err := os.ReadFile(logPath + ".bak")
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(backup) != "line one\nline two\n" {
		t.Fatalf("backup content mismatch: %q", backup)
	}

	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("stat original: %v", err)
	}
	if info.Size() != 0 {
		t.Fatalf("original not cleared, size %d", info.Size())
	}
}

func TestRotateSkipsMissingFile(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "absent.log")
	present := filepath.Join(dir, "present.log")
	if err := os.WriteFile(present, []byte("kept going\n"), 0o600); err != nil {
		t.Fatalf("write log: %v", err)
	}

	NewRotator([]string{missing, present}, testLogger{}).Rotate()

	if _, err := os.Stat(missing + ".bak"); err == nil {
		t.Fatalf("backup created for a missing file")
	}
	backup, err := os.ReadFile(present + ".bak")
	if err != nil {
		t.Fatalf("second file not rotated: %v", err)
	}
	if string(backup) != "kept going\n" {
		t.Fatalf("backup content mismatch: %q", backup)
	}
}

func TestRotateOverwritesPreviousBackup(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "app.log")
	rotator := NewRotator([]string{logPath}, testLogger{})

	if err := os.WriteFile(logPath, []byte("first\n"), 0o600); err != nil {
		t.Fatalf("write log: %v", err)
	}
	rotator.Rotate()

	if err := os.WriteFile(logPath, []byte("second\n"), 0o600); err != nil {
		t.Fatalf("write log: %v", err)
	}
	rotator.Rotate()

	backup, err := os.ReadFile(logPath + ".bak")
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(backup) != "second\n" {
		t.Fatalf("backup not overwritten: %q", backup)
	}
}
