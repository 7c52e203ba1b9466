package agent

import (
	"io"
	"os"
)

// Rotator backs up and clears the harvested log files after a cycle. The
// backup is a single .bak per file, overwritten each rotation.
type Rotator struct {
	files  []string
	logger Logger
}

// NewRotator rotates the given files.
func NewRotator(files []string, logger Logger) *Rotator {
	return &Rotator{files: files, logger: logger}
}

// Rotate copies each file to <file>.bak and truncates the original. A
// missing file is logged and skipped; one bad file never blocks the rest.
func (r *Rotator) Rotate() {
	for _, file := range r.files {
		if _, err := os.Stat(file); err != nil {
			r.logger.Warn("[AGENT] log file not found: %s", file)
			continue
		}
		if err := copyFile(file, file+".bak"); err != nil {
			r.logger.Error("[AGENT] backup failed for %s: %v", file, err)
			continue
		}
		if err := os.Truncate(file, 0); err != nil {
			r.logger.Error("[AGENT] truncate failed for %s: %v", file, err)
			continue
		}
		r.logger.Debug("[AGENT] backed up and cleared log file: %s", file)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
