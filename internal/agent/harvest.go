package agent

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Harvester samples system usage and collects the configured log files into
// one plain-text snapshot. Every failure is embedded in the payload rather
// than aborting the cycle; a partially-broken host still reports.
type Harvester struct {
	logFiles []string
	diskPath string
	logger   Logger
}

// NewHarvester collects from the given log files. diskPath is the mount
// point sampled for disk usage; empty means "/".
func NewHarvester(logFiles []string, diskPath string, logger Logger) *Harvester {
	if diskPath == "" {
		diskPath = "/"
	}
	return &Harvester{
		logFiles: logFiles,
		diskPath: diskPath,
		logger:   logger,
	}
}

// Collect builds the telemetry payload for one cycle.
func (h *Harvester) Collect() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	b.WriteString(h.memoryUsage() + "\n")
	b.WriteString(h.diskUsage() + "\n")
	b.WriteString("Logs:\n")
	for _, file := range h.logFiles {
		b.WriteString(h.readLogFile(file))
	}
	return b.String()
}

func (h *Harvester) memoryUsage() string {
	vm, err := mem.VirtualMemory()
	if err != nil || vm.Total == 0 {
		h.logger.Error("[AGENT] memory sampling failed: %v", err)
		return fmt.Sprintf("Error getting memory usage: %v", err)
	}
	used := float64(vm.Total-vm.Available) / float64(vm.Total) * 100
	return fmt.Sprintf("Memory Usage: %.2f%%", used)
}

func (h *Harvester) diskUsage() string {
	usage, err := disk.Usage(h.diskPath)
	if err != nil {
		h.logger.Error("[AGENT] disk sampling failed: %v", err)
		return fmt.Sprintf("Error getting disk usage: %v", err)
	}
	return fmt.Sprintf("Disk Usage: %.2f%%", usage.UsedPercent)
}

func (h *Harvester) readLogFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		h.logger.Error("[AGENT] error reading log %s: %v", path, err)
		return fmt.Sprintf("Error reading log: %v", err)
	}
	return string(data)
}
