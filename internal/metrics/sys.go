package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

var startedAt = time.Now()

// SysHealth represents real-time process metrics.
type SysHealth struct {
	AllocMB    uint64 `json:"alloc_mb"`
	SysMB      uint64 `json:"sys_mb"`
	NumGC      uint32 `json:"num_gc"`
	Goroutines int    `json:"goroutines"`
	DataSize   string `json:"data_size"`
	Uptime     string `json:"uptime"`
}

// GetSysHealth collects real-time health data. dataDir is the directory
// holding the sqlite database.
func GetSysHealth(dataDir string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SysHealth{
		AllocMB:    m.Alloc / 1024 / 1024,
		SysMB:      m.Sys / 1024 / 1024,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
		DataSize:   humanBytes(dirSize(dataDir)),
		Uptime:     time.Since(startedAt).Round(time.Second).String(),
	}
}

func dirSize(path string) int64 {
	var size int64
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}

func humanBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

// Report renders usage and health as Markdown for the admin views.
func Report(usage []DailyUsage, health SysHealth) string {
	var b strings.Builder
	b.WriteString("*Plan generation (last 7 days)*\n")
	if len(usage) == 0 {
		b.WriteString("No generations recorded.\n")
	}
	for _, u := range usage {
		fmt.Fprintf(&b, "`%s` %d plans, %d in / %d out tokens, avg %d ms\n",
			u.Date, u.TotalExecution, u.TotalPrompt, u.TotalCompletion, u.AvgLatencyMS)
	}

	b.WriteString("\n*System*\n")
	fmt.Fprintf(&b, "Memory: %d MB alloc / %d MB sys\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&b, "Goroutines: %d, GC runs: %d\n", health.Goroutines, health.NumGC)
	fmt.Fprintf(&b, "Data: %s, uptime %s\n", health.DataSize, health.Uptime)
	return b.String()
}
