package system

import (
	"context"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a snapshot of host and process resources
type Stats struct {
	CPUs          int     `json:"cpus"`
	Goroutines    int     `json:"goroutines"`
	MemTotal      uint64  `json:"mem_total"`
	MemAvailable  uint64  `json:"mem_available"`
	MemUsedPct    float64 `json:"mem_used_percent"`
	ProcessRSS    uint64  `json:"process_rss"`
	ProcessCPUPct float64 `json:"process_cpu_percent"`
}

// ReadStats collects the snapshot. Fields the platform cannot report stay zero.
func ReadStats(ctx context.Context) (*Stats, error) {
	s := &Stats{
		CPUs:       runtime.NumCPU(),
		Goroutines: runtime.NumGoroutine(),
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	s.MemTotal = vm.Total
	s.MemAvailable = vm.Available
	s.MemUsedPct = vm.UsedPercent

	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return s, nil
	}

	if mi, err := proc.MemoryInfoWithContext(ctx); err == nil {
		s.ProcessRSS = mi.RSS
	}
	if pct, err := proc.CPUPercentWithContext(ctx); err == nil {
		s.ProcessCPUPct = pct
	}

	return s, nil
}
