package resilience

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

// Probes are the observation functions the health monitor samples. Each
// returns its reading or an error; a failing probe is skipped for that
// cycle, not reported as an error itself.
type Probes struct {
	MemoryPercent   func() (float64, error)
	DiskFreePercent func() (float64, error)
	GoroutineCount  func() (int, error)
	Load1           func() (float64, error)
}

// SystemProbes samples the host via gopsutil, plus the Go runtime for the
// goroutine count.
func SystemProbes() Probes {
	return Probes{
		MemoryPercent: func() (float64, error) {
			vm, err := mem.VirtualMemory()
			if err != nil {
				return 0, err
			}
			return vm.UsedPercent, nil
		},
		DiskFreePercent: func() (float64, error) {
			usage, err := disk.Usage(".")
			if err != nil {
				return 0, err
			}
			return 100.0 - usage.UsedPercent, nil
		},
		GoroutineCount: func() (int, error) {
			return runtime.NumGoroutine(), nil
		},
		Load1: func() (float64, error) {
			avg, err := load.Avg()
			if err != nil {
				return 0, err
			}
			return avg.Load1, nil
		},
	}
}

// Thresholds for the health checks.
type HealthThresholds struct {
	MemoryHighPercent  float64
	DiskLowFreePercent float64
	MaxGoroutines      int
	LoadHigh           float64
}

// HealthMonitor samples the probes and reports threshold violations as
// resilience events with component=system. Run it as a periodic scheduler
// task.
type HealthMonitor struct {
	handler    *Handler
	probes     Probes
	thresholds HealthThresholds
	logger     *zap.Logger
}

func NewHealthMonitor(handler *Handler, probes Probes, thresholds HealthThresholds, logger *zap.Logger) *HealthMonitor {
	return &HealthMonitor{
		handler:    handler,
		probes:     probes,
		thresholds: thresholds,
		logger:     logger,
	}
}

// Check runs one sampling pass.
func (m *HealthMonitor) Check() {
	m.checkMemory()
	m.checkDisk()
	m.checkGoroutines()
	m.checkLoad()
}

func (m *HealthMonitor) checkMemory() {
	if m.probes.MemoryPercent == nil {
		return
	}
	pct, err := m.probes.MemoryPercent()
	if err != nil {
		m.logger.Debug("Memory probe failed", zap.Error(err))
		return
	}

	switch {
	case pct > m.thresholds.MemoryHighPercent:
		m.handler.Report(ComponentSystem, ErrHighMemoryUsage, SeverityHigh,
			fmt.Sprintf("Memory usage critical: %.1f%%", pct),
			map[string]any{"memory_percent": pct})
	case pct > m.thresholds.MemoryHighPercent-10:
		m.handler.Report(ComponentSystem, ErrHighMemoryUsage, SeverityMedium,
			fmt.Sprintf("Memory usage elevated: %.1f%%", pct),
			map[string]any{"memory_percent": pct})
	}
}

func (m *HealthMonitor) checkDisk() {
	if m.probes.DiskFreePercent == nil {
		return
	}
	free, err := m.probes.DiskFreePercent()
	if err != nil {
		m.logger.Debug("Disk probe failed", zap.Error(err))
		return
	}

	if free < m.thresholds.DiskLowFreePercent {
		m.handler.Report(ComponentSystem, ErrLowDiskSpace, SeverityHigh,
			fmt.Sprintf("Disk space critical: %.1f%% free", free),
			map[string]any{"free_percent": free})
	}
}

func (m *HealthMonitor) checkGoroutines() {
	if m.probes.GoroutineCount == nil {
		return
	}
	n, err := m.probes.GoroutineCount()
	if err != nil {
		m.logger.Debug("Goroutine probe failed", zap.Error(err))
		return
	}

	if n > m.thresholds.MaxGoroutines {
		m.handler.Report(ComponentSystem, ErrExcessiveThreads, SeverityMedium,
			fmt.Sprintf("High goroutine count: %d", n),
			map[string]any{"goroutines": n})
	}
}

func (m *HealthMonitor) checkLoad() {
	if m.probes.Load1 == nil {
		return
	}
	l1, err := m.probes.Load1()
	if err != nil {
		m.logger.Debug("Load probe failed", zap.Error(err))
		return
	}

	if l1 > m.thresholds.LoadHigh {
		m.handler.Report(ComponentSystem, ErrHighSystemLoad, SeverityMedium,
			fmt.Sprintf("High system load: %.2f", l1),
			map[string]any{"load_1min": l1})
	}
}
