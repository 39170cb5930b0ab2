package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/klauspost/cpuid/v2"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// systemStatsInterval is how often the background resource logger samples
// CPU and memory. The photoacoustic pipeline runs unattended for long
// stretches, so this is a coarse heartbeat, not a profiling tool.
const systemStatsInterval = 30 * time.Second

// logCPUCapabilities reports the CPU's relevant SIMD feature set once at
// startup. The FFT and filter stages are the hottest loops in the
// pipeline, so knowing whether AVX2 is present explains a surprising
// throughput difference between two otherwise identical deployments.
func logCPUCapabilities(logger *slog.Logger) {
	logger.Info("cpu capabilities",
		"brand", cpuid.CPU.BrandName,
		"physical_cores", cpuid.CPU.PhysicalCores,
		"logical_cores", cpuid.CPU.LogicalCores,
		"avx2", cpuid.CPU.Supports(cpuid.AVX2),
		"avx512f", cpuid.CPU.Supports(cpuid.AVX512F),
	)
}

// runSystemStatsLogger periodically logs process-host CPU and memory
// utilization until ctx is canceled. A degraded host (memory pressure,
// CPU starvation) shows up here before it shows up as dropped frames.
func runSystemStatsLogger(ctx context.Context, logger *slog.Logger) {
	ticker := time.NewTicker(systemStatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			percents, err := cpu.PercentWithContext(ctx, 0, false)
			if err != nil {
				logger.Warn("cpu stats unavailable", "error", err)
				continue
			}
			vm, err := mem.VirtualMemoryWithContext(ctx)
			if err != nil {
				logger.Warn("memory stats unavailable", "error", err)
				continue
			}
			var cpuPercent float64
			if len(percents) > 0 {
				cpuPercent = percents[0]
			}
			logger.Info("host resource usage",
				"cpu_percent", cpuPercent,
				"memory_used_percent", vm.UsedPercent,
				"memory_used_bytes", vm.Used,
			)
		}
	}
}
