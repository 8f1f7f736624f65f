// SPDX-License-Identifier: LGPL-3.0-or-later

package health

import (
	"fmt"
	"runtime"
	"syscall"
)

const (
	memoryThresholdHealthy  = 70.0
	memoryThresholdDegraded = 85.0
	diskThresholdHealthy    = 70.0
	diskThresholdDegraded   = 85.0
)

// CheckResources samples process memory, goroutine count, and disk usage of
// the working directory, then grades them against fixed thresholds.
func CheckResources() *ResourceHealth {
	health := &ResourceHealth{Status: StatusHealthy}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	health.MemoryUsedMB = m.Alloc / 1024 / 1024
	health.MemoryTotalMB = m.Sys / 1024 / 1024
	if health.MemoryTotalMB > 0 {
		health.MemoryPercent = float64(health.MemoryUsedMB) / float64(health.MemoryTotalMB) * 100
	}

	health.GoRoutines = runtime.NumGoroutine()

	var stat syscall.Statfs_t
	if err := syscall.Statfs(".", &stat); err == nil {
		totalBytes := stat.Blocks * uint64(stat.Bsize)
		freeBytes := stat.Bfree * uint64(stat.Bsize)
		usedBytes := totalBytes - freeBytes

		health.DiskTotalGB = totalBytes / 1024 / 1024 / 1024
		health.DiskUsedGB = usedBytes / 1024 / 1024 / 1024
		if health.DiskTotalGB > 0 {
			health.DiskPercent = float64(health.DiskUsedGB) / float64(health.DiskTotalGB) * 100
		}
	} else {
		health.Error = fmt.Sprintf("failed to get disk stats: %v", err)
	}

	if health.MemoryPercent >= memoryThresholdDegraded || health.DiskPercent >= diskThresholdDegraded {
		health.Status = StatusUnhealthy
	} else if health.MemoryPercent >= memoryThresholdHealthy || health.DiskPercent >= diskThresholdHealthy {
		health.Status = StatusDegraded
	}

	return health
}
