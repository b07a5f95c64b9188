package slipway

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/teranos/slipway/errors"
)

// Metrics tracks scheduler occupancy alongside system memory usage.
type Metrics struct {
	Pending       int     `json:"pending"`
	Running       int     `json:"running"`
	MaxJobs       int     `json:"max_jobs"`
	MemoryUsedGB  float64 `json:"memory_used_gb"`
	MemoryTotalGB float64 `json:"memory_total_gb"`
	MemoryPercent float64 `json:"memory_percent"`
}

// getMemoryStats returns current memory usage in bytes.
func getMemoryStats() (total uint64, available uint64, err error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to get memory stats")
	}
	return v.Total, v.Available, nil
}

// calculateSafeMaxJobs recommends a concurrency bound based on available
// memory. Job bodies are arbitrary, so this assumes a conservative headroom
// per in-flight job rather than anything workload-specific.
func calculateSafeMaxJobs(availableGB float64) int {
	const memoryPerJob = 0.25 // GB headroom per in-flight job
	const memoryBuffer = 1.0  // GB reserved for the rest of the process

	if availableGB < memoryBuffer {
		return 1 // Always allow at least 1 job
	}

	recommended := int((availableGB - memoryBuffer) / memoryPerJob)
	if recommended < 1 {
		return 1
	}
	if recommended > 1024 {
		return 1024
	}
	return recommended
}

// checkMemoryPressure validates a concurrency bound against available
// memory. Returns a warning message if the bound may be too high, empty
// string if OK.
func checkMemoryPressure(maxJobs int) string {
	total, available, err := getMemoryStats()
	if err != nil {
		return "" // Can't check, assume OK
	}

	availableGB := float64(available) / 1024 / 1024 / 1024
	totalGB := float64(total) / 1024 / 1024 / 1024
	recommended := calculateSafeMaxJobs(availableGB)

	if maxJobs > recommended {
		return fmt.Sprintf(
			"maxJobs (%d) exceeds recommended (%d) for available memory (%.1f/%.1fGB). "+
				"Consider lowering it to prevent memory pressure.",
			maxJobs, recommended, totalGB-availableGB, totalGB)
	}

	return ""
}

// Metrics returns current scheduler occupancy and system resource usage.
// Memory figures are zero when the platform query fails.
func (s *Scheduler) Metrics() Metrics {
	total, available, err := getMemoryStats()

	var memUsedGB, memTotalGB, memPercent float64
	if err == nil && total > 0 {
		memTotalGB = float64(total) / 1024 / 1024 / 1024
		memUsedGB = float64(total-available) / 1024 / 1024 / 1024
		memPercent = (memUsedGB / memTotalGB) * 100
	}

	stats := s.GetStats()
	return Metrics{
		Pending:       stats.Pending,
		Running:       stats.Running,
		MaxJobs:       stats.MaxJobs,
		MemoryUsedGB:  memUsedGB,
		MemoryTotalGB: memTotalGB,
		MemoryPercent: memPercent,
	}
}
