package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// TimestampLayout is the ISO-8601 layout used for Sample.Timestamp.
// Times are written in the collecting process's local zone without an offset.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// ErrInvalidReading is returned by NewSample for readings that cannot be stored.
var ErrInvalidReading = errors.New("invalid reading")

// Sample is one timestamped host-metrics reading, stored as a row of system_info.
type Sample struct {
	ID            int64   `json:"id,omitempty" gorm:"column:id;primaryKey;autoIncrement"`
	Timestamp     string  `json:"timestamp" gorm:"column:timestamp"`
	CPUPercent    float64 `json:"cpu_percent" gorm:"column:cpu_percent"`
	CPUCores      int     `json:"cpu_cores" gorm:"column:cpu_cores"`
	CPUThreads    int     `json:"cpu_threads" gorm:"column:cpu_threads"`
	MemoryTotal   int64   `json:"memory_total" gorm:"column:memory_total"`
	MemoryUsed    int64   `json:"memory_used" gorm:"column:memory_used"`
	MemoryPercent float64 `json:"memory_percent" gorm:"column:memory_percent"`
	DiskTotal     int64   `json:"disk_total" gorm:"column:disk_total"`
	DiskUsed      int64   `json:"disk_used" gorm:"column:disk_used"`
	DiskPercent   float64 `json:"disk_percent" gorm:"column:disk_percent"`
	UptimeSeconds int64   `json:"uptime_seconds" gorm:"column:uptime_seconds"`
}

// TableName pins the table name used by GORM.
func (Sample) TableName() string {
	return "system_info"
}

// NewSample builds a Sample from a reading captured at the given time.
// The id stays zero until the sample is stored.
func NewSample(status SystemStatus, at time.Time) (Sample, error) {
	if status.CPU == nil || status.Memory == nil || status.Disk == nil {
		return Sample{}, fmt.Errorf("%w: missing cpu, memory or disk section", ErrInvalidReading)
	}

	memTotal, err := toInt64("memory_total", status.Memory.Total)
	if err != nil {
		return Sample{}, err
	}
	memUsed, err := toInt64("memory_used", status.Memory.Used)
	if err != nil {
		return Sample{}, err
	}
	diskTotal, err := toInt64("disk_total", status.Disk.Total)
	if err != nil {
		return Sample{}, err
	}
	diskUsed, err := toInt64("disk_used", status.Disk.Used)
	if err != nil {
		return Sample{}, err
	}
	uptime, err := toInt64("uptime_seconds", status.UptimeSeconds)
	if err != nil {
		return Sample{}, err
	}

	return Sample{
		Timestamp:     at.Format(TimestampLayout),
		CPUPercent:    status.CPU.UsagePercent,
		CPUCores:      status.CPU.Cores,
		CPUThreads:    status.CPU.Threads,
		MemoryTotal:   memTotal,
		MemoryUsed:    memUsed,
		MemoryPercent: status.Memory.UsagePercent,
		DiskTotal:     diskTotal,
		DiskUsed:      diskUsed,
		DiskPercent:   status.Disk.UsagePercent,
		UptimeSeconds: uptime,
	}, nil
}

// SQLite integers are signed 64-bit.
func toInt64(field string, v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %s %d overflows int64", ErrInvalidReading, field, v)
	}
	return int64(v), nil
}

// Anomalies lists readings outside their documented ranges.
// Values are reported as-is and never clamped.
func (s Sample) Anomalies() []string {
	var out []string

	if s.CPUPercent < 0 {
		out = append(out, fmt.Sprintf("cpu_percent %.2f is negative", s.CPUPercent))
	}
	if s.CPUThreads < s.CPUCores {
		out = append(out, fmt.Sprintf("cpu_threads %d < cpu_cores %d", s.CPUThreads, s.CPUCores))
	}
	if s.MemoryUsed > s.MemoryTotal {
		out = append(out, fmt.Sprintf("memory_used %d > memory_total %d", s.MemoryUsed, s.MemoryTotal))
	}
	if !inPercentRange(s.MemoryPercent) {
		out = append(out, fmt.Sprintf("memory_percent %.2f outside 0-100", s.MemoryPercent))
	}
	if s.DiskUsed > s.DiskTotal {
		out = append(out, fmt.Sprintf("disk_used %d > disk_total %d", s.DiskUsed, s.DiskTotal))
	}
	if !inPercentRange(s.DiskPercent) {
		out = append(out, fmt.Sprintf("disk_percent %.2f outside 0-100", s.DiskPercent))
	}

	return out
}

func inPercentRange(p float64) bool {
	return p >= 0 && p <= 100
}
