package services

import (
	"context"
	"fmt"
	"time"

	"sysinfo/internal/models"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	DefaultCPUWindow = time.Second
	DefaultDiskPath  = "/"
)

// MetricsSource takes one reading of the host's CPU, memory, disk and uptime.
// Implementations must be safe for concurrent use.
type MetricsSource interface {
	Sample(ctx context.Context) (*models.SystemStatus, error)
}

// HostSource reads metrics from the local host through gopsutil.
// It keeps no state between calls.
type HostSource struct {
	cpuWindow time.Duration
	diskPath  string
}

// NewHostSource creates a source that measures CPU over window and reports disk usage for diskPath
func NewHostSource(diskPath string, window time.Duration) *HostSource {
	if diskPath == "" {
		diskPath = DefaultDiskPath
	}
	if window <= 0 {
		window = DefaultCPUWindow
	}
	return &HostSource{cpuWindow: window, diskPath: diskPath}
}

// Sample blocks for the CPU window and returns a complete reading.
// Any failed reading fails the whole call with ErrSourceUnavailable.
func (s *HostSource) Sample(ctx context.Context) (*models.SystemStatus, error) {
	cpuStatus, err := GetCPUUsage(ctx, s.cpuWindow)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get CPU usage: %w", ErrSourceUnavailable, err)
	}

	memStatus, err := GetMemoryUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get memory usage: %w", ErrSourceUnavailable, err)
	}

	diskStatus, err := GetDiskUsage(ctx, s.diskPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get disk usage: %w", ErrSourceUnavailable, err)
	}

	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get uptime: %w", ErrSourceUnavailable, err)
	}

	return &models.SystemStatus{
		CPU:           cpuStatus,
		Memory:        memStatus,
		Disk:          diskStatus,
		UptimeSeconds: uptime,
	}, nil
}

// GetCPUUsage returns the CPU usage measured over window, plus physical and logical core counts
func GetCPUUsage(ctx context.Context, window time.Duration) (*models.CPUStatus, error) {
	percentage, err := cpu.PercentWithContext(ctx, window, false)
	if err != nil {
		return nil, err
	}
	if len(percentage) == 0 {
		return nil, fmt.Errorf("no CPU percentage reported")
	}

	cores, err := cpu.CountsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("physical core count: %w", err)
	}

	threads, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("logical core count: %w", err)
	}

	return &models.CPUStatus{
		UsagePercent: percentage[0],
		Cores:        cores,
		Threads:      threads,
	}, nil
}

// GetMemoryUsage returns physical memory usage
func GetMemoryUsage(ctx context.Context) (*models.MemoryStatus, error) {
	virtualMemory, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}

	return &models.MemoryStatus{
		Total:        virtualMemory.Total,
		Used:         virtualMemory.Used,
		UsagePercent: virtualMemory.UsedPercent,
	}, nil
}

// GetDiskUsage returns disk usage for a specific path
func GetDiskUsage(ctx context.Context, path string) (*models.DiskStatus, error) {
	if path == "" {
		path = DefaultDiskPath
	}

	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return nil, err
	}

	return &models.DiskStatus{
		Path:         path,
		Total:        usage.Total,
		Used:         usage.Used,
		UsagePercent: usage.UsedPercent,
	}, nil
}
