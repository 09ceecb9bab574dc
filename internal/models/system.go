package models

// SystemStatus combines one reading of every sampled metric.
// It carries no id or timestamp; see NewSample.
type SystemStatus struct {
	CPU           *CPUStatus    `json:"cpu"`
	Memory        *MemoryStatus `json:"memory"`
	Disk          *DiskStatus   `json:"disk"`
	UptimeSeconds uint64        `json:"uptime_seconds"`
}
