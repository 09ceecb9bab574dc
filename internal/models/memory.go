package models

// MemoryStatus represents physical memory usage in bytes
type MemoryStatus struct {
	Total        uint64  `json:"total"`
	Used         uint64  `json:"used"`
	UsagePercent float64 `json:"usage_percent"`
}
