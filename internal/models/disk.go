package models

// DiskStatus represents usage of a single mount point in bytes
type DiskStatus struct {
	Path         string  `json:"path"`
	Total        uint64  `json:"total"`
	Used         uint64  `json:"used"`
	UsagePercent float64 `json:"usage_percent"`
}
