package services

import "errors"

var (
	// ErrSourceUnavailable means a metric reading could not be taken.
	ErrSourceUnavailable = errors.New("metrics source unavailable")
	// ErrStorageInit means the backing file could not be opened or its schema created.
	ErrStorageInit = errors.New("storage init failed")
	// ErrStorageWrite means a sample could not be appended.
	ErrStorageWrite = errors.New("storage write failed")
	// ErrStorageRead means the stored samples could not be scanned.
	ErrStorageRead = errors.New("storage read failed")
)
