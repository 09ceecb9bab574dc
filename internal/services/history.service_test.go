package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"sysinfo/internal/models"

	"go.uber.org/zap/zaptest"
)

func openTestStore(t *testing.T) *SampleStore {
	t.Helper()

	store, err := OpenSampleStore(context.Background(), filepath.Join(t.TempDir(), "system_info.db"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("OpenSampleStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testSample(cpu float64) models.Sample {
	return models.Sample{
		Timestamp:     time.Now().Format(models.TimestampLayout),
		CPUPercent:    cpu,
		CPUCores:      4,
		CPUThreads:    8,
		MemoryTotal:   16 << 30,
		MemoryUsed:    8 << 30,
		MemoryPercent: 50,
		DiskTotal:     100 << 30,
		DiskUsed:      10 << 30,
		DiskPercent:   10,
		UptimeSeconds: 42,
	}
}

func TestReadAllEmptyStore(t *testing.T) {
	store := openTestStore(t)

	samples, err := store.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if samples == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(samples) != 0 {
		t.Fatalf("expected 0 samples, got %d", len(samples))
	}
}

func TestAppendAssignsContiguousIDs(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	const n = 5
	for i := 1; i <= n; i++ {
		s := testSample(float64(i))
		id, err := store.Append(ctx, &s)
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
		if id != int64(i) {
			t.Fatalf("expected id %d, got %d", i, id)
		}
		if s.ID != id {
			t.Fatalf("id not written back: sample has %d, returned %d", s.ID, id)
		}
	}

	samples, err := store.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(samples) != n {
		t.Fatalf("expected %d samples, got %d", n, len(samples))
	}
	for i, s := range samples {
		want := int64(n - i)
		if s.ID != want {
			t.Errorf("position %d: expected id %d, got %d", i, want, s.ID)
		}
		if s.CPUPercent != float64(want) {
			t.Errorf("position %d: expected cpu %v, got %v", i, float64(want), s.CPUPercent)
		}
	}
}

func TestAppendIgnoresCallerID(t *testing.T) {
	store := openTestStore(t)

	s := testSample(1)
	s.ID = 99
	id, err := store.Append(context.Background(), &s)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected store-assigned id 1, got %d", id)
	}
}

func TestAppendThenReadAllReturnsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s := testSample(float64(i))
		if _, err := store.Append(ctx, &s); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	latest := testSample(77.7)
	latest.UptimeSeconds = 1234
	if _, err := store.Append(ctx, &latest); err != nil {
		t.Fatalf("Append: %v", err)
	}

	samples, err := store.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if samples[0] != latest {
		t.Fatalf("expected newest sample first\n got: %+v\nwant: %+v", samples[0], latest)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		s := testSample(float64(i))
		if _, err := store.Append(ctx, &s); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	if err := store.Init(ctx); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	if err := store.Init(ctx); err != nil {
		t.Fatalf("second Init: %v", err)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected rows to survive Init, got %d", n)
	}

	s := testSample(3)
	id, err := store.Append(ctx, &s)
	if err != nil {
		t.Fatalf("Append after Init: %v", err)
	}
	if id != 3 {
		t.Fatalf("expected id sequence to continue at 3, got %d", id)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system_info.db")
	ctx := context.Background()

	first, err := OpenSampleStore(ctx, path, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("OpenSampleStore: %v", err)
	}
	s := testSample(1)
	if _, err := first.Append(ctx, &s); err != nil {
		t.Fatalf("Append: %v", err)
	}
	first.Close()

	second, err := OpenSampleStore(ctx, path, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	samples, err := second.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(samples) != 1 || samples[0].ID != 1 {
		t.Fatalf("expected the persisted sample, got %+v", samples)
	}
}

func TestOpenSampleStoreInaccessiblePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "system_info.db")

	_, err := OpenSampleStore(context.Background(), path, zaptest.NewLogger(t))
	if !errors.Is(err, ErrStorageInit) {
		t.Fatalf("expected ErrStorageInit, got %v", err)
	}
}

func TestOpenSampleStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system_info.db")
	garbage := make([]byte, 4096)
	for i := range garbage {
		garbage[i] = 'x'
	}
	if err := os.WriteFile(path, garbage, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := OpenSampleStore(context.Background(), path, zaptest.NewLogger(t))
	if !errors.Is(err, ErrStorageInit) {
		t.Fatalf("expected ErrStorageInit, got %v", err)
	}
}

func TestClosedStoreErrors(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	store.Close()

	s := testSample(1)
	if _, err := store.Append(ctx, &s); !errors.Is(err, ErrStorageWrite) {
		t.Errorf("expected ErrStorageWrite, got %v", err)
	}
	if _, err := store.ReadAll(ctx); !errors.Is(err, ErrStorageRead) {
		t.Errorf("expected ErrStorageRead, got %v", err)
	}
}

func TestConcurrentAppendAndReadAll(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	const writes = 50
	var wg sync.WaitGroup
	errs := make(chan error, writes*2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			s := testSample(float64(i))
			if _, err := store.Append(ctx, &s); err != nil {
				errs <- err
			}
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < writes/2; i++ {
				samples, err := store.ReadAll(ctx)
				if err != nil {
					errs <- err
					continue
				}
				// Every snapshot must be a contiguous id run ending at 1.
				for j, s := range samples {
					if s.ID != int64(len(samples)-j) {
						errs <- errors.New("torn read: ids not contiguous")
						break
					}
				}
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != writes {
		t.Fatalf("expected %d rows, got %d", writes, n)
	}
}
