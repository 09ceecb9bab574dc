package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sysinfo/internal/models"
	"sysinfo/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

type stubSource struct {
	err error
}

func (s stubSource) Sample(context.Context) (*models.SystemStatus, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.SystemStatus{
		CPU:           &models.CPUStatus{UsagePercent: 33.3, Cores: 2, Threads: 4},
		Memory:        &models.MemoryStatus{Total: 1024, Used: 512, UsagePercent: 50},
		Disk:          &models.DiskStatus{Path: "/", Total: 4096, Used: 1024, UsagePercent: 25},
		UptimeSeconds: 99,
	}, nil
}

type stubReader struct {
	samples []models.Sample
	err     error
}

func (r stubReader) ReadAll(context.Context) ([]models.Sample, error) {
	return r.samples, r.err
}

func serve(t *testing.T, path string, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET(path, handler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestGetData(t *testing.T) {
	mc := NewMetricsController(stubSource{}, zaptest.NewLogger(t))
	mc.now = func() time.Time { return time.Date(2025, 4, 13, 12, 0, 0, 0, time.Local) }

	w := serve(t, "/data", mc.GetData)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body["id"]; ok {
		t.Error("live reading must not carry an id")
	}
	if body["timestamp"] != "2025-04-13T12:00:00.000000" {
		t.Errorf("unexpected timestamp %v", body["timestamp"])
	}
	for _, field := range []string{
		"cpu_percent", "cpu_cores", "cpu_threads",
		"memory_total", "memory_used", "memory_percent",
		"disk_total", "disk_used", "disk_percent", "uptime_seconds",
	} {
		if _, ok := body[field]; !ok {
			t.Errorf("missing field %q", field)
		}
	}
	if body["cpu_threads"] != float64(4) {
		t.Errorf("expected cpu_threads 4, got %v", body["cpu_threads"])
	}
}

func TestGetDataSourceFailure(t *testing.T) {
	mc := NewMetricsController(stubSource{err: services.ErrSourceUnavailable}, zaptest.NewLogger(t))

	w := serve(t, "/data", mc.GetData)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] == "" {
		t.Error("expected an error message")
	}
	if len(body) != 1 {
		t.Errorf("expected no partial reading in the body, got %v", body)
	}
}

func TestGetLogsEmpty(t *testing.T) {
	hc := NewHistoryController(stubReader{samples: []models.Sample{}}, zaptest.NewLogger(t))

	w := serve(t, "/logs", hc.GetLogs)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "[]" {
		t.Fatalf("expected [], got %s", w.Body.String())
	}
}

func TestGetLogsPreservesOrder(t *testing.T) {
	hc := NewHistoryController(stubReader{samples: []models.Sample{{ID: 2}, {ID: 1}}}, zaptest.NewLogger(t))

	w := serve(t, "/logs", hc.GetLogs)
	var got []models.Sample
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 1 {
		t.Fatalf("expected ids [2 1], got %+v", got)
	}
}

func TestGetLogsStorageFailure(t *testing.T) {
	hc := NewHistoryController(stubReader{err: errors.Join(services.ErrStorageRead, errors.New("disk I/O error"))}, zaptest.NewLogger(t))

	w := serve(t, "/logs", hc.GetLogs)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
