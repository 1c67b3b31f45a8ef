package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if rec.Name() == "" {
		t.Fatalf("expected generated name")
	}
	ctx := context.Background()
	rec.Observe(ctx, "save_attendance_sheet", true, 20*time.Millisecond)
	rec.Observe(ctx, "save_attendance_sheet", true, 30*time.Millisecond)
	rec.Observe(ctx, "save_attendance_sheet", false, 5*time.Millisecond)
	rec.Observe(ctx, "", true, time.Second) // ignored

	snap := rec.Snapshot()
	if snap.DurationsMS["save_attendance_sheet"] != 55 {
		t.Fatalf("durations: %+v", snap.DurationsMS)
	}
	if snap.Results["save_attendance_sheet"]["success"] != 2 || snap.Results["save_attendance_sheet"]["error"] != 1 {
		t.Fatalf("results: %+v", snap.Results)
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	rec.Observe(ctx, "dashboard", true, 10*time.Millisecond)
	rec.Observe(ctx, "dashboard", false, 10*time.Millisecond)

	expected := strings.NewReader(`
# HELP constructcore_service_operation_results_total Core service operation outcomes by status.
# TYPE constructcore_service_operation_results_total counter
constructcore_service_operation_results_total{operation="dashboard",status="error"} 1
constructcore_service_operation_results_total{operation="dashboard",status="success"} 1
`)
	if err := testutil.GatherAndCompare(reg, expected, "constructcore_service_operation_results_total"); err != nil {
		t.Fatalf("counter mismatch: %v", err)
	}
	if got := testutil.CollectAndCount(rec.durations); got != 1 {
		t.Fatalf("expected one histogram series, got %d", got)
	}

	// Double registration must surface the registry error.
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}
