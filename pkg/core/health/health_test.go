package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func fixed(status Status) func(ctx context.Context) CheckResult {
	return func(ctx context.Context) CheckResult {
		return CheckResult{Status: status, Message: string(status)}
	}
}

func TestRegistry_Check(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Status
		want   Status
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", map[string]Status{"a": StatusHealthy, "b": StatusHealthy}, StatusHealthy},
		{"one degraded", map[string]Status{"a": StatusHealthy, "b": StatusDegraded}, StatusDegraded},
		{"unhealthy wins", map[string]Status{"a": StatusDegraded, "b": StatusUnhealthy, "c": StatusHealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry("livescribe", "test")
			for name, status := range tt.checks {
				r.RegisterFunc(name, fixed(status))
			}

			report := r.Check(context.Background())
			if report.Status != tt.want {
				t.Errorf("Status = %v, want %v", report.Status, tt.want)
			}
			if len(report.Checks) != len(tt.checks) {
				t.Errorf("len(Checks) = %d, want %d", len(report.Checks), len(tt.checks))
			}
			for i := 1; i < len(report.Checks); i++ {
				if report.Checks[i-1].Name > report.Checks[i].Name {
					t.Errorf("checks not sorted: %s before %s", report.Checks[i-1].Name, report.Checks[i].Name)
				}
			}
		})
	}
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := NewRegistry("livescribe", "test")
	r.RegisterFunc("engine", fixed(StatusUnhealthy))
	r.RegisterFunc("engine", fixed(StatusHealthy))

	report := r.Check(context.Background())
	if len(report.Checks) != 1 || report.Status != StatusHealthy {
		t.Errorf("report = %s, want one healthy check", report)
	}
}

func TestRegistry_ChecksRunConcurrently(t *testing.T) {
	r := NewRegistry("livescribe", "test")
	slow := func(ctx context.Context) CheckResult {
		time.Sleep(50 * time.Millisecond)
		return CheckResult{Status: StatusHealthy}
	}
	r.RegisterFunc("a", slow)
	r.RegisterFunc("b", slow)
	r.RegisterFunc("c", slow)

	start := time.Now()
	r.Check(context.Background())
	if took := time.Since(start); took > 140*time.Millisecond {
		t.Errorf("Check() took %v, checks did not run concurrently", took)
	}
}

func TestRegistry_Handler(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		wantCode int
	}{
		{"healthy", StatusHealthy, http.StatusOK},
		{"degraded", StatusDegraded, http.StatusOK},
		{"unhealthy", StatusUnhealthy, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry("livescribe", "1.0")
			r.RegisterFunc("engine", fixed(tt.status))

			rec := httptest.NewRecorder()
			r.Handler(time.Second).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			var report Report
			if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
				t.Fatalf("decode report: %v", err)
			}
			if report.Status != tt.status || report.Version != "1.0" {
				t.Errorf("report = %+v", report)
			}
			if len(report.Checks) != 1 || report.Checks[0].Name != "engine" {
				t.Errorf("checks = %+v", report.Checks)
			}
		})
	}
}
