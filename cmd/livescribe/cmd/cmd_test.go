package cmd

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/msto63/livescribe/internal/events"
	"github.com/msto63/livescribe/internal/metrics"
	"github.com/msto63/livescribe/pkg/core/health"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "livescribe ") {
		t.Errorf("output = %q, want livescribe prefix", out.String())
	}
}

func TestHTTPServerRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ChunkCaptured()

	hub := events.NewHub()
	defer hub.Close()

	checks := health.NewRegistry("livescribe", "test")
	checks.RegisterFunc("engine", func(ctx context.Context) health.CheckResult {
		return health.CheckResult{Status: health.StatusHealthy}
	})

	srv := httptest.NewServer(newHTTPServer(":0", hub, reg, checks).Handler)
	defer srv.Close()

	tests := []struct {
		path string
		want string
	}{
		{"/health", `"status":"healthy"`},
		{"/metrics", "livescribe_chunks_captured_total 1"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatalf("GET %s error = %v", tt.path, err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(body), tt.want) {
				t.Errorf("GET %s body does not contain %q", tt.path, tt.want)
			}
		})
	}
}
