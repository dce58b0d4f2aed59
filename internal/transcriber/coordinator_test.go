// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     transcriber
// Description: Tests for the transcription coordinator
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package transcriber

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/msto63/livescribe/internal/audio"
	"github.com/msto63/livescribe/internal/events"
	"github.com/msto63/livescribe/internal/metrics"
	"github.com/msto63/livescribe/internal/stt"
	coreerr "github.com/msto63/livescribe/pkg/core/errors"
)

// scriptBackend echoes the first sample as text and can panic or block
type scriptBackend struct {
	mu      sync.Mutex
	calls   int
	panicOn map[int]bool
	gate    chan struct{}
	loadErr error
}

func (b *scriptBackend) Name() string { return "script" }

func (b *scriptBackend) Load(ctx context.Context, cfg stt.ModelConfig) error { return b.loadErr }

func (b *scriptBackend) Unload() error { return nil }

func (b *scriptBackend) TranscribeSamples(ctx context.Context, samples []float32) (string, error) {
	b.mu.Lock()
	b.calls++
	n := b.calls
	b.mu.Unlock()

	if b.gate != nil {
		<-b.gate
	}
	if b.panicOn[n] {
		panic(fmt.Sprintf("native crash on call %d", n))
	}
	if len(samples) == 0 {
		return "", nil
	}
	return fmt.Sprintf("chunk-%d", int(samples[0])), nil
}

func (b *scriptBackend) TranscribeFile(ctx context.Context, path string) (string, error) {
	return "file text", nil
}

func (b *scriptBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

type harness struct {
	backend *scriptBackend
	engine  *stt.Guard
	rec     *events.Recorder
	metrics *metrics.Metrics
	coord   *Coordinator
}

func newHarness(t *testing.T, b *scriptBackend, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		backend: b,
		rec:     &events.Recorder{},
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	h.engine = stt.NewGuard(b, stt.GuardConfig{Listener: h.rec, Metrics: h.metrics})
	h.coord = New(h.engine, h.rec, append([]Option{WithMetrics(h.metrics)}, opts...)...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		h.coord.Close(ctx)
	})
	return h
}

func (h *harness) load(t *testing.T) {
	t.Helper()
	if err := h.coord.LoadModel(context.Background(), stt.ModelConfig{ModelPath: "model.bin"}); err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}
}

func (h *harness) dropped(reason string) float64 {
	return value(h.metrics.ChunksDropped.WithLabelValues(reason))
}

// value reads a single counter or gauge
func value(c prometheus.Metric) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return -1
	}
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	return m.Gauge.GetValue()
}

func chunk(seq uint64) audio.Chunk {
	return audio.Chunk{SessionID: "s1", Seq: seq, Samples: []float32{float32(seq)}, CapturedAt: time.Now()}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestCoordinator_PreservesOrder(t *testing.T) {
	h := newHarness(t, &scriptBackend{})
	h.load(t)

	const n = 200
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := uint64(1); i <= n; i++ {
			h.coord.WriteBuffer(chunk(i))
		}
	}()
	wg.Wait()

	waitFor(t, "all results", func() bool { return len(h.rec.Results()) == n })
	for i, r := range h.rec.Results() {
		want := uint64(i + 1)
		if r.Seq != want {
			t.Fatalf("result %d Seq = %d, want %d", i, r.Seq, want)
		}
		if r.Text != fmt.Sprintf("chunk-%d", want) {
			t.Fatalf("result %d Text = %q", i, r.Text)
		}
		if r.Source != events.SourceLive || r.SessionID != "s1" {
			t.Fatalf("result %d = %+v, want live result of s1", i, r)
		}
	}
}

func TestCoordinator_DropsWhenNotInitialized(t *testing.T) {
	h := newHarness(t, &scriptBackend{})

	for i := uint64(1); i <= 3; i++ {
		h.coord.WriteBuffer(chunk(i))
	}

	waitFor(t, "drops", func() bool { return h.dropped(metrics.DropNotReady) == 3 })
	if n := h.backend.callCount(); n != 0 {
		t.Errorf("backend calls = %d, want 0", n)
	}
	if n := len(h.rec.Results()); n != 0 {
		t.Errorf("results = %d, want 0", n)
	}
}

func TestCoordinator_SurvivesEnginePanic(t *testing.T) {
	h := newHarness(t, &scriptBackend{panicOn: map[int]bool{2: true}})
	h.load(t)

	for i := uint64(1); i <= 3; i++ {
		h.coord.WriteBuffer(chunk(i))
	}

	waitFor(t, "three results", func() bool { return len(h.rec.Results()) == 3 })
	got := h.rec.Results()
	want := []string{"chunk-1", "", "chunk-3"}
	for i := range want {
		if got[i].Text != want[i] {
			t.Errorf("result %d = %q, want %q", i, got[i].Text, want[i])
		}
	}
	if n := h.rec.Count(events.KindEngineWarning); n != 1 {
		t.Errorf("engine warnings = %d, want 1", n)
	}
	if v := value(h.metrics.EngineFailures); v != 1 {
		t.Errorf("engine failures = %v, want 1", v)
	}
}

func TestCoordinator_LoadTranscribeUnload(t *testing.T) {
	h := newHarness(t, &scriptBackend{})
	h.load(t)
	if h.rec.Count(events.KindModelLoaded) != 1 {
		t.Error("missing model loaded update")
	}

	h.coord.WriteBuffer(chunk(1))
	h.coord.WriteBuffer(chunk(2))
	waitFor(t, "two results", func() bool { return len(h.rec.Results()) == 2 })

	results := h.rec.Results()
	if results[0].Seq != 1 || results[1].Seq != 2 {
		t.Errorf("result order = [%d %d], want [1 2]", results[0].Seq, results[1].Seq)
	}

	h.coord.UnloadModel()
	if h.rec.Count(events.KindModelUnloaded) != 1 {
		t.Error("missing model unloaded update")
	}
	if h.coord.IsModelLoaded() {
		t.Error("IsModelLoaded() = true after UnloadModel")
	}

	h.coord.WriteBuffer(chunk(3))
	waitFor(t, "drop after unload", func() bool { return h.dropped(metrics.DropNotReady) == 1 })
	if n := len(h.rec.Results()); n != 2 {
		t.Errorf("results after unload = %d, want 2", n)
	}

	// unloading twice does not repeat the update
	h.coord.UnloadModel()
	if n := h.rec.Count(events.KindModelUnloaded); n != 1 {
		t.Errorf("model unloaded updates = %d, want 1", n)
	}
}

func TestCoordinator_LoadFailure(t *testing.T) {
	h := newHarness(t, &scriptBackend{loadErr: errors.New("corrupt model")})

	err := h.coord.LoadModel(context.Background(), stt.ModelConfig{ModelPath: "bad.bin"})
	if coreerr.CodeOf(err) != coreerr.CodeEngineInit {
		t.Fatalf("LoadModel() error = %v, want engine init error", err)
	}

	updates := h.rec.Updates()
	if len(updates) != 1 || updates[0].Kind != events.KindModelLoadFailed {
		t.Fatalf("updates = %+v, want one model load failure", updates)
	}
	if updates[0].Message != "Model initialization failed" {
		t.Errorf("Message = %q", updates[0].Message)
	}
}

func TestCoordinator_QueueGrowsUnderSlowEngine(t *testing.T) {
	gate := make(chan struct{})
	h := newHarness(t, &scriptBackend{gate: gate})
	h.load(t)

	for i := uint64(1); i <= 6; i++ {
		h.coord.WriteBuffer(chunk(i))
	}

	// one chunk is in the engine, the rest wait in the queue
	waitFor(t, "engine busy", func() bool { return h.backend.callCount() == 1 })
	if n := h.coord.Pending(); n != 5 {
		t.Errorf("Pending() = %d, want 5", n)
	}

	close(gate)
	waitFor(t, "queue drained", func() bool { return len(h.rec.Results()) == 6 })
	if n := h.coord.Pending(); n != 0 {
		t.Errorf("Pending() = %d after drain, want 0", n)
	}
}

type silenceGate struct{}

func (silenceGate) IsSpeech(samples []float32) bool {
	return len(samples) > 0 && samples[0] != 0
}

func TestCoordinator_SpeechGate(t *testing.T) {
	h := newHarness(t, &scriptBackend{}, WithSpeechGate(silenceGate{}))
	h.load(t)

	h.coord.WriteBuffer(audio.Chunk{SessionID: "s1", Seq: 1, Samples: []float32{0, 0}})
	h.coord.WriteBuffer(chunk(2))

	waitFor(t, "result", func() bool { return len(h.rec.Results()) == 1 })
	if h.dropped(metrics.DropSilence) != 1 {
		t.Errorf("silence drops = %v, want 1", h.dropped(metrics.DropSilence))
	}
	if got := h.rec.Results()[0].Seq; got != 2 {
		t.Errorf("Seq = %d, want 2", got)
	}
}

func TestCoordinator_TranscribeFile(t *testing.T) {
	h := newHarness(t, &scriptBackend{})
	ctx := context.Background()

	_, err := h.coord.TranscribeFile(ctx, filepath.Join(t.TempDir(), "missing.wav"))
	if !coreerr.Is(err, coreerr.ErrNotFound) {
		t.Errorf("missing file error = %v, want not found", err)
	}
	if h.rec.Count(events.KindFileNotFound) != 1 {
		t.Error("missing file not reported")
	}

	path := filepath.Join(t.TempDir(), "in.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	text, err := h.coord.TranscribeFile(ctx, path)
	if text != "" || err != nil {
		t.Errorf("TranscribeFile() before load = %q, %v, want empty result", text, err)
	}
	if h.rec.Count(events.KindProcessingStarted) != 0 || len(h.rec.Results()) != 0 {
		t.Error("TranscribeFile() before load should not process the file")
	}

	h.load(t)
	text, err = h.coord.TranscribeFile(ctx, path)
	if err != nil {
		t.Fatalf("TranscribeFile() error = %v", err)
	}
	if text != "file text" {
		t.Errorf("text = %q, want %q", text, "file text")
	}
	if h.rec.Count(events.KindProcessingStarted) != 1 || h.rec.Count(events.KindProcessingDone) != 1 {
		t.Error("processing updates missing")
	}
	results := h.rec.Results()
	if len(results) != 1 || results[0].Source != events.SourceFile {
		t.Errorf("results = %+v, want one file result", results)
	}
}

func TestCoordinator_CloseDrainsQueue(t *testing.T) {
	h := newHarness(t, &scriptBackend{})
	h.load(t)

	for i := uint64(1); i <= 10; i++ {
		h.coord.WriteBuffer(chunk(i))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.coord.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if n := len(h.rec.Results()); n != 10 {
		t.Errorf("results = %d, want 10", n)
	}

	// writes after close are ignored
	h.coord.WriteBuffer(chunk(11))
	if n := h.coord.Pending(); n != 0 {
		t.Errorf("Pending() after close = %d, want 0", n)
	}
	if err := h.coord.Close(ctx); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestCoordinator_CloseTimeout(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	h := newHarness(t, &scriptBackend{gate: gate})
	h.load(t)

	h.coord.WriteBuffer(chunk(1))
	h.coord.WriteBuffer(chunk(2))
	waitFor(t, "engine busy", func() bool { return h.backend.callCount() == 1 })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := h.coord.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Close() error = %v, want deadline exceeded", err)
	}
}
