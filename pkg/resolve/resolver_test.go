package resolve

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/seisflow/seisflow/pkg/codec"
	"github.com/seisflow/seisflow/pkg/errors"
	"github.com/seisflow/seisflow/pkg/waveform"
)

func encodeTraces(t *testing.T, traces ...*waveform.Waveform) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := codec.NewTraceCodec().Encode(&buf, traces); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testTrace(n int) *waveform.Waveform {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = float64(i)
	}
	return &waveform.Waveform{
		Network:   "XX",
		Station:   "AAA",
		Channel:   "HHZ",
		StartTime: time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC),
		Delta:     0.01,
		Samples:   samples,
	}
}

// traceServer serves the given body and counts requests.
func traceServer(body []byte, status int, hits *int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
}

func TestResolveWaveform_FetchAndPersist(t *testing.T) {
	hits := 0
	srv := traceServer(encodeTraces(t, testTrace(200)), http.StatusOK, &hits)
	defer srv.Close()

	cachePath := filepath.Join(t.TempDir(), "XX.AAA..HHZ", "trace.sfw")
	r := New(Options{})

	w, err := r.ResolveWaveform(context.Background(), cachePath, srv.URL)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if w.NumSamples() != 200 {
		t.Errorf("expected 200 samples, got %d", w.NumSamples())
	}
	if hits != 1 {
		t.Errorf("expected 1 fetch, got %d", hits)
	}
	if _, err := os.Stat(cachePath); err != nil {
		t.Errorf("fetch result not persisted to cache: %v", err)
	}
}

func TestResolveWaveform_SecondCallIsCacheHit(t *testing.T) {
	hits := 0
	srv := traceServer(encodeTraces(t, testTrace(50)), http.StatusOK, &hits)
	defer srv.Close()

	cachePath := filepath.Join(t.TempDir(), "trace.sfw")
	r := New(Options{})
	ctx := context.Background()

	if _, err := r.ResolveWaveform(ctx, cachePath, srv.URL); err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	if _, err := r.ResolveWaveform(ctx, cachePath, srv.URL); err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if hits != 1 {
		t.Errorf("second resolve must not fetch, got %d fetches", hits)
	}
}

func TestResolveWaveform_NoCachePath(t *testing.T) {
	hits := 0
	srv := traceServer(encodeTraces(t, testTrace(10)), http.StatusOK, &hits)
	defer srv.Close()

	r := New(Options{})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := r.ResolveWaveform(ctx, "", srv.URL); err != nil {
			t.Fatalf("resolve %d failed: %v", i, err)
		}
	}
	if hits != 2 {
		t.Errorf("without a cache path every resolve must fetch, got %d", hits)
	}
}

func TestResolveWaveform_FetchFailure(t *testing.T) {
	hits := 0
	srv := traceServer(nil, http.StatusInternalServerError, &hits)
	defer srv.Close()

	r := New(Options{})
	_, err := r.ResolveWaveform(context.Background(), "", srv.URL)
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}
	if !errors.IsCode(err, errors.CodeFetchFailed) {
		t.Errorf("expected CodeFetchFailed, got %v", errors.GetCode(err))
	}
}

func TestResolveWaveform_GarbageBody(t *testing.T) {
	hits := 0
	srv := traceServer([]byte("not a trace container"), http.StatusOK, &hits)
	defer srv.Close()

	r := New(Options{})
	_, err := r.ResolveWaveform(context.Background(), "", srv.URL)
	if !errors.IsCode(err, errors.CodeFetchFailed) {
		t.Errorf("expected CodeFetchFailed for undecodable body, got %v", err)
	}
}

func TestResolveWaveform_MultiSegmentRejected(t *testing.T) {
	hits := 0
	body := encodeTraces(t, testTrace(100), testTrace(60))
	srv := traceServer(body, http.StatusOK, &hits)
	defer srv.Close()

	cachePath := filepath.Join(t.TempDir(), "trace.sfw")
	r := New(Options{})

	_, err := r.ResolveWaveform(context.Background(), cachePath, srv.URL)
	if !errors.IsCode(err, errors.CodeMultiSegment) {
		t.Fatalf("expected CodeMultiSegment, got %v", err)
	}
	// The stream is still cached before the single-trace check, and a
	// later cache hit is rejected the same way without fetching.
	if _, err := os.Stat(cachePath); err != nil {
		t.Errorf("multi-segment stream should still be cached: %v", err)
	}
	hitsBefore := hits
	_, err = r.ResolveWaveform(context.Background(), cachePath, srv.URL)
	if !errors.IsCode(err, errors.CodeMultiSegment) {
		t.Errorf("expected CodeMultiSegment from cache, got %v", err)
	}
	if hits != hitsBefore {
		t.Errorf("cached multi-segment must not refetch")
	}
}

func TestResolveWaveform_PersistFailureSwallowed(t *testing.T) {
	hits := 0
	srv := traceServer(encodeTraces(t, testTrace(30)), http.StatusOK, &hits)
	defer srv.Close()

	// Parent of the cache path is a regular file: MkdirAll must fail.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cachePath := filepath.Join(blocker, "trace.sfw")

	r := New(Options{})
	w, err := r.ResolveWaveform(context.Background(), cachePath, srv.URL)
	if err != nil {
		t.Fatalf("persist failure must not fail the resolve: %v", err)
	}
	if w.NumSamples() != 30 {
		t.Errorf("expected the fetched trace, got %d samples", w.NumSamples())
	}
}

func TestResolveWaveform_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	r := New(Options{Timeout: 20 * time.Millisecond})
	_, err := r.ResolveWaveform(context.Background(), "", srv.URL)
	if !errors.IsCode(err, errors.CodeFetchFailed) {
		t.Errorf("a timeout must resolve to CodeFetchFailed, got %v", err)
	}
}

func TestResolveInventory_FetchAndPersist(t *testing.T) {
	doc := []byte(`<FDSNStationXML><Network code="XX"><Station code="AAA"/></Network></FDSNStationXML>`)
	hits := 0
	srv := traceServer(doc, http.StatusOK, &hits)
	defer srv.Close()

	cachePath := filepath.Join(t.TempDir(), "station_inventories", "XX.AAA.xml")
	r := New(Options{})
	ctx := context.Background()

	inv, err := r.ResolveInventory(ctx, cachePath, srv.URL)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if inv.ID() != "XX.AAA" {
		t.Errorf("expected XX.AAA, got %q", inv.ID())
	}

	if _, err := r.ResolveInventory(ctx, cachePath, srv.URL); err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if hits != 1 {
		t.Errorf("second inventory resolve must hit the cache, got %d fetches", hits)
	}
}
