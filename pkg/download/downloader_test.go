package download

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/seisflow/seisflow/pkg/catalog"
	"github.com/seisflow/seisflow/pkg/codec"
	"github.com/seisflow/seisflow/pkg/resolve"
	"github.com/seisflow/seisflow/pkg/waveform"
)

const testHeader = "segment_id,url,class_label,magnitude,magnitude_type,event_lat,event_lon,event_depth_km,event_time,distance_deg,network,station,location,channel,window_start,window_end"

func testRow(id, baseURL, sta, cha string) string {
	return id + "," + baseURL + "/fdsnws/dataselect/1/query,urb_single" +
		",3.1,ML,42.35,13.4,8.2,2020-01-01T09:00:00,0.5,XX," +
		sta + ",," + cha + ",2020-01-01T10:00:00,2020-01-01T10:02:00"
}

func parseTable(t *testing.T, lines ...string) *catalog.Table {
	t.Helper()
	table, err := catalog.Parse(strings.NewReader(testHeader + "\n" + strings.Join(lines, "\n") + "\n"))
	if err != nil {
		t.Fatalf("catalog parse failed: %v", err)
	}
	return table
}

// traceServer serves a single-trace response echoing the requested
// channel identity, with a linear ramp on top of the samples so a
// successful pass also exercises detrending.
func traceServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		samples := make([]float64, 50)
		for i := range samples {
			samples[i] = 2.0 * float64(i)
		}
		tr := &waveform.Waveform{
			Network: q.Get("net"), Station: q.Get("sta"),
			Location: q.Get("loc"), Channel: q.Get("cha"),
			StartTime: time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC),
			Delta:     0.01,
			Samples:   samples,
		}
		var buf bytes.Buffer
		if err := codec.NewTraceCodec().Encode(&buf, []*waveform.Waveform{tr}); err != nil {
			t.Error(err)
		}
		_, _ = w.Write(buf.Bytes())
	}))
}

func TestRun_SavesAllRows(t *testing.T) {
	srv := traceServer(t)
	defer srv.Close()

	table := parseTable(t,
		testRow("1", srv.URL, "AAA", "HHZ"),
		testRow("2", srv.URL, "AAA", "HHN"),
	)

	root := t.TempDir()
	d := New(table, resolve.New(resolve.Options{}), root, Options{})

	report, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.Saved != 2 || report.Failed != 0 || report.Existing != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	for _, row := range table.Rows() {
		dest := resolve.DownloadPath(root, row)
		f, err := os.Open(dest)
		if err != nil {
			t.Fatalf("destination file missing: %v", err)
		}
		traces, err := codec.NewTraceCodec().Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("saved file does not decode: %v", err)
		}
		if len(traces) != 1 {
			t.Fatalf("expected a single saved trace, got %d", len(traces))
		}
		// The served ramp is linear, so the saved trace is flat.
		for i, v := range traces[0].Samples {
			if v > 1e-9 || v < -1e-9 {
				t.Fatalf("sample %d not detrended: %g", i, v)
			}
		}
	}
}

func TestRun_SkipsExistingFiles(t *testing.T) {
	hits := 0
	srv := traceServer(t)
	defer srv.Close()
	counting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Redirect(w, r, srv.URL+r.URL.RequestURI(), http.StatusFound)
	}))
	defer counting.Close()

	table := parseTable(t, testRow("1", counting.URL, "AAA", "HHZ"))
	root := t.TempDir()
	d := New(table, resolve.New(resolve.Options{}), root, Options{})

	if _, err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if hits != 1 {
		t.Fatalf("expected one fetch, got %d", hits)
	}

	report, err := d.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if hits != 1 {
		t.Errorf("second pass must not refetch, got %d fetches", hits)
	}
	if report.Existing != 1 || report.Saved != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
	if report.Total() != 1 {
		t.Errorf("total should count existing files, got %d", report.Total())
	}
}

func TestRun_FailureDoesNotAbortBatch(t *testing.T) {
	good := traceServer(t)
	defer good.Close()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sta") == "BAD" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, good.URL+r.URL.RequestURI(), http.StatusFound)
	}))
	defer srv.Close()

	table := parseTable(t,
		testRow("1", srv.URL, "BAD", "HHZ"),
		testRow("2", srv.URL, "AAA", "HHZ"),
	)

	root := t.TempDir()
	d := New(table, resolve.New(resolve.Options{}), root, Options{})

	report, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("a row failure must not abort the run: %v", err)
	}
	if report.Failed != 1 || report.Saved != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestRun_IdentityMismatchCountsAsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Wrong station in the returned trace header.
		tr := &waveform.Waveform{
			Network: "XX", Station: "WRONG", Channel: "HHZ",
			Delta: 0.01, Samples: make([]float64, 10),
		}
		var buf bytes.Buffer
		_ = codec.NewTraceCodec().Encode(&buf, []*waveform.Waveform{tr})
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	table := parseTable(t, testRow("1", srv.URL, "AAA", "HHZ"))
	root := t.TempDir()
	d := New(table, resolve.New(resolve.Options{}), root, Options{})

	report, err := d.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Failed != 1 || report.Saved != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
	if _, err := os.Stat(filepath.Join(root, "urb_single")); !os.IsNotExist(err) {
		t.Error("no file should be written for a mismatched trace")
	}
}

func TestRun_ProgressCallback(t *testing.T) {
	srv := traceServer(t)
	defer srv.Close()

	table := parseTable(t,
		testRow("1", srv.URL, "AAA", "HHZ"),
		testRow("2", srv.URL, "AAA", "HHN"),
	)

	var calls [][2]int
	d := New(table, resolve.New(resolve.Options{}), t.TempDir(), Options{
		Progress: func(done, total int) { calls = append(calls, [2]int{done, total}) },
	})
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := [][2]int{{1, 2}, {2, 2}}
	if len(calls) != 2 || calls[0] != want[0] || calls[1] != want[1] {
		t.Errorf("unexpected progress calls: %v", calls)
	}
}

func TestRun_Canceled(t *testing.T) {
	table := parseTable(t, testRow("1", "http://example.invalid", "AAA", "HHZ"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := New(table, resolve.New(resolve.Options{}), t.TempDir(), Options{})
	if _, err := d.Run(ctx); err == nil {
		t.Error("expected a context error")
	}
}
