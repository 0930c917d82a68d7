package resolve

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/seisflow/seisflow/pkg/codec"
	"github.com/seisflow/seisflow/pkg/errors"
	"github.com/seisflow/seisflow/pkg/waveform"
)

// DefaultTimeout bounds a single fetch when no client is supplied. A
// timeout is treated like any other fetch failure.
const DefaultTimeout = 30 * time.Second

// Options configures a Resolver.
type Options struct {
	// Client overrides the HTTP client. Nil means a default client
	// with Timeout.
	Client *http.Client

	// Timeout for the default client. Zero means DefaultTimeout.
	Timeout time.Duration

	// WaveformCodec overrides the waveform codec. Nil means the
	// default TraceCodec.
	WaveformCodec codec.WaveformCodec

	// InventoryCodec overrides the inventory codec. Nil means the
	// default StationXMLCodec.
	InventoryCodec codec.InventoryCodec

	// Logger receives resolution warnings. Zero value is a no-op
	// logger.
	Logger zerolog.Logger
}

// Resolver reads waveforms and station inventories through a local cache
// with remote fallback. A successful remote fetch is persisted to the
// cache path when one is given; a persistence failure never turns a
// successful fetch into a resolution failure.
//
// Resolution is synchronous and single-attempt: one cache probe, at most
// one fetch, no retries.
type Resolver struct {
	client   *http.Client
	codec    codec.WaveformCodec
	invCodec codec.InventoryCodec
	log      zerolog.Logger
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	wc := opts.WaveformCodec
	if wc == nil {
		wc = codec.NewTraceCodec()
	}
	ic := opts.InventoryCodec
	if ic == nil {
		ic = codec.NewStationXMLCodec()
	}

	return &Resolver{
		client:   client,
		codec:    wc,
		invCodec: ic,
		log:      opts.Logger,
	}
}

// ResolveWaveform returns the single trace behind (cachePath, remoteURL).
//
// The cache is probed first: a readable decode of cachePath wins without
// any network access. Otherwise the remote URL is fetched, decoded, and
// persisted to cachePath (parent directories created) before the
// single-trace check, so a multi-segment stream is still cached but
// rejected. Errors carry CodeFetchFailed or CodeMultiSegment and are
// meant to be logged and counted by the caller, not to abort a batch.
func (r *Resolver) ResolveWaveform(ctx context.Context, cachePath, remoteURL string) (*waveform.Waveform, error) {
	if cachePath != "" {
		if traces, err := r.decodeFile(cachePath); err == nil {
			return singleTrace(traces, cachePath)
		}
	}

	body, err := r.fetch(ctx, remoteURL)
	if err != nil {
		err = errors.FetchFailed(remoteURL, err)
		r.log.Warn().Str("url", remoteURL).Err(err).Msg("waveform fetch failed")
		return nil, err
	}

	traces, err := r.codec.Decode(bytes.NewReader(body))
	if err != nil {
		err = errors.FetchFailed(remoteURL, err)
		r.log.Warn().Str("url", remoteURL).Err(err).Msg("waveform decode failed")
		return nil, err
	}

	if cachePath != "" {
		if err := r.persistTraces(cachePath, traces); err != nil {
			r.log.Warn().Str("path", cachePath).Err(err).Msg("could not write to cache")
		}
	}

	return singleTrace(traces, remoteURL)
}

// ResolveInventory returns the station inventory behind
// (cachePath, remoteURL), cache first, fetch second, persisting a
// successful fetch. Failures carry CodeInventoryUnavailable context via
// the caller; here they surface as fetch/decode errors.
func (r *Resolver) ResolveInventory(ctx context.Context, cachePath, remoteURL string) (*codec.StationInventory, error) {
	if cachePath != "" {
		if inv, err := r.decodeInventoryFile(cachePath); err == nil {
			return inv, nil
		}
	}

	body, err := r.fetch(ctx, remoteURL)
	if err != nil {
		err = errors.Wrap(err, errors.CodeFetchFailed, "could not read inventory").
			WithContext("url", remoteURL)
		r.log.Warn().Str("url", remoteURL).Err(err).Msg("inventory fetch failed")
		return nil, err
	}

	inv, err := r.invCodec.Decode(bytes.NewReader(body))
	if err != nil {
		err = errors.Wrap(err, errors.CodeFetchFailed, "could not decode inventory").
			WithContext("url", remoteURL)
		r.log.Warn().Str("url", remoteURL).Err(err).Msg("inventory decode failed")
		return nil, err
	}

	if cachePath != "" {
		if err := r.persistInventory(cachePath, inv); err != nil {
			r.log.Warn().Str("path", cachePath).Err(err).Msg("could not write to cache")
		}
	}

	return inv, nil
}

// EncodeWaveform writes a single trace to path through the resolver's
// codec, creating parent directories. Used by the downloader and the
// synthesizer output step.
func (r *Resolver) EncodeWaveform(path string, w *waveform.Waveform) error {
	return r.persistTraces(path, []*waveform.Waveform{w})
}

func (r *Resolver) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

func (r *Resolver) decodeFile(path string) ([]*waveform.Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.codec.Decode(f)
}

func (r *Resolver) decodeInventoryFile(path string) (*codec.StationInventory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.invCodec.Decode(f)
}

func (r *Resolver) persistTraces(path string, traces []*waveform.Waveform) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "creating cache directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "creating cache file")
	}
	defer f.Close()
	return r.codec.Encode(f, traces)
}

func (r *Resolver) persistInventory(path string, inv *codec.StationInventory) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "creating cache directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "creating cache file")
	}
	defer f.Close()
	return r.invCodec.Encode(f, inv)
}

func singleTrace(traces []*waveform.Waveform, locator string) (*waveform.Waveform, error) {
	if len(traces) != 1 {
		return nil, errors.MultiSegment(len(traces), locator)
	}
	return traces[0], nil
}
