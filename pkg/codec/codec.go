// Package codec provides the binary codecs the pipeline reads and writes
// waveforms and station metadata with. Both codecs are interfaces so the
// resolver and downloader stay independent of the on-disk format; the
// default implementations are TraceCodec (waveforms) and StationXMLCodec
// (station response metadata).
package codec

import (
	"io"

	"github.com/seisflow/seisflow/pkg/waveform"
)

// File extensions for cache entries written by the default codecs.
const (
	TraceExt     = ".sfw"
	InventoryExt = ".xml"
)

// WaveformCodec decodes a stream into its contiguous traces and encodes
// traces back. A stream with gaps or overlaps in the requested window
// decodes to more than one trace; callers decide whether to reject it.
type WaveformCodec interface {
	Decode(r io.Reader) ([]*waveform.Waveform, error)
	Encode(w io.Writer, traces []*waveform.Waveform) error
}

// InventoryCodec decodes and encodes station response metadata.
type InventoryCodec interface {
	Decode(r io.Reader) (*StationInventory, error)
	Encode(w io.Writer, inv *StationInventory) error
}
