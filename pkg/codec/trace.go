package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/seisflow/seisflow/pkg/errors"
	"github.com/seisflow/seisflow/pkg/waveform"
)

// Container layout (all little-endian):
//
//	magic   [4]byte "SFW1"
//	count   uint32                       number of traces
//	per trace:
//	  network, station, location, channel   uint16 length + UTF-8 bytes
//	  start   int64                     unix nanoseconds
//	  delta   float64                   sampling interval, seconds
//	  n       uint32                    sample count
//	  samples n × float64
var traceMagic = [4]byte{'S', 'F', 'W', '1'}

// maxTraceSamples bounds a single trace read so a corrupt count field
// cannot drive an arbitrary allocation.
const maxTraceSamples = 1 << 28

// TraceCodec is the default WaveformCodec over the SFW1 container.
type TraceCodec struct{}

// NewTraceCodec returns the default waveform codec.
func NewTraceCodec() *TraceCodec {
	return &TraceCodec{}
}

// Decode reads every trace in the container.
func (c *TraceCodec) Decode(r io.Reader) ([]*waveform.Waveform, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, errors.Wrap(err, errors.CodeDecodeFailed, "reading container magic")
	}
	if magic != traceMagic {
		return nil, errors.New(errors.CodeDecodeFailed, "not an SFW1 container").
			WithContext("magic", fmt.Sprintf("%q", magic[:]))
	}

	var count uint32
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, errors.Wrap(err, errors.CodeDecodeFailed, "reading trace count")
	}

	traces := make([]*waveform.Waveform, 0, count)
	for i := uint32(0); i < count; i++ {
		w, err := decodeTrace(br)
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeDecodeFailed, "trace %d", i)
		}
		traces = append(traces, w)
	}
	return traces, nil
}

// Encode writes the traces as one container.
func (c *TraceCodec) Encode(w io.Writer, traces []*waveform.Waveform) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(traceMagic[:]); err != nil {
		return errors.Wrap(err, errors.CodeEncodeFailed, "writing container magic")
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(traces))); err != nil {
		return errors.Wrap(err, errors.CodeEncodeFailed, "writing trace count")
	}
	for i, tr := range traces {
		if err := encodeTrace(bw, tr); err != nil {
			return errors.Wrapf(err, errors.CodeEncodeFailed, "trace %d", i)
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, errors.CodeEncodeFailed, "flushing container")
	}
	return nil
}

func decodeTrace(r io.Reader) (*waveform.Waveform, error) {
	net, err := readString(r)
	if err != nil {
		return nil, err
	}
	sta, err := readString(r)
	if err != nil {
		return nil, err
	}
	loc, err := readString(r)
	if err != nil {
		return nil, err
	}
	cha, err := readString(r)
	if err != nil {
		return nil, err
	}

	var start int64
	if err := binary.Read(r, binary.LittleEndian, &start); err != nil {
		return nil, err
	}
	var delta uint64
	if err := binary.Read(r, binary.LittleEndian, &delta); err != nil {
		return nil, err
	}
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if n > maxTraceSamples {
		return nil, fmt.Errorf("sample count %d exceeds limit", n)
	}

	samples := make([]float64, n)
	raw := make([]byte, 8)
	for i := range samples {
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, err
		}
		samples[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw))
	}

	return &waveform.Waveform{
		Network:   net,
		Station:   sta,
		Location:  loc,
		Channel:   cha,
		StartTime: time.Unix(0, start).UTC(),
		Delta:     math.Float64frombits(delta),
		Samples:   samples,
	}, nil
}

func encodeTrace(w io.Writer, tr *waveform.Waveform) error {
	for _, s := range []string{tr.Network, tr.Station, tr.Location, tr.Channel} {
		if err := writeString(w, s); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, tr.StartTime.UnixNano()); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, math.Float64bits(tr.Delta)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(tr.Samples))); err != nil {
		return err
	}
	raw := make([]byte, 8)
	for _, v := range tr.Samples {
		binary.LittleEndian.PutUint64(raw, math.Float64bits(v))
		if _, err := w.Write(raw); err != nil {
			return err
		}
	}
	return nil
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeString(w io.Writer, s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("string too long: %d bytes", len(s))
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// Verify interface compliance
var _ WaveformCodec = (*TraceCodec)(nil)
