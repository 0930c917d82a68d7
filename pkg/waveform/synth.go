package waveform

import (
	"math/rand"

	"github.com/google/uuid"
)

// Synthesize builds count synthetic multi-event waveforms by overlaying
// the shorter of a, b onto the longer at random sample offsets drawn from
// rng. Arguments may be passed in either order.
//
// For each composite, an offset k is drawn uniformly from [0, len(long)),
// a zero buffer of length max(len(long), k+len(short)) is filled with the
// long trace at offset 0, and positions [k, k+len(short)) are then
// overwritten with the short trace. The short trace replaces the long one
// in the overlap region; this is not an additive superposition. Callers
// wanting an additive overlay must build it themselves from Copy.
//
// The result inherits the long trace's channel identity, start time and
// sampling interval, with the sample count of the new buffer and a fresh
// SyntheticID. Sampling-interval compatibility is the caller's
// responsibility (see CompatibleDelta); Synthesize does not check it.
func Synthesize(a, b *Waveform, count int, rng *rand.Rand) []*Waveform {
	if count <= 0 {
		return nil
	}

	long, short := a, b
	if len(short.Samples) > len(long.Samples) {
		long, short = short, long
	}

	out := make([]*Waveform, 0, count)
	for i := 0; i < count; i++ {
		k := 0
		if len(long.Samples) > 0 {
			k = rng.Intn(len(long.Samples))
		}

		size := len(long.Samples)
		if k+len(short.Samples) > size {
			size = k + len(short.Samples)
		}

		buf := make([]float64, size)
		copy(buf, long.Samples)
		copy(buf[k:], short.Samples)

		w := &Waveform{
			Network:     long.Network,
			Station:     long.Station,
			Location:    long.Location,
			Channel:     long.Channel,
			StartTime:   long.StartTime,
			Delta:       long.Delta,
			Samples:     buf,
			SyntheticID: uuid.NewString(),
		}
		out = append(out, w)
	}
	return out
}
