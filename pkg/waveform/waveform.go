// Package waveform defines the time-series domain model: a single
// contiguous trace of samples recorded at one seismic channel, plus the
// transforms and the multi-event synthesis used to build composite
// waveforms from pairs of single-event recordings.
package waveform

import (
	"fmt"
	"time"
)

// Waveform is one contiguous trace: evenly spaced samples with a start
// time and a sampling interval, recorded at one channel.
//
// The sample buffer is owned by the waveform. Transforms that mutate the
// buffer in place (Detrend) are visible to every holder of the same
// reference; callers wanting non-destructive behavior should Copy first.
type Waveform struct {
	// Channel identity (SEED codes). Location may be empty.
	Network  string
	Station  string
	Location string
	Channel  string

	// StartTime is the time of the first sample.
	StartTime time.Time

	// Delta is the sampling interval in seconds.
	Delta float64

	// Samples holds the amplitude values.
	Samples []float64

	// SyntheticID is set only on waveforms produced by Synthesize.
	SyntheticID string
}

// ID returns the channel identifier "NET.STA.LOC.CHA".
func (w *Waveform) ID() string {
	return fmt.Sprintf("%s.%s.%s.%s", w.Network, w.Station, w.Location, w.Channel)
}

// NumSamples returns the number of samples.
func (w *Waveform) NumSamples() int {
	return len(w.Samples)
}

// SampleRate returns samples per second, or 0 for an unset Delta.
func (w *Waveform) SampleRate() float64 {
	if w.Delta == 0 {
		return 0
	}
	return 1 / w.Delta
}

// EndTime returns the time of the last sample.
func (w *Waveform) EndTime() time.Time {
	if len(w.Samples) == 0 {
		return w.StartTime
	}
	d := time.Duration(float64(len(w.Samples)-1) * w.Delta * float64(time.Second))
	return w.StartTime.Add(d)
}

// Copy returns a deep copy with its own sample buffer.
func (w *Waveform) Copy() *Waveform {
	c := *w
	c.Samples = make([]float64, len(w.Samples))
	copy(c.Samples, w.Samples)
	return &c
}

// Detrend removes the least-squares linear trend from the samples, in
// place. The mutation is visible to all holders of this waveform.
func (w *Waveform) Detrend() {
	n := len(w.Samples)
	if n < 2 {
		return
	}

	// Least-squares fit of y = a + b*x over x = 0..n-1.
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range w.Samples {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return
	}
	b := (fn*sumXY - sumX*sumY) / denom
	a := (sumY - b*sumX) / fn

	for i := range w.Samples {
		w.Samples[i] -= a + b*float64(i)
	}
}

// CompatibleDelta reports whether two waveforms share the same sampling
// interval. Use it to pre-filter pairs before Synthesize.
func CompatibleDelta(a, b *Waveform) bool {
	diff := a.Delta - b.Delta
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
