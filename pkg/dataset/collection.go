// Package dataset groups resolved waveforms by recording channel. The
// Grouper walks the catalog in table order, resolves each row through the
// cache-or-fetch policy, and yields one ChannelCollection per channel;
// the inventory-aware variant additionally resolves one shared station
// inventory per (network, station) group first.
package dataset

import (
	"github.com/seisflow/seisflow/pkg/catalog"
	"github.com/seisflow/seisflow/pkg/codec"
	"github.com/seisflow/seisflow/pkg/waveform"
)

// Pair is one resolved waveform together with its catalog row.
type Pair struct {
	Waveform *waveform.Waveform
	Row      catalog.Row
}

// Combo is an unordered 2-combination of pairs from one collection.
type Combo struct {
	A Pair
	B Pair
}

// ChannelCollection holds every successfully resolved waveform of one
// channel, in catalog table order. A collection may be empty when all of
// its rows failed resolution; callers decide whether to skip it.
//
// Waveforms are owned by their pairs but not protected: a caller mutating
// a waveform in place sees the mutation on every later access to the same
// pair.
type ChannelCollection struct {
	Key catalog.ChannelKey

	// Inventory is the shared station metadata, set only by the
	// inventory-aware grouping variant.
	Inventory *codec.StationInventory

	pairs []Pair
}

// ID returns the channel identifier "NET.STA.LOC.CHA".
func (c *ChannelCollection) ID() string {
	return c.Key.ID()
}

// NumTraces returns the number of resolved pairs.
func (c *ChannelCollection) NumTraces() int {
	return len(c.pairs)
}

// Data returns the (waveform, row) pairs in insertion order.
func (c *ChannelCollection) Data() []Pair {
	return c.pairs
}

// Traces returns the waveforms in insertion order.
func (c *ChannelCollection) Traces() []*waveform.Waveform {
	out := make([]*waveform.Waveform, len(c.pairs))
	for i, p := range c.pairs {
		out[i] = p.Waveform
	}
	return out
}

// Metadata returns the catalog rows in insertion order.
func (c *ChannelCollection) Metadata() []catalog.Row {
	out := make([]catalog.Row, len(c.pairs))
	for i, p := range c.pairs {
		out[i] = p.Row
	}
	return out
}

// Pairs enumerates the C(n, 2) unordered 2-combinations of the
// collection's pairs: all combinations keeping the first element fixed,
// in insertion order, before advancing it. No repeats, no self-pairs.
func (c *ChannelCollection) Pairs() []Combo {
	n := len(c.pairs)
	if n < 2 {
		return nil
	}
	out := make([]Combo, 0, n*(n-1)/2)
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, Combo{A: c.pairs[i], B: c.pairs[j]})
		}
	}
	return out
}
