package dataset

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/seisflow/seisflow/pkg/catalog"
	"github.com/seisflow/seisflow/pkg/codec"
	"github.com/seisflow/seisflow/pkg/errors"
	"github.com/seisflow/seisflow/pkg/resolve"
)

// Options configures a Grouper.
type Options struct {
	// RootDir is the local cache root. Empty disables caching: every
	// row is fetched from its remote URL.
	RootDir string

	// ClassLabels filters the table to the given class labels before
	// grouping. Empty means all rows.
	ClassLabels []string

	// WithInventory switches to the inventory-aware variant: rows are
	// grouped by station first and one shared inventory is resolved
	// per station before its channels are emitted. A failed inventory
	// resolution skips the whole station group.
	WithInventory bool

	// Logger receives per-row discard and per-station skip warnings.
	Logger zerolog.Logger
}

// Grouper partitions a catalog table into channel collections, resolving
// each row's waveform on the way. Row-level resolution failures discard
// the row, never the group or the iteration.
type Grouper struct {
	table    *catalog.Table
	resolver *resolve.Resolver
	opts     Options
}

// NewGrouper creates a Grouper over table.
func NewGrouper(table *catalog.Table, resolver *resolve.Resolver, opts Options) *Grouper {
	return &Grouper{table: table, resolver: resolver, opts: opts}
}

// Groups returns a fresh iterator over the channel collections. Each call
// re-derives the grouping from the table; the iterator itself is not
// restartable. Groups arrive in sorted channel-key order and a group is
// never split across two yields.
func (g *Grouper) Groups(ctx context.Context) *Iterator {
	it := &Iterator{ctx: ctx, grouper: g}
	table := g.table.FilterClass(g.opts.ClassLabels...)
	if g.opts.WithInventory {
		it.stations = table.GroupByStation()
	} else {
		it.channels = table.GroupByChannel()
	}
	return it
}

// Iterator yields channel collections one at a time. Next returns io.EOF
// after the last collection. Skipped rows and stations are counted, not
// raised.
type Iterator struct {
	ctx     context.Context
	grouper *Grouper

	channels []catalog.ChannelGroup
	stations []catalog.StationGroup
	pending  []*ChannelCollection

	skippedRows     int
	skippedStations int
}

// Next returns the next channel collection, io.EOF at the end, or the
// context error if the iteration was canceled.
func (it *Iterator) Next() (*ChannelCollection, error) {
	for {
		if err := it.ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.CodeContextCanceled, "grouping canceled")
		}

		if len(it.pending) > 0 {
			coll := it.pending[0]
			it.pending = it.pending[1:]
			return coll, nil
		}

		switch {
		case len(it.channels) > 0:
			group := it.channels[0]
			it.channels = it.channels[1:]
			return it.collect(group, nil), nil

		case len(it.stations) > 0:
			station := it.stations[0]
			it.stations = it.stations[1:]
			it.loadStation(station)
			// Loop: the station produced pending collections, or
			// it was skipped and the next one is tried.

		default:
			return nil, io.EOF
		}
	}
}

// SkippedRows returns how many rows were discarded by resolution
// failures so far.
func (it *Iterator) SkippedRows() int {
	return it.skippedRows
}

// SkippedStations returns how many whole station groups were skipped by
// inventory failures so far.
func (it *Iterator) SkippedStations() int {
	return it.skippedStations
}

// collect resolves every row of one channel group, discarding rows that
// fail.
func (it *Iterator) collect(group catalog.ChannelGroup, inv *codec.StationInventory) *ChannelCollection {
	g := it.grouper
	log := g.opts.Logger

	coll := &ChannelCollection{Key: group.Key, Inventory: inv}

	for _, row := range group.Rows {
		fetchURL, err := resolve.WaveformURL(row)
		if err == nil {
			cachePath := resolve.WaveformCachePath(g.opts.RootDir, row)
			trace, rerr := g.resolver.ResolveWaveform(it.ctx, cachePath, fetchURL)
			if rerr == nil {
				coll.pairs = append(coll.pairs, Pair{Waveform: trace, Row: row})
				continue
			}
			err = rerr
		}

		it.skippedRows++
		log.Warn().
			Str("channel", group.Key.ID()).
			Int64("segment_id", row.SegmentID).
			Err(err).
			Msg("discarding waveform")
	}

	return coll
}

// loadStation resolves the shared inventory for one station group and
// queues its channel collections. Inventory is a hard prerequisite: on
// failure the whole station group is skipped.
func (it *Iterator) loadStation(station catalog.StationGroup) {
	g := it.grouper
	log := g.opts.Logger

	// Any row of the station carries the base URL to derive the
	// inventory endpoint from.
	first := station.Channels[0].Rows[0]

	inv, err := it.resolveInventory(first)
	if err != nil {
		it.skippedStations++
		log.Warn().
			Str("station", station.Key.ID()).
			Err(err).
			Msg("skipping station, inventory unavailable")
		return
	}

	for _, ch := range station.Channels {
		it.pending = append(it.pending, it.collect(ch, inv))
	}
}

func (it *Iterator) resolveInventory(row catalog.Row) (*codec.StationInventory, error) {
	g := it.grouper

	invURL, err := resolve.InventoryURL(row)
	if err != nil {
		return nil, errors.InventoryUnavailable(row.Network, row.Station, err)
	}
	cachePath := resolve.InventoryCachePath(g.opts.RootDir, row.Network, row.Station)
	inv, err := g.resolver.ResolveInventory(it.ctx, cachePath, invURL)
	if err != nil {
		return nil, errors.InventoryUnavailable(row.Network, row.Station, err)
	}
	return inv, nil
}
