// Package catalog loads and partitions the segment catalog: the flat CSV
// table of per-segment fetch URLs and event metadata produced by the
// external query tool. The table is immutable after load; filtering and
// grouping produce views that share the underlying rows.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/seisflow/seisflow/pkg/errors"
)

// Row is one catalog record: a single requested waveform window for one
// channel tied to one seismic event.
type Row struct {
	// Index is the dense zero-based position in the loaded table.
	Index int

	// SegmentID is the opaque source-database identifier, kept for
	// traceability only.
	SegmentID int64

	// URL is the base fetch endpoint, without channel/window parameters.
	URL string

	// ClassLabel is the annotated class (e.g. "urb_single").
	ClassLabel string

	Magnitude     float64
	MagnitudeType string
	EventLat      float64
	EventLon      float64
	EventDepthKm  float64
	EventTime     time.Time
	DistanceDeg   float64

	// Channel identity. Location may be the empty string, which is a
	// valid location code, not a missing value.
	Network  string
	Station  string
	Location string
	Channel  string

	// Requested waveform span.
	WindowStart time.Time
	WindowEnd   time.Time
}

// ChannelKey uniquely identifies a recording channel.
type ChannelKey struct {
	Network  string
	Station  string
	Location string
	Channel  string
}

// ID returns "NET.STA.LOC.CHA".
func (k ChannelKey) ID() string {
	return fmt.Sprintf("%s.%s.%s.%s", k.Network, k.Station, k.Location, k.Channel)
}

// StationKey identifies a recording station.
type StationKey struct {
	Network string
	Station string
}

// ID returns "NET.STA".
func (k StationKey) ID() string {
	return k.Network + "." + k.Station
}

// ChannelKey returns the row's channel identity.
func (r Row) ChannelKey() ChannelKey {
	return ChannelKey{r.Network, r.Station, r.Location, r.Channel}
}

// StationKey returns the row's station identity.
func (r Row) StationKey() StationKey {
	return StationKey{r.Network, r.Station}
}

// Table is an immutable, in-order collection of catalog rows. Safe to
// share read-only across components; filters return new tables over the
// same rows.
type Table struct {
	rows []Row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns the rows in table order. The returned slice must not be
// modified.
func (t *Table) Rows() []Row {
	return t.rows
}

// ClassLabels returns the distinct class labels observed, sorted.
func (t *Table) ClassLabels() []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, r := range t.rows {
		if _, ok := seen[r.ClassLabel]; !ok {
			seen[r.ClassLabel] = struct{}{}
			labels = append(labels, r.ClassLabel)
		}
	}
	sort.Strings(labels)
	return labels
}

// FilterClass returns a view containing only rows whose class label
// matches one of the given labels. No labels means no filtering. The
// original table is untouched.
func (t *Table) FilterClass(labels ...string) *Table {
	if len(labels) == 0 {
		return t
	}
	want := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		want[l] = struct{}{}
	}
	out := &Table{}
	for _, r := range t.rows {
		if _, ok := want[r.ClassLabel]; ok {
			out.rows = append(out.rows, r)
		}
	}
	return out
}

// ChannelGroup is the rows of one channel, in table order.
type ChannelGroup struct {
	Key  ChannelKey
	Rows []Row
}

// GroupByChannel partitions the table by channel key, groups sorted by
// key. Rows keep their table order within a group.
func (t *Table) GroupByChannel() []ChannelGroup {
	byKey := make(map[ChannelKey][]Row)
	for _, r := range t.rows {
		k := r.ChannelKey()
		byKey[k] = append(byKey[k], r)
	}

	keys := make([]ChannelKey, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].ID() < keys[j].ID()
	})

	groups := make([]ChannelGroup, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, ChannelGroup{Key: k, Rows: byKey[k]})
	}
	return groups
}

// StationGroup is the channel groups of one station, channels sorted by
// key.
type StationGroup struct {
	Key      StationKey
	Channels []ChannelGroup
}

// GroupByStation partitions the table by station first, then by channel
// within each station. Stations sorted by key.
func (t *Table) GroupByStation() []StationGroup {
	byStation := make(map[StationKey][]Row)
	for _, r := range t.rows {
		k := r.StationKey()
		byStation[k] = append(byStation[k], r)
	}

	keys := make([]StationKey, 0, len(byStation))
	for k := range byStation {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].ID() < keys[j].ID()
	})

	groups := make([]StationGroup, 0, len(keys))
	for _, k := range keys {
		sub := &Table{rows: byStation[k]}
		groups = append(groups, StationGroup{Key: k, Channels: sub.GroupByChannel()})
	}
	return groups
}

// Required catalog columns. location is listed but exempt from the
// missing-value check: an empty location code is valid data.
var requiredColumns = []string{
	"segment_id", "url", "class_label",
	"magnitude", "magnitude_type",
	"event_lat", "event_lon", "event_depth_km", "event_time",
	"distance_deg",
	"network", "station", "location", "channel",
	"window_start", "window_end",
}

// Load reads and validates a catalog CSV from path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCatalogRead, "opening catalog").
			WithContext("path", path)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads and validates a catalog CSV from r.
func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeMalformedCatalog, "reading catalog header")
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, errors.MissingColumn(col)
		}
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeMalformedCatalog, "reading catalog record %d", len(rows)+1)
		}

		row, err := parseRow(record, colIdx, len(rows))
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	return &Table{rows: rows}, nil
}

func parseRow(record []string, colIdx map[string]int, index int) (Row, error) {
	field := func(col string) string {
		return strings.TrimSpace(record[colIdx[col]])
	}

	// Every required column except location must carry a value.
	for _, col := range requiredColumns {
		if col == "location" {
			continue
		}
		if field(col) == "" {
			return Row{}, errors.MissingValue(col, index)
		}
	}

	segID, err := strconv.ParseInt(field("segment_id"), 10, 64)
	if err != nil {
		return Row{}, errors.Wrapf(err, errors.CodeMalformedCatalog, "row %d: segment_id", index)
	}

	floats := make(map[string]float64, 5)
	for _, col := range []string{"magnitude", "event_lat", "event_lon", "event_depth_km", "distance_deg"} {
		v, err := strconv.ParseFloat(field(col), 64)
		if err != nil {
			return Row{}, errors.Wrapf(err, errors.CodeMalformedCatalog, "row %d: %s", index, col)
		}
		floats[col] = v
	}

	times := make(map[string]time.Time, 3)
	for _, col := range []string{"event_time", "window_start", "window_end"} {
		v, err := parseTime(field(col))
		if err != nil {
			return Row{}, errors.BadTimestamp(col, field(col), index)
		}
		times[col] = v
	}

	if !times["window_start"].Before(times["window_end"]) {
		return Row{}, errors.New(errors.CodeBadWindow, "window_start is not before window_end").
			WithContext("row", index)
	}

	return Row{
		Index:         index,
		SegmentID:     segID,
		URL:           field("url"),
		ClassLabel:    field("class_label"),
		Magnitude:     floats["magnitude"],
		MagnitudeType: field("magnitude_type"),
		EventLat:      floats["event_lat"],
		EventLon:      floats["event_lon"],
		EventDepthKm:  floats["event_depth_km"],
		EventTime:     times["event_time"],
		DistanceDeg:   floats["distance_deg"],
		Network:       field("network"),
		Station:       field("station"),
		Location:      field("location"),
		Channel:       field("channel"),
		WindowStart:   times["window_start"],
		WindowEnd:     times["window_end"],
	}, nil
}

// timeLayouts accepted in catalog timestamp columns: ISO-8601 with or
// without zone, with or without fractional seconds.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
