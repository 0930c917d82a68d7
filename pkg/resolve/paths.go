// Package resolve turns a catalog row into a waveform or station
// inventory through a local-cache-first, remote-fetch-second policy, and
// defines the deterministic cache and download path conventions.
package resolve

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/seisflow/seisflow/pkg/catalog"
	"github.com/seisflow/seisflow/pkg/codec"
	"github.com/seisflow/seisflow/pkg/errors"
)

// queryTimeLayout is the second-precision ISO-8601 form used in fetch
// query parameters and in filename attributes.
const queryTimeLayout = "2006-01-02T15:04:05"

// inventoryDirName is the subdirectory of the cache root holding station
// inventories.
const inventoryDirName = "station_inventories"

// WaveformCachePath returns the cache location for a row's waveform:
//
//	root/NET.STA.LOC.CHA/mag=<m>_lat=<lat>_lon=<lon>_depth=<d>_time=<t>.sfw
//
// A pure function of (root, row): the same inputs always map to the same
// path. An empty root returns "" (caching disabled).
func WaveformCachePath(root string, row catalog.Row) string {
	if root == "" {
		return ""
	}
	name := fmt.Sprintf("mag=%s_lat=%s_lon=%s_depth=%s_time=%s",
		formatFloat(row.Magnitude),
		formatFloat(row.EventLat),
		formatFloat(row.EventLon),
		formatFloat(row.EventDepthKm),
		row.EventTime.Format(queryTimeLayout))
	return filepath.Join(root, row.ChannelKey().ID(), name+codec.TraceExt)
}

// InventoryCachePath returns the cache location for a station inventory:
//
//	root/station_inventories/NET.STA.xml
func InventoryCachePath(root, network, station string) string {
	if root == "" {
		return ""
	}
	return filepath.Join(root, inventoryDirName, network+"."+station+codec.InventoryExt)
}

// DownloadPath returns the bulk-download destination for a row:
//
//	root/<class>/NET.STA.LOC.CHA/mag=<m>;magt=<mt>;lat=<lat>;lon=<lon>;depth=<d>;time=<t>;id=<segid>.sfw
func DownloadPath(root string, row catalog.Row) string {
	name := fmt.Sprintf("mag=%s;magt=%s;lat=%s;lon=%s;depth=%s;time=%s;id=%d",
		formatFloat(row.Magnitude),
		row.MagnitudeType,
		formatFloat(row.EventLat),
		formatFloat(row.EventLon),
		formatFloat(row.EventDepthKm),
		row.EventTime.Format(queryTimeLayout),
		row.SegmentID)
	return filepath.Join(root, row.ClassLabel, row.ChannelKey().ID(), name+codec.TraceExt)
}

// WaveformURL builds the row's waveform fetch URL: the base URL with
// net, sta, loc, cha and the requested window appended as query
// parameters.
func WaveformURL(row catalog.Row) (string, error) {
	u, err := url.Parse(row.URL)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeFetchFailed, "parsing base URL").
			WithContext("url", row.URL)
	}
	q := u.Query()
	q.Set("net", row.Network)
	q.Set("sta", row.Station)
	q.Set("loc", row.Location)
	q.Set("cha", row.Channel)
	q.Set("starttime", row.WindowStart.Format(queryTimeLayout))
	q.Set("endtime", row.WindowEnd.Format(queryTimeLayout))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// InventoryURL builds the row's station-inventory fetch URL: the base URL
// with its "dataselect" path segment swapped for "station" and net, sta,
// level=response as query parameters.
func InventoryURL(row catalog.Row) (string, error) {
	u, err := url.Parse(row.URL)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeFetchFailed, "parsing base URL").
			WithContext("url", row.URL)
	}
	u.Path = strings.Replace(u.Path, "dataselect", "station", 1)
	q := u.Query()
	q.Set("net", row.Network)
	q.Set("sta", row.Station)
	q.Set("level", "response")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// formatFloat renders a float the shortest way that round-trips, so
// filenames stay stable across formatting code paths.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// TimeFormat formats t the way query parameters and filenames encode it.
func TimeFormat(t time.Time) string {
	return t.Format(queryTimeLayout)
}
