// Package download drives the resolver across an entire catalog table up
// front, persisting every waveform to a deterministic destination path.
// It is independent of the grouping engine and exists for standalone
// pre-fetching.
package download

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/seisflow/seisflow/pkg/catalog"
	"github.com/seisflow/seisflow/pkg/errors"
	"github.com/seisflow/seisflow/pkg/resolve"
)

// Options configures a Downloader.
type Options struct {
	// Logger receives per-row warnings. Zero value is a no-op logger.
	Logger zerolog.Logger

	// Progress, when set, is called after each row with the number of
	// rows handled so far and the total.
	Progress func(done, total int)
}

// Report summarizes one download pass.
type Report struct {
	// Saved counts rows newly written in this pass.
	Saved int

	// Existing counts rows whose destination file was already present
	// and was trusted without re-verification.
	Existing int

	// Failed counts rows that could not be saved (fetch error,
	// multi-segment stream, identity mismatch, write error).
	Failed int
}

// Total returns the rows that ended up on disk, saved plus existing.
func (r *Report) Total() int {
	return r.Saved + r.Existing
}

// Downloader saves every catalog row's waveform under a root directory:
//
//	root/<class_label>/NET.STA.LOC.CHA/<descriptive filename>.sfw
//
// A single row failure never aborts the batch; it is logged, counted and
// skipped. Run only returns an error when the context is canceled.
type Downloader struct {
	table    *catalog.Table
	resolver *resolve.Resolver
	root     string
	opts     Options
}

// New creates a Downloader writing under root.
func New(table *catalog.Table, resolver *resolve.Resolver, root string, opts Options) *Downloader {
	return &Downloader{table: table, resolver: resolver, root: root, opts: opts}
}

// Run processes every row in table order and returns the pass report.
func (d *Downloader) Run(ctx context.Context) (*Report, error) {
	report := &Report{}
	rows := d.table.Rows()

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(err, errors.CodeContextCanceled, "download canceled")
		}

		if err := d.downloadRow(ctx, row, report); err != nil {
			report.Failed++
			d.opts.Logger.Warn().
				Int64("segment_id", row.SegmentID).
				Str("url", row.URL).
				Err(err).
				Msg("segment not saved")
		}

		if d.opts.Progress != nil {
			d.opts.Progress(i+1, len(rows))
		}
	}

	return report, nil
}

// downloadRow saves one row, or reports why it could not be saved.
func (d *Downloader) downloadRow(ctx context.Context, row catalog.Row, report *Report) error {
	dest := resolve.DownloadPath(d.root, row)

	// An existing file is success; content is never re-verified.
	if _, err := os.Stat(dest); err == nil {
		report.Existing++
		return nil
	}

	fetchURL, err := resolve.WaveformURL(row)
	if err != nil {
		return err
	}

	trace, err := d.resolver.ResolveWaveform(ctx, "", fetchURL)
	if err != nil {
		return err
	}

	wantID := row.ChannelKey().ID()
	if trace.ID() != wantID {
		return errors.IdentityMismatch(wantID, trace.ID())
	}

	trace.Detrend()

	if err := d.resolver.EncodeWaveform(dest, trace); err != nil {
		return err
	}

	report.Saved++
	return nil
}
