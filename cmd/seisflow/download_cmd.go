package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/seisflow/seisflow/pkg/catalog"
	"github.com/seisflow/seisflow/pkg/download"
	"github.com/seisflow/seisflow/pkg/resolve"
	"github.com/seisflow/seisflow/pkg/tui"
)

var downloadCmd = &cobra.Command{
	Use:   "download <destdir>",
	Short: "Download every catalog waveform to a local directory tree",
	Long: `Download fetches the waveform of every row in the segment catalog and
saves it under <destdir>/<class_label>/<channel>/<descriptive name>.

Rows whose destination file already exists are skipped. A row that fails
(fetch error, gaps/overlaps, channel identity mismatch) is logged and the
pass continues; the command exits zero whenever the pass completes.

Examples:
  seisflow download data/
  seisflow download --catalog urls.csv --verbose data/`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func runDownload(cmd *cobra.Command, args []string) error {
	destdir := args[0]
	if err := ensureDestDir(destdir); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger()

	table, err := catalog.NewCache(cfg.Catalog).Table()
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	fmt.Println("Downloading and saving segment waveforms in:")
	fmt.Println(destdir)
	fmt.Println()

	resolver := resolve.New(resolve.Options{
		Timeout: cfg.Fetch.Timeout(),
		Logger:  log,
	})

	bar := tui.ShowProgress(int64(table.Len()), "downloading")
	dl := download.New(table, resolver, destdir, download.Options{
		Logger: log,
		Progress: func(done, total int) {
			_ = bar.Set(done)
		},
	})

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	report, err := dl.Run(ctx)
	_ = bar.Finish()
	tui.ClearLine()
	if err != nil {
		return err
	}

	tui.PrintDownloadReport(&tui.DownloadReport{
		Saved:    report.Saved,
		Existing: report.Existing,
		Failed:   report.Failed,
		Duration: time.Since(start),
		DestDir:  destdir,
	})
	fmt.Printf("Done, %d segments saved under %s\n", report.Total(), destdir)
	return nil
}

// ensureDestDir enforces the destination contract: the parent directory
// must already exist; the destination itself is created when missing.
func ensureDestDir(destdir string) error {
	parent := filepath.Dir(filepath.Clean(destdir))
	if info, err := os.Stat(parent); err != nil || !info.IsDir() {
		return fmt.Errorf("%s parent directory does not exist", destdir)
	}
	return os.MkdirAll(destdir, 0o755)
}

// signalContext returns a context canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted, cleaning up...")
		cancel()
	}()
	return ctx, cancel
}
