// seisflow - labeled seismic-waveform dataset assembly.
// Downloads and caches event waveforms from a segment catalog, groups
// them by recording channel and synthesizes multi-event composites.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seisflow/seisflow/pkg/config"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// Global flags
var (
	configFile  string
	catalogFile string
	cacheDir    string
	verbose     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "seisflow",
	Short: "seisflow - assemble labeled seismic-waveform datasets",
	Long: `seisflow assembles a labeled seismic-waveform dataset from a catalog of
segment URLs: it downloads and caches event waveforms, groups them by
recording channel, and synthesizes artificial multi-event waveforms by
overlaying pairs of single-event recordings.`,
	Version: fmt.Sprintf("%s (%s)", version, commit),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&catalogFile, "catalog", "", "Segment catalog CSV (overrides config)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Local waveform/inventory cache root (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(synthCmd)
	rootCmd.AddCommand(infoCmd)
}

// loadConfig merges the config file with the global flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return cfg, err
	}
	if catalogFile != "" {
		cfg.Catalog = catalogFile
	}
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}
	return cfg, nil
}

// newLogger builds the CLI logger: console warnings by default, debug
// detail with -v.
func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
