package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seisflow/seisflow/pkg/catalog"
	"github.com/seisflow/seisflow/pkg/tui"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display catalog summary and class-label vocabulary",
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	table, err := catalog.NewCache(cfg.Catalog).Table()
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	tui.PrintHeader(version, "labeled seismic-waveform dataset assembly")
	fmt.Printf("  Catalog:  %s\n", cfg.Catalog)
	fmt.Printf("  Rows:     %d\n", table.Len())
	fmt.Printf("  Channels: %d\n", len(table.GroupByChannel()))
	fmt.Println()

	counts := make(map[string]int)
	for _, r := range table.Rows() {
		counts[r.ClassLabel]++
	}
	tui.PrintLabels(table.ClassLabels(), counts)
	return nil
}
