package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/chart"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/summary"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/table"
	"github.com/MyFaduGame/csv-analyzer/internal/app"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	rootCmd := &cobra.Command{
		Use:          "csv-analyzer",
		Short:        "Summarize, chart and ask questions about CSV and XLSX files",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         runServe,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (default /config/config.yaml, or ./config/config.yaml with LOCAL=true)")

	describeCmd := &cobra.Command{
		Use:   "describe <file>",
		Short: "Print the summary of a local CSV or XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE:  runDescribe,
	}
	describeCmd.Flags().String("charts", "", "Render charts into this directory")

	rootCmd.AddCommand(serveCmd, describeCmd)
	return rootCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	application := app.New(app.Options{ConfigPath: configPath})
	wait := application.Start() // returns once a termination signal arrives
	<-wait

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx)

	return nil
}

func runDescribe(cmd *cobra.Command, args []string) error {
	path := args[0]
	chartDir, err := cmd.Flags().GetString("charts")
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	tbl, err := table.Parse(ctx, table.FormatFromFilename(path), f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	raw, err := json.MarshalIndent(summary.Summarize(tbl), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(raw))

	if chartDir == "" {
		return nil
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	paths, err := chart.NewGenerator(chart.Config{Dir: chartDir}).Generate(ctx, stem, tbl)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}

	return nil
}
