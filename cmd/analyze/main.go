// Command analyze runs a single analysis over a local CSV or XLSX file and
// prints the report. Without a file argument it analyzes the built-in sample.
//
// Usage:
//
//	go run ./cmd/analyze data/sample/crime_sample.csv --top 5 --format text
//	go run ./cmd/analyze crimes.xlsx --location "Delhi Central" --format json
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/couchcryptid/crime-data-analytics/internal/domain"
	"github.com/couchcryptid/crime-data-analytics/internal/forecast"
	"github.com/couchcryptid/crime-data-analytics/internal/observability"
	"github.com/couchcryptid/crime-data-analytics/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/spf13/cobra"
)

var (
	topN      int
	locations []string
	format    string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze a crime incident table",
	Long: `Resolve the columns of a crime incident table, normalize its rows,
forecast next year's cases per location and rank the highest risk zones.

Examples:
  analyze                                  # analyze the built-in sample
  analyze crimes.csv --top 5               # five highest risk zones
  analyze crimes.xlsx --location Pune      # forecast a single location
  analyze crimes.csv --format json         # full report as JSON`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAnalyze,
}

func init() {
	rootCmd.Flags().IntVar(&topN, "top", domain.DefaultTopN, "Number of top risk zones to list")
	rootCmd.Flags().StringSliceVar(&locations, "location", nil, "Restrict forecasting to these locations (repeatable)")
	rootCmd.Flags().StringVar(&format, "format", "text", "Output format: text, json")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if topN <= 0 {
		return fmt.Errorf("invalid --top %d: must be a positive integer", topN)
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q", format)
	}

	var in pipeline.Input
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		in.Source = filepath.Base(args[0])
		in.Data = data
	}
	in.TopN = topN
	in.Locations = locations

	logger := sharedobs.NewLogger(logLevel, "text")
	analyzer := pipeline.New(forecast.New(logger), nil, nil, logger, observability.NewMetrics(), pipeline.Options{TopN: topN})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := analyzer.Analyze(ctx, in)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return printText(out, report)
}

func printText(out io.Writer, r domain.Report) error {
	fmt.Fprintf(out, "Source: %s", r.Source)
	if r.Encoding != "" {
		fmt.Fprintf(out, " (%s)", r.Encoding)
	}
	fmt.Fprintf(out, "\nRows: %d read, %d kept, %d dropped\n", r.Stats.Rows, r.Stats.Kept, r.Stats.Dropped)
	fmt.Fprintf(out, "Mapping: %s\n\n", formatMapping(r.Mapping))

	s := r.Summary
	fmt.Fprintf(out, "Total cases:      %d\n", s.TotalCases)
	fmt.Fprintf(out, "High-risk zones:  %d (critical %d)\n", s.HighRiskCount, s.CriticalCount)
	fmt.Fprintf(out, "Years:            %d\n", s.DistinctYears)
	fmt.Fprintf(out, "Categories:       %d\n\n", s.DistinctCategories)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tLOCATION\tCATEGORY\tCASES\tSEVERITY")
	for i, z := range r.TopZones {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", i+1, z.Location, z.Category, z.CaseCount, z.Severity)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Forecasts) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LOCATION\tSTATUS\tYEAR\tFORECAST\t95% INTERVAL\tCHANGE")
	for _, fc := range r.Forecasts {
		if fc.Status != domain.ForecastOK {
			fmt.Fprintf(tw, "%s\t%s\t\t\t\t%s\n", fc.Key, fc.Status, fc.Reason)
			continue
		}
		change := "n/a"
		if fc.ChangePct != nil {
			change = fmt.Sprintf("%+.1f%%", *fc.ChangePct)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f\t[%.1f, %.1f]\t%s\n",
			fc.Key, fc.Status, fc.Year, fc.PointEstimate, fc.LowerBound, fc.UpperBound, change)
	}
	return tw.Flush()
}

func formatMapping(m domain.FieldMapping) string {
	fields := []domain.Field{
		domain.FieldLocation, domain.FieldCaseCount, domain.FieldSeverity, domain.FieldYear,
		domain.FieldCategory, domain.FieldLatitude, domain.FieldLongitude,
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if col, ok := m.Column(f); ok {
			parts = append(parts, fmt.Sprintf("%s=%s", f, col))
		}
	}
	return strings.Join(parts, " ")
}
