package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/crime-data-analytics/internal/domain"
	"github.com/couchcryptid/crime-data-analytics/internal/ingest"
	"github.com/couchcryptid/crime-data-analytics/internal/observability"
	"github.com/google/uuid"
)

// SampleSource names reports built from the built-in sample table.
const SampleSource = "sample"

// Forecaster predicts the next value of a yearly series.
type Forecaster interface {
	Forecast(series domain.Series) domain.Forecast
}

// ReportSink receives finished reports.
type ReportSink interface {
	PublishReport(ctx context.Context, report domain.Report) error
}

// Options bounds the work done per analysis.
type Options struct {
	TopN                 int
	ForecastMaxLocations int
}

// Input is one analysis request.
type Input struct {
	// Source is the upload name, used for workbook detection and reporting.
	Source string
	// Data is the raw upload. Empty data analyzes the sample table.
	Data []byte
	// TopN overrides the analyzer default when positive.
	TopN int
	// Locations restricts forecasting to these locations when non-empty.
	Locations []string
}

// Analyzer runs the resolve, normalize, aggregate, forecast and rank stages
// over one table per call. Calls share no mutable state.
type Analyzer struct {
	forecaster Forecaster
	geocoder   domain.Geocoder
	sink       ReportSink
	logger     *slog.Logger
	metrics    *observability.Metrics
	opts       Options
	ready      atomic.Bool
}

// New creates an Analyzer. geocoder and sink may be nil.
func New(forecaster Forecaster, geocoder domain.Geocoder, sink ReportSink, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Analyzer {
	if opts.TopN <= 0 {
		opts.TopN = domain.DefaultTopN
	}
	if opts.ForecastMaxLocations <= 0 {
		opts.ForecastMaxLocations = 50
	}
	return &Analyzer{
		forecaster: forecaster,
		geocoder:   geocoder,
		sink:       sink,
		logger:     logger,
		metrics:    metrics,
		opts:       opts,
	}
}

// CheckReadiness returns nil once the warm-up analysis has completed.
func (a *Analyzer) CheckReadiness(_ context.Context) error {
	if !a.ready.Load() {
		return errors.New("warm-up analysis has not completed")
	}
	return nil
}

// WarmUp analyzes the sample table without publishing and marks the
// analyzer ready on success.
func (a *Analyzer) WarmUp(ctx context.Context) error {
	report, err := a.analyze(ctx, Input{}, false)
	if err != nil {
		return fmt.Errorf("warm-up: %w", err)
	}
	a.ready.Store(true)
	a.metrics.ServiceReady.Set(1)
	a.logger.Info("warm-up analysis complete",
		"records", len(report.Records),
		"forecasts", len(report.Forecasts),
	)
	return nil
}

// Analyze decodes the upload, or falls back to the sample table when there is
// none, and builds a report. Only an unreadable upload or a cancelled
// context fails the run.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (domain.Report, error) {
	return a.analyze(ctx, in, true)
}

func (a *Analyzer) analyze(ctx context.Context, in Input, publish bool) (domain.Report, error) {
	start := time.Now()

	table, source, encoding, err := a.load(in)
	if err != nil {
		a.metrics.AnalysesTotal.WithLabelValues("ingest_error").Inc()
		return domain.Report{}, err
	}

	report, err := a.run(ctx, table, in)
	if err != nil {
		a.metrics.AnalysesTotal.WithLabelValues("error").Inc()
		return domain.Report{}, err
	}
	report.Source = source
	report.Encoding = encoding

	if publish && a.sink != nil {
		a.publish(ctx, report)
	}

	a.metrics.AnalysesTotal.WithLabelValues("success").Inc()
	a.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	a.logger.Info("analysis complete",
		"run_id", report.RunID,
		"source", report.Source,
		"rows", report.Stats.Rows,
		"kept", report.Stats.Kept,
		"dropped", report.Stats.Dropped,
		"forecasts", len(report.Forecasts),
		"duration", time.Since(start),
	)
	return report, nil
}

func (a *Analyzer) load(in Input) (domain.RawTable, string, string, error) {
	res, err := ingest.Decode(in.Source, in.Data)
	if errors.Is(err, ingest.ErrNoFile) {
		return domain.SampleTable(), SampleSource, "", nil
	}
	if err != nil {
		a.logger.Warn("upload rejected", "source", in.Source, "bytes", len(in.Data), "error", err)
		return domain.RawTable{}, "", "", err
	}
	source := in.Source
	if source == "" {
		source = "upload"
	}
	return res.Table, source, res.Encoding, nil
}

func (a *Analyzer) run(ctx context.Context, table domain.RawTable, in Input) (domain.Report, error) {
	mapping := domain.ResolveSchema(table.Columns)
	records, stats := domain.NormalizeTable(table, mapping)

	a.metrics.RowsIngested.Add(float64(stats.Rows))
	for reason, n := range stats.Reasons {
		a.metrics.RowsDropped.WithLabelValues(string(reason)).Add(float64(n))
	}

	records = domain.EnrichWithGeocoding(ctx, records, a.geocoder, a.logger)

	forecasts, err := a.forecast(ctx, records, in.Locations)
	if err != nil {
		return domain.Report{}, err
	}

	topN := a.opts.TopN
	if in.TopN > 0 {
		topN = in.TopN
	}

	return domain.Report{
		RunID:          uuid.NewString(),
		GeneratedAt:    domain.Now(),
		Mapping:        mapping,
		Stats:          stats,
		Summary:        domain.Summarize(records),
		Records:        records,
		Hotspots:       domain.Hotspots(records),
		MapCenter:      domain.MapCenter(records),
		Alerts:         domain.Alerts(records),
		LocationSeries: domain.SeriesByLocation(records),
		CategorySeries: domain.SeriesByCategory(records),
		Forecasts:      forecasts,
		TopZones:       domain.TopN(records, topN),
	}, nil
}

// forecast fits one model per location. A failed fit only affects its own
// location.
func (a *Analyzer) forecast(ctx context.Context, records []domain.Record, locations []string) ([]domain.Forecast, error) {
	var series []domain.Series
	if len(locations) > 0 {
		for _, loc := range locations {
			series = append(series, domain.LocationSeries(records, loc))
		}
	} else {
		series = domain.SeriesByLocation(records)
		if len(series) > a.opts.ForecastMaxLocations {
			a.logger.Info("forecast locations truncated",
				"locations", len(series),
				"limit", a.opts.ForecastMaxLocations,
			)
			series = series[:a.opts.ForecastMaxLocations]
		}
	}

	out := make([]domain.Forecast, 0, len(series))
	for _, s := range series {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		fc := a.forecaster.Forecast(s)
		a.metrics.ForecastDuration.Observe(time.Since(start).Seconds())
		a.metrics.ForecastsTotal.WithLabelValues(string(fc.Status)).Inc()
		if fc.Status == domain.ForecastUnavailable {
			a.logger.Warn("forecast unavailable", "location", s.Key, "reason", fc.Reason)
		}
		out = append(out, fc)
	}
	return out, nil
}

func (a *Analyzer) publish(ctx context.Context, report domain.Report) {
	if err := a.sink.PublishReport(ctx, report); err != nil {
		a.metrics.ReportsPublished.WithLabelValues("error").Inc()
		a.logger.Warn("report publish failed", "run_id", report.RunID, "error", err)
		return
	}
	a.metrics.ReportsPublished.WithLabelValues("success").Inc()
}
