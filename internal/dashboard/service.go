// Package dashboard is the application layer behind the HTTP API and
// CLI. It stores uploaded datasets, recomputes KPIs per filter request
// and records every computation as a snapshot.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"forecast-oversight/internal/domain"
	"forecast-oversight/internal/events"
	"forecast-oversight/internal/forecast"
	"forecast-oversight/internal/insights"
	"forecast-oversight/internal/observability"
	"forecast-oversight/internal/reporting"
	"forecast-oversight/internal/storage"
)

// Backends names the storage backends for metric labels.
type Backends struct {
	Datasets  string
	Snapshots string
}

// Service coordinates stores, the forecast pipeline and event publishing.
type Service struct {
	datasets  storage.DatasetStore
	snapshots storage.SnapshotStore
	publisher events.Publisher
	evaluator *insights.Evaluator
	reports   *reporting.Generator
	logger    *log.Logger
	backends  Backends

	now   func() time.Time
	newID func() string

	startedAt        time.Time
	datasetsUploaded atomic.Int64
	kpiComputations  atomic.Int64
	snapshotFailures atomic.Int64
}

// NewService creates a dashboard service. A nil publisher disables events.
func NewService(
	datasets storage.DatasetStore,
	snapshots storage.SnapshotStore,
	publisher events.Publisher,
	evaluator *insights.Evaluator,
	logger *log.Logger,
) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if evaluator == nil {
		evaluator = insights.NewEvaluator(insights.DefaultThresholds())
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	now := func() time.Time { return time.Now().UTC() }
	return &Service{
		datasets:  datasets,
		snapshots: snapshots,
		publisher: publisher,
		evaluator: evaluator,
		reports:   reporting.NewGenerator(datasets, evaluator).WithClock(now),
		logger:    logger,
		backends:  Backends{Datasets: "memory", Snapshots: "memory"},
		now:       now,
		newID:     uuid.NewString,
		startedAt: now(),
	}
}

// WithClock sets a custom clock function for deterministic output.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	s.reports.WithClock(now)
	s.startedAt = now()
	return s
}

// WithIDGenerator sets the function used for dataset and snapshot ids.
func (s *Service) WithIDGenerator(newID func() string) *Service {
	s.newID = newID
	return s
}

// WithBackends sets the backend names used in database metrics.
func (s *Service) WithBackends(b Backends) *Service {
	s.backends = b
	return s
}

// Evaluator returns the insight evaluator in use.
func (s *Service) Evaluator() *insights.Evaluator {
	return s.evaluator
}

// Upload parses, validates and stores a dataset.
// Returns a *forecast.ParseError or *forecast.DataValidationError for bad input.
func (s *Service) Upload(ctx context.Context, name string, r io.Reader) (domain.DatasetSummary, error) {
	records, err := forecast.LoadAndEnrich(r)
	if err != nil {
		switch {
		case errors.Is(err, forecast.ErrParse):
			observability.RecordLoadError("parse_error")
		case errors.Is(err, forecast.ErrDataValidation):
			observability.RecordLoadError("validation_error")
		}
		return domain.DatasetSummary{}, err
	}

	id := s.newID()
	name = strings.TrimSpace(name)
	if name == "" {
		name = "dataset-" + id
	}
	uploadedAt := s.now()
	d := &domain.Dataset{
		ID:         id,
		Name:       name,
		UploadedAt: uploadedAt.UnixMilli(),
		Records:    records,
	}

	start := time.Now()
	err = s.datasets.Insert(ctx, d)
	s.observe(s.backends.Datasets, "insert_dataset", start, err)
	if err != nil {
		return domain.DatasetSummary{}, fmt.Errorf("store dataset: %w", err)
	}

	summary := d.Summarize()
	s.datasetsUploaded.Add(1)
	observability.RecordDatasetUploaded(len(records), float64(uploadedAt.Unix()))
	s.logger.Printf("Dataset %s (%q) uploaded: %d records, years %d-%d",
		summary.ID, summary.Name, summary.RecordCount, summary.YearMin, summary.YearMax)

	if err := s.publisher.PublishDatasetUploaded(ctx, summary); err != nil {
		s.logger.Printf("Warning: publish dataset %s: %v", summary.ID, err)
	}
	return summary, nil
}

// List returns summaries of all stored datasets.
func (s *Service) List(ctx context.Context) ([]domain.DatasetSummary, error) {
	start := time.Now()
	list, err := s.datasets.List(ctx)
	s.observe(s.backends.Datasets, "list_datasets", start, err)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	return list, nil
}

// Dataset loads a stored dataset with its records.
// Returns storage.ErrNotFound if the dataset does not exist.
func (s *Service) Dataset(ctx context.Context, id string) (*domain.Dataset, error) {
	start := time.Now()
	d, err := s.datasets.GetByID(ctx, id)
	s.observe(s.backends.Datasets, "get_dataset", start, err)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", id, err)
	}
	return d, nil
}

// Get returns the summary of a stored dataset.
func (s *Service) Get(ctx context.Context, id string) (domain.DatasetSummary, error) {
	d, err := s.Dataset(ctx, id)
	if err != nil {
		return domain.DatasetSummary{}, err
	}
	return d.Summarize(), nil
}

// Delete removes a dataset. Its snapshots are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.datasets.Delete(ctx, id)
	s.observe(s.backends.Datasets, "delete_dataset", start, err)
	if err != nil {
		return fmt.Errorf("delete dataset %s: %w", id, err)
	}
	s.logger.Printf("Dataset %s deleted", id)
	return nil
}

// KPIs computes the KPIs of the stored dataset filtered by q.
func (s *Service) KPIs(ctx context.Context, id string, q FilterQuery) (*KPIResult, error) {
	d, err := s.Dataset(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.KPIsFor(ctx, d, q)
}

// KPIsFor computes the KPIs of an already loaded dataset filtered by q
// and records a snapshot. Snapshot and publish failures are logged and
// do not fail the call.
func (s *Service) KPIsFor(ctx context.Context, d *domain.Dataset, q FilterQuery) (*KPIResult, error) {
	params, res, err := s.compute(d, q)
	if err != nil {
		return nil, err
	}
	snap := s.recordSnapshot(ctx, d.ID, params, res.KPIs)
	return &KPIResult{
		DatasetID:  d.ID,
		Filter:     params,
		KPIs:       res.KPIs,
		SnapshotID: snap.ID,
	}, nil
}

// View builds the full dashboard view of the stored dataset filtered by q.
func (s *Service) View(ctx context.Context, id string, q FilterQuery) (*View, error) {
	d, err := s.Dataset(ctx, id)
	if err != nil {
		return nil, err
	}
	params, res, err := s.compute(d, q)
	if err != nil {
		return nil, err
	}
	snap := s.recordSnapshot(ctx, d.ID, params, res.KPIs)

	ins := s.evaluator.Evaluate(res.Subset, res.KPIs)
	if ins.HighGap.Triggered {
		observability.RecordHighGapAlert()
	}
	return &View{
		Dataset:         d.Summarize(),
		Filter:          params,
		KPIs:            res.KPIs,
		SnapshotID:      snap.ID,
		Insights:        ins,
		Series:          insights.BuildSeries(res.Subset),
		Roadmap:         insights.DefaultRoadmap(),
		Recommendations: insights.Recommend(ins),
	}, nil
}

// Report renders the markdown report of the stored dataset filtered by q.
func (s *Service) Report(ctx context.Context, id string, q FilterQuery) (string, error) {
	rep, err := s.buildReport(ctx, id, q)
	if err != nil {
		return "", err
	}
	observability.RecordReport("markdown")
	return reporting.RenderMarkdown(rep), nil
}

// RecordsCSV renders the filtered enriched records as CSV.
func (s *Service) RecordsCSV(ctx context.Context, id string, q FilterQuery) (string, error) {
	rep, err := s.buildReport(ctx, id, q)
	if err != nil {
		return "", err
	}
	observability.RecordReport("csv")
	return reporting.RenderRecordsCSV(rep.Records), nil
}

// History returns the KPI snapshots recorded for a dataset.
func (s *Service) History(ctx context.Context, id string) ([]*domain.KPISnapshot, error) {
	if _, err := s.Dataset(ctx, id); err != nil {
		return nil, err
	}
	start := time.Now()
	snaps, err := s.snapshots.GetByDataset(ctx, id)
	s.observe(s.backends.Snapshots, "get_snapshots", start, err)
	if err != nil {
		return nil, fmt.Errorf("load snapshots for %s: %w", id, err)
	}
	return snaps, nil
}

// Stats returns service counters for the status endpoint.
func (s *Service) Stats() Stats {
	return Stats{
		StartedAt:        s.startedAt,
		Uptime:           s.now().Sub(s.startedAt),
		DatasetsUploaded: s.datasetsUploaded.Load(),
		KPIComputations:  s.kpiComputations.Load(),
		SnapshotFailures: s.snapshotFailures.Load(),
	}
}

func (s *Service) buildReport(ctx context.Context, id string, q FilterQuery) (*reporting.Report, error) {
	d, err := s.Dataset(ctx, id)
	if err != nil {
		return nil, err
	}
	params, err := ResolveFilter(d.Summarize(), q)
	if err != nil {
		return nil, err
	}
	return s.reports.Build(d, params)
}

func (s *Service) compute(d *domain.Dataset, q FilterQuery) (domain.FilterParams, *forecast.Result, error) {
	params, err := ResolveFilter(d.Summarize(), q)
	if err != nil {
		return domain.FilterParams{}, nil, err
	}

	start := time.Now()
	res, err := forecast.Run(d.Records, params)
	if err != nil {
		observability.RecordKPIComputation("error", time.Since(start).Seconds())
		return domain.FilterParams{}, nil, err
	}
	observability.RecordKPIComputation("ok", time.Since(start).Seconds())
	s.kpiComputations.Add(1)
	return params, res, nil
}

func (s *Service) recordSnapshot(ctx context.Context, datasetID string, params domain.FilterParams, kpis domain.KPISummary) *domain.KPISnapshot {
	snap := &domain.KPISnapshot{
		ID:         s.newID(),
		DatasetID:  datasetID,
		ComputedAt: s.now().UnixMilli(),
		YearMin:    params.YearMin,
		YearMax:    params.YearMax,
		Levels:     params.Levels.Sorted(),
		Summary:    kpis,
	}

	start := time.Now()
	err := s.snapshots.Insert(ctx, snap)
	s.observe(s.backends.Snapshots, "insert_snapshot", start, err)
	if err != nil {
		s.snapshotFailures.Add(1)
		observability.RecordSnapshotError()
		s.logger.Printf("Warning: store snapshot for dataset %s: %v", datasetID, err)
		return snap
	}

	if err := s.publisher.PublishKPIComputed(ctx, snap); err != nil {
		s.logger.Printf("Warning: publish snapshot %s: %v", snap.ID, err)
	}
	return snap
}

// observe records query metrics. Missing rows are not counted as errors.
func (s *Service) observe(database, operation string, start time.Time, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		err = nil
	}
	observability.RecordDBQuery(database, operation, time.Since(start).Seconds(), err)
}
