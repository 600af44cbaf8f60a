package reporting

import (
	"context"
	"fmt"
	"time"

	"forecast-oversight/internal/domain"
	"forecast-oversight/internal/forecast"
	"forecast-oversight/internal/insights"
	"forecast-oversight/internal/storage"
)

// Generator produces reports from stored datasets.
type Generator struct {
	datasetStore storage.DatasetStore
	evaluator    *insights.Evaluator
	now          func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(datasetStore storage.DatasetStore, evaluator *insights.Evaluator) *Generator {
	return &Generator{
		datasetStore: datasetStore,
		evaluator:    evaluator,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a report for the stored dataset filtered by params.
// Returns storage.ErrNotFound if the dataset does not exist.
func (g *Generator) Generate(ctx context.Context, datasetID string, params domain.FilterParams) (*Report, error) {
	dataset, err := g.datasetStore.GetByID(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", datasetID, err)
	}
	return g.Build(dataset, params)
}

// Build produces a report for an in-memory dataset.
func (g *Generator) Build(dataset *domain.Dataset, params domain.FilterParams) (*Report, error) {
	res, err := forecast.Run(dataset.Records, params)
	if err != nil {
		return nil, err
	}

	ins := g.evaluator.Evaluate(res.Subset, res.KPIs)

	return &Report{
		GeneratedAt: g.now(),
		Dataset:     dataset.Summarize(),
		Filter: FilterRow{
			YearMin: params.YearMin,
			YearMax: params.YearMax,
			Levels:  params.Levels.Sorted(),
		},
		KPIs:            res.KPIs,
		Insights:        ins,
		Recommendations: insights.Recommend(ins),
		Roadmap:         insights.DefaultRoadmap(),
		Records:         res.Subset,
	}, nil
}
