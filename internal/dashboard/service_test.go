package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forecast-oversight/internal/domain"
	"forecast-oversight/internal/forecast"
	"forecast-oversight/internal/insights"
	"forecast-oversight/internal/storage"
	"forecast-oversight/internal/storage/memory"
)

const scenarioCSV = `Year,PlannedOutput,ActualOutput,Orders,Backlog,ProductionGap,Predicted_Gap,Risk_Level
2021,500,470,100,1200,30,30,Low
2022,520,400,200,1500,120,400,High
2023,540,500,150,1400,40,50,High
`

type recordingPublisher struct {
	mu        sync.Mutex
	uploads   []domain.DatasetSummary
	snapshots []*domain.KPISnapshot
	err       error
}

func (p *recordingPublisher) PublishDatasetUploaded(_ context.Context, s domain.DatasetSummary) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uploads = append(p.uploads, s)
	return p.err
}

func (p *recordingPublisher) PublishKPIComputed(_ context.Context, snap *domain.KPISnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, snap)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type failingSnapshotStore struct{}

func (failingSnapshotStore) Insert(context.Context, *domain.KPISnapshot) error {
	return errors.New("clickhouse unavailable")
}

func (failingSnapshotStore) GetByDataset(context.Context, string) ([]*domain.KPISnapshot, error) {
	return nil, errors.New("clickhouse unavailable")
}

type testEnv struct {
	svc       *Service
	publisher *recordingPublisher
	logs      *bytes.Buffer
}

func newTestEnv(t *testing.T, snapshots storage.SnapshotStore) *testEnv {
	t.Helper()

	if snapshots == nil {
		snapshots = memory.NewSnapshotStore()
	}
	pub := &recordingPublisher{}
	logs := &bytes.Buffer{}
	n := 0
	svc := NewService(memory.NewDatasetStore(), snapshots, pub, nil, log.New(logs, "", 0)).
		WithClock(func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }).
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		})
	return &testEnv{svc: svc, publisher: pub, logs: logs}
}

func (e *testEnv) upload(t *testing.T) domain.DatasetSummary {
	t.Helper()
	s, err := e.svc.Upload(context.Background(), "plant-a.csv", strings.NewReader(scenarioCSV))
	require.NoError(t, err)
	return s
}

func TestService_Upload(t *testing.T) {
	env := newTestEnv(t, nil)
	s := env.upload(t)

	assert.Equal(t, "id-1", s.ID)
	assert.Equal(t, "plant-a.csv", s.Name)
	assert.Equal(t, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC).UnixMilli(), s.UploadedAt)
	assert.Equal(t, 3, s.RecordCount)
	assert.Equal(t, 2021, s.YearMin)
	assert.Equal(t, 2023, s.YearMax)
	assert.Equal(t, 3, s.YearSpan)
	assert.Equal(t, []domain.RiskLevel{domain.RiskLow, domain.RiskHigh}, s.RiskLevels)

	require.Len(t, env.publisher.uploads, 1)
	assert.Equal(t, s, env.publisher.uploads[0])

	got, err := env.svc.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	d, err := env.svc.Dataset(context.Background(), s.ID)
	require.NoError(t, err)
	for _, r := range d.Records {
		assert.True(t, r.Enriched(), "stored records should be enriched")
	}

	assert.Equal(t, int64(1), env.svc.Stats().DatasetsUploaded)
}

func TestService_UploadDefaultName(t *testing.T) {
	env := newTestEnv(t, nil)
	s, err := env.svc.Upload(context.Background(), "  ", strings.NewReader(scenarioCSV))
	require.NoError(t, err)
	assert.Equal(t, "dataset-id-1", s.Name)
}

func TestService_UploadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		target error
	}{
		{"missing column", "Year,Risk_Level\n2021,Low\n", forecast.ErrParse},
		{"non numeric", strings.Replace(scenarioCSV, "2022,520", "2022,lots", 1), forecast.ErrParse},
		{"unknown level", strings.Replace(scenarioCSV, "Low", "Severe", 1), forecast.ErrDataValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			_, err := env.svc.Upload(context.Background(), "bad.csv", strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)

			list, err := env.svc.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, list, "rejected upload must not be stored")
			assert.Empty(t, env.publisher.uploads)
		})
	}
}

func TestService_KPIs(t *testing.T) {
	env := newTestEnv(t, nil)
	s := env.upload(t)
	ctx := context.Background()

	full, err := env.svc.KPIs(ctx, s.ID, FilterQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, full.KPIs.RecordCount)
	assert.Equal(t, 480.0, full.KPIs.TotalPredictedGap)
	assert.Equal(t, int64(450), full.KPIs.TotalOrders)
	require.NotNil(t, full.KPIs.MaxRiskScore)
	assert.Equal(t, 3, *full.KPIs.MaxRiskScore)
	require.NotNil(t, full.KPIs.YearOfMaxRisk)
	assert.Equal(t, 2022, *full.KPIs.YearOfMaxRisk)

	low, err := env.svc.KPIs(ctx, s.ID, FilterQuery{YearMin: intPtr(2021), YearMax: intPtr(2021)})
	require.NoError(t, err)
	assert.Equal(t, 30.0, low.KPIs.TotalPredictedGap)
	assert.Equal(t, int64(100), low.KPIs.TotalOrders)
	assert.Equal(t, 2021, *low.KPIs.YearOfMaxRisk)

	none, err := env.svc.KPIs(ctx, s.ID, FilterQuery{Levels: []string{}})
	require.NoError(t, err)
	assert.Equal(t, 0, none.KPIs.RecordCount)
	assert.Nil(t, none.KPIs.MaxRiskScore)
	assert.Nil(t, none.KPIs.YearOfMaxRisk)

	// One snapshot per computation, published in order.
	history, err := env.svc.History(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, full.SnapshotID, history[0].ID)
	assert.Equal(t, []domain.RiskLevel{domain.RiskLow, domain.RiskHigh}, history[0].Levels)
	assert.Equal(t, 2021, history[1].YearMax)
	assert.Empty(t, history[2].Levels)
	require.Len(t, env.publisher.snapshots, 3)
	assert.Equal(t, int64(3), env.svc.Stats().KPIComputations)
}

func TestService_KPIsErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	s := env.upload(t)
	ctx := context.Background()

	_, err := env.svc.KPIs(ctx, "missing", FilterQuery{})
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)

	_, err = env.svc.KPIs(ctx, s.ID, FilterQuery{YearMin: intPtr(2023), YearMax: intPtr(2021)})
	assert.True(t, errors.Is(err, ErrInvalidFilter), "got %v", err)

	_, err = env.svc.KPIs(ctx, s.ID, FilterQuery{Levels: []string{"Critical"}})
	assert.True(t, errors.Is(err, ErrInvalidFilter), "got %v", err)

	_, err = env.svc.History(ctx, "missing")
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
}

func TestService_SnapshotFailureDoesNotFailRequest(t *testing.T) {
	env := newTestEnv(t, failingSnapshotStore{})
	s := env.upload(t)

	res, err := env.svc.KPIs(context.Background(), s.ID, FilterQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.KPIs.RecordCount)
	assert.Empty(t, env.publisher.snapshots, "failed snapshots are not published")
	assert.Equal(t, int64(1), env.svc.Stats().SnapshotFailures)
	assert.Contains(t, env.logs.String(), "clickhouse unavailable")
}

func TestService_PublishFailureDoesNotFailRequest(t *testing.T) {
	env := newTestEnv(t, nil)
	env.publisher.err = errors.New("broker down")

	s, err := env.svc.Upload(context.Background(), "plant-a.csv", strings.NewReader(scenarioCSV))
	require.NoError(t, err)

	_, err = env.svc.KPIs(context.Background(), s.ID, FilterQuery{})
	require.NoError(t, err)
	assert.Contains(t, env.logs.String(), "broker down")
}

func TestService_View(t *testing.T) {
	env := newTestEnv(t, nil)
	s := env.upload(t)

	v, err := env.svc.View(context.Background(), s.ID, FilterQuery{})
	require.NoError(t, err)

	assert.Equal(t, s, v.Dataset)
	assert.True(t, v.Insights.HighGap.Triggered)
	assert.Equal(t, []int{2022}, v.Insights.HighGap.Years)
	assert.Equal(t, insights.RiskProfile{High: 2, Low: 1}, v.Insights.RiskProfile)
	assert.Equal(t, insights.RiskBandCritical, v.Insights.RiskBand)
	assert.Len(t, v.Series.Gap, 3)
	assert.Len(t, v.Roadmap.Phases, 6)
	assert.NotEmpty(t, v.Recommendations.ImmediateActions)
	assert.NotEmpty(t, v.SnapshotID)
}

func TestService_ReportAndCSV(t *testing.T) {
	env := newTestEnv(t, nil)
	s := env.upload(t)
	ctx := context.Background()

	md, err := env.svc.Report(ctx, s.ID, FilterQuery{Levels: []string{"High"}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(md, "# Forecast Oversight Report"))
	assert.Contains(t, md, "plant-a.csv")

	csvOut, err := env.svc.RecordsCSV(ctx, s.ID, FilterQuery{Levels: []string{"High"}})
	require.NoError(t, err)
	records, err := forecast.LoadAndEnrich(strings.NewReader(csvOut))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2022, records[0].Year)
	assert.Equal(t, 2023, records[1].Year)

	_, err = env.svc.Report(ctx, "missing", FilterQuery{})
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestService_ListAndDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	first := env.upload(t)
	second := env.upload(t)

	list, err := env.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)

	require.NoError(t, env.svc.Delete(ctx, first.ID))
	_, err = env.svc.Get(ctx, first.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	err = env.svc.Delete(ctx, first.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	list, err = env.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)
}
