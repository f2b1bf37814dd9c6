package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/fcast/internal/config"
	"github.com/theirongolddev/fcast/internal/model"
	"github.com/theirongolddev/fcast/internal/pipeline"
	"github.com/theirongolddev/fcast/internal/planner"
	"github.com/theirongolddev/fcast/internal/store"
)

var testNow = time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

// thirtyDays returns one record per day in March 2026, rising linearly.
func thirtyDays() []model.SpendingRecord {
	var recs []model.SpendingRecord
	for d := 1; d <= 30; d++ {
		recs = append(recs, model.SpendingRecord{
			Date:     fmt.Sprintf("2026-03-%02d", d),
			Category: "groceries",
			Amount:   float64(d),
		})
	}
	recs[4].IsAnomaly = true
	return recs
}

func newTestService(t *testing.T, cfg Config, result *pipeline.LoadResult) *Service {
	t.Helper()
	cfg.Load = func(context.Context) (*pipeline.LoadResult, error) { return result, nil }
	s := New(cfg)
	s.now = func() time.Time { return testNow }
	return s
}

func getJSON(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{Records: 10, Days: 5, TotalAmount: 100, AnomalyCount: 1, Trend: "increasing"}
	curr := Snapshot{Records: 14, Days: 6, TotalAmount: 130.5, AnomalyCount: 1, ForecastPoints: 3, Trend: "increasing"}

	delta := diffSnapshots(prev, curr)
	assert.Equal(t, 4, delta.Records)
	assert.Equal(t, 1, delta.Days)
	assert.InDelta(t, 30.5, delta.TotalAmount, 1e-9)
	assert.Equal(t, 0, delta.AnomalyCount)
	assert.Equal(t, 3, delta.ForecastPoints)
	assert.False(t, delta.TrendChanged)
	assert.False(t, delta.isZero())

	curr = prev
	curr.Trend = "decreasing"
	assert.False(t, diffSnapshots(prev, curr).isZero(), "trend flip alone is a change")
	assert.True(t, diffSnapshots(prev, prev).isZero())
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		DataDir:      ".",
		Interval:     10 * time.Second,
		EventsBuffer: 2,
	})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	require.Len(t, s.events, 2)
	assert.Equal(t, int64(2), s.events[0].ID)
	assert.Equal(t, int64(3), s.events[1].ID)
}

func TestPollPublishesSnapshotThenDeltas(t *testing.T) {
	result := &pipeline.LoadResult{Records: thirtyDays()}
	s := newTestService(t, Config{Days: 90}, result)
	ctx := context.Background()

	s.pollOnce(ctx)
	s.pollOnce(ctx) // unchanged data publishes nothing

	result.Records = append(result.Records, model.SpendingRecord{Date: "2026-03-30", Category: "rent", Amount: 50})
	s.pollOnce(ctx)

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	pollCount := s.pollCount
	s.mu.RUnlock()

	assert.Equal(t, int64(3), pollCount)
	require.Len(t, events, 2)
	assert.Equal(t, EventSnapshot, events[0].Type)
	assert.Equal(t, 30, events[0].Snapshot.Days)
	assert.Equal(t, "increasing", events[0].Snapshot.Trend)
	assert.Equal(t, 1, events[0].Snapshot.AnomalyCount)

	assert.Equal(t, EventSpendingDelta, events[1].Type)
	assert.Equal(t, 1, events[1].Delta.Records)
	assert.Equal(t, 0, events[1].Delta.Days)
	assert.InDelta(t, 50, events[1].Delta.TotalAmount, 1e-9)
}

func TestPollErrorKeepsLastSnapshot(t *testing.T) {
	s := newTestService(t, Config{}, &pipeline.LoadResult{Records: thirtyDays()})
	s.pollOnce(context.Background())

	s.cfg.Load = func(context.Context) (*pipeline.LoadResult, error) {
		return nil, errors.New("disk gone")
	}
	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	assert.Equal(t, "disk gone", st.LastError)
	assert.Equal(t, 30, st.Summary.Days)
	assert.Equal(t, 1, st.EventCount)
}

func TestPollRejectsInvalidRecords(t *testing.T) {
	recs := thirtyDays()
	recs[3].Amount = -1
	s := newTestService(t, Config{}, &pipeline.LoadResult{Records: recs})
	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	assert.Contains(t, st.LastError, "aggregating")
	assert.Equal(t, 0, st.EventCount)
}

func TestCategoryAndDaysFilter(t *testing.T) {
	recs := append(thirtyDays(),
		model.SpendingRecord{Date: "2026-03-02", Category: "Rent", Amount: 900},
		model.SpendingRecord{Date: "2025-01-01", Category: "groceries", Amount: 5},
	)
	s := newTestService(t, Config{Days: 7, Category: "grocer"}, &pipeline.LoadResult{Records: recs})
	s.pollOnce(context.Background())

	snap := s.snapshotStatus().Summary
	assert.Equal(t, 31, snap.Records)
	// 2026-03-25 through 2026-03-31 (the last is absent)
	assert.Equal(t, 6, snap.Days)
	assert.InDelta(t, 25+26+27+28+29+30, snap.TotalAmount, 1e-9)
}

func TestDaysEndpointWindows(t *testing.T) {
	s := newTestService(t, Config{}, &pipeline.LoadResult{Records: thirtyDays()})
	s.pollOnce(context.Background())
	h := s.Handler()

	var full struct {
		Window WindowJSON `json:"window"`
		Days   []DayJSON  `json:"days"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, h, "/v1/days", &full))
	assert.Equal(t, 30, full.Window.Total)
	assert.Len(t, full.Days, 30)
	assert.Equal(t, "2026-03-01", full.Days[0].Date)
	assert.True(t, full.Days[4].IsAnomaly)
	assert.Equal(t, pipeline.DefaultAnomalyReason, full.Days[4].AnomalyReason)

	var zoomed struct {
		Window WindowJSON `json:"window"`
		Days   []DayJSON  `json:"days"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, h, "/v1/days?zoom=2&pan=100", &zoomed))
	assert.Equal(t, 15, zoomed.Window.Pan, "pan clamps to total-visible")
	assert.Equal(t, 15, zoomed.Window.Start)
	assert.Equal(t, 30, zoomed.Window.End)
	assert.True(t, zoomed.Window.CanPanLeft)
	assert.False(t, zoomed.Window.CanPanRight)
	require.Len(t, zoomed.Days, 15)
	assert.Equal(t, "2026-03-16", zoomed.Days[0].Date)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, h, "/v1/days?zoom=abc", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, h, "/v1/days?pan=1.5", nil))
}

func TestForecastEndpointEmpty(t *testing.T) {
	s := newTestService(t, Config{}, &pipeline.LoadResult{})
	s.pollOnce(context.Background())

	var resp struct {
		Window WindowJSON                `json:"window"`
		Points []model.ForecastDataPoint `json:"points"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, s.Handler(), "/v1/forecast?zoom=5", &resp))
	assert.Equal(t, 0, resp.Window.Total)
	assert.Equal(t, 0, resp.Window.End)
	assert.Empty(t, resp.Points)
}

func TestInsightEndpoint(t *testing.T) {
	actual := 90.0
	result := &pipeline.LoadResult{
		Records: thirtyDays(),
		Income: []model.IncomeSource{
			{Name: "Salary", Amount: 4000, Percentage: 80, Stability: "stable"},
			{Name: "Freelance", Amount: 1000, Percentage: 20, GrowthRate: 5},
		},
		Points: []model.ForecastDataPoint{
			{Date: testNow, Actual: &actual, Predicted: 100, ConfidenceLower: 80, ConfidenceUpper: 120},
		},
	}
	s := newTestService(t, Config{}, result)
	s.pollOnce(context.Background())

	var resp InsightResponse
	require.Equal(t, http.StatusOK, getJSON(t, s.Handler(), "/v1/insight", &resp))
	assert.Equal(t, 30, resp.Days)
	assert.Equal(t, "increasing", resp.Trend)
	assert.Empty(t, resp.Undefined)
	// halves average 8 and 23
	assert.InDelta(t, 187.5, resp.ChangePercent, 1e-9)
	require.Len(t, resp.Categories, 1)
	assert.Equal(t, "groceries", resp.Categories[0].Category)
	assert.Equal(t, "Salary", resp.Income.Primary)
	assert.InDelta(t, 20, resp.Income.DiversificationScore, 1e-9)
	assert.Equal(t, 1, resp.Income.StableSources)
	assert.Equal(t, 1, resp.Income.GrowingSources)
	assert.Equal(t, 1, resp.Forecast.WithActual)
	assert.InDelta(t, 10, resp.Forecast.MeanAbsError, 1e-9)
}

func TestProjectionEndpoint(t *testing.T) {
	s := newTestService(t, Config{
		Forecast: config.ForecastConfig{MonthlyIncome: 5000, MonthlyExpenses: 3000},
	}, &pipeline.LoadResult{})
	s.pollOnce(context.Background())

	var resp struct {
		Projection model.Projection `json:"projection"`
		Income     float64          `json:"income"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, s.Handler(), "/v1/projection?income=10&expense=-5", &resp))
	assert.InDelta(t, 5500, resp.Projection.ProjectedIncome, 1e-9)
	assert.InDelta(t, 2850, resp.Projection.ProjectedExpenses, 1e-9)
	assert.InDelta(t, 2650, resp.Projection.NetSavings, 1e-9)

	require.Equal(t, http.StatusOK, getJSON(t, s.Handler(), "/v1/projection?income=500", &resp))
	assert.InDelta(t, 100, resp.Income, 1e-9, "adjustment is clamped")

	assert.Equal(t, http.StatusBadRequest, getJSON(t, s.Handler(), "/v1/projection?expense=x", nil))
	for _, q := range []string{"income=NaN", "expense=nan", "income=Inf", "expense=-Inf"} {
		assert.Equal(t, http.StatusBadRequest, getJSON(t, s.Handler(), "/v1/projection?"+q, nil), q)
	}
}

func TestScenarioEndpoints(t *testing.T) {
	svc := planner.NewService(store.NewMemoryStore(), nil)
	require.NoError(t, svc.EnsureDefaults(context.Background()))

	s := newTestService(t, Config{
		Planner:  svc,
		Forecast: config.ForecastConfig{MonthlyIncome: 1000, MonthlyExpenses: 800},
	}, &pipeline.LoadResult{})
	h := s.Handler()

	var list []ScenarioJSON
	require.Equal(t, http.StatusOK, getJSON(t, h, "/v1/scenarios", &list))
	require.NotEmpty(t, list)
	assert.True(t, list[0].IsDefault)

	rec := httptest.NewRecorder()
	body := `{"name":"Raise","incomeAdjustment":20,"expenseAdjustment":0}`
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scenarios", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.ForecastScenario
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Raise", created.Name)

	var got ScenarioJSON
	require.Equal(t, http.StatusOK, getJSON(t, h, "/v1/scenarios/raise", &got))
	assert.Equal(t, created.ID, got.ID)
	assert.InDelta(t, 1200, got.Projection.ProjectedIncome, 1e-9)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/v1/scenarios/"+created.ID, strings.NewReader(`{"expenseAdjustment":500}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/scenarios/baseline", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scenarios/"+created.ID+"/duplicate", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/scenarios/"+created.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, http.StatusNotFound, getJSON(t, h, "/v1/scenarios/"+created.ID, nil))
}

func TestScenarioRoutesNeedPlanner(t *testing.T) {
	s := newTestService(t, Config{}, &pipeline.LoadResult{})
	assert.Equal(t, http.StatusNotFound, getJSON(t, s.Handler(), "/v1/scenarios", nil))
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	s := newTestService(t, Config{AllowedOrigins: []string{"http://localhost:1234"}}, &pipeline.LoadResult{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:1234")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:1234", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStreamSendsCurrentSnapshot(t *testing.T) {
	s := newTestService(t, Config{}, &pipeline.LoadResult{Records: thirtyDays()})
	s.pollOnce(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/v1/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.Handler().ServeHTTP(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return s.snapshotStatus().SubscriberCount == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event: snapshot\n")
	assert.Contains(t, rec.Body.String(), `"days":30`)
	assert.Equal(t, 0, s.snapshotStatus().SubscriberCount)
}
