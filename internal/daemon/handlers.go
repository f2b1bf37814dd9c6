package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/fcast/internal/config"
	"github.com/theirongolddev/fcast/internal/model"
	"github.com/theirongolddev/fcast/internal/pipeline"
	"github.com/theirongolddev/fcast/internal/planner"
	"github.com/theirongolddev/fcast/internal/scenario"
	"github.com/theirongolddev/fcast/internal/store"
	"github.com/theirongolddev/fcast/internal/window"
)

// Handler returns the daemon API wrapped in CORS handling.
func (s *Service) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Content-Type", "Last-Event-ID"},
	})
	return c.Handler(s.Routes())
}

// Routes builds the chi router for the daemon API.
func (s *Service) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)
		r.Get("/insight", s.handleInsight)
		r.Get("/days", s.handleDays)
		r.Get("/forecast", s.handleForecast)
		r.Get("/projection", s.handleProjection)

		if s.cfg.Planner != nil {
			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", s.handleListScenarios)
				r.Post("/", s.handleCreateScenario)
				r.Get("/{ref}", s.handleGetScenario)
				r.Patch("/{ref}", s.handleUpdateScenario)
				r.Delete("/{ref}", s.handleDeleteScenario)
				r.Post("/{ref}/duplicate", s.handleDuplicateScenario)
			})
			r.Get("/goals", s.handleGoals)
		}
	})
	return r
}

func (s *Service) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"took":       time.Since(start),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}

// InsightResponse is served at /v1/insight.
type InsightResponse struct {
	Days          int                  `json:"days"`
	Trend         string               `json:"trend"`
	ChangePercent float64              `json:"change_percent"`
	Undefined     string               `json:"undefined,omitempty"`
	FirstMean     float64              `json:"first_mean"`
	SecondMean    float64              `json:"second_mean"`
	AnomalyCount  int                  `json:"anomaly_count"`
	TotalAmount   float64              `json:"total_amount"`
	AverageDaily  float64              `json:"average_daily"`
	Categories    []CategoryJSON       `json:"categories"`
	Income        IncomeJSON           `json:"income"`
	Forecast      ForecastAccuracyJSON `json:"forecast"`
}

// CategoryJSON is one category row.
type CategoryJSON struct {
	Category     string  `json:"category"`
	Amount       float64 `json:"amount"`
	SharePercent float64 `json:"share_percent"`
}

// IncomeJSON summarizes income sources.
type IncomeJSON struct {
	Sources              int     `json:"sources"`
	Primary              string  `json:"primary,omitempty"`
	DiversificationScore float64 `json:"diversification_score"`
	Defined              bool    `json:"defined"`
	StableSources        int     `json:"stable_sources"`
	GrowingSources       int     `json:"growing_sources"`
}

// ForecastAccuracyJSON reports prediction error over known actuals.
type ForecastAccuracyJSON struct {
	Points        int     `json:"points"`
	WithActual    int     `json:"with_actual"`
	MeanAbsError  float64 `json:"mean_abs_error"`
	MeanAbsPctErr float64 `json:"mean_abs_pct_error"`
	WithinBand    int     `json:"within_band"`
}

// DayJSON is one aggregated day.
type DayJSON struct {
	Date          string             `json:"date"`
	Total         float64            `json:"total"`
	PerCategory   map[string]float64 `json:"per_category,omitempty"`
	IsAnomaly     bool               `json:"is_anomaly,omitempty"`
	AnomalyReason string             `json:"anomaly_reason,omitempty"`
}

// WindowJSON describes the visible slice of a series.
type WindowJSON struct {
	Total       int     `json:"total"`
	Zoom        float64 `json:"zoom"`
	Pan         int     `json:"pan"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
	CanPanLeft  bool    `json:"can_pan_left"`
	CanPanRight bool    `json:"can_pan_right"`
}

// ScenarioJSON is a scenario with its projection against the current baseline.
type ScenarioJSON struct {
	model.ForecastScenario
	Projection model.Projection `json:"projection"`
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: s.now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) handleInsight(w http.ResponseWriter, _ *http.Request) {
	d := s.currentData()
	ins := d.insight
	income := pipeline.SummarizeIncome(d.income)
	acc := pipeline.SummarizeForecast(d.points)

	resp := InsightResponse{
		Days:          ins.Days,
		Trend:         string(ins.Trend),
		ChangePercent: ins.ChangePercent,
		Undefined:     string(ins.Undefined),
		FirstMean:     ins.FirstMean,
		SecondMean:    ins.SecondMean,
		AnomalyCount:  ins.AnomalyCount,
		TotalAmount:   ins.TotalAmount,
		AverageDaily:  ins.AverageDaily,
		Categories:    make([]CategoryJSON, 0, len(d.categories)),
		Income: IncomeJSON{
			Sources:              income.TotalSources,
			Primary:              income.Primary.Name,
			DiversificationScore: income.DiversificationScore,
			Defined:              income.Defined,
			StableSources:        income.StableSources,
			GrowingSources:       income.GrowingSources,
		},
		Forecast: ForecastAccuracyJSON{
			Points:        acc.Points,
			WithActual:    acc.WithActual,
			MeanAbsError:  acc.MeanAbsError,
			MeanAbsPctErr: acc.MeanAbsPctErr,
			WithinBand:    acc.WithinBand,
		},
	}
	for _, c := range d.categories {
		resp.Categories = append(resp.Categories, CategoryJSON(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseWindow reads zoom and pan query parameters, clamped to total.
func parseWindow(r *http.Request, total int) (window.State, error) {
	st := window.Initial()
	q := r.URL.Query()
	if v := q.Get("zoom"); v != "" {
		z, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return st, fmt.Errorf("invalid zoom %q", v)
		}
		st.Zoom = z
	}
	if v := q.Get("pan"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return st, fmt.Errorf("invalid pan %q", v)
		}
		st.Pan = p
	}
	return st.Clamp(total), nil
}

func windowJSON(st window.State, total int) WindowJSON {
	rng := st.Range(total)
	return WindowJSON{
		Total:       total,
		Zoom:        st.Zoom,
		Pan:         st.Pan,
		Start:       rng.Start,
		End:         rng.End,
		CanPanLeft:  st.CanPanLeft(total),
		CanPanRight: st.CanPanRight(total),
	}
}

func (s *Service) handleDays(w http.ResponseWriter, r *http.Request) {
	d := s.currentData()
	st, err := parseWindow(r, len(d.days))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	visible := window.Slice(d.days, st.Range(len(d.days)))
	out := make([]DayJSON, 0, len(visible))
	for _, day := range visible {
		out = append(out, DayJSON{
			Date:          day.Key,
			Total:         day.Total,
			PerCategory:   day.PerCategory,
			IsAnomaly:     day.IsAnomaly,
			AnomalyReason: day.AnomalyReason,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"window": windowJSON(st, len(d.days)),
		"days":   out,
	})
}

func (s *Service) handleForecast(w http.ResponseWriter, r *http.Request) {
	d := s.currentData()
	st, err := parseWindow(r, len(d.points))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	visible := window.Slice(d.points, st.Range(len(d.points)))
	if visible == nil {
		visible = []model.ForecastDataPoint{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"window": windowJSON(st, len(d.points)),
		"points": visible,
	})
}

func (s *Service) baseline() model.Baseline {
	d := s.currentData()
	return config.ResolveBaseline(config.Config{Forecast: s.cfg.Forecast}, d.income, d.insight.AverageDaily)
}

func (s *Service) handleProjection(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var inc, exp float64
	for name, dst := range map[string]*float64{"income": &inc, "expense": &exp} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid %s %q", name, v))
			return
		}
		*dst = scenario.ClampPct(f)
	}

	base := s.baseline()
	writeJSON(w, http.StatusOK, map[string]any{
		"baseline":   base,
		"income":     inc,
		"expense":    exp,
		"projection": scenario.ProjectPct(base, inc, exp),
	})
}

func (s *Service) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	all, err := s.cfg.Planner.ListScenarios(r.Context())
	if err != nil {
		s.writePlannerError(w, err)
		return
	}
	base := s.baseline()
	out := make([]ScenarioJSON, 0, len(all))
	for _, sc := range all {
		out = append(out, ScenarioJSON{ForecastScenario: sc, Projection: scenario.Project(base, sc)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	sc, err := s.cfg.Planner.GetScenario(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		s.writePlannerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ScenarioJSON{ForecastScenario: sc, Projection: scenario.Project(s.baseline(), sc)})
}

type createScenarioRequest struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	IncomeAdjustment  float64 `json:"incomeAdjustment"`
	ExpenseAdjustment float64 `json:"expenseAdjustment"`
}

func (s *Service) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	var req createScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding body: %w", err))
		return
	}
	sc, err := s.cfg.Planner.CreateScenario(r.Context(), req.Name, req.Description, req.IncomeAdjustment, req.ExpenseAdjustment)
	if err != nil {
		s.writePlannerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (s *Service) handleUpdateScenario(w http.ResponseWriter, r *http.Request) {
	var patch model.ScenarioPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding body: %w", err))
		return
	}
	sc, err := s.cfg.Planner.UpdateScenario(r.Context(), chi.URLParam(r, "ref"), patch)
	if err != nil {
		s.writePlannerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Service) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Planner.DeleteScenario(r.Context(), chi.URLParam(r, "ref")); err != nil {
		s.writePlannerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleDuplicateScenario(w http.ResponseWriter, r *http.Request) {
	dup, err := s.cfg.Planner.DuplicateScenario(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		s.writePlannerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dup)
}

func (s *Service) handleGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.cfg.Planner.ListGoals(r.Context())
	if err != nil {
		s.writePlannerError(w, err)
		return
	}
	now := s.now()
	statuses := make([]model.GoalStatus, 0, len(goals))
	for _, g := range goals {
		statuses = append(statuses, scenario.GoalProgress(g, now))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary": pipeline.SummarizeGoals(goals, now),
		"goals":   statuses,
	})
}

func (s *Service) writePlannerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, store.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, planner.ErrDefaultScenario):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, scenario.ErrInvalidScenario), errors.Is(err, scenario.ErrInvalidGoalParameters):
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		s.log.WithError(err).Error("planner request failed")
		writeError(w, http.StatusInternalServerError, err)
	}
}

// writeJSON marshals v before touching the response; encode failures
// are reported as a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":%q}`, "encoding response: "+err.Error()), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
