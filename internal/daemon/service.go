// Package daemon provides the long-running background spending monitor service.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/fcast/internal/config"
	"github.com/theirongolddev/fcast/internal/model"
	"github.com/theirongolddev/fcast/internal/pipeline"
	"github.com/theirongolddev/fcast/internal/planner"
	"github.com/theirongolddev/fcast/internal/store"
)

// LoadFunc fetches the raw data for one poll.
type LoadFunc func(ctx context.Context) (*pipeline.LoadResult, error)

// Config controls the daemon runtime behavior.
type Config struct {
	DataDir        string
	Days           int
	Category       string
	UseCache       bool
	Interval       time.Duration
	Addr           string
	EventsBuffer   int
	AllowedOrigins []string
	Forecast       config.ForecastConfig

	// Load overrides the local data directory loader.
	Load LoadFunc
	// Planner enables the scenario and goal endpoints when set.
	Planner *planner.Service
	Log     *logrus.Logger
}

// Snapshot is a compact spending state for status/event payloads.
type Snapshot struct {
	At             time.Time `json:"at"`
	Records        int       `json:"records"`
	Days           int       `json:"days"`
	TotalAmount    float64   `json:"total_amount"`
	AverageDaily   float64   `json:"average_daily"`
	AnomalyCount   int       `json:"anomaly_count"`
	Trend          string    `json:"trend"`
	ChangePercent  float64   `json:"change_percent"`
	Undefined      string    `json:"undefined,omitempty"`
	ForecastPoints int       `json:"forecast_points"`
	IncomeSources  int       `json:"income_sources"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Records        int     `json:"records"`
	Days           int     `json:"days"`
	TotalAmount    float64 `json:"total_amount"`
	AnomalyCount   int     `json:"anomaly_count"`
	ForecastPoints int     `json:"forecast_points"`
	TrendChanged   bool    `json:"trend_changed,omitempty"`
}

func (d Delta) isZero() bool {
	return d.Records == 0 &&
		d.Days == 0 &&
		d.TotalAmount == 0 &&
		d.AnomalyCount == 0 &&
		d.ForecastPoints == 0 &&
		!d.TrendChanged
}

// Event is emitted whenever the spending snapshot updates.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	DataDir         string    `json:"data_dir"`
	Days            int       `json:"days"`
	Category        string    `json:"category,omitempty"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// dataset is the derived state of the latest successful poll.
type dataset struct {
	days       []model.AggregatedDay
	categories []model.CategoryTotal
	points     []model.ForecastDataPoint
	income     []model.IncomeSource
	insight    model.Insight
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	log *logrus.Logger
	now func() time.Time

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	data        dataset
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8765"
	}
	if cfg.Days <= 0 {
		cfg.Days = 90
	}

	log := cfg.Log
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	s := &Service{
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
	if s.cfg.Load == nil {
		s.cfg.Load = s.loadLocal
	}
	return s
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.WithFields(logrus.Fields{
		"addr":     s.cfg.Addr,
		"interval": s.cfg.Interval,
	}).Info("daemon listening")

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// Event types published on /v1/events and /v1/stream.
const (
	EventSnapshot      = "snapshot"
	EventSpendingDelta = "spending_delta"
)

func (s *Service) pollOnce(ctx context.Context) {
	start := s.now()
	data, records, err := s.collect(ctx)

	s.mu.Lock()
	s.lastPollAt = s.now()
	s.pollCount++
	if err != nil {
		s.lastError = err.Error()
		s.mu.Unlock()
		s.log.WithError(err).Warn("daemon poll failed")
		return
	}
	snap := snapshotFromData(data, records, s.lastPollAt)
	ev, publish := s.nextEventLocked(snap)
	s.snapshot, s.hasSnapshot = snap, true
	s.data = data
	s.lastError = ""
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
	s.log.WithFields(logrus.Fields{
		"days":      snap.Days,
		"published": publish,
		"took":      s.now().Sub(start),
	}).Debug("daemon poll complete")
}

// nextEventLocked decides whether snap is worth an event: always for the
// first poll, afterwards only when something changed. Callers hold s.mu.
func (s *Service) nextEventLocked(snap Snapshot) (Event, bool) {
	ev := Event{Type: EventSnapshot, Timestamp: snap.At, Snapshot: snap}
	if s.hasSnapshot {
		ev.Type = EventSpendingDelta
		ev.Delta = diffSnapshots(s.snapshot, snap)
		if ev.Delta.isZero() {
			return Event{}, false
		}
	}
	s.nextEventID++
	ev.ID = s.nextEventID
	return ev, true
}

// collect loads, filters and summarizes one poll's worth of data.
func (s *Service) collect(ctx context.Context) (dataset, int, error) {
	result, err := s.cfg.Load(ctx)
	if err != nil {
		return dataset{}, 0, err
	}

	records := result.Records
	if s.cfg.Category != "" {
		records = pipeline.FilterByCategory(records, s.cfg.Category)
	}

	days, err := pipeline.Aggregate(records)
	if err != nil {
		return dataset{}, 0, fmt.Errorf("aggregating: %w", err)
	}

	now := s.now()
	since := now.AddDate(0, 0, -s.cfg.Days)
	days = pipeline.FilterByTime(days, since, now)

	return dataset{
		days:       days,
		categories: pipeline.AggregateCategories(records),
		points:     result.Points,
		income:     result.Income,
		insight:    pipeline.Summarize(days),
	}, len(records), nil
}

func (s *Service) loadLocal(_ context.Context) (*pipeline.LoadResult, error) {
	if s.cfg.UseCache {
		cache, err := store.Open(pipeline.DBPath())
		if err == nil {
			defer func() { _ = cache.Close() }()
			cr, loadErr := pipeline.LoadWithCache(s.cfg.DataDir, cache, nil)
			if loadErr == nil {
				return &cr.LoadResult, nil
			}
			s.log.WithError(loadErr).Debug("cached load failed, reparsing")
		}
	}
	return pipeline.Load(s.cfg.DataDir, nil)
}

func snapshotFromData(d dataset, records int, at time.Time) Snapshot {
	return Snapshot{
		At:             at,
		Records:        records,
		Days:           d.insight.Days,
		TotalAmount:    d.insight.TotalAmount,
		AverageDaily:   d.insight.AverageDaily,
		AnomalyCount:   d.insight.AnomalyCount,
		Trend:          string(d.insight.Trend),
		ChangePercent:  d.insight.ChangePercent,
		Undefined:      string(d.insight.Undefined),
		ForecastPoints: len(d.points),
		IncomeSources:  len(d.income),
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Records:        curr.Records - prev.Records,
		Days:           curr.Days - prev.Days,
		TotalAmount:    curr.TotalAmount - prev.TotalAmount,
		AnomalyCount:   curr.AnomalyCount - prev.AnomalyCount,
		ForecastPoints: curr.ForecastPoints - prev.ForecastPoints,
		TrendChanged:   curr.Trend != prev.Trend,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DataDir:         s.cfg.DataDir,
		Days:            s.cfg.Days,
		Category:        s.cfg.Category,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) currentData() dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
