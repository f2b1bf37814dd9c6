package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/theirongolddev/fcast/internal/model"
)

// MemoryStore implements Store with in-memory maps.
type MemoryStore struct {
	mu        sync.RWMutex
	scenarios map[string]model.ForecastScenario
	goals     map[string]model.SavingsGoal
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scenarios: make(map[string]model.ForecastScenario),
		goals:     make(map[string]model.SavingsGoal),
	}
}

func (m *MemoryStore) CreateScenario(_ context.Context, s model.ForecastScenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scenarios[s.ID]; ok {
		return fmt.Errorf("scenario %s: %w", s.ID, ErrAlreadyExists)
	}
	m.scenarios[s.ID] = s
	return nil
}

func (m *MemoryStore) GetScenario(_ context.Context, id string) (model.ForecastScenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scenarios[id]
	if !ok {
		return model.ForecastScenario{}, fmt.Errorf("scenario %s: %w", id, ErrNotFound)
	}
	return s, nil
}

func (m *MemoryStore) UpdateScenario(_ context.Context, s model.ForecastScenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scenarios[s.ID]; !ok {
		return fmt.Errorf("scenario %s: %w", s.ID, ErrNotFound)
	}
	m.scenarios[s.ID] = s
	return nil
}

func (m *MemoryStore) DeleteScenario(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scenarios[id]; !ok {
		return fmt.Errorf("scenario %s: %w", id, ErrNotFound)
	}
	delete(m.scenarios, id)
	return nil
}

// ListScenarios returns defaults first, then by creation time.
func (m *MemoryStore) ListScenarios(_ context.Context) ([]model.ForecastScenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.ForecastScenario, 0, len(m.scenarios))
	for _, s := range m.scenarios {
		out = append(out, s)
	}
	sortScenarios(out)
	return out, nil
}

func (m *MemoryStore) CreateGoal(_ context.Context, g model.SavingsGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.goals[g.ID]; ok {
		return fmt.Errorf("goal %s: %w", g.ID, ErrAlreadyExists)
	}
	m.goals[g.ID] = g
	return nil
}

func (m *MemoryStore) GetGoal(_ context.Context, id string) (model.SavingsGoal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.goals[id]
	if !ok {
		return model.SavingsGoal{}, fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	return g, nil
}

func (m *MemoryStore) UpdateGoal(_ context.Context, g model.SavingsGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.goals[g.ID]; !ok {
		return fmt.Errorf("goal %s: %w", g.ID, ErrNotFound)
	}
	m.goals[g.ID] = g
	return nil
}

func (m *MemoryStore) DeleteGoal(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.goals[id]; !ok {
		return fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	delete(m.goals, id)
	return nil
}

// ListGoals returns goals ordered by target date.
func (m *MemoryStore) ListGoals(_ context.Context) ([]model.SavingsGoal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.SavingsGoal, 0, len(m.goals))
	for _, g := range m.goals {
		out = append(out, g)
	}
	sortGoals(out)
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

func sortScenarios(s []model.ForecastScenario) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].IsDefault != s[j].IsDefault {
			return s[i].IsDefault
		}
		if !s[i].CreatedAt.Equal(s[j].CreatedAt) {
			return s[i].CreatedAt.Before(s[j].CreatedAt)
		}
		return s[i].ID < s[j].ID
	})
}

func sortGoals(g []model.SavingsGoal) {
	sort.Slice(g, func(i, j int) bool {
		if !g[i].TargetDate.Equal(g[j].TargetDate) {
			return g[i].TargetDate.Before(g[j].TargetDate)
		}
		return g[i].ID < g[j].ID
	})
}
