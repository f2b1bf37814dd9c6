// Package store persists scenarios and goals, and caches parsed data files
// so unchanged files are not re-read.
package store

import (
	"context"
	"errors"

	"github.com/theirongolddev/fcast/internal/model"
)

var (
	// ErrNotFound is returned when no scenario or goal has the given ID.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating with an ID already in use.
	ErrAlreadyExists = errors.New("already exists")
)

// Store defines the persistence operations used by the planner.
type Store interface {
	// Scenario operations
	CreateScenario(ctx context.Context, s model.ForecastScenario) error
	GetScenario(ctx context.Context, id string) (model.ForecastScenario, error)
	UpdateScenario(ctx context.Context, s model.ForecastScenario) error
	DeleteScenario(ctx context.Context, id string) error
	ListScenarios(ctx context.Context) ([]model.ForecastScenario, error)

	// Goal operations
	CreateGoal(ctx context.Context, g model.SavingsGoal) error
	GetGoal(ctx context.Context, id string) (model.SavingsGoal, error)
	UpdateGoal(ctx context.Context, g model.SavingsGoal) error
	DeleteGoal(ctx context.Context, id string) error
	ListGoals(ctx context.Context) ([]model.SavingsGoal, error)

	Close() error
}
