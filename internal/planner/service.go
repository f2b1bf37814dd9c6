// Package planner manages scenarios and savings goals on top of a Store.
package planner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/fcast/internal/model"
	"github.com/theirongolddev/fcast/internal/scenario"
	"github.com/theirongolddev/fcast/internal/store"
)

// ErrDefaultScenario is returned when deleting a built-in scenario.
var ErrDefaultScenario = errors.New("default scenarios cannot be deleted")

// Service handles scenario and goal lifecycle rules.
type Service struct {
	store store.Store
	log   *logrus.Logger
	now   func() time.Time
	newID func() string
}

// NewService initializes a new service. A nil logger discards output.
func NewService(s store.Store, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Service{
		store: s,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// EnsureDefaults creates any built-in scenario that is missing.
func (s *Service) EnsureDefaults(ctx context.Context) error {
	for _, def := range scenario.Defaults(s.now()) {
		_, err := s.store.GetScenario(ctx, def.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := s.store.CreateScenario(ctx, def); err != nil {
			return fmt.Errorf("creating default scenario %s: %w", def.ID, err)
		}
		s.log.WithField("scenario", def.ID).Debug("created default scenario")
	}
	return nil
}

// ListScenarios returns all scenarios, defaults first.
func (s *Service) ListScenarios(ctx context.Context) ([]model.ForecastScenario, error) {
	return s.store.ListScenarios(ctx)
}

// GetScenario returns a scenario by ID, or by case-insensitive name when no ID matches.
func (s *Service) GetScenario(ctx context.Context, ref string) (model.ForecastScenario, error) {
	sc, err := s.store.GetScenario(ctx, ref)
	if err == nil || !errors.Is(err, store.ErrNotFound) {
		return sc, err
	}
	all, listErr := s.store.ListScenarios(ctx)
	if listErr != nil {
		return model.ForecastScenario{}, listErr
	}
	for _, c := range all {
		if strings.EqualFold(c.Name, ref) {
			return c, nil
		}
	}
	return model.ForecastScenario{}, err
}

// CreateScenario validates and stores a new user scenario.
func (s *Service) CreateScenario(ctx context.Context, name, description string, incomePct, expensePct float64) (model.ForecastScenario, error) {
	now := s.now()
	sc := model.ForecastScenario{
		ID:                   s.newID(),
		Name:                 strings.TrimSpace(name),
		Description:          description,
		IncomeAdjustmentPct:  incomePct,
		ExpenseAdjustmentPct: expensePct,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := scenario.Validate(sc); err != nil {
		return model.ForecastScenario{}, err
	}
	if err := s.store.CreateScenario(ctx, sc); err != nil {
		return model.ForecastScenario{}, err
	}
	s.log.WithFields(logrus.Fields{"scenario": sc.ID, "name": sc.Name}).Info("scenario created")
	return sc, nil
}

// UpdateScenario applies a partial update.
func (s *Service) UpdateScenario(ctx context.Context, ref string, patch model.ScenarioPatch) (model.ForecastScenario, error) {
	sc, err := s.GetScenario(ctx, ref)
	if err != nil {
		return model.ForecastScenario{}, err
	}
	updated, err := scenario.Apply(sc, patch, s.now())
	if err != nil {
		return model.ForecastScenario{}, err
	}
	if err := s.store.UpdateScenario(ctx, updated); err != nil {
		return model.ForecastScenario{}, err
	}
	s.log.WithField("scenario", sc.ID).Info("scenario updated")
	return updated, nil
}

// DeleteScenario removes a user scenario. Defaults are refused.
func (s *Service) DeleteScenario(ctx context.Context, ref string) error {
	sc, err := s.GetScenario(ctx, ref)
	if err != nil {
		return err
	}
	if sc.IsDefault {
		return fmt.Errorf("scenario %q: %w", sc.Name, ErrDefaultScenario)
	}
	if err := s.store.DeleteScenario(ctx, sc.ID); err != nil {
		return err
	}
	s.log.WithField("scenario", sc.ID).Info("scenario deleted")
	return nil
}

// DuplicateScenario stores a non-default copy of an existing scenario.
func (s *Service) DuplicateScenario(ctx context.Context, ref string) (model.ForecastScenario, error) {
	sc, err := s.GetScenario(ctx, ref)
	if err != nil {
		return model.ForecastScenario{}, err
	}
	dup := scenario.Duplicate(sc, s.newID(), s.now())
	if err := s.store.CreateScenario(ctx, dup); err != nil {
		return model.ForecastScenario{}, err
	}
	s.log.WithFields(logrus.Fields{"scenario": dup.ID, "from": sc.ID}).Info("scenario duplicated")
	return dup, nil
}

// ListGoals returns all goals ordered by target date.
func (s *Service) ListGoals(ctx context.Context) ([]model.SavingsGoal, error) {
	return s.store.ListGoals(ctx)
}

// GetGoal returns a goal by ID.
func (s *Service) GetGoal(ctx context.Context, id string) (model.SavingsGoal, error) {
	return s.store.GetGoal(ctx, id)
}

// CreateGoal validates and stores a new goal.
func (s *Service) CreateGoal(ctx context.Context, g model.SavingsGoal) (model.SavingsGoal, error) {
	g.ID = s.newID()
	g.Name = strings.TrimSpace(g.Name)
	g.CreatedAt = s.now()
	if err := scenario.ValidateGoal(g); err != nil {
		return model.SavingsGoal{}, err
	}
	if err := s.store.CreateGoal(ctx, g); err != nil {
		return model.SavingsGoal{}, err
	}
	s.log.WithFields(logrus.Fields{"goal": g.ID, "target": g.TargetAmount}).Info("goal created")
	return g, nil
}

// Contribute adds amount to a goal's current savings.
func (s *Service) Contribute(ctx context.Context, id string, amount float64) (model.SavingsGoal, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return model.SavingsGoal{}, fmt.Errorf("%w: contribution must be positive", scenario.ErrInvalidGoalParameters)
	}
	g, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return model.SavingsGoal{}, err
	}
	g.CurrentAmount += amount
	if err := s.store.UpdateGoal(ctx, g); err != nil {
		return model.SavingsGoal{}, err
	}
	s.log.WithFields(logrus.Fields{"goal": id, "amount": amount}).Info("contribution recorded")
	return g, nil
}

// DeleteGoal removes a goal.
func (s *Service) DeleteGoal(ctx context.Context, id string) error {
	if err := s.store.DeleteGoal(ctx, id); err != nil {
		return err
	}
	s.log.WithField("goal", id).Info("goal deleted")
	return nil
}
