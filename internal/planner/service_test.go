package planner

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/fcast/internal/model"
	"github.com/theirongolddev/fcast/internal/scenario"
	"github.com/theirongolddev/fcast/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(store.NewMemoryStore(), nil)
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	require.NoError(t, svc.EnsureDefaults(context.Background()))
	return svc
}

func TestEnsureDefaultsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureDefaults(ctx))

	list, err := svc.ListScenarios(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(scenario.Defaults(time.Now())))
}

func TestScenarioLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateScenario(ctx, "  Side gig ", "", 20, 5)
	require.NoError(t, err)
	assert.Equal(t, "id-1", created.ID)
	assert.Equal(t, "Side gig", created.Name)
	assert.False(t, created.IsDefault)

	_, err = svc.CreateScenario(ctx, "Bad", "", 120, 0)
	assert.ErrorIs(t, err, scenario.ErrInvalidScenario)

	exp := -10.0
	updated, err := svc.UpdateScenario(ctx, "side gig", model.ScenarioPatch{ExpenseAdjustmentPct: &exp})
	require.NoError(t, err)
	assert.Equal(t, 20.0, updated.IncomeAdjustmentPct)
	assert.Equal(t, -10.0, updated.ExpenseAdjustmentPct)

	dup, err := svc.DuplicateScenario(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Side gig (copy)", dup.Name)
	assert.Equal(t, -10.0, dup.ExpenseAdjustmentPct)

	require.NoError(t, svc.DeleteScenario(ctx, dup.ID))
	_, err = svc.GetScenario(ctx, dup.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteDefaultRefused(t *testing.T) {
	svc := newTestService(t)
	err := svc.DeleteScenario(context.Background(), "baseline")
	assert.ErrorIs(t, err, ErrDefaultScenario)

	_, err = svc.GetScenario(context.Background(), "baseline")
	assert.NoError(t, err)
}

func TestDuplicateDefaultIsNotDefault(t *testing.T) {
	svc := newTestService(t)
	dup, err := svc.DuplicateScenario(context.Background(), "optimistic")
	require.NoError(t, err)
	assert.False(t, dup.IsDefault)
	assert.NoError(t, svc.DeleteScenario(context.Background(), dup.ID))
}

func TestGoalLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateGoal(ctx, model.SavingsGoal{Name: "Car", TargetAmount: 0, TargetDate: time.Now()})
	assert.ErrorIs(t, err, scenario.ErrInvalidGoalParameters)

	g, err := svc.CreateGoal(ctx, model.SavingsGoal{
		Name: "Car", TargetAmount: 8000, TargetDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, g.ID)

	g, err = svc.Contribute(ctx, g.ID, 250)
	require.NoError(t, err)
	assert.Equal(t, 250.0, g.CurrentAmount)

	_, err = svc.Contribute(ctx, g.ID, -1)
	assert.ErrorIs(t, err, scenario.ErrInvalidGoalParameters)
	for _, amount := range []float64{math.NaN(), math.Inf(1)} {
		_, err = svc.Contribute(ctx, g.ID, amount)
		assert.ErrorIs(t, err, scenario.ErrInvalidGoalParameters, "amount %v", amount)
	}
	stored, err := svc.GetGoal(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 250.0, stored.CurrentAmount)

	_, err = svc.CreateGoal(ctx, model.SavingsGoal{
		Name: "Boat", TargetAmount: math.NaN(), TargetDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, scenario.ErrInvalidGoalParameters)

	require.NoError(t, svc.DeleteGoal(ctx, g.ID))
	_, err = svc.GetGoal(ctx, g.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
