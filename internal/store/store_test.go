package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/fcast/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "fcast.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, openTestDB(t)) })
}

func TestScenarioCRUD(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		def := model.ForecastScenario{ID: "baseline", Name: "Current", IsDefault: true, CreatedAt: now, UpdatedAt: now}
		custom := model.ForecastScenario{
			ID: "c1", Name: "Raise", IncomeAdjustmentPct: 15, ExpenseAdjustmentPct: -2.5,
			CreatedAt: now.Add(-time.Hour), UpdatedAt: now,
		}
		require.NoError(t, s.CreateScenario(ctx, custom))
		require.NoError(t, s.CreateScenario(ctx, def))
		assert.ErrorIs(t, s.CreateScenario(ctx, def), ErrAlreadyExists)

		list, err := s.ListScenarios(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "baseline", list[0].ID, "defaults sort first")

		got, err := s.GetScenario(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, 15.0, got.IncomeAdjustmentPct)
		assert.Equal(t, -2.5, got.ExpenseAdjustmentPct)
		assert.True(t, got.CreatedAt.Equal(custom.CreatedAt))

		got.Name = "Big raise"
		require.NoError(t, s.UpdateScenario(ctx, got))
		got, err = s.GetScenario(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "Big raise", got.Name)

		require.NoError(t, s.DeleteScenario(ctx, "c1"))
		_, err = s.GetScenario(ctx, "c1")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.DeleteScenario(ctx, "c1"), ErrNotFound)
		assert.ErrorIs(t, s.UpdateScenario(ctx, custom), ErrNotFound)
	})
}

func TestGoalCRUD(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		early := model.SavingsGoal{
			ID: "g1", Name: "Trip", TargetAmount: 2000, CurrentAmount: 100,
			TargetDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		}
		late := model.SavingsGoal{
			ID: "g2", Name: "House", TargetAmount: 50000, MonthlyContribution: 800,
			TargetDate: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, s.CreateGoal(ctx, late))
		require.NoError(t, s.CreateGoal(ctx, early))

		list, err := s.ListGoals(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "g1", list[0].ID, "ordered by target date")

		early.CurrentAmount = 900
		require.NoError(t, s.UpdateGoal(ctx, early))
		got, err := s.GetGoal(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, 900.0, got.CurrentAmount)
		assert.True(t, got.TargetDate.Equal(early.TargetDate))

		require.NoError(t, s.DeleteGoal(ctx, "g2"))
		_, err = s.GetGoal(ctx, "g2")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFileCacheRoundTrip(t *testing.T) {
	db := openTestDB(t)
	actual := 42.0
	data := FileData{
		Records: []model.SpendingRecord{
			{Date: "2024-01-01", Category: "food", Amount: 12.5},
			{Date: "2024-01-01", Category: "fuel", Amount: 30, IsAnomaly: true, AnomalyReason: "spike"},
		},
		Points: []model.ForecastDataPoint{
			{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Actual: &actual, Predicted: 40, ConfidenceLower: 35, ConfidenceUpper: 45},
		},
		Income:      []model.IncomeSource{{Name: "Salary", Amount: 5000, Percentage: 100, Stability: "stable"}},
		ParseErrors: 3,
	}
	require.NoError(t, db.SaveFile("/data/a.jsonl", data, 111, 222))

	tracked, err := db.GetTrackedFiles()
	require.NoError(t, err)
	assert.Equal(t, FileInfo{MtimeNs: 111, SizeBytes: 222}, tracked["/data/a.jsonl"])

	loaded, err := db.LoadFiles([]string{"/data/a.jsonl", "/data/missing.jsonl"})
	require.NoError(t, err)
	fd := loaded["/data/a.jsonl"]
	require.NotNil(t, fd)
	assert.Equal(t, data.Records, fd.Records)
	require.Len(t, fd.Points, 1)
	require.NotNil(t, fd.Points[0].Actual)
	assert.Equal(t, 42.0, *fd.Points[0].Actual)
	assert.Equal(t, data.Income, fd.Income)
	assert.Equal(t, 3, fd.ParseErrors)
	assert.Empty(t, loaded["/data/missing.jsonl"].Records)

	// Saving again replaces rather than appends.
	data.Records = data.Records[:1]
	require.NoError(t, db.SaveFile("/data/a.jsonl", data, 112, 200))
	n, err := db.RecordCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, db.DeleteFile("/data/a.jsonl"))
	tracked, err = db.GetTrackedFiles()
	require.NoError(t, err)
	assert.Empty(t, tracked)
}
