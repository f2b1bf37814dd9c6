package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/fcast/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// DB is the SQLite-backed Store. It also holds the parsed-file cache.
type DB struct {
	db *sql.DB
}

var _ Store = (*DB)(nil)

// Open opens or creates the database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

const scenarioColumns = `id, name, description, income_adjustment, expense_adjustment, is_default, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScenario(r rowScanner) (model.ForecastScenario, error) {
	var s model.ForecastScenario
	var isDefault int
	var created, updated string
	err := r.Scan(&s.ID, &s.Name, &s.Description, &s.IncomeAdjustmentPct, &s.ExpenseAdjustmentPct,
		&isDefault, &created, &updated)
	if err != nil {
		return s, err
	}
	s.IsDefault = isDefault != 0
	s.CreatedAt = parseTime(created)
	s.UpdatedAt = parseTime(updated)
	return s, nil
}

func (d *DB) CreateScenario(ctx context.Context, s model.ForecastScenario) error {
	_, err := d.db.ExecContext(ctx, `INSERT INTO scenarios (`+scenarioColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Description, s.IncomeAdjustmentPct, s.ExpenseAdjustmentPct,
		boolInt(s.IsDefault), formatTime(s.CreatedAt), formatTime(s.UpdatedAt),
	)
	if err != nil {
		if _, getErr := d.GetScenario(ctx, s.ID); getErr == nil {
			return fmt.Errorf("scenario %s: %w", s.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("inserting scenario: %w", err)
	}
	return nil
}

func (d *DB) GetScenario(ctx context.Context, id string) (model.ForecastScenario, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+scenarioColumns+` FROM scenarios WHERE id = ?`, id)
	s, err := scanScenario(row)
	if errors.Is(err, sql.ErrNoRows) {
		return s, fmt.Errorf("scenario %s: %w", id, ErrNotFound)
	}
	return s, err
}

func (d *DB) UpdateScenario(ctx context.Context, s model.ForecastScenario) error {
	res, err := d.db.ExecContext(ctx, `UPDATE scenarios SET
		name = ?, description = ?, income_adjustment = ?, expense_adjustment = ?,
		is_default = ?, updated_at = ?
		WHERE id = ?`,
		s.Name, s.Description, s.IncomeAdjustmentPct, s.ExpenseAdjustmentPct,
		boolInt(s.IsDefault), formatTime(s.UpdatedAt), s.ID,
	)
	if err != nil {
		return fmt.Errorf("updating scenario: %w", err)
	}
	return expectOneRow(res, "scenario", s.ID)
}

func (d *DB) DeleteScenario(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, "DELETE FROM scenarios WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting scenario: %w", err)
	}
	return expectOneRow(res, "scenario", id)
}

func (d *DB) ListScenarios(ctx context.Context) ([]model.ForecastScenario, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+scenarioColumns+` FROM scenarios`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.ForecastScenario
	for rows.Next() {
		s, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortScenarios(out)
	return out, nil
}

const goalColumns = `id, name, target_amount, target_date, current_amount, monthly_contribution, created_at`

func scanGoal(r rowScanner) (model.SavingsGoal, error) {
	var g model.SavingsGoal
	var target, created string
	err := r.Scan(&g.ID, &g.Name, &g.TargetAmount, &target, &g.CurrentAmount, &g.MonthlyContribution, &created)
	if err != nil {
		return g, err
	}
	g.TargetDate = parseTime(target)
	g.CreatedAt = parseTime(created)
	return g, nil
}

func (d *DB) CreateGoal(ctx context.Context, g model.SavingsGoal) error {
	_, err := d.db.ExecContext(ctx, `INSERT INTO goals (`+goalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.TargetAmount, formatTime(g.TargetDate), g.CurrentAmount,
		g.MonthlyContribution, formatTime(g.CreatedAt),
	)
	if err != nil {
		if _, getErr := d.GetGoal(ctx, g.ID); getErr == nil {
			return fmt.Errorf("goal %s: %w", g.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("inserting goal: %w", err)
	}
	return nil
}

func (d *DB) GetGoal(ctx context.Context, id string) (model.SavingsGoal, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return g, fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	return g, err
}

func (d *DB) UpdateGoal(ctx context.Context, g model.SavingsGoal) error {
	res, err := d.db.ExecContext(ctx, `UPDATE goals SET
		name = ?, target_amount = ?, target_date = ?, current_amount = ?, monthly_contribution = ?
		WHERE id = ?`,
		g.Name, g.TargetAmount, formatTime(g.TargetDate), g.CurrentAmount, g.MonthlyContribution, g.ID,
	)
	if err != nil {
		return fmt.Errorf("updating goal: %w", err)
	}
	return expectOneRow(res, "goal", g.ID)
}

func (d *DB) DeleteGoal(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, "DELETE FROM goals WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting goal: %w", err)
	}
	return expectOneRow(res, "goal", id)
}

func (d *DB) ListGoals(ctx context.Context) ([]model.SavingsGoal, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+goalColumns+` FROM goals`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortGoals(out)
	return out, nil
}

func expectOneRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
