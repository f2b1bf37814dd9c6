package store

import (
	"database/sql"

	"github.com/theirongolddev/fcast/internal/model"
)

// FileInfo holds the tracked mtime and size for a file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// FileData is the parsed content of one data file.
type FileData struct {
	Records     []model.SpendingRecord
	Points      []model.ForecastDataPoint
	Income      []model.IncomeSource
	ParseErrors int
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (d *DB) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := d.db.Query("SELECT file_path, mtime_ns, size_bytes FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveFile replaces the cached content of one file and its tracking info.
func (d *DB) SaveFile(path string, data FileData, mtimeNs, sizeBytes int64) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteFileRows(tx, path); err != nil {
		return err
	}

	for i, r := range data.Records {
		_, err = tx.Exec(`INSERT INTO spending_records
			(file_path, seq, date, category, amount, is_anomaly, anomaly_reason)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			path, i, r.Date, r.Category, r.Amount, boolInt(r.IsAnomaly), r.AnomalyReason,
		)
		if err != nil {
			return err
		}
	}

	for _, p := range data.Points {
		var actual sql.NullFloat64
		if p.Actual != nil {
			actual = sql.NullFloat64{Float64: *p.Actual, Valid: true}
		}
		_, err = tx.Exec(`INSERT OR REPLACE INTO forecast_points
			(file_path, date, actual, predicted, confidence_lower, confidence_upper)
			VALUES (?, ?, ?, ?, ?, ?)`,
			path, p.Date.UTC().Format(model.DateLayout), actual, p.Predicted, p.ConfidenceLower, p.ConfidenceUpper,
		)
		if err != nil {
			return err
		}
	}

	for i, s := range data.Income {
		_, err = tx.Exec(`INSERT INTO income_sources
			(file_path, seq, name, amount, percentage, growth_rate, stability)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			path, i, s.Name, s.Amount, s.Percentage, s.GrowthRate, s.Stability,
		)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes, parse_errors)
		VALUES (?, ?, ?, ?)`, path, mtimeNs, sizeBytes, data.ParseErrors)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// LoadFiles reads cached content for the given paths. Paths with no cached
// rows are present in the result with empty data.
func (d *DB) LoadFiles(paths []string) (map[string]*FileData, error) {
	out := make(map[string]*FileData, len(paths))
	for _, p := range paths {
		out[p] = &FileData{}
	}

	rows, err := d.db.Query(`SELECT file_path, date, category, amount, is_anomaly, anomaly_reason
		FROM spending_records ORDER BY file_path, seq`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var path string
		var r model.SpendingRecord
		var anomaly int
		if err := rows.Scan(&path, &r.Date, &r.Category, &r.Amount, &anomaly, &r.AnomalyReason); err != nil {
			return nil, err
		}
		if fd, ok := out[path]; ok {
			r.IsAnomaly = anomaly != 0
			fd.Records = append(fd.Records, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pointRows, err := d.db.Query(`SELECT file_path, date, actual, predicted, confidence_lower, confidence_upper
		FROM forecast_points ORDER BY file_path, date`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = pointRows.Close() }()
	for pointRows.Next() {
		var path, date string
		var actual sql.NullFloat64
		var p model.ForecastDataPoint
		if err := pointRows.Scan(&path, &date, &actual, &p.Predicted, &p.ConfidenceLower, &p.ConfidenceUpper); err != nil {
			return nil, err
		}
		fd, ok := out[path]
		if !ok {
			continue
		}
		p.Date, _ = model.ParseDate(date)
		if actual.Valid {
			v := actual.Float64
			p.Actual = &v
		}
		fd.Points = append(fd.Points, p)
	}
	if err := pointRows.Err(); err != nil {
		return nil, err
	}

	incomeRows, err := d.db.Query(`SELECT file_path, name, amount, percentage, growth_rate, stability
		FROM income_sources ORDER BY file_path, seq`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = incomeRows.Close() }()
	for incomeRows.Next() {
		var path string
		var s model.IncomeSource
		if err := incomeRows.Scan(&path, &s.Name, &s.Amount, &s.Percentage, &s.GrowthRate, &s.Stability); err != nil {
			return nil, err
		}
		if fd, ok := out[path]; ok {
			fd.Income = append(fd.Income, s)
		}
	}
	if err := incomeRows.Err(); err != nil {
		return nil, err
	}

	errRows, err := d.db.Query("SELECT file_path, parse_errors FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = errRows.Close() }()
	for errRows.Next() {
		var path string
		var n int
		if err := errRows.Scan(&path, &n); err != nil {
			return nil, err
		}
		if fd, ok := out[path]; ok {
			fd.ParseErrors = n
		}
	}
	return out, errRows.Err()
}

// DeleteFile removes a file's cached content and its tracking entry.
func (d *DB) DeleteFile(path string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteFileRows(tx, path); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM file_tracker WHERE file_path = ?", path); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteFileRows(tx *sql.Tx, path string) error {
	for _, table := range []string{"spending_records", "forecast_points", "income_sources"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE file_path = ?", path); err != nil {
			return err
		}
	}
	return nil
}

// RecordCount returns the number of cached spending records.
func (d *DB) RecordCount() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM spending_records").Scan(&count)
	return count, err
}
