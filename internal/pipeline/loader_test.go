package pipeline

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/theirongolddev/fcast/internal/store"
)

func writeData(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func seedDataDir(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	writeData(t, filepath.Join(dir, "spending", "checking", "jan.jsonl"),
		`{"date":"2024-01-01","category":"food","amount":10}
{"date":"2024-01-02","category":"food","amount":20}
garbage
`)
	writeData(t, filepath.Join(dir, "spending", "card.csv"),
		"date,category,amount\n2024-01-02,fuel,40\n")
	writeData(t, filepath.Join(dir, "forecast", "points.json"),
		`[{"date":"2024-01-04","predicted":12,"confidenceLower":10,"confidenceUpper":14},
		  {"date":"2024-01-03","predicted":11,"confidenceLower":9,"confidenceUpper":13}]`)
	writeData(t, filepath.Join(dir, "income", "sources.json"),
		`{"sources":[{"name":"Salary","amount":5000,"percentage":100}]}`)
	return dir
}

func TestLoad(t *testing.T) {
	dir := seedDataDir(t)

	var calls atomic.Int32
	res, err := Load(dir, func(current, total int) { calls.Add(1) })
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.TotalFiles != 4 || res.ParsedFiles != 4 {
		t.Fatalf("files total/parsed = %d/%d, want 4/4", res.TotalFiles, res.ParsedFiles)
	}
	if len(res.Records) != 3 {
		t.Fatalf("Records = %d, want 3", len(res.Records))
	}
	if res.ParseErrors != 1 {
		t.Fatalf("ParseErrors = %d, want 1", res.ParseErrors)
	}
	if len(res.Points) != 2 || res.Points[0].Date.Day() != 3 {
		t.Fatalf("Points not sorted: %+v", res.Points)
	}
	if len(res.Income) != 1 {
		t.Fatalf("Income = %d, want 1", len(res.Income))
	}
	if res.AccountCount != 2 {
		t.Fatalf("AccountCount = %d, want 2", res.AccountCount)
	}
	if n := calls.Load(); n != 4 {
		t.Fatalf("progress calls = %d, want 4", n)
	}
}

func TestLoadWithCacheReusesUnchangedFiles(t *testing.T) {
	dir := seedDataDir(t)
	db, err := store.Open(filepath.Join(t.TempDir(), "fcast.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer func() { _ = db.Close() }()

	first, err := LoadWithCache(dir, db, nil)
	if err != nil {
		t.Fatalf("first LoadWithCache: %v", err)
	}
	if first.Reparsed != 4 || first.CacheHits != 0 {
		t.Fatalf("first reparsed/hits = %d/%d, want 4/0", first.Reparsed, first.CacheHits)
	}

	second, err := LoadWithCache(dir, db, nil)
	if err != nil {
		t.Fatalf("second LoadWithCache: %v", err)
	}
	if second.Reparsed != 0 || second.CacheHits != 4 {
		t.Fatalf("second reparsed/hits = %d/%d, want 0/4", second.Reparsed, second.CacheHits)
	}
	if len(second.Records) != 3 || len(second.Points) != 2 || len(second.Income) != 1 {
		t.Fatalf("cached content = %d records, %d points, %d income",
			len(second.Records), len(second.Points), len(second.Income))
	}
	if second.ParseErrors != 1 {
		t.Fatalf("cached ParseErrors = %d, want 1", second.ParseErrors)
	}

	// Touch one file and remove another.
	csvPath := filepath.Join(dir, "spending", "card.csv")
	writeData(t, csvPath, "date,category,amount\n2024-01-02,fuel,40\n2024-01-03,fuel,45\n")
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(csvPath, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, "income", "sources.json")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	third, err := LoadWithCache(dir, db, nil)
	if err != nil {
		t.Fatalf("third LoadWithCache: %v", err)
	}
	if third.Reparsed != 1 || third.CacheHits != 2 || third.Removed != 1 {
		t.Fatalf("third reparsed/hits/removed = %d/%d/%d, want 1/2/1",
			third.Reparsed, third.CacheHits, third.Removed)
	}
	if len(third.Records) != 4 || len(third.Income) != 0 {
		t.Fatalf("third content = %d records, %d income, want 4/0", len(third.Records), len(third.Income))
	}
}
