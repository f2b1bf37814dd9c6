package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestParseJSONLSpending(t *testing.T) {
	input := strings.Join([]string{
		`{"date":"2024-01-01","category":"food","amount":10}`,
		``,
		`not json`,
		`{"date":"2024-01-02","category":"rent","amount":900,"isAnomaly":true,"anomalyReason":"spike"}`,
	}, "\n")

	res := Parse(DiscoveredFile{Kind: KindSpending, Format: "jsonl"}, strings.NewReader(input))
	if res.Err != nil {
		t.Fatalf("Parse: %v", res.Err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("Records = %d, want 2", len(res.Records))
	}
	if res.ParseErrors != 1 {
		t.Fatalf("ParseErrors = %d, want 1", res.ParseErrors)
	}
	if !res.Records[1].IsAnomaly || res.Records[1].AnomalyReason != "spike" {
		t.Fatalf("second record = %+v, want anomaly with reason", res.Records[1])
	}
}

func TestParseJSONEnvelopeForecast(t *testing.T) {
	input := `{"points":[
		{"date":"2024-02-01","actual":100,"predicted":110,"confidenceLower":90,"confidenceUpper":130},
		{"date":"2024-02-02","predicted":120,"confidenceLower":95,"confidenceUpper":140},
		{"date":"yesterday","predicted":1,"confidenceLower":0,"confidenceUpper":2}
	]}`

	res := Parse(DiscoveredFile{Kind: KindForecast, Format: "json"}, strings.NewReader(input))
	if res.Err != nil {
		t.Fatalf("Parse: %v", res.Err)
	}
	if len(res.Points) != 2 {
		t.Fatalf("Points = %d, want 2", len(res.Points))
	}
	if res.ParseErrors != 1 {
		t.Fatalf("ParseErrors = %d, want 1", res.ParseErrors)
	}
	if res.Points[0].Actual == nil || *res.Points[0].Actual != 100 {
		t.Fatalf("first point actual = %v, want 100", res.Points[0].Actual)
	}
	if res.Points[1].Actual != nil {
		t.Fatal("second point actual should be nil")
	}
}

func TestParseJSONArrayIncome(t *testing.T) {
	input := `[{"name":"Salary","amount":5000,"percentage":80,"stability":"stable"},
	           {"name":"Freelance","amount":1250,"percentage":20,"growthRate":12,"stability":"variable"}]`

	res := Parse(DiscoveredFile{Kind: KindIncome, Format: "json"}, strings.NewReader(input))
	if res.Err != nil {
		t.Fatalf("Parse: %v", res.Err)
	}
	if len(res.Income) != 2 {
		t.Fatalf("Income = %d, want 2", len(res.Income))
	}
	if res.Income[1].GrowthRate != 12 {
		t.Fatalf("GrowthRate = %.1f, want 12", res.Income[1].GrowthRate)
	}
}

func TestParseCSVColumnMapping(t *testing.T) {
	input := "Transaction Date,Category,Amount,Flagged,Note\n" +
		"2024-03-01,groceries,\"$1,204.50\",yes,big shop\n" +
		"2024-03-02,fuel,40,,\n" +
		"2024-03-03,fuel,abc,,\n"

	res := Parse(DiscoveredFile{Kind: KindSpending, Format: "csv"}, strings.NewReader(input))
	if res.Err != nil {
		t.Fatalf("Parse: %v", res.Err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("Records = %d, want 2", len(res.Records))
	}
	if res.ParseErrors != 1 {
		t.Fatalf("ParseErrors = %d, want 1", res.ParseErrors)
	}
	first := res.Records[0]
	if first.Amount != 1204.50 || !first.IsAnomaly || first.AnomalyReason != "big shop" {
		t.Fatalf("first record = %+v", first)
	}
}

func TestParseCSVMissingColumns(t *testing.T) {
	res := Parse(DiscoveredFile{Kind: KindSpending, Format: "csv"}, strings.NewReader("foo,bar\n1,2\n"))
	if res.Err == nil {
		t.Fatal("expected error for header without required columns")
	}
}

func TestParseAmountParentheses(t *testing.T) {
	v, err := parseAmount("(12.50)")
	if err != nil {
		t.Fatalf("parseAmount: %v", err)
	}
	if v != -12.5 {
		t.Fatalf("parseAmount = %.2f, want -12.50", v)
	}
}

func TestScanDirLayout(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "spending", "checking", "2024.jsonl"), "")
	writeFile(t, filepath.Join(dir, "spending", "card.csv"), "")
	writeFile(t, filepath.Join(dir, "spending", "notes.txt"), "")
	writeFile(t, filepath.Join(dir, "forecast", "points.json"), "")
	writeFile(t, filepath.Join(dir, "forecast", "ignored.csv"), "")
	writeFile(t, filepath.Join(dir, "income", "sources.json"), "")
	writeFile(t, filepath.Join(dir, "spending", ".hidden", "x.jsonl"), "")

	files, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir: %v", err)
	}
	if len(files) != 4 {
		t.Fatalf("files = %d, want 4: %+v", len(files), files)
	}
	if n := CountAccounts(files); n != 2 {
		t.Fatalf("CountAccounts = %d, want 2", n)
	}

	accounts := map[string]bool{}
	for _, f := range FilterKind(files, KindSpending) {
		accounts[f.Account] = true
	}
	if !accounts["checking"] || !accounts["card"] {
		t.Fatalf("accounts = %v, want checking and card", accounts)
	}
}

func TestScanDirMissing(t *testing.T) {
	files, err := ScanDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("ScanDir: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("files = %d, want 0", len(files))
	}
}
