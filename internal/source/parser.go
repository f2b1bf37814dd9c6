// Package source discovers and parses spending, forecast and income data files.
package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/theirongolddev/fcast/internal/model"
)

// ParseResult holds the output of parsing a single data file.
type ParseResult struct {
	File        DiscoveredFile
	Records     []model.SpendingRecord
	Points      []model.ForecastDataPoint
	Income      []model.IncomeSource
	ParseErrors int
	Err         error
}

// ParseFile reads one discovered file. Malformed lines or rows are counted in
// ParseErrors and skipped; I/O failures and undecodable JSON documents set Err.
func ParseFile(df DiscoveredFile) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{File: df, Err: err}
	}
	defer func() { _ = f.Close() }()

	return Parse(df, f)
}

// Parse decodes r according to df.Kind and df.Format.
func Parse(df DiscoveredFile, r io.Reader) ParseResult {
	res := ParseResult{File: df}
	switch df.Format {
	case "jsonl":
		parseJSONL(&res, r)
	case "json":
		parseJSON(&res, r)
	case "csv":
		parseCSV(&res, r)
	default:
		res.Err = fmt.Errorf("unsupported format %q", df.Format)
	}
	return res
}

func parseJSONL(res *ParseResult, r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if err := res.decodeOne(line); err != nil {
			res.ParseErrors++
		}
	}
	if err := scanner.Err(); err != nil {
		res.Err = err
	}
}

func parseJSON(res *ParseResult, r io.Reader) {
	data, err := io.ReadAll(r)
	if err != nil {
		res.Err = err
		return
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return
	}

	if data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			res.Err = fmt.Errorf("decoding %s: %w", res.File.Path, err)
			return
		}
		for _, item := range items {
			if err := res.decodeOne(item); err != nil {
				res.ParseErrors++
			}
		}
		return
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		res.Err = fmt.Errorf("decoding %s: %w", res.File.Path, err)
		return
	}
	for _, rec := range env.Records {
		res.Records = append(res.Records, model.SpendingRecord(rec))
	}
	for _, p := range env.Points {
		if pt, err := p.toModel(); err == nil {
			res.Points = append(res.Points, pt)
		} else {
			res.ParseErrors++
		}
	}
	for _, s := range env.Sources {
		res.Income = append(res.Income, model.IncomeSource(s))
	}
}

// decodeOne decodes a single JSON object according to the file kind.
func (res *ParseResult) decodeOne(raw []byte) error {
	switch res.File.Kind {
	case KindSpending:
		var rec rawSpendingRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		res.Records = append(res.Records, model.SpendingRecord(rec))
	case KindForecast:
		var p rawForecastPoint
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		pt, err := p.toModel()
		if err != nil {
			return err
		}
		res.Points = append(res.Points, pt)
	case KindIncome:
		var s rawIncomeSource
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		res.Income = append(res.Income, model.IncomeSource(s))
	default:
		return fmt.Errorf("unknown kind %q", res.File.Kind)
	}
	return nil
}

func (p rawForecastPoint) toModel() (model.ForecastDataPoint, error) {
	d, err := model.ParseDate(p.Date)
	if err != nil {
		return model.ForecastDataPoint{}, err
	}
	return model.ForecastDataPoint{
		Date:            d,
		Actual:          p.Actual,
		Predicted:       p.Predicted,
		ConfidenceLower: p.ConfidenceLower,
		ConfidenceUpper: p.ConfidenceUpper,
	}, nil
}

// columnMappings maps common export column names to the record fields.
var columnMappings = map[string][]string{
	"date":     {"date", "transaction date", "posted date", "post date", "day"},
	"category": {"category", "category name", "type"},
	"amount":   {"amount", "value", "debit", "withdrawal", "expense", "spent"},
	"anomaly":  {"anomaly", "is_anomaly", "isanomaly", "flagged"},
	"reason":   {"reason", "anomaly_reason", "anomalyreason", "note"},
}

func buildColumnIndex(header []string) map[string]int {
	idx := make(map[string]int)
	for i, col := range header {
		col = strings.ToLower(strings.TrimSpace(col))
		for field, variants := range columnMappings {
			for _, v := range variants {
				if col == v {
					if _, exists := idx[field]; !exists {
						idx[field] = i
					}
				}
			}
		}
	}
	return idx
}

var errMissingColumns = errors.New("csv header needs date, category and amount columns")

func parseCSV(res *ParseResult, r io.Reader) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err != io.EOF {
			res.Err = fmt.Errorf("reading csv header: %w", err)
		}
		return
	}
	idx := buildColumnIndex(header)
	for _, need := range []string{"date", "category", "amount"} {
		if _, ok := idx[need]; !ok {
			res.Err = fmt.Errorf("%s: %w", res.File.Path, errMissingColumns)
			return
		}
	}

	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.ParseErrors++
			continue
		}

		amount, err := parseAmount(field(row, "amount"))
		if err != nil {
			res.ParseErrors++
			continue
		}
		rec := model.SpendingRecord{
			Date:          field(row, "date"),
			Category:      field(row, "category"),
			Amount:        amount,
			AnomalyReason: field(row, "reason"),
		}
		switch strings.ToLower(field(row, "anomaly")) {
		case "1", "true", "yes", "y":
			rec.IsAnomaly = true
		}
		res.Records = append(res.Records, rec)
	}
}

func parseAmount(s string) (float64, error) {
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		v = -v
	}
	return v, nil
}
