package pipeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/theirongolddev/fcast/internal/model"
)

// benchRecords builds n records spread over a year with a handful of categories.
func benchRecords(n int) []model.SpendingRecord {
	cats := []string{"groceries", "rent", "transport", "dining", "utilities", "health"}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.SpendingRecord, n)
	for i := range out {
		out[i] = model.SpendingRecord{
			Date:     start.AddDate(0, 0, i%365).Format(model.DateLayout),
			Category: cats[i%len(cats)],
			Amount:   float64(i%200) + 0.99,
		}
	}
	return out
}

func BenchmarkAggregate(b *testing.B) {
	for _, n := range []int{1_000, 50_000} {
		records := benchRecords(n)
		b.Run(fmt.Sprintf("records=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := Aggregate(records); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSummarize(b *testing.B) {
	days, err := Aggregate(benchRecords(50_000))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Summarize(days)
	}
}

func BenchmarkLoad(b *testing.B) {
	dir := seedDataDir(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Load(dir, nil); err != nil {
			b.Fatal(err)
		}
	}
}
