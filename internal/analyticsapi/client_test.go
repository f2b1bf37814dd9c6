package analyticsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "tok")
}

func TestNewClientRequiresURL(t *testing.T) {
	if NewClient("  ", "x") != nil {
		t.Fatal("NewClient with empty URL should be nil")
	}
}

func TestFetchAll(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/analytics/spending-trends":
			if r.URL.Query().Get("startDate") != "2024-01-01" {
				t.Errorf("startDate = %q", r.URL.Query().Get("startDate"))
			}
			_, _ = w.Write([]byte(`[{"date":"2024-01-02","amount":12.5,"category":"food","isAnomaly":true}]`))
		case "/analytics/income":
			_, _ = w.Write([]byte(`[{"id":"1","name":"Salary","amount":5000,"percentage":100,"stability":"high"}]`))
		case "/forecasts":
			_, _ = w.Write([]byte(`[{"date":"2024-02-01","predicted":10,"confidenceLower":8,"confidenceUpper":12},{"date":"bad","predicted":1}]`))
		default:
			http.NotFound(w, r)
		}
	})

	snap := c.FetchAll(context.Background(), Filters{Since: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	if snap.Error != nil {
		t.Fatalf("FetchAll error: %v", snap.Error)
	}
	recs := snap.Records()
	if len(recs) != 1 || recs[0].Amount != 12.5 || !recs[0].IsAnomaly {
		t.Fatalf("Records = %+v", recs)
	}
	if inc := snap.IncomeSources(); len(inc) != 1 || inc[0].Name != "Salary" {
		t.Fatalf("IncomeSources = %+v", inc)
	}
	points, skipped := snap.Points()
	if len(points) != 1 || skipped != 1 {
		t.Fatalf("Points = %d, skipped = %d, want 1/1", len(points), skipped)
	}
}

func TestFetchUnauthorized(t *testing.T) {
	calls := 0
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	})

	snap := c.FetchAll(context.Background(), Filters{})
	if !errors.Is(snap.Error, ErrUnauthorized) {
		t.Fatalf("Error = %v, want ErrUnauthorized", snap.Error)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (stop after unauthorized)", calls)
	}
}

func TestFetchRateLimitedAndBadStatus(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/forecasts" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := c.FetchForecast(context.Background(), Filters{}); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("FetchForecast error = %v, want ErrRateLimited", err)
	}
	if _, err := c.FetchIncome(context.Background(), Filters{}); err == nil {
		t.Fatal("FetchIncome: expected error on 500")
	}
}
