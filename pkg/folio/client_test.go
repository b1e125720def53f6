package folio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGetReportQuery(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/report" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		json.NewEncoder(w).Encode(Report{Tickers: []string{"AAA", "BBB"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	rep, err := c.GetReport(context.Background(), ReportRequest{
		Tickers:   []string{"aaa", "bbb"},
		Start:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Rebalance: true,
	})
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if len(rep.Tickers) != 2 {
		t.Errorf("tickers = %v", rep.Tickers)
	}

	want := map[string]string{
		"tickers":   "aaa,bbb",
		"start":     "2024-01-02",
		"end":       "2024-06-03",
		"rebalance": "true",
	}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery[k], v)
		}
	}
}

func TestGetReportDefaultsOmitParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.Query()) != 0 {
			t.Errorf("query = %v, want empty", r.URL.Query())
		}
		json.NewEncoder(w).Encode(Report{})
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).GetReport(context.Background(), ReportRequest{}); err != nil {
		t.Fatalf("GetReport: %v", err)
	}
}

func TestGetReportServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "no tickers given"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).GetReport(context.Background(), ReportRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); !strings.Contains(got, "no tickers given") {
		t.Errorf("error = %q, want server message included", got)
	}
}

func TestGetRuns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/runs" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("limit = %q, want 5", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"runs": []Run{{ID: 1}, {ID: 2}}})
	}))
	defer srv.Close()

	runs, err := NewClient(srv.URL).GetRuns(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("runs = %d, want 2", len(runs))
	}
}

func TestGetChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/report/chart/portfolio" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer srv.Close()

	png, err := NewClient(srv.URL).GetChart(context.Background(), "portfolio", ReportRequest{Tickers: []string{"AAA"}})
	if err != nil {
		t.Fatalf("GetChart: %v", err)
	}
	if len(png) != 4 || png[1] != 'P' {
		t.Errorf("unexpected chart bytes: %v", png)
	}
}
