// Package httpapi serves the report pipeline over HTTP: JSON report and
// run-history endpoints, rendered chart PNGs, and a small index page.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"folio/internal/market"
	"folio/internal/report"
	"folio/internal/store"
)

const defaultRunsLimit = 20

// Server serves the report API.
type Server struct {
	builder *report.Builder
	runs    store.RunStore // nil disables /api/runs
	log     *slog.Logger
}

// NewServer creates a Server. runs may be nil when run history is disabled.
func NewServer(builder *report.Builder, runs store.RunStore, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{builder: builder, runs: runs, log: log}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/report", s.handleReport)
	mux.HandleFunc("GET /api/report/chart/{kind}", s.handleChart)
	mux.HandleFunc("GET /api/runs", s.handleRuns)
	mux.HandleFunc("GET /{$}", s.handleIndex)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// parseRequest builds a report request from query parameters. An absent
// tickers parameter selects the default request; a present-but-empty one is
// an input error surfaced by the builder.
func (s *Server) parseRequest(r *http.Request) (report.Request, error) {
	q := r.URL.Query()

	req := s.builder.DefaultRequest()
	if q.Has("tickers") {
		req.Tickers = splitTickers(q.Get("tickers"))
	}

	if v := q.Get("start"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return report.Request{}, errors.New("invalid start date, want YYYY-MM-DD")
		}
		req.Start = t
	}
	if v := q.Get("end"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return report.Request{}, errors.New("invalid end date, want YYYY-MM-DD")
		}
		req.End = t
	}

	if v := q.Get("rebalance"); v != "" {
		if v == "daily" {
			req.Rebalance = true
		} else {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return report.Request{}, errors.New("invalid rebalance flag")
			}
			req.Rebalance = b
		}
	}

	return req, nil
}

func splitTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (s *Server) buildReport(r *http.Request) (*report.Report, int, string) {
	req, err := s.parseRequest(r)
	if err != nil {
		return nil, http.StatusBadRequest, err.Error()
	}

	rep, err := s.builder.Build(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, report.ErrNoTickers),
			errors.Is(err, report.ErrBadRange),
			errors.Is(err, market.ErrNoSymbols):
			return nil, http.StatusBadRequest, err.Error()
		case errors.Is(err, report.ErrNoData):
			return nil, http.StatusBadGateway, err.Error()
		case errors.Is(err, context.Canceled):
			return nil, 499, "request canceled"
		default:
			s.log.Error("building report", "error", err)
			return nil, http.StatusInternalServerError, "building report failed"
		}
	}
	return rep, 0, ""
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, status, msg := s.buildReport(r)
	if rep == nil {
		writeError(w, status, msg)
		return
	}
	writeJSON(w, convertReport(rep))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	if !validChartKind(kind) {
		writeError(w, http.StatusNotFound, "unknown chart kind: "+kind)
		return
	}

	rep, status, msg := s.buildReport(r)
	if rep == nil {
		writeError(w, status, msg)
		return
	}

	png, err := renderChart(rep, kind)
	if err != nil {
		if errors.Is(err, errChartNoData) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.log.Error("rendering chart", "kind", kind, "error", err)
		writeError(w, http.StatusInternalServerError, "rendering chart failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run history is disabled")
		return
	}

	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := s.runs.RecentRuns(r.Context(), limit)
	if err != nil {
		s.log.Error("listing runs", "error", err)
		writeError(w, http.StatusInternalServerError, "listing runs failed")
		return
	}

	resp := RunsResponse{Runs: make([]RunJSON, 0, len(runs))}
	for _, run := range runs {
		resp.Runs = append(resp.Runs, RunJSON{
			ID:             run.ID,
			RequestedAt:    run.RequestedAt.UTC().Format(time.RFC3339),
			Tickers:        run.Tickers,
			Start:          run.Start.Format(dateLayout),
			End:            run.End.Format(dateLayout),
			EqualSharpe:    run.EqualSharpe,
			OptimalSharpe:  run.OptimalSharpe,
			OptimizerError: run.OptimizerError,
		})
	}
	writeJSON(w, resp)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}
