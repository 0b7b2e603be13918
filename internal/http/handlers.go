package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]any{}

	if s.ledger == nil {
		checks["ledger"] = "not_configured"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		_, rev := s.ledger.Current()
		checks["ledger"] = map[string]any{"status": "ok", "revision": rev}
	}

	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			checks["dependencies"] = fmt.Sprintf("failed: %v", err)
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["dependencies"] = "ok"
		}
	}

	checks["cache"] = map[string]any{"entries": s.views.Size(), "status": "ok"}
	checks["rate_limiter"] = map[string]any{"active_clients": s.limiter.ActiveClients(), "status": "ok"}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides request and security counters in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()
	viewStats := s.views.Stats()
	revision := uint64(0)
	if s.ledger != nil {
		_, revision = s.ledger.Current()
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_last_response_microseconds", "gauge", "Duration of the last completed request", traceMetrics.AverageResponseTime)
	metric("ledger_revision", "gauge", "Revision of the live snapshot", revision)
	metric("cache_entries", "gauge", "Current cached view entries", viewStats.Entries)
	metric("cache_hits_total", "counter", "View lookups served from cache", viewStats.Hits)
	metric("cache_misses_total", "counter", "View lookups that recomputed", viewStats.Misses)
	metric("rate_limit_hits_total", "counter", "Total rate limit hits", limitMetrics.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", limitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("invalid_ip_attempts_total", "counter", "Forwarded client addresses that failed to parse", securityMetrics.InvalidIPAttempts)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.started).Seconds()))
}
