package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"vye/internal/cache"
	"vye/internal/core"
	"vye/internal/log"
)

const (
	pageOverview     = "overview"
	pageTransactions = "transactions"
	pageAnalytics    = "analytics"
	pageAccounts     = "accounts"
)

// pageData is shared by every full page.
type pageData struct {
	Title    string
	Active   string
	Filter   core.Filter
	Query    template.URL
	Accounts []core.Account
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether templates are loaded and the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.store == nil:
		checks["store"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	default:
		if err := s.store.Ping(ctx); err != nil {
			checks["store"] = fmt.Sprintf("failed: %v", err)
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}

	if s.queries != nil {
		checks["cache"] = map[string]any{
			"entries": s.queries.Cache().Size(),
			"loads":   s.queries.Cache().Loads(),
		}
	}
	checks["rate_limiter"] = map[string]any{"active_clients": s.limiter.ActiveClients()}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	traceMetrics := s.tracer.GetMetrics()
	securityMetrics := s.detector.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()

	var buf bytes.Buffer
	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(&buf, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_request_duration_avg_seconds", "gauge", "Average request duration", traceMetrics.AverageResponseTime.Seconds())
	if s.queries != nil {
		metric("cache_entries", "gauge", "Current cache entries", s.queries.Cache().Size())
		metric("cache_loads_total", "counter", "Store loads issued by the request cache, retries included", s.queries.Cache().Loads())
	}
	metric("inflight_views", "gauge", "Views with a fetch in progress", s.slots.Len())
	metric("rate_limit_hits_total", "counter", "Total rate limit hits", limitMetrics.TotalHits)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.started).Seconds()))

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// page renders one of the four dashboard pages. The account list feeds the
// filter selector; when it fails the page still renders without it.
func (s *Server) page(tmpl, title, active string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.templates == nil {
			s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
			http.Error(w, "templates not loaded", http.StatusInternalServerError)
			return
		}

		f := parseFilter(r)
		data := pageData{Title: title, Active: active, Filter: f, Query: template.URL(f.Values().Encode())}
		if s.queries != nil {
			accounts, err := s.queries.Accounts(r.Context())
			if err != nil {
				s.logger.ErrorContext(r.Context(), "Failed to load accounts for filters", log.FieldError, err)
			}
			data.Accounts = accounts
		}

		s.render(w, r, tmpl, data)
	}
}

// view starts a fetch in the client's slot for name.
func (s *Server) view(r *http.Request, name string) (context.Context, func()) {
	return s.slots.Start(r.Context(), clientFrom(r.Context()), name)
}

// failed handles a fetch error for an HTML partial. A superseded fetch gets
// an empty 204 so HTMX keeps the newer content; any other failure renders an
// inline placeholder and leaves the rest of the page alone.
func (s *Server) failed(w http.ResponseWriter, r *http.Request, ctx context.Context, err error, view, message string) bool {
	if err == nil {
		return false
	}
	if cache.Superseded(ctx) {
		s.logger.DebugContext(r.Context(), "View superseded", log.FieldView, view)
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	f := parseFilter(r)
	fields := log.NewFields().WithFilter(f.From.String(), f.To.String(), f.Accounts())
	fields[log.FieldView] = view
	log.NewStructuredLogger(s.logger).LogError(r.Context(), "Failed to load view", err, log.ComponentQueries, log.OpRead, fields)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.renderPlaceholder(w, r, view, message)
	return true
}

// failedJSON is failed for chart endpoints.
func (s *Server) failedJSON(w http.ResponseWriter, r *http.Request, ctx context.Context, err error, view string) bool {
	if err == nil {
		return false
	}
	if cache.Superseded(ctx) {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	s.logger.ErrorContext(r.Context(), "Failed to load chart", log.FieldView, view, log.FieldError, err)
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Failed to load chart data"})
	return true
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, tmpl string, data any) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, tmpl, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", "template", tmpl, log.FieldError, err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		s.renderPlaceholder(w, r, tmpl, "Failed to render view")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) renderPlaceholder(w http.ResponseWriter, r *http.Request, view, message string) {
	if s.templates != nil {
		if err := s.templates.ExecuteTemplate(w, "placeholder", map[string]string{"View": view, "Message": message}); err == nil {
			return
		}
	}
	ErrorResponse(http.StatusOK, message).Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
