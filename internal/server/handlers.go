package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/alchemix/bar-server/internal/constants"
	"github.com/alchemix/bar-server/internal/observability"
	"github.com/alchemix/bar-server/internal/query"
)

// queryHandler constructs and answers a bar query in one step.
func (s *Server) queryHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, span := s.tracer.StartSpan(r.Context(), "answer_query",
		attribute.String("http.method", r.Method),
		attribute.String("http.path", r.URL.Path),
	)
	defer span.End()

	var req query.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		s.metrics.RecordQuery("malformed")
		return
	}

	ans, err := s.constructor.Answer(ctx, req)
	if err != nil {
		if errors.Is(err, query.ErrEmptyQuery) {
			s.sendErrorResponse(w, http.StatusBadRequest, err.Error())
			s.metrics.RecordQuery("empty")
			return
		}
		s.sendErrorResponse(w, http.StatusInternalServerError, err.Error())
		s.metrics.RecordQuery("error")
		s.logger.Logger.Error("Failed to answer query",
			zap.Error(err),
			zap.String("question", req.Question),
		)
		return
	}

	if ans.Source == query.SourceCache {
		s.metrics.RecordCacheHit()
	}
	s.metrics.RecordQuery("ok")

	s.sendJSONResponse(w, http.StatusOK, ans)
	s.metrics.RecordRequest(r.Method, constants.PathQuery, http.StatusOK, time.Since(start), 0)

	s.logger.Logger.Debug("Query answered",
		zap.String("question", req.Question),
		zap.Int("matches", len(ans.Matches)),
		zap.String("source", ans.Source),
		zap.Duration("duration", time.Since(start)),
	)
}

// queryPlanHandler constructs a query without executing it. Debug
// surface: shows what the constructor derives from a question.
func (s *Server) queryPlanHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.StartSpan(r.Context(), "plan_query")
	defer span.End()

	params := r.URL.Query()
	req := query.Request{
		Question: params.Get("q"),
		Spirit:   params.Get("spirit"),
		Glass:    params.Get("glass"),
	}
	if limit := params.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			req.Limit = n
		}
	}

	q, err := s.constructor.Construct(ctx, req)
	if err != nil {
		if errors.Is(err, query.ErrEmptyQuery) {
			s.sendErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		s.sendErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.sendJSONResponse(w, http.StatusOK, q)
}

// readinessHandler reports whether the application can serve queries.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.StartSpan(r.Context(), "readiness_check")
	defer span.End()

	checks := map[string]bool{
		"constructor": s.constructor != nil,
		"api_doc":     s.apiDoc != nil,
	}

	ready := true
	for _, ok := range checks {
		if !ok {
			ready = false
			break
		}
	}

	status := observability.HealthStatus{
		Status:    "ready",
		Service:   constants.ServiceName,
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startTime).String(),
		Checks:    checks,
	}

	code := http.StatusOK
	if !ready {
		status.Status = "not ready"
		code = http.StatusServiceUnavailable
	}

	s.sendJSONResponse(w, code, status)
}

// docsHandler serves the API description derived from the embedded
// OpenAPI document.
func (s *Server) docsHandler(w http.ResponseWriter, r *http.Request) {
	doc := struct {
		Service   string            `json:"service"`
		Version   string            `json:"version"`
		Endpoints []routeInfo `json:"endpoints"`
	}{
		Service: s.apiDoc.Title(),
		Version: s.apiDoc.Version(),
	}

	for _, ep := range s.apiDoc.Endpoints() {
		doc.Endpoints = append(doc.Endpoints, routeInfo{
			Method:  ep.Method,
			Path:    ep.Path,
			Summary: ep.Summary,
		})
	}

	s.sendJSONResponse(w, http.StatusOK, doc)
}

type routeInfo struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Summary string `json:"summary,omitempty"`
}

// serveIndex is the fallback document at the application root.
func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	index := struct {
		Service       string `json:"service"`
		Version       string `json:"version"`
		Observability struct {
			Health    string `json:"health"`
			Readiness string `json:"readiness"`
			Metrics   string `json:"metrics"`
		} `json:"observability"`
		Docs string `json:"docs"`
	}{
		Service: constants.ServiceName,
		Version: s.apiDoc.Version(),
		Docs:    constants.PathDocs,
	}
	index.Observability.Health = constants.PathHealth
	index.Observability.Readiness = constants.PathReady
	index.Observability.Metrics = s.config.Observability.Metrics.Path

	s.sendJSONResponse(w, http.StatusOK, index)
}
