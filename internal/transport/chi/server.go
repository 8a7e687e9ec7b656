// Package chi implements the HTTP transport: POST /matches, GET /health and
// GET /metrics, grounded on the teacher's error-handler-chain pattern
// (sentinelHandler mapping errors.Is against the domain taxonomy to HTTP
// status + JSON body).
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/creatormatch/internal/domain"
	"github.com/kailas-cloud/creatormatch/internal/usecase/health"
	"github.com/kailas-cloud/creatormatch/internal/usecase/match"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements the creatormatch HTTP API.
type Server struct {
	matcher       *match.Service
	health        *health.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(matcher *match.Service, healthSvc *health.Service, logger *zap.Logger) *Server {
	s := &Server{matcher: matcher, health: healthSvc, logger: logger}
	s.errorHandlers = []errorHandler{
		validationErrorHandler,
		sentinelHandler(domain.ErrThrottled, http.StatusTooManyRequests, "throttled"),
		sentinelHandler(domain.ErrCircuitOpen, http.StatusServiceUnavailable, "circuit_open"),
		sentinelHandler(domain.ErrDeadlineExceeded, http.StatusGatewayTimeout, "deadline_exceeded"),
		sentinelHandler(domain.ErrDependencyUnavailable, http.StatusBadGateway, "dependency_unavailable"),
		sentinelHandler(domain.ErrConfigInvalid, http.StatusUnprocessableEntity, "config_invalid"),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, "not_found"),
	}
	return s
}

// matchRequestBody is the POST /matches request body per §6.
type matchRequestBody struct {
	Assignment   assignmentBody `json:"assignment"`
	AssignmentID string         `json:"assignmentId,omitempty"`
}

type targetAudienceBody struct {
	Locale      string `json:"locale,omitempty"`
	Demographic string `json:"demographic,omitempty"`
}

type assignmentBody struct {
	Topic             string             `json:"topic"`
	KeyTakeaway       string             `json:"keyTakeaway"`
	AdditionalContext string             `json:"additionalContext"`
	TargetAudience    targetAudienceBody `json:"targetAudience"`
	CreatorNiches     []string           `json:"creatorNiches"`
	CreatorValues     []string           `json:"creatorValues"`
	ToneStyle         string             `json:"toneStyle,omitempty"`
}

func (b assignmentBody) toDomain() (domain.Assignment, error) {
	audience := domain.NewTargetAudience(b.TargetAudience.Locale, b.TargetAudience.Demographic)
	return domain.NewAssignment(b.Topic, b.KeyTakeaway, b.AdditionalContext, audience, b.CreatorNiches, b.CreatorValues, b.ToneStyle)
}

type scoreBreakdownBody struct {
	SemanticSimilarity float64 `json:"semanticSimilarity"`
	NicheAlignment     int     `json:"nicheAlignment"`
	AudienceMatch      int     `json:"audienceMatch"`
	ValueAlignment     float64 `json:"valueAlignment"`
	NicheBoost         float64 `json:"nicheBoost"`
}

type matchBody struct {
	CreatorID      string             `json:"creatorId"`
	Nickname       string             `json:"nickname"`
	MatchScore     float64            `json:"matchScore"`
	ScoreBreakdown scoreBreakdownBody `json:"scoreBreakdown"`
	Reasoning      string             `json:"reasoning,omitempty"`
}

type matchResponseBody struct {
	Matches    []matchBody `json:"matches"`
	Reasoning  string      `json:"reasoning"`
	IsFallback bool        `json:"isFallback"`
	Timestamp  string      `json:"timestamp"`
}

func matchResponseToBody(resp domain.MatchResponse) matchResponseBody {
	matches := make([]matchBody, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, matchBody{
			CreatorID:  m.Creator.ID(),
			Nickname:   m.Creator.Nickname(),
			MatchScore: m.MatchScore,
			ScoreBreakdown: scoreBreakdownBody{
				SemanticSimilarity: m.ScoreBreakdown.SemanticSimilarity,
				NicheAlignment:     m.ScoreBreakdown.NicheAlignment,
				AudienceMatch:      m.ScoreBreakdown.AudienceMatch,
				ValueAlignment:     m.ScoreBreakdown.ValueAlignment,
				NicheBoost:         m.ScoreBreakdown.NicheBoost,
			},
			Reasoning: m.Reasoning,
		})
	}
	return matchResponseBody{
		Matches:    matches,
		Reasoning:  resp.Reasoning,
		IsFallback: resp.IsFallback,
		Timestamp:  resp.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

// Matches handles POST /matches.
func (s *Server) Matches(w http.ResponseWriter, r *http.Request) {
	var body matchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}

	assignment, err := body.Assignment.toDomain()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.matcher.Match(r.Context(), match.MatchRequest{Assignment: assignment, AssignmentID: body.AssignmentID})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, matchResponseToBody(resp))
}

type dependencyBody struct {
	Name      string  `json:"name"`
	State     string  `json:"state"`
	LastError string  `json:"lastError,omitempty"`
	UptimePct float64 `json:"uptimePct"`
}

type healthBody struct {
	Status       string           `json:"status"`
	Dependencies []dependencyBody `json:"dependencies"`
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	deps := make([]dependencyBody, 0, len(report.Dependencies))
	for _, d := range report.Dependencies {
		deps = append(deps, dependencyBody{
			Name:      d.Name,
			State:     d.State.String(),
			LastError: d.LastError,
			UptimePct: d.UptimeFraction * 100,
		})
	}

	httpStatus := http.StatusOK
	switch report.Status {
	case health.Degraded:
		httpStatus = http.StatusOK
	case health.Critical:
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthBody{Status: string(report.Status), Dependencies: deps})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationErrorHandler handles domain.ValidationError with its offending field list.
func validationErrorHandler(w http.ResponseWriter, err error, _ string) bool {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"code":   "validation_error",
		"fields": ve.Fields,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("request error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err, err.Error()) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
