package client

import "time"

// Assignment is the brief submitted for matching.
type Assignment struct {
	Topic             string         `json:"topic"`
	KeyTakeaway        string         `json:"keyTakeaway"`
	AdditionalContext string         `json:"additionalContext"`
	TargetAudience    TargetAudience `json:"targetAudience"`
	CreatorNiches     []string       `json:"creatorNiches"`
	CreatorValues     []string       `json:"creatorValues"`
	ToneStyle         string         `json:"toneStyle,omitempty"`
}

// TargetAudience carries optional locale/demographic hints.
type TargetAudience struct {
	Locale      string `json:"locale,omitempty"`
	Demographic string `json:"demographic,omitempty"`
}

// MatchRequest is the POST /matches request body.
type MatchRequest struct {
	Assignment   Assignment `json:"assignment"`
	AssignmentID string     `json:"assignmentId,omitempty"`
}

// ScoreBreakdown is the per-component contribution to a Match's composite score.
type ScoreBreakdown struct {
	SemanticSimilarity float64 `json:"semanticSimilarity"`
	NicheAlignment     int     `json:"nicheAlignment"`
	AudienceMatch      int     `json:"audienceMatch"`
	ValueAlignment     float64 `json:"valueAlignment"`
	NicheBoost         float64 `json:"nicheBoost"`
}

// Match is a single scored creator.
type Match struct {
	CreatorID      string         `json:"creatorId"`
	Nickname       string         `json:"nickname"`
	MatchScore     float64        `json:"matchScore"`
	ScoreBreakdown ScoreBreakdown `json:"scoreBreakdown"`
	Reasoning      string         `json:"reasoning,omitempty"`
}

// MatchResponse is the POST /matches response body.
type MatchResponse struct {
	Matches    []Match   `json:"matches"`
	Reasoning  string    `json:"reasoning"`
	IsFallback bool      `json:"isFallback"`
	Timestamp  time.Time `json:"timestamp"`
}

// Dependency reports one health dependency's breaker state and recent uptime.
type Dependency struct {
	Name      string  `json:"name"`
	State     string  `json:"state"`
	LastError string  `json:"lastError,omitempty"`
	UptimePct float64 `json:"uptimePct"`
}

// HealthStatus is the GET /health response body.
type HealthStatus struct {
	Status       string       `json:"status"`
	Dependencies []Dependency `json:"dependencies"`
}
