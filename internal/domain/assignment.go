package domain

import "strings"

// TargetAudience describes the optional locale/demographic hints on a brief.
type TargetAudience struct {
	locale      string
	demographic string
}

// NewTargetAudience builds a TargetAudience. Both fields are optional.
func NewTargetAudience(locale, demographic string) TargetAudience {
	return TargetAudience{locale: strings.TrimSpace(locale), demographic: strings.TrimSpace(demographic)}
}

func (a TargetAudience) Locale() string      { return a.locale }
func (a TargetAudience) Demographic() string { return a.demographic }
func (a TargetAudience) HasLocale() bool     { return a.locale != "" }

// Assignment is an immutable brief presented to the match orchestrator for one request.
type Assignment struct {
	topic              string
	keyTakeaway        string
	additionalContext  string
	targetAudience     TargetAudience
	creatorNiches      []string
	creatorValues      []string
	toneStyle          string
}

// NewAssignment validates and constructs an Assignment. topic, keyTakeaway and
// additionalContext are required; everything else is optional.
func NewAssignment(topic, keyTakeaway, additionalContext string, audience TargetAudience, niches, values []string, toneStyle string) (Assignment, error) {
	var fields []string
	if strings.TrimSpace(topic) == "" {
		fields = append(fields, "topic")
	}
	if strings.TrimSpace(keyTakeaway) == "" {
		fields = append(fields, "keyTakeaway")
	}
	if strings.TrimSpace(additionalContext) == "" {
		fields = append(fields, "additionalContext")
	}
	if len(fields) > 0 {
		return Assignment{}, NewValidationError(fields...)
	}

	return Assignment{
		topic:             strings.TrimSpace(topic),
		keyTakeaway:       strings.TrimSpace(keyTakeaway),
		additionalContext: strings.TrimSpace(additionalContext),
		targetAudience:    audience,
		creatorNiches:     dedupFold(niches),
		creatorValues:     dedupFold(values),
		toneStyle:         strings.TrimSpace(toneStyle),
	}, nil
}

// ReconstructAssignment hydrates an Assignment from storage without re-validating.
func ReconstructAssignment(topic, keyTakeaway, additionalContext string, audience TargetAudience, niches, values []string, toneStyle string) Assignment {
	return Assignment{
		topic:             topic,
		keyTakeaway:       keyTakeaway,
		additionalContext: additionalContext,
		targetAudience:    audience,
		creatorNiches:     niches,
		creatorValues:     values,
		toneStyle:         toneStyle,
	}
}

func (a Assignment) Topic() string               { return a.topic }
func (a Assignment) KeyTakeaway() string         { return a.keyTakeaway }
func (a Assignment) AdditionalContext() string   { return a.additionalContext }
func (a Assignment) TargetAudience() TargetAudience { return a.targetAudience }
func (a Assignment) CreatorNiches() []string     { return a.creatorNiches }
func (a Assignment) CreatorValues() []string     { return a.creatorValues }
func (a Assignment) ToneStyle() string           { return a.toneStyle }

// BriefText composes the text submitted for embedding: topic, key takeaway and
// additional context joined with single spaces, per the description-only
// default for brief-text composition. toneStyle is not included.
func (a Assignment) BriefText() string {
	return strings.Join([]string{a.topic, a.keyTakeaway, a.additionalContext}, " ")
}

// dedupFold lowercases and de-duplicates a tag set, preserving first-seen order.
func dedupFold(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
