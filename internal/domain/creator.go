package domain

import "strings"

// EngagementStyle captures the tone tags an analysis pass assigned to a creator.
type EngagementStyle struct {
	tone []string
}

// NewEngagementStyle builds an EngagementStyle from a set of tone tags.
func NewEngagementStyle(tone []string) EngagementStyle {
	return EngagementStyle{tone: dedupFold(tone)}
}

func (e EngagementStyle) Tone() []string { return e.tone }

// Analysis is the derived-metadata block attached to a catalog creator.
type Analysis struct {
	primaryNiches      []string
	secondaryNiches    []string
	apparentValues     []string
	audienceInterests  []string
	engagementStyle    EngagementStyle
	summary            string
}

// NewAnalysis validates and constructs an Analysis. primaryNiches must be non-empty.
func NewAnalysis(primaryNiches, secondaryNiches, apparentValues, audienceInterests []string, style EngagementStyle, summary string) (Analysis, error) {
	primary := dedupFold(primaryNiches)
	if len(primary) == 0 {
		return Analysis{}, NewValidationError("analysis.primaryNiches")
	}
	return Analysis{
		primaryNiches:     primary,
		secondaryNiches:   dedupFold(secondaryNiches),
		apparentValues:    dedupFold(apparentValues),
		audienceInterests: dedupFold(audienceInterests),
		engagementStyle:   style,
		summary:           strings.TrimSpace(summary),
	}, nil
}

// ReconstructAnalysis hydrates an Analysis from storage without re-validating.
func ReconstructAnalysis(primaryNiches, secondaryNiches, apparentValues, audienceInterests []string, style EngagementStyle, summary string) Analysis {
	return Analysis{
		primaryNiches:     primaryNiches,
		secondaryNiches:   secondaryNiches,
		apparentValues:    apparentValues,
		audienceInterests: audienceInterests,
		engagementStyle:   style,
		summary:           summary,
	}
}

func (a Analysis) PrimaryNiches() []string       { return a.primaryNiches }
func (a Analysis) SecondaryNiches() []string     { return a.secondaryNiches }
func (a Analysis) ApparentValues() []string      { return a.apparentValues }
func (a Analysis) AudienceInterests() []string   { return a.audienceInterests }
func (a Analysis) EngagementStyle() EngagementStyle { return a.engagementStyle }
func (a Analysis) Summary() string               { return a.summary }

// AllNiches returns the union of primary and secondary niches, as used by scoring.
func (a Analysis) AllNiches() []string {
	out := make([]string, 0, len(a.primaryNiches)+len(a.secondaryNiches))
	out = append(out, a.primaryNiches...)
	out = append(out, a.secondaryNiches...)
	return out
}

// Creator is a catalog entry: a TikTok-style creator profile with derived analysis.
type Creator struct {
	id            string
	nickname      string
	bio           string
	followerCount int
	heartCount    int
	hasHeartCount bool
	region        string
	analysis      Analysis
}

// NewCreator validates and constructs a Creator. id and analysis.primaryNiches are
// required; followerCount and heartCount must be non-negative.
func NewCreator(id, nickname, bio string, followerCount int, heartCount int, hasHeartCount bool, region string, analysis Analysis) (Creator, error) {
	var fields []string
	if strings.TrimSpace(id) == "" {
		fields = append(fields, "id")
	}
	if followerCount < 0 {
		fields = append(fields, "followerCount")
	}
	if hasHeartCount && heartCount < 0 {
		fields = append(fields, "heartCount")
	}
	if len(analysis.primaryNiches) == 0 {
		fields = append(fields, "analysis.primaryNiches")
	}
	if len(fields) > 0 {
		return Creator{}, NewValidationError(fields...)
	}

	return Creator{
		id:            strings.TrimSpace(id),
		nickname:      nickname,
		bio:           bio,
		followerCount: followerCount,
		heartCount:    heartCount,
		hasHeartCount: hasHeartCount,
		region:        strings.ToLower(strings.TrimSpace(region)),
		analysis:      analysis,
	}, nil
}

// ReconstructCreator hydrates a Creator from storage without re-validating.
func ReconstructCreator(id, nickname, bio string, followerCount, heartCount int, hasHeartCount bool, region string, analysis Analysis) Creator {
	return Creator{
		id:            id,
		nickname:      nickname,
		bio:           bio,
		followerCount: followerCount,
		heartCount:    heartCount,
		hasHeartCount: hasHeartCount,
		region:        region,
		analysis:      analysis,
	}
}

func (c Creator) ID() string            { return c.id }
func (c Creator) Nickname() string      { return c.nickname }
func (c Creator) Bio() string           { return c.bio }
func (c Creator) FollowerCount() int    { return c.followerCount }
func (c Creator) HeartCount() int       { return c.heartCount }
func (c Creator) HasHeartCount() bool   { return c.hasHeartCount }
func (c Creator) Region() string        { return c.region }
func (c Creator) Analysis() Analysis    { return c.analysis }

// EngagementRatio computes heartCount / max(1, followerCount), the tie-break key
// used by the ranker.
func (c Creator) EngagementRatio() float64 {
	denom := c.followerCount
	if denom < 1 {
		denom = 1
	}
	return float64(c.heartCount) / float64(denom)
}
