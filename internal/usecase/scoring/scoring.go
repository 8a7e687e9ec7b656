// Package scoring implements the pure match-scoring and ranking functions. No I/O, no
// clocks, no randomness — a deterministic function of (assignment, creator, semanticScore).
package scoring

import (
	"math"
	"strings"

	"github.com/kailas-cloud/creatormatch/internal/domain"
)

// Weights holds the composite-score coefficients from §9's scoring profile.
// The four weights need not sum to 1: the niche boost multiplier can push
// matchScore above the weighted base, so the result is always clamped to [0,1].
type Weights struct {
	Semantic float64
	Niche    float64
	Audience float64
	Value    float64
}

// DefaultWeights returns the 0.7/0.2/0.05/0.05 profile.
func DefaultWeights() Weights {
	return Weights{Semantic: 0.7, Niche: 0.2, Audience: 0.05, Value: 0.05}
}

// Score computes a Match from an assignment, a creator and a raw cosine semantic
// score, using the default weight profile. semanticScore outside [-1,1] is
// clamped to that range; a non-finite one is treated as neutral (cosine 0).
func Score(assignment domain.Assignment, creator domain.Creator, semanticScore float64) domain.Match {
	return ScoreWithWeights(assignment, creator, semanticScore, DefaultWeights())
}

// ScoreWithWeights is Score with an explicit, configurable weight profile.
func ScoreWithWeights(assignment domain.Assignment, creator domain.Creator, semanticScore float64, weights Weights) domain.Match {
	if math.IsNaN(semanticScore) || math.IsInf(semanticScore, 0) {
		semanticScore = 0
	}
	semanticScore = clamp(semanticScore, -1, 1)

	semanticSim := clamp((semanticScore+1)/2, 0, 1)

	niches := foldSet(assignment.CreatorNiches())
	nicheAlignment := countMatches(niches, creator.Analysis().AllNiches())

	audienceMatch := 0
	if assignment.TargetAudience().HasLocale() &&
		foldEqual(assignment.TargetAudience().Locale(), creator.Region()) {
		audienceMatch = 1
	}

	values := foldSet(assignment.CreatorValues())
	valueAlignment := 0.0
	if len(values) > 0 {
		matched := countMatches(values, creator.Analysis().ApparentValues())
		valueAlignment = float64(matched) / float64(len(values))
	}

	nicheDenom := len(niches)
	if nicheDenom < 1 {
		nicheDenom = 1
	}
	nicheMatchRatio := float64(nicheAlignment) / float64(nicheDenom)
	nicheBoost := math.Sqrt(nicheMatchRatio)

	base := weights.Semantic*semanticSim +
		weights.Niche*nicheMatchRatio +
		weights.Audience*float64(audienceMatch) +
		weights.Value*valueAlignment

	matchScore := clamp(base*(1+nicheBoost), 0, 1)

	breakdown := domain.ScoreBreakdown{
		SemanticSimilarity: round4(semanticSim),
		NicheAlignment:     nicheAlignment,
		AudienceMatch:      audienceMatch,
		ValueAlignment:     round4(valueAlignment),
		NicheBoost:         round4(nicheBoost),
	}

	return domain.Match{
		Creator:        creator,
		MatchScore:     round4(matchScore),
		ScoreBreakdown: breakdown,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func foldSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[foldTag(t)] = struct{}{}
	}
	return set
}

func foldTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

func foldEqual(a, b string) bool {
	return foldTag(a) == foldTag(b)
}

// countMatches counts distinct tags in needles present in haystack, case-folded.
func countMatches(needles map[string]struct{}, haystack []string) int {
	if len(needles) == 0 {
		return 0
	}
	hay := make(map[string]struct{}, len(haystack))
	for _, h := range haystack {
		hay[foldTag(h)] = struct{}{}
	}
	count := 0
	for n := range needles {
		if _, ok := hay[n]; ok {
			count++
		}
	}
	return count
}
