package scoring

import (
	"math"
	"sort"

	"github.com/kailas-cloud/creatormatch/internal/domain"
)

const (
	semanticSimEpsilon = 0.01
	matchScoreEpsilon  = 0.001
)

// Rank sorts matches into the canonical total order: descending by niche alignment,
// then semantic similarity (within epsilon), then match score (within epsilon), then
// engagement ratio, then follower count. Ties preserve input order (stable sort).
func Rank(matches []domain.Match) []domain.Match {
	if len(matches) == 0 {
		return matches
	}

	ranked := make([]domain.Match, len(matches))
	copy(ranked, matches)

	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[i], ranked[j])
	})
	return ranked
}

// less reports whether a should sort before b under the canonical order.
func less(a, b domain.Match) bool {
	if a.ScoreBreakdown.NicheAlignment != b.ScoreBreakdown.NicheAlignment {
		return a.ScoreBreakdown.NicheAlignment > b.ScoreBreakdown.NicheAlignment
	}

	if !approxEqual(a.ScoreBreakdown.SemanticSimilarity, b.ScoreBreakdown.SemanticSimilarity, semanticSimEpsilon) {
		return a.ScoreBreakdown.SemanticSimilarity > b.ScoreBreakdown.SemanticSimilarity
	}

	if !approxEqual(a.MatchScore, b.MatchScore, matchScoreEpsilon) {
		return a.MatchScore > b.MatchScore
	}

	aRatio := a.Creator.EngagementRatio()
	bRatio := b.Creator.EngagementRatio()
	if aRatio != bRatio {
		return aRatio > bRatio
	}

	return a.Creator.FollowerCount() > b.Creator.FollowerCount()
}

func approxEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}
