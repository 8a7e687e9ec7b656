package domain

// Candidate is a transient (creatorId, semanticScore) pair emerging from a vector
// query. Created per query and discarded after scoring.
type Candidate struct {
	CreatorID     string
	SemanticScore float64 // cosine, in [-1, 1]
}
