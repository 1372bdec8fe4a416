package types

import "time"

// Candidate is one similarity-scored entity entering the ranking engine.
// Retrieval guarantees Similarity >= the retrieval floor; UpdatedAt may be
// zero when the source record carries no timestamp.
type Candidate struct {
	Entity     EntityRef
	Name       string
	Similarity float64
	UpdatedAt  time.Time
}

// RankedCandidate is a candidate after scoring. It exists only for the
// duration of one suggestion request and its short-lived cache entry.
type RankedCandidate struct {
	Entity            EntityRef `json:"entity"`
	Name              string    `json:"name"`
	AIScore           float64   `json:"ai_score"`
	RecencyScore      float64   `json:"recency_score"`
	AlphabeticalScore float64   `json:"alphabetical_score"`
	CombinedScore     float64   `json:"combined_score"`
	Rank              int       `json:"rank"`
	SuggestedLinkType string    `json:"suggested_link_type"`
	Reasoning         string    `json:"reasoning,omitempty"`
}

// SuggestionSet is the response of one suggestion run.
type SuggestionSet struct {
	ContainerID string            `json:"container_id"`
	Suggestions []RankedCandidate `json:"suggestions"`
	GeneratedAt time.Time         `json:"generated_at"`
	CacheHit    bool              `json:"cache_hit"`
}
