// Package suggest produces ranked link suggestions for a container: an AI
// candidate source proposes similarity-scored entities, the ranker blends
// that score with deterministic recency and alphabetical components, and
// the service wraps it all in caching, per-actor rate limiting, and a hard
// timeout with a degraded fallback.
package suggest

import (
	"fmt"
	"sort"
	"time"

	"github.com/mesh-intelligence/twine/pkg/types"
)

// Score weights. Similarity dominates; recency and alphabetical ordering
// are tie-breakers folded into the score itself.
const (
	weightAI           = 0.5
	weightRecency      = 0.3
	weightAlphabetical = 0.2
)

// recencyWindowDays is the age at which the recency score bottoms out.
// Candidates with no timestamp are treated as this old.
const recencyWindowDays = 365

// Rank scores and orders candidates. The result is deterministic for a
// fixed now: candidates are deduplicated by entity reference (best
// similarity wins), scored, sorted descending by combined score with entity
// ID as the tie-break, and assigned ranks from 1. The rank-1 candidate is
// suggested as the primary link; the rest default to related.
func Rank(candidates []types.Candidate, now time.Time) []types.RankedCandidate {
	deduped := dedupe(candidates)
	if len(deduped) == 0 {
		return []types.RankedCandidate{}
	}

	alpha := alphabeticalScores(deduped)

	ranked := make([]types.RankedCandidate, len(deduped))
	for i, c := range deduped {
		rc := types.RankedCandidate{
			Entity:            c.Entity,
			Name:              c.Name,
			AIScore:           c.Similarity,
			RecencyScore:      recencyScore(c.UpdatedAt, now),
			AlphabeticalScore: alpha[i],
		}
		rc.CombinedScore = weightAI*rc.AIScore +
			weightRecency*rc.RecencyScore +
			weightAlphabetical*rc.AlphabeticalScore
		ranked[i] = rc
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].CombinedScore != ranked[j].CombinedScore {
			return ranked[i].CombinedScore > ranked[j].CombinedScore
		}
		return ranked[i].Entity.ID < ranked[j].Entity.ID
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
		if i == 0 {
			ranked[i].SuggestedLinkType = types.LinkPrimary
		} else {
			ranked[i].SuggestedLinkType = types.LinkRelated
		}
		ranked[i].Reasoning = reasoning(ranked[i])
	}
	return ranked
}

// dedupe keeps one candidate per entity reference, preferring the highest
// similarity. Input order is preserved for the survivors.
func dedupe(candidates []types.Candidate) []types.Candidate {
	index := make(map[types.EntityRef]int, len(candidates))
	out := make([]types.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if i, ok := index[c.Entity]; ok {
			if c.Similarity > out[i].Similarity {
				out[i] = c
			}
			continue
		}
		index[c.Entity] = len(out)
		out = append(out, c)
	}
	return out
}

// recencyScore decays linearly from 1 at age zero to 0 at the window edge.
func recencyScore(updatedAt, now time.Time) float64 {
	ageDays := float64(recencyWindowDays)
	if !updatedAt.IsZero() {
		ageDays = now.Sub(updatedAt).Hours() / 24
	}
	score := 1 - ageDays/recencyWindowDays
	if score < 0 {
		return 0
	}
	return score
}

// alphabeticalScores assigns 1 - rank/(N-1) by ascending name sort, aligned
// to the input slice. A single candidate scores 1.
func alphabeticalScores(candidates []types.Candidate) []float64 {
	n := len(candidates)
	scores := make([]float64, n)
	if n == 1 {
		scores[0] = 1
		return scores
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return candidates[order[a]].Name < candidates[order[b]].Name
	})
	for rank, i := range order {
		scores[i] = 1 - float64(rank)/float64(n-1)
	}
	return scores
}

func reasoning(rc types.RankedCandidate) string {
	return fmt.Sprintf("similarity %.2f, recency %.2f, combined %.2f",
		rc.AIScore, rc.RecencyScore, rc.CombinedScore)
}
