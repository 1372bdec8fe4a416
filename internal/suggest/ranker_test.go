// Tests for the deterministic suggestion ranker.
package suggest

import (
	"math"
	"testing"
	"time"

	"github.com/mesh-intelligence/twine/pkg/types"
)

var rankNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func candidate(id, name string, similarity float64, ageDays int) types.Candidate {
	c := types.Candidate{
		Entity:     types.EntityRef{Type: types.EntityDossier, ID: id},
		Name:       name,
		Similarity: similarity,
	}
	if ageDays >= 0 {
		c.UpdatedAt = rankNow.Add(-time.Duration(ageDays) * 24 * time.Hour)
	}
	return c
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRankSingleCandidate(t *testing.T) {
	ranked := Rank([]types.Candidate{candidate("d1", "Alpha", 0.9, 0)}, rankNow)
	if len(ranked) != 1 {
		t.Fatalf("got %d ranked, want 1", len(ranked))
	}

	rc := ranked[0]
	if !closeTo(rc.RecencyScore, 1) {
		t.Errorf("RecencyScore = %v, want 1", rc.RecencyScore)
	}
	if !closeTo(rc.AlphabeticalScore, 1) {
		t.Errorf("AlphabeticalScore = %v, want 1 for a lone candidate", rc.AlphabeticalScore)
	}
	want := 0.5*0.9 + 0.3*1 + 0.2*1
	if !closeTo(rc.CombinedScore, want) {
		t.Errorf("CombinedScore = %v, want %v", rc.CombinedScore, want)
	}
	if rc.Rank != 1 || rc.SuggestedLinkType != types.LinkPrimary {
		t.Errorf("rank/type = %d/%s, want 1/primary", rc.Rank, rc.SuggestedLinkType)
	}
}

func TestRankDeterministicOrder(t *testing.T) {
	input := []types.Candidate{
		candidate("d-b", "B", 0.9, 10),
		candidate("d-a", "A", 0.9, 10),
	}

	first := Rank(input, rankNow)
	second := Rank(input, rankNow)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("got %d/%d ranked, want 2/2", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("run disagreement at %d: %+v vs %+v", i, first[i], second[i])
		}
	}

	// Same similarity and age; A sorts first alphabetically and takes
	// rank 1 with the primary suggestion.
	if first[0].Name != "A" || first[0].Rank != 1 {
		t.Errorf("rank 1 = %s, want A", first[0].Name)
	}
	if first[0].SuggestedLinkType != types.LinkPrimary {
		t.Errorf("rank 1 type = %s, want primary", first[0].SuggestedLinkType)
	}
	if first[1].SuggestedLinkType != types.LinkRelated {
		t.Errorf("rank 2 type = %s, want related", first[1].SuggestedLinkType)
	}
}

func TestRankMissingTimestampIsWorstCase(t *testing.T) {
	ranked := Rank([]types.Candidate{candidate("d1", "Alpha", 0.8, -1)}, rankNow)
	if !closeTo(ranked[0].RecencyScore, 0) {
		t.Errorf("RecencyScore = %v, want 0 for missing timestamp", ranked[0].RecencyScore)
	}
}

func TestRankRecencyFloor(t *testing.T) {
	ranked := Rank([]types.Candidate{candidate("d1", "Alpha", 0.8, 800)}, rankNow)
	if ranked[0].RecencyScore != 0 {
		t.Errorf("RecencyScore = %v, want clamp to 0", ranked[0].RecencyScore)
	}
}

func TestRankDedupeKeepsBestSimilarity(t *testing.T) {
	ranked := Rank([]types.Candidate{
		candidate("d1", "Alpha", 0.75, 10),
		candidate("d1", "Alpha", 0.92, 10),
		candidate("d2", "Beta", 0.8, 10),
	}, rankNow)
	if len(ranked) != 2 {
		t.Fatalf("got %d ranked, want 2 after dedupe", len(ranked))
	}
	for _, rc := range ranked {
		if rc.Entity.ID == "d1" && !closeTo(rc.AIScore, 0.92) {
			t.Errorf("deduped AIScore = %v, want 0.92", rc.AIScore)
		}
	}
}

func TestRankTieBreakByEntityID(t *testing.T) {
	// Alpha's alphabetical advantage (0.2) exactly cancels Beta's
	// similarity advantage (0.5 * 0.4), so the combined scores tie and
	// entity ID decides the order. Age 365 zeroes the recency term.
	ranked := Rank([]types.Candidate{
		candidate("d-2", "Alpha", 0.5, 365),
		candidate("d-1", "Beta", 0.9, 365),
	}, rankNow)
	if !closeTo(ranked[0].CombinedScore, ranked[1].CombinedScore) {
		t.Fatal("expected a combined-score tie")
	}
	if ranked[0].Entity.ID != "d-1" {
		t.Errorf("tie broken to %s, want d-1", ranked[0].Entity.ID)
	}
}

func TestRankEmpty(t *testing.T) {
	if got := Rank(nil, rankNow); len(got) != 0 {
		t.Errorf("got %d ranked from empty input", len(got))
	}
}
