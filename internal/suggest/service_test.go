// Tests for the suggestion service: caching, rate limiting, fallback, and
// acceptance into links.
package suggest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mesh-intelligence/twine/internal/lifecycle"
	"github.com/mesh-intelligence/twine/internal/sqlite"
	"github.com/mesh-intelligence/twine/pkg/types"
)

// fakeSource returns canned candidates and counts calls.
type fakeSource struct {
	candidates []types.Candidate
	err        error
	calls      int
}

func (f *fakeSource) Candidates(ctx context.Context, containerID string, limit int) ([]types.Candidate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

type nullSink struct{}

func (nullSink) Record(*types.AuditRecord) {}

func newTestService(t *testing.T, source CandidateSource, cfg types.SuggestConfig) *Service {
	t.Helper()
	s, err := sqlite.Open(types.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	ref := types.EntityRef{Type: types.EntityDossier, ID: "d1"}
	if err := s.UpsertEntity(ctx, ref, "Nordic Fisheries", false, 0, "org-1"); err != nil {
		t.Fatalf("UpsertEntity failed: %v", err)
	}

	return NewService(source, lifecycle.NewManager(s, nullSink{}), cfg)
}

var suggestActor = types.Actor{ID: "analyst-1", Clearance: 2, OrganizationID: "org-1"}

func TestGenerateRanksAndCaches(t *testing.T) {
	source := &fakeSource{candidates: []types.Candidate{
		{Entity: types.EntityRef{Type: types.EntityDossier, ID: "d1"}, Name: "Nordic Fisheries", Similarity: 0.9},
	}}
	svc := newTestService(t, source, types.SuggestConfig{CacheTTL: time.Minute, ActorRatePerMin: 100})

	first, err := svc.Generate(context.Background(), "t1", suggestActor)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if first.CacheHit {
		t.Error("first call reported a cache hit")
	}
	if len(first.Suggestions) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(first.Suggestions))
	}
	if first.Suggestions[0].SuggestedLinkType != types.LinkPrimary {
		t.Errorf("rank 1 type = %s, want primary", first.Suggestions[0].SuggestedLinkType)
	}

	second, err := svc.Generate(context.Background(), "t1", suggestActor)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !second.CacheHit {
		t.Error("second call missed the cache")
	}
	if source.calls != 1 {
		t.Errorf("source called %d times, want 1", source.calls)
	}
}

func TestGenerateCachedSetIsolatedFromCallers(t *testing.T) {
	source := &fakeSource{candidates: []types.Candidate{
		{Entity: types.EntityRef{Type: types.EntityDossier, ID: "d1"}, Name: "Nordic Fisheries", Similarity: 0.9},
	}}
	svc := newTestService(t, source, types.SuggestConfig{CacheTTL: time.Minute, ActorRatePerMin: 100})
	ctx := context.Background()

	first, err := svc.Generate(ctx, "t1", suggestActor)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	// Scribbling on the returned set must not reach the cached copy.
	first.Suggestions[0].Rank = 99
	first.Suggestions[0].Name = "Mangled"

	second, err := svc.Generate(ctx, "t1", suggestActor)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !second.CacheHit {
		t.Fatal("second call missed the cache")
	}
	if second.Suggestions[0].Rank != 1 || second.Suggestions[0].Name != "Nordic Fisheries" {
		t.Errorf("cached suggestion mutated: %+v", second.Suggestions[0])
	}

	// Same for mutations after a cache hit.
	second.Suggestions[0].Rank = 99
	third, err := svc.Generate(ctx, "t1", suggestActor)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if third.Suggestions[0].Rank != 1 {
		t.Errorf("cache hit mutated by earlier caller: %+v", third.Suggestions[0])
	}
	if source.calls != 1 {
		t.Errorf("source called %d times, want 1", source.calls)
	}
}

func TestGenerateRateLimited(t *testing.T) {
	source := &fakeSource{}
	svc := newTestService(t, source, types.SuggestConfig{ActorRatePerMin: 1})

	if _, err := svc.Generate(context.Background(), "t1", suggestActor); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	// Cache is disabled (zero TTL), so the second call hits the limiter.
	_, err := svc.Generate(context.Background(), "t2", suggestActor)
	if got := types.ReasonCode(err); got != types.CodeRateLimited {
		t.Errorf("reason code = %q, want %q", got, types.CodeRateLimited)
	}

	// A different actor has their own budget.
	other := types.Actor{ID: "analyst-2", Clearance: 2, OrganizationID: "org-1"}
	if _, err := svc.Generate(context.Background(), "t3", other); err != nil {
		t.Errorf("other actor was limited: %v", err)
	}
}

func TestGenerateSourceFailure(t *testing.T) {
	source := &fakeSource{err: errors.New("upstream timeout")}
	svc := newTestService(t, source, types.SuggestConfig{ActorRatePerMin: 100})

	_, err := svc.Generate(context.Background(), "t1", suggestActor)
	if got := types.ReasonCode(err); got != types.CodeSuggestionsUnavailable {
		t.Errorf("reason code = %q, want %q", got, types.CodeSuggestionsUnavailable)
	}
}

func TestGenerateNoSource(t *testing.T) {
	svc := newTestService(t, nil, types.SuggestConfig{ActorRatePerMin: 100})

	_, err := svc.Generate(context.Background(), "t1", suggestActor)
	if got := types.ReasonCode(err); got != types.CodeSuggestionsUnavailable {
		t.Errorf("reason code = %q, want %q", got, types.CodeSuggestionsUnavailable)
	}
}

func TestAcceptCreatesAILink(t *testing.T) {
	source := &fakeSource{candidates: []types.Candidate{
		{Entity: types.EntityRef{Type: types.EntityDossier, ID: "d1"}, Name: "Nordic Fisheries", Similarity: 0.9},
	}}
	svc := newTestService(t, source, types.SuggestConfig{CacheTTL: time.Minute, ActorRatePerMin: 100})

	// Warm the cache, then accept; acceptance must invalidate it.
	if _, err := svc.Generate(context.Background(), "t1", suggestActor); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	conf := 0.9
	link, err := svc.Accept(context.Background(), "t1", suggestActor, AcceptRequest{
		Entity:     types.EntityRef{Type: types.EntityDossier, ID: "d1"},
		LinkType:   types.LinkRelated,
		Confidence: &conf,
	})
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if link.Source != types.SourceAI {
		t.Errorf("Source = %q, want ai", link.Source)
	}
	if link.Confidence == nil || *link.Confidence != 0.9 {
		t.Error("confidence not carried onto the link")
	}

	after, err := svc.Generate(context.Background(), "t1", suggestActor)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if after.CacheHit {
		t.Error("acceptance did not invalidate the cache")
	}
	if source.calls != 2 {
		t.Errorf("source called %d times, want 2", source.calls)
	}
}

func TestAcceptRejectsInvalidLink(t *testing.T) {
	svc := newTestService(t, &fakeSource{}, types.SuggestConfig{ActorRatePerMin: 100})

	_, err := svc.Accept(context.Background(), "t1", suggestActor, AcceptRequest{
		Entity:   types.EntityRef{Type: types.EntityDossier, ID: "no-such"},
		LinkType: types.LinkRelated,
	})
	if got := types.ReasonCode(err); got != types.CodeEntityNotFound {
		t.Errorf("reason code = %q, want %q", got, types.CodeEntityNotFound)
	}
}
