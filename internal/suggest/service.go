package suggest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mesh-intelligence/twine/internal/lifecycle"
	"github.com/mesh-intelligence/twine/pkg/types"
)

// Service generates ranked suggestions and accepts them into links. The AI
// call runs under a hard timeout; on any failure the caller gets a stable
// unavailability code and falls back to manual search rather than waiting.
type Service struct {
	source  CandidateSource
	manager *lifecycle.Manager
	cache   *cache
	cfg     types.SuggestConfig

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	// now is stubbed in tests.
	now func() time.Time
}

// NewService wires the suggestion service. source may be nil when no AI
// credential is configured; every Generate call then reports the service
// unavailable.
func NewService(source CandidateSource, manager *lifecycle.Manager, cfg types.SuggestConfig) *Service {
	return &Service{
		source:   source,
		manager:  manager,
		cache:    newCache(cfg.CacheTTL),
		cfg:      cfg,
		limiters: make(map[string]*rate.Limiter),
		now:      time.Now,
	}
}

// limiter returns the actor's rate limiter, creating it on first use. The
// burst equals the per-minute allowance so a quiet actor can spend the
// whole budget at once.
func (s *Service) limiter(actorID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limiters[actorID]
	if !ok {
		per := s.cfg.ActorRatePerMin
		if per <= 0 {
			per = types.DefaultActorRatePerMin
		}
		l = rate.NewLimiter(rate.Every(time.Minute/time.Duration(per)), per)
		s.limiters[actorID] = l
	}
	return l
}

// Generate returns ranked suggestions for a container. Repeat requests
// within the cache window are served from cache without touching the rate
// limit or the AI service.
func (s *Service) Generate(ctx context.Context, containerID string, actor types.Actor) (*types.SuggestionSet, error) {
	now := s.now().UTC()

	if set, ok := s.cache.get(containerID, now); ok {
		hit := *set
		hit.CacheHit = true
		return &hit, nil
	}

	if !s.limiter(actor.ID).Allow() {
		return nil, types.NewViolation(types.CodeRateLimited,
			"suggestion rate limit exceeded, try again shortly")
	}

	if s.source == nil {
		return nil, types.NewViolation(types.CodeSuggestionsUnavailable,
			"AI suggestion service is not configured")
	}

	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = types.DefaultSuggestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	candidates, err := s.source.Candidates(ctx, containerID, s.cfg.MaxCandidates)
	if err != nil {
		slog.Warn("suggestion generation failed",
			"container_id", containerID, "error", err)
		return nil, types.NewViolation(types.CodeSuggestionsUnavailable,
			"AI suggestion service is unavailable")
	}

	set := &types.SuggestionSet{
		ContainerID: containerID,
		Suggestions: Rank(candidates, now),
		GeneratedAt: now,
	}
	s.cache.put(containerID, set, now)
	return set, nil
}

// AcceptRequest turns one suggestion into a link.
type AcceptRequest struct {
	Entity      types.EntityRef `json:"entity"`
	LinkType    string          `json:"link_type"`
	Confidence  *float64        `json:"confidence,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	SuggestedBy string          `json:"suggested_by,omitempty"`
}

// Accept creates the suggested link with AI provenance, running the full
// validation policy like any other create. The container's cache entry is
// dropped so the next suggestion run sees the new link.
func (s *Service) Accept(ctx context.Context, containerID string, actor types.Actor, req AcceptRequest) (*types.EntityLink, error) {
	link, err := s.manager.Create(ctx, containerID, actor, lifecycle.CreateRequest{
		Entity:      req.Entity,
		LinkType:    req.LinkType,
		Source:      types.SourceAI,
		Confidence:  req.Confidence,
		Notes:       req.Notes,
		SuggestedBy: req.SuggestedBy,
	})
	if err != nil {
		return nil, err
	}
	s.cache.invalidate(containerID)
	return link, nil
}
