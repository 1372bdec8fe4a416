package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mesh-intelligence/twine/pkg/types"
)

// similarityFloor is the retrieval cutoff: candidates scored below it never
// reach the ranker.
const similarityFloor = 0.70

// ErrNoAPIKey is returned by NewOpenAISource when the environment carries
// no OpenAI credential.
var ErrNoAPIKey = errors.New("OPENAI_API_KEY is not set")

// CandidateSource proposes similarity-scored entities for a container.
type CandidateSource interface {
	Candidates(ctx context.Context, containerID string, limit int) ([]types.Candidate, error)
}

// Catalog is the read surface the OpenAI source needs from the store: the
// container being linked and the roster of linkable entities.
type Catalog interface {
	ContainerTitle(ctx context.Context, containerID string) (string, error)
	EntityRoster(ctx context.Context, limit int) ([]types.Candidate, error)
}

// chatClient is the slice of the OpenAI client used here, extracted so
// tests can substitute a fake.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAISource scores roster entities against a container via a chat
// completion that returns strict JSON.
type OpenAISource struct {
	client  chatClient
	model   string
	catalog Catalog
}

// NewOpenAISource builds a source authenticated from the OPENAI_API_KEY
// environment variable. The key is never read from config files.
func NewOpenAISource(model string, catalog Catalog) (*OpenAISource, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, ErrNoAPIKey
	}
	return &OpenAISource{
		client:  openai.NewClient(key),
		model:   model,
		catalog: catalog,
	}, nil
}

const systemPrompt = `You match intake tickets to records in a case-management system.
Given a ticket title and a roster of records, score how related each record is to the ticket on a 0.0-1.0 scale.
Respond with JSON only: {"candidates":[{"entity_type":"...","entity_id":"...","similarity":0.0}]}.
Include only records with similarity of at least 0.7. Do not invent records that are not in the roster.`

// rosterPayload is the request shape sent to the model.
type rosterPayload struct {
	TicketTitle string        `json:"ticket_title"`
	Roster      []rosterEntry `json:"roster"`
}

type rosterEntry struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Name       string `json:"name"`
}

// scoredEntry is one candidate in the model's response.
type scoredEntry struct {
	EntityType string  `json:"entity_type"`
	EntityID   string  `json:"entity_id"`
	Similarity float64 `json:"similarity"`
}

// Candidates sends the container title and the entity roster to the model
// and joins the scored response back against the roster. Entities the model
// invents, duplicates, or scores below the retrieval floor are dropped.
func (s *OpenAISource) Candidates(ctx context.Context, containerID string, limit int) ([]types.Candidate, error) {
	title, err := s.catalog.ContainerTitle(ctx, containerID)
	if err != nil {
		return nil, fmt.Errorf("resolving container %s: %w", containerID, err)
	}
	roster, err := s.catalog.EntityRoster(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("loading entity roster: %w", err)
	}
	if len(roster) == 0 {
		return []types.Candidate{}, nil
	}

	payload := rosterPayload{TicketTitle: title, Roster: make([]rosterEntry, len(roster))}
	byRef := make(map[types.EntityRef]types.Candidate, len(roster))
	for i, c := range roster {
		payload.Roster[i] = rosterEntry{EntityType: c.Entity.Type, EntityID: c.Entity.ID, Name: c.Name}
		byRef[c.Entity] = c
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding roster: %w", err)
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(body)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	var parsed struct {
		Candidates []scoredEntry `json:"candidates"`
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("decoding model response: %w", err)
	}

	out := []types.Candidate{}
	seen := map[types.EntityRef]bool{}
	for _, e := range parsed.Candidates {
		ref := types.EntityRef{Type: e.EntityType, ID: e.EntityID}
		known, ok := byRef[ref]
		if !ok || seen[ref] || e.Similarity < similarityFloor {
			continue
		}
		seen[ref] = true
		known.Similarity = e.Similarity
		out = append(out, known)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
