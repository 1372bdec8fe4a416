// Package lifecycle orchestrates link mutations: create, batch create,
// update, soft delete, restore, and reorder. Every write path runs the
// validation policy against gateway metadata before touching storage, holds
// the version contract for concurrent editors, and emits an audit record
// after the primary write commits.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/mesh-intelligence/twine/internal/audit"
	"github.com/mesh-intelligence/twine/internal/policy"
	"github.com/mesh-intelligence/twine/pkg/types"
)

// maxBatchSize bounds one batch create request.
const maxBatchSize = 50

// Sink receives audit records without blocking. The audit package's
// Recorder is the production implementation.
type Sink interface {
	Record(rec *types.AuditRecord)
}

// Manager is the link lifecycle orchestrator.
type Manager struct {
	store types.LinkStore
	sink  Sink
}

// NewManager wires a manager to its store and audit sink.
func NewManager(store types.LinkStore, sink Sink) *Manager {
	return &Manager{store: store, sink: sink}
}

// CreateRequest describes one link to create. LinkOrder 0 means append
// after the container's highest ordinal. Source defaults to human.
type CreateRequest struct {
	Entity      types.EntityRef `json:"entity"`
	LinkType    string          `json:"link_type"`
	Source      string          `json:"source,omitempty"`
	Confidence  *float64        `json:"confidence,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	LinkOrder   int             `json:"link_order,omitempty"`
	SuggestedBy string          `json:"suggested_by,omitempty"`
}

// Create validates one link request and inserts it with version 1. Checks
// run in a fixed order and the first violation wins: type compatibility,
// entity existence and archived state, clearance, organization, uniqueness,
// then field limits.
func (m *Manager) Create(ctx context.Context, containerID string, actor types.Actor, req CreateRequest) (*types.EntityLink, error) {
	link, err := m.validate(ctx, containerID, actor, req)
	if err != nil {
		return nil, err
	}

	if link.LinkOrder <= 0 {
		max, err := m.store.MaxLinkOrder(ctx, containerID)
		if err != nil {
			return nil, fmt.Errorf("next ordinal for container %s: %w", containerID, err)
		}
		link.LinkOrder = max + 1
	}

	if err := m.store.CreateLink(ctx, link); err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}

	m.sink.Record(audit.NewRecord(types.AuditCreated, link, actor.ID, audit.SnapshotPayload(link)))
	return link, nil
}

// validate runs the policy chain for a create request and returns the link
// ready for insertion.
func (m *Manager) validate(ctx context.Context, containerID string, actor types.Actor, req CreateRequest) (*types.EntityLink, error) {
	source := req.Source
	if source == "" {
		source = types.SourceHuman
	}
	if !types.ValidSource(source) {
		return nil, &types.Violation{
			Code: types.CodeValidationError, Field: "source",
			Message: "unknown source " + source,
		}
	}
	if v := policy.CheckLinkType(req.Entity.Type, req.LinkType); v != nil {
		return nil, v
	}

	meta := m.store.EntityMeta(ctx, req.Entity)
	if v := policy.CheckEntity(req.Entity, meta); v != nil {
		return nil, v
	}
	if v := policy.CheckClearance(meta, actor); v != nil {
		return nil, v
	}
	if v := policy.CheckOrganization(meta, actor); v != nil {
		return nil, v
	}

	if req.LinkType == types.LinkPrimary || req.LinkType == types.LinkAssignedTo {
		hasActive, err := m.store.HasActiveLink(ctx, containerID, req.LinkType)
		if err != nil {
			return nil, fmt.Errorf("uniqueness lookup for container %s: %w", containerID, err)
		}
		if v := policy.CheckUniqueness(req.LinkType, hasActive); v != nil {
			return nil, v
		}
	}

	if v := policy.CheckNotes(req.Notes); v != nil {
		return nil, v
	}
	if v := policy.CheckConfidence(req.Confidence); v != nil {
		return nil, v
	}

	return &types.EntityLink{
		ContainerID: containerID,
		Entity:      req.Entity,
		LinkType:    req.LinkType,
		Source:      source,
		Confidence:  req.Confidence,
		Notes:       req.Notes,
		LinkOrder:   req.LinkOrder,
		LinkedBy:    actor.ID,
		SuggestedBy: req.SuggestedBy,
	}, nil
}

// BatchFailure reports one rejected request within a batch, addressed by
// its position in the request slice.
type BatchFailure struct {
	Index   int             `json:"index"`
	Entity  types.EntityRef `json:"entity"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
}

// BatchResult collects the outcomes of one batch create. Partial success
// is normal: callers must inspect Failed even when Succeeded is non-empty.
type BatchResult struct {
	Succeeded []*types.EntityLink `json:"succeeded"`
	Failed    []BatchFailure      `json:"failed"`
}

// CreateBatch processes up to 50 create requests independently. Batch size
// is the only whole-request check; everything else is per-item, and one
// stale target never sinks its neighbors.
func (m *Manager) CreateBatch(ctx context.Context, containerID string, actor types.Actor, reqs []CreateRequest) (*BatchResult, error) {
	if len(reqs) < 1 || len(reqs) > maxBatchSize {
		return nil, types.NewViolation(types.CodeValidationError,
			"batch size must be between 1 and %d, got %d", maxBatchSize, len(reqs))
	}

	result := &BatchResult{
		Succeeded: []*types.EntityLink{},
		Failed:    []BatchFailure{},
	}
	for i, req := range reqs {
		link, err := m.Create(ctx, containerID, actor, req)
		if err != nil {
			result.Failed = append(result.Failed, BatchFailure{
				Index:   i,
				Entity:  req.Entity,
				Code:    types.ReasonCode(err),
				Message: err.Error(),
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, link)
	}
	return result, nil
}

// UpdateRequest carries the mutable fields of an update. Nil pointers leave
// the field unchanged. Version must echo the version the caller read.
type UpdateRequest struct {
	LinkType  *string `json:"link_type,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	LinkOrder *int    `json:"link_order,omitempty"`
	Version   int     `json:"version"`
}

// Update applies an optimistic-concurrency edit. The stored version must
// equal the submitted one or nothing mutates; changed fields are
// re-validated, including type compatibility and uniqueness when the link
// type changes. The conditional write is the sole concurrency guard.
func (m *Manager) Update(ctx context.Context, linkID string, actor types.Actor, req UpdateRequest) (*types.EntityLink, error) {
	current, err := m.store.GetLink(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if !current.Active() {
		return nil, types.ErrLinkNotFound
	}
	if current.Version != req.Version {
		return nil, types.ErrVersionConflict
	}

	updated := current.Clone()
	if req.LinkType != nil && *req.LinkType != current.LinkType {
		if v := policy.CheckLinkType(current.Entity.Type, *req.LinkType); v != nil {
			return nil, v
		}
		if *req.LinkType == types.LinkPrimary || *req.LinkType == types.LinkAssignedTo {
			hasActive, err := m.store.HasActiveLink(ctx, current.ContainerID, *req.LinkType)
			if err != nil {
				return nil, fmt.Errorf("uniqueness lookup for container %s: %w", current.ContainerID, err)
			}
			if v := policy.CheckUniqueness(*req.LinkType, hasActive); v != nil {
				return nil, v
			}
		}
		updated.LinkType = *req.LinkType
	}
	if req.Notes != nil {
		if v := policy.CheckNotes(*req.Notes); v != nil {
			return nil, v
		}
		updated.Notes = *req.Notes
	}
	if req.LinkOrder != nil {
		if *req.LinkOrder < 1 {
			return nil, &types.Violation{
				Code: types.CodeValidationError, Field: "link_order",
				Message: "link order must be at least 1",
			}
		}
		updated.LinkOrder = *req.LinkOrder
	}

	if err := m.store.UpdateLink(ctx, updated, req.Version); err != nil {
		return nil, err
	}

	m.sink.Record(audit.NewRecord(types.AuditUpdated, updated, actor.ID, audit.DiffPayload(current, updated)))
	return updated, nil
}

// SoftDelete marks a link inactive. Deleting an already-deleted link is
// reported, not silently absorbed.
func (m *Manager) SoftDelete(ctx context.Context, linkID string, actor types.Actor) (*types.EntityLink, error) {
	link, err := m.store.SoftDeleteLink(ctx, linkID, actor.ID)
	if err != nil {
		return nil, err
	}
	m.sink.Record(audit.NewRecord(types.AuditDeleted, link, actor.ID, audit.SnapshotPayload(link)))
	return link, nil
}

// Restore reactivates a soft-deleted link. When the link is a primary or
// assigned_to link, the uniqueness rule is re-checked first: a replacement
// created since the delete blocks the restore.
func (m *Manager) Restore(ctx context.Context, linkID string, actor types.Actor) (*types.EntityLink, error) {
	current, err := m.store.GetLink(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if current.Active() {
		return nil, types.ErrLinkNotDeleted
	}

	if current.LinkType == types.LinkPrimary || current.LinkType == types.LinkAssignedTo {
		hasActive, err := m.store.HasActiveLink(ctx, current.ContainerID, current.LinkType)
		if err != nil {
			return nil, fmt.Errorf("uniqueness lookup for container %s: %w", current.ContainerID, err)
		}
		if v := policy.CheckUniqueness(current.LinkType, hasActive); v != nil {
			return nil, v
		}
	}

	link, err := m.store.RestoreLink(ctx, linkID)
	if err != nil {
		return nil, err
	}
	m.sink.Record(audit.NewRecord(types.AuditRestored, link, actor.ID, audit.SnapshotPayload(link)))
	return link, nil
}

// ReorderItem assigns one link its new display ordinal.
type ReorderItem struct {
	LinkID string `json:"link_id"`
	Order  int    `json:"link_order"`
}

// Reorder rewrites display ordinals for a container's links. Membership of
// every link ID is verified before any write; the writes themselves run in
// one transaction so a mid-sequence failure leaves no partial ordering.
func (m *Manager) Reorder(ctx context.Context, containerID string, actor types.Actor, items []ReorderItem) ([]*types.EntityLink, error) {
	if len(items) == 0 {
		return nil, types.NewViolation(types.CodeValidationError, "reorder requires at least one item")
	}

	links, err := m.store.Links(ctx, containerID, false)
	if err != nil {
		return nil, fmt.Errorf("links for container %s: %w", containerID, err)
	}
	byID := make(map[string]*types.EntityLink, len(links))
	for _, l := range links {
		byID[l.LinkID] = l
	}

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if item.Order < 1 {
			return nil, &types.Violation{
				Code: types.CodeValidationError, Field: "link_order",
				Message: "link order must be at least 1",
			}
		}
		if seen[item.LinkID] {
			return nil, types.NewViolation(types.CodeInvalidLinkIDs,
				"link %s appears more than once", item.LinkID)
		}
		seen[item.LinkID] = true
		if _, ok := byID[item.LinkID]; !ok {
			return nil, types.NewViolation(types.CodeInvalidLinkIDs,
				"link %s does not belong to container %s", item.LinkID, containerID)
		}
	}

	err = m.store.InTx(ctx, func(tx types.LinkStore) error {
		for _, item := range items {
			link := byID[item.LinkID].Clone()
			readVersion := link.Version
			link.LinkOrder = item.Order
			if err := tx.UpdateLink(ctx, link, readVersion); err != nil {
				return fmt.Errorf("reorder link %s: %w", item.LinkID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.LinkID
	}
	m.sink.Record(&types.AuditRecord{
		ContainerID: containerID,
		Action:      types.AuditReordered,
		ActorID:     actor.ID,
		Payload:     audit.ReorderPayload(ids),
		CreatedAt:   time.Now().UTC(),
	})

	return m.store.Links(ctx, containerID, false)
}

// List returns the container's links in display order.
func (m *Manager) List(ctx context.Context, containerID string, includeDeleted bool) ([]*types.EntityLink, error) {
	return m.store.Links(ctx, containerID, includeDeleted)
}

// Get retrieves one link by ID.
func (m *Manager) Get(ctx context.Context, linkID string) (*types.EntityLink, error) {
	return m.store.GetLink(ctx, linkID)
}

// Containers is the reverse lookup: every container linked to an entity.
func (m *Manager) Containers(ctx context.Context, ref types.EntityRef, q types.ContainerQuery) (*types.ContainerPage, error) {
	if !types.ValidEntityType(ref.Type) {
		return nil, &types.Violation{
			Code: types.CodeValidationError, Field: "entity_type",
			Message: "unknown entity type " + ref.Type,
		}
	}
	return m.store.ContainersForEntity(ctx, ref, q)
}

// AuditTrail returns the container's recent audit records, newest first.
func (m *Manager) AuditTrail(ctx context.Context, containerID string, limit int) ([]*types.AuditRecord, error) {
	return m.store.AuditTrail(ctx, containerID, limit)
}
