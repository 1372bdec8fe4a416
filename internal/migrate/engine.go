// Package migrate moves an entire link set from a source container onto a
// target position, remapping link types on the way. Migration never
// re-parents rows: each carried link is a fresh row on the target tagged as
// an import, and the source row is soft-deleted. Atomic mode is
// all-or-nothing inside one storage transaction; best-effort mode carries
// what it can and reports the rest.
package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/mesh-intelligence/twine/internal/audit"
	"github.com/mesh-intelligence/twine/internal/policy"
	"github.com/mesh-intelligence/twine/pkg/types"
)

// Sink receives the migration's summary audit record.
type Sink interface {
	Record(rec *types.AuditRecord)
}

// Engine performs link-set migrations.
type Engine struct {
	store types.LinkStore
	sink  Sink
}

// NewEngine wires an engine to its store and audit sink.
func NewEngine(store types.LinkStore, sink Sink) *Engine {
	return &Engine{store: store, sink: sink}
}

// Migrate carries every active link of the source container onto the target
// position. Link types pass through the fixed remapping table (requested
// becomes related, the rest are unchanged) and provenance becomes import.
//
// With atomic true the whole set commits or none of it does: violations are
// collected up front and any mid-flight failure rolls back every write,
// surfacing the per-link reasons. With atomic false each link is tried
// independently and failures ride along in the result.
func (e *Engine) Migrate(ctx context.Context, sourceContainerID, targetContainerID, actorID string, atomic bool) (*types.MigrationResult, error) {
	targetRef := types.EntityRef{Type: types.EntityPosition, ID: targetContainerID}
	targetMeta := e.store.EntityMeta(ctx, targetRef)
	if !targetMeta.Exists {
		return nil, types.NewViolation(types.CodePositionNotFound,
			"position with ID %s not found", targetContainerID)
	}

	links, err := e.store.Links(ctx, sourceContainerID, false)
	if err != nil {
		return nil, fmt.Errorf("links for container %s: %w", sourceContainerID, err)
	}

	result := &types.MigrationResult{
		SourceContainerID: sourceContainerID,
		TargetContainerID: targetContainerID,
		Mappings:          []types.LinkMapping{},
		Failures:          []types.MigrationFailure{},
	}

	if atomic {
		for _, link := range links {
			f, err := e.checkLink(ctx, link, targetContainerID, targetMeta)
			if err != nil {
				return nil, fmt.Errorf("pre-flight for link %s: %w", link.LinkID, err)
			}
			if f != nil {
				result.Failures = append(result.Failures, *f)
			}
		}
		if len(result.Failures) > 0 {
			result.FailedCount = len(result.Failures)
			e.recordSummary(result, actorID)
			return result, types.NewViolation(types.CodeMigrationFailed,
				"%d of %d links violate target constraints", len(result.Failures), len(links))
		}

		// The pre-flight and the transaction are separate reads, so a
		// per-link failure inside the transaction is still possible; keep
		// its structured reason rather than only the flattened error.
		var txFailure *types.MigrationFailure
		err := e.store.InTx(ctx, func(tx types.LinkStore) error {
			for _, link := range links {
				mapping, err := e.carryLink(ctx, tx, link, targetContainerID, actorID)
				if err != nil {
					txFailure = &types.MigrationFailure{
						LinkID:  link.LinkID,
						Entity:  link.Entity,
						Code:    types.ReasonCode(err),
						Message: err.Error(),
					}
					return fmt.Errorf("migrate link %s: %w", link.LinkID, err)
				}
				result.Mappings = append(result.Mappings, *mapping)
			}
			return nil
		})
		if err != nil {
			result.Mappings = result.Mappings[:0]
			if txFailure != nil {
				result.Failures = append(result.Failures, *txFailure)
			}
			result.FailedCount = len(result.Failures)
			e.recordSummary(result, actorID)
			return result, types.NewViolation(types.CodeMigrationFailed,
				"migration aborted, no links were moved: %v", err)
		}
		result.MigratedCount = len(result.Mappings)
	} else {
		for _, link := range links {
			f, err := e.checkLink(ctx, link, targetContainerID, targetMeta)
			if err != nil {
				return nil, fmt.Errorf("pre-flight for link %s: %w", link.LinkID, err)
			}
			if f != nil {
				result.Failures = append(result.Failures, *f)
				continue
			}
			mapping, err := e.carryLink(ctx, e.store, link, targetContainerID, actorID)
			if err != nil {
				result.Failures = append(result.Failures, types.MigrationFailure{
					LinkID:  link.LinkID,
					Entity:  link.Entity,
					Code:    types.ReasonCode(err),
					Message: err.Error(),
				})
				continue
			}
			result.Mappings = append(result.Mappings, *mapping)
		}
		result.MigratedCount = len(result.Mappings)
		result.FailedCount = len(result.Failures)
	}

	e.recordSummary(result, actorID)
	return result, nil
}

// recordSummary writes the single migration audit record. Failed runs get
// one too, so the trail shows attempts alongside completed moves.
func (e *Engine) recordSummary(result *types.MigrationResult, actorID string) {
	e.sink.Record(&types.AuditRecord{
		ContainerID: result.SourceContainerID,
		Action:      types.AuditMigrated,
		ActorID:     actorID,
		Payload: audit.MigrationPayload(result.SourceContainerID, result.TargetContainerID,
			result.MigratedCount, result.FailedCount, result.Mappings),
		CreatedAt: time.Now().UTC(),
	})
}

// checkLink validates one source link against the target position: the
// entity must still exist, must not be archived, must not be classified
// above the target, and its mapped type must not collide with an active
// unique link already on the target.
func (e *Engine) checkLink(ctx context.Context, link *types.EntityLink, targetContainerID string, targetMeta types.EntityMeta) (*types.MigrationFailure, error) {
	meta := e.store.EntityMeta(ctx, link.Entity)
	if v := policy.CheckEntity(link.Entity, meta); v != nil {
		return &types.MigrationFailure{
			LinkID: link.LinkID, Entity: link.Entity,
			Code: v.Code, Message: v.Message,
		}, nil
	}
	if meta.Classification > targetMeta.Classification {
		return &types.MigrationFailure{
			LinkID: link.LinkID, Entity: link.Entity,
			Code:    types.CodeInsufficientClearance,
			Message: "entity classification exceeds target position classification",
		}, nil
	}

	newType := types.MigrationLinkType(link.LinkType)
	if newType == types.LinkPrimary || newType == types.LinkAssignedTo {
		hasActive, err := e.store.HasActiveLink(ctx, targetContainerID, newType)
		if err != nil {
			return nil, err
		}
		if v := policy.CheckUniqueness(newType, hasActive); v != nil {
			return &types.MigrationFailure{
				LinkID: link.LinkID, Entity: link.Entity,
				Code: v.Code, Message: v.Message,
			}, nil
		}
	}
	return nil, nil
}

// carryLink creates the import copy on the target and soft-deletes the
// source row. Unique link types defer to an existing active link on the
// target rather than violating the one-per-container rule.
func (e *Engine) carryLink(ctx context.Context, store types.LinkStore, link *types.EntityLink, targetContainerID, actorID string) (*types.LinkMapping, error) {
	newType := types.MigrationLinkType(link.LinkType)

	if newType == types.LinkPrimary || newType == types.LinkAssignedTo {
		hasActive, err := store.HasActiveLink(ctx, targetContainerID, newType)
		if err != nil {
			return nil, err
		}
		if v := policy.CheckUniqueness(newType, hasActive); v != nil {
			return nil, v
		}
	}

	max, err := store.MaxLinkOrder(ctx, targetContainerID)
	if err != nil {
		return nil, err
	}

	carried := &types.EntityLink{
		ContainerID: targetContainerID,
		Entity:      link.Entity,
		LinkType:    newType,
		Source:      types.SourceImport,
		Confidence:  link.Confidence,
		Notes:       link.Notes,
		LinkOrder:   max + 1,
		LinkedBy:    actorID,
		SuggestedBy: link.SuggestedBy,
	}
	if err := store.CreateLink(ctx, carried); err != nil {
		return nil, err
	}
	if _, err := store.SoftDeleteLink(ctx, link.LinkID, actorID); err != nil {
		return nil, err
	}

	return &types.LinkMapping{
		SourceLinkID: link.LinkID,
		TargetLinkID: carried.LinkID,
		Entity:       link.Entity,
		OldLinkType:  link.LinkType,
		NewLinkType:  newType,
	}, nil
}
