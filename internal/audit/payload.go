package audit

import (
	"time"

	"github.com/mesh-intelligence/twine/pkg/types"
)

// SnapshotPayload captures a link's full state, used for created, deleted,
// and restored records.
func SnapshotPayload(link *types.EntityLink) map[string]any {
	p := map[string]any{
		"entity_type": link.Entity.Type,
		"entity_id":   link.Entity.ID,
		"link_type":   link.LinkType,
		"source":      link.Source,
		"link_order":  link.LinkOrder,
		"version":     link.Version,
	}
	if link.Notes != "" {
		p["notes"] = link.Notes
	}
	if link.Confidence != nil {
		p["confidence"] = *link.Confidence
	}
	return p
}

// DiffPayload records only the fields that changed between two versions of a
// link, as {field: {"from": old, "to": new}} pairs.
func DiffPayload(before, after *types.EntityLink) map[string]any {
	changed := map[string]any{}
	if before.LinkType != after.LinkType {
		changed["link_type"] = fromTo(before.LinkType, after.LinkType)
	}
	if before.Notes != after.Notes {
		changed["notes"] = fromTo(before.Notes, after.Notes)
	}
	if !confidenceEqual(before.Confidence, after.Confidence) {
		changed["confidence"] = fromTo(confidenceValue(before.Confidence), confidenceValue(after.Confidence))
	}
	if before.LinkOrder != after.LinkOrder {
		changed["link_order"] = fromTo(before.LinkOrder, after.LinkOrder)
	}
	return map[string]any{
		"changed_fields": changed,
		"version":        after.Version,
	}
}

// MigrationPayload summarizes one migration run as a single record.
func MigrationPayload(sourceID, targetID string, migrated, failed int, mappings []types.LinkMapping) map[string]any {
	return map[string]any{
		"source_container_id": sourceID,
		"target_container_id": targetID,
		"migrated_count":      migrated,
		"failed_count":        failed,
		"link_mappings":       mappings,
	}
}

// ReorderPayload records the final ordinal assignment of a reorder.
func ReorderPayload(linkIDs []string) map[string]any {
	return map[string]any{
		"link_ids": linkIDs,
		"count":    len(linkIDs),
	}
}

// NewRecord assembles an audit record for one link action.
func NewRecord(action string, link *types.EntityLink, actorID string, payload map[string]any) *types.AuditRecord {
	return &types.AuditRecord{
		LinkID:      link.LinkID,
		ContainerID: link.ContainerID,
		Entity:      link.Entity,
		Action:      action,
		ActorID:     actorID,
		Payload:     payload,
		CreatedAt:   time.Now().UTC(),
	}
}

func fromTo(from, to any) map[string]any {
	return map[string]any{"from": from, "to": to}
}

func confidenceEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func confidenceValue(c *float64) any {
	if c == nil {
		return nil
	}
	return *c
}
