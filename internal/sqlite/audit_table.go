// Append-only audit row accessors. Rows are never updated or deleted.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/twine/pkg/types"
)

// AppendAudit appends one immutable audit record. AuditID and CreatedAt are
// stamped when empty; Payload is stored as JSON.
func (s *Store) AppendAudit(ctx context.Context, rec *types.AuditRecord) error {
	if rec.AuditID == "" {
		rec.AuditID = newID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	payload := "{}"
	if rec.Payload != nil {
		data, err := json.Marshal(rec.Payload)
		if err != nil {
			return fmt.Errorf("marshaling audit payload: %w", err)
		}
		payload = string(data)
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO link_audit
		(id, link_id, container_id, entity_type, entity_id, action, actor_id, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.AuditID, rec.LinkID, rec.ContainerID, rec.Entity.Type,
		rec.Entity.ID, rec.Action, rec.ActorID, payload,
		formatTime(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("appending audit record: %w", err)
	}
	return nil
}

// AuditTrail returns the container's most recent audit records, newest
// first. limit values outside 1..500 are clamped.
func (s *Store) AuditTrail(ctx context.Context, containerID string, limit int) ([]*types.AuditRecord, error) {
	if limit < 1 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT id, link_id, container_id, entity_type, entity_id, action, actor_id, payload, created_at
		FROM link_audit WHERE container_id = ?
		ORDER BY created_at DESC LIMIT ?`,
		containerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching audit trail for %s: %w", containerID, err)
	}
	defer rows.Close()

	records := []*types.AuditRecord{}
	for rows.Next() {
		var (
			rec       types.AuditRecord
			payload   string
			createdAt string
		)
		err := rows.Scan(
			&rec.AuditID, &rec.LinkID, &rec.ContainerID, &rec.Entity.Type,
			&rec.Entity.ID, &rec.Action, &rec.ActorID, &payload, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("hydrating audit record: %w", err)
		}
		if payload != "" {
			if err := json.Unmarshal([]byte(payload), &rec.Payload); err != nil {
				return nil, fmt.Errorf("parsing audit payload: %w", err)
			}
		}
		if rec.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing audit created_at: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit records: %w", err)
	}
	return records, nil
}
