// Entity metadata lookups. The registry names, per entity type, the table
// and the columns that answer existence, archived state, classification and
// owning organization. Lookups never fail: any error reads as "does not
// exist" so write paths reject rather than crash.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mesh-intelligence/twine/internal/registry"
	"github.com/mesh-intelligence/twine/pkg/types"
)

// EntityMeta resolves an entity reference against its registered table.
func (s *Store) EntityMeta(ctx context.Context, ref types.EntityRef) types.EntityMeta {
	entry, ok := registry.Lookup(ref.Type)
	if !ok {
		return types.EntityMeta{}
	}

	cols := []string{"name"}
	if entry.ArchivedByStatus {
		cols = append(cols, "status")
	} else {
		cols = append(cols, "archived_at")
	}
	if entry.HasClassification {
		cols = append(cols, "classification_level")
	}
	if entry.OrgColumn != "" {
		cols = append(cols, entry.OrgColumn)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?",
		strings.Join(cols, ", "), entry.Table)
	row := s.q.QueryRowContext(ctx, query, ref.ID)

	var (
		meta       types.EntityMeta
		status     string
		archivedAt sql.NullString
	)
	dest := []any{&meta.Name}
	if entry.ArchivedByStatus {
		dest = append(dest, &status)
	} else {
		dest = append(dest, &archivedAt)
	}
	if entry.HasClassification {
		dest = append(dest, &meta.Classification)
	}
	if entry.OrgColumn != "" {
		dest = append(dest, &meta.OrganizationID)
	}

	if err := row.Scan(dest...); err != nil {
		if err != sql.ErrNoRows {
			slog.Warn("entity metadata lookup failed",
				"entity_type", ref.Type, "entity_id", ref.ID, "error", err)
		}
		return types.EntityMeta{}
	}

	meta.Exists = true
	if entry.ArchivedByStatus {
		meta.Archived = status == "archived"
	} else {
		meta.Archived = archivedAt.Valid
	}
	return meta
}

// UpsertEntity writes one row into the entity table for ref's type. Used by
// seeding and tests; the linking engines never write entity tables.
func (s *Store) UpsertEntity(ctx context.Context, ref types.EntityRef, name string, archived bool, classification int, orgID string) error {
	entry, ok := registry.Lookup(ref.Type)
	if !ok {
		return fmt.Errorf("unknown entity type %q", ref.Type)
	}

	cols := []string{"id", "name", "updated_at"}
	args := []any{ref.ID, name, formatTime(time.Now())}

	if entry.ArchivedByStatus {
		status := "active"
		if archived {
			status = "archived"
		}
		cols = append(cols, "status")
		args = append(args, status)
	} else {
		var archivedAt any
		if archived {
			archivedAt = formatTime(time.Now())
		}
		cols = append(cols, "archived_at")
		args = append(args, archivedAt)
	}
	if entry.HasClassification {
		cols = append(cols, "classification_level")
		args = append(args, classification)
	}
	if entry.OrgColumn == "organization_id" {
		cols = append(cols, "organization_id")
		args = append(args, orgID)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		entry.Table, strings.Join(cols, ", "), placeholders)

	if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upserting %s %s: %w", ref.Type, ref.ID, err)
	}
	return nil
}

// UpsertContainer writes one container row. Containers are intake tickets
// or positions that own link sets; classification feeds the reverse
// lookup's clearance filter.
func (s *Store) UpsertContainer(ctx context.Context, id, title string, classification int, orgID string) error {
	now := formatTime(time.Now())
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO containers (id, title, classification_level, organization_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			classification_level = excluded.classification_level,
			organization_id = excluded.organization_id,
			updated_at = excluded.updated_at`,
		id, title, classification, orgID, now, now,
	)
	if err != nil {
		return fmt.Errorf("upserting container %s: %w", id, err)
	}
	return nil
}
