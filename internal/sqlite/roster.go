package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/mesh-intelligence/twine/internal/registry"
	"github.com/mesh-intelligence/twine/pkg/types"
)

// rosterLimit caps the entity roster handed to the suggestion service.
const rosterLimit = 200

// ContainerTitle returns the container's display title.
// Returns ErrLinkNotFound when the container does not exist.
func (s *Store) ContainerTitle(ctx context.Context, containerID string) (string, error) {
	var title string
	err := s.q.QueryRowContext(ctx,
		`SELECT title FROM containers WHERE id = ?`, containerID).Scan(&title)
	if err == sql.ErrNoRows {
		return "", types.ErrLinkNotFound
	}
	if err != nil {
		return "", fmt.Errorf("container title %s: %w", containerID, err)
	}
	return title, nil
}

// EntityRoster returns non-archived entities across every registered type,
// most recently updated first, as unscored candidates for the suggestion
// service. At most limit rows; limit <= 0 applies the default cap.
func (s *Store) EntityRoster(ctx context.Context, limit int) ([]types.Candidate, error) {
	if limit <= 0 || limit > rosterLimit {
		limit = rosterLimit
	}

	entityTypes := registry.EntityTypes()
	sort.Strings(entityTypes)

	parts := make([]string, 0, len(entityTypes))
	for _, et := range entityTypes {
		entry, _ := registry.Lookup(et)
		active := "archived_at IS NULL"
		if entry.ArchivedByStatus {
			active = "status != 'archived'"
		}
		parts = append(parts, fmt.Sprintf(
			"SELECT '%s' AS entity_type, id, name, updated_at FROM %s WHERE %s",
			et, entry.Table, active))
	}
	query := joinUnion(parts) + " ORDER BY updated_at DESC LIMIT ?"

	rows, err := s.q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("entity roster: %w", err)
	}
	defer rows.Close()

	out := []types.Candidate{}
	for rows.Next() {
		var c types.Candidate
		var updatedAt string
		if err := rows.Scan(&c.Entity.Type, &c.Entity.ID, &c.Name, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning roster row: %w", err)
		}
		if t, err := parseTime(updatedAt); err == nil {
			c.UpdatedAt = t
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func joinUnion(parts []string) string {
	q := parts[0]
	for _, p := range parts[1:] {
		q += " UNION ALL " + p
	}
	return q
}
