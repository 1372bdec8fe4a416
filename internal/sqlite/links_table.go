// Link row accessors: creation, hydration, conditional version-guarded
// updates, soft delete and restore, active-set queries, and the reverse
// lookup from an entity to its containers.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/twine/pkg/types"
)

const linkColumns = `id, container_id, entity_type, entity_id, link_type,
	source, confidence, notes, link_order, version, linked_by, suggested_by,
	created_at, updated_at, deleted_at, deleted_by`

// CreateLink inserts a new link row. LinkID is generated when empty;
// CreatedAt/UpdatedAt are stamped when zero. Version is forced to 1.
func (s *Store) CreateLink(ctx context.Context, link *types.EntityLink) error {
	if link.LinkID == "" {
		link.LinkID = newID()
	}
	now := time.Now().UTC()
	if link.CreatedAt.IsZero() {
		link.CreatedAt = now
	}
	if link.UpdatedAt.IsZero() {
		link.UpdatedAt = now
	}
	link.Version = 1

	var deletedAt any
	if link.DeletedAt != nil {
		deletedAt = formatTime(*link.DeletedAt)
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO entity_links (`+linkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		link.LinkID, link.ContainerID, link.Entity.Type, link.Entity.ID,
		link.LinkType, link.Source, link.Confidence, link.Notes,
		link.LinkOrder, link.Version, link.LinkedBy, link.SuggestedBy,
		formatTime(link.CreatedAt), formatTime(link.UpdatedAt),
		deletedAt, link.DeletedBy,
	)
	if err != nil {
		return fmt.Errorf("inserting link: %w", err)
	}
	return nil
}

// GetLink retrieves a link by ID, deleted or not.
func (s *Store) GetLink(ctx context.Context, linkID string) (*types.EntityLink, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM entity_links WHERE id = ?`, linkID)
	link, err := hydrateLink(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrLinkNotFound
		}
		return nil, fmt.Errorf("getting link %s: %w", linkID, err)
	}
	return link, nil
}

// Links returns the container's links ordered by ordinal then creation time.
func (s *Store) Links(ctx context.Context, containerID string, includeDeleted bool) ([]*types.EntityLink, error) {
	query := `SELECT ` + linkColumns + ` FROM entity_links WHERE container_id = ?`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY link_order ASC, created_at ASC`

	rows, err := s.q.QueryContext(ctx, query, containerID)
	if err != nil {
		return nil, fmt.Errorf("fetching links for %s: %w", containerID, err)
	}
	defer rows.Close()

	return collectLinks(rows)
}

// MaxLinkOrder returns the highest ordinal among the container's links,
// deleted included, or 0 when there are none.
func (s *Store) MaxLinkOrder(ctx context.Context, containerID string) (int, error) {
	var max sql.NullInt64
	err := s.q.QueryRowContext(ctx,
		`SELECT MAX(link_order) FROM entity_links WHERE container_id = ?`,
		containerID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("querying max link order: %w", err)
	}
	return int(max.Int64), nil
}

// HasActiveLink reports whether the container holds a non-deleted link of
// the given type.
func (s *Store) HasActiveLink(ctx context.Context, containerID, linkType string) (bool, error) {
	var one int
	err := s.q.QueryRowContext(ctx,
		`SELECT 1 FROM entity_links
		WHERE container_id = ? AND link_type = ? AND deleted_at IS NULL
		LIMIT 1`,
		containerID, linkType,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking active %s link: %w", linkType, err)
	}
	return true, nil
}

// UpdateLink writes the mutable fields conditioned on the stored version
// still matching expectedVersion. The version check in the WHERE clause is
// the compare-and-swap; no lock is taken.
func (s *Store) UpdateLink(ctx context.Context, link *types.EntityLink, expectedVersion int) error {
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`UPDATE entity_links
		SET link_type = ?, notes = ?, link_order = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ? AND deleted_at IS NULL`,
		link.LinkType, link.Notes, link.LinkOrder,
		formatTime(now), link.LinkID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("updating link %s: %w", link.LinkID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating link %s: %w", link.LinkID, err)
	}
	if n == 0 {
		// Distinguish a stale version from a missing or deleted row.
		var version int
		err := s.q.QueryRowContext(ctx,
			`SELECT version FROM entity_links WHERE id = ? AND deleted_at IS NULL`,
			link.LinkID,
		).Scan(&version)
		if errors.Is(err, sql.ErrNoRows) {
			return types.ErrLinkNotFound
		}
		if err != nil {
			return fmt.Errorf("checking link %s: %w", link.LinkID, err)
		}
		return types.ErrVersionConflict
	}

	link.Version = expectedVersion + 1
	link.UpdatedAt = now
	return nil
}

// SoftDeleteLink marks an active link deleted. The deleted_at IS NULL
// condition makes a repeated delete report ErrLinkAlreadyDeleted rather
// than silently succeeding.
func (s *Store) SoftDeleteLink(ctx context.Context, linkID, actorID string) (*types.EntityLink, error) {
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`UPDATE entity_links
		SET deleted_at = ?, deleted_by = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		formatTime(now), actorID, formatTime(now), linkID,
	)
	if err != nil {
		return nil, fmt.Errorf("deleting link %s: %w", linkID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("deleting link %s: %w", linkID, err)
	}
	if n == 0 {
		if _, err := s.GetLink(ctx, linkID); err != nil {
			return nil, err
		}
		return nil, types.ErrLinkAlreadyDeleted
	}
	return s.GetLink(ctx, linkID)
}

// RestoreLink clears the deleted mark on a soft-deleted link.
func (s *Store) RestoreLink(ctx context.Context, linkID string) (*types.EntityLink, error) {
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`UPDATE entity_links
		SET deleted_at = NULL, deleted_by = '', version = version + 1, updated_at = ?
		WHERE id = ? AND deleted_at IS NOT NULL`,
		formatTime(now), linkID,
	)
	if err != nil {
		return nil, fmt.Errorf("restoring link %s: %w", linkID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("restoring link %s: %w", linkID, err)
	}
	if n == 0 {
		if _, err := s.GetLink(ctx, linkID); err != nil {
			return nil, err
		}
		return nil, types.ErrLinkNotDeleted
	}
	return s.GetLink(ctx, linkID)
}

// ContainersForEntity lists active links targeting the entity across all
// containers, newest first. A non-negative MaxClassification drops links
// whose container is classified above it.
func (s *Store) ContainersForEntity(ctx context.Context, ref types.EntityRef, q types.ContainerQuery) (*types.ContainerPage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	if pageSize > 100 {
		pageSize = 100
	}

	conditions := []string{
		"l.entity_type = ?", "l.entity_id = ?", "l.deleted_at IS NULL",
	}
	args := []any{ref.Type, ref.ID}
	join := ""

	if q.LinkType != "" {
		conditions = append(conditions, "l.link_type = ?")
		args = append(args, q.LinkType)
	}
	if q.MaxClassification >= 0 {
		// Containers without a metadata row count as unclassified.
		join = " LEFT JOIN containers c ON c.id = l.container_id"
		conditions = append(conditions, "COALESCE(c.classification_level, 0) <= ?")
		args = append(args, q.MaxClassification)
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int
	err := s.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM entity_links l"+join+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("counting containers for %s/%s: %w", ref.Type, ref.ID, err)
	}

	query := "SELECT " + prefixColumns("l", linkColumns) + " FROM entity_links l" + join + where +
		" ORDER BY l.created_at DESC LIMIT ? OFFSET ?"
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching containers for %s/%s: %w", ref.Type, ref.ID, err)
	}
	defer rows.Close()

	items, err := collectLinks(rows)
	if err != nil {
		return nil, err
	}

	totalPages := (total + pageSize - 1) / pageSize
	return &types.ContainerPage{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}, nil
}

// prefixColumns qualifies each column in a comma-separated list with a
// table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// hydrateLink converts one row into a *types.EntityLink. scan is row.Scan
// or rows.Scan.
func hydrateLink(scan func(...any) error) (*types.EntityLink, error) {
	var (
		l                    types.EntityLink
		confidence           sql.NullFloat64
		createdAt, updatedAt string
		deletedAt            sql.NullString
	)
	err := scan(
		&l.LinkID, &l.ContainerID, &l.Entity.Type, &l.Entity.ID, &l.LinkType,
		&l.Source, &confidence, &l.Notes, &l.LinkOrder, &l.Version,
		&l.LinkedBy, &l.SuggestedBy, &createdAt, &updatedAt, &deletedAt,
		&l.DeletedBy,
	)
	if err != nil {
		return nil, err
	}

	if confidence.Valid {
		l.Confidence = &confidence.Float64
	}
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	if deletedAt.Valid {
		t, err := parseTime(deletedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing deleted_at: %w", err)
		}
		l.DeletedAt = &t
	}
	return &l, nil
}

// collectLinks drains rows into a slice. Returns an empty slice, not nil,
// when there are no rows.
func collectLinks(rows *sql.Rows) ([]*types.EntityLink, error) {
	links := []*types.EntityLink{}
	for rows.Next() {
		l, err := hydrateLink(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("hydrating link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating links: %w", err)
	}
	return links, nil
}
