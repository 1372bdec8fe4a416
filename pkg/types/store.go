package types

import "context"

// ContainerQuery shapes a reverse lookup: all containers linked to one
// entity. PageSize is capped by the store (100). MaxClassification below
// zero disables clearance filtering; otherwise containers classified above
// it are dropped.
type ContainerQuery struct {
	Page              int
	PageSize          int
	LinkType          string // optional filter, empty = all types
	MaxClassification int
}

// ContainerPage is one page of reverse-lookup results.
type ContainerPage struct {
	Items      []*EntityLink `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalCount int           `json:"total_count"`
	TotalPages int           `json:"total_pages"`
}

// LinkStore is the persistence contract the engines run against. The SQLite
// backend implements it; InTx yields a store whose operations share one
// transaction, committed when fn returns nil and rolled back otherwise.
type LinkStore interface {
	// CreateLink inserts a new link row. The caller fills every field
	// except LinkID, which is generated when empty.
	CreateLink(ctx context.Context, link *EntityLink) error

	// GetLink retrieves a link by ID, deleted or not.
	// Returns ErrLinkNotFound if no row exists.
	GetLink(ctx context.Context, linkID string) (*EntityLink, error)

	// Links returns the container's links ordered by ordinal, then
	// creation time. Soft-deleted rows are included only when requested.
	Links(ctx context.Context, containerID string, includeDeleted bool) ([]*EntityLink, error)

	// MaxLinkOrder returns the highest ordinal among the container's
	// links, deleted included, or 0 when the container has none.
	MaxLinkOrder(ctx context.Context, containerID string) (int, error)

	// HasActiveLink reports whether the container has a non-deleted link
	// of the given type.
	HasActiveLink(ctx context.Context, containerID, linkType string) (bool, error)

	// UpdateLink writes the link's mutable fields (type, notes, ordinal)
	// with Version set to expectedVersion+1, conditioned on the stored
	// version still being expectedVersion. Returns ErrVersionConflict
	// when the condition fails, ErrLinkNotFound when the row is gone.
	UpdateLink(ctx context.Context, link *EntityLink, expectedVersion int) error

	// SoftDeleteLink marks an active link deleted and returns the updated
	// row. Returns ErrLinkAlreadyDeleted when the link is already
	// soft-deleted, ErrLinkNotFound when it does not exist.
	SoftDeleteLink(ctx context.Context, linkID, actorID string) (*EntityLink, error)

	// RestoreLink clears the deleted mark on a soft-deleted link.
	// Returns ErrLinkNotDeleted when the link is active,
	// ErrLinkNotFound when it does not exist.
	RestoreLink(ctx context.Context, linkID string) (*EntityLink, error)

	// EntityMeta resolves an entity reference to existence, archived
	// state, classification, and owning organization. Any lookup failure
	// yields Exists=false; EntityMeta never panics and never errors.
	EntityMeta(ctx context.Context, ref EntityRef) EntityMeta

	// ContainersForEntity is the reverse lookup: links targeting the
	// given entity across all containers, newest first, paginated.
	ContainersForEntity(ctx context.Context, ref EntityRef, q ContainerQuery) (*ContainerPage, error)

	// AppendAudit appends one immutable audit record.
	AppendAudit(ctx context.Context, rec *AuditRecord) error

	// AuditTrail returns the container's most recent audit records,
	// newest first, at most limit rows.
	AuditTrail(ctx context.Context, containerID string, limit int) ([]*AuditRecord, error)

	// InTx runs fn against a transactional view of the store. The
	// transaction commits when fn returns nil; any error rolls back
	// every write fn performed.
	InTx(ctx context.Context, fn func(LinkStore) error) error
}
