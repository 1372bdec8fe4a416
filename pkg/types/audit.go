package types

import "time"

// Audit action tags.
const (
	AuditCreated   = "created"
	AuditUpdated   = "updated"
	AuditDeleted   = "deleted"
	AuditRestored  = "restored"
	AuditMigrated  = "migrated"
	AuditReordered = "reordered"
)

// validAuditActions is the set of recognized audit action tags.
var validAuditActions = map[string]bool{
	AuditCreated:   true,
	AuditUpdated:   true,
	AuditDeleted:   true,
	AuditRestored:  true,
	AuditMigrated:  true,
	AuditReordered: true,
}

// ValidAuditAction reports whether a is a recognized audit action tag.
func ValidAuditAction(a string) bool {
	return validAuditActions[a]
}

// AuditRecord is one append-only row in the link audit trail. LinkID is
// empty for container-scoped actions (migrated, reordered). Payload holds
// the action-specific detail: a changed_fields diff for updates, a snapshot
// for create/delete/restore, counts and mappings for migrations. Records
// are never updated or deleted after creation.
type AuditRecord struct {
	AuditID     string         `json:"id"`
	LinkID      string         `json:"link_id,omitempty"`
	ContainerID string         `json:"container_id"`
	Entity      EntityRef      `json:"entity"`
	Action      string         `json:"action"`
	ActorID     string         `json:"actor_id"`
	Payload     map[string]any `json:"payload,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
