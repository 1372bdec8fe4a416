package types

// LinkMapping pairs one migrated link with its copy in the target container.
// Link types may differ: requested links become related when they move onto
// a concluded position.
type LinkMapping struct {
	SourceLinkID string    `json:"source_link_id"`
	TargetLinkID string    `json:"target_link_id"`
	Entity       EntityRef `json:"entity"`
	OldLinkType  string    `json:"old_link_type"`
	NewLinkType  string    `json:"new_link_type"`
}

// MigrationFailure describes one link that could not be carried over.
type MigrationFailure struct {
	LinkID  string    `json:"link_id"`
	Entity  EntityRef `json:"entity"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// MigrationResult summarizes one migration run.
type MigrationResult struct {
	SourceContainerID string             `json:"source_container_id"`
	TargetContainerID string             `json:"target_container_id"`
	MigratedCount     int                `json:"migrated_count"`
	FailedCount       int                `json:"failed_count"`
	Mappings          []LinkMapping      `json:"link_mappings"`
	Failures          []MigrationFailure `json:"failures,omitempty"`
}
