// Package registry holds the single closed mapping from entity type tags to
// their storage locations and metadata columns. The metadata gateway, the
// validation policy, and the migration engine all read this table; no other
// copy of the mapping may exist.
package registry

import "github.com/mesh-intelligence/twine/pkg/types"

// Entry describes where one entity type lives and how its metadata is read.
type Entry struct {
	// Table is the SQLite table holding records of this type.
	Table string

	// ArchivedByStatus selects the archived indicator: when true the
	// table carries a status column and 'archived' means archived; when
	// false the table carries a nullable archived_at timestamp.
	ArchivedByStatus bool

	// HasClassification is true when the table carries a
	// classification_level column.
	HasClassification bool

	// OrgColumn names the owning-organization column, or is empty for
	// types with no organization boundary. Organizations own themselves
	// through their id column.
	OrgColumn string
}

// entries is the dispatch table. Dossiers are the one type archived via a
// status enum; countries have no owning organization.
var entries = map[string]Entry{
	types.EntityDossier:            {Table: "dossiers", ArchivedByStatus: true, HasClassification: true, OrgColumn: "organization_id"},
	types.EntityPosition:           {Table: "positions", HasClassification: true, OrgColumn: "organization_id"},
	types.EntityMoU:                {Table: "mous", HasClassification: true, OrgColumn: "organization_id"},
	types.EntityEngagement:         {Table: "engagements", HasClassification: true, OrgColumn: "organization_id"},
	types.EntityAssignment:         {Table: "assignments", HasClassification: true, OrgColumn: "organization_id"},
	types.EntityCommitment:         {Table: "commitments", HasClassification: true, OrgColumn: "organization_id"},
	types.EntityIntelligenceSignal: {Table: "intelligence_signals", HasClassification: true, OrgColumn: "organization_id"},
	types.EntityOrganization:       {Table: "organizations", OrgColumn: "id"},
	types.EntityCountry:            {Table: "countries"},
	types.EntityForum:              {Table: "forums", OrgColumn: "organization_id"},
	types.EntityWorkingGroup:       {Table: "working_groups", OrgColumn: "organization_id"},
	types.EntityTopic:              {Table: "topics", OrgColumn: "organization_id"},
}

// Lookup returns the entry for an entity type tag.
func Lookup(entityType string) (Entry, bool) {
	e, ok := entries[entityType]
	return e, ok
}

// EntityTypes returns every registered entity type tag. Order is not
// specified; callers needing determinism sort the result.
func EntityTypes() []string {
	out := make([]string, 0, len(entries))
	for t := range entries {
		out = append(out, t)
	}
	return out
}
