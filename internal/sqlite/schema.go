// Schema for the Twine SQLite store. Entity tables are generated from the
// registry so the dispatch table stays the only description of where each
// entity type lives.
package sqlite

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/twine/internal/registry"
)

// coreSchema holds the tables the engines own. entity_links carries the
// version counter for optimistic concurrency; link_audit is append-only.
const coreSchema = `
CREATE TABLE IF NOT EXISTS containers (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	classification_level INTEGER NOT NULL DEFAULT 0,
	organization_id TEXT NOT NULL DEFAULT '',
	archived_at TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS entity_links (
	id TEXT PRIMARY KEY,
	container_id TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	link_type TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT 'human',
	confidence REAL,
	notes TEXT NOT NULL DEFAULT '',
	link_order INTEGER NOT NULL DEFAULT 1,
	version INTEGER NOT NULL DEFAULT 1,
	linked_by TEXT NOT NULL,
	suggested_by TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	deleted_at TEXT,
	deleted_by TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_entity_links_container
	ON entity_links (container_id, deleted_at);
CREATE INDEX IF NOT EXISTS idx_entity_links_entity
	ON entity_links (entity_type, entity_id, deleted_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_entity_links_unique_type
	ON entity_links (container_id, link_type)
	WHERE deleted_at IS NULL AND link_type IN ('primary', 'assigned_to');

CREATE TABLE IF NOT EXISTS link_audit (
	id TEXT PRIMARY KEY,
	link_id TEXT NOT NULL DEFAULT '',
	container_id TEXT NOT NULL,
	entity_type TEXT NOT NULL DEFAULT '',
	entity_id TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL,
	actor_id TEXT NOT NULL,
	payload TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_link_audit_container
	ON link_audit (container_id, created_at);
`

// schemaSQL returns the full DDL: core tables plus one table per registered
// entity type.
func schemaSQL() string {
	var b strings.Builder
	b.WriteString(coreSchema)

	ets := registry.EntityTypes()
	sort.Strings(ets)
	for _, et := range ets {
		entry, _ := registry.Lookup(et)
		b.WriteString(entityTableDDL(entry))
	}
	return b.String()
}

// entityTableDDL builds the CREATE TABLE statement for one entity table.
// The archived indicator is a status enum or a nullable timestamp depending
// on the registry entry.
func entityTableDDL(entry registry.Entry) string {
	cols := []string{
		"id TEXT PRIMARY KEY",
		"name TEXT NOT NULL DEFAULT ''",
	}
	if entry.ArchivedByStatus {
		cols = append(cols, "status TEXT NOT NULL DEFAULT 'active'")
	} else {
		cols = append(cols, "archived_at TEXT")
	}
	if entry.HasClassification {
		cols = append(cols, "classification_level INTEGER NOT NULL DEFAULT 0")
	}
	if entry.OrgColumn == "organization_id" {
		cols = append(cols, "organization_id TEXT NOT NULL DEFAULT ''")
	}
	cols = append(cols, "updated_at TEXT NOT NULL DEFAULT ''")

	return fmt.Sprintf("\nCREATE TABLE IF NOT EXISTS %s (\n\t%s\n);\n",
		entry.Table, strings.Join(cols, ",\n\t"))
}
