package types

import "time"

// Link types. A link's type determines which entity types it may target and
// whether it is unique within its container.
const (
	LinkPrimary    = "primary"
	LinkRelated    = "related"
	LinkRequested  = "requested"
	LinkMentioned  = "mentioned"
	LinkAssignedTo = "assigned_to"
)

// Link provenance values.
const (
	SourceHuman  = "human"
	SourceAI     = "ai"
	SourceImport = "import"
)

// NotesMaxLen is the maximum length of a link note in Unicode code points.
const NotesMaxLen = 1000

// validLinkTypes is the set of recognized link type values.
var validLinkTypes = map[string]bool{
	LinkPrimary:    true,
	LinkRelated:    true,
	LinkRequested:  true,
	LinkMentioned:  true,
	LinkAssignedTo: true,
}

// validSources is the set of recognized provenance values.
var validSources = map[string]bool{
	SourceHuman:  true,
	SourceAI:     true,
	SourceImport: true,
}

// ValidLinkType reports whether t is a recognized link type.
func ValidLinkType(t string) bool {
	return validLinkTypes[t]
}

// ValidSource reports whether s is a recognized provenance value.
func ValidSource(s string) bool {
	return validSources[s]
}

// EntityLink associates a container (an intake ticket, or a position after
// migration) with a target entity. Links are soft-deleted, never removed:
// DeletedAt set means inactive, restorable. Version starts at 1 and
// increments by exactly 1 per successful mutation; writers must present the
// version they read.
type EntityLink struct {
	LinkID      string     `json:"id"`
	ContainerID string     `json:"container_id"`
	Entity      EntityRef  `json:"entity"`
	LinkType    string     `json:"link_type"`
	Source      string     `json:"source"`
	Confidence  *float64   `json:"confidence,omitempty"` // 0..1, AI-suggested links only
	Notes       string     `json:"notes,omitempty"`
	LinkOrder   int        `json:"link_order"` // display ordinal, >= 1
	Version     int        `json:"version"`
	LinkedBy    string     `json:"linked_by"`
	SuggestedBy string     `json:"suggested_by,omitempty"` // suggestion run that produced an AI link
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	DeletedBy   string     `json:"deleted_by,omitempty"`
}

// Active reports whether the link is not soft-deleted.
func (l *EntityLink) Active() bool {
	return l.DeletedAt == nil
}

// Clone returns a deep copy of the link.
func (l *EntityLink) Clone() *EntityLink {
	c := *l
	if l.Confidence != nil {
		v := *l.Confidence
		c.Confidence = &v
	}
	if l.DeletedAt != nil {
		t := *l.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}

// anchorEntityTypes may be the target of a primary link.
var anchorEntityTypes = map[string]bool{
	EntityDossier:      true,
	EntityCountry:      true,
	EntityOrganization: true,
	EntityForum:        true,
}

// requestableEntityTypes may be the target of a requested link.
var requestableEntityTypes = map[string]bool{
	EntityPosition:   true,
	EntityMoU:        true,
	EntityEngagement: true,
}

// AnchorEntityType reports whether entityType may carry a primary link.
func AnchorEntityType(entityType string) bool {
	return anchorEntityTypes[entityType]
}

// RequestableEntityType reports whether entityType may carry a requested link.
func RequestableEntityType(entityType string) bool {
	return requestableEntityTypes[entityType]
}

// AssignableEntityType reports whether entityType may carry an assigned_to link.
func AssignableEntityType(entityType string) bool {
	return entityType == EntityAssignment
}

// MigrationLinkType maps a source link's type to the type it carries after
// migration onto a position. Requested links become related (the request is
// fulfilled by the position itself); every other type maps to itself.
func MigrationLinkType(linkType string) string {
	if linkType == LinkRequested {
		return LinkRelated
	}
	return linkType
}
