package types

// Entity type tags. The set is closed: every linkable record in the system
// carries exactly one of these tags, and the registry maps each tag to its
// storage location.
const (
	EntityDossier            = "dossier"
	EntityPosition           = "position"
	EntityMoU                = "mou"
	EntityEngagement         = "engagement"
	EntityAssignment         = "assignment"
	EntityCommitment         = "commitment"
	EntityIntelligenceSignal = "intelligence_signal"
	EntityOrganization       = "organization"
	EntityCountry            = "country"
	EntityForum              = "forum"
	EntityWorkingGroup       = "working_group"
	EntityTopic              = "topic"
)

// validEntityTypes is the set of recognized entity type tags.
var validEntityTypes = map[string]bool{
	EntityDossier:            true,
	EntityPosition:           true,
	EntityMoU:                true,
	EntityEngagement:         true,
	EntityAssignment:         true,
	EntityCommitment:         true,
	EntityIntelligenceSignal: true,
	EntityOrganization:       true,
	EntityCountry:            true,
	EntityForum:              true,
	EntityWorkingGroup:       true,
	EntityTopic:              true,
}

// ValidEntityType reports whether t is a recognized entity type tag.
func ValidEntityType(t string) bool {
	return validEntityTypes[t]
}

// EntityRef identifies a linkable record: a type tag plus the record ID.
type EntityRef struct {
	Type string `json:"entity_type"`
	ID   string `json:"entity_id"`
}

// EntityMeta is the metadata gateway's answer for one EntityRef.
// When Exists is false the remaining fields are zero and meaningless.
// Classification is 0 for unclassified records; OrganizationID is empty
// for entity types with no owning organization.
type EntityMeta struct {
	Exists         bool
	Archived       bool
	Name           string
	Classification int
	OrganizationID string
}
