package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/twine/pkg/types"
)

func TestLookupCoversEveryEntityType(t *testing.T) {
	for _, et := range []string{
		types.EntityDossier, types.EntityPosition, types.EntityMoU,
		types.EntityEngagement, types.EntityAssignment, types.EntityCommitment,
		types.EntityIntelligenceSignal, types.EntityOrganization,
		types.EntityCountry, types.EntityForum, types.EntityWorkingGroup,
		types.EntityTopic,
	} {
		e, ok := Lookup(et)
		assert.True(t, ok, "missing registry entry for %s", et)
		assert.NotEmpty(t, e.Table, "empty table for %s", et)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, ok := Lookup("meeting")
	assert.False(t, ok)
}

func TestArchivedIndicators(t *testing.T) {
	// Dossiers archive via status; every other type via archived_at.
	d, _ := Lookup(types.EntityDossier)
	assert.True(t, d.ArchivedByStatus)

	for _, et := range EntityTypes() {
		if et == types.EntityDossier {
			continue
		}
		e, _ := Lookup(et)
		assert.False(t, e.ArchivedByStatus, "%s should archive via timestamp", et)
	}
}

func TestOrganizationBoundaries(t *testing.T) {
	// Countries cross organization boundaries freely; organizations own
	// themselves.
	c, _ := Lookup(types.EntityCountry)
	assert.Empty(t, c.OrgColumn)

	o, _ := Lookup(types.EntityOrganization)
	assert.Equal(t, "id", o.OrgColumn)
}
