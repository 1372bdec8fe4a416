// This file implements sample-data seeding for local development. Seeding
// writes a handful of entities and one container so the CLI has something to
// link against straight after init.
package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/twine/pkg/types"
)

// sampleEntity describes one entity to seed.
type sampleEntity struct {
	ref            types.EntityRef
	name           string
	classification int
	orgID          string
}

// sampleEntities is the development fixture set. All records belong to the
// seed organization so a seed actor can link to every one of them.
var sampleEntities = []sampleEntity{
	{types.EntityRef{Type: types.EntityOrganization, ID: "seed-org"}, "Seed Organization", 0, ""},
	{types.EntityRef{Type: types.EntityDossier, ID: "seed-dossier"}, "Bilateral Relations Dossier", 1, "seed-org"},
	{types.EntityRef{Type: types.EntityCountry, ID: "seed-country"}, "Seedland", 0, ""},
	{types.EntityRef{Type: types.EntityForum, ID: "seed-forum"}, "Annual Cooperation Forum", 0, "seed-org"},
	{types.EntityRef{Type: types.EntityPosition, ID: "seed-position"}, "Opening Position", 1, "seed-org"},
	{types.EntityRef{Type: types.EntityMoU, ID: "seed-mou"}, "Trade MoU", 1, "seed-org"},
	{types.EntityRef{Type: types.EntityAssignment, ID: "seed-assignment"}, "Review Assignment", 0, "seed-org"},
}

// Seed writes the development fixtures. Idempotent: rerunning overwrites the
// same rows.
func (s *Store) Seed(ctx context.Context) error {
	for _, e := range sampleEntities {
		if err := s.UpsertEntity(ctx, e.ref, e.name, false, e.classification, e.orgID); err != nil {
			return fmt.Errorf("seeding %s %s: %w", e.ref.Type, e.ref.ID, err)
		}
	}
	if err := s.UpsertContainer(ctx, "seed-intake", "Seed Intake Ticket", 1, "seed-org"); err != nil {
		return fmt.Errorf("seeding container: %w", err)
	}
	return nil
}
