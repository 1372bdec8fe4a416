// Tests for link row accessors: conditional updates, soft delete/restore,
// ordering, and the reverse lookup.
package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mesh-intelligence/twine/pkg/types"
)

func TestCreateAndGetLink(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	conf := 0.85
	link := testLink("c1")
	link.Confidence = &conf
	link.Notes = "seed note"
	link.Source = types.SourceAI
	link.SuggestedBy = "run-7"

	if err := s.CreateLink(ctx, link); err != nil {
		t.Fatalf("CreateLink failed: %v", err)
	}
	if link.LinkID == "" {
		t.Fatal("LinkID not generated")
	}
	if link.Version != 1 {
		t.Errorf("new link version = %d, want 1", link.Version)
	}

	got, err := s.GetLink(ctx, link.LinkID)
	if err != nil {
		t.Fatalf("GetLink failed: %v", err)
	}
	if got.ContainerID != "c1" || got.Entity.ID != "d1" || got.Notes != "seed note" {
		t.Errorf("hydrated link mismatch: %+v", got)
	}
	if got.Confidence == nil || *got.Confidence != 0.85 {
		t.Errorf("confidence not round-tripped: %v", got.Confidence)
	}
	if got.Source != types.SourceAI || got.SuggestedBy != "run-7" {
		t.Errorf("provenance not round-tripped: %+v", got)
	}
	if !got.Active() {
		t.Error("new link should be active")
	}
}

func TestGetLinkNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetLink(context.Background(), "missing")
	if !errors.Is(err, types.ErrLinkNotFound) {
		t.Errorf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestLinksOrdering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, order := range []int{3, 1, 2} {
		link := testLink("c1")
		link.Entity.ID = string(rune('a' + i))
		link.LinkOrder = order
		if err := s.CreateLink(ctx, link); err != nil {
			t.Fatalf("CreateLink failed: %v", err)
		}
	}

	links, err := s.Links(ctx, "c1", false)
	if err != nil {
		t.Fatalf("Links failed: %v", err)
	}
	if len(links) != 3 {
		t.Fatalf("expected 3 links, got %d", len(links))
	}
	for i, want := range []int{1, 2, 3} {
		if links[i].LinkOrder != want {
			t.Errorf("position %d has order %d, want %d", i, links[i].LinkOrder, want)
		}
	}
}

func TestLinksIncludeDeleted(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	link := testLink("c1")
	if err := s.CreateLink(ctx, link); err != nil {
		t.Fatalf("CreateLink failed: %v", err)
	}
	if _, err := s.SoftDeleteLink(ctx, link.LinkID, "user-2"); err != nil {
		t.Fatalf("SoftDeleteLink failed: %v", err)
	}

	active, err := s.Links(ctx, "c1", false)
	if err != nil {
		t.Fatalf("Links failed: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("deleted link returned in active set")
	}

	all, err := s.Links(ctx, "c1", true)
	if err != nil {
		t.Fatalf("Links(includeDeleted) failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 link with deleted included, got %d", len(all))
	}
	if all[0].DeletedAt == nil || all[0].DeletedBy != "user-2" {
		t.Errorf("soft-delete fields not persisted: %+v", all[0])
	}
}

func TestMaxLinkOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	max, err := s.MaxLinkOrder(ctx, "c1")
	if err != nil {
		t.Fatalf("MaxLinkOrder failed: %v", err)
	}
	if max != 0 {
		t.Errorf("empty container max order = %d, want 0", max)
	}

	link := testLink("c1")
	link.LinkOrder = 7
	if err := s.CreateLink(ctx, link); err != nil {
		t.Fatalf("CreateLink failed: %v", err)
	}

	max, err = s.MaxLinkOrder(ctx, "c1")
	if err != nil {
		t.Fatalf("MaxLinkOrder failed: %v", err)
	}
	if max != 7 {
		t.Errorf("max order = %d, want 7", max)
	}
}

func TestHasActiveLink(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	link := testLink("c1")
	link.LinkType = types.LinkPrimary
	if err := s.CreateLink(ctx, link); err != nil {
		t.Fatalf("CreateLink failed: %v", err)
	}

	has, err := s.HasActiveLink(ctx, "c1", types.LinkPrimary)
	if err != nil {
		t.Fatalf("HasActiveLink failed: %v", err)
	}
	if !has {
		t.Error("expected active primary link")
	}

	// Soft-deleting frees the slot.
	if _, err := s.SoftDeleteLink(ctx, link.LinkID, "user-1"); err != nil {
		t.Fatalf("SoftDeleteLink failed: %v", err)
	}
	has, err = s.HasActiveLink(ctx, "c1", types.LinkPrimary)
	if err != nil {
		t.Fatalf("HasActiveLink failed: %v", err)
	}
	if has {
		t.Error("deleted link still counts as active")
	}
}

func TestUniqueLinkTypeEnforcedByStore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := testLink("c1")
	first.LinkType = types.LinkPrimary
	if err := s.CreateLink(ctx, first); err != nil {
		t.Fatalf("CreateLink failed: %v", err)
	}

	// A second active primary in the same container is rejected at the
	// store even when no caller checked first.
	second := testLink("c1")
	second.Entity.ID = "d2"
	second.LinkType = types.LinkPrimary
	if err := s.CreateLink(ctx, second); err == nil {
		t.Fatal("second active primary link was accepted")
	}

	// Non-unique types and other containers are unaffected.
	related := testLink("c1")
	related.Entity.ID = "d3"
	if err := s.CreateLink(ctx, related); err != nil {
		t.Fatalf("CreateLink for related failed: %v", err)
	}
	elsewhere := testLink("c2")
	elsewhere.LinkType = types.LinkPrimary
	if err := s.CreateLink(ctx, elsewhere); err != nil {
		t.Fatalf("CreateLink in other container failed: %v", err)
	}

	// Soft-deleting the holder frees the slot again.
	if _, err := s.SoftDeleteLink(ctx, first.LinkID, "user-1"); err != nil {
		t.Fatalf("SoftDeleteLink failed: %v", err)
	}
	if err := s.CreateLink(ctx, second); err != nil {
		t.Errorf("primary link rejected after slot was freed: %v", err)
	}
}

func TestUpdateLinkVersioned(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	link := testLink("c1")
	if err := s.CreateLink(ctx, link); err != nil {
		t.Fatalf("CreateLink failed: %v", err)
	}

	link.Notes = "updated"
	if err := s.UpdateLink(ctx, link, 1); err != nil {
		t.Fatalf("UpdateLink failed: %v", err)
	}
	if link.Version != 2 {
		t.Errorf("version after update = %d, want 2", link.Version)
	}

	// A stale version must not mutate stored state.
	stale := link.Clone()
	stale.Notes = "stale write"
	if err := s.UpdateLink(ctx, stale, 1); !errors.Is(err, types.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	got, err := s.GetLink(ctx, link.LinkID)
	if err != nil {
		t.Fatalf("GetLink failed: %v", err)
	}
	if got.Notes != "updated" || got.Version != 2 {
		t.Errorf("stale write mutated state: %+v", got)
	}
}

func TestUpdateLinkNotFound(t *testing.T) {
	s := openTestStore(t)

	link := testLink("c1")
	link.LinkID = "missing"
	if err := s.UpdateLink(context.Background(), link, 1); !errors.Is(err, types.ErrLinkNotFound) {
		t.Errorf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestUpdateDeletedLink(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	link := testLink("c1")
	if err := s.CreateLink(ctx, link); err != nil {
		t.Fatalf("CreateLink failed: %v", err)
	}
	deleted, err := s.SoftDeleteLink(ctx, link.LinkID, "user-1")
	if err != nil {
		t.Fatalf("SoftDeleteLink failed: %v", err)
	}

	deleted.Notes = "necromancy"
	if err := s.UpdateLink(ctx, deleted, deleted.Version); !errors.Is(err, types.ErrLinkNotFound) {
		t.Errorf("update of deleted link: expected ErrLinkNotFound, got %v", err)
	}
}

func TestSoftDeleteAndRestore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	link := testLink("c1")
	link.Notes = "keep me"
	if err := s.CreateLink(ctx, link); err != nil {
		t.Fatalf("CreateLink failed: %v", err)
	}

	deleted, err := s.SoftDeleteLink(ctx, link.LinkID, "user-2")
	if err != nil {
		t.Fatalf("SoftDeleteLink failed: %v", err)
	}
	if deleted.DeletedAt == nil || deleted.DeletedBy != "user-2" {
		t.Errorf("delete fields not set: %+v", deleted)
	}
	if deleted.Version != 2 {
		t.Errorf("version after delete = %d, want 2", deleted.Version)
	}

	// Repeated delete reports already-deleted, not silent success.
	if _, err := s.SoftDeleteLink(ctx, link.LinkID, "user-2"); !errors.Is(err, types.ErrLinkAlreadyDeleted) {
		t.Errorf("expected ErrLinkAlreadyDeleted, got %v", err)
	}

	restored, err := s.RestoreLink(ctx, link.LinkID)
	if err != nil {
		t.Fatalf("RestoreLink failed: %v", err)
	}
	if restored.DeletedAt != nil || restored.DeletedBy != "" {
		t.Errorf("restore did not clear delete fields: %+v", restored)
	}
	if restored.Notes != "keep me" || restored.LinkType != link.LinkType {
		t.Errorf("restore changed link content: %+v", restored)
	}
	if restored.Version != 3 {
		t.Errorf("version after restore = %d, want 3", restored.Version)
	}

	// Restoring an active link is an error.
	if _, err := s.RestoreLink(ctx, link.LinkID); !errors.Is(err, types.ErrLinkNotDeleted) {
		t.Errorf("expected ErrLinkNotDeleted, got %v", err)
	}
}

func TestSoftDeleteNotFound(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.SoftDeleteLink(context.Background(), "missing", "u"); !errors.Is(err, types.ErrLinkNotFound) {
		t.Errorf("expected ErrLinkNotFound, got %v", err)
	}
	if _, err := s.RestoreLink(context.Background(), "missing"); !errors.Is(err, types.ErrLinkNotFound) {
		t.Errorf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestContainersForEntity(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ref := types.EntityRef{Type: types.EntityDossier, ID: "d1"}
	for i, cid := range []string{"c1", "c2", "c3"} {
		link := testLink(cid)
		link.Entity = ref
		if i == 2 {
			link.LinkType = types.LinkPrimary
		}
		if err := s.CreateLink(ctx, link); err != nil {
			t.Fatalf("CreateLink failed: %v", err)
		}
		// Distinct created_at values keep the newest-first order stable.
		time.Sleep(2 * time.Millisecond)
	}

	page, err := s.ContainersForEntity(ctx, ref, types.ContainerQuery{MaxClassification: -1})
	if err != nil {
		t.Fatalf("ContainersForEntity failed: %v", err)
	}
	if page.TotalCount != 3 || len(page.Items) != 3 {
		t.Fatalf("expected 3 results, got total=%d len=%d", page.TotalCount, len(page.Items))
	}
	if page.Items[0].ContainerID != "c3" {
		t.Errorf("expected newest container first, got %s", page.Items[0].ContainerID)
	}

	// Link-type filter.
	page, err = s.ContainersForEntity(ctx, ref, types.ContainerQuery{
		LinkType: types.LinkPrimary, MaxClassification: -1,
	})
	if err != nil {
		t.Fatalf("filtered lookup failed: %v", err)
	}
	if page.TotalCount != 1 || page.Items[0].ContainerID != "c3" {
		t.Errorf("link-type filter wrong: %+v", page)
	}

	// Pagination.
	page, err = s.ContainersForEntity(ctx, ref, types.ContainerQuery{
		Page: 2, PageSize: 2, MaxClassification: -1,
	})
	if err != nil {
		t.Fatalf("paged lookup failed: %v", err)
	}
	if page.TotalPages != 2 || len(page.Items) != 1 {
		t.Errorf("pagination wrong: pages=%d len=%d", page.TotalPages, len(page.Items))
	}
}

func TestContainersForEntityClearanceFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.UpsertContainer(ctx, "c-low", "Low", 1, "org-1"); err != nil {
		t.Fatalf("UpsertContainer failed: %v", err)
	}
	if err := s.UpsertContainer(ctx, "c-high", "High", 4, "org-1"); err != nil {
		t.Fatalf("UpsertContainer failed: %v", err)
	}

	ref := types.EntityRef{Type: types.EntityDossier, ID: "d1"}
	for _, cid := range []string{"c-low", "c-high"} {
		link := testLink(cid)
		link.Entity = ref
		if err := s.CreateLink(ctx, link); err != nil {
			t.Fatalf("CreateLink failed: %v", err)
		}
	}

	page, err := s.ContainersForEntity(ctx, ref, types.ContainerQuery{MaxClassification: 2})
	if err != nil {
		t.Fatalf("clearance-filtered lookup failed: %v", err)
	}
	if page.TotalCount != 1 || page.Items[0].ContainerID != "c-low" {
		t.Errorf("clearance filter wrong: %+v", page)
	}
}
