package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/mesh-intelligence/twine/pkg/types"
)

func TestAppendAndFetchAudit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &types.AuditRecord{
		LinkID:      "l1",
		ContainerID: "c1",
		Entity:      types.EntityRef{Type: types.EntityDossier, ID: "d1"},
		Action:      types.AuditCreated,
		ActorID:     "user-1",
		Payload:     map[string]any{"link_type": "related"},
	}
	if err := s.AppendAudit(ctx, rec); err != nil {
		t.Fatalf("AppendAudit failed: %v", err)
	}
	if rec.AuditID == "" {
		t.Fatal("AuditID not generated")
	}

	records, err := s.AuditTrail(ctx, "c1", 10)
	if err != nil {
		t.Fatalf("AuditTrail failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.Action != types.AuditCreated || got.ActorID != "user-1" {
		t.Errorf("audit record mismatch: %+v", got)
	}
	if got.Payload["link_type"] != "related" {
		t.Errorf("payload not round-tripped: %v", got.Payload)
	}
}

func TestAuditTrailOrderAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, action := range []string{types.AuditCreated, types.AuditUpdated, types.AuditDeleted} {
		err := s.AppendAudit(ctx, &types.AuditRecord{
			ContainerID: "c1",
			Action:      action,
			ActorID:     "user-1",
		})
		if err != nil {
			t.Fatalf("AppendAudit failed: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	records, err := s.AuditTrail(ctx, "c1", 2)
	if err != nil {
		t.Fatalf("AuditTrail failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("limit not applied, got %d records", len(records))
	}
	if records[0].Action != types.AuditDeleted {
		t.Errorf("expected newest first, got %s", records[0].Action)
	}
}
