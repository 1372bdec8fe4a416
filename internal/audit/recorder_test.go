// Tests for the asynchronous audit recorder and payload builders.
package audit

import (
	"context"
	"testing"

	"github.com/mesh-intelligence/twine/internal/sqlite"
	"github.com/mesh-intelligence/twine/pkg/types"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(types.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleLink() *types.EntityLink {
	return &types.EntityLink{
		LinkID:      "l1",
		ContainerID: "t1",
		Entity:      types.EntityRef{Type: types.EntityDossier, ID: "d1"},
		LinkType:    types.LinkRelated,
		Source:      types.SourceHuman,
		LinkOrder:   1,
		Version:     1,
	}
}

func TestRecorderDrainsOnClose(t *testing.T) {
	s := openTestStore(t)
	r := NewRecorder(s)

	for i := 0; i < 5; i++ {
		r.Record(NewRecord(types.AuditCreated, sampleLink(), "analyst-1", nil))
	}
	r.Close()

	trail, err := s.AuditTrail(context.Background(), "t1", 10)
	if err != nil {
		t.Fatalf("AuditTrail failed: %v", err)
	}
	if len(trail) != 5 {
		t.Errorf("got %d records after drain, want 5", len(trail))
	}
}

func TestRecorderAfterClose(t *testing.T) {
	s := openTestStore(t)
	r := NewRecorder(s)
	r.Close()
	r.Close() // idempotent

	// Must drop silently, not panic on a closed channel.
	r.Record(NewRecord(types.AuditCreated, sampleLink(), "analyst-1", nil))

	trail, err := s.AuditTrail(context.Background(), "t1", 10)
	if err != nil {
		t.Fatalf("AuditTrail failed: %v", err)
	}
	if len(trail) != 0 {
		t.Errorf("got %d records, want 0", len(trail))
	}
}

func TestRecorderIgnoresNil(t *testing.T) {
	s := openTestStore(t)
	r := NewRecorder(s)
	r.Record(nil)
	r.Close()
}

func TestSnapshotPayload(t *testing.T) {
	link := sampleLink()
	conf := 0.85
	link.Confidence = &conf
	link.Notes = "intake review"

	p := SnapshotPayload(link)
	if p["link_type"] != types.LinkRelated {
		t.Errorf("link_type = %v", p["link_type"])
	}
	if p["confidence"] != 0.85 {
		t.Errorf("confidence = %v", p["confidence"])
	}
	if p["notes"] != "intake review" {
		t.Errorf("notes = %v", p["notes"])
	}
	if p["version"] != 1 {
		t.Errorf("version = %v", p["version"])
	}
}

func TestDiffPayload(t *testing.T) {
	before := sampleLink()
	after := before.Clone()
	after.Notes = "escalated"
	after.LinkOrder = 3
	after.Version = 2

	p := DiffPayload(before, after)
	changed := p["changed_fields"].(map[string]any)
	if len(changed) != 2 {
		t.Fatalf("changed fields = %v, want notes and link_order", changed)
	}
	notes := changed["notes"].(map[string]any)
	if notes["from"] != "" || notes["to"] != "escalated" {
		t.Errorf("notes diff = %v", notes)
	}
	order := changed["link_order"].(map[string]any)
	if order["from"] != 1 || order["to"] != 3 {
		t.Errorf("link_order diff = %v", order)
	}
	if p["version"] != 2 {
		t.Errorf("version = %v", p["version"])
	}
}

func TestDiffPayloadNoChanges(t *testing.T) {
	before := sampleLink()
	p := DiffPayload(before, before.Clone())
	if changed := p["changed_fields"].(map[string]any); len(changed) != 0 {
		t.Errorf("changed fields = %v, want empty", changed)
	}
}
