package audit

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/Gibrhan/Autoconf/internal/store"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	r, err := NewRecorder(s, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	return r
}

func TestRecordAndList(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	r.Record(ctx, Entry{Username: "admin", Action: "security.audit", Device: "R1"})
	r.Record(ctx, Entry{Username: "admin", Action: "maintenance.backup", Device: "R2", Detail: "backup_R2.txt"})

	entries, err := r.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	// Newest first.
	if entries[0].Action != "maintenance.backup" {
		t.Errorf("entries[0].Action = %q, want maintenance.backup", entries[0].Action)
	}
	if entries[1].Device != "R1" {
		t.Errorf("entries[1].Device = %q, want R1", entries[1].Device)
	}
	if entries[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be populated")
	}
}

func TestListEmpty(t *testing.T) {
	r := newTestRecorder(t)

	entries, err := r.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0", len(entries))
	}
}

func TestListLimit(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()
	for range 5 {
		r.Record(ctx, Entry{Username: "admin", Action: "ping"})
	}

	entries, err := r.List(ctx, 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("len(entries) = %d, want 3", len(entries))
	}
}
