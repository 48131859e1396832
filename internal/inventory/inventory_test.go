package inventory

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devices.yaml")
	return NewFileStore(path, zap.NewNop())
}

func TestLoadMissingFile(t *testing.T) {
	s := newTestStore(t)

	devices := s.Load()
	if len(devices) != 0 {
		t.Errorf("len(devices) = %d, want 0", len(devices))
	}
}

func TestLoadMalformedFile(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.path, []byte("devices: [not yaml"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	// Malformed inventory is logged, not raised.
	devices := s.Load()
	if len(devices) != 0 {
		t.Errorf("len(devices) = %d, want 0", len(devices))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	want := []Device{
		{ID: 1, Name: "R1", Host: "192.168.1.1", Username: "admin", Password: "pw", Secret: "en", DeviceType: "cisco_ios"},
		{ID: 2, Name: "R2", Host: "192.168.1.2", Username: "admin", Password: "pw", DeviceType: "cisco_ios"},
	}
	if err := s.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got := s.Load()
	if len(got) != 2 {
		t.Fatalf("len(devices) = %d, want 2", len(got))
	}
	if got[0] != want[0] || got[1] != want[1] {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestFindByName(t *testing.T) {
	s := newTestStore(t)
	devices := []Device{
		{Name: "R1", Host: "10.0.0.1"},
		{Name: "R2", Host: "10.0.0.2"},
		{Name: "R1", Host: "10.0.0.99"}, // duplicate: first match wins
	}
	if err := s.Save(devices); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	d, err := s.FindByName("R1")
	if err != nil {
		t.Fatalf("FindByName(R1) error = %v", err)
	}
	if d.Host != "10.0.0.1" {
		t.Errorf("FindByName(R1).Host = %q, want first match 10.0.0.1", d.Host)
	}

	if _, err := s.FindByName("R9"); err != ErrNotFound {
		t.Errorf("FindByName(R9) error = %v, want ErrNotFound", err)
	}
}

func TestFindByID(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save([]Device{{ID: 7, Name: "R7", Host: "10.0.0.7"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	d, err := s.FindByID(7)
	if err != nil {
		t.Fatalf("FindByID(7) error = %v", err)
	}
	if d.Name != "R7" {
		t.Errorf("FindByID(7).Name = %q, want R7", d.Name)
	}

	if _, err := s.FindByID(8); err != ErrNotFound {
		t.Errorf("FindByID(8) error = %v, want ErrNotFound", err)
	}
}

func TestNextID(t *testing.T) {
	if got := NextID(nil); got != 1 {
		t.Errorf("NextID(empty) = %d, want 1", got)
	}
	if got := NextID([]Device{{ID: 3}, {ID: 1}}); got != 4 {
		t.Errorf("NextID = %d, want 4", got)
	}
}
