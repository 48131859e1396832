// Package inventory persists the managed device fleet in a YAML file.
// The file is re-read on every operation so external edits are picked up
// immediately; there is no cache and no cross-request consistency guarantee.
package inventory

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a device lookup matches nothing.
var ErrNotFound = errors.New("device not found")

// Device is one managed network device. Name is the lookup key for the
// HTTP surface; uniqueness is assumed but not enforced, so duplicate names
// resolve to the first match. ID is assigned by the CRUD surface.
type Device struct {
	ID         int    `yaml:"id,omitempty" json:"id"`
	Name       string `yaml:"name" json:"name"`
	Host       string `yaml:"host" json:"host"`
	Username   string `yaml:"username" json:"username"`
	Password   string `yaml:"password" json:"password"`
	Secret     string `yaml:"secret,omitempty" json:"secret"`
	DeviceType string `yaml:"device_type" json:"device_type"`
}

// file is the on-disk document shape: devices nested under a top-level key.
type file struct {
	Devices []Device `yaml:"devices"`
}

// FileStore reads and writes the inventory file.
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore creates a store backed by the YAML file at path.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Load returns all devices. A missing or malformed file is logged and
// yields an empty slice, never an error, so callers always see a fleet.
func (s *FileStore) Load() []Device {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Warn("inventory file unreadable", zap.String("path", s.path), zap.Error(err))
		return []Device{}
	}

	var doc file
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		s.logger.Warn("inventory file malformed", zap.String("path", s.path), zap.Error(err))
		return []Device{}
	}
	if doc.Devices == nil {
		return []Device{}
	}
	return doc.Devices
}

// Save overwrites the inventory file with the full device list. There is no
// atomic replace or locking; concurrent writers can interleave.
func (s *FileStore) Save(devices []Device) error {
	raw, err := yaml.Marshal(file{Devices: devices})
	if err != nil {
		return fmt.Errorf("marshal inventory: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write inventory %q: %w", s.path, err)
	}
	return nil
}

// FindByName returns the first device whose name matches.
func (s *FileStore) FindByName(name string) (*Device, error) {
	for _, d := range s.Load() {
		if d.Name == name {
			dev := d
			return &dev, nil
		}
	}
	return nil, ErrNotFound
}

// FindByID returns the device with the given CRUD identifier.
func (s *FileStore) FindByID(id int) (*Device, error) {
	for _, d := range s.Load() {
		if d.ID == id {
			dev := d
			return &dev, nil
		}
	}
	return nil, ErrNotFound
}

// NextID returns max existing ID + 1, or 1 for an empty inventory.
func NextID(devices []Device) int {
	next := 1
	for _, d := range devices {
		if d.ID >= next {
			next = d.ID + 1
		}
	}
	return next
}
