// Package testutil provides shared test helpers: a quiet logger, a
// temp-file inventory store, and an in-memory fake transport.
package testutil

import (
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/Gibrhan/Autoconf/internal/inventory"
	"github.com/Gibrhan/Autoconf/internal/transport"
)

// Logger returns a no-op zap logger for use in tests.
func Logger() *zap.Logger {
	return zap.NewNop()
}

// NewInventory creates a FileStore backed by a temp file pre-populated with
// the given devices.
func NewInventory(t *testing.T, devices ...inventory.Device) *inventory.FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devices.yaml")
	store := inventory.NewFileStore(path, Logger())
	if len(devices) > 0 {
		if err := store.Save(devices); err != nil {
			t.Fatalf("testutil.NewInventory: %v", err)
		}
	}
	return store
}

// FakeConn is a scripted transport.Conn. Each command returns the mapped
// output, or an error when the output starts with "ERR:".
type FakeConn struct {
	Outputs map[string]string // command -> output
	Ran     []string          // commands in execution order
	Closed  bool
}

// Run returns the scripted output for command.
func (c *FakeConn) Run(command string) (string, error) {
	c.Ran = append(c.Ran, command)
	out, ok := c.Outputs[command]
	if !ok {
		return "", errors.New("command rejected: " + command)
	}
	if len(out) > 4 && out[:4] == "ERR:" {
		return "", errors.New(out[4:])
	}
	return out, nil
}

// RunConfigSet records the lines and returns a transcript.
func (c *FakeConn) RunConfigSet(commands []string) (string, error) {
	transcript := ""
	for _, cmd := range commands {
		out, err := c.Run(cmd)
		if err != nil {
			return transcript, err
		}
		transcript += out + "\n"
	}
	return transcript, nil
}

// Persist records the save command.
func (c *FakeConn) Persist() (string, error) {
	return c.Run("write memory")
}

// Close marks the connection closed.
func (c *FakeConn) Close() {
	c.Closed = true
}

// FakeTransport returns a scripted connection per Open, or OpenErr.
type FakeTransport struct {
	Conn    *FakeConn
	OpenErr error
	Opened  []string // device names in open order
}

// Compile-time interface guards.
var (
	_ transport.Opener = (*FakeTransport)(nil)
	_ transport.Conn   = (*FakeConn)(nil)
)

// Open returns the scripted connection.
func (f *FakeTransport) Open(dev inventory.Device) (transport.Conn, error) {
	f.Opened = append(f.Opened, dev.Name)
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	if f.Conn == nil {
		f.Conn = &FakeConn{Outputs: map[string]string{}}
	}
	return f.Conn, nil
}
