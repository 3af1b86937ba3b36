package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"

	"github.com/gonewx/particleops/pkg/particles"
)

// ErrNotFound is returned by Store.Load for an empty slot.
var ErrNotFound = errors.New("snapshot slot not found")

// 存储路径常量：每个槽位是 snapshots 对象下的一个属性
const snapshotObject = "snapshots"

// Store keeps snapshots in named slots of a gdata manager. A Store with a
// nil manager degrades to a no-op: Save succeeds without persisting and
// every slot reads as missing.
type Store struct {
	gdataManager *gdata.Manager
}

// NewStore wraps a gdata manager, which may be nil.
func NewStore(gdataManager *gdata.Manager) *Store {
	return &Store{gdataManager: gdataManager}
}

// OpenStore opens the gdata storage of appName and wraps it.
func OpenStore(appName string) (*Store, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot storage: %w", err)
	}
	return NewStore(m), nil
}

// Persistent reports whether snapshots actually reach storage.
func (s *Store) Persistent() bool { return s.gdataManager != nil }

// Exists reports whether slot holds a snapshot.
func (s *Store) Exists(slot string) bool {
	if s.gdataManager == nil {
		return false
	}
	return s.gdataManager.ObjectPropExists(snapshotObject, slot)
}

// Save captures c into slot, replacing its previous content.
func (s *Store) Save(slot string, c *particles.Collection) error {
	if slot == "" {
		return fmt.Errorf("snapshot slot name is empty")
	}
	if s.gdataManager == nil {
		return nil
	}
	data, err := Capture(c).Marshal()
	if err != nil {
		return err
	}
	if err := s.gdataManager.SaveObjectProp(snapshotObject, slot, data); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", slot, err)
	}
	log.Printf("[Snapshot] Saved %s to slot %q (%d bytes)", c.Name(), slot, len(data))
	return nil
}

// Load reads the snapshot in slot.
func (s *Store) Load(slot string) (*File, error) {
	if !s.Exists(slot) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slot)
	}
	data, err := s.gdataManager.LoadObjectProp(snapshotObject, slot)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", slot, err)
	}
	return Decode(bytes.NewReader(data))
}

// Restore loads slot and applies it to c.
func (s *Store) Restore(slot string, c *particles.Collection) error {
	f, err := s.Load(slot)
	if err != nil {
		return err
	}
	return f.Apply(c)
}
