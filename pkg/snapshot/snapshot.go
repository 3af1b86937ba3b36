// Package snapshot saves and restores particle collection trees.
//
// A snapshot is a gob encoded File: a format version, the save time, and
// the collection tree state. Snapshots go either to plain files (Save /
// Load) or to named slots in a gdata store (Store), which picks the
// platform's data directory.
package snapshot

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gonewx/particleops/pkg/particles"
)

// Version is bumped whenever the encoded State layout changes.
const Version = 1

// File is the encoded form of one snapshot.
type File struct {
	Version int
	SavedAt time.Time
	Effect  string
	State   particles.State
}

// Capture builds a File from a collection tree.
func Capture(c *particles.Collection) *File {
	return &File{
		Version: Version,
		SavedAt: time.Now(),
		Effect:  c.Name(),
		State:   c.State(),
	}
}

// Apply restores f into c. The collection must come from the same effect
// definition the snapshot was taken from.
func (f *File) Apply(c *particles.Collection) error {
	if f.Version != Version {
		return fmt.Errorf("unsupported snapshot version %d (want %d)", f.Version, Version)
	}
	if err := c.RestoreState(f.State); err != nil {
		return fmt.Errorf("failed to restore snapshot of %s: %w", f.Effect, err)
	}
	return nil
}

// Encode writes f to w.
func (f *File) Encode(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// Decode reads a File from r.
func Decode(r io.Reader) (*File, error) {
	var f File
	if err := gob.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &f, nil
}

// Marshal encodes f into a byte slice.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save captures c into the file at path.
func Save(path string, c *particles.Collection) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer file.Close()

	if err := Capture(c).Encode(file); err != nil {
		return err
	}
	log.Printf("[Snapshot] Saved %s at t=%.3f to %s", c.Name(), c.CurrentTime(), path)
	return nil
}

// Load reads the snapshot at path.
func Load(path string) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()
	return Decode(file)
}
