package particle

import (
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseEffectFile reads a YAML effect library from disk.
//
// Parameters:
//   - path: File path to the YAML library (a document with an "effects" list)
//
// Returns:
//   - *EffectLibrary: Parsed library containing all effects
//   - error: Any error encountered during file reading, YAML parsing or validation
func ParseEffectFile(path string) (*EffectLibrary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read effect file %s: %w", path, err)
	}
	return ParseEffectBytes(data, path)
}

// ParseEffectFS reads a YAML effect library from a file system (e.g. the
// embedded data directory).
func ParseEffectFS(fsys fs.FS, path string) (*EffectLibrary, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read effect file %s: %w", path, err)
	}
	return ParseEffectBytes(data, path)
}

// ParseEffectBytes parses a YAML effect library. source is only used in
// error messages.
func ParseEffectBytes(data []byte, source string) (*EffectLibrary, error) {
	var lib EffectLibrary
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("failed to parse effect file %s: %w", source, err)
	}

	// Validate that we parsed at least one effect
	if len(lib.Effects) == 0 {
		return nil, fmt.Errorf("effect file %s contains no effects", source)
	}

	for i := range lib.Effects {
		if err := lib.Effects[i].Validate(); err != nil {
			return nil, fmt.Errorf("effect file %s: %w", source, err)
		}
	}

	return &lib, nil
}

// Find returns the effect with the given name.
func (l *EffectLibrary) Find(name string) (*EffectConfig, bool) {
	for i := range l.Effects {
		if l.Effects[i].Name == name {
			return &l.Effects[i], true
		}
	}
	return nil, false
}

// Names lists the effects in document order.
func (l *EffectLibrary) Names() []string {
	names := make([]string, len(l.Effects))
	for i, e := range l.Effects {
		names[i] = e.Name
	}
	return names
}

// Validate checks the structural parts of the definition. Parameter values
// are checked later against each unit's schema.
func (c *EffectConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("effect without name")
	}
	if c.MaxParticles < 0 {
		return fmt.Errorf("effect %s: maxParticles must be >= 0, got %d", c.Name, c.MaxParticles)
	}
	if c.InitialParticles < 0 {
		return fmt.Errorf("effect %s: initialParticles must be >= 0, got %d", c.Name, c.InitialParticles)
	}

	lists := []struct {
		name  string
		units []UnitConfig
	}{
		{"emitters", c.Emitters},
		{"initializers", c.Initializers},
		{"operators", c.Operators},
		{"forces", c.Forces},
		{"constraints", c.Constraints},
	}
	for _, l := range lists {
		for i, u := range l.units {
			if u.Type == "" {
				return fmt.Errorf("effect %s: %s[%d] has no type", c.Name, l.name, i)
			}
			if len(u.OpFadeIn) != 0 && len(u.OpFadeIn) != 2 {
				return fmt.Errorf("effect %s: %s[%d] opFadeIn needs [start end]", c.Name, l.name, i)
			}
			if len(u.OpFadeOut) != 0 && len(u.OpFadeOut) != 2 {
				return fmt.Errorf("effect %s: %s[%d] opFadeOut needs [start end]", c.Name, l.name, i)
			}
		}
	}

	for i := range c.Children {
		if err := c.Children[i].Validate(); err != nil {
			return fmt.Errorf("effect %s child: %w", c.Name, err)
		}
	}
	return nil
}
