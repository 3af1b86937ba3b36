// Package particle provides the data structures and parsing functionality for
// particle effect definitions.
//
// An effect definition names the units (emitters, initializers, operators,
// force generators and constraints) that run on one particle collection, in
// order, together with their string parameters. Definitions may nest child
// effects, which become child collections of the parent at runtime.
//
// Parameter values stay strings here; each unit type parses its own
// parameters against its schema when the definition is built.
package particle

// EffectConfig represents one particle effect definition.
type EffectConfig struct {
	// Name is the unique identifier for this effect
	Name string `yaml:"name"`

	// MaxParticles caps the number of live particles in the collection
	MaxParticles int `yaml:"maxParticles"`

	// InitialParticles are created (and initialized) when the collection is created
	InitialParticles int `yaml:"initialParticles,omitempty"`

	Emitters     []UnitConfig `yaml:"emitters,omitempty"`
	Initializers []UnitConfig `yaml:"initializers,omitempty"`
	Operators    []UnitConfig `yaml:"operators,omitempty"`
	Forces       []UnitConfig `yaml:"forces,omitempty"`
	Constraints  []UnitConfig `yaml:"constraints,omitempty"`

	// Children are simulated after this collection every step
	Children []EffectConfig `yaml:"children,omitempty"`
}

// UnitConfig is one configured unit instance.
//
// Params use string values in the formats understood by the value parser:
//   - Fixed values: "1500"
//   - Ranges: "[0.7 0.9]"
//   - Vectors: "0 0 -400"
//   - Colors: "255 128 0" or "255 128 0 255"
//   - Keyframes: "0,1 0.5,2 1,0" (time,value pairs), optionally with "Linear", "EaseIn", ...
//   - Booleans: "1", "0", "true", "false"
type UnitConfig struct {
	// Type is the registered unit name (e.g. "basic_movement")
	Type string `yaml:"type"`

	// Params holds the unit's parameters; missing keys use schema defaults
	Params map[string]string `yaml:"params,omitempty"`

	// OpFadeIn ramps the unit's strength from 0 to 1 over [start, end] seconds of collection time
	OpFadeIn []float64 `yaml:"opFadeIn,omitempty"`

	// OpFadeOut ramps the unit's strength from 1 to 0 over [start, end] seconds of collection time
	OpFadeOut []float64 `yaml:"opFadeOut,omitempty"`
}

// EffectLibrary is a YAML document holding several effect definitions.
type EffectLibrary struct {
	Effects []EffectConfig `yaml:"effects"`
}
