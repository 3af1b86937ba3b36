package particles

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/particleops/internal/particle"
	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/controlpoint"
)

// ParamType is the value format of one unit parameter.
type ParamType int

const (
	ParamFloat ParamType = iota
	ParamInt
	ParamBool
	ParamVector
	ParamColor
	ParamRange
	ParamCurve
	ParamString
	ParamAttribute
	ParamControlPoint
)

func (t ParamType) String() string {
	switch t {
	case ParamFloat:
		return "float"
	case ParamInt:
		return "int"
	case ParamBool:
		return "bool"
	case ParamVector:
		return "vector"
	case ParamColor:
		return "color"
	case ParamRange:
		return "range"
	case ParamCurve:
		return "curve"
	case ParamString:
		return "string"
	case ParamAttribute:
		return "attribute"
	case ParamControlPoint:
		return "control_point"
	}
	return "unknown"
}

// ParamDef declares one named parameter with its string default.
type ParamDef struct {
	Name    string
	Type    ParamType
	Default string
	Help    string
}

// Curve is a parsed keyframe parameter.
type Curve struct {
	Keyframes     []particle.Keyframe
	Interpolation string
}

// Eval samples the curve at normalized time t.
func (c Curve) Eval(t float64) float64 {
	return particle.EvaluateKeyframes(c.Keyframes, t, c.Interpolation)
}

// Params resolves a unit's configured values against its schema. Getters
// record parse failures instead of returning them; the registry checks Err
// after the factory ran.
type Params struct {
	unit   string
	schema map[string]ParamDef
	values map[string]string
	errs   []error
}

// NewParams merges values over the schema defaults. Unknown keys are errors.
func NewParams(unit string, schema []ParamDef, values map[string]string) (*Params, error) {
	p := &Params{
		unit:   unit,
		schema: make(map[string]ParamDef, len(schema)),
		values: make(map[string]string, len(schema)),
	}
	for _, d := range schema {
		p.schema[d.Name] = d
		p.values[d.Name] = d.Default
	}

	var unknown []string
	for k, v := range values {
		if _, ok := p.schema[k]; !ok {
			unknown = append(unknown, k)
			continue
		}
		p.values[k] = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%s: unknown parameters %v", unit, unknown)
	}
	return p, nil
}

// Err returns every parse failure seen so far.
func (p *Params) Err() error {
	return errors.Join(p.errs...)
}

func (p *Params) raw(name string) string {
	if _, ok := p.schema[name]; !ok {
		p.errs = append(p.errs, fmt.Errorf("%s: parameter %q not in schema", p.unit, name))
		return ""
	}
	return p.values[name]
}

func (p *Params) fail(name string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%s: parameter %s: %w", p.unit, name, err))
}

// String returns the raw value.
func (p *Params) String(name string) string {
	return p.raw(name)
}

// Float parses a number.
func (p *Params) Float(name string) float64 {
	v, err := particle.ParseFloat(p.raw(name))
	if err != nil {
		p.fail(name, err)
	}
	return v
}

// Int parses an integer.
func (p *Params) Int(name string) int {
	v, err := particle.ParseInt(p.raw(name))
	if err != nil {
		p.fail(name, err)
	}
	return v
}

// Bool parses a boolean.
func (p *Params) Bool(name string) bool {
	v, err := particle.ParseBool(p.raw(name))
	if err != nil {
		p.fail(name, err)
	}
	return v
}

// Vector parses "x y z".
func (p *Params) Vector(name string) mgl64.Vec3 {
	v, err := particle.ParseVector(p.raw(name))
	if err != nil {
		p.fail(name, err)
	}
	return v
}

// Color parses "r g b [a]" (0-255) and returns rgb in 0-1.
func (p *Params) Color(name string) mgl64.Vec3 {
	c, err := particle.ParseColor(p.raw(name))
	if err != nil {
		p.fail(name, err)
	}
	return c.Vec3()
}

// Range parses "[min max]" or a single number.
func (p *Params) Range(name string) (min, max float64) {
	min, max, err := particle.ParseRange(p.raw(name))
	if err != nil {
		p.fail(name, err)
	}
	return min, max
}

// Curve parses a keyframe string. A single number becomes a constant curve.
func (p *Params) Curve(name string) Curve {
	min, _, kf, interp, err := particle.ParseValue(p.raw(name))
	if err != nil {
		p.fail(name, err)
		return Curve{}
	}
	if kf == nil {
		kf = []particle.Keyframe{{Time: 0, Value: min}}
	}
	return Curve{Keyframes: kf, Interpolation: interp}
}

// Attribute parses an attribute name.
func (p *Params) Attribute(name string) attribute.Kind {
	raw := p.raw(name)
	k, ok := attribute.ParseKind(raw)
	if !ok {
		p.fail(name, fmt.Errorf("unknown attribute %q", raw))
	}
	return k
}

// FloatAttribute parses an attribute name that must name a scalar column.
func (p *Params) FloatAttribute(name string) attribute.Kind {
	k := p.Attribute(name)
	if k.Valid() && k.Type() != attribute.TypeFloat {
		p.fail(name, fmt.Errorf("attribute %s is not a scalar", k))
	}
	return k
}

// ControlPoint parses a control point index in [0, MaxControlPoints).
func (p *Params) ControlPoint(name string) int {
	v := p.Int(name)
	if v < 0 || v >= controlpoint.MaxControlPoints {
		p.fail(name, fmt.Errorf("control point %d out of range", v))
		return 0
	}
	return v
}

// OrderedRange parses a pair of scalar parameters that must be ascending;
// inverted values are swapped with a warning.
func (p *Params) OrderedRange(lo, hi string) (float64, float64) {
	a, b := p.Float(lo), p.Float(hi)
	if a > b {
		log.Printf("[Registry] %s: %s (%v) > %s (%v), swapping", p.unit, lo, a, hi, b)
		a, b = b, a
	}
	return a, b
}
