package particles

import (
	"fmt"
	"sort"
)

// Class is the role a unit plays in a definition.
type Class int

const (
	ClassEmitter Class = iota
	ClassInitializer
	ClassOperator
	ClassForce
	ClassConstraint
)

func (c Class) String() string {
	switch c {
	case ClassEmitter:
		return "emitter"
	case ClassInitializer:
		return "initializer"
	case ClassOperator:
		return "operator"
	case ClassForce:
		return "force"
	case ClassConstraint:
		return "constraint"
	}
	return "unknown"
}

// Factory builds one unit type from resolved parameters.
type Factory struct {
	Name   string
	Class  Class
	Params []ParamDef
	Help   string
	New    func(p *Params) (Unit, error)
}

// Registry maps unit type names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Names are unique across classes.
func (r *Registry) Register(f Factory) error {
	if f.Name == "" || f.New == nil {
		return fmt.Errorf("factory needs a name and a constructor")
	}
	if _, dup := r.factories[f.Name]; dup {
		return fmt.Errorf("unit %q already registered", f.Name)
	}
	seen := make(map[string]bool, len(f.Params))
	for _, d := range f.Params {
		if seen[d.Name] {
			return fmt.Errorf("unit %q declares parameter %q twice", f.Name, d.Name)
		}
		seen[d.Name] = true
	}
	r.factories[f.Name] = f
	return nil
}

// MustRegister is Register for static tables; it panics on error.
func (r *Registry) MustRegister(fs ...Factory) {
	for _, f := range fs {
		if err := r.Register(f); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the factory for name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	f, ok := r.factories[name]
	return f, ok
}

// Names lists registered unit types, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Create resolves params and builds a unit of the expected class.
func (r *Registry) Create(class Class, typeName string, values map[string]string) (Unit, error) {
	f, ok := r.factories[typeName]
	if !ok {
		return nil, fmt.Errorf("unknown unit type %q", typeName)
	}
	if f.Class != class {
		return nil, fmt.Errorf("unit %q is a %s, not a %s", typeName, f.Class, class)
	}

	p, err := NewParams(typeName, f.Params, values)
	if err != nil {
		return nil, err
	}
	u, err := f.New(p)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", typeName, err)
	}
	if err := p.Err(); err != nil {
		return nil, err
	}

	if !implements(class, u) {
		return nil, fmt.Errorf("unit %q does not implement the %s contract", typeName, class)
	}
	if err := ValidateInfo(u.Info()); err != nil {
		return nil, err
	}
	return u, nil
}

func implements(class Class, u Unit) bool {
	switch class {
	case ClassEmitter:
		_, ok := u.(Emitter)
		return ok
	case ClassInitializer:
		_, ok := u.(Initializer)
		return ok
	case ClassOperator:
		_, ok := u.(Operator)
		return ok
	case ClassForce:
		_, ok := u.(ForceGenerator)
		return ok
	case ClassConstraint:
		_, ok := u.(Constraint)
		return ok
	}
	return false
}
