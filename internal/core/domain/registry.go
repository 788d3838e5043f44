package domain

import (
	"sync"

	"go.trai.ch/zerr"
)

// Registry maps component kind names to their validated schemas.
// A schema is validated once, when its kind is registered.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
	kinds   []string
}

// NewRegistry creates a registry holding the given components.
func NewRegistry(components ...Component) (*Registry, error) {
	r := &Registry{
		schemas: make(map[string]*Schema, len(components)),
	}
	for _, c := range components {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates the schema of c and adds it under c.Kind().
func (r *Registry) Register(c Component) error {
	kind := c.Kind()
	schema := c.Schema()
	if err := ValidateSchema(kind, &schema); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[kind]; exists {
		return zerr.With(ErrComponentAlreadyRegistered, "component", kind)
	}
	r.schemas[kind] = &schema
	r.kinds = append(r.kinds, kind)
	return nil
}

// Schema returns the schema registered for kind.
func (r *Registry) Schema(kind string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[kind]
	if !ok {
		return nil, zerr.With(ErrUnknownComponent, "component", kind)
	}
	return s, nil
}

// Kinds returns the registered kind names in registration order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.kinds))
	copy(out, r.kinds)
	return out
}

// ValidateSchema checks the structural rules every component kind must follow.
//
//nolint:cyclop // one branch per rule
func ValidateSchema(kind string, s *Schema) error {
	fail := func(base error, port, reason string) error {
		err := zerr.With(base, "component", kind)
		if port != "" {
			err = zerr.With(err, "port", port)
		}
		if reason != "" {
			err = zerr.With(err, "reason", reason)
		}
		return err
	}

	inports := make(map[string]InportSpec, len(s.Inports))
	for _, in := range s.Inports {
		if in.Name == "" {
			return fail(ErrMalformedComponent, "", "inport without name")
		}
		if _, dup := inports[in.Name]; dup {
			return fail(ErrMalformedComponent, in.Name, "duplicate inport")
		}
		if !in.Usage.Valid() {
			return fail(ErrInvalidUsage, in.Name, "")
		}
		inports[in.Name] = in
	}

	outports := make(map[string]struct{}, len(s.Outports))
	for _, out := range s.Outports {
		if out.Name == "" {
			return fail(ErrMalformedComponent, "", "outport without name")
		}
		if _, dup := outports[out.Name]; dup {
			return fail(ErrMalformedComponent, out.Name, "duplicate outport")
		}
		outports[out.Name] = struct{}{}

		if !out.Usage.Valid() {
			return fail(ErrInvalidUsage, out.Name, "")
		}

		if out.Pass {
			if _, ok := inports[out.Name]; !ok {
				return fail(ErrMalformedComponent, out.Name, "pass outport has no inport of the same name")
			}
			if out.Usage != UsageUnspecified || len(out.Depends) > 0 {
				return fail(ErrMalformedComponent, out.Name, "pass outport declares usage or depends")
			}
			if out.Compile != nil || out.Execute != nil {
				return fail(ErrMalformedComponent, out.Name, "pass outport declares operations")
			}
			continue
		}

		if out.Execute == nil {
			return fail(ErrMalformedComponent, out.Name, "outport has no execute operation")
		}
		if !out.Usage.Resolved() && len(out.Depends) == 0 {
			return fail(ErrInheritWithoutDepends, out.Name, "")
		}
		for _, dep := range out.Depends {
			in, ok := inports[dep]
			if !ok {
				return fail(ErrInportNotFound, out.Name, "depends on "+dep)
			}
			if out.Usage == UsageStatic && in.Usage != UsageStatic {
				return fail(ErrMalformedComponent, out.Name, "static outport depends on non-static inport "+dep)
			}
		}
	}

	return nil
}
