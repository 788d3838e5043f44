package domain

import (
	"context"
	"slices"
)

// OperationFunc computes the value of one outport.
// It is used both for the compile step, whose result is the compiled artifact,
// and for the execute step, whose result is the outport value.
type OperationFunc func(ctx context.Context, nc NodeContext) (any, error)

// InportSpec declares an input port of a component kind.
type InportSpec struct {
	Name  string
	Usage Usage
	// Initial is attached as a static value by Graph.InitializeNode when HasInitial is set.
	Initial    any
	HasInitial bool
}

// OutportSpec declares an output port of a component kind.
type OutportSpec struct {
	Name    string
	Usage   Usage
	Depends []string
	// Pass mirrors the same-named inport. Pass outports have no usage, depends or operations.
	Pass    bool
	Compile OperationFunc
	Execute OperationFunc
}

// Schema is the port table shared by every node of a component kind.
type Schema struct {
	Inports  []InportSpec
	Outports []OutportSpec
}

// Inport returns the inport declaration with the given name.
func (s *Schema) Inport(name string) (InportSpec, bool) {
	i := slices.IndexFunc(s.Inports, func(p InportSpec) bool { return p.Name == name })
	if i < 0 {
		return InportSpec{}, false
	}
	return s.Inports[i], true
}

// Outport returns the outport declaration with the given name.
func (s *Schema) Outport(name string) (OutportSpec, bool) {
	i := slices.IndexFunc(s.Outports, func(p OutportSpec) bool { return p.Name == name })
	if i < 0 {
		return OutportSpec{}, false
	}
	return s.Outports[i], true
}

// EffectiveDepends returns the inports an outport is computed from.
// For a pass outport this is the mirrored inport.
func (p OutportSpec) EffectiveDepends() []string {
	if p.Pass {
		return []string{p.Name}
	}
	return p.Depends
}

// Component is a node type. Kind names the type in project files.
type Component interface {
	Kind() string
	Schema() Schema
}

// NodeContext is the read view handed to an operation while it computes one outport.
// Every inport read is checked against the outport's declared dependencies.
type NodeContext interface {
	// Node returns the node being computed.
	Node() NodeID
	// Outport returns the outport being computed.
	Outport() string
	// Runtime is UsageStatic during compile and static execution, UsageDynamic otherwise.
	Runtime() Usage

	// Compiled returns the compiled artifact of the current outport.
	Compiled() (any, error)
	// CompiledFor returns the compiled artifact of another outport of the same node.
	CompiledFor(outport string) (any, error)

	// Require returns the cached value of inport. It fails when the inport has no source.
	Require(inport string) (any, error)
	// Statically is Require for inports that must resolve to static usage.
	Statically(inport string) (any, error)
	// Evaluate returns the cached value of inport, or ok=false when the inport is not fed
	// or when a static runtime reads a dynamic inport.
	Evaluate(inport string) (value any, ok bool, err error)

	// Usage returns the usage recorded for inport by the last static pull.
	Usage(inport string) (Usage, error)
	// Connected reports whether inport has an edge or an attachment.
	Connected(inport string) (bool, error)
}
