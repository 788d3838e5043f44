package scheduler

import (
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/cache"
	"go.trai.ch/zerr"
)

// nodeContext is the domain.NodeContext handed to one operation of one outport.
type nodeContext struct {
	graph   ports.Graph
	store   *cache.Store
	node    domain.NodeID
	outport string
	runtime domain.Usage
	depends []string
}

var _ domain.NodeContext = (*nodeContext)(nil)

func (c *nodeContext) Node() domain.NodeID   { return c.node }
func (c *nodeContext) Outport() string       { return c.outport }
func (c *nodeContext) Runtime() domain.Usage { return c.runtime }

func (c *nodeContext) Compiled() (any, error) {
	return c.CompiledFor(c.outport)
}

func (c *nodeContext) CompiledFor(outport string) (any, error) {
	st, err := c.store.Compiled(c.node, outport)
	if err != nil {
		return nil, err
	}
	return st.Value, nil
}

func (c *nodeContext) Require(inport string) (any, error) {
	in, err := c.require(inport)
	if err != nil {
		return nil, err
	}
	return in.Value, nil
}

func (c *nodeContext) Statically(inport string) (any, error) {
	in, err := c.require(inport)
	if err != nil {
		return nil, err
	}
	if in.Usage != domain.UsageStatic {
		return nil, c.errorFor(domain.ErrNotStatic, inport)
	}
	return in.Value, nil
}

func (c *nodeContext) Evaluate(inport string) (any, bool, error) {
	connected, err := c.Connected(inport)
	if err != nil || !connected {
		return nil, false, err
	}
	in, err := c.store.Inport(c.node, inport)
	if err != nil {
		return nil, false, err
	}
	if c.runtime == domain.UsageStatic && in.Usage == domain.UsageDynamic {
		return nil, false, nil
	}
	return in.Value, true, nil
}

func (c *nodeContext) Usage(inport string) (domain.Usage, error) {
	if err := c.check(inport); err != nil {
		return domain.UsageUnspecified, err
	}
	in, err := c.store.Inport(c.node, inport)
	if err != nil {
		return domain.UsageUnspecified, err
	}
	return in.Usage, nil
}

func (c *nodeContext) Connected(inport string) (bool, error) {
	if err := c.check(inport); err != nil {
		return false, err
	}
	if _, ok := c.graph.IncomingEdge(c.node, inport); ok {
		return true, nil
	}
	_, ok := c.graph.Attachment(c.node, inport)
	return ok, nil
}

func (c *nodeContext) require(inport string) (domain.InportState, error) {
	connected, err := c.Connected(inport)
	if err != nil {
		return domain.InportState{}, err
	}
	if !connected {
		return domain.InportState{}, c.errorFor(domain.ErrNotConnected, inport)
	}
	return c.store.Inport(c.node, inport)
}

// check rejects reads of inports the outport did not declare.
func (c *nodeContext) check(inport string) error {
	if slices.Contains(c.depends, inport) {
		return nil
	}
	return c.errorFor(domain.ErrUndeclaredDependency, inport)
}

func (c *nodeContext) errorFor(base error, inport string) error {
	return zerr.With(zerr.With(zerr.With(base, "node", c.node.String()), "outport", c.outport), "inport", inport)
}
