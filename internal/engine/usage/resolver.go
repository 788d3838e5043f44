// Package usage resolves the static or dynamic classification of ports.
package usage

import (
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Resolver classifies ports as static or dynamic from their declarations and wiring.
// Declared static or dynamic usages are authoritative. Everything else is derived:
// an edge takes precedence over an attachment, and an unfed inport is static.
type Resolver struct {
	graph ports.Graph
}

// NewResolver creates a Resolver reading from graph.
func NewResolver(graph ports.Graph) *Resolver {
	return &Resolver{graph: graph}
}

type outportKey struct {
	node    domain.NodeID
	outport string
}

// InportUsage returns the effective usage of an inport.
func (r *Resolver) InportUsage(node domain.NodeID, inport string) (domain.Usage, error) {
	return r.inport(node, inport, make(map[outportKey]struct{}))
}

// OutportUsage returns the effective usage of an outport.
// An inherit outport is dynamic as soon as one of its dependencies is.
func (r *Resolver) OutportUsage(node domain.NodeID, outport string) (domain.Usage, error) {
	return r.outport(node, outport, make(map[outportKey]struct{}))
}

// Depends returns the inports an outport is computed from.
func (r *Resolver) Depends(node domain.NodeID, outport string) ([]string, error) {
	spec, err := r.outportSpec(node, outport)
	if err != nil {
		return nil, err
	}
	return spec.EffectiveDepends(), nil
}

func (r *Resolver) inport(node domain.NodeID, inport string, visiting map[outportKey]struct{}) (domain.Usage, error) {
	schema, err := r.graph.Schema(node)
	if err != nil {
		return domain.UsageUnspecified, err
	}
	spec, ok := schema.Inport(inport)
	if !ok {
		return domain.UsageUnspecified, zerr.With(zerr.With(domain.ErrInportNotFound, "node", node.String()), "inport", inport)
	}
	if spec.Usage.Resolved() {
		return spec.Usage, nil
	}

	if edge, ok := r.graph.IncomingEdge(node, inport); ok {
		return r.outport(edge.From, edge.FromPort, visiting)
	}

	if att, ok := r.graph.Attachment(node, inport); ok {
		if !att.Usage.Resolved() {
			return domain.UsageUnspecified, zerr.With(zerr.With(domain.ErrInvalidUsage, "node", node.String()), "inport", inport)
		}
		return att.Usage, nil
	}

	return domain.UsageStatic, nil
}

func (r *Resolver) outport(node domain.NodeID, outport string, visiting map[outportKey]struct{}) (domain.Usage, error) {
	key := outportKey{node: node, outport: outport}
	if _, seen := visiting[key]; seen {
		return domain.UsageUnspecified, zerr.With(zerr.With(domain.ErrCycleDetected, "node", node.String()), "outport", outport)
	}
	visiting[key] = struct{}{}
	defer delete(visiting, key)

	spec, err := r.outportSpec(node, outport)
	if err != nil {
		return domain.UsageUnspecified, err
	}

	if spec.Usage.Resolved() {
		return spec.Usage, nil
	}
	if spec.Pass {
		return r.inport(node, spec.Name, visiting)
	}
	if len(spec.Depends) == 0 {
		return domain.UsageUnspecified, zerr.With(zerr.With(domain.ErrInheritWithoutDepends, "node", node.String()), "outport", outport)
	}

	for _, dep := range spec.Depends {
		u, err := r.inport(node, dep, visiting)
		if err != nil {
			return domain.UsageUnspecified, err
		}
		if u == domain.UsageDynamic {
			return domain.UsageDynamic, nil
		}
	}
	return domain.UsageStatic, nil
}

func (r *Resolver) outportSpec(node domain.NodeID, outport string) (domain.OutportSpec, error) {
	schema, err := r.graph.Schema(node)
	if err != nil {
		return domain.OutportSpec{}, err
	}
	spec, ok := schema.Outport(outport)
	if !ok {
		return domain.OutportSpec{}, zerr.With(zerr.With(domain.ErrOutportNotFound, "node", node.String()), "outport", outport)
	}
	return spec, nil
}
