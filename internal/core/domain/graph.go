// Package domain contains the core domain models of the dataflow graph:
// usages, frames, component schemas, the graph itself and per-node cache state.
package domain

import (
	"cmp"
	"slices"
	"sync"

	"go.trai.ch/zerr"
)

// Edge feeds the inport ToPort of node To from the outport FromPort of node From.
type Edge struct {
	From     NodeID
	FromPort string
	To       NodeID
	ToPort   string
}

// Link returns the node-to-node pair of the edge.
func (e Edge) Link() Link {
	return Link{From: e.From, To: e.To}
}

// Link is a dependency between two nodes with port detail stripped.
type Link struct {
	From NodeID
	To   NodeID
}

// Attachment is a constant value bound directly to an inport.
// Revision increases every time the inport is attached, so a repeated attach is observable
// even when the value compares equal.
type Attachment struct {
	Node     NodeID
	Inport   string
	Value    any
	Usage    Usage
	Revision uint64
}

type portKey struct {
	node NodeID
	port string
}

// Graph is an in-memory node graph. It is safe for concurrent use.
type Graph struct {
	registry *Registry

	mu          sync.RWMutex
	kinds       map[NodeID]string
	order       []NodeID
	edges       []Edge
	incoming    map[portKey]int
	attachments map[portKey]Attachment
	revision    uint64
}

// NewGraph creates an empty graph whose nodes are typed by registry.
func NewGraph(registry *Registry) *Graph {
	return &Graph{
		registry:    registry,
		kinds:       make(map[NodeID]string),
		incoming:    make(map[portKey]int),
		attachments: make(map[portKey]Attachment),
	}
}

// Registry returns the component registry of the graph.
func (g *Graph) Registry() *Registry {
	return g.registry
}

// AddNode adds a node of the given component kind.
func (g *Graph) AddNode(id NodeID, kind string) error {
	if _, err := g.registry.Schema(kind); err != nil {
		return zerr.With(err, "node", id.String())
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.kinds[id]; exists {
		return zerr.With(ErrNodeAlreadyExists, "node", id.String())
	}
	g.kinds[id] = kind
	g.order = append(g.order, id)
	return nil
}

// RemoveNode removes a node together with its edges and attachments.
func (g *Graph) RemoveNode(id NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.kinds[id]; !exists {
		return zerr.With(ErrNodeNotFound, "node", id.String())
	}
	delete(g.kinds, id)
	g.order = slices.DeleteFunc(g.order, func(n NodeID) bool { return n == id })
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return e.From == id || e.To == id })
	g.reindex()
	for key := range g.attachments {
		if key.node == id {
			delete(g.attachments, key)
		}
	}
	return nil
}

// Connect adds an edge. The target inport must not already have an edge.
func (g *Graph) Connect(e Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	from, err := g.schemaLocked(e.From)
	if err != nil {
		return err
	}
	if _, ok := from.Outport(e.FromPort); !ok {
		return zerr.With(zerr.With(ErrOutportNotFound, "node", e.From.String()), "outport", e.FromPort)
	}
	to, err := g.schemaLocked(e.To)
	if err != nil {
		return err
	}
	if _, ok := to.Inport(e.ToPort); !ok {
		return zerr.With(zerr.With(ErrInportNotFound, "node", e.To.String()), "inport", e.ToPort)
	}

	key := portKey{node: e.To, port: e.ToPort}
	if _, connected := g.incoming[key]; connected {
		return zerr.With(zerr.With(ErrInportAlreadyConnected, "node", e.To.String()), "inport", e.ToPort)
	}
	g.edges = append(g.edges, e)
	g.incoming[key] = len(g.edges) - 1
	return nil
}

// Disconnect removes the edge feeding the given inport.
func (g *Graph) Disconnect(node NodeID, inport string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx, ok := g.incoming[portKey{node: node, port: inport}]
	if !ok {
		return zerr.With(zerr.With(ErrEdgeNotFound, "node", node.String()), "inport", inport)
	}
	g.edges = slices.Delete(g.edges, idx, idx+1)
	g.reindex()
	return nil
}

// Attach binds a constant value to an inport. The usage must be static or dynamic,
// and dynamic values cannot be attached to inports declared static.
func (g *Graph) Attach(node NodeID, inport string, value any, usage Usage) error {
	if !usage.Resolved() {
		return zerr.With(zerr.With(ErrInvalidUsage, "node", node.String()), "usage", usage.String())
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	s, err := g.schemaLocked(node)
	if err != nil {
		return err
	}
	spec, ok := s.Inport(inport)
	if !ok {
		return zerr.With(zerr.With(ErrInportNotFound, "node", node.String()), "inport", inport)
	}
	if spec.Usage == UsageStatic && usage == UsageDynamic {
		return zerr.With(zerr.With(ErrStaticInportDynamicAttachment, "node", node.String()), "inport", inport)
	}

	g.revision++
	g.attachments[portKey{node: node, port: inport}] = Attachment{
		Node:     node,
		Inport:   inport,
		Value:    value,
		Usage:    usage,
		Revision: g.revision,
	}
	return nil
}

// Detach removes the attachment of an inport.
func (g *Graph) Detach(node NodeID, inport string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := portKey{node: node, port: inport}
	if _, ok := g.attachments[key]; !ok {
		return zerr.With(zerr.With(ErrAttachmentNotFound, "node", node.String()), "inport", inport)
	}
	delete(g.attachments, key)
	return nil
}

// InitializeNode attaches the initial values declared by the node's component as static values.
func (g *Graph) InitializeNode(node NodeID) error {
	s, err := g.Schema(node)
	if err != nil {
		return err
	}
	for _, in := range s.Inports {
		if !in.HasInitial {
			continue
		}
		if err := g.Attach(node, in.Name, in.Initial, UsageStatic); err != nil {
			return err
		}
	}
	return nil
}

// Nodes returns the node ids in insertion order.
func (g *Graph) Nodes() []NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]NodeID, len(g.order))
	copy(out, g.order)
	return out
}

// Kind returns the component kind of a node.
func (g *Graph) Kind(node NodeID) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	kind, ok := g.kinds[node]
	return kind, ok
}

// Schema returns the schema of a node's component kind.
func (g *Graph) Schema(node NodeID) (*Schema, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.schemaLocked(node)
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// IncomingEdge returns the edge feeding the given inport.
func (g *Graph) IncomingEdge(node NodeID, inport string) (Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	idx, ok := g.incoming[portKey{node: node, port: inport}]
	if !ok {
		return Edge{}, false
	}
	return g.edges[idx], true
}

// Attachment returns the attachment of the given inport.
func (g *Graph) Attachment(node NodeID, inport string) (Attachment, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	a, ok := g.attachments[portKey{node: node, port: inport}]
	return a, ok
}

// Attachments returns all attachments ordered by node insertion order and inport name.
func (g *Graph) Attachments() []Attachment {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rank := make(map[NodeID]int, len(g.order))
	for i, id := range g.order {
		rank[id] = i
	}
	out := make([]Attachment, 0, len(g.attachments))
	for _, a := range g.attachments {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b Attachment) int {
		if d := rank[a.Node] - rank[b.Node]; d != 0 {
			return d
		}
		return cmp.Compare(a.Inport, b.Inport)
	})
	return out
}

// Levels computes the topological levels of the graph.
func (g *Graph) Levels() ([][]NodeID, error) {
	edges := g.Edges()
	links := make([]Link, len(edges))
	for i, e := range edges {
		links[i] = e.Link()
	}
	return LevelOrder(g.Nodes(), links)
}

func (g *Graph) schemaLocked(node NodeID) (*Schema, error) {
	kind, ok := g.kinds[node]
	if !ok {
		return nil, zerr.With(ErrNodeNotFound, "node", node.String())
	}
	return g.registry.Schema(kind)
}

func (g *Graph) reindex() {
	clear(g.incoming)
	for i, e := range g.edges {
		g.incoming[portKey{node: e.To, port: e.ToPort}] = i
	}
}
