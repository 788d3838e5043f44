package ports

import "go.trai.ch/kiln/internal/core/domain"

// Graph is the read side of the node graph consumed by the engine.
// Mutations go through the concrete graph; the engine observes them on the next pull.
//
//go:generate mockgen -source=graph.go -destination=mocks/mock_graph.go -package=mocks
type Graph interface {
	// Nodes returns every node id in a stable order.
	Nodes() []domain.NodeID
	// Kind returns the component kind name of a node.
	Kind(node domain.NodeID) (string, bool)
	// Schema returns the port table of a node's component kind.
	Schema(node domain.NodeID) (*domain.Schema, error)
	// Edges returns every edge.
	Edges() []domain.Edge
	// IncomingEdge returns the edge feeding an inport, if any.
	IncomingEdge(node domain.NodeID, inport string) (domain.Edge, bool)
	// Attachment returns the attachment bound to an inport, if any.
	Attachment(node domain.NodeID, inport string) (domain.Attachment, bool)
}
