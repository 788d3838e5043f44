package metrics

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the metrics Graft node.
const NodeID graft.ID = "adapter.metrics"

// CollectorNodeID provides the concrete collector, for callers that also serve it over HTTP.
const CollectorNodeID graft.ID = "adapter.metrics.collector"

func init() {
	graft.Register(graft.Node[*Metrics]{
		ID:        CollectorNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Metrics, error) {
			return New(), nil
		},
	})

	graft.Register(graft.Node[ports.Metrics]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{CollectorNodeID},
		Run: func(ctx context.Context) (ports.Metrics, error) {
			return graft.Dep[*Metrics](ctx)
		},
	})
}
