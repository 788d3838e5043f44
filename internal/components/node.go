package components

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/domain"
)

// RegistryNodeID is the unique identifier for the component registry Graft node.
const RegistryNodeID graft.ID = "components.registry"

func init() {
	graft.Register(graft.Node[*domain.Registry]{
		ID:        RegistryNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*domain.Registry, error) {
			return NewRegistry()
		},
	})
}
