// Package components provides the built-in component kinds.
package components

import (
	"time"

	"go.trai.ch/kiln/internal/core/domain"
)

// Builtins returns one instance of every built-in component kind.
func Builtins() []domain.Component {
	return []domain.Component{
		Constant{},
		Relay{},
		Add{},
		Multiply{},
		Clock{Now: time.Now},
		Template{},
	}
}

// NewRegistry returns a registry holding the built-in kinds followed by extra.
func NewRegistry(extra ...domain.Component) (*domain.Registry, error) {
	return domain.NewRegistry(append(Builtins(), extra...)...)
}
