package ports

import "go.trai.ch/kiln/internal/core/domain"

// ConfigLoader defines the interface for loading the project configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds the project file from the given working directory and returns the project.
	Load(cwd string) (*domain.Project, error)
	// LoadFile reads the project file at path.
	LoadFile(path string) (*domain.Project, error)
}
