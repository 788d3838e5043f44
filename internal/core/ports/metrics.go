package ports

import (
	"time"

	"go.trai.ch/kiln/internal/core/domain"
)

// Metrics records engine activity.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// RecordOperation records one port operation of a pass.
	RecordOperation(phase domain.Phase, kind string, outcome domain.Outcome, duration time.Duration)
	// RecordFrame records a completed or failed frame.
	RecordFrame(kind domain.FrameKind, duration time.Duration, err error)
}
