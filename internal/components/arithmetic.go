package components

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// Add sums a and b. An unfed operand counts as zero.
type Add struct{}

// Kind implements domain.Component.
func (Add) Kind() string { return "add" }

// Schema implements domain.Component.
func (Add) Schema() domain.Schema {
	return domain.Schema{
		Inports: []domain.InportSpec{{Name: "a"}, {Name: "b"}},
		Outports: []domain.OutportSpec{{
			Name:    "sum",
			Usage:   domain.UsageInherit,
			Depends: []string{"a", "b"},
			Execute: add,
		}},
	}
}

func add(_ context.Context, nc domain.NodeContext) (any, error) {
	a, err := number(nc, "a", 0)
	if err != nil {
		return nil, err
	}
	b, err := number(nc, "b", 0)
	if err != nil {
		return nil, err
	}
	return a + b, nil
}

// Multiply scales in by factor. The factor starts at one.
type Multiply struct{}

// Kind implements domain.Component.
func (Multiply) Kind() string { return "multiply" }

// Schema implements domain.Component.
func (Multiply) Schema() domain.Schema {
	return domain.Schema{
		Inports: []domain.InportSpec{
			{Name: "in"},
			{Name: "factor", Initial: 1.0, HasInitial: true},
		},
		Outports: []domain.OutportSpec{{
			Name:    "out",
			Usage:   domain.UsageInherit,
			Depends: []string{"in", "factor"},
			Execute: multiply,
		}},
	}
}

func multiply(_ context.Context, nc domain.NodeContext) (any, error) {
	in, err := number(nc, "in", 0)
	if err != nil {
		return nil, err
	}
	factor, err := number(nc, "factor", 1)
	if err != nil {
		return nil, err
	}
	return in * factor, nil
}
