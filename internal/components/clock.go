package components

import (
	"context"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Clock reports the seconds elapsed since it was compiled, scaled by rate.
// Changing the rate recompiles the clock and restarts it.
type Clock struct {
	Now func() time.Time
}

// Kind implements domain.Component.
func (Clock) Kind() string { return "clock" }

// Schema implements domain.Component.
func (c Clock) Schema() domain.Schema {
	return domain.Schema{
		Inports: []domain.InportSpec{
			{Name: "rate", Usage: domain.UsageStatic, Initial: 1.0, HasInitial: true},
		},
		Outports: []domain.OutportSpec{{
			Name:    "elapsed",
			Usage:   domain.UsageDynamic,
			Depends: []string{"rate"},
			Compile: c.start,
			Execute: c.elapsed,
		}},
	}
}

func (c Clock) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c Clock) start(context.Context, domain.NodeContext) (any, error) {
	return c.now(), nil
}

func (c Clock) elapsed(_ context.Context, nc domain.NodeContext) (any, error) {
	compiled, err := nc.Compiled()
	if err != nil {
		return nil, err
	}
	started, ok := compiled.(time.Time)
	if !ok {
		return nil, zerr.With(domain.ErrUnexpectedValue, "compiled", domain.FormatValue(compiled))
	}
	rate, err := number(nc, "rate", 1)
	if err != nil {
		return nil, err
	}
	return c.now().Sub(started).Seconds() * rate, nil
}
