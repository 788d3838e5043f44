package domain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
)

type fakeComponent struct {
	kind   string
	schema domain.Schema
}

func (c fakeComponent) Kind() string          { return c.kind }
func (c fakeComponent) Schema() domain.Schema { return c.schema }

func noop(context.Context, domain.NodeContext) (any, error) { return nil, nil }

func TestRegistry_Register(t *testing.T) {
	r, err := domain.NewRegistry(fakeComponent{
		kind: "scale",
		schema: domain.Schema{
			Inports: []domain.InportSpec{
				{Name: "in"},
				{Name: "factor", Usage: domain.UsageStatic, Initial: 1, HasInitial: true},
			},
			Outports: []domain.OutportSpec{
				{Name: "out", Depends: []string{"in", "factor"}, Execute: noop},
			},
		},
	})
	require.NoError(t, err)

	s, err := r.Schema("scale")
	require.NoError(t, err)
	out, ok := s.Outport("out")
	require.True(t, ok)
	assert.Equal(t, []string{"in", "factor"}, out.EffectiveDepends())
	assert.Equal(t, []string{"scale"}, r.Kinds())

	err = r.Register(fakeComponent{kind: "scale"})
	require.ErrorContains(t, err, domain.ErrComponentAlreadyRegistered.Error())

	_, err = r.Schema("missing")
	require.ErrorContains(t, err, domain.ErrUnknownComponent.Error())
}

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name    string
		schema  domain.Schema
		wantErr error
	}{
		{
			name: "pass outport mirrors inport",
			schema: domain.Schema{
				Inports:  []domain.InportSpec{{Name: "value"}},
				Outports: []domain.OutportSpec{{Name: "value", Pass: true}},
			},
		},
		{
			name: "pass outport without inport",
			schema: domain.Schema{
				Outports: []domain.OutportSpec{{Name: "value", Pass: true}},
			},
			wantErr: domain.ErrMalformedComponent,
		},
		{
			name: "pass outport with depends",
			schema: domain.Schema{
				Inports:  []domain.InportSpec{{Name: "value"}},
				Outports: []domain.OutportSpec{{Name: "value", Pass: true, Depends: []string{"value"}}},
			},
			wantErr: domain.ErrMalformedComponent,
		},
		{
			name: "missing execute",
			schema: domain.Schema{
				Inports:  []domain.InportSpec{{Name: "in"}},
				Outports: []domain.OutportSpec{{Name: "out", Depends: []string{"in"}}},
			},
			wantErr: domain.ErrMalformedComponent,
		},
		{
			name: "inherit without depends",
			schema: domain.Schema{
				Outports: []domain.OutportSpec{{Name: "out", Usage: domain.UsageInherit, Execute: noop}},
			},
			wantErr: domain.ErrInheritWithoutDepends,
		},
		{
			name: "unspecified without depends",
			schema: domain.Schema{
				Outports: []domain.OutportSpec{{Name: "out", Execute: noop}},
			},
			wantErr: domain.ErrInheritWithoutDepends,
		},
		{
			name: "dynamic source without depends",
			schema: domain.Schema{
				Outports: []domain.OutportSpec{{Name: "out", Usage: domain.UsageDynamic, Execute: noop}},
			},
		},
		{
			name: "depends on unknown inport",
			schema: domain.Schema{
				Outports: []domain.OutportSpec{{Name: "out", Depends: []string{"ghost"}, Execute: noop}},
			},
			wantErr: domain.ErrInportNotFound,
		},
		{
			name: "static outport on inherit inport",
			schema: domain.Schema{
				Inports:  []domain.InportSpec{{Name: "in"}},
				Outports: []domain.OutportSpec{{Name: "out", Usage: domain.UsageStatic, Depends: []string{"in"}, Execute: noop}},
			},
			wantErr: domain.ErrMalformedComponent,
		},
		{
			name: "invalid usage",
			schema: domain.Schema{
				Inports: []domain.InportSpec{{Name: "in", Usage: domain.Usage(17)}},
			},
			wantErr: domain.ErrInvalidUsage,
		},
		{
			name: "duplicate inport",
			schema: domain.Schema{
				Inports: []domain.InportSpec{{Name: "in"}, {Name: "in"}},
			},
			wantErr: domain.ErrMalformedComponent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.ValidateSchema("test", &tt.schema)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr.Error())
		})
	}
}
