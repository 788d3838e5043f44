package usage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/usage"
	"go.uber.org/mock/gomock"
)

type component struct {
	kind   string
	schema domain.Schema
}

func (c component) Kind() string          { return c.kind }
func (c component) Schema() domain.Schema { return c.schema }

func noop(context.Context, domain.NodeContext) (any, error) { return nil, nil }

func newGraph(t *testing.T) *domain.Graph {
	t.Helper()
	r, err := domain.NewRegistry(
		component{
			kind: "relay",
			schema: domain.Schema{
				Inports:  []domain.InportSpec{{Name: "value"}},
				Outports: []domain.OutportSpec{{Name: "value", Pass: true}},
			},
		},
		component{
			kind: "clock",
			schema: domain.Schema{
				Outports: []domain.OutportSpec{{Name: "t", Usage: domain.UsageDynamic, Execute: noop}},
			},
		},
		component{
			kind: "mix",
			schema: domain.Schema{
				Inports: []domain.InportSpec{
					{Name: "a"},
					{Name: "b"},
					{Name: "source", Usage: domain.UsageStatic},
					{Name: "time", Usage: domain.UsageDynamic},
				},
				Outports: []domain.OutportSpec{
					{Name: "out", Depends: []string{"a", "b"}, Execute: noop},
					{Name: "baked", Usage: domain.UsageStatic, Depends: []string{"source"}, Execute: noop},
				},
			},
		},
	)
	require.NoError(t, err)
	return domain.NewGraph(r)
}

func addNodes(t *testing.T, g *domain.Graph, nodes map[string]string) {
	t.Helper()
	for name, kind := range nodes {
		require.NoError(t, g.AddNode(domain.NewNodeID(name), kind))
	}
}

func TestResolver_DeclaredUsageIsAuthoritative(t *testing.T) {
	g := newGraph(t)
	addNodes(t, g, map[string]string{"m": "mix", "c": "clock"})
	m, c := domain.NewNodeID("m"), domain.NewNodeID("c")
	require.NoError(t, g.Connect(domain.Edge{From: c, FromPort: "t", To: m, ToPort: "source"}))

	r := usage.NewResolver(g)

	u, err := r.InportUsage(m, "source")
	require.NoError(t, err)
	assert.Equal(t, domain.UsageStatic, u)

	u, err = r.InportUsage(m, "time")
	require.NoError(t, err)
	assert.Equal(t, domain.UsageDynamic, u)

	u, err = r.OutportUsage(m, "baked")
	require.NoError(t, err)
	assert.Equal(t, domain.UsageStatic, u)
}

func TestResolver_InportFromWiring(t *testing.T) {
	g := newGraph(t)
	addNodes(t, g, map[string]string{"m": "mix", "c": "clock", "r": "relay"})
	m, c, rl := domain.NewNodeID("m"), domain.NewNodeID("c"), domain.NewNodeID("r")
	r := usage.NewResolver(g)

	t.Run("unfed inport is static", func(t *testing.T) {
		u, err := r.InportUsage(m, "a")
		require.NoError(t, err)
		assert.Equal(t, domain.UsageStatic, u)
	})

	t.Run("attachment usage", func(t *testing.T) {
		require.NoError(t, g.Attach(m, "b", 2, domain.UsageDynamic))
		u, err := r.InportUsage(m, "b")
		require.NoError(t, err)
		assert.Equal(t, domain.UsageDynamic, u)
		require.NoError(t, g.Detach(m, "b"))
	})

	t.Run("edge follows upstream outport", func(t *testing.T) {
		require.NoError(t, g.Connect(domain.Edge{From: c, FromPort: "t", To: rl, ToPort: "value"}))
		require.NoError(t, g.Connect(domain.Edge{From: rl, FromPort: "value", To: m, ToPort: "a"}))

		u, err := r.InportUsage(m, "a")
		require.NoError(t, err)
		assert.Equal(t, domain.UsageDynamic, u)
	})

	t.Run("edge takes precedence over attachment", func(t *testing.T) {
		require.NoError(t, g.Attach(m, "a", 1, domain.UsageStatic))
		u, err := r.InportUsage(m, "a")
		require.NoError(t, err)
		assert.Equal(t, domain.UsageDynamic, u)
	})
}

func TestResolver_InheritIsContagious(t *testing.T) {
	tests := []struct {
		name string
		a, b domain.Usage
		want domain.Usage
	}{
		{"both static", domain.UsageStatic, domain.UsageStatic, domain.UsageStatic},
		{"first dynamic", domain.UsageDynamic, domain.UsageStatic, domain.UsageDynamic},
		{"second dynamic", domain.UsageStatic, domain.UsageDynamic, domain.UsageDynamic},
		{"both dynamic", domain.UsageDynamic, domain.UsageDynamic, domain.UsageDynamic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGraph(t)
			m := domain.NewNodeID("m")
			require.NoError(t, g.AddNode(m, "mix"))
			require.NoError(t, g.Attach(m, "a", 1, tt.a))
			require.NoError(t, g.Attach(m, "b", 2, tt.b))

			u, err := usage.NewResolver(g).OutportUsage(m, "out")
			require.NoError(t, err)
			assert.Equal(t, tt.want, u)
		})
	}
}

func TestResolver_PassMirrorsInport(t *testing.T) {
	g := newGraph(t)
	rl := domain.NewNodeID("r")
	require.NoError(t, g.AddNode(rl, "relay"))
	r := usage.NewResolver(g)

	u, err := r.OutportUsage(rl, "value")
	require.NoError(t, err)
	assert.Equal(t, domain.UsageStatic, u)

	require.NoError(t, g.Attach(rl, "value", 1, domain.UsageDynamic))
	u, err = r.OutportUsage(rl, "value")
	require.NoError(t, err)
	assert.Equal(t, domain.UsageDynamic, u)

	deps, err := r.Depends(rl, "value")
	require.NoError(t, err)
	assert.Equal(t, []string{"value"}, deps)
}

func TestResolver_Cycle(t *testing.T) {
	g := newGraph(t)
	addNodes(t, g, map[string]string{"x": "relay", "y": "relay"})
	x, y := domain.NewNodeID("x"), domain.NewNodeID("y")
	require.NoError(t, g.Connect(domain.Edge{From: x, FromPort: "value", To: y, ToPort: "value"}))
	require.NoError(t, g.Connect(domain.Edge{From: y, FromPort: "value", To: x, ToPort: "value"}))

	_, err := usage.NewResolver(g).OutportUsage(x, "value")
	require.ErrorContains(t, err, domain.ErrCycleDetected.Error())
}

func TestResolver_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	graph := mocks.NewMockGraph(ctrl)
	n := domain.NewNodeID("n")
	schema := &domain.Schema{
		Inports:  []domain.InportSpec{{Name: "in"}},
		Outports: []domain.OutportSpec{{Name: "out", Usage: domain.UsageInherit}},
	}
	graph.EXPECT().Schema(n).Return(schema, nil).AnyTimes()

	r := usage.NewResolver(graph)

	_, err := r.OutportUsage(n, "out")
	require.ErrorContains(t, err, domain.ErrInheritWithoutDepends.Error())

	_, err = r.OutportUsage(n, "missing")
	require.ErrorContains(t, err, domain.ErrOutportNotFound.Error())

	_, err = r.InportUsage(n, "missing")
	require.ErrorContains(t, err, domain.ErrInportNotFound.Error())

	_, err = r.Depends(n, "missing")
	require.ErrorContains(t, err, domain.ErrOutportNotFound.Error())
}
