package app_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/components"
	"go.trai.ch/kiln/internal/core/domain"
)

type graphSpec struct {
	nodes   map[string]string
	order   []string
	edges   []domain.Edge
	attachs map[string]any
}

func buildGraph(t *testing.T, spec graphSpec) *domain.Graph {
	t.Helper()
	registry, err := components.NewRegistry()
	require.NoError(t, err)

	g := domain.NewGraph(registry)
	for _, name := range spec.order {
		require.NoError(t, g.AddNode(domain.NewNodeID(name), spec.nodes[name]))
	}
	for _, e := range spec.edges {
		require.NoError(t, g.Connect(e))
	}
	for ref, v := range spec.attachs {
		node, port, _ := strings.Cut(ref, ".")
		require.NoError(t, g.Attach(domain.NewNodeID(node), port, v, domain.UsageStatic))
	}
	return g
}

func edge(from, fromPort, to, toPort string) domain.Edge {
	return domain.Edge{From: domain.NewNodeID(from), FromPort: fromPort, To: domain.NewNodeID(to), ToPort: toPort}
}

func TestReconcile(t *testing.T) {
	base := graphSpec{
		nodes:   map[string]string{"k": "constant", "sum": "add"},
		order:   []string{"k", "sum"},
		edges:   []domain.Edge{edge("k", "value", "sum", "a")},
		attachs: map[string]any{"k.value": 1, "sum.b": 2},
	}

	tests := []struct {
		name string
		next graphSpec
	}{
		{
			name: "unchanged",
			next: base,
		},
		{
			name: "attachment value changes",
			next: graphSpec{
				nodes:   base.nodes,
				order:   base.order,
				edges:   base.edges,
				attachs: map[string]any{"k.value": 5, "sum.b": 2},
			},
		},
		{
			name: "attachment removed",
			next: graphSpec{nodes: base.nodes, order: base.order, edges: base.edges, attachs: map[string]any{"k.value": 1}},
		},
		{
			name: "node added and rewired",
			next: graphSpec{
				nodes:   map[string]string{"k": "constant", "sum": "add", "r": "relay"},
				order:   []string{"k", "sum", "r"},
				edges:   []domain.Edge{edge("k", "value", "r", "value"), edge("r", "value", "sum", "a")},
				attachs: base.attachs,
			},
		},
		{
			name: "node kind changes",
			next: graphSpec{
				nodes:   map[string]string{"k": "relay", "sum": "add"},
				order:   []string{"k", "sum"},
				edges:   base.edges,
				attachs: base.attachs,
			},
		},
		{
			name: "node removed",
			next: graphSpec{
				nodes:   map[string]string{"sum": "add"},
				order:   []string{"sum"},
				attachs: map[string]any{"sum.b": 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			live := buildGraph(t, base)
			next := buildGraph(t, tt.next)
			require.NoError(t, app.Reconcile(live, next))

			assert.ElementsMatch(t, next.Nodes(), live.Nodes())
			for _, id := range next.Nodes() {
				want, _ := next.Kind(id)
				got, _ := live.Kind(id)
				assert.Equal(t, want, got, id.String())
			}
			assert.ElementsMatch(t, next.Edges(), live.Edges())

			values := func(g *domain.Graph) map[string]any {
				out := map[string]any{}
				for _, a := range g.Attachments() {
					out[a.Node.String()+"."+a.Inport] = a.Value
				}
				return out
			}
			assert.Equal(t, values(next), values(live))
		})
	}
}

func TestReconcile_UnchangedAttachmentKeepsRevision(t *testing.T) {
	spec := graphSpec{
		nodes:   map[string]string{"k": "constant"},
		order:   []string{"k"},
		attachs: map[string]any{"k.value": []any{1, 2}},
	}
	live := buildGraph(t, spec)
	before, ok := live.Attachment(domain.NewNodeID("k"), "value")
	require.True(t, ok)

	require.NoError(t, app.Reconcile(live, buildGraph(t, spec)))

	after, ok := live.Attachment(domain.NewNodeID("k"), "value")
	require.True(t, ok)
	assert.Equal(t, before.Revision, after.Revision)
}
