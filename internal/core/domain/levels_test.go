package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

func links(pairs ...string) []domain.Link {
	out := make([]domain.Link, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, domain.Link{From: domain.NewNodeID(pairs[i]), To: domain.NewNodeID(pairs[i+1])})
	}
	return out
}

func ids(names ...string) []domain.NodeID {
	return domain.NewNodeIDs(names)
}

func TestLevelOrder(t *testing.T) {
	tests := []struct {
		name  string
		nodes []domain.NodeID
		links []domain.Link
		want  [][]domain.NodeID
	}{
		{
			name:  "single node",
			nodes: ids("a"),
			want:  [][]domain.NodeID{ids("a")},
		},
		{
			name:  "chain",
			nodes: ids("c", "b", "a"),
			links: links("a", "b", "b", "c"),
			want:  [][]domain.NodeID{ids("a"), ids("b"), ids("c")},
		},
		{
			name:  "diamond",
			nodes: ids("a", "b", "c", "d"),
			links: links("a", "b", "a", "c", "b", "d", "c", "d"),
			want:  [][]domain.NodeID{ids("a"), ids("b", "c"), ids("d")},
		},
		{
			name:  "node waits for its deepest predecessor",
			nodes: ids("a", "b", "c"),
			links: links("a", "b", "b", "c", "a", "c"),
			want:  [][]domain.NodeID{ids("a"), ids("b"), ids("c")},
		},
		{
			name:  "duplicate links count once",
			nodes: ids("a", "b"),
			links: links("a", "b", "a", "b"),
			want:  [][]domain.NodeID{ids("a"), ids("b")},
		},
		{
			name:  "independent roots keep input order",
			nodes: ids("z", "y", "x"),
			want:  [][]domain.NodeID{ids("z", "y", "x")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.LevelOrder(tt.nodes, tt.links)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelOrder_PredecessorsComeFirst(t *testing.T) {
	nodes := ids("e", "d", "c", "b", "a")
	ls := links("a", "c", "b", "c", "c", "d", "a", "e", "d", "e")

	levels, err := domain.LevelOrder(nodes, ls)
	require.NoError(t, err)

	levelOf := make(map[domain.NodeID]int)
	for i, level := range levels {
		for _, n := range level {
			levelOf[n] = i
		}
	}
	require.Len(t, levelOf, len(nodes))
	for _, l := range ls {
		assert.Less(t, levelOf[l.From], levelOf[l.To], "%s must precede %s", l.From, l.To)
	}
	assert.Len(t, domain.Flatten(levels), len(nodes))
}

func TestLevelOrder_Cycle(t *testing.T) {
	t.Run("no roots", func(t *testing.T) {
		_, err := domain.LevelOrder(ids("a", "b"), links("a", "b", "b", "a"))
		require.ErrorContains(t, err, domain.ErrCycleDetected.Error())
	})

	t.Run("unresolved nodes", func(t *testing.T) {
		_, err := domain.LevelOrder(ids("root", "a", "b"), links("root", "a", "a", "b", "b", "a"))
		require.Error(t, err)

		zErr, ok := err.(*zerr.Error)
		require.True(t, ok, "expected *zerr.Error, got %T", err)
		assert.Equal(t, "a, b", zErr.Metadata()["unresolved"])
	})

	t.Run("self loop", func(t *testing.T) {
		_, err := domain.LevelOrder(ids("root", "a"), links("a", "a"))
		require.ErrorContains(t, err, domain.ErrCycleDetected.Error())
	})
}

func TestLevelOrder_Edges(t *testing.T) {
	levels, err := domain.LevelOrder(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, levels)

	_, err = domain.LevelOrder(ids("a"), links("a", "ghost"))
	require.ErrorContains(t, err, domain.ErrNodeNotFound.Error())
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, ids("a", "b", "c"), domain.Flatten([][]domain.NodeID{ids("a"), ids("b", "c")}))
	assert.Empty(t, domain.Flatten(nil))
}
