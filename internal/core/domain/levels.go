package domain

import (
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// LevelOrder groups nodes into topological levels using Kahn's algorithm.
// Every root is in level 0 and every node comes strictly after its predecessors.
// Nodes inside a level keep the order of the nodes slice.
func LevelOrder(nodes []NodeID, links []Link) ([][]NodeID, error) {
	if len(nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[NodeID]int, len(nodes))
	for _, n := range nodes {
		inDegree[n] = 0
	}

	successors := make(map[NodeID][]NodeID, len(nodes))
	seen := make(map[Link]struct{}, len(links))
	for _, l := range links {
		if _, ok := inDegree[l.From]; !ok {
			return nil, zerr.With(ErrNodeNotFound, "node", l.From.String())
		}
		if _, ok := inDegree[l.To]; !ok {
			return nil, zerr.With(ErrNodeNotFound, "node", l.To.String())
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		successors[l.From] = append(successors[l.From], l.To)
		inDegree[l.To]++
	}

	rank := make(map[NodeID]int, len(nodes))
	current := make([]NodeID, 0)
	for i, n := range nodes {
		rank[n] = i
		if inDegree[n] == 0 {
			current = append(current, n)
		}
	}
	if len(current) == 0 {
		return nil, zerr.With(ErrCycleDetected, "reason", "no root nodes")
	}

	var levels [][]NodeID
	visited := 0
	for len(current) > 0 {
		levels = append(levels, current)
		visited += len(current)

		next := make([]NodeID, 0)
		for _, n := range current {
			for _, succ := range successors[n] {
				inDegree[succ]--
				if inDegree[succ] == 0 {
					next = append(next, succ)
				}
			}
		}
		sortByRank(next, rank)
		current = next
	}

	if visited != len(nodes) {
		unresolved := make([]string, 0, len(nodes)-visited)
		for _, n := range nodes {
			if inDegree[n] > 0 {
				unresolved = append(unresolved, n.String())
			}
		}
		return nil, zerr.With(ErrCycleDetected, "unresolved", strings.Join(unresolved, ", "))
	}

	return levels, nil
}

// Flatten concatenates levels into a single topological order.
func Flatten(levels [][]NodeID) []NodeID {
	n := 0
	for _, l := range levels {
		n += len(l)
	}
	out := make([]NodeID, 0, n)
	for _, l := range levels {
		out = append(out, l...)
	}
	return out
}

func sortByRank(ids []NodeID, rank map[NodeID]int) {
	slices.SortFunc(ids, func(a, b NodeID) int {
		return rank[a] - rank[b]
	})
}
