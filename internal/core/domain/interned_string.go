package domain

import (
	"strings"
	"unique"
)

// NodeID is a value object that identifies a node in the graph.
// It wraps a unique.Handle[string] so ids are cheap to compare and to use as map keys.
type NodeID struct {
	h unique.Handle[string]
}

// NewNodeID creates a new NodeID from a string.
func NewNodeID(s string) NodeID {
	return NodeID{
		h: unique.Make(s),
	}
}

// NewNodeIDs converts a slice of strings to node ids.
func NewNodeIDs(ss []string) []NodeID {
	ids := make([]NodeID, len(ss))
	for i, s := range ss {
		ids[i] = NewNodeID(s)
	}
	return ids
}

// String returns the underlying string value.
func (id NodeID) String() string {
	var zero unique.Handle[string]
	if id.h == zero {
		return ""
	}
	return id.h.Value()
}

// IsZero reports whether the id was never set.
func (id NodeID) IsZero() bool {
	var zero unique.Handle[string]
	return id.h == zero
}

// Compare orders ids by their string value.
func (id NodeID) Compare(other NodeID) int {
	return strings.Compare(id.String(), other.String())
}

// MarshalText implements encoding.TextMarshaler.
func (id NodeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *NodeID) UnmarshalText(text []byte) error {
	id.h = unique.Make(string(text))
	return nil
}
