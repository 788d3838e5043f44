package domain

import (
	"fmt"
	"slices"
)

// PortSnapshot is a comparable copy of one cache entry.
// Values are rendered with FormatValue so opaque artifacts compare by type only.
type PortSnapshot struct {
	Value         string `json:"value"`
	Usage         Usage  `json:"usage"`
	StaticChanged Frame  `json:"static_changed"`
	ValueChanged  Frame  `json:"value_changed"`
	Checked       Frame  `json:"checked"`
}

// NodeSnapshot is a comparable copy of a NodeState.
type NodeSnapshot struct {
	Node     string                  `json:"node"`
	Kind     string                  `json:"kind"`
	Frame    Frame                   `json:"frame"`
	Inports  map[string]PortSnapshot `json:"inports"`
	Compiled map[string]PortSnapshot `json:"compiled,omitempty"`
	Outports map[string]PortSnapshot `json:"outports"`
}

// Snapshot copies the state of one node as of frame.
func (s *NodeState) Snapshot(kind string, frame Frame) NodeSnapshot {
	snap := NodeSnapshot{
		Node:     s.Node.String(),
		Kind:     kind,
		Frame:    frame,
		Inports:  make(map[string]PortSnapshot, len(s.Inports)),
		Compiled: make(map[string]PortSnapshot),
		Outports: make(map[string]PortSnapshot, len(s.Outports)),
	}
	for name, in := range s.Inports {
		snap.Inports[name] = PortSnapshot{
			Value:         FormatValue(in.Value),
			Usage:         in.Usage,
			StaticChanged: in.StaticChanged,
			ValueChanged:  in.ValueChanged,
			Checked:       in.Checked,
		}
	}
	for name, c := range s.Compiled {
		if !c.Present() {
			continue
		}
		snap.Compiled[name] = PortSnapshot{
			Value:         FormatValue(c.Value),
			StaticChanged: c.StaticChanged,
			ValueChanged:  NoFrame,
			Checked:       c.Checked,
		}
	}
	for name, out := range s.Outports {
		snap.Outports[name] = PortSnapshot{
			Value:         FormatValue(out.Value),
			Usage:         out.Usage,
			StaticChanged: out.StaticChanged,
			ValueChanged:  out.ValueChanged,
			Checked:       out.Checked,
		}
	}
	return snap
}

// SortedPorts returns the port names of m in lexical order.
func SortedPorts(m map[string]PortSnapshot) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// FormatValue renders a port value for display and comparison.
// Plain values print as themselves; other values print as their type.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(val)
	case []any, map[string]any:
		return fmt.Sprint(val)
	default:
		return fmt.Sprintf("<%T>", val)
	}
}
