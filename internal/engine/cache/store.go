// Package cache holds the per-node cache entries and their invalidation rules.
package cache

import (
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/usage"
	"go.trai.ch/zerr"
)

// Store owns the NodeState of every registered node.
// Methods are safe for concurrent use; callers must not process the same node from two goroutines.
type Store struct {
	graph    ports.Graph
	resolver *usage.Resolver

	mu     sync.RWMutex
	states map[domain.NodeID]*domain.NodeState
	kinds  map[domain.NodeID]string
}

// NewStore creates an empty store over graph.
func NewStore(graph ports.Graph, resolver *usage.Resolver) *Store {
	return &Store{
		graph:    graph,
		resolver: resolver,
		states:   make(map[domain.NodeID]*domain.NodeState),
		kinds:    make(map[domain.NodeID]string),
	}
}

// Sync registers nodes that are new to the graph and drops the state of removed ones.
// A node whose kind changed is registered again from scratch.
func (s *Store) Sync() error {
	nodes := s.graph.Nodes()

	s.mu.Lock()
	defer s.mu.Unlock()

	live := make(map[domain.NodeID]struct{}, len(nodes))
	for _, id := range nodes {
		live[id] = struct{}{}
		kind, _ := s.graph.Kind(id)
		if _, ok := s.states[id]; ok && s.kinds[id] == kind {
			continue
		}
		if err := s.registerLocked(id); err != nil {
			return err
		}
	}
	for id := range s.states {
		if _, ok := live[id]; !ok {
			delete(s.states, id)
			delete(s.kinds, id)
		}
	}
	return nil
}

// Register creates a fresh state for node, replacing any existing one.
func (s *Store) Register(node domain.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registerLocked(node)
}

// Clear drops every cache entry of node. The next frame treats it as never evaluated.
func (s *Store) Clear(node domain.NodeID) error {
	return s.Register(node)
}

func (s *Store) registerLocked(node domain.NodeID) error {
	schema, err := s.graph.Schema(node)
	if err != nil {
		return err
	}
	kind, _ := s.graph.Kind(node)
	s.states[node] = domain.NewNodeState(node, schema)
	s.kinds[node] = kind
	return nil
}

func (s *Store) stateLocked(node domain.NodeID) (*domain.NodeState, error) {
	st, ok := s.states[node]
	if !ok {
		return nil, zerr.With(domain.ErrNodeNotFound, "node", node.String())
	}
	return st, nil
}

func (s *Store) outportLocked(node domain.NodeID, outport string) (*domain.OutportState, error) {
	st, err := s.stateLocked(node)
	if err != nil {
		return nil, err
	}
	out, ok := st.Outports[outport]
	if !ok {
		return nil, zerr.With(zerr.With(domain.ErrOutportNotFound, "node", node.String()), "outport", outport)
	}
	return out, nil
}

// PullStatic refreshes the usage, source and static value of every inport of node.
// A rewiring or reclassification advances staticChanged to frame regardless of the value.
func (s *Store) PullStatic(node domain.NodeID, frame domain.Frame) error {
	schema, err := s.graph.Schema(node)
	if err != nil {
		return err
	}

	resolved := make(map[string]domain.Usage, len(schema.Inports))
	for _, in := range schema.Inports {
		u, err := s.resolver.InportUsage(node, in.Name)
		if err != nil {
			return err
		}
		resolved[in.Name] = u
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.stateLocked(node)
	if err != nil {
		return err
	}

	for _, in := range schema.Inports {
		entry := st.Inports[in.Name]
		u := resolved[in.Name]

		staticChanged := entry.StaticChanged
		valueChanged := entry.ValueChanged
		value := entry.Value
		source := domain.SourceNone

		if edge, ok := s.graph.IncomingEdge(node, in.Name); ok {
			source = EdgeSource(edge)
			up, err := s.outportLocked(edge.From, edge.FromPort)
			if err != nil {
				return zerr.With(err, "inport", in.Name)
			}
			staticChanged = max(staticChanged, up.StaticChanged)
			if u == domain.UsageStatic && up.Usage == domain.UsageStatic {
				value = up.Value
				valueChanged = max(valueChanged, up.ValueChanged)
			}
		} else if att, ok := s.graph.Attachment(node, in.Name); ok {
			source = AttachmentSource(node, in.Name)
			stamp := observe(st, att, frame)
			staticChanged = max(staticChanged, stamp.StaticChanged)
			if att.Usage == domain.UsageStatic {
				staticChanged = max(staticChanged, stamp.ValueChanged)
				if u == domain.UsageStatic {
					value = att.Value
					valueChanged = max(valueChanged, stamp.ValueChanged)
				}
			}
		} else {
			delete(st.Attached, in.Name)
			value = nil
		}

		if entry.Usage != u || entry.Source != source {
			staticChanged = frame
			if entry.Source != source {
				valueChanged = frame
				if source == domain.SourceNone {
					value = nil
				}
			}
		}

		entry.Usage = u
		entry.Source = source
		entry.Value = value
		entry.StaticChanged = staticChanged
		entry.ValueChanged = valueChanged
		entry.Checked = frame
	}
	return nil
}

// PullDynamic copies the current upstream value into every dynamic inport of node.
// Static inports are left untouched.
func (s *Store) PullDynamic(node domain.NodeID, frame domain.Frame) error {
	schema, err := s.graph.Schema(node)
	if err != nil {
		return err
	}

	dynamic := make([]string, 0, len(schema.Inports))
	for _, in := range schema.Inports {
		u, err := s.resolver.InportUsage(node, in.Name)
		if err != nil {
			return err
		}
		if u == domain.UsageDynamic {
			dynamic = append(dynamic, in.Name)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.stateLocked(node)
	if err != nil {
		return err
	}

	for _, name := range dynamic {
		entry := st.Inports[name]
		switch edge, hasEdge := s.graph.IncomingEdge(node, name); {
		case hasEdge:
			up, err := s.outportLocked(edge.From, edge.FromPort)
			if err != nil {
				return zerr.With(err, "inport", name)
			}
			entry.Value = up.Value
			entry.ValueChanged = max(entry.ValueChanged, up.ValueChanged)
		default:
			att, ok := s.graph.Attachment(node, name)
			if !ok {
				entry.Value = nil
				break
			}
			stamp := observe(st, att, frame)
			entry.Value = att.Value
			entry.ValueChanged = max(entry.ValueChanged, stamp.ValueChanged)
		}
		entry.Usage = domain.UsageDynamic
		entry.Checked = frame
	}
	return nil
}

// observe records the first frame a pull saw the current revision of an attachment.
func observe(st *domain.NodeState, att domain.Attachment, frame domain.Frame) *domain.AttachmentStamp {
	stamp, ok := st.Attached[att.Inport]
	if ok && stamp.Revision == att.Revision {
		return stamp
	}
	next := &domain.AttachmentStamp{
		Revision:      att.Revision,
		Usage:         att.Usage,
		ValueChanged:  frame,
		StaticChanged: frame,
	}
	if ok && stamp.Usage == att.Usage {
		next.StaticChanged = stamp.StaticChanged
	}
	st.Attached[att.Inport] = next
	return next
}

// NeedsRecompilation reports whether the compile operation of outport must run.
func (s *Store) NeedsRecompilation(node domain.NodeID, outport string) (bool, error) {
	depends, err := s.resolver.Depends(node, outport)
	if err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	st, err := s.stateLocked(node)
	if err != nil {
		return false, err
	}
	compiled := st.Compiled[outport]
	if !compiled.Present() {
		return true, nil
	}
	return staleSince(st, depends, compiled.StaticChanged), nil
}

// NeedsReexecution reports whether the execute operation of outport must run under runtime.
// Dynamic runtimes always execute.
func (s *Store) NeedsReexecution(node domain.NodeID, outport string, runtime domain.Usage) (bool, error) {
	if runtime == domain.UsageDynamic {
		return true, nil
	}

	current, err := s.resolver.OutportUsage(node, outport)
	if err != nil {
		return false, err
	}
	depends, err := s.resolver.Depends(node, outport)
	if err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out, err := s.outportLocked(node, outport)
	if err != nil {
		return false, err
	}
	if !out.Present() || out.Usage != current {
		return true, nil
	}
	st := s.states[node]
	return staleSince(st, depends, out.StaticChanged), nil
}

func staleSince(st *domain.NodeState, depends []string, since domain.Frame) bool {
	for _, dep := range depends {
		if in, ok := st.Inports[dep]; ok && in.StaticChanged > since {
			return true
		}
	}
	return false
}

// SaveCompiled stores the compiled artifact of outport as of frame.
func (s *Store) SaveCompiled(node domain.NodeID, outport string, value any, frame domain.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.stateLocked(node)
	if err != nil {
		return err
	}
	c, ok := st.Compiled[outport]
	if !ok {
		return zerr.With(zerr.With(domain.ErrOutportNotFound, "node", node.String()), "outport", outport)
	}
	c.Value = value
	c.StaticChanged = frame
	c.Checked = frame
	return nil
}

// StaticSave stores the result of a static execution. Both change stamps advance to frame.
func (s *Store) StaticSave(node domain.NodeID, outport string, value any, u domain.Usage, frame domain.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.outportLocked(node, outport)
	if err != nil {
		return err
	}
	out.Value = value
	out.Usage = u
	out.ValueChanged = frame
	out.StaticChanged = frame
	out.Checked = frame
	return nil
}

// Reclassify records that outport is now dynamic, or that its static inputs changed,
// without touching its value. Downstream static pulls observe the new staticChanged.
func (s *Store) Reclassify(node domain.NodeID, outport string, u domain.Usage, frame domain.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.outportLocked(node, outport)
	if err != nil {
		return err
	}
	out.Usage = u
	out.StaticChanged = frame
	out.Checked = frame
	return nil
}

// DynamicSave stores the result of a dynamic execution. staticChanged is left untouched.
func (s *Store) DynamicSave(node domain.NodeID, outport string, value any, frame domain.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.outportLocked(node, outport)
	if err != nil {
		return err
	}
	out.Value = value
	out.Usage = domain.UsageDynamic
	out.ValueChanged = frame
	out.Checked = frame
	return nil
}

// ResetCompiled clears the compiled entry of outport so the next staleness check fails.
func (s *Store) ResetCompiled(node domain.NodeID, outport string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.stateLocked(node)
	if err != nil {
		return err
	}
	if _, ok := st.Compiled[outport]; !ok {
		return zerr.With(zerr.With(domain.ErrOutportNotFound, "node", node.String()), "outport", outport)
	}
	st.Compiled[outport] = domain.NewCompiledState()
	return nil
}

// ResetOutport clears the change stamps of outport while keeping its last value readable downstream.
func (s *Store) ResetOutport(node domain.NodeID, outport string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.outportLocked(node, outport)
	if err != nil {
		return err
	}
	value := out.Value
	*out = *domain.NewOutportState()
	out.Value = value
	return nil
}

// Inport returns a copy of the cached inport entry.
func (s *Store) Inport(node domain.NodeID, inport string) (domain.InportState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, err := s.stateLocked(node)
	if err != nil {
		return domain.InportState{}, err
	}
	in, ok := st.Inports[inport]
	if !ok {
		return domain.InportState{}, zerr.With(zerr.With(domain.ErrInportNotFound, "node", node.String()), "inport", inport)
	}
	if !in.Pulled() {
		return domain.InportState{}, zerr.With(zerr.With(domain.ErrInportDoesNotContainCache, "node", node.String()), "inport", inport)
	}
	return *in, nil
}

// Compiled returns a copy of the compiled entry of outport.
func (s *Store) Compiled(node domain.NodeID, outport string) (domain.CompiledState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, err := s.stateLocked(node)
	if err != nil {
		return domain.CompiledState{}, err
	}
	c, ok := st.Compiled[outport]
	if !ok {
		return domain.CompiledState{}, zerr.With(zerr.With(domain.ErrOutportNotFound, "node", node.String()), "outport", outport)
	}
	if !c.Present() {
		return domain.CompiledState{}, zerr.With(zerr.With(domain.ErrNoCompiledValue, "node", node.String()), "outport", outport)
	}
	return *c, nil
}

// Outport returns a copy of the executed entry of outport.
func (s *Store) Outport(node domain.NodeID, outport string) (domain.OutportState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out, err := s.outportLocked(node, outport)
	if err != nil {
		return domain.OutportState{}, err
	}
	if !out.Present() {
		return domain.OutportState{}, zerr.With(zerr.With(domain.ErrOutportDoesNotContainData, "node", node.String()), "outport", outport)
	}
	return *out, nil
}

// Snapshot copies the state of node as of frame.
func (s *Store) Snapshot(node domain.NodeID, frame domain.Frame) (domain.NodeSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, err := s.stateLocked(node)
	if err != nil {
		return domain.NodeSnapshot{}, err
	}
	return st.Snapshot(s.kinds[node], frame), nil
}
