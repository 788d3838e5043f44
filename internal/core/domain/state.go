package domain

// Source fingerprints what feeds an inport. The zero value means nothing does.
type Source uint64

// SourceNone is the fingerprint of an inport with neither edge nor attachment.
const SourceNone Source = 0

// InportState is the cached view of one inport.
type InportState struct {
	Usage         Usage
	Source        Source
	Value         any
	StaticChanged Frame
	ValueChanged  Frame
	Checked       Frame
}

// Pulled reports whether a pull has ever populated the entry.
func (s *InportState) Pulled() bool {
	return s.Checked.IsSet()
}

// CompiledState is the cached result of an outport's compile operation.
type CompiledState struct {
	Value         any
	StaticChanged Frame
	Checked       Frame
}

// Present reports whether the outport was ever compiled.
func (s *CompiledState) Present() bool {
	return s.StaticChanged.IsSet()
}

// OutportState is the cached result of an outport's execute operation.
type OutportState struct {
	Value         any
	Usage         Usage
	ValueChanged  Frame
	StaticChanged Frame
	Checked       Frame
}

// Present reports whether the outport was ever executed.
func (s *OutportState) Present() bool {
	return s.StaticChanged.IsSet() || s.ValueChanged.IsSet()
}

// AttachmentStamp records when a pull first observed an attachment revision.
type AttachmentStamp struct {
	Revision      uint64
	Usage         Usage
	ValueChanged  Frame
	StaticChanged Frame
}

// NodeState holds every cache entry of one node.
type NodeState struct {
	Node     NodeID
	Inports  map[string]*InportState
	Compiled map[string]*CompiledState
	Outports map[string]*OutportState
	Attached map[string]*AttachmentStamp
}

// NewNodeState creates an empty state with one unset entry per declared port.
func NewNodeState(node NodeID, schema *Schema) *NodeState {
	st := &NodeState{
		Node:     node,
		Inports:  make(map[string]*InportState, len(schema.Inports)),
		Compiled: make(map[string]*CompiledState, len(schema.Outports)),
		Outports: make(map[string]*OutportState, len(schema.Outports)),
		Attached: make(map[string]*AttachmentStamp),
	}
	for _, in := range schema.Inports {
		st.Inports[in.Name] = NewInportState()
	}
	for _, out := range schema.Outports {
		st.Compiled[out.Name] = NewCompiledState()
		st.Outports[out.Name] = NewOutportState()
	}
	return st
}

// NewInportState returns an inport entry with all stamps unset.
func NewInportState() *InportState {
	return &InportState{
		StaticChanged: NoFrame,
		ValueChanged:  NoFrame,
		Checked:       NoFrame,
	}
}

// NewCompiledState returns a compiled entry with all stamps unset.
func NewCompiledState() *CompiledState {
	return &CompiledState{
		StaticChanged: NoFrame,
		Checked:       NoFrame,
	}
}

// NewOutportState returns an executed entry with all stamps unset.
func NewOutportState() *OutportState {
	return &OutportState{
		ValueChanged:  NoFrame,
		StaticChanged: NoFrame,
		Checked:       NoFrame,
	}
}
