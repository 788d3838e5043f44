package domain

import "go.trai.ch/zerr"

var (
	// ErrCycleDetected is returned when the node graph contains a cycle.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrNodeNotFound is returned when a requested node is not part of the graph.
	ErrNodeNotFound = zerr.New("node not found")

	// ErrNodeAlreadyExists is returned when adding a node whose id is already taken.
	ErrNodeAlreadyExists = zerr.New("node already exists")

	// ErrInportNotFound is returned when a node has no inport with the given name.
	ErrInportNotFound = zerr.New("inport not found")

	// ErrOutportNotFound is returned when a node has no outport with the given name.
	ErrOutportNotFound = zerr.New("outport not found")

	// ErrInvalidUsage is returned when a usage value is not one of the known usages,
	// or when a usage is used where it is not allowed.
	ErrInvalidUsage = zerr.New("invalid usage")

	// ErrInheritWithoutDepends is returned when an inherit outport declares no dependencies.
	ErrInheritWithoutDepends = zerr.New("inherit outport has no dependencies")

	// ErrMalformedComponent is returned when a component schema breaks a structural rule.
	ErrMalformedComponent = zerr.New("malformed component")

	// ErrComponentAlreadyRegistered is returned when a component kind is registered twice.
	ErrComponentAlreadyRegistered = zerr.New("component already registered")

	// ErrUnknownComponent is returned when a node references an unregistered component kind.
	ErrUnknownComponent = zerr.New("unknown component")

	// ErrInportAlreadyConnected is returned when connecting an edge to an inport that already has one.
	ErrInportAlreadyConnected = zerr.New("inport already connected")

	// ErrEdgeNotFound is returned when disconnecting an inport that has no edge.
	ErrEdgeNotFound = zerr.New("edge not found")

	// ErrAttachmentNotFound is returned when detaching an inport that has no attachment.
	ErrAttachmentNotFound = zerr.New("attachment not found")

	// ErrStaticInportDynamicAttachment is returned when attaching a dynamic value to a static inport.
	ErrStaticInportDynamicAttachment = zerr.New("cannot attach dynamic value to static inport")

	// ErrOutportDoesNotContainData is returned when reading an outport that was never executed.
	ErrOutportDoesNotContainData = zerr.New("outport does not contain data")

	// ErrInportDoesNotContainCache is returned when reading an inport that was never pulled.
	ErrInportDoesNotContainCache = zerr.New("inport does not contain cache")

	// ErrNoCompiledValue is returned when an operation asks for a compiled artifact that does not exist yet.
	ErrNoCompiledValue = zerr.New("no compiled value")

	// ErrUndeclaredDependency is returned when an operation reads an inport its outport does not depend on.
	ErrUndeclaredDependency = zerr.New("inport is not a declared dependency")

	// ErrNotConnected is returned when a required inport has neither an edge nor an attachment.
	ErrNotConnected = zerr.New("inport is not connected")

	// ErrNotStatic is returned when an inport read statically resolves to dynamic usage.
	ErrNotStatic = zerr.New("inport cannot be evaluated statically")

	// ErrNodeOperationFailed is returned when a compile or execute operation of a node fails.
	ErrNodeOperationFailed = zerr.New("node operation failed")

	// ErrFrameFailed is returned by the application when a frame did not complete.
	ErrFrameFailed = zerr.New("frame failed")

	// ErrStoreReadFailed is returned when reading a snapshot from the store fails.
	ErrStoreReadFailed = zerr.New("failed to read snapshot")

	// ErrStoreUnmarshalFailed is returned when a stored snapshot cannot be decoded.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal snapshot")

	// ErrStoreMarshalFailed is returned when a snapshot cannot be encoded.
	ErrStoreMarshalFailed = zerr.New("failed to marshal snapshot")

	// ErrStoreCreateFailed is returned when the store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create store directory")

	// ErrStoreWriteFailed is returned when writing a snapshot fails.
	ErrStoreWriteFailed = zerr.New("failed to write snapshot")

	// ErrSnapshotNotFound is returned when the store holds no snapshot for a node.
	ErrSnapshotNotFound = zerr.New("no stored snapshot")

	// ErrConfigNotFound is returned when no project file can be found.
	ErrConfigNotFound = zerr.New("could not find " + ProjectFileName)

	// ErrConfigReadFailed is returned when the project file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config")

	// ErrConfigParseFailed is returned when the project file is not valid YAML.
	ErrConfigParseFailed = zerr.New("failed to parse config")

	// ErrUnsupportedVersion is returned when the project file declares an unknown version.
	ErrUnsupportedVersion = zerr.New("unsupported config version")

	// ErrInvalidPortRef is returned when an edge endpoint is not of the form node.port.
	ErrInvalidPortRef = zerr.New("invalid port reference")

	// ErrInvalidEngineConfig is returned when engine settings are out of range.
	ErrInvalidEngineConfig = zerr.New("invalid engine config")

	// ErrUnexpectedValue is returned when a built-in component receives a value of the wrong type.
	ErrUnexpectedValue = zerr.New("unexpected value type")

	// ErrTemplateFailed is returned when a template cannot be parsed or rendered.
	ErrTemplateFailed = zerr.New("template failed")
)
