package logger

// ErrorEntry exposes errorEntry fields for white-box tests.
type ErrorEntry = errorEntry

var (
	CollectErrorEntries = collectErrorEntries
	FormatErrorEntries  = formatErrorEntries
	LiftLocation        = liftLocation
)

// Message returns the message of an entry.
func (e errorEntry) Message() string { return e.message }

// Meta returns the metadata of an entry.
func (e errorEntry) Meta() map[string]any { return e.metadata }
