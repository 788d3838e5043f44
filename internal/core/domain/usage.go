package domain

import (
	"strconv"

	"go.trai.ch/zerr"
)

// Usage classifies how often the value of a port is expected to change.
type Usage uint8

const (
	// UsageUnspecified means the component did not declare a usage.
	// It resolves the same way as UsageInherit.
	UsageUnspecified Usage = iota
	// UsageStatic marks values that rarely change and gate recompilation.
	UsageStatic
	// UsageDynamic marks values that change every frame.
	UsageDynamic
	// UsageInherit derives the usage from wiring or dependencies.
	UsageInherit
)

// String returns the name used for the usage in project files.
func (u Usage) String() string {
	switch u {
	case UsageUnspecified:
		return ""
	case UsageStatic:
		return "static"
	case UsageDynamic:
		return "dynamic"
	case UsageInherit:
		return "inherit"
	default:
		return "usage(" + strconv.Itoa(int(u)) + ")"
	}
}

// Valid reports whether u is one of the declared usages.
func (u Usage) Valid() bool {
	return u <= UsageInherit
}

// Resolved reports whether u is a concrete classification, static or dynamic.
func (u Usage) Resolved() bool {
	return u == UsageStatic || u == UsageDynamic
}

// ParseUsage converts a project file usage name to a Usage.
// The empty string parses as UsageUnspecified.
func ParseUsage(s string) (Usage, error) {
	switch s {
	case "":
		return UsageUnspecified, nil
	case "static":
		return UsageStatic, nil
	case "dynamic":
		return UsageDynamic, nil
	case "inherit":
		return UsageInherit, nil
	default:
		return UsageUnspecified, zerr.With(ErrInvalidUsage, "usage", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (u Usage) MarshalText() ([]byte, error) {
	if !u.Valid() {
		return nil, zerr.With(ErrInvalidUsage, "usage", int(u))
	}
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Usage) UnmarshalText(text []byte) error {
	parsed, err := ParseUsage(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Frame is a monotonically increasing frame number used to stamp cache entries.
type Frame int64

// NoFrame marks a stamp that was never set.
const NoFrame Frame = -1

// IsSet reports whether the stamp holds a real frame number.
func (f Frame) IsSet() bool {
	return f > NoFrame
}
