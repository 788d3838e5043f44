package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/kiln/internal/ui/style"
)

// Attribute keys the scheduler attaches to frame and node errors. The pretty handler
// renders them as a location prefix instead of key=value pairs.
const (
	AttrFrame = "frame"
	AttrNode  = "node"
	AttrPhase = "phase"
)

// PrettyHandler is a slog.Handler that writes one colored line per record.
// Records carrying engine location attributes are prefixed with e.g. [sum@2 compile].
type PrettyHandler struct {
	out   *termenv.Output
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// NewPrettyHandler creates a PrettyHandler writing to w.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &PrettyHandler{
		out:   output.New(w),
		level: level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes the record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var msg string
	var color termenv.Color

	var loc location
	attrParts := make([]string, 0, len(h.attrs)+r.NumAttrs())
	collect := func(attr slog.Attr) {
		if h.group == "" && loc.take(attr) {
			return
		}
		attrParts = append(attrParts, formatAttr(h.group, attr))
	}
	for _, attr := range h.attrs {
		collect(attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		collect(attr)
		return true
	})

	text := r.Message
	if prefix := loc.String(); prefix != "" {
		text = prefix + " " + text
	}

	switch {
	case r.Level >= slog.LevelError:
		msg = style.Cross + " " + text
		color = termenv.RGBColor(string(style.Red))
	case r.Level >= slog.LevelWarn:
		msg = style.Warning + " " + text
		color = termenv.RGBColor(string(style.Yellow))
	case r.Level < slog.LevelInfo:
		msg = style.Circle + " " + text
		color = termenv.RGBColor(string(style.Slate))
	default:
		msg = text
		color = termenv.RGBColor(string(style.Slate))
	}

	if len(attrParts) > 0 {
		msg += " " + strings.Join(attrParts, " ")
	}

	styled := h.out.String(msg).Foreground(color)
	_, err := h.out.WriteString(styled.String() + "\n")
	return err
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &PrettyHandler{
		out:   h.out,
		level: h.level,
		attrs: newAttrs,
		group: h.group,
	}
}

// WithGroup returns a new Handler with the given group name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	return &PrettyHandler{
		out:   h.out,
		level: h.level,
		attrs: h.attrs,
		group: name,
	}
}

func formatAttr(group string, attr slog.Attr) string {
	key := attr.Key
	if group != "" {
		key = group + "." + key
	}
	return key + "=" + attr.Value.String()
}

// location is the frame, node and phase a record refers to.
type location struct {
	frame, node, phase string
}

// take records attr if it is a location key and reports whether it was one.
func (l *location) take(attr slog.Attr) bool {
	switch attr.Key {
	case AttrFrame:
		l.frame = attr.Value.String()
	case AttrNode:
		l.node = attr.Value.String()
	case AttrPhase:
		l.phase = attr.Value.String()
	default:
		return false
	}
	return true
}

func (l location) String() string {
	var where string
	switch {
	case l.node != "" && l.frame != "":
		where = l.node + "@" + l.frame
	case l.node != "":
		where = l.node
	case l.frame != "":
		where = "frame " + l.frame
	}
	if l.phase != "" {
		where = strings.TrimSpace(where + " " + l.phase)
	}
	if where == "" {
		return ""
	}
	return "[" + where + "]"
}
