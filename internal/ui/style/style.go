// Package style provides shared colors and icons for terminal output.
package style

import "github.com/charmbracelet/lipgloss"

// Brand Colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Dot     = "●"
	Circle  = "○"
)

// Styles renders the shared styles through one renderer.
type Styles struct {
	heading lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
}

// New creates Styles bound to r. A nil renderer uses the lipgloss default.
func New(r *lipgloss.Renderer) Styles {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return Styles{
		heading: r.NewStyle().Bold(true).Foreground(Iris),
		muted:   r.NewStyle().Foreground(Slate),
		success: r.NewStyle().Foreground(Green),
	}
}

// Heading renders a section title for reports such as `kiln inspect`.
func (s Styles) Heading(str string) string {
	return s.heading.Render(str)
}

// Muted renders secondary text.
func (s Styles) Muted(str string) string {
	return s.muted.Render(str)
}

// Success renders str in the success color.
func (s Styles) Success(str string) string {
	return s.success.Render(str)
}
