package app

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/ui/style"
)

// renderSnapshot formats a stored node snapshot for `kiln inspect`.
func renderSnapshot(st style.Styles, snap domain.NodeSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", st.Heading(snap.Node), st.Muted(fmt.Sprintf("%s @ frame %s", snap.Kind, stamp(snap.Frame))))

	section := func(title string, ports map[string]domain.PortSnapshot, withUsage bool) {
		if len(ports) == 0 {
			return
		}
		b.WriteString(st.Muted(title) + "\n")
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		for _, name := range domain.SortedPorts(ports) {
			p := ports[name]
			usage := "-"
			if withUsage {
				usage = p.Usage.String()
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\tstatic %s\tvalue %s\tchecked %s\n",
				name, p.Value, usage, stamp(p.StaticChanged), stamp(p.ValueChanged), stamp(p.Checked))
		}
		_ = tw.Flush()
	}
	section("inports", snap.Inports, true)
	section("compiled", snap.Compiled, false)
	section("outports", snap.Outports, true)
	return b.String()
}

func stamp(f domain.Frame) string {
	if !f.IsSet() {
		return "-"
	}
	return fmt.Sprintf("%d", f)
}
