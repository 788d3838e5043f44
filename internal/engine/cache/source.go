package cache

import (
	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
)

// EdgeSource fingerprints an inport fed by an edge.
func EdgeSource(e domain.Edge) domain.Source {
	return fingerprint("edge", e.From.String(), e.FromPort, e.To.String(), e.ToPort)
}

// AttachmentSource fingerprints an inport fed by an attachment.
// The fingerprint names the binding, not the value: value changes are tracked by revision.
func AttachmentSource(node domain.NodeID, inport string) domain.Source {
	return fingerprint("attached", node.String(), inport)
}

func fingerprint(parts ...string) domain.Source {
	d := xxhash.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = d.Write([]byte{0})
		}
		_, _ = d.WriteString(p)
	}
	if sum := domain.Source(d.Sum64()); sum != domain.SourceNone {
		return sum
	}
	return domain.SourceNone + 1
}
