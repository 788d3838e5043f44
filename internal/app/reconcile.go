package app

import (
	"reflect"

	"go.trai.ch/kiln/internal/core/domain"
)

// Reconcile mutates live until it has the nodes, edges and attachments of next.
// Nodes that keep their kind keep their cache; only changed edges and attachments are touched,
// so an attachment with an unchanged value is not observed as a change.
func Reconcile(live, next *domain.Graph) error {
	if err := reconcileNodes(live, next); err != nil {
		return err
	}
	if err := reconcileEdges(live, next); err != nil {
		return err
	}
	return reconcileAttachments(live, next)
}

func reconcileNodes(live, next *domain.Graph) error {
	for _, id := range live.Nodes() {
		kind, _ := live.Kind(id)
		if nextKind, ok := next.Kind(id); ok && nextKind == kind {
			continue
		}
		if err := live.RemoveNode(id); err != nil {
			return err
		}
	}
	for _, id := range next.Nodes() {
		if _, ok := live.Kind(id); ok {
			continue
		}
		kind, _ := next.Kind(id)
		if err := live.AddNode(id, kind); err != nil {
			return err
		}
	}
	return nil
}

func reconcileEdges(live, next *domain.Graph) error {
	for _, e := range live.Edges() {
		if n, ok := next.IncomingEdge(e.To, e.ToPort); ok && n == e {
			continue
		}
		if err := live.Disconnect(e.To, e.ToPort); err != nil {
			return err
		}
	}
	for _, e := range next.Edges() {
		if _, ok := live.IncomingEdge(e.To, e.ToPort); ok {
			continue
		}
		if err := live.Connect(e); err != nil {
			return err
		}
	}
	return nil
}

func reconcileAttachments(live, next *domain.Graph) error {
	for _, a := range live.Attachments() {
		if _, ok := next.Attachment(a.Node, a.Inport); ok {
			continue
		}
		if err := live.Detach(a.Node, a.Inport); err != nil {
			return err
		}
	}
	for _, a := range next.Attachments() {
		if cur, ok := live.Attachment(a.Node, a.Inport); ok && cur.Usage == a.Usage && reflect.DeepEqual(cur.Value, a.Value) {
			continue
		}
		if err := live.Attach(a.Node, a.Inport, a.Value, a.Usage); err != nil {
			return err
		}
	}
	return nil
}
