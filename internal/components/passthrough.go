package components

import "go.trai.ch/kiln/internal/core/domain"

// Constant publishes its attached value. The value is always static.
type Constant struct{}

// Kind implements domain.Component.
func (Constant) Kind() string { return "constant" }

// Schema implements domain.Component.
func (Constant) Schema() domain.Schema {
	return domain.Schema{
		Inports:  []domain.InportSpec{{Name: "value", Usage: domain.UsageStatic}},
		Outports: []domain.OutportSpec{{Name: "value", Pass: true}},
	}
}

// Relay forwards its input unchanged and keeps the usage of whatever feeds it.
type Relay struct{}

// Kind implements domain.Component.
func (Relay) Kind() string { return "relay" }

// Schema implements domain.Component.
func (Relay) Schema() domain.Schema {
	return domain.Schema{
		Inports:  []domain.InportSpec{{Name: "value"}},
		Outports: []domain.OutportSpec{{Name: "value", Pass: true}},
	}
}
