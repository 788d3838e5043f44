package config

import (
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the only project file version understood by the loader.
const SupportedVersion = "1"

// Projectfile represents the structure of the kiln.yaml configuration file.
type Projectfile struct {
	Version string              `yaml:"version"`
	Engine  EngineDTO           `yaml:"engine"`
	Nodes   map[string]*NodeDTO `yaml:"nodes"`
	Edges   []EdgeDTO           `yaml:"edges"`
}

// EngineDTO holds the optional engine settings. Unset fields keep their defaults.
type EngineDTO struct {
	Parallel    *bool  `yaml:"parallel"`
	Parallelism *int   `yaml:"parallelism"`
	Frames      *int   `yaml:"frames"`
	Force       *bool  `yaml:"force"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MetricsAddr string `yaml:"metrics_addr"`
	StoreDir    string `yaml:"store_dir"`
}

// NodeDTO represents a node definition in the configuration.
type NodeDTO struct {
	Component string                `yaml:"component"`
	Attach    map[string]*AttachDTO `yaml:"attach"`
}

// EdgeDTO connects an outport to an inport. Both ends are written node.port.
type EdgeDTO struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// AttachDTO is a constant bound to an inport.
// It is written either as {value: ..., usage: ...} or as the bare value.
type AttachDTO struct {
	Value any
	Usage string
}

type attachFields struct {
	Value any    `yaml:"value"`
	Usage string `yaml:"usage"`
}

// UnmarshalYAML accepts both the structured and the bare form.
func (a *AttachDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode && hasKey(node, "value") {
		var f attachFields
		if err := node.Decode(&f); err != nil {
			return err
		}
		a.Value, a.Usage = f.Value, f.Usage
		return nil
	}
	return node.Decode(&a.Value)
}

func hasKey(node *yaml.Node, key string) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}
