// Package config loads kiln.yaml project files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger   ports.Logger
	Registry *domain.Registry
	FS       FileSystem
}

// NewLoader creates a Loader reading from the OS filesystem.
func NewLoader(logger ports.Logger, registry *domain.Registry) *Loader {
	return &Loader{Logger: logger, Registry: registry, FS: OSFS{}}
}

// Load walks up from cwd to the nearest kiln.yaml and loads it.
func (l *Loader) Load(cwd string) (*domain.Project, error) {
	path, err := l.findConfiguration(cwd)
	if err != nil {
		return nil, err
	}
	return l.LoadFile(path)
}

// LoadFile reads, validates and converts the project file at path.
func (l *Loader) LoadFile(path string) (*domain.Project, error) {
	var pf Projectfile
	if err := l.readAndUnmarshalYAML(path, &pf); err != nil {
		return nil, zerr.With(err, "path", path)
	}
	if pf.Version != SupportedVersion {
		return nil, zerr.With(zerr.With(domain.ErrUnsupportedVersion, "version", pf.Version), "path", path)
	}

	root := filepath.Dir(path)
	engine, err := buildEngine(root, pf.Engine)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	graph, err := l.buildGraph(&pf)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}

	return &domain.Project{
		Root:   root,
		Path:   path,
		Engine: engine,
		Graph:  graph,
	}, nil
}

func (l *Loader) findConfiguration(cwd string) (string, error) {
	currentDir, err := filepath.Abs(cwd)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to resolve working directory"), "cwd", cwd)
	}
	for {
		candidate := filepath.Join(currentDir, domain.ProjectFileName)
		if info, err := l.FS.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}
	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

// readAndUnmarshalYAML rejects unknown keys so that typos in the project file surface.
func (l *Loader) readAndUnmarshalYAML(path string, target *Projectfile) error {
	data, err := l.FS.ReadFile(path)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}
	return nil
}

func buildEngine(root string, dto EngineDTO) (domain.EngineConfig, error) {
	cfg := domain.DefaultEngineConfig()
	if dto.Parallel != nil {
		cfg.Parallel = *dto.Parallel
	}
	if dto.Parallelism != nil {
		cfg.Parallelism = *dto.Parallelism
	}
	if dto.Frames != nil {
		cfg.Frames = *dto.Frames
	}
	if dto.Force != nil {
		cfg.Force = *dto.Force
	}

	level, err := domain.ParseLogLevel(dto.LogLevel)
	if err != nil {
		return cfg, err
	}
	cfg.LogLevel = level

	switch dto.LogFormat {
	case "", "text":
	case "json":
		cfg.JSONLogs = true
	default:
		return cfg, zerr.With(domain.ErrInvalidEngineConfig, "log_format", dto.LogFormat)
	}

	cfg.MetricsAddr = dto.MetricsAddr
	storeDir := dto.StoreDir
	if storeDir == "" {
		storeDir = cfg.StoreDir
	}
	if !filepath.IsAbs(storeDir) {
		storeDir = filepath.Join(root, storeDir)
	}
	cfg.StoreDir = filepath.Clean(storeDir)

	return cfg, cfg.Validate()
}

// buildGraph adds nodes in name order so that the graph is the same for the same file.
func (l *Loader) buildGraph(pf *Projectfile) (*domain.Graph, error) {
	g := domain.NewGraph(l.Registry)

	names := make([]string, 0, len(pf.Nodes))
	for name := range pf.Nodes {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if err := validateNodeName(name); err != nil {
			return nil, err
		}
		dto := pf.Nodes[name]
		if dto == nil || dto.Component == "" {
			return nil, zerr.With(domain.ErrUnknownComponent, "node", name)
		}
		id := domain.NewNodeID(name)
		if err := g.AddNode(id, dto.Component); err != nil {
			return nil, err
		}
		if err := g.InitializeNode(id); err != nil {
			return nil, err
		}
		if err := l.attach(g, id, dto.Attach); err != nil {
			return nil, err
		}
	}

	for i, e := range pf.Edges {
		edge, err := parseEdge(e)
		if err != nil {
			return nil, zerr.With(err, "edge", i)
		}
		if err := g.Connect(edge); err != nil {
			return nil, zerr.With(err, "edge", i)
		}
	}

	if _, err := g.Levels(); err != nil {
		return nil, err
	}
	return g, nil
}

// attach binds the node's attachments in inport order. An attachment without usage takes
// the declared usage of its inport, or static when that is not resolved.
func (l *Loader) attach(g *domain.Graph, id domain.NodeID, attach map[string]*AttachDTO) error {
	schema, err := g.Schema(id)
	if err != nil {
		return err
	}

	inports := make([]string, 0, len(attach))
	for name := range attach {
		inports = append(inports, name)
	}
	slices.Sort(inports)

	for _, inport := range inports {
		dto := attach[inport]
		if dto == nil {
			dto = &AttachDTO{}
		}
		u, err := domain.ParseUsage(dto.Usage)
		if err != nil {
			return zerr.With(zerr.With(err, "node", id.String()), "inport", inport)
		}
		if u == domain.UsageUnspecified {
			u = domain.UsageStatic
			if spec, ok := schema.Inport(inport); ok && spec.Usage.Resolved() {
				u = spec.Usage
			}
		}
		if err := g.Attach(id, inport, dto.Value, u); err != nil {
			return err
		}
	}

	if l.Logger != nil && len(attach) > 0 {
		l.Logger.Debug(fmt.Sprintf("attached %d value(s) to %s", len(attach), id))
	}
	return nil
}

func validateNodeName(name string) error {
	if name == "" || strings.ContainsAny(name, ". \t") {
		return zerr.With(domain.ErrInvalidPortRef, "node", name)
	}
	return nil
}

func parseEdge(e EdgeDTO) (domain.Edge, error) {
	from, fromPort, err := parsePortRef(e.From)
	if err != nil {
		return domain.Edge{}, err
	}
	to, toPort, err := parsePortRef(e.To)
	if err != nil {
		return domain.Edge{}, err
	}
	return domain.Edge{From: from, FromPort: fromPort, To: to, ToPort: toPort}, nil
}

// parsePortRef splits node.port at the first dot. Port names may contain further dots.
func parsePortRef(ref string) (domain.NodeID, string, error) {
	node, port, ok := strings.Cut(ref, ".")
	if !ok || node == "" || port == "" {
		return domain.NodeID{}, "", zerr.With(domain.ErrInvalidPortRef, "ref", ref)
	}
	return domain.NewNodeID(node), port, nil
}
