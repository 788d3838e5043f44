// Package scheduler drives frames over the node graph.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/cache"
	"go.trai.ch/kiln/internal/engine/usage"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// FrameOptions configures a single frame.
type FrameOptions struct {
	// Force clears compiled entries and static execution stamps before the static passes.
	Force bool
	// Parallel visits the nodes of one level concurrently.
	Parallel bool
	// Parallelism bounds the concurrent visits of a level. Zero means unbounded.
	Parallelism int
	// Failure, when set, receives every node-level error of the frame.
	Failure func(err error, node domain.NodeID)
}

// Factory creates a Scheduler for a graph.
type Factory func(graph ports.Graph) *Scheduler

// Scheduler drives the passes of a frame over one graph and owns its cache.
// Frames are serialized; a frame runs to completion once started.
type Scheduler struct {
	graph    ports.Graph
	resolver *usage.Resolver
	store    *cache.Store
	tracer   ports.Tracer
	logger   ports.Logger
	metrics  ports.Metrics

	mu    sync.Mutex
	frame domain.Frame
}

// NewScheduler creates a Scheduler over graph.
func NewScheduler(
	graph ports.Graph,
	tracer ports.Tracer,
	logger ports.Logger,
	metrics ports.Metrics,
) *Scheduler {
	resolver := usage.NewResolver(graph)
	return &Scheduler{
		graph:    graph,
		resolver: resolver,
		store:    cache.NewStore(graph, resolver),
		tracer:   tracer,
		logger:   logger,
		metrics:  metrics,
		frame:    domain.NoFrame,
	}
}

// Frame returns the stamp of the last frame, or domain.NoFrame before the first one.
func (s *Scheduler) Frame() domain.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Resolver returns the usage resolver of the graph.
func (s *Scheduler) Resolver() *usage.Resolver {
	return s.resolver
}

// Levels returns the topological levels of the graph.
func (s *Scheduler) Levels() ([][]domain.NodeID, error) {
	edges := s.graph.Edges()
	links := make([]domain.Link, len(edges))
	for i, e := range edges {
		links[i] = e.Link()
	}
	return domain.LevelOrder(s.graph.Nodes(), links)
}

// Ordering returns a topological order of the graph.
func (s *Scheduler) Ordering() ([]domain.NodeID, error) {
	levels, err := s.Levels()
	if err != nil {
		return nil, err
	}
	return domain.Flatten(levels), nil
}

// CompileFrame runs the static passes: pull static, compile, execute static.
func (s *Scheduler) CompileFrame(ctx context.Context, opts FrameOptions) error {
	return s.run(ctx, domain.FrameCompile, opts, domain.PhasePullStatic, domain.PhaseCompile, domain.PhaseExecuteStatic)
}

// ExecuteFrame runs the dynamic passes: pull dynamic, execute dynamic.
func (s *Scheduler) ExecuteFrame(ctx context.Context, opts FrameOptions) error {
	return s.run(ctx, domain.FrameExecute, opts, domain.PhasePullDynamic, domain.PhaseExecuteDynamic)
}

// RunFrame runs all five passes under a single frame stamp.
func (s *Scheduler) RunFrame(ctx context.Context, opts FrameOptions) error {
	return s.run(ctx, domain.FrameFull, opts,
		domain.PhasePullStatic,
		domain.PhaseCompile,
		domain.PhaseExecuteStatic,
		domain.PhasePullDynamic,
		domain.PhaseExecuteDynamic,
	)
}

// PullStatic pulls the static inports of node under the current frame stamp.
func (s *Scheduler) PullStatic(node domain.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Sync(); err != nil {
		return err
	}
	return s.store.PullStatic(node, max(s.frame, 0))
}

// PullDynamic pulls the dynamic inports of node under the current frame stamp.
func (s *Scheduler) PullDynamic(node domain.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Sync(); err != nil {
		return err
	}
	return s.store.PullDynamic(node, max(s.frame, 0))
}

// ClearCache drops every cache entry of node.
func (s *Scheduler) ClearCache(node domain.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Clear(node)
}

// Outport returns the executed entry of an outport.
func (s *Scheduler) Outport(node domain.NodeID, outport string) (domain.OutportState, error) {
	return s.store.Outport(node, outport)
}

// Compiled returns the compiled entry of an outport.
func (s *Scheduler) Compiled(node domain.NodeID, outport string) (domain.CompiledState, error) {
	return s.store.Compiled(node, outport)
}

// Snapshot copies the cache entries of node as of the last frame.
func (s *Scheduler) Snapshot(node domain.NodeID) (domain.NodeSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot(node, s.frame)
}

// Snapshots copies the cache entries of every node in graph order.
func (s *Scheduler) Snapshots() ([]domain.NodeSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Sync(); err != nil {
		return nil, err
	}
	nodes := s.graph.Nodes()
	out := make([]domain.NodeSnapshot, 0, len(nodes))
	for _, node := range nodes {
		snap, err := s.store.Snapshot(node, s.frame)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func (s *Scheduler) run(ctx context.Context, kind domain.FrameKind, opts FrameOptions, phases ...domain.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	err := s.runLocked(ctx, kind, opts, phases)
	s.metrics.RecordFrame(kind, time.Since(start), err)
	return err
}

func (s *Scheduler) runLocked(ctx context.Context, kind domain.FrameKind, opts FrameOptions, phases []domain.Phase) error {
	levels, err := s.Levels()
	if err != nil {
		return err
	}
	if err := s.store.Sync(); err != nil {
		return err
	}

	s.frame++
	frame := s.frame

	ctx, span := s.tracer.Start(ctx, fmt.Sprintf("frame %d", frame),
		ports.WithAttribute("kiln.frame", int64(frame)),
		ports.WithAttribute("kiln.frame_kind", string(kind)),
	)
	defer span.End()

	plan := make([][]string, len(levels))
	for i, level := range levels {
		plan[i] = make([]string, len(level))
		for j, node := range level {
			plan[i][j] = node.String()
		}
	}
	s.tracer.EmitPlan(ctx, plan)
	s.logger.Debug(fmt.Sprintf("%s frame %d over %d levels", kind, frame, len(levels)))

	if opts.Force && kind != domain.FrameExecute {
		if err := s.reset(); err != nil {
			span.RecordError(err)
			return err
		}
	}

	for _, level := range levels {
		if err := s.runLevel(ctx, level, phases, frame, opts); err != nil {
			err = zerr.With(err, "frame", int64(frame))
			span.RecordError(err)
			return err
		}
	}
	return nil
}

// reset clears compiled entries and static execution stamps of every node.
func (s *Scheduler) reset() error {
	for _, node := range s.graph.Nodes() {
		schema, err := s.graph.Schema(node)
		if err != nil {
			return err
		}
		for _, out := range schema.Outports {
			if err := s.store.ResetCompiled(node, out.Name); err != nil {
				return err
			}
			if err := s.store.ResetOutport(node, out.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// runLevel takes every node of a level through phases. Sequential visits stop at the first error;
// parallel visits all finish, every error is reported and the first one is returned.
func (s *Scheduler) runLevel(
	ctx context.Context,
	level []domain.NodeID,
	phases []domain.Phase,
	frame domain.Frame,
	opts FrameOptions,
) error {
	if !opts.Parallel || len(level) < 2 {
		for _, node := range level {
			if err := s.visit(ctx, node, phases, frame); err != nil {
				s.report(opts, err, node)
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	if opts.Parallelism > 0 {
		g.SetLimit(opts.Parallelism)
	}
	errs := make([]error, len(level))
	for i, node := range level {
		g.Go(func() error {
			errs[i] = s.visit(ctx, node, phases, frame)
			return nil
		})
	}
	_ = g.Wait()

	var first error
	for i, err := range errs {
		if err == nil {
			continue
		}
		s.report(opts, err, level[i])
		if first == nil {
			first = err
		}
	}
	return first
}

func (s *Scheduler) report(opts FrameOptions, err error, node domain.NodeID) {
	if opts.Failure != nil {
		opts.Failure(err, node)
	}
}

// visit runs phases on one node in order. Later levels only start once every node of
// the current level went through all phases, so downstream pulls see this frame's writes.
func (s *Scheduler) visit(ctx context.Context, node domain.NodeID, phases []domain.Phase, frame domain.Frame) error {
	for _, phase := range phases {
		if err := s.step(ctx, node, phase, frame); err != nil {
			return zerr.With(zerr.With(err, "node", node.String()), "phase", string(phase))
		}
	}
	return nil
}

func (s *Scheduler) step(ctx context.Context, node domain.NodeID, phase domain.Phase, frame domain.Frame) error {
	switch phase {
	case domain.PhasePullStatic:
		return s.store.PullStatic(node, frame)
	case domain.PhaseCompile:
		return s.compile(ctx, node, frame)
	case domain.PhaseExecuteStatic:
		return s.executeStatic(ctx, node, frame)
	case domain.PhasePullDynamic:
		return s.store.PullDynamic(node, frame)
	case domain.PhaseExecuteDynamic:
		return s.executeDynamic(ctx, node, frame)
	}
	return nil
}

func (s *Scheduler) compile(ctx context.Context, node domain.NodeID, frame domain.Frame) error {
	schema, err := s.graph.Schema(node)
	if err != nil {
		return err
	}
	for _, out := range schema.Outports {
		if out.Compile == nil {
			continue
		}
		stale, err := s.store.NeedsRecompilation(node, out.Name)
		if err != nil {
			return err
		}
		if !stale {
			s.skipped(node, out.Name, domain.PhaseCompile)
			continue
		}
		value, err := s.invoke(ctx, node, out, domain.PhaseCompile, domain.UsageStatic, out.Compile)
		if err != nil {
			return err
		}
		if err := s.store.SaveCompiled(node, out.Name, value, frame); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) executeStatic(ctx context.Context, node domain.NodeID, frame domain.Frame) error {
	schema, err := s.graph.Schema(node)
	if err != nil {
		return err
	}
	for _, out := range schema.Outports {
		u, err := s.resolver.OutportUsage(node, out.Name)
		if err != nil {
			return err
		}
		stale, err := s.store.NeedsReexecution(node, out.Name, domain.UsageStatic)
		if err != nil {
			return err
		}
		if !stale {
			s.skipped(node, out.Name, domain.PhaseExecuteStatic)
			continue
		}
		if u == domain.UsageDynamic {
			if err := s.store.Reclassify(node, out.Name, u, frame); err != nil {
				return err
			}
			continue
		}

		value, err := s.evaluate(ctx, node, out, domain.PhaseExecuteStatic, domain.UsageStatic)
		if err != nil {
			return err
		}
		if err := s.store.StaticSave(node, out.Name, value, u, frame); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) executeDynamic(ctx context.Context, node domain.NodeID, frame domain.Frame) error {
	schema, err := s.graph.Schema(node)
	if err != nil {
		return err
	}
	for _, out := range schema.Outports {
		u, err := s.resolver.OutportUsage(node, out.Name)
		if err != nil {
			return err
		}
		if u != domain.UsageDynamic {
			continue
		}
		value, err := s.evaluate(ctx, node, out, domain.PhaseExecuteDynamic, domain.UsageDynamic)
		if err != nil {
			return err
		}
		if err := s.store.DynamicSave(node, out.Name, value, frame); err != nil {
			return err
		}
	}
	return nil
}

// evaluate computes the execute value of an outport. Pass outports mirror their inport.
func (s *Scheduler) evaluate(
	ctx context.Context,
	node domain.NodeID,
	out domain.OutportSpec,
	phase domain.Phase,
	runtime domain.Usage,
) (any, error) {
	if !out.Pass {
		return s.invoke(ctx, node, out, phase, runtime, out.Execute)
	}
	in, err := s.store.Inport(node, out.Name)
	if err != nil {
		return nil, err
	}
	kind, _ := s.graph.Kind(node)
	s.metrics.RecordOperation(phase, kind, domain.OutcomeRan, 0)
	return in.Value, nil
}

func (s *Scheduler) invoke(
	ctx context.Context,
	node domain.NodeID,
	out domain.OutportSpec,
	phase domain.Phase,
	runtime domain.Usage,
	op domain.OperationFunc,
) (any, error) {
	kind, _ := s.graph.Kind(node)
	ctx, span := s.tracer.Start(ctx, node.String()+"."+out.Name,
		ports.WithAttribute("kiln.phase", string(phase)),
		ports.WithAttribute("kiln.kind", kind),
	)
	defer span.End()

	nc := &nodeContext{
		graph:   s.graph,
		store:   s.store,
		node:    node,
		outport: out.Name,
		runtime: runtime,
		depends: out.EffectiveDepends(),
	}

	start := time.Now()
	value, err := op(ctx, nc)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.RecordOperation(phase, kind, domain.OutcomeFailed, elapsed)
		err = zerr.With(zerr.Wrap(err, domain.ErrNodeOperationFailed.Error()), "outport", out.Name)
		span.RecordError(err)
		return nil, err
	}
	s.metrics.RecordOperation(phase, kind, domain.OutcomeRan, elapsed)
	return value, nil
}

func (s *Scheduler) skipped(node domain.NodeID, outport string, phase domain.Phase) {
	kind, _ := s.graph.Kind(node)
	s.metrics.RecordOperation(phase, kind, domain.OutcomeSkipped, 0)
	s.logger.Debug(fmt.Sprintf("%s %s.%s is fresh", phase, node, outport))
}
