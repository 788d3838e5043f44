// Package app implements the application layer for kiln.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/adapters/timer"
	"go.trai.ch/kiln/internal/adapters/watcher"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/kiln/internal/ui/style"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// MetricsServer exposes recorded metrics over HTTP.
type MetricsServer interface {
	Serve(ctx context.Context, addr string) (net.Addr, <-chan error, error)
}

// logSettings is implemented by loggers whose level and format can change after construction.
type logSettings interface {
	SetLevel(level domain.LogLevel)
	SetJSON(enable bool)
}

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	store        ports.SnapshotStore
	logger       ports.Logger
	newScheduler scheduler.Factory
	metrics      MetricsServer
	watcher      ports.Watcher
	out          io.Writer
	now          func() time.Time
	debounce     time.Duration
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	store ports.SnapshotStore,
	log ports.Logger,
	newScheduler scheduler.Factory,
	metrics MetricsServer,
	w ports.Watcher,
) *App {
	return &App{
		configLoader: loader,
		store:        store,
		logger:       log,
		newScheduler: newScheduler,
		metrics:      metrics,
		watcher:      w,
		out:          os.Stdout,
		now:          time.Now,
		debounce:     watcher.DefaultDebounceWindow,
	}
}

// WithOutput sets the writer that receives rendered results.
func (a *App) WithOutput(w io.Writer) *App {
	a.out = w
	return a
}

// WithClock sets the clock used to time frames.
// This is primarily used for testing with synctest.
func (a *App) WithClock(now func() time.Time) *App {
	a.now = now
	return a
}

// WithDebounce sets the window used to coalesce project file changes in watch mode.
func (a *App) WithDebounce(window time.Duration) *App {
	a.debounce = window
	return a
}

// RunOptions configuration for the Run method.
// Zero values keep the setting of the project file.
type RunOptions struct {
	Cwd         string
	Frames      int
	Parallel    bool
	Force       bool
	Watch       bool
	MetricsAddr string
	Trace       bool
	JSON        bool
	LogLevel    string
}

// Run loads the project and drives its frames.
//
//nolint:cyclop // orchestration function
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	// 1. Load the project
	project, err := a.load(opts.Cwd)
	if err != nil {
		return err
	}
	cfg, err := a.apply(project.Engine, opts)
	if err != nil {
		return err
	}

	// 2. Initialize Telemetry
	if opts.Trace {
		shutdown := telemetry.Install(telemetry.NewBridge(a.logger))
		defer func() {
			_ = shutdown(context.WithoutCancel(ctx))
		}()
	}

	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 3. Serve metrics for the lifetime of the run
	if cfg.MetricsAddr != "" && a.metrics != nil {
		addr, serveErr, err := a.metrics.Serve(ctx, cfg.MetricsAddr)
		if err != nil {
			return err
		}
		a.logger.Info(fmt.Sprintf("serving metrics on http://%s/metrics", addr))
		g.Go(func() error {
			return <-serveErr
		})
	}

	// 4. Drive frames
	r := &runner{
		app:     a,
		project: project,
		sched:   a.newScheduler(project.Graph),
		timer:   timer.New(timer.DefaultSamples, a.now),
		opts: scheduler.FrameOptions{
			Force:       cfg.Force,
			Parallel:    cfg.Parallel,
			Parallelism: cfg.Parallelism,
		},
	}
	g.Go(func() error {
		defer cancel()

		if err := r.frames(ctx, cfg.Frames); err != nil {
			return err
		}
		if err := r.persist(cfg.StoreDir); err != nil {
			return err
		}
		if opts.Watch {
			return r.watch(ctx, cfg.StoreDir)
		}
		return r.render()
	})

	return g.Wait()
}

// Order prints the topological levels of the project graph.
func (a *App) Order(_ context.Context, cwd string) error {
	project, err := a.load(cwd)
	if err != nil {
		return err
	}
	levels, err := project.Graph.Levels()
	if err != nil {
		return err
	}

	out := output.New(a.out)
	st := style.New(output.Renderer(out))
	var b strings.Builder
	for i, level := range levels {
		names := make([]string, len(level))
		for j, n := range level {
			names[j] = n.String()
		}
		fmt.Fprintf(&b, "%s %s\n", st.Muted(fmt.Sprintf("%d", i)), strings.Join(names, " "))
	}
	_, err = out.WriteString(b.String())
	return err
}

// Inspect prints the stored snapshot of a node from the last run.
func (a *App) Inspect(_ context.Context, cwd, node string) error {
	project, err := a.load(cwd)
	if err != nil {
		return err
	}
	if _, ok := project.Graph.Kind(domain.NewNodeID(node)); !ok {
		return zerr.With(domain.ErrNodeNotFound, "node", node)
	}
	snap, err := a.store.Get(project.Engine.StoreDir, node)
	if err != nil {
		return err
	}
	if snap == nil {
		return zerr.With(zerr.With(domain.ErrSnapshotNotFound, "node", node), "dir", project.Engine.StoreDir)
	}
	out := output.New(a.out)
	_, err = out.WriteString(renderSnapshot(style.New(output.Renderer(out)), *snap))
	return err
}

// Clean removes the snapshot store of the project.
func (a *App) Clean(_ context.Context, cwd string) error {
	project, err := a.load(cwd)
	if err != nil {
		return err
	}
	dir := project.Engine.StoreDir
	a.logger.Info(fmt.Sprintf("removing %s...", dir))
	if err := os.RemoveAll(dir); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to remove snapshot store"), "dir", dir)
	}
	return nil
}

func (a *App) load(cwd string) (*domain.Project, error) {
	if cwd == "" {
		cwd = "."
	}
	project, err := a.configLoader.Load(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return project, nil
}

// apply merges command line overrides into the engine settings and configures the logger.
func (a *App) apply(cfg domain.EngineConfig, opts RunOptions) (domain.EngineConfig, error) {
	if opts.Frames > 0 {
		cfg.Frames = opts.Frames
	}
	cfg.Parallel = cfg.Parallel || opts.Parallel
	cfg.Force = cfg.Force || opts.Force
	cfg.JSONLogs = cfg.JSONLogs || opts.JSON
	if opts.MetricsAddr != "" {
		cfg.MetricsAddr = opts.MetricsAddr
	}
	if opts.LogLevel != "" {
		level, err := domain.ParseLogLevel(opts.LogLevel)
		if err != nil {
			return cfg, err
		}
		cfg.LogLevel = level
	}

	if l, ok := a.logger.(logSettings); ok {
		l.SetLevel(cfg.LogLevel)
		l.SetJSON(cfg.JSONLogs)
	}
	return cfg, nil
}

// runner holds the state of one Run.
type runner struct {
	app     *App
	project *domain.Project
	sched   *scheduler.Scheduler
	timer   *timer.Timer
	opts    scheduler.FrameOptions
}

// frame drives a single frame and logs every failure, whether it came from a node
// or from the frame setup. Force applies to the first frame only.
func (r *runner) frame(ctx context.Context) error {
	opts := r.opts
	reported := false
	opts.Failure = func(err error, _ domain.NodeID) {
		reported = true
		r.app.logger.Error(err)
	}

	r.timer.Tick()
	r.timer.Start()
	err := r.sched.RunFrame(ctx, opts)
	r.timer.End()
	r.timer.Tock()
	r.opts.Force = false
	if err != nil {
		if !reported {
			r.app.logger.Error(err)
		}
		return errors.Join(domain.ErrFrameFailed, err)
	}

	stats := r.timer.Stats()
	r.app.logger.Debug(fmt.Sprintf("frame %d took %s (avg %s)", r.sched.Frame(), stats.Last, stats.InFrame))
	return nil
}

func (r *runner) frames(ctx context.Context, n int) error {
	for range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.frame(ctx); err != nil {
			return err
		}
	}
	if n > 0 {
		r.app.logger.Info(fmt.Sprintf("ran %d frames, %s per frame", n, r.timer.Average()))
	}
	return nil
}

// persist writes the snapshot of every node to the store.
func (r *runner) persist(dir string) error {
	snaps, err := r.sched.Snapshots()
	if err != nil {
		return err
	}
	var errs error
	for _, snap := range snaps {
		errs = errors.Join(errs, r.app.store.Put(dir, snap))
	}
	return errs
}

// render prints the outport values of every node.
func (r *runner) render() error {
	snaps, err := r.sched.Snapshots()
	if err != nil {
		return err
	}
	out := output.New(r.app.out)
	check := style.New(output.Renderer(out)).Success(style.Check)
	var b strings.Builder
	for _, snap := range snaps {
		for _, port := range domain.SortedPorts(snap.Outports) {
			fmt.Fprintf(&b, "%s %s.%s = %s\n", check, snap.Node, port, snap.Outports[port].Value)
		}
	}
	_, err = out.WriteString(b.String())
	return err
}

// watch re-runs a frame each time the project file settles after a change.
// Failed reloads and frames are logged and the previous graph is kept.
func (r *runner) watch(ctx context.Context, storeDir string) error {
	if r.app.watcher == nil {
		return zerr.New("watch mode is not available")
	}
	if err := r.app.watcher.Start(ctx, r.project.Path); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to watch project file"), "path", r.project.Path)
	}
	defer func() {
		_ = r.app.watcher.Stop()
	}()

	changed := make(chan struct{}, 1)
	debouncer := watcher.NewDebouncer(r.app.debounce, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	go func() {
		for range r.app.watcher.Events() {
			debouncer.Trigger()
		}
	}()
	r.app.logger.Info(fmt.Sprintf("watching %s", r.project.Path))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
		}

		if err := r.reload(); err != nil {
			r.app.logger.Error(err)
			continue
		}
		if err := r.frame(ctx); err != nil {
			continue
		}
		if err := r.persist(storeDir); err != nil {
			r.app.logger.Error(err)
			continue
		}
		if err := r.render(); err != nil {
			return err
		}
	}
}

// reload reads the project file again and folds the new graph into the live one.
func (r *runner) reload() error {
	next, err := r.app.configLoader.LoadFile(r.project.Path)
	if err != nil {
		return zerr.Wrap(err, "failed to reload configuration")
	}
	if err := Reconcile(r.project.Graph, next.Graph); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to apply configuration"), "path", r.project.Path)
	}
	r.app.logger.Info(fmt.Sprintf("reloaded %s", r.project.Path))
	return nil
}
