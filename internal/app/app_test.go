package app_test

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"net"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/components"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

const projectPath = "/work/kiln.yaml"

type harness struct {
	loader  *mocks.MockConfigLoader
	store   *mocks.MockSnapshotStore
	logger  *mocks.MockLogger
	metrics *mocks.MockMetrics
	watcher *mocks.MockWatcher
	server  *fakeServer
	out     *bytes.Buffer
	app     *app.App
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	h := &harness{
		loader:  mocks.NewMockConfigLoader(ctrl),
		store:   mocks.NewMockSnapshotStore(ctrl),
		logger:  mocks.NewMockLogger(ctrl),
		metrics: mocks.NewMockMetrics(ctrl),
		watcher: mocks.NewMockWatcher(ctrl),
		server:  &fakeServer{},
		out:     new(bytes.Buffer),
	}
	h.logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	h.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	h.metrics.EXPECT().RecordOperation(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	factory := func(graph ports.Graph) *scheduler.Scheduler {
		return scheduler.NewScheduler(graph, telemetry.NewNoOpTracer(), h.logger, h.metrics)
	}
	h.app = app.New(h.loader, h.store, h.logger, factory, h.server, h.watcher).WithOutput(h.out)
	return h
}

// newProject builds k(constant) -> sum.a with sum.b attached as a static value.
func newProject(t *testing.T, b any) *domain.Project {
	t.Helper()
	registry, err := components.NewRegistry()
	require.NoError(t, err)

	g := domain.NewGraph(registry)
	require.NoError(t, g.AddNode(domain.NewNodeID("k"), "constant"))
	require.NoError(t, g.AddNode(domain.NewNodeID("sum"), "add"))
	require.NoError(t, g.Attach(domain.NewNodeID("k"), "value", 2, domain.UsageStatic))
	require.NoError(t, g.Attach(domain.NewNodeID("sum"), "b", b, domain.UsageStatic))
	require.NoError(t, g.Connect(domain.Edge{
		From: domain.NewNodeID("k"), FromPort: "value",
		To: domain.NewNodeID("sum"), ToPort: "a",
	}))

	engine := domain.DefaultEngineConfig()
	engine.StoreDir = "/work/.kiln/store"
	return &domain.Project{Root: "/work", Path: projectPath, Engine: engine, Graph: g}
}

type fakeServer struct {
	addr string
	err  error
}

func (s *fakeServer) Serve(ctx context.Context, addr string) (net.Addr, <-chan error, error) {
	s.addr = addr
	if s.err != nil {
		return nil, nil, s.err
	}
	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		done <- nil
	}()
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9100}, done, nil
}

func TestApp_Run(t *testing.T) {
	h := newHarness(t)
	h.loader.EXPECT().Load("/work").Return(newProject(t, 3), nil)
	h.metrics.EXPECT().RecordFrame(domain.FrameFull, gomock.Any(), nil).Times(2)

	var stored []string
	h.store.EXPECT().Put("/work/.kiln/store", gomock.Any()).DoAndReturn(func(_ string, snap domain.NodeSnapshot) error {
		stored = append(stored, snap.Node)
		return nil
	}).Times(2)

	err := h.app.Run(context.Background(), app.RunOptions{Cwd: "/work", Frames: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{"k", "sum"}, stored)
	assert.Contains(t, h.out.String(), "k.value = 2")
	assert.Contains(t, h.out.String(), "sum.sum = 5")
	assert.Empty(t, h.server.addr, "metrics must not be served without an address")
}

func TestApp_Run_LoadFailure(t *testing.T) {
	h := newHarness(t)
	h.loader.EXPECT().Load(".").Return(nil, domain.ErrConfigNotFound)

	err := h.app.Run(context.Background(), app.RunOptions{})
	require.ErrorContains(t, err, "failed to load configuration")
	assert.True(t, errors.Is(err, domain.ErrConfigNotFound))
}

func TestApp_Run_InvalidLogLevel(t *testing.T) {
	h := newHarness(t)
	h.loader.EXPECT().Load(".").Return(newProject(t, 3), nil)

	err := h.app.Run(context.Background(), app.RunOptions{LogLevel: "loud"})
	require.Error(t, err)
}

func TestApp_Run_NodeFailure(t *testing.T) {
	h := newHarness(t)
	h.loader.EXPECT().Load(".").Return(newProject(t, "three"), nil)
	h.metrics.EXPECT().RecordFrame(domain.FrameFull, gomock.Any(), gomock.Not(gomock.Nil())).Times(1)

	var logged []error
	h.logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
		logged = append(logged, err)
	}).Times(1)

	err := h.app.Run(context.Background(), app.RunOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFrameFailed))
	require.Len(t, logged, 1)
	require.ErrorContains(t, logged[0], domain.ErrUnexpectedValue.Error())
	assert.Empty(t, h.out.String())
}

func TestApp_Run_ServesMetrics(t *testing.T) {
	h := newHarness(t)
	h.loader.EXPECT().Load(".").Return(newProject(t, 3), nil)
	h.metrics.EXPECT().RecordFrame(domain.FrameFull, gomock.Any(), nil).Times(1)
	h.store.EXPECT().Put(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	err := h.app.Run(context.Background(), app.RunOptions{MetricsAddr: "127.0.0.1:0"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:0", h.server.addr)
}

func TestApp_Run_MetricsBindFailure(t *testing.T) {
	h := newHarness(t)
	h.server.err = errors.New("address in use")
	project := newProject(t, 3)
	project.Engine.MetricsAddr = "127.0.0.1:9100"
	h.loader.EXPECT().Load(".").Return(project, nil)

	err := h.app.Run(context.Background(), app.RunOptions{})
	require.ErrorContains(t, err, "address in use")
}

func TestApp_Run_Watch(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		h.loader.EXPECT().Load(".").Return(newProject(t, 3), nil)
		h.loader.EXPECT().LoadFile(projectPath).Return(newProject(t, 10), nil)
		h.metrics.EXPECT().RecordFrame(domain.FrameFull, gomock.Any(), nil).Times(2)
		h.store.EXPECT().Put(gomock.Any(), gomock.Any()).Return(nil).Times(4)

		h.watcher.EXPECT().Start(gomock.Any(), projectPath).Return(nil)
		h.watcher.EXPECT().Stop().Return(nil)
		h.watcher.EXPECT().Events().Return(iter.Seq[ports.WatchEvent](func(yield func(ports.WatchEvent) bool) {
			for range 3 {
				if !yield(ports.WatchEvent{Path: projectPath, Operation: ports.OpWrite}) {
					return
				}
			}
		}))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- h.app.Run(ctx, app.RunOptions{Watch: true})
		}()

		time.Sleep(time.Second)
		synctest.Wait()
		cancel()

		require.NoError(t, <-done)
		assert.Contains(t, h.out.String(), "sum.sum = 12")
	})
}

// withCycle adds two relays feeding each other to the project graph.
func withCycle(t *testing.T, project *domain.Project) *domain.Project {
	t.Helper()
	g := project.Graph
	require.NoError(t, g.AddNode(domain.NewNodeID("ping"), "relay"))
	require.NoError(t, g.AddNode(domain.NewNodeID("pong"), "relay"))
	require.NoError(t, g.Connect(domain.Edge{
		From: domain.NewNodeID("ping"), FromPort: "value",
		To: domain.NewNodeID("pong"), ToPort: "value",
	}))
	require.NoError(t, g.Connect(domain.Edge{
		From: domain.NewNodeID("pong"), FromPort: "value",
		To: domain.NewNodeID("ping"), ToPort: "value",
	}))
	return project
}

func TestApp_Run_FrameSetupFailure(t *testing.T) {
	h := newHarness(t)
	h.loader.EXPECT().Load(".").Return(withCycle(t, newProject(t, 3)), nil)
	h.metrics.EXPECT().RecordFrame(domain.FrameFull, gomock.Any(), gomock.Not(gomock.Nil())).Times(1)

	var logged []error
	h.logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
		logged = append(logged, err)
	}).Times(1)

	err := h.app.Run(context.Background(), app.RunOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFrameFailed))
	require.Len(t, logged, 1)
	require.ErrorContains(t, logged[0], domain.ErrCycleDetected.Error())
}

func TestApp_Run_WatchLogsFrameSetupFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		h.loader.EXPECT().Load(".").Return(newProject(t, 3), nil)
		h.loader.EXPECT().LoadFile(projectPath).Return(withCycle(t, newProject(t, 3)), nil)
		h.metrics.EXPECT().RecordFrame(domain.FrameFull, gomock.Any(), nil).Times(1)
		h.metrics.EXPECT().RecordFrame(domain.FrameFull, gomock.Any(), gomock.Not(gomock.Nil())).Times(1)
		h.store.EXPECT().Put(gomock.Any(), gomock.Any()).Return(nil).Times(2)

		var logged []error
		h.logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
			logged = append(logged, err)
		}).Times(1)

		h.watcher.EXPECT().Start(gomock.Any(), projectPath).Return(nil)
		h.watcher.EXPECT().Stop().Return(nil)
		h.watcher.EXPECT().Events().Return(iter.Seq[ports.WatchEvent](func(yield func(ports.WatchEvent) bool) {
			yield(ports.WatchEvent{Path: projectPath, Operation: ports.OpWrite})
		}))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- h.app.Run(ctx, app.RunOptions{Watch: true})
		}()

		time.Sleep(time.Second)
		synctest.Wait()
		cancel()

		require.NoError(t, <-done)
		require.Len(t, logged, 1)
		require.ErrorContains(t, logged[0], domain.ErrCycleDetected.Error())
	})
}

func TestApp_Order(t *testing.T) {
	h := newHarness(t)
	h.loader.EXPECT().Load(".").Return(newProject(t, 3), nil)

	require.NoError(t, h.app.Order(context.Background(), ""))
	assert.Equal(t, "0 k\n1 sum\n", h.out.String())
}

func TestApp_Inspect(t *testing.T) {
	h := newHarness(t)
	h.loader.EXPECT().Load(".").Return(newProject(t, 3), nil)
	h.store.EXPECT().Get("/work/.kiln/store", "sum").Return(&domain.NodeSnapshot{
		Node:  "sum",
		Kind:  "add",
		Frame: 4,
		Inports: map[string]domain.PortSnapshot{
			"a": {Value: "2", Usage: domain.UsageStatic, StaticChanged: 1, ValueChanged: 1, Checked: 4},
		},
		Outports: map[string]domain.PortSnapshot{
			"sum": {Value: "5", Usage: domain.UsageStatic, StaticChanged: 1, ValueChanged: 1, Checked: 4},
		},
	}, nil)

	require.NoError(t, h.app.Inspect(context.Background(), "", "sum"))
	out := h.out.String()
	assert.Contains(t, out, "sum add @ frame 4")
	assert.Contains(t, out, "inports")
	assert.Contains(t, out, "outports")
	assert.NotContains(t, out, "compiled")
	assert.Regexp(t, `sum\s+5\s+static\s+static 1\s+value 1\s+checked 4`, out)
}

func TestApp_Inspect_Errors(t *testing.T) {
	t.Run("unknown node", func(t *testing.T) {
		h := newHarness(t)
		h.loader.EXPECT().Load(".").Return(newProject(t, 3), nil)

		err := h.app.Inspect(context.Background(), "", "ghost")
		require.ErrorContains(t, err, domain.ErrNodeNotFound.Error())
	})

	t.Run("no snapshot", func(t *testing.T) {
		h := newHarness(t)
		h.loader.EXPECT().Load(".").Return(newProject(t, 3), nil)
		h.store.EXPECT().Get(gomock.Any(), "sum").Return(nil, nil)

		err := h.app.Inspect(context.Background(), "", "sum")
		require.ErrorContains(t, err, domain.ErrSnapshotNotFound.Error())
	})
}

func TestApp_Clean(t *testing.T) {
	h := newHarness(t)
	project := newProject(t, 3)
	project.Engine.StoreDir = t.TempDir()
	h.loader.EXPECT().Load(".").Return(project, nil)

	require.NoError(t, h.app.Clean(context.Background(), ""))
	assert.NoDirExists(t, project.Engine.StoreDir)
}
