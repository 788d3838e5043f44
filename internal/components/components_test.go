package components_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/components"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

type harness struct {
	t     *testing.T
	graph *domain.Graph
	sched *scheduler.Scheduler
}

func newHarness(t *testing.T, extra ...domain.Component) *harness {
	t.Helper()
	r, err := components.NewRegistry(extra...)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)
	log := mocks.NewMockLogger(ctrl)
	metrics := mocks.NewMockMetrics(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		}).AnyTimes()
	tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any()).AnyTimes()
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	metrics.EXPECT().RecordOperation(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	metrics.EXPECT().RecordFrame(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	g := domain.NewGraph(r)
	return &harness{t: t, graph: g, sched: scheduler.NewScheduler(g, tracer, log, metrics)}
}

func (h *harness) add(name, kind string) domain.NodeID {
	h.t.Helper()
	id := domain.NewNodeID(name)
	require.NoError(h.t, h.graph.AddNode(id, kind))
	require.NoError(h.t, h.graph.InitializeNode(id))
	return id
}

func (h *harness) connect(from domain.NodeID, fromPort string, to domain.NodeID, toPort string) {
	h.t.Helper()
	require.NoError(h.t, h.graph.Connect(domain.Edge{From: from, FromPort: fromPort, To: to, ToPort: toPort}))
}

func (h *harness) attach(node domain.NodeID, inport string, value any, u domain.Usage) {
	h.t.Helper()
	require.NoError(h.t, h.graph.Attach(node, inport, value, u))
}

func (h *harness) run() {
	h.t.Helper()
	require.NoError(h.t, h.sched.RunFrame(context.Background(), scheduler.FrameOptions{}))
}

func (h *harness) value(node domain.NodeID, outport string) any {
	h.t.Helper()
	out, err := h.sched.Outport(node, outport)
	require.NoError(h.t, err)
	return out.Value
}

func (h *harness) usage(node domain.NodeID, outport string) domain.Usage {
	h.t.Helper()
	out, err := h.sched.Outport(node, outport)
	require.NoError(h.t, err)
	return out.Usage
}

func TestBuiltins_Register(t *testing.T) {
	r, err := components.NewRegistry()
	require.NoError(t, err)
	assert.Equal(t, []string{"constant", "relay", "add", "multiply", "clock", "template"}, r.Kinds())

	_, err = components.NewRegistry(components.Relay{})
	require.ErrorContains(t, err, domain.ErrComponentAlreadyRegistered.Error())
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name      string
		a, b      any
		aUsage    domain.Usage
		factor    any
		wantSum   float64
		wantOut   float64
		wantUsage domain.Usage
	}{
		{name: "static operands", a: 2, b: 3.5, aUsage: domain.UsageStatic, wantSum: 5.5, wantOut: 5.5, wantUsage: domain.UsageStatic},
		{name: "dynamic operand is contagious", a: 1.5, b: 2, aUsage: domain.UsageDynamic, wantSum: 3.5, wantOut: 3.5, wantUsage: domain.UsageDynamic},
		{name: "factor scales", a: 1, b: 1, aUsage: domain.UsageStatic, factor: 4, wantSum: 2, wantOut: 8, wantUsage: domain.UsageStatic},
		{name: "unfed operand is zero", a: 7, aUsage: domain.UsageStatic, wantSum: 7, wantOut: 7, wantUsage: domain.UsageStatic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			sum, mul := h.add("sum", "add"), h.add("mul", "multiply")
			h.attach(sum, "a", tt.a, tt.aUsage)
			if tt.b != nil {
				h.attach(sum, "b", tt.b, domain.UsageStatic)
			}
			if tt.factor != nil {
				h.attach(mul, "factor", tt.factor, domain.UsageStatic)
			}
			h.connect(sum, "sum", mul, "in")
			h.run()

			assert.InDelta(t, tt.wantSum, h.value(sum, "sum"), 1e-9)
			assert.InDelta(t, tt.wantOut, h.value(mul, "out"), 1e-9)
			assert.Equal(t, tt.wantUsage, h.usage(mul, "out"))
		})
	}
}

func TestArithmetic_RejectsNonNumbers(t *testing.T) {
	h := newHarness(t)
	sum := h.add("sum", "add")
	h.attach(sum, "a", "three", domain.UsageStatic)

	err := h.sched.RunFrame(context.Background(), scheduler.FrameOptions{})
	require.ErrorContains(t, err, domain.ErrUnexpectedValue.Error())
}

func TestPassthrough(t *testing.T) {
	h := newHarness(t)
	k, r := h.add("k", "constant"), h.add("r", "relay")
	h.attach(k, "value", "hi", domain.UsageStatic)
	h.connect(k, "value", r, "value")
	h.run()

	assert.Equal(t, "hi", h.value(r, "value"))
	assert.Equal(t, domain.UsageStatic, h.usage(r, "value"))

	err := h.graph.Attach(k, "value", "no", domain.UsageDynamic)
	require.ErrorContains(t, err, domain.ErrStaticInportDynamicAttachment.Error())
}

func TestClock(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := components.Clock{Now: func() time.Time { return now }}
	h := newHarness(t, clockKind{clock})
	c := h.add("c", "fakeclock")

	h.run()
	assert.InDelta(t, 0.0, h.value(c, "elapsed"), 1e-9)

	now = now.Add(2 * time.Second)
	h.run()
	assert.InDelta(t, 2.0, h.value(c, "elapsed"), 1e-9)
	assert.Equal(t, domain.UsageDynamic, h.usage(c, "elapsed"))

	h.attach(c, "rate", 3, domain.UsageStatic)
	h.run()
	assert.InDelta(t, 0.0, h.value(c, "elapsed"), 1e-9, "a new rate restarts the clock")

	now = now.Add(time.Second)
	h.run()
	assert.InDelta(t, 3.0, h.value(c, "elapsed"), 1e-9)
}

// clockKind registers a clock under its own kind so it can coexist with the builtin.
type clockKind struct{ components.Clock }

func (clockKind) Kind() string { return "fakeclock" }

func TestTemplate(t *testing.T) {
	h := newHarness(t)
	tmpl, name := h.add("tmpl", "template"), h.add("name", "relay")
	h.attach(tmpl, "text", "hello {{.}}", domain.UsageStatic)
	h.attach(name, "value", "world", domain.UsageDynamic)
	h.connect(name, "value", tmpl, "data")
	h.run()

	assert.Equal(t, "hello world", h.value(tmpl, "out"))
	assert.Equal(t, domain.UsageDynamic, h.usage(tmpl, "out"))

	h.attach(name, "value", "kiln", domain.UsageDynamic)
	h.run()
	assert.Equal(t, "hello kiln", h.value(tmpl, "out"))

	compiled, err := h.sched.Compiled(tmpl, "out")
	require.NoError(t, err)
	assert.Equal(t, domain.Frame(0), compiled.StaticChanged, "data changes must not reparse the template")
}

func TestTemplate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		text    any
		wantErr error
	}{
		{name: "parse", text: "{{", wantErr: domain.ErrTemplateFailed},
		{name: "render", text: "{{.Missing.Field}}", wantErr: domain.ErrTemplateFailed},
		{name: "text is not a string", text: 42, wantErr: domain.ErrUnexpectedValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tmpl := h.add("tmpl", "template")
			h.attach(tmpl, "text", tt.text, domain.UsageStatic)
			h.attach(tmpl, "data", 1, domain.UsageStatic)

			err := h.sched.RunFrame(context.Background(), scheduler.FrameOptions{})
			require.ErrorContains(t, err, tt.wantErr.Error())
		})
	}
}
