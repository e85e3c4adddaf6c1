package mvu

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Program owns the model of one component and runs its message loops.
//
// By default Init and Dispatch calls are serialized: a call waits until the
// previous one has drained its queue. WithConcurrentDispatch removes that
// gate, in which case overlapping calls each replace the model without
// coordination and the last write wins.
type Program[Args, Model, Msg, Env any] struct {
	component Component[Args, Model, Msg, Env]
	factory   EnvFactory[Env]
	args      ArgsProvider[Args]
	renderer  Renderer[Model]
	logger    *zap.Logger
	metrics   *Metrics
	gate      *semaphore.Weighted

	current  atomic.Pointer[Model]
	observed atomic.Pointer[Model]
}

type settings struct {
	logger     *zap.Logger
	metrics    *Metrics
	concurrent bool
}

// Option configures a Program.
type Option func(*settings)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records loop activity into m.
func WithMetrics(m *Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithConcurrentDispatch lets Init and Dispatch calls run their loops at
// the same time. Model replacement becomes last-writer-wins.
func WithConcurrentDispatch() Option {
	return func(s *settings) { s.concurrent = true }
}

// New binds component to its collaborators. view seeds Init and, if it also
// implements Renderer[Model], is notified after every model replacement; a
// nil view runs headless with zero Args. factory may be nil when commands
// need no env.
func New[Args, Model, Msg, Env any](
	component Component[Args, Model, Msg, Env],
	view ArgsProvider[Args],
	factory EnvFactory[Env],
	opts ...Option,
) *Program[Args, Model, Msg, Env] {
	s := settings{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}
	p := &Program[Args, Model, Msg, Env]{
		component: component,
		factory:   factory,
		args:      view,
		logger:    s.logger,
		metrics:   s.metrics,
	}
	if r, ok := view.(Renderer[Model]); ok {
		p.renderer = r
	}
	if !s.concurrent {
		p.gate = semaphore.NewWeighted(1)
	}
	return p
}

// Init runs the component initializer and sets both model slots to its
// model. A command returned by the initializer runs first, then the
// messages it emitted are drained. Without a command the renderer is
// notified once. Calling Init again starts over.
func (p *Program[Args, Model, Msg, Env]) Init(ctx context.Context) (err error) {
	release, ok := p.acquire(ctx, "init")
	if !ok {
		return nil
	}
	defer release()
	defer p.metrics.observe("init", time.Now())

	var args Args
	if p.args != nil {
		args = p.args.InitArgs()
	}
	model, cmd := p.component.Init(args)
	p.current.Store(model)
	p.observed.Store(model)

	if cmd.IsNone() {
		if err := p.render(ctx, model); err != nil {
			if IsCanceled(err) {
				p.metrics.canceled()
				p.logger.Info("init canceled during render", zap.Error(err))
				return nil
			}
			return err
		}
		return nil
	}

	inv := p.begin("init")
	defer inv.finish(&err)

	env, err := inv.env.get(ctx)
	if err != nil {
		return fmt.Errorf("mvu: create env: %w", err)
	}
	p.metrics.commandRun()
	if err := cmd.Run(ctx, env, inv.queue.Push); err != nil {
		return p.commandFailed(inv, nil, err)
	}
	return p.drain(ctx, inv)
}

// Dispatch processes msg and everything its commands emit, in FIFO order,
// until the queue is empty or ctx is done. Cancellation is not an error:
// steps already applied stay applied and Dispatch returns nil.
func (p *Program[Args, Model, Msg, Env]) Dispatch(ctx context.Context, msg Msg) (err error) {
	release, ok := p.acquire(ctx, "dispatch")
	if !ok {
		return nil
	}
	defer release()
	if p.current.Load() == nil {
		return ErrNotInitialized
	}
	defer p.metrics.observe("dispatch", time.Now())

	inv := p.begin("dispatch", msg)
	defer inv.finish(&err)
	return p.drain(ctx, inv)
}

// HasModelChanged reports whether the model was replaced since the last
// call that returned true, and acknowledges the change.
func (p *Program[Args, Model, Msg, Env]) HasModelChanged() bool {
	cur := p.current.Load()
	old := p.observed.Load()
	if cur == old {
		return false
	}
	return p.observed.CompareAndSwap(old, cur)
}

// Model returns the current snapshot, or nil before Init.
func (p *Program[Args, Model, Msg, Env]) Model() *Model {
	return p.current.Load()
}

func (p *Program[Args, Model, Msg, Env]) acquire(ctx context.Context, kind string) (func(), bool) {
	if p.gate == nil {
		return func() {}, true
	}
	if err := p.gate.Acquire(ctx, 1); err != nil {
		p.metrics.canceled()
		p.logger.Info("canceled before start", zap.String("kind", kind), zap.Error(err))
		return nil, false
	}
	return func() { p.gate.Release(1) }, true
}

// render notifies the renderer. The returned error wraps what the renderer
// reported, so callers can still tell cancellation apart with IsCanceled.
func (p *Program[Args, Model, Msg, Env]) render(ctx context.Context, model *Model) error {
	if p.renderer == nil {
		return nil
	}
	p.metrics.rendered()
	if err := p.renderer.Render(ctx, model); err != nil {
		return fmt.Errorf("mvu: render: %w", err)
	}
	return nil
}
