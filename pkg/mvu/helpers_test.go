package mvu

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// tally is the model used across the loop tests. Log records the kind of
// every message applied, in order.
type tally struct {
	N   int
	Log []string
}

func (t *tally) with(kind string, delta int) *tally {
	log := make([]string, len(t.Log), len(t.Log)+1)
	copy(log, t.Log)
	return &tally{N: t.N + delta, Log: append(log, kind)}
}

type msg struct {
	kind  string
	n     int
	emits []msg
	gate  chan struct{}
	run   func(ctx context.Context)
}

type testEnv struct {
	id       int
	closed   bool
	closeErr error
}

func (e *testEnv) Close() error {
	e.closed = true
	return e.closeErr
}

type testCmd = Cmd[*testEnv, msg]

var errBoom = errors.New("boom")

func update(m *tally, in msg) (*tally, testCmd) {
	next := m.with(in.kind, in.n)
	switch in.kind {
	case "same":
		return m, testCmd{}
	case "emit":
		return next, Send[*testEnv](in.emits...)
	case "fail":
		return next, Do(func(_ context.Context, _ *testEnv, emit Emit[msg]) error {
			for _, e := range in.emits {
				emit(e)
			}
			return errBoom
		})
	case "cancel":
		return next, Do(func(_ context.Context, _ *testEnv, emit Emit[msg]) error {
			for _, e := range in.emits {
				emit(e)
			}
			return context.Canceled
		})
	case "block":
		return next, Do(func(ctx context.Context, _ *testEnv, emit Emit[msg]) error {
			if in.run != nil {
				in.run(ctx)
			}
			select {
			case <-in.gate:
			case <-ctx.Done():
				return ctx.Err()
			}
			for _, e := range in.emits {
				emit(e)
			}
			return nil
		})
	case "hook":
		return next, Do(func(ctx context.Context, _ *testEnv, emit Emit[msg]) error {
			in.run(ctx)
			for _, e := range in.emits {
				emit(e)
			}
			return nil
		})
	case "panic":
		panic("update exploded")
	}
	return next, testCmd{}
}

type initArgs struct {
	start int
	cmd   []msg
}

func tallyComponent() ComponentFuncs[initArgs, tally, msg, *testEnv] {
	return ComponentFuncs[initArgs, tally, msg, *testEnv]{
		InitFunc: func(a initArgs) (*tally, testCmd) {
			return &tally{N: a.start}, Send[*testEnv](a.cmd...)
		},
		UpdateFunc: update,
	}
}

type countingFactory struct {
	mu       sync.Mutex
	created  []*testEnv
	err      error
	closeErr error
}

func (f *countingFactory) NewEnv(context.Context) (*testEnv, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	env := &testEnv{id: len(f.created) + 1, closeErr: f.closeErr}
	f.created = append(f.created, env)
	return env, nil
}

func (f *countingFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

type recordingView struct {
	args     initArgs
	mu       sync.Mutex
	rendered []*tally
	err      error
}

func (v *recordingView) InitArgs() initArgs { return v.args }

func (v *recordingView) Render(_ context.Context, m *tally) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rendered = append(v.rendered, m)
	return v.err
}

func (v *recordingView) renders() []*tally {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]*tally(nil), v.rendered...)
}

type testProgram = Program[initArgs, tally, msg, *testEnv]

func newTestProgram(t *testing.T, view ArgsProvider[initArgs], f *countingFactory, opts ...Option) *testProgram {
	t.Helper()
	var factory EnvFactory[*testEnv]
	if f != nil {
		factory = f
	}
	return New[initArgs, tally, msg, *testEnv](tallyComponent(), view, factory, opts...)
}
