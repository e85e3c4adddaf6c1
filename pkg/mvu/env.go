package mvu

import (
	"context"
	"io"
)

// EnvFactory creates the execution context shared by the commands of one
// Init or Dispatch call.
type EnvFactory[Env any] interface {
	NewEnv(ctx context.Context) (Env, error)
}

// EnvFactoryFunc adapts a function to EnvFactory.
type EnvFactoryFunc[Env any] func(ctx context.Context) (Env, error)

func (f EnvFactoryFunc[Env]) NewEnv(ctx context.Context) (Env, error) { return f(ctx) }

// lazyEnv creates the env on first use and remembers it for the rest of
// the invocation.
type lazyEnv[Env any] struct {
	factory EnvFactory[Env]
	env     Env
	ready   bool
	made    bool
	created func()
}

func (l *lazyEnv[Env]) get(ctx context.Context) (Env, error) {
	if l.ready {
		return l.env, nil
	}
	if l.factory == nil {
		l.ready = true
		return l.env, nil
	}
	env, err := l.factory.NewEnv(ctx)
	if err != nil {
		return env, err
	}
	l.env, l.ready, l.made = env, true, true
	if l.created != nil {
		l.created()
	}
	return env, nil
}

// close releases the env if the factory made one and it owns resources.
func (l *lazyEnv[Env]) close() error {
	if !l.made {
		return nil
	}
	if c, ok := any(l.env).(io.Closer); ok {
		return c.Close()
	}
	return nil
}
