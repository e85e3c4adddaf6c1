package mvu

import "context"

// Component supplies the pure transition logic of a program. Both methods
// must return a fresh *Model whenever state changes; returning the same
// pointer means "unchanged" to HasModelChanged.
type Component[Args, Model, Msg, Env any] interface {
	Init(args Args) (*Model, Cmd[Env, Msg])
	Update(model *Model, msg Msg) (*Model, Cmd[Env, Msg])
}

// ComponentFuncs adapts a pair of functions to Component.
type ComponentFuncs[Args, Model, Msg, Env any] struct {
	InitFunc   func(args Args) (*Model, Cmd[Env, Msg])
	UpdateFunc func(model *Model, msg Msg) (*Model, Cmd[Env, Msg])
}

func (c ComponentFuncs[Args, Model, Msg, Env]) Init(args Args) (*Model, Cmd[Env, Msg]) {
	return c.InitFunc(args)
}

func (c ComponentFuncs[Args, Model, Msg, Env]) Update(model *Model, msg Msg) (*Model, Cmd[Env, Msg]) {
	return c.UpdateFunc(model, msg)
}

// Renderer is notified after every model replacement.
type Renderer[Model any] interface {
	Render(ctx context.Context, model *Model) error
}

// ArgsProvider supplies the arguments passed to Component.Init.
type ArgsProvider[Args any] interface {
	InitArgs() Args
}

// View is a renderer that also seeds Init, like a screen that knows its
// starting parameters.
type View[Args, Model any] interface {
	ArgsProvider[Args]
	Renderer[Model]
}

// ArgsFunc adapts a function to ArgsProvider.
type ArgsFunc[Args any] func() Args

func (f ArgsFunc[Args]) InitArgs() Args { return f() }
