package mvu

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Emit appends a message to the queue of the invocation that ran the command.
type Emit[Msg any] func(Msg)

// Effect is the body of a command. It receives the invocation's env and
// should return promptly once ctx is done.
type Effect[Env, Msg any] func(ctx context.Context, env Env, emit Emit[Msg]) error

// Cmd is an optional command. The zero value is no command, which the loop
// skips without creating an env.
type Cmd[Env, Msg any] struct {
	effect Effect[Env, Msg]
}

// None returns the absent command.
func None[Env, Msg any]() Cmd[Env, Msg] { return Cmd[Env, Msg]{} }

// Do wraps fn as a command. A nil fn yields no command.
func Do[Env, Msg any](fn Effect[Env, Msg]) Cmd[Env, Msg] {
	return Cmd[Env, Msg]{effect: fn}
}

// IsNone reports whether c carries no effect.
func (c Cmd[Env, Msg]) IsNone() bool { return c.effect == nil }

// Run executes the effect. Running no command is a no-op.
func (c Cmd[Env, Msg]) Run(ctx context.Context, env Env, emit Emit[Msg]) error {
	if c.effect == nil {
		return nil
	}
	return c.effect(ctx, env, emit)
}

// Send returns a command that emits msgs in order.
func Send[Env, Msg any](msgs ...Msg) Cmd[Env, Msg] {
	if len(msgs) == 0 {
		return Cmd[Env, Msg]{}
	}
	return Do(func(_ context.Context, _ Env, emit Emit[Msg]) error {
		for _, m := range msgs {
			emit(m)
		}
		return nil
	})
}

// Batch runs cmds one after another in argument order, stopping at the first
// error. Absent commands are dropped; if nothing remains Batch returns no
// command.
func Batch[Env, Msg any](cmds ...Cmd[Env, Msg]) Cmd[Env, Msg] {
	var valid []Cmd[Env, Msg]
	for _, c := range cmds {
		if !c.IsNone() {
			valid = append(valid, c)
		}
	}
	switch len(valid) {
	case 0:
		return Cmd[Env, Msg]{}
	case 1:
		return valid[0]
	}
	return Do(func(ctx context.Context, env Env, emit Emit[Msg]) error {
		for _, c := range valid {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := c.Run(ctx, env, emit); err != nil {
				return err
			}
		}
		return nil
	})
}

// Throttle delays cmd until limiter grants a token. A nil limiter returns
// cmd unchanged. A token that would only arrive after ctx's deadline is
// reported as context.DeadlineExceeded without waiting for it.
func Throttle[Env, Msg any](limiter *rate.Limiter, cmd Cmd[Env, Msg]) Cmd[Env, Msg] {
	if limiter == nil || cmd.IsNone() {
		return cmd
	}
	return Do(func(ctx context.Context, env Env, emit Emit[Msg]) error {
		if err := limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			// Wait rejects early when the deadline is too close.
			if _, ok := ctx.Deadline(); ok && limiter.Burst() > 0 {
				return fmt.Errorf("mvu: throttle: %w", context.DeadlineExceeded)
			}
			return err
		}
		return cmd.Run(ctx, env, emit)
	})
}
