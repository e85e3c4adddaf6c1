package mvu

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// invocation is the state private to one Init or Dispatch call.
type invocation[Msg, Env any] struct {
	queue *Queue[Msg]
	env   lazyEnv[Env]
	log   *zap.Logger
}

func (p *Program[Args, Model, Msg, Env]) begin(kind string, seed ...Msg) *invocation[Msg, Env] {
	inv := &invocation[Msg, Env]{
		queue: NewQueue(seed...),
		log:   p.logger.With(zap.String("invocation", uuid.NewString()), zap.String("kind", kind)),
	}
	inv.env = lazyEnv[Env]{
		factory: p.factory,
		created: func() {
			p.metrics.envCreated()
			inv.log.Debug("env created")
		},
	}
	return inv
}

// finish releases the env. A close failure is reported only when the
// invocation itself succeeded.
func (inv *invocation[Msg, Env]) finish(errp *error) {
	if err := inv.env.close(); err != nil {
		if *errp == nil {
			*errp = fmt.Errorf("mvu: close env: %w", err)
			return
		}
		inv.log.Warn("close env", zap.Error(err))
	}
}

// drain pops messages until the queue empties or ctx is done. Each message
// is applied to whatever model is current at that moment.
func (p *Program[Args, Model, Msg, Env]) drain(ctx context.Context, inv *invocation[Msg, Env]) error {
	for inv.queue.Len() > 0 {
		if ctx.Err() != nil {
			p.metrics.canceled()
			inv.log.Info("canceled", zap.Int("pending", inv.queue.Len()))
			return nil
		}
		msg, _ := inv.queue.Pop()

		next, cmd := p.component.Update(p.current.Load(), msg)
		p.current.Store(next)
		p.metrics.messageProcessed()
		inv.log.Debug("update",
			zap.String("msg", fmt.Sprintf("%T", msg)),
			zap.Bool("command", !cmd.IsNone()))

		if err := p.render(ctx, next); err != nil {
			if IsCanceled(err) {
				p.metrics.canceled()
				inv.log.Info("canceled during render", zap.Int("pending", inv.queue.Len()))
				return nil
			}
			return err
		}
		if cmd.IsNone() {
			continue
		}

		env, err := inv.env.get(ctx)
		if err != nil {
			return fmt.Errorf("mvu: create env: %w", err)
		}
		p.metrics.commandRun()
		if err := cmd.Run(ctx, env, inv.queue.Push); err != nil {
			return p.commandFailed(inv, msg, err)
		}
	}
	return nil
}

// commandFailed swallows cancellation and wraps everything else. The rest
// of the queue is abandoned either way.
func (p *Program[Args, Model, Msg, Env]) commandFailed(inv *invocation[Msg, Env], msg any, err error) error {
	if IsCanceled(err) {
		p.metrics.canceled()
		inv.log.Info("command canceled", zap.Int("pending", inv.queue.Len()))
		return nil
	}
	p.metrics.commandFailed()
	inv.log.Warn("command failed", zap.Error(err), zap.Int("discarded", inv.queue.Len()))
	return &CommandError{Msg: msg, Err: err}
}
