package lobby

import (
	"context"

	"github.com/DoyleJ11/debate-room-backend/internal/engine"
)

// request posts a message built around a fresh reply channel and waits for the
// answer, the caller's ctx, or lobby shutdown, whichever comes first.
func request[T any](ctx context.Context, l *Lobby, build func(reply chan T) Msg) (T, error) {
	var zero T
	reply := make(chan T, 1)

	select {
	case l.inbox <- build(reply):
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-l.ctx.Done():
		return zero, ErrClosed
	}

	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-l.ctx.Done():
		return zero, ErrClosed
	}
}

func (l *Lobby) command(ctx context.Context, cmd engine.Command) (engine.Outcome, error) {
	res, err := request(ctx, l, func(reply chan CommandResult) Msg {
		return FromClient{Cmd: cmd, Reply: reply}
	})
	if err != nil {
		return engine.Outcome{}, err
	}
	return res.Outcome, res.Err
}

func (l *Lobby) StartDebate(ctx context.Context, callerID string) error {
	_, err := l.command(ctx, engine.Command{Type: engine.CmdStartDebate, CallerID: callerID})
	return err
}

func (l *Lobby) AdvanceSpeaker(ctx context.Context) (engine.Outcome, error) {
	return l.command(ctx, engine.Command{Type: engine.CmdAdvanceSpeaker})
}

func (l *Lobby) Cancel(ctx context.Context, callerID string) error {
	_, err := l.command(ctx, engine.Command{Type: engine.CmdCancelDebate, CallerID: callerID})
	return err
}

func (l *Lobby) CloseFeedback(ctx context.Context, callerID string) error {
	_, err := l.command(ctx, engine.Command{Type: engine.CmdCloseFeedback, CallerID: callerID})
	return err
}

func (l *Lobby) TakeSeat(ctx context.Context, userID string, role engine.Role, passcode string) error {
	return replyErr(request(ctx, l, func(r chan error) Msg {
		return TakeSeat{UserID: userID, Role: role, Passcode: passcode, Reply: r}
	}))
}

func (l *Lobby) LeaveSeat(ctx context.Context, userID string) error {
	return replyErr(request(ctx, l, func(r chan error) Msg {
		return LeaveSeat{UserID: userID, Reply: r}
	}))
}

func (l *Lobby) SetReady(ctx context.Context, userID string, ready bool) error {
	return replyErr(request(ctx, l, func(r chan error) Msg {
		return SetReady{UserID: userID, Ready: ready, Reply: r}
	}))
}

func (l *Lobby) SetMotion(ctx context.Context, callerID, motion string) error {
	return replyErr(request(ctx, l, func(r chan error) Msg {
		return SetMotion{CallerID: callerID, Motion: motion, Reply: r}
	}))
}

func (l *Lobby) State(ctx context.Context) (View, error) {
	v, err := request(ctx, l, func(r chan View) Msg { return GetState{Reply: r} })
	if err != nil {
		return View{}, err
	}
	return v, v.Err
}

func replyErr(opErr, sendErr error) error {
	if sendErr != nil {
		return sendErr
	}
	return opErr
}
