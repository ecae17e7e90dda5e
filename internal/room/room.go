// Package room runs one actor per room document. The actor owns the
// document and its version counter; every mutation goes through its inbox,
// which makes Transact atomic without locks.
package room

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/intwana-hub/internal/docpath"
	"github.com/DoyleJ11/intwana-hub/internal/engine"
	"github.com/DoyleJ11/intwana-hub/internal/store"
)

var ErrClosed = errors.New("room actor stopped")

type Msg interface{ isRoomMsg() }

type Subscribe struct {
	SubID  string
	Outbox chan store.Snapshot // where this subscriber wants to receive snapshots
}

func (Subscribe) isRoomMsg() {}

type Unsubscribe struct{ SubID string }

func (Unsubscribe) isRoomMsg() {}

type Update struct {
	Fields docpath.Fields
	Reply  chan Result
}

func (Update) isRoomMsg() {}

type Transact struct {
	Fn    store.TxFunc
	Reply chan Result
}

func (Transact) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type Result struct {
	Version int64
	Room    engine.Room
	Err     error
}

type View struct {
	Version        int64
	NumSubscribers int
	Room           engine.Room
}

type Doc struct {
	inbox   chan Msg
	room    engine.Room
	version int64
	subs    map[string]chan store.Snapshot
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, initial engine.Room, log *zap.Logger) *Doc {
	ctx, cancel := context.WithCancel(parent)

	d := &Doc{
		inbox:   make(chan Msg, 64),
		room:    initial,
		version: 1,
		subs:    make(map[string]chan store.Snapshot),
		log:     log.With(zap.String("room", initial.ID)),
		ctx:     ctx,
		cancel:  cancel,
	}

	go d.loop()
	return d
}

func (d *Doc) loop() {
	for {
		select {
		case <-d.ctx.Done():
			d.shutdown()
			return

		case m := <-d.inbox:
			switch msg := m.(type) {
			case Subscribe:
				// Register + send current snapshot immediately
				d.subs[msg.SubID] = msg.Outbox
				msg.Outbox <- d.snapshot()

			case Unsubscribe:
				if ch, ok := d.subs[msg.SubID]; ok {
					close(ch)
					delete(d.subs, msg.SubID)
				}

			case Update:
				next, err := store.RunTx(d.room, func(r engine.Room) (engine.Room, error) {
					return store.ApplyFields(r, msg.Fields)
				})
				if err != nil {
					msg.Reply <- Result{Err: err}
					break
				}
				d.commit(next)
				msg.Reply <- Result{Version: d.version, Room: d.room}

			case Transact:
				next, err := store.RunTx(d.room.Clone(), msg.Fn)
				if err != nil {
					msg.Reply <- Result{Version: d.version, Room: d.room, Err: err}
					break
				}
				d.commit(next)
				msg.Reply <- Result{Version: d.version, Room: d.room}

			case GetState:
				msg.Reply <- View{
					Version:        d.version,
					NumSubscribers: len(d.subs),
					Room:           d.room.Clone(),
				}

			case Shutdown:
				d.shutdown()
				return
			}
		}
	}
}

func (d *Doc) commit(next engine.Room) {
	d.room = next
	d.version++
	d.broadcast(d.snapshot())
}

func (d *Doc) snapshot() store.Snapshot {
	return store.Snapshot{Version: d.version, Room: d.room.Clone()}
}

func (d *Doc) shutdown() {
	for id, ch := range d.subs {
		close(ch) // Tell subscriber no more snapshots
		delete(d.subs, id)
	}
	d.cancel()
}

func (d *Doc) broadcast(snap store.Snapshot) {
	for id, ch := range d.subs {
		select {
		case ch <- snap:
			//ok
		default:
			// Subscriber is slow/full - drop them.
			d.log.Warn("dropping slow subscriber", zap.String("sub", id), zap.Int64("version", snap.Version))
			close(ch)
			delete(d.subs, id)
		}
	}
}

// Inbox exposes the actor so tests and the hub can send messages.
func (d *Doc) Inbox() chan<- Msg { return d.inbox }

// Done is closed once the actor has stopped.
func (d *Doc) Done() <-chan struct{} { return d.ctx.Done() }

func (d *Doc) send(ctx context.Context, m Msg) error {
	select {
	case d.inbox <- m:
		return nil
	case <-d.ctx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Doc) await(ctx context.Context, reply chan Result) (Result, error) {
	select {
	case res := <-reply:
		return res, nil
	case <-d.ctx.Done():
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (d *Doc) Get(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := d.send(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-d.ctx.Done():
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

func (d *Doc) Update(ctx context.Context, f docpath.Fields) (Result, error) {
	reply := make(chan Result, 1)
	if err := d.send(ctx, Update{Fields: f, Reply: reply}); err != nil {
		return Result{}, err
	}
	res, err := d.await(ctx, reply)
	if err != nil {
		return Result{}, err
	}
	return res, res.Err
}

func (d *Doc) Transact(ctx context.Context, fn store.TxFunc) (Result, error) {
	reply := make(chan Result, 1)
	if err := d.send(ctx, Transact{Fn: fn, Reply: reply}); err != nil {
		return Result{}, err
	}
	res, err := d.await(ctx, reply)
	if err != nil {
		return Result{}, err
	}
	return res, res.Err
}
