// Package hub is the in-memory room repository: a registry actor mapping
// room ids to room document actors.
package hub

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/intwana-hub/internal/docpath"
	"github.com/DoyleJ11/intwana-hub/internal/engine"
	"github.com/DoyleJ11/intwana-hub/internal/room"
	"github.com/DoyleJ11/intwana-hub/internal/store"
)

var ErrHubClosed = errors.New("hub stopped")

// SubscriberBuffer is how many snapshots a subscriber may fall behind
// before the room drops it.
const SubscriberBuffer = 16

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	Room  engine.Room
	Reply chan CreateResult
}

type CreateResult struct {
	Doc     *room.Doc
	Created bool
}

type GetRoom struct {
	ID    string
	Reply chan *room.Doc
}

type RemoveRoom struct {
	ID string
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Doc
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

var _ store.RoomRepository = (*Hub)(nil)

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Doc),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				if d := h.rooms[msg.Room.ID]; d != nil {
					msg.Reply <- CreateResult{Doc: d}
					break
				}
				d := room.New(h.ctx, msg.Room, h.log)
				h.rooms[msg.Room.ID] = d
				h.log.Info("room created", zap.String("room", msg.Room.ID), zap.String("variant", string(msg.Room.Variant)))
				msg.Reply <- CreateResult{Doc: d, Created: true}

			case GetRoom:
				msg.Reply <- h.rooms[msg.ID] // May be nil

			case RemoveRoom:
				if d := h.rooms[msg.ID]; d != nil {
					d.Inbox() <- room.Shutdown{}
					delete(h.rooms, msg.ID)
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for _, d := range h.rooms {
		select {
		case d.Inbox() <- room.Shutdown{}:
		case <-d.Done():
		}
	}
	clear(h.rooms)
	h.cancel()
}

func (h *Hub) send(ctx context.Context, m HubMsg) error {
	select {
	case h.inbox <- m:
		return nil
	case <-h.ctx.Done():
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) lookup(ctx context.Context, id string) (*room.Doc, error) {
	reply := make(chan *room.Doc, 1)
	if err := h.send(ctx, GetRoom{ID: id, Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case d := <-reply:
		if d == nil {
			return nil, store.ErrNotFound
		}
		return d, nil
	case <-h.ctx.Done():
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) Get(ctx context.Context, roomID string) (engine.Room, int64, error) {
	d, err := h.lookup(ctx, roomID)
	if err != nil {
		return engine.Room{}, 0, err
	}
	v, err := d.Get(ctx)
	if err != nil {
		return engine.Room{}, 0, fmt.Errorf("%w: %w", store.ErrUnexpected, err)
	}
	return v.Room, v.Version, nil
}

func (h *Hub) CreateIfAbsent(ctx context.Context, r engine.Room) (int64, error) {
	reply := make(chan CreateResult, 1)
	if err := h.send(ctx, CreateRoom{Room: r, Reply: reply}); err != nil {
		return 0, err
	}
	select {
	case res := <-reply:
		if !res.Created {
			return 0, store.ErrExists
		}
		return 1, nil
	case <-h.ctx.Done():
		return 0, ErrHubClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (h *Hub) UpdateFields(ctx context.Context, roomID string, f docpath.Fields) (int64, error) {
	d, err := h.lookup(ctx, roomID)
	if err != nil {
		return 0, err
	}
	res, err := d.Update(ctx, f)
	if err != nil {
		return 0, err
	}
	return res.Version, nil
}

func (h *Hub) Transact(ctx context.Context, roomID string, fn store.TxFunc) (engine.Room, int64, error) {
	d, err := h.lookup(ctx, roomID)
	if err != nil {
		return engine.Room{}, 0, err
	}
	res, err := d.Transact(ctx, fn)
	return res.Room, res.Version, err
}

func (h *Hub) Subscribe(ctx context.Context, roomID string) (<-chan store.Snapshot, error) {
	d, err := h.lookup(ctx, roomID)
	if err != nil {
		return nil, err
	}

	subID := uuid.NewString()
	out := make(chan store.Snapshot, SubscriberBuffer)
	select {
	case d.Inbox() <- room.Subscribe{SubID: subID, Outbox: out}:
	case <-d.Done():
		return nil, room.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	go func() {
		select {
		case <-ctx.Done():
			select {
			case d.Inbox() <- room.Unsubscribe{SubID: subID}:
			case <-d.Done():
			}
		case <-d.Done():
		}
	}()
	return out, nil
}
