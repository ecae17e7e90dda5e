package room

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/intwana-hub/internal/docpath"
	"github.com/DoyleJ11/intwana-hub/internal/engine"
	"github.com/DoyleJ11/intwana-hub/internal/store"
)

// helper: receive one snapshot with a timeout so tests never hang
func recvSnapshot(t *testing.T, ch <-chan store.Snapshot, within time.Duration) store.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatalf("subscriber outbox closed unexpectedly")
		}
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for snapshot")
		return store.Snapshot{} // unreachable
	}
}

func recvClosed(t *testing.T, ch <-chan store.Snapshot, within time.Duration) {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("expected outbox to be closed within %v", within)
		}
	}
}

func playingRoom(t *testing.T) engine.Room {
	t.Helper()
	r, err := engine.NewRoom("R1", engine.VariantTicTacToe, engine.Player{Identity: "u1"}, rand.New(rand.NewPCG(3, 4)))
	if err != nil {
		t.Fatal(err)
	}
	r.Seat2 = &engine.Player{Identity: "u2"}
	r.Status = engine.StatusPlaying
	return r
}

func TestDoc_Update_BroadcastsSnapshotAndVersionIncrements(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := New(ctx, playingRoom(t), zap.NewNop())

	out := make(chan store.Snapshot, 2)
	d.Inbox() <- Subscribe{SubID: "s1", Outbox: out}

	first := recvSnapshot(t, out, 100*time.Millisecond)
	if first.Version != 1 {
		t.Fatalf("after subscribe: want version=1, got %d", first.Version)
	}

	res, err := d.Update(ctx, docpath.Fields{"state.board.4": "X", "turn": "seat2"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if res.Version != 2 {
		t.Fatalf("update: want version=2, got %d", res.Version)
	}

	next := recvSnapshot(t, out, 100*time.Millisecond)
	if next.Version != 2 {
		t.Fatalf("after update: want version=2, got %d", next.Version)
	}
	board := next.Room.State.(*engine.TicTacToeState).Board
	if board[4] != engine.MarkX || next.Room.Turn != engine.Seat2 {
		t.Fatalf("update not applied: board=%v turn=%s", board, next.Room.Turn)
	}

	d.Inbox() <- Shutdown{}
}

func TestDoc_Update_BadPathLeavesVersion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := New(ctx, playingRoom(t), zap.NewNop())
	if _, err := d.Update(ctx, docpath.Fields{"state.board.12": "X"}); !errors.Is(err, docpath.ErrBadPath) {
		t.Fatalf("want ErrBadPath, got %v", err)
	}
	v, err := d.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.Version != 1 {
		t.Fatalf("failed update bumped version to %d", v.Version)
	}
}

func TestDoc_Transact_AbortDoesNotWrite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := New(ctx, playingRoom(t), zap.NewNop())
	_, err := d.Transact(ctx, func(r engine.Room) (engine.Room, error) {
		r.Seat2 = nil
		return r, store.ErrSeatTaken
	})
	if !errors.Is(err, store.ErrSeatTaken) {
		t.Fatalf("want ErrSeatTaken, got %v", err)
	}

	v, _ := d.Get(ctx)
	if v.Room.Seat2 == nil || v.Version != 1 {
		t.Fatalf("aborted transaction leaked a write: %+v", v)
	}
}

func TestDoc_DropSlowSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := New(ctx, playingRoom(t), zap.NewNop())

	out := make(chan store.Snapshot, 1)
	d.Inbox() <- Subscribe{SubID: "s1", Outbox: out}

	// never drained: the initial snapshot fills the buffer
	if _, err := d.Update(ctx, docpath.Fields{"turn": "seat2"}); err != nil {
		t.Fatal(err)
	}

	view, err := d.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if view.NumSubscribers != 0 {
		t.Fatalf("expected slow subscriber to be dropped; NumSubscribers=%d", view.NumSubscribers)
	}
}

func TestDoc_Unsubscribe_ClosesOutbox(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := New(ctx, playingRoom(t), zap.NewNop())
	out := make(chan store.Snapshot, 4)
	d.Inbox() <- Subscribe{SubID: "s1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	d.Inbox() <- Unsubscribe{SubID: "s1"}
	recvClosed(t, out, 200*time.Millisecond)
}

func TestDoc_Shutdown_ClosesSubscribersAndRejectsCalls(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := New(ctx, playingRoom(t), zap.NewNop())
	out := make(chan store.Snapshot, 2)
	d.Inbox() <- Subscribe{SubID: "s1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	d.Inbox() <- Shutdown{}
	recvClosed(t, out, 200*time.Millisecond)

	<-d.Done()
	if _, err := d.Get(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("want ErrClosed after shutdown, got %v", err)
	}
}

func TestDoc_Update_MalformedRoomRejected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := New(ctx, playingRoom(t), zap.NewNop())
	// an outcome while still playing is not a valid document
	_, err := d.Update(ctx, docpath.Fields{"outcome": map[string]any{"draw": true}})
	if !errors.Is(err, engine.ErrInvalidRoom) {
		t.Fatalf("want ErrInvalidRoom, got %v", err)
	}
	v, _ := d.Get(ctx)
	if v.Version != 1 || v.Room.Outcome != nil {
		t.Fatalf("rejected update leaked a write: %+v", v)
	}
}
