// Package store defines the room document repository the game core
// consumes. Implementations live in internal/hub (in-memory) and
// internal/pgstore (PostgreSQL).
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/DoyleJ11/intwana-hub/internal/docpath"
	"github.com/DoyleJ11/intwana-hub/internal/engine"
)

var (
	ErrNotFound   = errors.New("room not found")
	ErrExists     = errors.New("room already exists")
	ErrSeatTaken  = errors.New("seat already taken")
	ErrUnexpected = errors.New("unexpected store error")
)

// Snapshot is one delivery on a subscription: the full document at a given
// version, or a delivery error.
type Snapshot struct {
	Version int64
	Room    engine.Room
	Err     error
}

// TxFunc receives the current document and returns its replacement. An
// error aborts the transaction without writing.
type TxFunc func(engine.Room) (engine.Room, error)

type RoomRepository interface {
	// Get returns the current document, or ErrNotFound.
	Get(ctx context.Context, roomID string) (engine.Room, int64, error)
	// CreateIfAbsent stores r under r.ID, or fails with ErrExists.
	CreateIfAbsent(ctx context.Context, r engine.Room) (int64, error)
	// UpdateFields applies a partial, dot-addressed update.
	UpdateFields(ctx context.Context, roomID string, f docpath.Fields) (int64, error)
	// Transact runs fn atomically against the current document.
	Transact(ctx context.Context, roomID string, fn TxFunc) (engine.Room, int64, error)
	// Subscribe delivers the current document and then every later write,
	// including the subscriber's own, until ctx is done. The channel is
	// closed when the subscription ends.
	Subscribe(ctx context.Context, roomID string) (<-chan Snapshot, error)
}

// RunTx applies fn to r and checks the replacement is a well-formed room.
// Implementations call it for every write so no update can leave a
// document the engine would refuse.
func RunTx(r engine.Room, fn TxFunc) (engine.Room, error) {
	next, err := fn(r)
	if err != nil {
		return r, err
	}
	if err := engine.Validate(next); err != nil {
		return r, err
	}
	return next, nil
}

// ApplyFields returns r with f written into it.
func ApplyFields(r engine.Room, f docpath.Fields) (engine.Room, error) {
	doc, err := docpath.ToDoc(r)
	if err != nil {
		return r, fmt.Errorf("%w: encode room: %w", ErrUnexpected, err)
	}
	if err := docpath.Apply(doc, f); err != nil {
		return r, err
	}
	var next engine.Room
	if err := docpath.FromDoc(doc, &next); err != nil {
		return r, fmt.Errorf("%w: decode room: %w", ErrUnexpected, err)
	}
	if next.ID != r.ID || next.Variant != r.Variant {
		return r, fmt.Errorf("%w: room id and variant are immutable", docpath.ErrBadPath)
	}
	return next, nil
}
