package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/DoyleJ11/intwana-hub/internal/engine"
	"github.com/DoyleJ11/intwana-hub/internal/store"
)

var ErrJoinFailed = errors.New("failed to join game")
var ErrVariantMismatch = errors.New("room plays a different game")

// maxJoinAttempts bounds how often a join re-reads the room after losing a
// create or seat race.
const maxJoinAttempts = 5

type Role string

const (
	RoleSeat1     Role = "seat1"
	RoleSeat2     Role = "seat2"
	RoleSpectator Role = "spectator"
)

func RoleFor(seat engine.Seat) Role {
	switch seat {
	case engine.Seat1:
		return RoleSeat1
	case engine.Seat2:
		return RoleSeat2
	default:
		return RoleSpectator
	}
}

// Seat returns the seat the role plays from, or SeatNone for spectators.
func (r Role) Seat() engine.Seat {
	switch r {
	case RoleSeat1:
		return engine.Seat1
	case RoleSeat2:
		return engine.Seat2
	default:
		return engine.SeatNone
	}
}

type JoinRequest struct {
	RoomID      string
	Variant     engine.Variant // only needed when the room does not exist yet
	Identity    string
	DisplayName string
}

func (req JoinRequest) player() engine.Player {
	return engine.Player{Identity: req.Identity, DisplayName: req.DisplayName}
}

var errAlreadySeated = errors.New("identity already seated")

// Join resolves req to a seat in the room, creating the room when it does
// not exist. Losing a race to create the room or to claim a vacant seat
// re-reads the room and classifies again, so a loser ends up seated
// elsewhere or as a spectator.
func Join(ctx context.Context, repo store.RoomRepository, req JoinRequest, rng *rand.Rand, log *zap.Logger) (Role, engine.Room, error) {
	log = log.With(zap.String("room", req.RoomID), zap.String("identity", req.Identity))

	for attempt := 0; attempt < maxJoinAttempts; attempt++ {
		r, _, err := repo.Get(ctx, req.RoomID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			if _, ok := engine.ParseVariant(string(req.Variant)); !ok {
				return RoleSpectator, engine.Room{}, fmt.Errorf("%w: unknown variant %q", ErrJoinFailed, req.Variant)
			}
			fresh, err := engine.NewRoom(req.RoomID, req.Variant, req.player(), rng)
			if err != nil {
				return RoleSpectator, engine.Room{}, fmt.Errorf("%w: %w", ErrJoinFailed, err)
			}
			_, err = repo.CreateIfAbsent(ctx, fresh)
			if errors.Is(err, store.ErrExists) {
				log.Debug("lost create race, re-reading")
				continue
			}
			if err != nil {
				return RoleSpectator, engine.Room{}, fmt.Errorf("%w: %w", ErrJoinFailed, err)
			}
			log.Info("room created", zap.String("variant", string(req.Variant)))
			return RoleSeat1, fresh, nil

		case err != nil:
			return RoleSpectator, engine.Room{}, fmt.Errorf("%w: %w", ErrJoinFailed, err)
		}

		if req.Variant != "" && req.Variant != r.Variant {
			return RoleSpectator, r, fmt.Errorf("%w: %w", ErrJoinFailed, ErrVariantMismatch)
		}

		// reconnection
		if seat := r.SeatOf(req.Identity); seat != engine.SeatNone {
			return RoleFor(seat), r, nil
		}
		if r.Full() {
			return RoleSpectator, r, nil
		}

		claimed, _, err := repo.Transact(ctx, req.RoomID, claimSeat(req.player()))
		switch {
		case errors.Is(err, store.ErrSeatTaken), errors.Is(err, errAlreadySeated):
			log.Debug("lost seat race, re-reading")
			continue
		case err != nil:
			return RoleSpectator, engine.Room{}, fmt.Errorf("%w: %w", ErrJoinFailed, err)
		}
		seat := claimed.SeatOf(req.Identity)
		log.Info("seat claimed", zap.String("seat", string(seat)))
		return RoleFor(seat), claimed, nil
	}

	return RoleSpectator, engine.Room{}, fmt.Errorf("%w: gave up after %d attempts", ErrJoinFailed, maxJoinAttempts)
}

// claimSeat fills the first vacant seat with p. Filling the second seat
// starts play unless the room is showing a result.
func claimSeat(p engine.Player) store.TxFunc {
	return func(r engine.Room) (engine.Room, error) {
		if r.SeatOf(p.Identity) != engine.SeatNone {
			return r, errAlreadySeated
		}
		var seat engine.Seat
		switch {
		case r.Seat1 == nil:
			seat = engine.Seat1
		case r.Seat2 == nil:
			seat = engine.Seat2
		default:
			return r, store.ErrSeatTaken
		}
		p.Counter = 0
		r.SetPlayer(seat, &p)
		if r.Full() && r.Status == engine.StatusWaiting {
			r.Status = engine.StatusPlaying
		}
		return r, nil
	}
}

// vacateSeat clears seat if identity still holds it. A game in progress
// goes back to waiting until the seat is filled again.
func vacateSeat(seat engine.Seat, identity string) store.TxFunc {
	return func(r engine.Room) (engine.Room, error) {
		p := r.Player(seat)
		if p == nil || p.Identity != identity {
			return r, ErrNotSeated
		}
		r.SetPlayer(seat, nil)
		if r.Status == engine.StatusPlaying {
			r.Status = engine.StatusWaiting
		}
		return r, nil
	}
}
