package pgstore

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/intwana-hub/internal/store"
)

// follower is one subscription. The listener never blocks on it: kick and
// lost hold at most one pending signal each.
type follower struct {
	roomID string
	kick   chan struct{}
	lost   chan error
}

func (f *follower) signal() {
	select {
	case f.kick <- struct{}{}:
	default:
	}
}

func (f *follower) fail(err error) {
	select {
	case f.lost <- err:
	default:
	}
}

// Subscribe registers a follower for roomID and delivers the current
// document. Subscriptions hold no pool connection; the shared listener
// wakes them and they read history with short queries.
func (s *Store) Subscribe(ctx context.Context, roomID string) (<-chan store.Snapshot, error) {
	f := &follower{roomID: roomID, kick: make(chan struct{}, 1), lost: make(chan error, 1)}
	s.register(f)

	r, version, err := s.Get(ctx, roomID)
	if err != nil {
		s.unregister(f)
		return nil, err
	}

	out := make(chan store.Snapshot, 16)
	out <- store.Snapshot{Version: version, Room: r}
	go s.follow(ctx, f, version, out)
	return out, nil
}

func (s *Store) register(f *follower) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.subs[f.roomID]
	if set == nil {
		set = make(map[*follower]struct{})
		s.subs[f.roomID] = set
	}
	set[f] = struct{}{}
	if !s.listening && s.ctx.Err() == nil {
		s.listening = true
		go s.listen()
	}
}

func (s *Store) unregister(f *follower) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set := s.subs[f.roomID]; set != nil {
		delete(set, f)
		if len(set) == 0 {
			delete(s.subs, f.roomID)
		}
	}
}

// each runs fn for every follower of roomID, or of every room when roomID
// is empty.
func (s *Store) each(roomID string, fn func(*follower)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, set := range s.subs {
		if roomID != "" && id != roomID {
			continue
		}
		for f := range set {
			fn(f)
		}
	}
}

// listen owns the dedicated LISTEN connection for the Store's lifetime. It
// is opened outside the pool so waiting for notifications never starves
// reads and writes. After every (re)connect all followers catch up, which
// covers writes made while nobody was listening.
func (s *Store) listen() {
	defer close(s.stopped)

	for {
		err := s.pump()
		if s.ctx.Err() != nil {
			return
		}
		s.log.Warn("listener lost", zap.Error(err))
		s.each("", func(f *follower) { f.fail(wrap(err)) })

		select {
		case <-time.After(s.retryDelay):
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Store) pump() error {
	// the pool's parsed config has the pool_* options stripped
	conn, err := pgx.ConnectConfig(s.ctx, s.pool.Config().ConnConfig)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(s.ctx, "LISTEN "+notifyChannel); err != nil {
		return err
	}
	s.log.Info("listening for room changes")
	s.each("", (*follower).signal)

	for {
		n, err := conn.WaitForNotification(s.ctx)
		if err != nil {
			return err
		}
		s.each(n.Payload, (*follower).signal)
	}
}

// follow replays every version after last into out until ctx is done. A
// lost listener is reported once as a Snapshot with Err set; the first
// catch-up afterwards delivers at least the current document.
func (s *Store) follow(ctx context.Context, f *follower, last int64, out chan<- store.Snapshot) {
	log := s.log.With(zap.String("room", f.roomID))
	defer close(out)
	defer s.unregister(f)

	deliver := func(snap store.Snapshot) bool {
		select {
		case out <- snap:
			return true
		case <-ctx.Done():
			return false
		}
	}

	failed := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.ctx.Done():
			return

		case err := <-f.lost:
			if failed {
				continue
			}
			failed = true
			if !deliver(store.Snapshot{Err: err}) {
				return
			}

		case <-f.kick:
			snaps, err := s.since(ctx, f.roomID, last)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if !deliver(store.Snapshot{Err: err}) {
					return
				}
				failed = true
				continue
			}
			if len(snaps) > 0 && snaps[0].Version > last+1 {
				log.Warn("history gap, skipping versions",
					zap.Int64("from", last+1), zap.Int64("to", snaps[0].Version-1))
			}
			if len(snaps) == 0 && failed {
				r, v, err := s.Get(ctx, f.roomID)
				if err != nil {
					continue
				}
				snaps = append(snaps, store.Snapshot{Version: v, Room: r})
			}
			for _, snap := range snaps {
				if !deliver(snap) {
					return
				}
				if snap.Version > last {
					last = snap.Version
				}
			}
			if len(snaps) > 0 {
				failed = false
			}
		}
	}
}

// since returns the stored versions of roomID newer than last, oldest
// first.
func (s *Store) since(ctx context.Context, roomID string, last int64) ([]store.Snapshot, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT version, doc FROM game_room_versions WHERE room_id = $1 AND version > $2 ORDER BY version",
		roomID, last)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var snaps []store.Snapshot
	for rows.Next() {
		var (
			version int64
			raw     []byte
		)
		if err := rows.Scan(&version, &raw); err != nil {
			return nil, wrap(err)
		}
		r, err := decode(raw)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, store.Snapshot{Version: version, Room: r})
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(err)
	}
	return snaps, nil
}
