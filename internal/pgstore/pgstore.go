// Package pgstore keeps room documents in PostgreSQL as jsonb rows.
// Writes run in row-locked transactions, append the new version to a
// history table and announce themselves with NOTIFY. One listener
// connection per Store fans notifications out to subscribers, which replay
// every version they have not seen yet.
package pgstore

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/DoyleJ11/intwana-hub/internal/docpath"
	"github.com/DoyleJ11/intwana-hub/internal/engine"
	"github.com/DoyleJ11/intwana-hub/internal/store"
)

const notifyChannel = "room_changes"

// historyDepth is how many versions per room are kept for followers that
// fall behind.
const historyDepth = 256

//go:embed migrations/*.sql
var embedMigrations embed.FS

type Store struct {
	pool       *pgxpool.Pool
	log        *zap.Logger
	retryDelay time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	subs      map[string]map[*follower]struct{}
	listening bool
	stopped   chan struct{}
}

var _ store.RoomRepository = (*Store)(nil)

func New(ctx context.Context, connString string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("pgstore.New: %w", err)
	}
	// the listener outlives the caller's ctx; Close stops it
	lctx, cancel := context.WithCancel(context.Background())
	return &Store{
		pool:       pool,
		log:        log,
		retryDelay: time.Second,
		ctx:        lctx,
		cancel:     cancel,
		subs:       make(map[string]map[*follower]struct{}),
		stopped:    make(chan struct{}),
	}, nil
}

// Migrate applies the embedded goose migrations.
func (s *Store) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("pgstore.Migrate: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("pgstore.Migrate: %w", err)
	}
	s.log.Info("migrations applied")
	return nil
}

// Close stops the listener and closes the pool. Open subscriptions end.
func (s *Store) Close() {
	s.cancel()
	s.mu.Lock()
	listening := s.listening
	s.mu.Unlock()
	if listening {
		<-s.stopped
	}
	s.pool.Close()
}

func wrap(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return store.ErrNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrExists),
		errors.Is(err, store.ErrSeatTaken), errors.Is(err, docpath.ErrBadPath),
		errors.Is(err, engine.ErrInvalidRoom):
		return err
	default:
		return fmt.Errorf("%w: %w", store.ErrUnexpected, err)
	}
}

func decode(raw []byte) (engine.Room, error) {
	var r engine.Room
	if err := json.Unmarshal(raw, &r); err != nil {
		return engine.Room{}, fmt.Errorf("%w: decode room: %w", store.ErrUnexpected, err)
	}
	return r, nil
}

func (s *Store) Get(ctx context.Context, roomID string) (engine.Room, int64, error) {
	var (
		raw     []byte
		version int64
	)
	err := s.pool.QueryRow(ctx, "SELECT doc, version FROM game_rooms WHERE id = $1", roomID).Scan(&raw, &version)
	if err != nil {
		return engine.Room{}, 0, wrap(err)
	}
	r, err := decode(raw)
	return r, version, err
}

func (s *Store) CreateIfAbsent(ctx context.Context, r engine.Room) (int64, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return 0, fmt.Errorf("%w: encode room: %w", store.ErrUnexpected, err)
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"INSERT INTO game_rooms(id, variant, doc) VALUES($1, $2, $3) ON CONFLICT (id) DO NOTHING",
			r.ID, string(r.Variant), raw)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return store.ErrExists
		}
		return record(ctx, tx, r.ID, 1, raw)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		// "23505" is the PostgreSQL error code for unique_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, store.ErrExists
		}
		return 0, wrap(err)
	}
	return 1, nil
}

// mutate locks the row, hands the decoded document to fn and writes back
// whatever fn returns.
func (s *Store) mutate(ctx context.Context, roomID string, fn store.TxFunc) (engine.Room, int64, error) {
	var (
		out     engine.Room
		version int64
	)
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var raw []byte
		if err := tx.QueryRow(ctx, "SELECT doc FROM game_rooms WHERE id = $1 FOR UPDATE", roomID).Scan(&raw); err != nil {
			return err
		}
		cur, err := decode(raw)
		if err != nil {
			return err
		}
		next, err := store.RunTx(cur, fn)
		if err != nil {
			out = cur
			return err
		}
		encoded, err := json.Marshal(next)
		if err != nil {
			return err
		}
		err = tx.QueryRow(ctx,
			"UPDATE game_rooms SET doc = $2, version = version + 1, updated_at = now() WHERE id = $1 RETURNING version",
			roomID, encoded).Scan(&version)
		if err != nil {
			return err
		}
		out = next
		return record(ctx, tx, roomID, version, encoded)
	})
	if err != nil {
		return out, version, wrap(err)
	}
	return out, version, nil
}

// record appends a version to the room history, trims what is older than
// historyDepth and notifies listeners. It runs inside the writing
// transaction, so the notification is sent only on commit.
func record(ctx context.Context, tx pgx.Tx, roomID string, version int64, doc []byte) error {
	if _, err := tx.Exec(ctx,
		"INSERT INTO game_room_versions(room_id, version, doc) VALUES($1, $2, $3)",
		roomID, version, doc); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		"DELETE FROM game_room_versions WHERE room_id = $1 AND version <= $2",
		roomID, version-historyDepth); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, "SELECT pg_notify($1, $2)", notifyChannel, roomID)
	return err
}

func (s *Store) UpdateFields(ctx context.Context, roomID string, f docpath.Fields) (int64, error) {
	_, v, err := s.mutate(ctx, roomID, func(r engine.Room) (engine.Room, error) {
		return store.ApplyFields(r, f)
	})
	return v, err
}

func (s *Store) Transact(ctx context.Context, roomID string, fn store.TxFunc) (engine.Room, int64, error) {
	return s.mutate(ctx, roomID, fn)
}

