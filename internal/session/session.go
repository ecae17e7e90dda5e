// Package session implements one client's view of a room: joining a seat,
// following the room document, and turning local input into partial
// updates. Each Session is an actor; all of its state is owned by loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/intwana-hub/internal/docpath"
	"github.com/DoyleJ11/intwana-hub/internal/engine"
	"github.com/DoyleJ11/intwana-hub/internal/scoring"
	"github.com/DoyleJ11/intwana-hub/internal/store"
)

var (
	ErrSyncFailed = errors.New("lost connection to game")
	ErrSpectator  = errors.New("spectators cannot play")
	ErrNotSeated  = errors.New("not seated in this room")
	ErrClosed     = errors.New("session closed")

	errAlreadyReset = errors.New("room already reset")
)

type Deps struct {
	Repo   store.RoomRepository
	Bridge *scoring.Bridge
	Log    *zap.Logger
	// RNG seeds room creation and resets. Nil uses a randomly seeded source.
	RNG func() *rand.Rand

	MemoryRevealDelay time.Duration
	QuizRevealDelay   time.Duration
}

// Rand returns a source for room creation and resets.
func (d Deps) Rand() *rand.Rand {
	if d.RNG != nil {
		return d.RNG()
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// View is what a client renders.
type View struct {
	Version int64
	Room    engine.Room
	Role    Role
	CanAct  bool
	Err     error
}

type msg interface{ isSessionMsg() }

type play struct {
	cmd   engine.Command
	reply chan error
}

type reset struct{ reply chan error }

type leave struct{ reply chan error }

type getView struct{ reply chan View }

type autoFire struct{ key engine.CommandType }

func (play) isSessionMsg()     {}
func (reset) isSessionMsg()    {}
func (leave) isSessionMsg()    {}
func (getView) isSessionMsg()  {}
func (autoFire) isSessionMsg() {}

type Session struct {
	deps    Deps
	req     JoinRequest
	log     *zap.Logger
	inbox   chan msg
	updates chan View
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	// owned by loop
	role     Role
	room     engine.Room
	version  int64
	have     bool
	reported bool
	syncErr  error
	storeErr error
	autoKey  engine.CommandType
	autoT    *time.Timer
}

// Start joins the room described by req and begins following it. The
// session runs until ctx is done or Close is called.
func Start(ctx context.Context, deps Deps, req JoinRequest) (*Session, error) {
	role, _, err := Join(ctx, deps.Repo, req, deps.Rand(), deps.Log)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	snaps, err := deps.Repo.Subscribe(ctx, req.RoomID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrSyncFailed, err)
	}

	s := &Session{
		deps:    deps,
		req:     req,
		log:     deps.Log.With(zap.String("room", req.RoomID), zap.String("identity", req.Identity)),
		inbox:   make(chan msg, 16),
		updates: make(chan View, 1),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		role:    role,
	}
	s.log.Info("session started", zap.String("role", string(role)))
	go s.loop(snaps)
	return s, nil
}

func (s *Session) loop(snaps <-chan store.Snapshot) {
	defer close(s.done)
	defer close(s.updates)
	defer s.stopAuto()

	for {
		select {
		case <-s.ctx.Done():
			return

		case snap, ok := <-snaps:
			if !ok {
				if s.ctx.Err() != nil {
					return
				}
				s.log.Warn("subscription closed")
				s.syncErr = fmt.Errorf("%w: subscription closed", ErrSyncFailed)
				snaps = nil
				s.publish()
				break
			}
			if snap.Err != nil {
				s.log.Warn("subscription error", zap.Error(snap.Err))
				s.syncErr = fmt.Errorf("%w: %w", ErrSyncFailed, snap.Err)
				s.publish()
				break
			}
			s.observe(snap)

		case m := <-s.inbox:
			switch msg := m.(type) {
			case play:
				msg.reply <- s.play(msg.cmd)
			case reset:
				msg.reply <- s.reset()
			case leave:
				msg.reply <- s.leave()
			case getView:
				msg.reply <- s.current()
			case autoFire:
				s.fire(msg.key)
			}
		}
	}
}

// observe replaces the local view with a remote snapshot and runs the
// per-update duties: scoring on conclusion and scheduling follow-ups.
func (s *Session) observe(snap store.Snapshot) {
	if s.have && snap.Version <= s.version {
		// a stale delivery still proves the subscription is back
		if s.syncErr != nil {
			s.syncErr = nil
			s.publish()
		}
		return
	}
	first := !s.have
	s.room, s.version, s.have = snap.Room, snap.Version, true
	s.syncErr = nil

	// a vacated seat demotes us, e.g. after leaving from another tab
	if seat := s.role.Seat(); seat.Valid() && s.room.SeatOf(s.req.Identity) != seat {
		s.role = RoleFor(s.room.SeatOf(s.req.Identity))
	}

	if s.room.Concluded() {
		if !s.reported {
			s.reported = true
			// a room that was already over when we arrived was scored by
			// whoever watched it end
			if !first && s.role != RoleSpectator && s.deps.Bridge != nil {
				s.deps.Bridge.Report(s.room, s.role.Seat())
			}
		}
	} else {
		s.reported = false
	}

	s.schedule()
	s.publish()
}

func (s *Session) schedule() {
	seat, cmd, ok := engine.Automatic(s.room)
	if !ok || seat != s.role.Seat() {
		s.stopAuto()
		return
	}
	if cmd.Type == s.autoKey {
		return
	}
	s.stopAuto()
	s.autoKey = cmd.Type

	key := cmd.Type
	s.autoT = time.AfterFunc(s.delayFor(s.room.Variant, cmd.Type), func() {
		select {
		case s.inbox <- autoFire{key: key}:
		case <-s.ctx.Done():
		}
	})
}

func (s *Session) delayFor(v engine.Variant, t engine.CommandType) time.Duration {
	switch {
	case v == engine.VariantMemoryMatch && t == engine.CmdResolvePair:
		return s.deps.MemoryRevealDelay
	case v == engine.VariantQuiz && t == engine.CmdAdvanceQuestion:
		return s.deps.QuizRevealDelay
	default:
		return 0
	}
}

func (s *Session) stopAuto() {
	if s.autoT != nil {
		s.autoT.Stop()
		s.autoT = nil
	}
	s.autoKey = ""
}

func (s *Session) fire(key engine.CommandType) {
	if key != s.autoKey {
		return
	}
	seat, cmd, ok := engine.Automatic(s.room)
	if !ok || seat != s.role.Seat() || cmd.Type != key {
		return
	}
	// autoKey stays set until a snapshot shows the follow-up is no longer
	// due, so a slow round trip cannot trigger it twice.
	if err := s.play(cmd); err != nil {
		s.log.Warn("follow-up failed", zap.String("cmd", string(key)), zap.Error(err))
	}
}

// play applies cmd to the local view and sends the changed fields. Moves
// the rules reject are dropped without error.
func (s *Session) play(cmd engine.Command) error {
	seat := s.role.Seat()
	if !seat.Valid() {
		return ErrSpectator
	}
	if s.syncErr != nil {
		return s.syncErr
	}
	if !s.have {
		return nil
	}

	events, next, err := engine.Apply(s.room, seat, cmd)
	if err != nil {
		s.log.Debug("move rejected", zap.String("cmd", string(cmd.Type)), zap.Error(err))
		return nil
	}
	if engine.ContainsEvent(events, engine.EvtGameCompleted) {
		s.log.Info("game completed", zap.String("cmd", string(cmd.Type)))
	}
	return s.write(next, zap.Any("events", events))
}

func (s *Session) reset() error {
	seat := s.role.Seat()
	if !seat.Valid() {
		return ErrSpectator
	}
	if s.syncErr != nil {
		return s.syncErr
	}
	if !s.have {
		return nil
	}
	if s.room.Status != engine.StatusResult {
		s.log.Debug("reset ignored outside result")
		return nil
	}
	// Both players may ask for a rematch at once. The reset replaces the
	// whole game payload, so it runs as one transaction and only the first
	// one to find the room still showing a result takes effect.
	rng := s.deps.Rand()
	_, _, err := s.deps.Repo.Transact(s.ctx, s.req.RoomID, func(r engine.Room) (engine.Room, error) {
		if r.Status != engine.StatusResult {
			return r, errAlreadyReset
		}
		return engine.Reset(r, rng)
	})
	switch {
	case errors.Is(err, errAlreadyReset):
		s.log.Debug("room already reset")
		return nil
	case err != nil:
		s.storeErr = err
		s.log.Error("reset failed", zap.Error(err))
		s.publish()
		return err
	}
	s.storeErr = nil
	s.log.Info("room reset")
	return nil
}

func (s *Session) write(next engine.Room, field zap.Field) error {
	fields, err := docpath.Diff(s.room, next)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	if _, err := s.deps.Repo.UpdateFields(s.ctx, s.req.RoomID, fields); err != nil {
		s.storeErr = err
		s.log.Error("update failed", zap.Error(err))
		s.publish()
		return err
	}
	s.storeErr = nil
	s.log.Debug("update sent", field, zap.Strings("paths", fields.Paths()))
	return nil
}

func (s *Session) leave() error {
	seat := s.role.Seat()
	if !seat.Valid() {
		return ErrSpectator
	}
	_, _, err := s.deps.Repo.Transact(s.ctx, s.req.RoomID, vacateSeat(seat, s.req.Identity))
	if err != nil && !errors.Is(err, ErrNotSeated) {
		s.storeErr = err
		s.publish()
		return err
	}
	s.role = RoleSpectator
	s.stopAuto()
	s.log.Info("left seat", zap.String("seat", string(seat)))
	return nil
}

func (s *Session) current() View {
	v := View{Version: s.version, Room: s.room.Clone(), Role: s.role}
	switch {
	case s.syncErr != nil:
		v.Err = s.syncErr
	case s.storeErr != nil:
		v.Err = s.storeErr
	default:
		v.CanAct = s.have && engine.CanAct(s.room, s.role.Seat())
	}
	return v
}

// publish offers the latest view, replacing one the client has not read.
func (s *Session) publish() {
	v := s.current()
	select {
	case s.updates <- v:
		return
	default:
	}
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- v:
	default:
	}
}

func (s *Session) call(ctx context.Context, m msg) error {
	select {
	case s.inbox <- m:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) awaitErr(ctx context.Context, reply chan error) error {
	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Play submits a move. Moves the current view does not allow are dropped
// silently; errors report store or sync failures only.
func (s *Session) Play(ctx context.Context, cmd engine.Command) error {
	reply := make(chan error, 1)
	if err := s.call(ctx, play{cmd: cmd, reply: reply}); err != nil {
		return err
	}
	return s.awaitErr(ctx, reply)
}

// Reset starts a rematch in the same room once the current game shows a
// result.
func (s *Session) Reset(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := s.call(ctx, reset{reply: reply}); err != nil {
		return err
	}
	return s.awaitErr(ctx, reply)
}

// Leave vacates this client's seat and keeps the session as a spectator.
func (s *Session) Leave(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := s.call(ctx, leave{reply: reply}); err != nil {
		return err
	}
	return s.awaitErr(ctx, reply)
}

func (s *Session) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := s.call(ctx, getView{reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-s.done:
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// Updates delivers the latest view after every change. It is closed when
// the session ends.
func (s *Session) Updates() <-chan View { return s.updates }

// Close tears down the subscription. It does not vacate the seat.
func (s *Session) Close() {
	s.cancel()
	<-s.done
}
