package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/intwana-hub/internal/engine"
	"github.com/DoyleJ11/intwana-hub/internal/session"
	"github.com/DoyleJ11/intwana-hub/internal/types"
)

const writeTimeout = 3 * time.Second

// Handler upgrades a client into a session on the room named by the query
// string and relays room views and moves until the connection closes.
func Handler(deps session.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		req := session.JoinRequest{
			RoomID:      q.Get("room"),
			Variant:     engine.Variant(q.Get("variant")),
			Identity:    q.Get("identity"),
			DisplayName: q.Get("name"),
		}
		if req.RoomID == "" || req.Identity == "" {
			http.Error(w, "missing room or identity", http.StatusBadRequest)
			return
		}

		clientID := uuid.NewString()
		log := deps.Log.With(zap.String("client", clientID))
		deps.Log = log

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sess, err := session.Start(ctx, deps, req)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, session.ErrVariantMismatch) {
				status = http.StatusConflict
			}
			log.Info("join refused", zap.Error(err))
			http.Error(w, err.Error(), status)
			return
		}
		defer sess.Close()

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			log.Warn("accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		// Writer goroutine
		go func() {
			for v := range sess.Updates() {
				if err := write(ctx, conn, snapshotMessage(v)); err != nil {
					cancel()
					return
				}
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					log.Debug("client closed")
				default:
					log.Debug("read ended", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = write(ctx, conn, errorMessage("bad json"))
				continue
			}

			if err := dispatch(ctx, sess, cm); err != nil {
				log.Debug("client message failed", zap.String("type", cm.Type), zap.Error(err))
				_ = write(ctx, conn, errorMessage(err.Error()))
			}
		}
	}
}

var errUnknownType = errors.New("unknown type")

func dispatch(ctx context.Context, sess *session.Session, cm types.ClientMessage) error {
	switch cm.Type {
	case types.MsgReset:
		return sess.Reset(ctx)
	case types.MsgLeave:
		return sess.Leave(ctx)
	}
	cmd, ok := toEngineCommand(cm)
	if !ok {
		return errUnknownType
	}
	return sess.Play(ctx, cmd)
}

// toEngineCommand maps player input to a move. Follow-up commands such as
// ResolveRound are issued by the session itself and are not accepted here.
func toEngineCommand(m types.ClientMessage) (engine.Command, bool) {
	switch engine.CommandType(m.Type) {
	case engine.CmdPlaceMark:
		return engine.Command{Type: engine.CmdPlaceMark, Cell: m.Cell}, true
	case engine.CmdChoose:
		choice, ok := engine.ParseChoice(m.Choice)
		if !ok {
			return engine.Command{}, false
		}
		return engine.Command{Type: engine.CmdChoose, Choice: choice}, true
	case engine.CmdNextRound:
		return engine.Command{Type: engine.CmdNextRound}, true
	case engine.CmdEndMatch:
		return engine.Command{Type: engine.CmdEndMatch}, true
	case engine.CmdFlipCard:
		return engine.Command{Type: engine.CmdFlipCard, Card: m.Card}, true
	case engine.CmdGuessLetter:
		return engine.Command{Type: engine.CmdGuessLetter, Letter: m.Letter}, true
	case engine.CmdAnswer:
		return engine.Command{Type: engine.CmdAnswer, Option: m.Option}, true
	default:
		return engine.Command{}, false
	}
}

func snapshotMessage(v session.View) types.ServerMessage {
	if v.Err != nil {
		return errorMessage(v.Err.Error())
	}
	// the session keeps the full document; players only see what the table shows
	room := engine.Redact(v.Room)
	return types.ServerMessage{
		Type:    types.MsgRoomSnapshot,
		Version: v.Version,
		Room:    &room,
		Role:    string(v.Role),
		CanAct:  v.CanAct,
	}
}

func errorMessage(msg string) types.ServerMessage {
	return types.ServerMessage{Type: types.MsgError, Error: msg}
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
