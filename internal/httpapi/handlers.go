package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/intwana-hub/internal/engine"
	"github.com/DoyleJ11/intwana-hub/internal/session"
	"github.com/DoyleJ11/intwana-hub/internal/store"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

type joinBody struct {
	RoomID      string `json:"roomId"`
	Variant     string `json:"variant"`
	Identity    string `json:"identity"`
	DisplayName string `json:"displayName"`
}

type joinResponse struct {
	RoomID string `json:"roomId"`
	Role   string `json:"role"`
}

type roomResponse struct {
	Version int64       `json:"version"`
	Room    engine.Room `json:"room"`
}

// JoinRoom creates or joins a room and reports the caller's role. A missing
// roomId creates a room under a fresh code.
func JoinRoom(deps session.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body joinBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if body.Identity == "" {
			http.Error(w, "missing identity", http.StatusBadRequest)
			return
		}

		created := false
		if body.RoomID == "" {
			for {
				c, err := GenerateCode()
				if err != nil {
					http.Error(w, "failed to generate code", http.StatusInternalServerError)
					return
				}
				_, _, err = deps.Repo.Get(r.Context(), c)
				if errors.Is(err, store.ErrNotFound) {
					body.RoomID = c
					break
				}
				if err != nil {
					http.Error(w, "room store unavailable", http.StatusServiceUnavailable)
					return
				}
				deps.Log.Debug("collision on code, regenerating", zap.String("code", c))
			}
			created = true
		} else if _, _, err := deps.Repo.Get(r.Context(), body.RoomID); errors.Is(err, store.ErrNotFound) {
			created = true
		}

		role, _, err := session.Join(r.Context(), deps.Repo, session.JoinRequest{
			RoomID:      body.RoomID,
			Variant:     engine.Variant(body.Variant),
			Identity:    body.Identity,
			DisplayName: body.DisplayName,
		}, deps.Rand(), deps.Log)
		switch {
		case errors.Is(err, session.ErrVariantMismatch):
			http.Error(w, err.Error(), http.StatusConflict)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		status := http.StatusOK
		if created && role == session.RoleSeat1 {
			status = http.StatusCreated
		}
		writeJSON(w, status, joinResponse{RoomID: body.RoomID, Role: string(role)})
	}
}

func GetRoom(repo store.RoomRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, version, err := repo.Get(r.Context(), chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, store.ErrNotFound):
			http.Error(w, "room not found", http.StatusNotFound)
			return
		case err != nil:
			http.Error(w, "room store unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, roomResponse{Version: version, Room: room})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
