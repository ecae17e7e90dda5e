package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/intwana-hub/internal/engine"
	"github.com/DoyleJ11/intwana-hub/internal/hub"
	"github.com/DoyleJ11/intwana-hub/internal/ledger"
	"github.com/DoyleJ11/intwana-hub/internal/scoring"
	"github.com/DoyleJ11/intwana-hub/internal/session"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return SetupRoutes(session.Deps{
		Repo:   hub.NewHub(ctx, zap.NewNop()),
		Bridge: scoring.NewBridge(ledger.NewMemory(), zap.NewNop(), time.Second),
		Log:    zap.NewNop(),
	})
}

func post(t *testing.T, h http.Handler, body joinBody) (*httptest.ResponseRecorder, joinResponse) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rooms", bytes.NewReader(data)))

	var resp joinResponse
	if rec.Code < 300 {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	}
	return rec, resp
}

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode()
	require.NoError(t, err)
	assert.Len(t, code, 6)
}

func TestJoinRoom_CreateJoinSpectate(t *testing.T) {
	h := newRouter(t)

	rec, created := post(t, h, joinBody{Variant: "memory-match", Identity: "u1", DisplayName: "Ayanda"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "seat1", created.Role)
	require.Len(t, created.RoomID, 6)

	rec, second := post(t, h, joinBody{RoomID: created.RoomID, Identity: "u2"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "seat2", second.Role)

	_, third := post(t, h, joinBody{RoomID: created.RoomID, Identity: "u3"})
	assert.Equal(t, "spectator", third.Role)

	rec, named := post(t, h, joinBody{RoomID: "MYROOM", Variant: "quiz", Identity: "u9"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "MYROOM", named.RoomID)

	getRec := httptest.NewRecorder()
	h.ServeHTTP(getRec, httptest.NewRequest(http.MethodGet, "/rooms/"+created.RoomID, nil))
	require.Equal(t, http.StatusOK, getRec.Code)
	var got roomResponse
	require.NoError(t, json.NewDecoder(getRec.Body).Decode(&got))
	assert.Equal(t, engine.VariantMemoryMatch, got.Room.Variant)
	assert.Equal(t, engine.StatusPlaying, got.Room.Status)
	assert.EqualValues(t, 2, got.Version)
}

func TestJoinRoom_Errors(t *testing.T) {
	h := newRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rooms", bytes.NewReader([]byte("nope"))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = post(t, h, joinBody{Variant: "quiz"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = post(t, h, joinBody{Variant: "chess", Identity: "u1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, _ = post(t, h, joinBody{RoomID: "R1", Variant: "quiz", Identity: "u1"})
	rec, _ = post(t, h, joinBody{RoomID: "R1", Variant: "hangman", Identity: "u2"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetRoom_NotFound(t *testing.T) {
	h := newRouter(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
