package scoring

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/intwana-hub/internal/engine"
)

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) ReportPoints(ctx context.Context, identity string, delta int) error {
	args := m.Called(ctx, identity, delta)
	return args.Error(0)
}

func concludedRoom(t *testing.T) engine.Room {
	t.Helper()
	r, err := engine.NewRoom("r", engine.VariantTicTacToe, engine.Player{Identity: "u1"}, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	r.Seat2 = &engine.Player{Identity: "u2"}
	r.Status = engine.StatusResult
	r.Outcome = &engine.Outcome{Winner: engine.Seat2}
	return r
}

func TestBridge_ReportsWinnerAndLoserPoints(t *testing.T) {
	l := &MockLedger{}
	l.On("ReportPoints", mock.Anything, "u1", engine.PointsLoss).Return(nil).Once()
	l.On("ReportPoints", mock.Anything, "u2", engine.PointsWin).Return(nil).Once()

	b := NewBridge(l, zap.NewNop(), time.Second)
	r := concludedRoom(t)
	assert.True(t, b.Report(r, engine.Seat1))
	assert.True(t, b.Report(r, engine.Seat2))
	b.Wait()

	l.AssertExpectations(t)
}

func TestBridge_NothingToReport(t *testing.T) {
	l := &MockLedger{}
	b := NewBridge(l, zap.NewNop(), time.Second)

	r := concludedRoom(t)
	r.Outcome = nil
	r.Status = engine.StatusPlaying
	assert.False(t, b.Report(r, engine.Seat1))

	assert.False(t, b.Report(concludedRoom(t), engine.SeatNone))
	b.Wait()
	l.AssertNotCalled(t, "ReportPoints", mock.Anything, mock.Anything, mock.Anything)
}

func TestBridge_LedgerFailureIsSwallowed(t *testing.T) {
	l := &MockLedger{}
	l.On("ReportPoints", mock.Anything, "u1", engine.PointsLoss).Return(errors.New("ledger down")).Once()

	b := NewBridge(l, zap.NewNop(), time.Second)
	assert.True(t, b.Report(concludedRoom(t), engine.Seat1))
	b.Wait()
	l.AssertExpectations(t)
}
