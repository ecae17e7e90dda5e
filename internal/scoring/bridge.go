// Package scoring turns concluded rooms into points-ledger credits.
package scoring

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/intwana-hub/internal/engine"
	"github.com/DoyleJ11/intwana-hub/internal/ledger"
)

// Bridge reports points fire-and-forget. It does not deduplicate: callers
// report each conclusion once.
type Bridge struct {
	ledger  ledger.Ledger
	log     *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewBridge(l ledger.Ledger, log *zap.Logger, timeout time.Duration) *Bridge {
	return &Bridge{ledger: l, log: log, timeout: timeout}
}

// Report credits the player in seat with the points the concluded room
// owes them. It returns false when there is nothing to report.
func (b *Bridge) Report(r engine.Room, seat engine.Seat) bool {
	points, ok := engine.Points(r, seat)
	player := r.Player(seat)
	if !ok || player == nil {
		return false
	}

	identity := player.Identity
	log := b.log.With(
		zap.String("room", r.ID),
		zap.String("variant", string(r.Variant)),
		zap.String("identity", identity),
		zap.Int("points", points),
	)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		if err := b.ledger.ReportPoints(ctx, identity, points); err != nil {
			log.Error("report points failed", zap.Error(err))
			return
		}
		log.Info("points reported")
	}()
	return true
}

// Wait blocks until every in-flight report has finished.
func (b *Bridge) Wait() { b.wg.Wait() }
