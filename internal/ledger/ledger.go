// Package ledger is the points ledger fed by finished games: every player
// has a weekly and a lifetime counter.
package ledger

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("no points recorded")

type Ledger interface {
	ReportPoints(ctx context.Context, identity string, delta int) error
}

type Totals struct {
	Identity  string
	Weekly    int
	Lifetime  int
	WeekStart time.Time
}

// WeekStart returns midnight UTC of the Monday starting t's week.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Memory is an in-process ledger for development and tests.
type Memory struct {
	mu     sync.Mutex
	totals map[string]Totals
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{totals: make(map[string]Totals), now: time.Now}
}

func (m *Memory) ReportPoints(_ context.Context, identity string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	week := WeekStart(m.now())
	t := m.totals[identity]
	t.Identity = identity
	if !t.WeekStart.Equal(week) {
		t.Weekly = 0
		t.WeekStart = week
	}
	t.Weekly += delta
	t.Lifetime += delta
	m.totals[identity] = t
	return nil
}

func (m *Memory) Totals(_ context.Context, identity string) (Totals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.totals[identity]
	if !ok {
		return Totals{}, ErrNotFound
	}
	if !t.WeekStart.Equal(WeekStart(m.now())) {
		t.Weekly = 0
	}
	return t, nil
}
