package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type PlayerPoints struct {
	Identity  string    `gorm:"primaryKey;size:128"`
	Weekly    int       `gorm:"not null;default:0"`
	Lifetime  int       `gorm:"not null;default:0"`
	WeekStart time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Gorm keeps the counters in PostgreSQL. Increments are single upserts so
// concurrent reports for the same player never lose an update.
type Gorm struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func OpenGorm(dsn string, log *zap.Logger) (*Gorm, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("ledger.OpenGorm: %w", err)
	}
	return NewGorm(db, log), nil
}

func NewGorm(db *gorm.DB, log *zap.Logger) *Gorm {
	return &Gorm{db: db, log: log, now: time.Now}
}

func (g *Gorm) Migrate(ctx context.Context) error {
	return g.db.WithContext(ctx).AutoMigrate(&PlayerPoints{})
}

func (g *Gorm) ReportPoints(ctx context.Context, identity string, delta int) error {
	now := g.now()
	week := WeekStart(now)
	rec := PlayerPoints{Identity: identity, Weekly: delta, Lifetime: delta, WeekStart: week, UpdatedAt: now}

	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "identity"}},
		DoUpdates: clause.Assignments(map[string]any{
			"lifetime":   gorm.Expr("player_points.lifetime + ?", delta),
			"weekly":     gorm.Expr("CASE WHEN player_points.week_start = ? THEN player_points.weekly + ? ELSE ? END", week, delta, delta),
			"week_start": week,
			"updated_at": now,
		}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("ledger.ReportPoints: %w", err)
	}
	g.log.Debug("points recorded", zap.String("identity", identity), zap.Int("delta", delta))
	return nil
}

func (g *Gorm) Totals(ctx context.Context, identity string) (Totals, error) {
	var rec PlayerPoints
	err := g.db.WithContext(ctx).First(&rec, "identity = ?", identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Totals{}, ErrNotFound
	}
	if err != nil {
		return Totals{}, fmt.Errorf("ledger.Totals: %w", err)
	}
	t := Totals{Identity: rec.Identity, Weekly: rec.Weekly, Lifetime: rec.Lifetime, WeekStart: rec.WeekStart.UTC()}
	if !t.WeekStart.Equal(WeekStart(g.now())) {
		t.Weekly = 0
	}
	return t, nil
}
