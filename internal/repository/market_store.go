package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"CrowdPulse/internal/domain/models"
	"CrowdPulse/internal/domain/repository"
)

type marketStore struct {
	db *gorm.DB
}

// NewMarketStore creates the sqlite-backed market bar store.
func NewMarketStore(db *gorm.DB) repository.MarketStore {
	return &marketStore{db: db}
}

// Upsert inserts a bar or replaces the row for the same symbol and date. A
// later fetch carries corrected delivery figures, so the new row wins.
func (s *marketStore) Upsert(ctx context.Context, bar *models.MarketBar) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "symbol"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"open", "high", "low", "close", "volume",
				"delivery_volume", "delivery_pct", "data_source",
			}),
		}).
		Create(bar).Error
	if err != nil {
		return fmt.Errorf("upsert bar %s %s: %w", bar.Symbol, bar.Date.Format("2006-01-02"), err)
	}
	return nil
}

func (s *marketStore) Since(ctx context.Context, symbol string, since time.Time) ([]models.MarketBar, error) {
	var bars []models.MarketBar
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND date >= ?", symbol, since).
		Order("date ASC").
		Find(&bars).Error
	if err != nil {
		return nil, fmt.Errorf("query bars for %s: %w", symbol, err)
	}
	return bars, nil
}

func (s *marketStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.MarketBar{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count bars: %w", err)
	}
	return n, nil
}
