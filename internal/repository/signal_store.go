package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"CrowdPulse/internal/domain/models"
	"CrowdPulse/internal/domain/repository"
)

type signalStore struct {
	db *gorm.DB
}

// NewSignalStore creates the sqlite-backed signal store.
func NewSignalStore(db *gorm.DB) repository.SignalStore {
	return &signalStore{db: db}
}

func (s *signalStore) Insert(ctx context.Context, sig *models.DivergenceSignal) error {
	if err := s.db.WithContext(ctx).Create(sig).Error; err != nil {
		return fmt.Errorf("insert signal for %s: %w", sig.Symbol, err)
	}
	return nil
}

// LatestPerSymbol returns the newest signal row for each symbol in the given
// mode.
func (s *signalStore) LatestPerSymbol(ctx context.Context, mode models.DataMode) ([]models.DivergenceSignal, error) {
	var sigs []models.DivergenceSignal
	sub := s.db.Model(&models.DivergenceSignal{}).
		Select("MAX(id)").
		Where("data_source = ?", mode).
		Group("symbol")
	err := s.db.WithContext(ctx).
		Where("id IN (?)", sub).
		Order("symbol ASC").
		Find(&sigs).Error
	if err != nil {
		return nil, fmt.Errorf("query latest signals: %w", err)
	}
	return sigs, nil
}

func (s *signalStore) History(ctx context.Context, symbol string, limit int) ([]models.DivergenceSignal, error) {
	var sigs []models.DivergenceSignal
	q := s.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&sigs).Error; err != nil {
		return nil, fmt.Errorf("query signal history for %s: %w", symbol, err)
	}
	return sigs, nil
}

func (s *signalStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.DivergenceSignal{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count signals: %w", err)
	}
	return n, nil
}
