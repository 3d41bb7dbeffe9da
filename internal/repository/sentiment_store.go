package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"CrowdPulse/internal/domain/models"
	"CrowdPulse/internal/domain/repository"
)

type sentimentStore struct {
	db *gorm.DB
}

// NewSentimentStore creates the sqlite-backed sentiment store.
func NewSentimentStore(db *gorm.DB) repository.SentimentStore {
	return &sentimentStore{db: db}
}

func (s *sentimentStore) Insert(ctx context.Context, rec *models.SentimentRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("insert sentiment for post %d: %w", rec.PostID, err)
	}
	return nil
}

// InWindow returns records for a symbol whose posts were published at or
// after since, oldest first. Signal computation consumes these in time order.
func (s *sentimentStore) InWindow(ctx context.Context, symbol string, since time.Time, mode models.DataMode) ([]models.SentimentRecord, error) {
	var recs []models.SentimentRecord
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND observed_at >= ? AND data_source = ?", symbol, since, mode).
		Order("observed_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("query sentiment window for %s: %w", symbol, err)
	}
	return recs, nil
}

func (s *sentimentStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.SentimentRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count sentiment records: %w", err)
	}
	return n, nil
}
