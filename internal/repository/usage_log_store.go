package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"CrowdPulse/internal/domain/models"
	"CrowdPulse/internal/domain/repository"
)

type usageLogStore struct {
	db *gorm.DB
}

// NewUsageLogStore creates the sqlite-backed usage audit store.
func NewUsageLogStore(db *gorm.DB) repository.UsageLogStore {
	return &usageLogStore{db: db}
}

func (s *usageLogStore) Append(ctx context.Context, entry *models.UsageLogEntry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append usage log: %w", err)
	}
	return nil
}
