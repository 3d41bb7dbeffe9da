package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"CrowdPulse/internal/domain/models"
	"CrowdPulse/internal/domain/repository"
)

type postStore struct {
	db *gorm.DB
}

// NewPostStore creates the sqlite-backed post store.
func NewPostStore(db *gorm.DB) repository.PostStore {
	return &postStore{db: db}
}

func (s *postStore) Insert(ctx context.Context, post *models.SocialPost) error {
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("insert post %s: %w", post.SourceID, err)
	}
	return nil
}

// ExistingSourceIDs returns which of the given source ids are already stored.
// Used by the ingestion coordinator to drop duplicates before inserting.
func (s *postStore) ExistingSourceIDs(ctx context.Context, sourceIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(sourceIDs))
	if len(sourceIDs) == 0 {
		return existing, nil
	}

	var found []string
	err := s.db.WithContext(ctx).
		Model(&models.SocialPost{}).
		Where("source_id IN ?", sourceIDs).
		Pluck("source_id", &found).Error
	if err != nil {
		return nil, fmt.Errorf("query existing source ids: %w", err)
	}

	for _, id := range found {
		existing[id] = true
	}
	return existing, nil
}

// Unscored returns posts that have no sentiment record yet, oldest first.
func (s *postStore) Unscored(ctx context.Context, mode models.DataMode, limit int) ([]models.SocialPost, error) {
	var posts []models.SocialPost
	q := s.db.WithContext(ctx).
		Where("data_source = ?", mode).
		Where("id NOT IN (?)", s.db.Model(&models.SentimentRecord{}).Select("post_id")).
		Order("posted_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("query unscored posts: %w", err)
	}
	return posts, nil
}

func (s *postStore) BackfillEnrichment(ctx context.Context, postID uint, symbol, cleanedText string) error {
	err := s.db.WithContext(ctx).
		Model(&models.SocialPost{}).
		Where("id = ?", postID).
		Updates(map[string]any{"symbol": symbol, "cleaned_text": cleanedText}).Error
	if err != nil {
		return fmt.Errorf("backfill post %d: %w", postID, err)
	}
	return nil
}

func (s *postStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.SocialPost{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}
