package study

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/codingswamp/codingswamp-backend/internal/domain/study"
	"github.com/codingswamp/codingswamp-backend/internal/platform/logger"
)

type ReviewRepo interface {
	Create(ctx context.Context, tx *gorm.DB, review *study.Review) (*study.Review, error)
	ListByStudy(ctx context.Context, tx *gorm.DB, studyID uuid.UUID) ([]*study.Review, error)
}

type reviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
	return &reviewRepo{db: db, log: baseLog.With("repo", "ReviewRepo")}
}

func (r *reviewRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *reviewRepo) Create(ctx context.Context, tx *gorm.DB, review *study.Review) (*study.Review, error) {
	if err := r.conn(tx).WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

func (r *reviewRepo) ListByStudy(ctx context.Context, tx *gorm.DB, studyID uuid.UUID) ([]*study.Review, error) {
	var rows []*study.Review
	if err := r.conn(tx).WithContext(ctx).
		Where("study_id = ?", studyID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
