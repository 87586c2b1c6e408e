package member

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/codingswamp/codingswamp-backend/internal/domain/member"
	"github.com/codingswamp/codingswamp-backend/internal/platform/logger"
)

type MemberRepo interface {
	Create(ctx context.Context, tx *gorm.DB, m *member.Member) (*member.Member, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*member.Member, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*member.Member, error)
	GetLocalByEmail(ctx context.Context, tx *gorm.DB, email string) (*member.Member, error)
	GetByGithubID(ctx context.Context, tx *gorm.DB, githubID int64) (*member.Member, error)
	LocalEmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
	Save(ctx context.Context, tx *gorm.DB, m *member.Member) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type memberRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemberRepo(db *gorm.DB, baseLog *logger.Logger) MemberRepo {
	return &memberRepo{db: db, log: baseLog.With("repo", "MemberRepo")}
}

func (r *memberRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *memberRepo) Create(ctx context.Context, tx *gorm.DB, m *member.Member) (*member.Member, error) {
	if err := r.conn(tx).WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

func (r *memberRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*member.Member, error) {
	var rows []*member.Member
	if err := r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *memberRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*member.Member, error) {
	var rows []*member.Member
	if len(ids) == 0 {
		return rows, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetLocalByEmail only matches locally registered accounts; a GitHub account
// sharing the email does not count for login or duplicate checks.
func (r *memberRepo) GetLocalByEmail(ctx context.Context, tx *gorm.DB, email string) (*member.Member, error) {
	var rows []*member.Member
	if err := r.conn(tx).WithContext(ctx).
		Where("email = ? AND github_id IS NULL", email).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *memberRepo) GetByGithubID(ctx context.Context, tx *gorm.DB, githubID int64) (*member.Member, error) {
	var rows []*member.Member
	if err := r.conn(tx).WithContext(ctx).
		Where("github_id = ?", githubID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *memberRepo) LocalEmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	var count int64
	if err := r.conn(tx).WithContext(ctx).
		Model(&member.Member{}).
		Where("email = ? AND github_id IS NULL", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *memberRepo) Save(ctx context.Context, tx *gorm.DB, m *member.Member) error {
	return r.conn(tx).WithContext(ctx).Save(m).Error
}

func (r *memberRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&member.Member{}).Error
}
