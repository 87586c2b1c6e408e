package study

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codingswamp/codingswamp-backend/internal/domain/study"
	"github.com/codingswamp/codingswamp-backend/internal/platform/logger"
)

const (
	DefaultPageSize = 8
	MaxPageSize     = 100
)

type PageRequest struct {
	Page int
	Size int
}

// Normalize clamps a raw page request: page starts at 1, size defaults to 8
// and never exceeds 100.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p PageRequest) Offset() int { return (p.Page - 1) * p.Size }

// SearchCondition filters are each optional; blank means unfiltered.
type SearchCondition struct {
	Title string
	Type  string
	Tag   string
}

type StudyRepo interface {
	Create(ctx context.Context, tx *gorm.DB, s *study.Study) (*study.Study, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*study.Study, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*study.Study, error)
	SaveAggregate(ctx context.Context, tx *gorm.DB, s *study.Study) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status study.Status) error
	ListPage(ctx context.Context, tx *gorm.DB, page PageRequest) ([]*study.Study, int64, error)
	Search(ctx context.Context, tx *gorm.DB, cond SearchCondition, page PageRequest) ([]*study.Study, int64, error)
	ListByApplicant(ctx context.Context, tx *gorm.DB, memberID uuid.UUID) ([]*study.Study, error)
	ListByParticipant(ctx context.Context, tx *gorm.DB, memberID uuid.UUID) ([]*study.Study, error)
	ListNonCompleted(ctx context.Context, tx *gorm.DB) ([]*study.Study, error)
	DeleteCascade(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type studyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudyRepo(db *gorm.DB, baseLog *logger.Logger) StudyRepo {
	return &studyRepo{db: db, log: baseLog.With("repo", "StudyRepo")}
}

func (r *studyRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *studyRepo) Create(ctx context.Context, tx *gorm.DB, s *study.Study) (*study.Study, error) {
	if err := r.conn(tx).WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *studyRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*study.Study, error) {
	return r.getByID(ctx, tx, id, false)
}

// GetByIDForUpdate locks the study row for the rest of the transaction so
// capacity and duplicate-application checks on the loaded aggregate are
// atomic across concurrent requests.
func (r *studyRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*study.Study, error) {
	return r.getByID(ctx, tx, id, true)
}

func (r *studyRepo) getByID(ctx context.Context, tx *gorm.DB, id uuid.UUID, forUpdate bool) (*study.Study, error) {
	q := r.conn(tx).WithContext(ctx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "study"}})
	}
	var rows []*study.Study
	if err := q.
		Preload("Participants").
		Preload("Applicants").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
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

// SaveAggregate persists the aggregate as the domain left it: the root row
// is updated and the child collections are rewritten to match the in-memory
// slices. Collections are small (bounded by max member count), so
// delete-and-reinsert beats diffing.
func (r *studyRepo) SaveAggregate(ctx context.Context, tx *gorm.DB, s *study.Study) error {
	conn := r.conn(tx).WithContext(ctx)

	if err := conn.Model(&study.Study{}).
		Where("id = ?", s.ID).
		Updates(map[string]any{
			"title":                s.Title,
			"description":          s.Description,
			"study_type":           s.Type,
			"thumbnail":            s.Thumbnail,
			"status":               s.Status,
			"start_date":           s.StartDate,
			"end_date":             s.EndDate,
			"current_member_count": s.CurrentMemberCount,
			"max_member_count":     s.MaxMemberCount,
		}).Error; err != nil {
		return err
	}

	if err := conn.Where("study_id = ?", s.ID).Delete(&study.Participant{}).Error; err != nil {
		return err
	}
	if len(s.Participants) > 0 {
		if err := conn.Create(&s.Participants).Error; err != nil {
			return err
		}
	}

	if err := conn.Where("study_id = ?", s.ID).Delete(&study.Applicant{}).Error; err != nil {
		return err
	}
	if len(s.Applicants) > 0 {
		if err := conn.Create(&s.Applicants).Error; err != nil {
			return err
		}
	}

	if err := conn.Where("study_id = ?", s.ID).Delete(&study.Tag{}).Error; err != nil {
		return err
	}
	if len(s.Tags) > 0 {
		if err := conn.Create(&s.Tags).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *studyRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status study.Status) error {
	return r.conn(tx).WithContext(ctx).
		Model(&study.Study{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *studyRepo) ListPage(ctx context.Context, tx *gorm.DB, page PageRequest) ([]*study.Study, int64, error) {
	page = page.Normalize()
	conn := r.conn(tx).WithContext(ctx)

	var total int64
	if err := conn.Model(&study.Study{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*study.Study
	if err := conn.
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *studyRepo) Search(ctx context.Context, tx *gorm.DB, cond SearchCondition, page PageRequest) ([]*study.Study, int64, error) {
	page = page.Normalize()
	conn := r.conn(tx).WithContext(ctx)

	base := conn.Model(&study.Study{})
	if title := strings.TrimSpace(cond.Title); title != "" {
		base = base.Where("title ILIKE ?", "%"+title+"%")
	}
	if typ := strings.TrimSpace(cond.Type); typ != "" {
		base = base.Where("study_type = ?", typ)
	}
	if tag := strings.TrimSpace(cond.Tag); tag != "" {
		base = base.Where(
			"id IN (?)",
			conn.Model(&study.Tag{}).
				Select("study_id").
				Where("content ILIKE ?", "%"+tag+"%"),
		)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*study.Study
	if err := base.Session(&gorm.Session{}).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *studyRepo) ListByApplicant(ctx context.Context, tx *gorm.DB, memberID uuid.UUID) ([]*study.Study, error) {
	var rows []*study.Study
	if err := r.conn(tx).WithContext(ctx).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Joins("JOIN study_applicant ON study_applicant.study_id = study.id").
		Where("study_applicant.member_id = ?", memberID).
		Order("study_applicant.application_date DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *studyRepo) ListByParticipant(ctx context.Context, tx *gorm.DB, memberID uuid.UUID) ([]*study.Study, error) {
	var rows []*study.Study
	if err := r.conn(tx).WithContext(ctx).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Joins("JOIN study_participant ON study_participant.study_id = study.id").
		Where("study_participant.member_id = ?", memberID).
		Order("study_participant.participation_date DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *studyRepo) ListNonCompleted(ctx context.Context, tx *gorm.DB) ([]*study.Study, error) {
	var rows []*study.Study
	if err := r.conn(tx).WithContext(ctx).
		Where("status <> ?", study.StatusCompletion).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteCascade removes dependents before the root: reviews, applicants,
// participants, tags, then the study itself.
func (r *studyRepo) DeleteCascade(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	conn := r.conn(tx).WithContext(ctx)
	if err := conn.Where("study_id = ?", id).Delete(&study.Review{}).Error; err != nil {
		return err
	}
	if err := conn.Where("study_id = ?", id).Delete(&study.Applicant{}).Error; err != nil {
		return err
	}
	if err := conn.Where("study_id = ?", id).Delete(&study.Participant{}).Error; err != nil {
		return err
	}
	if err := conn.Where("study_id = ?", id).Delete(&study.Tag{}).Error; err != nil {
		return err
	}
	return conn.Where("id = ?", id).Delete(&study.Study{}).Error
}
