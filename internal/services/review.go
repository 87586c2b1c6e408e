package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	memberrepo "github.com/codingswamp/codingswamp-backend/internal/data/repos/member"
	studyrepo "github.com/codingswamp/codingswamp-backend/internal/data/repos/study"
	"github.com/codingswamp/codingswamp-backend/internal/domain/study"
	"github.com/codingswamp/codingswamp-backend/internal/platform/apierr"
	"github.com/codingswamp/codingswamp-backend/internal/platform/logger"
)

type ReviewView struct {
	ID        uuid.UUID  `json:"id"`
	Member    MemberView `json:"member"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
}

type ReviewService interface {
	Register(ctx context.Context, memberID, studyID uuid.UUID, content string) (*study.Review, error)
	ListByStudy(ctx context.Context, studyID uuid.UUID) ([]ReviewView, error)
}

type reviewService struct {
	db         *gorm.DB
	log        *logger.Logger
	studyRepo  studyrepo.StudyRepo
	reviewRepo studyrepo.ReviewRepo
	memberRepo memberrepo.MemberRepo
}

func NewReviewService(
	db *gorm.DB,
	log *logger.Logger,
	sRepo studyrepo.StudyRepo,
	rRepo studyrepo.ReviewRepo,
	mRepo memberrepo.MemberRepo,
) ReviewService {
	return &reviewService{
		db:         db,
		log:        log.With("service", "ReviewService"),
		studyRepo:  sRepo,
		reviewRepo: rRepo,
		memberRepo: mRepo,
	}
}

// Register only accepts reviews from current participants of the study.
func (rs *reviewService) Register(ctx context.Context, memberID, studyID uuid.UUID, content string) (*study.Review, error) {
	m, err := rs.memberRepo.GetByID(ctx, nil, memberID)
	if err != nil {
		return nil, apierr.From(err)
	}
	if m == nil {
		return nil, apierr.NotFound("member %s not found", memberID)
	}
	s, err := rs.studyRepo.GetByID(ctx, nil, studyID)
	if err != nil {
		return nil, apierr.From(err)
	}
	if s == nil {
		return nil, apierr.NotFound("study %s not found", studyID)
	}
	if !s.HasParticipant(memberID) {
		return nil, apierr.Unauthorized("member %s does not participate in study %s", memberID, studyID)
	}

	review := &study.Review{
		ID:       uuid.New(),
		StudyID:  studyID,
		MemberID: memberID,
		Content:  content,
	}
	err = rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, cErr := rs.reviewRepo.Create(ctx, tx, review)
		return cErr
	})
	if err != nil {
		return nil, apierr.From(err)
	}
	return review, nil
}

func (rs *reviewService) ListByStudy(ctx context.Context, studyID uuid.UUID) ([]ReviewView, error) {
	s, err := rs.studyRepo.GetByID(ctx, nil, studyID)
	if err != nil {
		return nil, apierr.From(err)
	}
	if s == nil {
		return nil, apierr.NotFound("study %s not found", studyID)
	}
	rows, err := rs.reviewRepo.ListByStudy(ctx, nil, studyID)
	if err != nil {
		return nil, apierr.From(err)
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.MemberID)
	}
	members, err := rs.memberRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, apierr.From(err)
	}
	byID := make(map[uuid.UUID]MemberView, len(members))
	for _, m := range members {
		byID[m.ID] = memberView(m, m.ID)
	}

	out := make([]ReviewView, 0, len(rows))
	for _, r := range rows {
		mv, ok := byID[r.MemberID]
		if !ok {
			mv = memberView(nil, r.MemberID)
		}
		out = append(out, ReviewView{
			ID:        r.ID,
			Member:    mv,
			Content:   r.Content,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}
