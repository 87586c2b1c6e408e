package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	memberrepo "github.com/codingswamp/codingswamp-backend/internal/data/repos/member"
	studyrepo "github.com/codingswamp/codingswamp-backend/internal/data/repos/study"
	memberdomain "github.com/codingswamp/codingswamp-backend/internal/domain/member"
	"github.com/codingswamp/codingswamp-backend/internal/domain/study"
	"github.com/codingswamp/codingswamp-backend/internal/platform/apierr"
	"github.com/codingswamp/codingswamp-backend/internal/platform/logger"
)

type MemberView struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	ImageURL   string    `json:"image_url"`
	ProfileURL *string   `json:"profile_url,omitempty"`
}

type ParticipantView struct {
	Member            MemberView `json:"member"`
	ParticipationDate time.Time  `json:"participation_date"`
}

type ApplicantView struct {
	Member          MemberView `json:"member"`
	ReasonForApply  string     `json:"reason_for_apply"`
	ApplicationDate time.Time  `json:"application_date"`
}

type StudyDetailView struct {
	ID                 uuid.UUID         `json:"id"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	Type               study.Type        `json:"study_type"`
	Thumbnail          string            `json:"thumbnail"`
	Status             study.Status      `json:"status"`
	StartDate          time.Time         `json:"start_date"`
	EndDate            *time.Time        `json:"end_date,omitempty"`
	CurrentMemberCount int               `json:"current_member_count"`
	MaxMemberCount     int               `json:"max_member_count"`
	Owner              MemberView        `json:"owner"`
	Participants       []ParticipantView `json:"participants"`
	Applicants         []ApplicantView   `json:"applicants"`
	Tags               []string          `json:"tags"`
	CreatedAt          time.Time         `json:"created_at"`
}

type StudySummaryView struct {
	ID                 uuid.UUID    `json:"id"`
	Title              string       `json:"title"`
	Type               study.Type   `json:"study_type"`
	Thumbnail          string       `json:"thumbnail"`
	Status             study.Status `json:"status"`
	StartDate          time.Time    `json:"start_date"`
	EndDate            *time.Time   `json:"end_date,omitempty"`
	CurrentMemberCount int          `json:"current_member_count"`
	MaxMemberCount     int          `json:"max_member_count"`
	Tags               []string     `json:"tags"`
	CreatedAt          time.Time    `json:"created_at"`
}

type StudyPageView struct {
	Studies []StudySummaryView `json:"studies"`
	Total   int64              `json:"total"`
	Page    int                `json:"page"`
	Size    int                `json:"size"`
}

type StudyService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in study.CreateInput) (*study.Study, error)
	Apply(ctx context.Context, applicantID, studyID uuid.UUID, reason string) error
	Approve(ctx context.Context, ownerID, studyID, applicantMemberID uuid.UUID) error
	Withdraw(ctx context.Context, memberID, studyID uuid.UUID) error
	Kick(ctx context.Context, ownerID, studyID, targetMemberID uuid.UUID) error
	CancelApply(ctx context.Context, memberID, studyID uuid.UUID) error
	Edit(ctx context.Context, ownerID, studyID uuid.UUID, in study.EditInput) error
	Delete(ctx context.Context, ownerID, studyID uuid.UUID) error
	GetDetails(ctx context.Context, studyID uuid.UUID) (*StudyDetailView, error)
	GetStudies(ctx context.Context, page studyrepo.PageRequest) (*StudyPageView, error)
	Search(ctx context.Context, cond studyrepo.SearchCondition, page studyrepo.PageRequest) (*StudyPageView, error)
	GetMyApplies(ctx context.Context, memberID uuid.UUID) ([]StudySummaryView, error)
	GetMyParticipates(ctx context.Context, memberID uuid.UUID) ([]StudySummaryView, error)
	RecomputeStatuses(ctx context.Context, now time.Time) (int, error)
}

type studyService struct {
	db         *gorm.DB
	log        *logger.Logger
	studyRepo  studyrepo.StudyRepo
	memberRepo memberrepo.MemberRepo
	now        func() time.Time
	runTx      func(ctx context.Context, fn func(tx *gorm.DB) error) error
}

func NewStudyService(
	db *gorm.DB,
	log *logger.Logger,
	sRepo studyrepo.StudyRepo,
	mRepo memberrepo.MemberRepo,
) StudyService {
	ss := &studyService{
		db:         db,
		log:        log.With("service", "StudyService"),
		studyRepo:  sRepo,
		memberRepo: mRepo,
		now:        time.Now,
	}
	ss.runTx = func(ctx context.Context, fn func(tx *gorm.DB) error) error {
		return ss.db.WithContext(ctx).Transaction(fn)
	}
	return ss
}

func (ss *studyService) Create(ctx context.Context, ownerID uuid.UUID, in study.CreateInput) (*study.Study, error) {
	owner, err := ss.memberRepo.GetByID(ctx, nil, ownerID)
	if err != nil {
		return nil, apierr.From(err)
	}
	if owner == nil {
		return nil, apierr.NotFound("member %s not found", ownerID)
	}

	s := study.New(ownerID, in, ss.now())
	err = ss.runTx(ctx, func(tx *gorm.DB) error {
		_, cErr := ss.studyRepo.Create(ctx, tx, s)
		return cErr
	})
	if err != nil {
		return nil, apierr.From(err)
	}
	ss.log.Info("Study created", "study_id", s.ID.String(), "owner_id", ownerID.String())
	return s, nil
}

// mutate runs one aggregate operation inside a transaction with the study
// row locked, so the aggregate's capacity and duplicate checks hold under
// concurrent requests.
func (ss *studyService) mutate(ctx context.Context, studyID uuid.UUID, op func(s *study.Study) error) error {
	err := ss.runTx(ctx, func(tx *gorm.DB) error {
		s, gErr := ss.studyRepo.GetByIDForUpdate(ctx, tx, studyID)
		if gErr != nil {
			return gErr
		}
		if s == nil {
			return apierr.NotFound("study %s not found", studyID)
		}
		if opErr := op(s); opErr != nil {
			return opErr
		}
		return ss.studyRepo.SaveAggregate(ctx, tx, s)
	})
	// A bare `return apierr.From(err)` would hand callers a non-nil error
	// interface wrapping a nil *apierr.Error on the success path.
	if err != nil {
		return apierr.From(err)
	}
	return nil
}

func (ss *studyService) requireMember(ctx context.Context, id uuid.UUID) error {
	m, err := ss.memberRepo.GetByID(ctx, nil, id)
	if err != nil {
		return apierr.From(err)
	}
	if m == nil {
		return apierr.NotFound("member %s not found", id)
	}
	return nil
}

func (ss *studyService) Apply(ctx context.Context, applicantID, studyID uuid.UUID, reason string) error {
	if err := ss.requireMember(ctx, applicantID); err != nil {
		return err
	}
	return ss.mutate(ctx, studyID, func(s *study.Study) error {
		return s.Apply(applicantID, reason, ss.now())
	})
}

func (ss *studyService) Approve(ctx context.Context, ownerID, studyID, applicantMemberID uuid.UUID) error {
	return ss.mutate(ctx, studyID, func(s *study.Study) error {
		return s.Approve(ownerID, applicantMemberID, ss.now())
	})
}

func (ss *studyService) Withdraw(ctx context.Context, memberID, studyID uuid.UUID) error {
	return ss.mutate(ctx, studyID, func(s *study.Study) error {
		return s.Withdraw(memberID)
	})
}

func (ss *studyService) Kick(ctx context.Context, ownerID, studyID, targetMemberID uuid.UUID) error {
	return ss.mutate(ctx, studyID, func(s *study.Study) error {
		return s.Kick(ownerID, targetMemberID)
	})
}

func (ss *studyService) CancelApply(ctx context.Context, memberID, studyID uuid.UUID) error {
	return ss.mutate(ctx, studyID, func(s *study.Study) error {
		return s.CancelApply(memberID)
	})
}

func (ss *studyService) Edit(ctx context.Context, ownerID, studyID uuid.UUID, in study.EditInput) error {
	return ss.mutate(ctx, studyID, func(s *study.Study) error {
		return s.Edit(ownerID, in)
	})
}

func (ss *studyService) Delete(ctx context.Context, ownerID, studyID uuid.UUID) error {
	err := ss.runTx(ctx, func(tx *gorm.DB) error {
		s, gErr := ss.studyRepo.GetByIDForUpdate(ctx, tx, studyID)
		if gErr != nil {
			return gErr
		}
		if s == nil {
			return apierr.NotFound("study %s not found", studyID)
		}
		if !s.IsOwner(ownerID) {
			return apierr.Forbidden("member %s is not the owner of study %s", ownerID, studyID)
		}
		return ss.studyRepo.DeleteCascade(ctx, tx, studyID)
	})
	if err != nil {
		return apierr.From(err)
	}
	ss.log.Info("Study deleted", "study_id", studyID.String())
	return nil
}

func (ss *studyService) GetDetails(ctx context.Context, studyID uuid.UUID) (*StudyDetailView, error) {
	s, err := ss.studyRepo.GetByID(ctx, nil, studyID)
	if err != nil {
		return nil, apierr.From(err)
	}
	if s == nil {
		return nil, apierr.NotFound("study %s not found", studyID)
	}

	ids := make([]uuid.UUID, 0, len(s.Participants)+len(s.Applicants)+1)
	ids = append(ids, s.OwnerID)
	for _, p := range s.Participants {
		ids = append(ids, p.MemberID)
	}
	for _, a := range s.Applicants {
		ids = append(ids, a.MemberID)
	}
	members, err := ss.memberRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, apierr.From(err)
	}
	byID := make(map[uuid.UUID]*memberdomain.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	view := &StudyDetailView{
		ID:                 s.ID,
		Title:              s.Title,
		Description:        s.Description,
		Type:               s.Type,
		Thumbnail:          s.Thumbnail,
		Status:             s.Status,
		StartDate:          s.StartDate,
		EndDate:            s.EndDate,
		CurrentMemberCount: s.CurrentMemberCount,
		MaxMemberCount:     s.MaxMemberCount,
		Owner:              memberView(byID[s.OwnerID], s.OwnerID),
		Participants:       make([]ParticipantView, 0, len(s.Participants)),
		Applicants:         make([]ApplicantView, 0, len(s.Applicants)),
		Tags:               tagContents(s.Tags),
		CreatedAt:          s.CreatedAt,
	}
	for _, p := range s.Participants {
		view.Participants = append(view.Participants, ParticipantView{
			Member:            memberView(byID[p.MemberID], p.MemberID),
			ParticipationDate: p.ParticipationDate,
		})
	}
	for _, a := range s.Applicants {
		view.Applicants = append(view.Applicants, ApplicantView{
			Member:          memberView(byID[a.MemberID], a.MemberID),
			ReasonForApply:  a.ReasonForApply,
			ApplicationDate: a.ApplicationDate,
		})
	}
	return view, nil
}

func (ss *studyService) GetStudies(ctx context.Context, page studyrepo.PageRequest) (*StudyPageView, error) {
	page = page.Normalize()
	rows, total, err := ss.studyRepo.ListPage(ctx, nil, page)
	if err != nil {
		return nil, apierr.From(err)
	}
	return &StudyPageView{
		Studies: summaries(rows),
		Total:   total,
		Page:    page.Page,
		Size:    page.Size,
	}, nil
}

func (ss *studyService) Search(ctx context.Context, cond studyrepo.SearchCondition, page studyrepo.PageRequest) (*StudyPageView, error) {
	page = page.Normalize()
	rows, total, err := ss.studyRepo.Search(ctx, nil, cond, page)
	if err != nil {
		return nil, apierr.From(err)
	}
	return &StudyPageView{
		Studies: summaries(rows),
		Total:   total,
		Page:    page.Page,
		Size:    page.Size,
	}, nil
}

func (ss *studyService) GetMyApplies(ctx context.Context, memberID uuid.UUID) ([]StudySummaryView, error) {
	rows, err := ss.studyRepo.ListByApplicant(ctx, nil, memberID)
	if err != nil {
		return nil, apierr.From(err)
	}
	return summaries(rows), nil
}

func (ss *studyService) GetMyParticipates(ctx context.Context, memberID uuid.UUID) ([]StudySummaryView, error) {
	rows, err := ss.studyRepo.ListByParticipant(ctx, nil, memberID)
	if err != nil {
		return nil, apierr.From(err)
	}
	return summaries(rows), nil
}

// RecomputeStatuses walks every non-terminal study and reapplies the date
// rule in one transaction; a failure rolls back the whole batch.
func (ss *studyService) RecomputeStatuses(ctx context.Context, now time.Time) (int, error) {
	changed := 0
	err := ss.runTx(ctx, func(tx *gorm.DB) error {
		rows, lErr := ss.studyRepo.ListNonCompleted(ctx, tx)
		if lErr != nil {
			return lErr
		}
		for _, s := range rows {
			if !s.RecomputeStatus(now) {
				continue
			}
			if uErr := ss.studyRepo.UpdateStatus(ctx, tx, s.ID, s.Status); uErr != nil {
				return uErr
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, apierr.From(err)
	}
	return changed, nil
}

func memberView(m *memberdomain.Member, fallbackID uuid.UUID) MemberView {
	if m == nil {
		// Member row vanished out from under the reference (e.g. account
		// deletion without participation cleanup).
		return MemberView{ID: fallbackID, Username: "unknown"}
	}
	return MemberView{
		ID:         m.ID,
		Username:   m.Username,
		ImageURL:   m.ImageURL,
		ProfileURL: m.ProfileURL,
	}
}

func tagContents(tags []study.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Content)
	}
	return out
}

func summaries(rows []*study.Study) []StudySummaryView {
	out := make([]StudySummaryView, 0, len(rows))
	for _, s := range rows {
		out = append(out, StudySummaryView{
			ID:                 s.ID,
			Title:              s.Title,
			Type:               s.Type,
			Thumbnail:          s.Thumbnail,
			Status:             s.Status,
			StartDate:          s.StartDate,
			EndDate:            s.EndDate,
			CurrentMemberCount: s.CurrentMemberCount,
			MaxMemberCount:     s.MaxMemberCount,
			Tags:               tagContents(s.Tags),
			CreatedAt:          s.CreatedAt,
		})
	}
	return out
}
