package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	studyrepo "github.com/codingswamp/codingswamp-backend/internal/data/repos/study"
	memberdom "github.com/codingswamp/codingswamp-backend/internal/domain/member"
	studydom "github.com/codingswamp/codingswamp-backend/internal/domain/study"
	"github.com/codingswamp/codingswamp-backend/internal/platform/apierr"
)

// fakeStudyRepo keeps aggregates in memory so service tests can run the
// transaction path without a database.
type fakeStudyRepo struct {
	studies map[uuid.UUID]*studydom.Study
	saves   int
}

func newFakeStudyRepo() *fakeStudyRepo {
	return &fakeStudyRepo{studies: map[uuid.UUID]*studydom.Study{}}
}

func (f *fakeStudyRepo) Create(ctx context.Context, tx *gorm.DB, s *studydom.Study) (*studydom.Study, error) {
	f.studies[s.ID] = s
	return s, nil
}

func (f *fakeStudyRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*studydom.Study, error) {
	return f.studies[id], nil
}

func (f *fakeStudyRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*studydom.Study, error) {
	return f.studies[id], nil
}

func (f *fakeStudyRepo) SaveAggregate(ctx context.Context, tx *gorm.DB, s *studydom.Study) error {
	f.studies[s.ID] = s
	f.saves++
	return nil
}

func (f *fakeStudyRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status studydom.Status) error {
	if s, ok := f.studies[id]; ok {
		s.Status = status
	}
	return nil
}

func (f *fakeStudyRepo) ListPage(ctx context.Context, tx *gorm.DB, page studyrepo.PageRequest) ([]*studydom.Study, int64, error) {
	return nil, 0, nil
}

func (f *fakeStudyRepo) Search(ctx context.Context, tx *gorm.DB, cond studyrepo.SearchCondition, page studyrepo.PageRequest) ([]*studydom.Study, int64, error) {
	return nil, 0, nil
}

func (f *fakeStudyRepo) ListByApplicant(ctx context.Context, tx *gorm.DB, memberID uuid.UUID) ([]*studydom.Study, error) {
	return nil, nil
}

func (f *fakeStudyRepo) ListByParticipant(ctx context.Context, tx *gorm.DB, memberID uuid.UUID) ([]*studydom.Study, error) {
	return nil, nil
}

func (f *fakeStudyRepo) ListNonCompleted(ctx context.Context, tx *gorm.DB) ([]*studydom.Study, error) {
	var out []*studydom.Study
	for _, s := range f.studies {
		if s.Status != studydom.StatusCompletion {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStudyRepo) DeleteCascade(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	delete(f.studies, id)
	return nil
}

var serviceTestNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestStudyService(t *testing.T, sRepo *fakeStudyRepo, mRepo *fakeMemberRepo) *studyService {
	t.Helper()
	ss := &studyService{
		log:        testLogger(t).With("service", "StudyService"),
		studyRepo:  sRepo,
		memberRepo: mRepo,
		now:        func() time.Time { return serviceTestNow },
	}
	ss.runTx = func(ctx context.Context, fn func(tx *gorm.DB) error) error {
		return fn(nil)
	}
	return ss
}

func addMember(repo *fakeMemberRepo, username string) uuid.UUID {
	m := &memberdom.Member{ID: uuid.New(), Username: username, Role: memberdom.RoleUser}
	repo.add(m)
	return m.ID
}

func addStudy(sRepo *fakeStudyRepo, ownerID uuid.UUID, maxMembers int) *studydom.Study {
	end := serviceTestNow.AddDate(0, 1, 0)
	s := studydom.New(ownerID, studydom.CreateInput{
		Title:          "Go study group",
		Description:    "weekly sessions",
		Type:           studydom.TypeStudy,
		StartDate:      serviceTestNow.AddDate(0, 0, -1),
		EndDate:        &end,
		MaxMemberCount: maxMembers,
		Tags:           []string{"go"},
	}, serviceTestNow)
	sRepo.studies[s.ID] = s
	return s
}

func assertAPIStatus(t *testing.T, err error, want int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", want)
	}
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apierr.Error, got %T: %v", err, err)
	}
	if ae.Status != want {
		t.Fatalf("expected status %d, got %d (%v)", want, ae.Status, ae)
	}
}

func TestStudyMutationsReturnNilOnSuccess(t *testing.T) {
	sRepo := newFakeStudyRepo()
	mRepo := newFakeMemberRepo()
	ss := newTestStudyService(t, sRepo, mRepo)
	ctx := context.Background()

	ownerID := addMember(mRepo, "owner")
	applicantID := addMember(mRepo, "applicant")
	s := addStudy(sRepo, ownerID, 3)

	// err must be untyped nil: a typed-nil *apierr.Error in the error
	// interface would take every handler down the error branch.
	if err := ss.Apply(ctx, applicantID, s.ID, "let me in"); err != nil {
		t.Fatalf("successful apply returned %#v", err)
	}
	if err := ss.Approve(ctx, ownerID, s.ID, applicantID); err != nil {
		t.Fatalf("successful approve returned %#v", err)
	}
	if err := ss.Edit(ctx, ownerID, s.ID, studydom.EditInput{
		Title:          "Renamed",
		Description:    "still weekly",
		Type:           studydom.TypeStudy,
		StartDate:      serviceTestNow.AddDate(0, 0, -1),
		MaxMemberCount: 3,
		Tags:           []string{"go"},
	}); err != nil {
		t.Fatalf("successful edit returned %#v", err)
	}
	if err := ss.Withdraw(ctx, applicantID, s.ID); err != nil {
		t.Fatalf("successful withdraw returned %#v", err)
	}
	if sRepo.saves != 4 {
		t.Fatalf("expected 4 aggregate saves, got %d", sRepo.saves)
	}

	if err := ss.Delete(ctx, ownerID, s.ID); err != nil {
		t.Fatalf("successful delete returned %#v", err)
	}
	if _, ok := sRepo.studies[s.ID]; ok {
		t.Fatalf("expected study to be removed")
	}
}

func TestStudyMutationErrorsKeepTheirStatus(t *testing.T) {
	sRepo := newFakeStudyRepo()
	mRepo := newFakeMemberRepo()
	ss := newTestStudyService(t, sRepo, mRepo)
	ctx := context.Background()

	ownerID := addMember(mRepo, "owner")
	applicantID := addMember(mRepo, "applicant")
	s := addStudy(sRepo, ownerID, 1)

	assertAPIStatus(t, ss.Apply(ctx, applicantID, s.ID, "no room"), http.StatusConflict)
	assertAPIStatus(t, ss.Apply(ctx, applicantID, uuid.New(), "missing"), http.StatusNotFound)
	assertAPIStatus(t, ss.Kick(ctx, applicantID, s.ID, ownerID), http.StatusForbidden)
	if sRepo.saves != 0 {
		t.Fatalf("failed mutations must not save, got %d saves", sRepo.saves)
	}
}

func TestRecomputeStatusesCountsChanges(t *testing.T) {
	sRepo := newFakeStudyRepo()
	mRepo := newFakeMemberRepo()
	ss := newTestStudyService(t, sRepo, mRepo)

	ownerID := addMember(mRepo, "owner")
	s := addStudy(sRepo, ownerID, 3)
	past := serviceTestNow.AddDate(0, 0, -1)
	s.EndDate = &past

	changed, err := ss.RecomputeStatuses(context.Background(), serviceTestNow)
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	if changed != 1 {
		t.Fatalf("expected 1 change, got %d", changed)
	}
	if s.Status != studydom.StatusCompletion {
		t.Fatalf("expected COMPLETION, got %s", s.Status)
	}
}

func TestRegisterReviewNonParticipantUnauthorized(t *testing.T) {
	sRepo := newFakeStudyRepo()
	mRepo := newFakeMemberRepo()

	ownerID := addMember(mRepo, "owner")
	outsiderID := addMember(mRepo, "outsider")
	s := addStudy(sRepo, ownerID, 3)

	rs := &reviewService{
		log:        testLogger(t).With("service", "ReviewService"),
		studyRepo:  sRepo,
		memberRepo: mRepo,
	}
	_, err := rs.Register(context.Background(), outsiderID, s.ID, "nice people")
	assertAPIStatus(t, err, http.StatusUnauthorized)

	_, err = rs.Register(context.Background(), outsiderID, uuid.New(), "ghost study")
	assertAPIStatus(t, err, http.StatusNotFound)
}
