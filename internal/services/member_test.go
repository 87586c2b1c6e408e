package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	memberdom "github.com/codingswamp/codingswamp-backend/internal/domain/member"
	"github.com/codingswamp/codingswamp-backend/internal/platform/apierr"
)

// fakeMemberRepo backs member-service unit tests that do not need a
// database or a transaction.
type fakeMemberRepo struct {
	byID    map[uuid.UUID]*memberdom.Member
	byEmail map[string]*memberdom.Member
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{
		byID:    map[uuid.UUID]*memberdom.Member{},
		byEmail: map[string]*memberdom.Member{},
	}
}

func (f *fakeMemberRepo) add(m *memberdom.Member) {
	f.byID[m.ID] = m
	if m.Email != nil && m.GithubID == nil {
		f.byEmail[*m.Email] = m
	}
}

func (f *fakeMemberRepo) Create(ctx context.Context, tx *gorm.DB, m *memberdom.Member) (*memberdom.Member, error) {
	f.add(m)
	return m, nil
}

func (f *fakeMemberRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*memberdom.Member, error) {
	return f.byID[id], nil
}

func (f *fakeMemberRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*memberdom.Member, error) {
	var out []*memberdom.Member
	for _, id := range ids {
		if m, ok := f.byID[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMemberRepo) GetLocalByEmail(ctx context.Context, tx *gorm.DB, email string) (*memberdom.Member, error) {
	return f.byEmail[email], nil
}

func (f *fakeMemberRepo) GetByGithubID(ctx context.Context, tx *gorm.DB, githubID int64) (*memberdom.Member, error) {
	for _, m := range f.byID {
		if m.GithubID != nil && *m.GithubID == githubID {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMemberRepo) LocalEmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	_, ok := f.byEmail[email]
	return ok, nil
}

func (f *fakeMemberRepo) Save(ctx context.Context, tx *gorm.DB, m *memberdom.Member) error {
	f.add(m)
	return nil
}

func (f *fakeMemberRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if m, ok := f.byID[id]; ok {
		if m.Email != nil {
			delete(f.byEmail, *m.Email)
		}
		delete(f.byID, id)
	}
	return nil
}

func newTestMemberService(t *testing.T, repo *fakeMemberRepo) *memberService {
	t.Helper()
	return &memberService{
		log:        testLogger(t).With("service", "MemberService"),
		memberRepo: repo,
	}
}

func assertFieldError(t *testing.T, err error, status int, field string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d field %q, got nil", status, field)
	}
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apierr.Error, got %T: %v", err, err)
	}
	if ae.Status != status {
		t.Fatalf("expected status %d, got %d (%v)", status, ae.Status, ae)
	}
	if _, ok := ae.Fields[field]; !ok {
		t.Fatalf("expected field %q in %v", field, ae.Fields)
	}
}

func TestCheckLogin(t *testing.T) {
	repo := newFakeMemberRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	email := "frog@swamp.dev"
	password := string(hash)
	repo.add(&memberdom.Member{
		ID:       uuid.New(),
		Email:    &email,
		Password: &password,
		Username: "frog",
		Role:     memberdom.RoleUser,
	})

	ms := newTestMemberService(t, repo)
	ctx := context.Background()

	m, err := ms.CheckLogin(ctx, "Frog@Swamp.dev", "correct-horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if m.Username != "frog" {
		t.Fatalf("unexpected member: %+v", m)
	}

	_, err = ms.CheckLogin(ctx, "nobody@swamp.dev", "correct-horse")
	assertFieldError(t, err, http.StatusUnauthorized, "email")

	_, err = ms.CheckLogin(ctx, "frog@swamp.dev", "wrong")
	assertFieldError(t, err, http.StatusUnauthorized, "password")
}

func TestCheckLoginIgnoresGithubAccounts(t *testing.T) {
	repo := newFakeMemberRepo()
	email := "gh@swamp.dev"
	githubID := int64(7)
	repo.add(&memberdom.Member{
		ID:       uuid.New(),
		Email:    &email,
		GithubID: &githubID,
		Username: "gh-user",
		Role:     memberdom.RoleUser,
	})

	ms := newTestMemberService(t, repo)
	_, err := ms.CheckLogin(context.Background(), "gh@swamp.dev", "anything")
	assertFieldError(t, err, http.StatusUnauthorized, "email")
}

func TestDuplicateEmailCheck(t *testing.T) {
	repo := newFakeMemberRepo()
	email := "taken@swamp.dev"
	password := "hash"
	repo.add(&memberdom.Member{
		ID:       uuid.New(),
		Email:    &email,
		Password: &password,
		Username: "taken",
		Role:     memberdom.RoleUser,
	})

	ms := newTestMemberService(t, repo)
	ctx := context.Background()

	if err := ms.DuplicateEmailCheck(ctx, "fresh@swamp.dev"); err != nil {
		t.Fatalf("expected fresh email to pass, got %v", err)
	}
	err := ms.DuplicateEmailCheck(ctx, "Taken@Swamp.dev")
	assertFieldError(t, err, http.StatusConflict, "email")
}

func TestEditForbiddenForGithubAccounts(t *testing.T) {
	repo := newFakeMemberRepo()
	githubID := int64(11)
	m := &memberdom.Member{
		ID:       uuid.New(),
		GithubID: &githubID,
		Username: "gh-user",
		Role:     memberdom.RoleUser,
	}
	repo.add(m)

	ms := newTestMemberService(t, repo)
	ctx := context.Background()

	_, err := ms.Edit(ctx, m.ID, EditMemberRequest{Username: "renamed"})
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status != http.StatusForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if dErr := ms.Delete(ctx, m.ID); !errors.As(dErr, &ae) || ae.Status != http.StatusForbidden {
		t.Fatalf("expected forbidden delete, got %v", dErr)
	}
}
