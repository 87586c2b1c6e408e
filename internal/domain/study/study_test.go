package study

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/codingswamp/codingswamp-backend/internal/platform/apierr"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }

func newTestStudy(t *testing.T, ownerID uuid.UUID, maxMembers int) *Study {
	t.Helper()
	return New(ownerID, CreateInput{
		Title:          "Go study group",
		Description:    "weekly sessions",
		Type:           TypeStudy,
		StartDate:      testNow.AddDate(0, 0, -1),
		EndDate:        timePtr(testNow.AddDate(0, 1, 0)),
		MaxMemberCount: maxMembers,
		Tags:           []string{"go", "backend"},
	}, testNow)
}

func assertStatusCode(t *testing.T, err error, want int) {
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

func TestNewEnrollsOwner(t *testing.T) {
	ownerID := uuid.New()
	s := newTestStudy(t, ownerID, 5)

	if len(s.Participants) != 1 {
		t.Fatalf("expected 1 participant, got %d", len(s.Participants))
	}
	if s.Participants[0].MemberID != ownerID {
		t.Fatalf("expected owner to be enrolled, got %s", s.Participants[0].MemberID)
	}
	if s.CurrentMemberCount != 1 {
		t.Fatalf("expected member count 1, got %d", s.CurrentMemberCount)
	}
	if !s.IsOwner(ownerID) {
		t.Fatalf("expected IsOwner(owner) to be true")
	}
	if len(s.Tags) != 2 || s.Tags[0].Position != 0 || s.Tags[1].Position != 1 {
		t.Fatalf("expected positioned tags, got %+v", s.Tags)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name  string
		start time.Time
		end   *time.Time
		want  Status
	}{
		{"future start", testNow.AddDate(0, 0, 1), nil, StatusPreparing},
		{"started no end", testNow.AddDate(0, 0, -1), nil, StatusOngoing},
		{"past end", testNow.AddDate(0, 0, -10), timePtr(testNow.AddDate(0, 0, -1)), StatusCompletion},
		{"past end wins over future start", testNow.AddDate(0, 0, 5), timePtr(testNow.AddDate(0, 0, -1)), StatusCompletion},
		{"starts today", testNow, nil, StatusOngoing},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.start, tc.end, testNow); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestApply(t *testing.T) {
	s := newTestStudy(t, uuid.New(), 2)
	applicant := uuid.New()

	if err := s.Apply(applicant, "interested", testNow); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}
	if !s.HasApplicant(applicant) {
		t.Fatalf("expected applicant to be recorded")
	}
	if s.CurrentMemberCount != 1 {
		t.Fatalf("apply must not change member count, got %d", s.CurrentMemberCount)
	}

	assertStatusCode(t, s.Apply(applicant, "again", testNow), http.StatusConflict)
	assertStatusCode(t, s.Apply(s.OwnerID, "owner applying", testNow), http.StatusConflict)
}

func TestApplyFullStudy(t *testing.T) {
	s := newTestStudy(t, uuid.New(), 1)
	assertStatusCode(t, s.Apply(uuid.New(), "no room", testNow), http.StatusConflict)
}

func TestApprove(t *testing.T) {
	ownerID := uuid.New()
	s := newTestStudy(t, ownerID, 3)
	applicant := uuid.New()
	if err := s.Apply(applicant, "let me in", testNow); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	if err := s.Approve(ownerID, applicant, testNow); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if !s.HasParticipant(applicant) {
		t.Fatalf("expected applicant to become participant")
	}
	if s.HasApplicant(applicant) {
		t.Fatalf("expected application to be consumed")
	}
	if s.CurrentMemberCount != 2 {
		t.Fatalf("expected member count 2, got %d", s.CurrentMemberCount)
	}
}

func TestApproveNonOwnerForbidden(t *testing.T) {
	s := newTestStudy(t, uuid.New(), 3)
	applicant := uuid.New()
	if err := s.Apply(applicant, "", testNow); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	assertStatusCode(t, s.Approve(uuid.New(), applicant, testNow), http.StatusForbidden)
}

func TestApproveWithoutApplication(t *testing.T) {
	ownerID := uuid.New()
	s := newTestStudy(t, ownerID, 3)
	assertStatusCode(t, s.Approve(ownerID, uuid.New(), testNow), http.StatusNotFound)
}

func TestApproveFullStudy(t *testing.T) {
	ownerID := uuid.New()
	s := newTestStudy(t, ownerID, 2)
	first := uuid.New()
	second := uuid.New()
	if err := s.Apply(first, "", testNow); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := s.Apply(second, "", testNow); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := s.Approve(ownerID, first, testNow); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	assertStatusCode(t, s.Approve(ownerID, second, testNow), http.StatusConflict)
	if !s.HasApplicant(second) {
		t.Fatalf("rejected approval must keep the application pending")
	}
}

func TestWithdraw(t *testing.T) {
	ownerID := uuid.New()
	s := newTestStudy(t, ownerID, 3)
	memberID := uuid.New()
	if err := s.Apply(memberID, "", testNow); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := s.Approve(ownerID, memberID, testNow); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if err := s.Withdraw(memberID); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if s.HasParticipant(memberID) {
		t.Fatalf("expected participant to be removed")
	}
	if s.CurrentMemberCount != 1 {
		t.Fatalf("expected member count 1, got %d", s.CurrentMemberCount)
	}
}

func TestOwnerCannotWithdraw(t *testing.T) {
	ownerID := uuid.New()
	s := newTestStudy(t, ownerID, 3)
	assertStatusCode(t, s.Withdraw(ownerID), http.StatusForbidden)
	if !s.HasParticipant(ownerID) {
		t.Fatalf("owner must remain a participant")
	}
}

func TestWithdrawNonParticipant(t *testing.T) {
	s := newTestStudy(t, uuid.New(), 3)
	assertStatusCode(t, s.Withdraw(uuid.New()), http.StatusNotFound)
}

func TestKick(t *testing.T) {
	ownerID := uuid.New()
	s := newTestStudy(t, ownerID, 3)
	memberID := uuid.New()
	if err := s.Apply(memberID, "", testNow); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := s.Approve(ownerID, memberID, testNow); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	assertStatusCode(t, s.Kick(memberID, ownerID), http.StatusForbidden)

	if err := s.Kick(ownerID, memberID); err != nil {
		t.Fatalf("kick failed: %v", err)
	}
	if s.HasParticipant(memberID) {
		t.Fatalf("expected kicked member to be removed")
	}
	if s.CurrentMemberCount != 1 {
		t.Fatalf("expected member count 1, got %d", s.CurrentMemberCount)
	}
}

func TestCancelApply(t *testing.T) {
	s := newTestStudy(t, uuid.New(), 3)
	memberID := uuid.New()
	if err := s.Apply(memberID, "", testNow); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := s.CancelApply(memberID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if s.HasApplicant(memberID) {
		t.Fatalf("expected application to be gone")
	}
	assertStatusCode(t, s.CancelApply(memberID), http.StatusNotFound)
}

func TestEdit(t *testing.T) {
	ownerID := uuid.New()
	s := newTestStudy(t, ownerID, 3)
	before := s.Status

	in := EditInput{
		Title:          "Renamed",
		Description:    "new description",
		Type:           TypeMogakko,
		StartDate:      testNow.AddDate(0, 0, 7),
		MaxMemberCount: 10,
		Tags:           []string{"online"},
	}
	assertStatusCode(t, s.Edit(uuid.New(), in), http.StatusForbidden)

	if err := s.Edit(ownerID, in); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if s.Title != "Renamed" || s.Type != TypeMogakko || s.MaxMemberCount != 10 {
		t.Fatalf("edit did not replace fields: %+v", s)
	}
	if len(s.Tags) != 1 || s.Tags[0].Content != "online" {
		t.Fatalf("edit did not replace tags: %+v", s.Tags)
	}
	if s.Status != before {
		t.Fatalf("edit must not touch status: %s -> %s", before, s.Status)
	}
}

func TestRecomputeStatus(t *testing.T) {
	s := newTestStudy(t, uuid.New(), 3)
	if s.Status != StatusOngoing {
		t.Fatalf("expected ONGOING at creation, got %s", s.Status)
	}

	if changed := s.RecomputeStatus(testNow); changed {
		t.Fatalf("expected no change while dates hold")
	}

	past := timePtr(testNow.AddDate(0, 0, -1))
	s.EndDate = past
	if changed := s.RecomputeStatus(testNow); !changed {
		t.Fatalf("expected transition to COMPLETION")
	}
	if s.Status != StatusCompletion {
		t.Fatalf("expected COMPLETION, got %s", s.Status)
	}

	// COMPLETION is terminal even if the dates change back.
	s.EndDate = timePtr(testNow.AddDate(0, 1, 0))
	if changed := s.RecomputeStatus(testNow); changed {
		t.Fatalf("COMPLETION must not be recomputed away")
	}
}
