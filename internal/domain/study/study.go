package study

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/codingswamp/codingswamp-backend/internal/platform/apierr"
)

type Type string

const (
	TypeStudy   Type = "STUDY"
	TypeMogakko Type = "MOGAKKO"
)

type Status string

const (
	StatusPreparing  Status = "PREPARING"
	StatusOngoing    Status = "ONGOING"
	StatusCompletion Status = "COMPLETION"
)

// Study is the aggregate root. Every membership invariant (capacity,
// participant/applicant exclusivity, owner authority, member-count
// consistency) is enforced by the methods below; the storage layer is only
// asked to persist what they produce.
type Study struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title       string     `gorm:"not null;column:title" json:"title"`
	Description string     `gorm:"not null;column:description" json:"description"`
	Type        Type       `gorm:"not null;column:study_type" json:"study_type"`
	Thumbnail   string     `gorm:"column:thumbnail" json:"thumbnail"`
	Status      Status     `gorm:"not null;column:status" json:"status"`
	StartDate   time.Time  `gorm:"not null;column:start_date" json:"start_date"`
	EndDate     *time.Time `gorm:"column:end_date" json:"end_date,omitempty"`

	OwnerID            uuid.UUID `gorm:"type:uuid;not null;index;column:owner_id" json:"owner_id"`
	CurrentMemberCount int       `gorm:"not null;column:current_member_count" json:"current_member_count"`
	MaxMemberCount     int       `gorm:"not null;column:max_member_count" json:"max_member_count"`

	Participants []Participant `gorm:"foreignKey:StudyID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	Applicants   []Applicant   `gorm:"foreignKey:StudyID;constraint:OnDelete:CASCADE" json:"applicants,omitempty"`
	Tags         []Tag         `gorm:"foreignKey:StudyID;constraint:OnDelete:CASCADE" json:"tags,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Study) TableName() string { return "study" }

type Participant struct {
	ID                uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudyID           uuid.UUID `gorm:"type:uuid;not null;index;column:study_id" json:"study_id"`
	MemberID          uuid.UUID `gorm:"type:uuid;not null;index;column:member_id" json:"member_id"`
	ParticipationDate time.Time `gorm:"not null;column:participation_date" json:"participation_date"`
}

func (Participant) TableName() string { return "study_participant" }

type Applicant struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudyID         uuid.UUID `gorm:"type:uuid;not null;index;column:study_id" json:"study_id"`
	MemberID        uuid.UUID `gorm:"type:uuid;not null;index;column:member_id" json:"member_id"`
	ReasonForApply  string    `gorm:"column:reason_for_apply" json:"reason_for_apply"`
	ApplicationDate time.Time `gorm:"not null;column:application_date" json:"application_date"`
}

func (Applicant) TableName() string { return "study_applicant" }

// Tags keep request order and may repeat; Position preserves the order
// across reloads.
type Tag struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudyID  uuid.UUID `gorm:"type:uuid;not null;index;column:study_id" json:"study_id"`
	Position int       `gorm:"not null;column:position" json:"position"`
	Content  string    `gorm:"not null;column:content" json:"content"`
}

func (Tag) TableName() string { return "study_tag" }

// StatusFor applies the date rule used at creation and by the daily
// recompute: a past end date wins, a future start date means preparing,
// anything else is ongoing.
func StatusFor(startDate time.Time, endDate *time.Time, now time.Time) Status {
	if endDate != nil && endDate.Before(now) {
		return StatusCompletion
	}
	if startDate.After(now) {
		return StatusPreparing
	}
	return StatusOngoing
}

type CreateInput struct {
	Title          string
	Description    string
	Type           Type
	Thumbnail      string
	StartDate      time.Time
	EndDate        *time.Time
	MaxMemberCount int
	Tags           []string
}

// New builds a study with the owner enrolled as its only participant.
func New(ownerID uuid.UUID, in CreateInput, now time.Time) *Study {
	s := &Study{
		ID:                 uuid.New(),
		Title:              in.Title,
		Description:        in.Description,
		Type:               in.Type,
		Thumbnail:          in.Thumbnail,
		Status:             StatusFor(in.StartDate, in.EndDate, now),
		StartDate:          in.StartDate,
		EndDate:            in.EndDate,
		OwnerID:            ownerID,
		CurrentMemberCount: 1,
		MaxMemberCount:     in.MaxMemberCount,
	}
	s.Participants = []Participant{{
		ID:                uuid.New(),
		StudyID:           s.ID,
		MemberID:          ownerID,
		ParticipationDate: now,
	}}
	for i, content := range in.Tags {
		s.Tags = append(s.Tags, Tag{
			ID:       uuid.New(),
			StudyID:  s.ID,
			Position: i,
			Content:  content,
		})
	}
	return s
}

func (s *Study) IsOwner(memberID uuid.UUID) bool {
	return s.OwnerID == memberID
}

func (s *Study) IsFull() bool {
	return len(s.Participants) >= s.MaxMemberCount
}

func (s *Study) HasParticipant(memberID uuid.UUID) bool {
	for _, p := range s.Participants {
		if p.MemberID == memberID {
			return true
		}
	}
	return false
}

func (s *Study) HasApplicant(memberID uuid.UUID) bool {
	for _, a := range s.Applicants {
		if a.MemberID == memberID {
			return true
		}
	}
	return false
}

// Apply records a pending application.
func (s *Study) Apply(memberID uuid.UUID, reason string, now time.Time) error {
	if s.IsFull() {
		return apierr.Conflict("study %s is already at max capacity", s.ID)
	}
	if s.HasParticipant(memberID) {
		return apierr.Conflict("member %s already participates in study %s", memberID, s.ID)
	}
	if s.HasApplicant(memberID) {
		return apierr.Conflict("member %s already applied to study %s", memberID, s.ID)
	}
	s.Applicants = append(s.Applicants, Applicant{
		ID:              uuid.New(),
		StudyID:         s.ID,
		MemberID:        memberID,
		ReasonForApply:  reason,
		ApplicationDate: now,
	})
	return nil
}

// Approve moves a pending applicant into the participant set.
func (s *Study) Approve(callerID, applicantMemberID uuid.UUID, now time.Time) error {
	if !s.IsOwner(callerID) {
		return apierr.Forbidden("member %s is not the owner of study %s", callerID, s.ID)
	}
	if s.IsFull() {
		return apierr.Conflict("study %s is already at max capacity", s.ID)
	}
	idx := -1
	for i, a := range s.Applicants {
		if a.MemberID == applicantMemberID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apierr.NotFound("member %s has no pending application for study %s", applicantMemberID, s.ID)
	}
	s.Applicants = append(s.Applicants[:idx], s.Applicants[idx+1:]...)
	s.Participants = append(s.Participants, Participant{
		ID:                uuid.New(),
		StudyID:           s.ID,
		MemberID:          applicantMemberID,
		ParticipationDate: now,
	})
	s.CurrentMemberCount = len(s.Participants)
	return nil
}

// Withdraw removes the caller's own participation. The owner cannot
// withdraw: a study must never go ownerless, deleting the study is the
// owner's exit.
func (s *Study) Withdraw(memberID uuid.UUID) error {
	if s.IsOwner(memberID) {
		return apierr.Forbidden("owner cannot withdraw from study %s", s.ID)
	}
	return s.removeParticipant(memberID)
}

// Kick removes a participant on the owner's authority.
func (s *Study) Kick(callerID, targetMemberID uuid.UUID) error {
	if !s.IsOwner(callerID) {
		return apierr.Forbidden("member %s is not the owner of study %s", callerID, s.ID)
	}
	return s.removeParticipant(targetMemberID)
}

func (s *Study) removeParticipant(memberID uuid.UUID) error {
	for i, p := range s.Participants {
		if p.MemberID == memberID {
			s.Participants = append(s.Participants[:i], s.Participants[i+1:]...)
			s.CurrentMemberCount = len(s.Participants)
			return nil
		}
	}
	return apierr.NotFound("member %s does not participate in study %s", memberID, s.ID)
}

// CancelApply removes the caller's own pending application.
func (s *Study) CancelApply(memberID uuid.UUID) error {
	for i, a := range s.Applicants {
		if a.MemberID == memberID {
			s.Applicants = append(s.Applicants[:i], s.Applicants[i+1:]...)
			return nil
		}
	}
	return apierr.NotFound("member %s has no pending application for study %s", memberID, s.ID)
}

type EditInput struct {
	Title          string
	Description    string
	Type           Type
	Thumbnail      string
	StartDate      time.Time
	EndDate        *time.Time
	MaxMemberCount int
	Tags           []string
}

// Edit replaces the descriptive fields in place. Status is intentionally
// untouched: only creation and the daily recompute set it.
func (s *Study) Edit(callerID uuid.UUID, in EditInput) error {
	if !s.IsOwner(callerID) {
		return apierr.Forbidden("member %s is not the owner of study %s", callerID, s.ID)
	}
	s.Title = in.Title
	s.Description = in.Description
	s.Type = in.Type
	s.Thumbnail = in.Thumbnail
	s.StartDate = in.StartDate
	s.EndDate = in.EndDate
	s.MaxMemberCount = in.MaxMemberCount
	s.Tags = s.Tags[:0]
	for i, content := range in.Tags {
		s.Tags = append(s.Tags, Tag{
			ID:       uuid.New(),
			StudyID:  s.ID,
			Position: i,
			Content:  content,
		})
	}
	return nil
}

// RecomputeStatus reapplies the date rule and reports whether the status
// changed. COMPLETION is terminal.
func (s *Study) RecomputeStatus(now time.Time) bool {
	if s.Status == StatusCompletion {
		return false
	}
	next := StatusFor(s.StartDate, s.EndDate, now)
	if next == s.Status {
		return false
	}
	s.Status = next
	return true
}
