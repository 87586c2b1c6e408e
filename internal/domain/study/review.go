package study

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Review struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudyID  uuid.UUID `gorm:"type:uuid;not null;index;column:study_id" json:"study_id"`
	MemberID uuid.UUID `gorm:"type:uuid;not null;index;column:member_id" json:"member_id"`
	Content  string    `gorm:"not null;column:content" json:"content"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Review) TableName() string { return "study_review" }
