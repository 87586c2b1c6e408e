package member

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Member is either locally registered (email + password hash) or provisioned
// through GitHub login (github id, no password). Email uniqueness is enforced
// among local accounts only, so the column carries a plain index and the
// service checks before insert.
type Member struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email      *string   `gorm:"index;column:email" json:"email,omitempty"`
	Password   *string   `gorm:"column:password" json:"-"`
	GithubID   *int64    `gorm:"uniqueIndex;column:github_id" json:"-"`
	Username   string    `gorm:"not null;column:username" json:"username"`
	ImageURL   string    `gorm:"column:image_url" json:"image_url"`
	ProfileURL *string   `gorm:"column:profile_url" json:"profile_url,omitempty"`
	Role       Role      `gorm:"not null;default:'USER';column:role" json:"role"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Member) TableName() string { return "member" }

func (m *Member) IsGithubProvisioned() bool {
	return m != nil && m.GithubID != nil
}

// CanManageOwnProfile gates profile edit/delete. GitHub-provisioned accounts
// are overwritten from the provider on every login, so only local accounts
// may mutate their profile here.
func (m *Member) CanManageOwnProfile() bool {
	return m != nil && !m.IsGithubProvisioned()
}
