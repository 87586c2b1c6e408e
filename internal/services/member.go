package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/codingswamp/codingswamp-backend/internal/data/repos/member"
	domain "github.com/codingswamp/codingswamp-backend/internal/domain/member"
	"github.com/codingswamp/codingswamp-backend/internal/platform/apierr"
	"github.com/codingswamp/codingswamp-backend/internal/platform/github"
	"github.com/codingswamp/codingswamp-backend/internal/platform/logger"
)

type SignupRequest struct {
	Email          string
	Password       string
	Username       string
	Avatar         io.Reader
	AvatarFilename string
}

type EditMemberRequest struct {
	Username       string
	ProfileURL     *string
	Avatar         io.Reader
	AvatarFilename string
}

type MemberService interface {
	Signup(ctx context.Context, req SignupRequest) (*domain.Member, error)
	CheckLogin(ctx context.Context, email, rawPassword string) (*domain.Member, error)
	LoginWithGithub(ctx context.Context, code string) (*domain.Member, error)
	SaveOrUpdate(ctx context.Context, profile *github.Profile) (*domain.Member, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error)
	Edit(ctx context.Context, memberID uuid.UUID, req EditMemberRequest) (*domain.Member, error)
	Delete(ctx context.Context, memberID uuid.UUID) error
	DuplicateEmailCheck(ctx context.Context, email string) error
}

type memberService struct {
	db           *gorm.DB
	log          *logger.Logger
	memberRepo   member.MemberRepo
	fileService  FileService
	githubClient github.Client
}

func NewMemberService(
	db *gorm.DB,
	log *logger.Logger,
	memberRepo member.MemberRepo,
	fileService FileService,
	githubClient github.Client,
) MemberService {
	return &memberService{
		db:           db,
		log:          log.With("service", "MemberService"),
		memberRepo:   memberRepo,
		fileService:  fileService,
		githubClient: githubClient,
	}
}

func (ms *memberService) Signup(ctx context.Context, req SignupRequest) (*domain.Member, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if err := ms.DuplicateEmailCheck(ctx, email); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("hash password: %w", err))
	}

	imageURL := ms.fileService.DefaultImageURL()
	if req.Avatar != nil {
		imageURL, err = ms.fileService.StoreImage(ctx, req.Avatar, req.AvatarFilename)
		if err != nil {
			return nil, apierr.Internal(err)
		}
	}

	password := string(hashed)
	m := &domain.Member{
		ID:       uuid.New(),
		Email:    &email,
		Password: &password,
		Username: strings.TrimSpace(req.Username),
		ImageURL: imageURL,
		Role:     domain.RoleUser,
	}
	err = ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, cErr := ms.memberRepo.Create(ctx, tx, m)
		return cErr
	})
	if err != nil {
		return nil, apierr.From(err)
	}
	ms.log.Info("Member signed up", "member_id", m.ID.String())
	return m, nil
}

// CheckLogin distinguishes unknown email from wrong password in the field
// map; both carry the same unauthorized status.
func (ms *memberService) CheckLogin(ctx context.Context, email, rawPassword string) (*domain.Member, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	m, err := ms.memberRepo.GetLocalByEmail(ctx, nil, email)
	if err != nil {
		return nil, apierr.From(err)
	}
	if m == nil {
		return nil, apierr.Unauthorized("no member registered with this email").WithField("email", "not found")
	}
	if m.Password == nil || bcrypt.CompareHashAndPassword([]byte(*m.Password), []byte(rawPassword)) != nil {
		return nil, apierr.Unauthorized("password does not match").WithField("password", "does not match")
	}
	return m, nil
}

func (ms *memberService) LoginWithGithub(ctx context.Context, code string) (*domain.Member, error) {
	accessToken, err := ms.githubClient.ExchangeCode(ctx, code)
	if err != nil {
		return nil, apierr.Unauthorized("github code exchange failed: %v", err)
	}
	profile, err := ms.githubClient.GetProfile(ctx, accessToken)
	if err != nil {
		return nil, apierr.Unauthorized("github profile fetch failed: %v", err)
	}
	return ms.SaveOrUpdate(ctx, profile)
}

// SaveOrUpdate upserts by GitHub id: a returning member gets their
// username, email, avatar and profile URL overwritten from the provider.
func (ms *memberService) SaveOrUpdate(ctx context.Context, profile *github.Profile) (*domain.Member, error) {
	var out *domain.Member
	err := ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, gErr := ms.memberRepo.GetByGithubID(ctx, tx, profile.ID)
		if gErr != nil {
			return gErr
		}
		if existing != nil {
			existing.Username = profile.Login
			existing.ImageURL = profile.AvatarURL
			existing.ProfileURL = &profile.HTMLURL
			if profile.Email != "" {
				email := profile.Email
				existing.Email = &email
			}
			if sErr := ms.memberRepo.Save(ctx, tx, existing); sErr != nil {
				return sErr
			}
			out = existing
			return nil
		}
		githubID := profile.ID
		profileURL := profile.HTMLURL
		m := &domain.Member{
			ID:         uuid.New(),
			GithubID:   &githubID,
			Username:   profile.Login,
			ImageURL:   profile.AvatarURL,
			ProfileURL: &profileURL,
			Role:       domain.RoleUser,
		}
		if profile.Email != "" {
			email := profile.Email
			m.Email = &email
		}
		_, cErr := ms.memberRepo.Create(ctx, tx, m)
		if cErr != nil {
			return cErr
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, apierr.From(err)
	}
	return out, nil
}

func (ms *memberService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	m, err := ms.memberRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, apierr.From(err)
	}
	if m == nil {
		return nil, apierr.NotFound("member %s not found", id)
	}
	return m, nil
}

// Edit is limited to locally registered accounts; GitHub-provisioned
// profiles are overwritten from the provider on every login.
func (ms *memberService) Edit(ctx context.Context, memberID uuid.UUID, req EditMemberRequest) (*domain.Member, error) {
	m, err := ms.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !m.CanManageOwnProfile() {
		return nil, apierr.Forbidden("github-provisioned accounts cannot edit their profile")
	}

	oldImageURL := m.ImageURL
	if req.Avatar != nil {
		newURL, sErr := ms.fileService.StoreImage(ctx, req.Avatar, req.AvatarFilename)
		if sErr != nil {
			return nil, apierr.Internal(sErr)
		}
		m.ImageURL = newURL
	}
	m.Username = strings.TrimSpace(req.Username)
	if req.ProfileURL != nil {
		m.ProfileURL = req.ProfileURL
	}

	err = ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ms.memberRepo.Save(ctx, tx, m)
	})
	if err != nil {
		return nil, apierr.From(err)
	}
	if req.Avatar != nil {
		if dErr := ms.fileService.DeleteImage(ctx, oldImageURL); dErr != nil {
			ms.log.Warn("Failed to delete replaced avatar", "error", dErr)
		}
	}
	return m, nil
}

func (ms *memberService) Delete(ctx context.Context, memberID uuid.UUID) error {
	m, err := ms.GetByID(ctx, memberID)
	if err != nil {
		return err
	}
	if !m.CanManageOwnProfile() {
		return apierr.Forbidden("github-provisioned accounts cannot delete their profile")
	}
	if dErr := ms.fileService.DeleteImage(ctx, m.ImageURL); dErr != nil {
		ms.log.Warn("Failed to delete avatar on account deletion", "error", dErr)
	}
	err = ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ms.memberRepo.Delete(ctx, tx, memberID)
	})
	if err != nil {
		return apierr.From(err)
	}
	ms.log.Info("Member deleted", "member_id", memberID.String())
	return nil
}

func (ms *memberService) DuplicateEmailCheck(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	exists, err := ms.memberRepo.LocalEmailExists(ctx, nil, email)
	if err != nil {
		return apierr.From(err)
	}
	if exists {
		return apierr.Conflict("email already registered").WithField("email", "already in use")
	}
	return nil
}
