package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codingswamp/codingswamp-backend/internal/domain/member"
	"github.com/codingswamp/codingswamp-backend/internal/http/response"
	"github.com/codingswamp/codingswamp-backend/internal/platform/apierr"
	"github.com/codingswamp/codingswamp-backend/internal/services"
)

type AuthHandler struct {
	memberService services.MemberService
	tokenService  services.TokenService
	mailService   services.MailVerificationService
}

func NewAuthHandler(
	memberService services.MemberService,
	tokenService services.TokenService,
	mailService services.MailVerificationService,
) *AuthHandler {
	return &AuthHandler{
		memberService: memberService,
		tokenService:  tokenService,
		mailService:   mailService,
	}
}

// Signup accepts a multipart form so the avatar can ride along with the
// credentials.
func (ah *AuthHandler) Signup(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")
	username := c.PostForm("username")
	if fields := validateSignup(email, password, username); len(fields) > 0 {
		response.RespondAPIError(c, apierr.InvalidRequest(fields))
		return
	}

	req := services.SignupRequest{
		Email:    email,
		Password: password,
		Username: username,
	}
	if fh, err := c.FormFile("avatar"); err == nil && fh != nil {
		f, oErr := fh.Open()
		if oErr != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", oErr)
			return
		}
		defer f.Close()
		req.Avatar = f
		req.AvatarFilename = fh.Filename
	}

	m, err := ah.memberService.Signup(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, m)
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if fields := validateLogin(req.Email, req.Password); len(fields) > 0 {
		response.RespondAPIError(c, apierr.InvalidRequest(fields))
		return
	}
	m, err := ah.memberService.CheckLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	ah.respondWithToken(c, m)
}

func (ah *AuthHandler) GithubLogin(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		response.RespondAPIError(c, apierr.InvalidRequest(map[string]string{"code": "required"}))
		return
	}
	m, err := ah.memberService.LoginWithGithub(c.Request.Context(), req.Code)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	ah.respondWithToken(c, m)
}

func (ah *AuthHandler) DuplicateEmailCheck(c *gin.Context) {
	email := c.Query("email")
	fields := map[string]string{}
	validateEmail(fields, email)
	if len(fields) > 0 {
		response.RespondAPIError(c, apierr.InvalidRequest(fields))
		return
	}
	if err := ah.memberService.DuplicateEmailCheck(c.Request.Context(), email); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"available": true})
}

func (ah *AuthHandler) SendVerificationMail(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	fields := map[string]string{}
	validateEmail(fields, req.Email)
	if len(fields) > 0 {
		response.RespondAPIError(c, apierr.InvalidRequest(fields))
		return
	}
	if err := ah.mailService.SendCode(c.Request.Context(), req.Email); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sent": true})
}

func (ah *AuthHandler) VerifyMailCode(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	fields := map[string]string{}
	validateEmail(fields, req.Email)
	if req.Code == "" {
		fields["code"] = "required"
	}
	if len(fields) > 0 {
		response.RespondAPIError(c, apierr.InvalidRequest(fields))
		return
	}
	if err := ah.mailService.VerifyCode(c.Request.Context(), req.Email, req.Code); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"verified": true})
}

func (ah *AuthHandler) respondWithToken(c *gin.Context, m *member.Member) {
	token, err := ah.tokenService.Issue(m.ID, m.Role)
	if err != nil {
		response.RespondAPIError(c, apierr.Internal(err))
		return
	}
	response.RespondOK(c, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(ah.tokenService.GetValidity().Seconds()),
		"member":       m,
	})
}
