package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codingswamp/codingswamp-backend/internal/http/response"
	"github.com/codingswamp/codingswamp-backend/internal/platform/apierr"
	"github.com/codingswamp/codingswamp-backend/internal/platform/ctxutil"
	"github.com/codingswamp/codingswamp-backend/internal/services"
)

type MemberHandler struct {
	memberService services.MemberService
}

func NewMemberHandler(memberService services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

func (mh *MemberHandler) GetMe(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	m, err := mh.memberService.GetByID(c.Request.Context(), rd.MemberID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, m)
}

// Edit takes a multipart form like signup so a replacement avatar can be
// included.
func (mh *MemberHandler) Edit(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())

	username := c.PostForm("username")
	fields := map[string]string{}
	validateUsername(fields, username)
	if len(fields) > 0 {
		response.RespondAPIError(c, apierr.InvalidRequest(fields))
		return
	}

	req := services.EditMemberRequest{Username: username}
	if profileURL, ok := c.GetPostForm("profile_url"); ok {
		req.ProfileURL = &profileURL
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

	m, err := mh.memberService.Edit(c.Request.Context(), rd.MemberID, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, m)
}

func (mh *MemberHandler) Delete(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if err := mh.memberService.Delete(c.Request.Context(), rd.MemberID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}
