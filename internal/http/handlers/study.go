package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	studyrepo "github.com/codingswamp/codingswamp-backend/internal/data/repos/study"
	"github.com/codingswamp/codingswamp-backend/internal/domain/study"
	"github.com/codingswamp/codingswamp-backend/internal/http/response"
	"github.com/codingswamp/codingswamp-backend/internal/platform/apierr"
	"github.com/codingswamp/codingswamp-backend/internal/platform/ctxutil"
	"github.com/codingswamp/codingswamp-backend/internal/services"
)

type StudyHandler struct {
	studyService services.StudyService
}

func NewStudyHandler(studyService services.StudyService) *StudyHandler {
	return &StudyHandler{studyService: studyService}
}

func studyID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return uuid.Nil, false
	}
	return id, true
}

func pageRequest(c *gin.Context) studyrepo.PageRequest {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "0"))
	return studyrepo.PageRequest{Page: page, Size: size}
}

func (sh *StudyHandler) Create(c *gin.Context) {
	var req studyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		response.RespondAPIError(c, apierr.InvalidRequest(fields))
		return
	}

	rd := ctxutil.GetRequestData(c.Request.Context())
	start, end := req.dates()
	s, err := sh.studyService.Create(c.Request.Context(), rd.MemberID, study.CreateInput{
		Title:          req.Title,
		Description:    req.Description,
		Type:           study.Type(req.StudyType),
		Thumbnail:      req.Thumbnail,
		StartDate:      start,
		EndDate:        end,
		MaxMemberCount: req.MaxMemberCount,
		Tags:           req.Tags,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, s)
}

func (sh *StudyHandler) Edit(c *gin.Context) {
	id, ok := studyID(c)
	if !ok {
		return
	}
	var req studyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		response.RespondAPIError(c, apierr.InvalidRequest(fields))
		return
	}

	rd := ctxutil.GetRequestData(c.Request.Context())
	start, end := req.dates()
	err := sh.studyService.Edit(c.Request.Context(), rd.MemberID, id, study.EditInput{
		Title:          req.Title,
		Description:    req.Description,
		Type:           study.Type(req.StudyType),
		Thumbnail:      req.Thumbnail,
		StartDate:      start,
		EndDate:        end,
		MaxMemberCount: req.MaxMemberCount,
		Tags:           req.Tags,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"updated": true})
}

func (sh *StudyHandler) Delete(c *gin.Context) {
	id, ok := studyID(c)
	if !ok {
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	if err := sh.studyService.Delete(c.Request.Context(), rd.MemberID, id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

func (sh *StudyHandler) Detail(c *gin.Context) {
	id, ok := studyID(c)
	if !ok {
		return
	}
	view, err := sh.studyService.GetDetails(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}

func (sh *StudyHandler) List(c *gin.Context) {
	view, err := sh.studyService.GetStudies(c.Request.Context(), pageRequest(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}

func (sh *StudyHandler) Search(c *gin.Context) {
	cond := studyrepo.SearchCondition{
		Title: c.Query("title"),
		Type:  c.Query("study_type"),
		Tag:   c.Query("tag"),
	}
	view, err := sh.studyService.Search(c.Request.Context(), cond, pageRequest(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}

func (sh *StudyHandler) Apply(c *gin.Context) {
	id, ok := studyID(c)
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	if err := sh.studyService.Apply(c.Request.Context(), rd.MemberID, id, req.Reason); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"applied": true})
}

func (sh *StudyHandler) Approve(c *gin.Context) {
	id, ok := studyID(c)
	if !ok {
		return
	}
	applicantID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	if err := sh.studyService.Approve(c.Request.Context(), rd.MemberID, id, applicantID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"approved": true})
}

func (sh *StudyHandler) Withdraw(c *gin.Context) {
	id, ok := studyID(c)
	if !ok {
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	if err := sh.studyService.Withdraw(c.Request.Context(), rd.MemberID, id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"withdrawn": true})
}

func (sh *StudyHandler) Kick(c *gin.Context) {
	id, ok := studyID(c)
	if !ok {
		return
	}
	targetID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	if err := sh.studyService.Kick(c.Request.Context(), rd.MemberID, id, targetID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"kicked": true})
}

func (sh *StudyHandler) CancelApply(c *gin.Context) {
	id, ok := studyID(c)
	if !ok {
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	if err := sh.studyService.CancelApply(c.Request.Context(), rd.MemberID, id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cancelled": true})
}

func (sh *StudyHandler) MyApplies(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	rows, err := sh.studyService.GetMyApplies(c.Request.Context(), rd.MemberID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"studies": rows})
}

func (sh *StudyHandler) MyParticipates(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	rows, err := sh.studyService.GetMyParticipates(c.Request.Context(), rd.MemberID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"studies": rows})
}
