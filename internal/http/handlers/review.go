package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codingswamp/codingswamp-backend/internal/http/response"
	"github.com/codingswamp/codingswamp-backend/internal/platform/apierr"
	"github.com/codingswamp/codingswamp-backend/internal/platform/ctxutil"
	"github.com/codingswamp/codingswamp-backend/internal/services"
)

type ReviewHandler struct {
	reviewService services.ReviewService
}

func NewReviewHandler(reviewService services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (rh *ReviewHandler) Register(c *gin.Context) {
	id, ok := studyID(c)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if fields := validateContent(req.Content); len(fields) > 0 {
		response.RespondAPIError(c, apierr.InvalidRequest(fields))
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	review, err := rh.reviewService.Register(c.Request.Context(), rd.MemberID, id, req.Content)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, review)
}

func (rh *ReviewHandler) ListByStudy(c *gin.Context) {
	id, ok := studyID(c)
	if !ok {
		return
	}
	rows, err := rh.reviewService.ListByStudy(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reviews": rows})
}
