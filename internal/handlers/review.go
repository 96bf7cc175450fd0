package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/services"
)

// ReviewHandler serves the review queue of converted files.
type ReviewHandler struct {
	controller *services.Controller
	logger     *zap.Logger
}

func NewReviewHandler(controller *services.Controller, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{controller: controller, logger: logger}
}

// List godoc
// @Summary     List files in review
// @Tags        review
// @Produce     json
// @Param       search query string false "Case-insensitive file name filter"
// @Param       status query string false "unreviewed or reviewed"
// @Success     200 {object} models.UnreviewedListResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /review [get]
// @Security    Bearer
func (h *ReviewHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var query models.UnreviewedQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, "invalid query", err)
		return
	}

	files, err := h.controller.ListUnreviewed(c.Request.Context(), userID, models.UnreviewedFilter{
		Search: query.Search,
		Status: query.Status,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := models.UnreviewedListResponse{Files: make([]models.UnreviewedFileResponse, len(files))}
	for i := range files {
		resp.Files[i] = models.NewUnreviewedFileResponse(&files[i])
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary     Get a file in review
// @Tags        review
// @Produce     json
// @Param       id path string true "Review file ID"
// @Success     200 {object} models.UnreviewedFileResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /review/{id} [get]
// @Security    Bearer
func (h *ReviewHandler) Get(c *gin.Context) {
	userID, id, ok := requestIDs(c, "id")
	if !ok {
		return
	}

	file, err := h.controller.GetUnreviewed(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.NewUnreviewedFileResponse(file))
}

// Edit godoc
// @Summary     Edit the converted code of a file in review
// @Tags        review
// @Accept      json
// @Produce     json
// @Param       id path string true "Review file ID"
// @Param       request body models.EditUnreviewedRequest true "Edited code"
// @Success     200 {object} models.UnreviewedFileResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /review/{id} [put]
// @Security    Bearer
func (h *ReviewHandler) Edit(c *gin.Context) {
	userID, id, ok := requestIDs(c, "id")
	if !ok {
		return
	}

	var req models.EditUnreviewedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	file, err := h.controller.EditUnreviewed(c.Request.Context(), userID, id, req.ConvertedCode)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.NewUnreviewedFileResponse(file))
}

// MarkReviewed godoc
// @Summary     Mark a file in review as reviewed
// @Description Stores the final converted code. original_code is optional and replaces the stored source when set.
// @Tags        review
// @Accept      json
// @Produce     json
// @Param       id path string true "Review file ID"
// @Param       request body models.MarkReviewedRequest true "Final code"
// @Success     200 {object} models.UnreviewedFileResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /review/{id}/reviewed [post]
// @Security    Bearer
func (h *ReviewHandler) MarkReviewed(c *gin.Context) {
	userID, id, ok := requestIDs(c, "id")
	if !ok {
		return
	}

	var req models.MarkReviewedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	file, err := h.controller.MarkReviewed(c.Request.Context(), userID, id, req.ConvertedCode, req.OriginalCode)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.NewUnreviewedFileResponse(file))
}

// Promote godoc
// @Summary     Move a file out of review into a project
// @Description Creates a file record from the review copy and removes it from the queue. Reviewed
// @Description files land as success, unreviewed ones as pending_review. Without project_id the
// @Description file goes back to its source project, or the active project.
// @Tags        review
// @Accept      json
// @Produce     json
// @Param       id path string true "Review file ID"
// @Param       request body models.PromoteRequest false "Target project"
// @Success     201 {object} models.FileResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /review/{id}/promote [post]
// @Security    Bearer
func (h *ReviewHandler) Promote(c *gin.Context) {
	userID, id, ok := requestIDs(c, "id")
	if !ok {
		return
	}

	var req models.PromoteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body", err)
			return
		}
	}

	file, err := h.controller.PromoteReviewed(c.Request.Context(), userID, id, req.ProjectID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, models.NewFileResponse(file))
}

// Delete godoc
// @Summary     Remove a file from review
// @Tags        review
// @Param       id path string true "Review file ID"
// @Success     204
// @Failure     404 {object} models.ErrorResponse
// @Router      /review/{id} [delete]
// @Security    Bearer
func (h *ReviewHandler) Delete(c *gin.Context) {
	userID, id, ok := requestIDs(c, "id")
	if !ok {
		return
	}

	if err := h.controller.DeleteUnreviewed(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
