package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/apperrors"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/logging"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/middleware"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
)

// respondError writes the status and body for an error returned by the
// lifecycle controller.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	_ = c.Error(err)

	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		logger.Error("Unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal server error"})
		return
	}

	switch appErr.Kind {
	case apperrors.KindAuthRequired:
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: appErr.Message})
	case apperrors.KindNotFound:
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: appErr.Message})
	case apperrors.KindValidation:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: appErr.Message})
	case apperrors.KindConflict:
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   appErr.Message,
			Message: "the record changed while the request was running; reload and try again",
		})
	case apperrors.KindStorage:
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:     "storage unavailable",
			Message:   logging.SanitizeError(err),
			Retryable: true,
		})
	default:
		logger.Error("Unhandled application error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal server error"})
	}
}

func badRequest(c *gin.Context, errMsg string, err error) {
	resp := models.ErrorResponse{Error: errMsg}
	if err != nil {
		resp.Message = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

// currentUser returns the authenticated user or writes a 401.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return uuid.Nil, false
	}
	return userID, true
}

// pathID parses a uuid path parameter or writes a 400.
func pathID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		badRequest(c, "invalid "+param, err)
		return uuid.Nil, false
	}
	return id, true
}

// requestIDs resolves the authenticated user and a uuid path parameter.
func requestIDs(c *gin.Context, param string) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	id, ok := pathID(c, param)
	return userID, id, ok
}

func fileResponses(files []models.FileRecord) []models.FileResponse {
	out := make([]models.FileResponse, len(files))
	for i := range files {
		out[i] = models.NewFileResponse(&files[i])
	}
	return out
}

func projectResponses(projects []models.ProjectHistory) []models.ProjectResponse {
	out := make([]models.ProjectResponse, len(projects))
	for i := range projects {
		summary := projects[i].Summary
		out[i] = models.NewProjectResponse(&projects[i].Project, &summary)
	}
	return out
}
