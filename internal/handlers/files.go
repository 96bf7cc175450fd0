package handlers

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
)

// ConvertFile godoc
// @Summary     Convert a stored file
// @Description Runs the converter on the file's original content. Retrying a failed file is the same call.
// @Description Conversion failures are recorded on the file and returned with status 200.
// @Tags        conversion
// @Produce     json
// @Param       file_id path string true "File ID"
// @Success     200 {object} models.FileResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /files/{file_id}/convert [post]
// @Security    Bearer
func (h *FilesHandler) ConvertFile(c *gin.Context) {
	userID, fileID, ok := requestIDs(c, "file_id")
	if !ok {
		return
	}

	file, err := h.controller.ConvertFile(c.Request.Context(), userID, fileID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.NewFileResponse(file))
}

// ApproveFile godoc
// @Summary     Approve a file pending review
// @Tags        conversion
// @Produce     json
// @Param       file_id path string true "File ID"
// @Success     200 {object} models.FileResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /files/{file_id}/approve [post]
// @Security    Bearer
func (h *FilesHandler) ApproveFile(c *gin.Context) {
	userID, fileID, ok := requestIDs(c, "file_id")
	if !ok {
		return
	}

	file, err := h.controller.ApproveFile(c.Request.Context(), userID, fileID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.NewFileResponse(file))
}

// PullIntoReview godoc
// @Summary     Copy a converted file into the review queue
// @Tags        review
// @Produce     json
// @Param       file_id path string true "File ID"
// @Success     201 {object} models.UnreviewedFileResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /files/{file_id}/review [post]
// @Security    Bearer
func (h *FilesHandler) PullIntoReview(c *gin.Context) {
	userID, fileID, ok := requestIDs(c, "file_id")
	if !ok {
		return
	}

	unreviewed, err := h.controller.PullIntoReview(c.Request.Context(), userID, fileID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, models.NewUnreviewedFileResponse(unreviewed))
}

// Download godoc
// @Summary     Download a file
// @Description Returns the converted SQL, or the original source when the file has not been converted.
// @Tags        files
// @Produce     plain
// @Param       file_id path string true "File ID"
// @Success     200 {string} string
// @Failure     404 {object} models.ErrorResponse
// @Router      /files/{file_id}/download [get]
// @Security    Bearer
func (h *FilesHandler) Download(c *gin.Context) {
	userID, fileID, ok := requestIDs(c, "file_id")
	if !ok {
		return
	}

	name, content, err := h.controller.ExportFile(c.Request.Context(), userID, fileID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(content))
}

// Archive godoc
// @Summary     Archive a file export to storage
// @Description Uploads the exported text to the storage bucket and returns its public URL.
// @Tags        files
// @Produce     json
// @Param       file_id path string true "File ID"
// @Success     200 {object} models.ExportResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     503 {object} models.ErrorResponse
// @Router      /files/{file_id}/archive [post]
// @Security    Bearer
func (h *FilesHandler) Archive(c *gin.Context) {
	userID, fileID, ok := requestIDs(c, "file_id")
	if !ok {
		return
	}

	export, err := h.controller.ArchiveExport(c.Request.Context(), userID, fileID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, export)
}

// DeleteFile godoc
// @Summary     Delete a file
// @Tags        files
// @Param       file_id path string true "File ID"
// @Success     204
// @Failure     404 {object} models.ErrorResponse
// @Router      /files/{file_id} [delete]
// @Security    Bearer
func (h *FilesHandler) DeleteFile(c *gin.Context) {
	userID, fileID, ok := requestIDs(c, "file_id")
	if !ok {
		return
	}

	if err := h.controller.DeleteFile(c.Request.Context(), userID, fileID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Deploy godoc
// @Summary     Deploy converted files
// @Description Runs the converted SQL of the selected files against the deployment target in one
// @Description transaction. A rejected deployment is still logged and returned with status 200;
// @Description check deployment.status.
// @Tags        deployments
// @Accept      json
// @Produce     json
// @Param       project_id path string true "Project ID"
// @Param       request body models.DeployRequest true "Files to deploy"
// @Success     200 {object} models.DeployResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/deploy [post]
// @Security    Bearer
func (h *FilesHandler) Deploy(c *gin.Context) {
	userID, projectID, ok := requestIDs(c, "project_id")
	if !ok {
		return
	}

	var req models.DeployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	result, err := h.controller.DeployFiles(c.Request.Context(), userID, projectID, req.FileIDs)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.DeployResponse{
		Deployment: models.NewDeploymentLogResponse(result.Log),
		Files:      fileResponses(result.Files),
	})
}
