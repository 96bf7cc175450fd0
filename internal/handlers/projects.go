package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/services"
)

type ProjectsHandler struct {
	controller *services.Controller
	logger     *zap.Logger
}

func NewProjectsHandler(controller *services.Controller, logger *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{controller: controller, logger: logger}
}

// CreateProject godoc
// @Summary     Start a migration project
// @Description Creates a project. Without a name one is generated from the current time.
// @Tags        projects
// @Accept      json
// @Produce     json
// @Param       request body models.CreateProjectRequest false "Project name"
// @Success     201 {object} models.ProjectResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /projects [post]
// @Security    Bearer
func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CreateProjectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body", err)
			return
		}
	}

	project, err := h.controller.StartProject(c.Request.Context(), userID, req.ProjectName)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, models.NewProjectResponse(project, &models.ProjectSummary{}))
}

// ListProjects godoc
// @Summary     List projects
// @Tags        projects
// @Produce     json
// @Success     200 {object} models.ProjectListResponse
// @Router      /projects [get]
// @Security    Bearer
func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	projects, err := h.controller.ListProjects(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.ProjectListResponse{Projects: projectResponses(projects)})
}

// GetProject godoc
// @Summary     Get a project with its file summary
// @Tags        projects
// @Produce     json
// @Param       project_id path string true "Project ID"
// @Success     200 {object} models.ProjectResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id} [get]
// @Security    Bearer
func (h *ProjectsHandler) GetProject(c *gin.Context) {
	userID, projectID, ok := requestIDs(c, "project_id")
	if !ok {
		return
	}

	project, err := h.controller.GetProject(c.Request.Context(), userID, projectID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.NewProjectResponse(&project.Project, &project.Summary))
}

// RenameProject godoc
// @Summary     Rename a project
// @Tags        projects
// @Accept      json
// @Produce     json
// @Param       project_id path string true "Project ID"
// @Param       request body models.RenameProjectRequest true "New name"
// @Success     200 {object} models.ProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id} [patch]
// @Security    Bearer
func (h *ProjectsHandler) RenameProject(c *gin.Context) {
	userID, projectID, ok := requestIDs(c, "project_id")
	if !ok {
		return
	}

	var req models.RenameProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	project, err := h.controller.RenameProject(c.Request.Context(), userID, projectID, req.ProjectName)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.NewProjectResponse(project, nil))
}

// DeleteProject godoc
// @Summary     Delete a project and all of its files
// @Tags        projects
// @Param       project_id path string true "Project ID"
// @Success     204
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id} [delete]
// @Security    Bearer
func (h *ProjectsHandler) DeleteProject(c *gin.Context) {
	userID, projectID, ok := requestIDs(c, "project_id")
	if !ok {
		return
	}

	if err := h.controller.DeleteProject(c.Request.Context(), userID, projectID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListFiles godoc
// @Summary     List a project's files
// @Description Repeated uploads of the same file name are collapsed to one entry, preferring a successful conversion.
// @Tags        files
// @Produce     json
// @Param       project_id path string true "Project ID"
// @Success     200 {object} models.FilesResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/files [get]
// @Security    Bearer
func (h *ProjectsHandler) ListFiles(c *gin.Context) {
	userID, projectID, ok := requestIDs(c, "project_id")
	if !ok {
		return
	}

	files, err := h.controller.ListFilesForProject(c.Request.Context(), userID, projectID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.FilesResponse{Files: fileResponses(files)})
}

// ListHistory godoc
// @Summary     Migration history
// @Description Projects that have at least one converted file, newest first.
// @Tags        history
// @Produce     json
// @Success     200 {object} models.ProjectListResponse
// @Router      /history [get]
// @Security    Bearer
func (h *ProjectsHandler) ListHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	history, err := h.controller.ListHistory(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.ProjectListResponse{Projects: projectResponses(history)})
}

// ClearHistory godoc
// @Summary     Clear migration history
// @Description Deletes all projects, file records and deployment logs of the user. Files in review are kept.
// @Tags        history
// @Success     204
// @Router      /history [delete]
// @Security    Bearer
func (h *ProjectsHandler) ClearHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.controller.ClearAllHistory(c.Request.Context(), userID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
