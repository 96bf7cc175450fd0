package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/services"
)

// maxUploadMemory is the multipart memory limit before parts spill to disk.
const maxUploadMemory = 32 << 20

type FilesHandler struct {
	controller *services.Controller
	logger     *zap.Logger
}

func NewFilesHandler(controller *services.Controller, logger *zap.Logger) *FilesHandler {
	return &FilesHandler{controller: controller, logger: logger}
}

// UploadToProject godoc
// @Summary     Upload source files into a project
// @Description Accepts multipart/form-data with one or more "files" parts, or a JSON body
// @Description with a "files" array. For folder uploads send one "file_paths" value per file
// @Description holding its path relative to the folder root.
// @Description
// @Description Files with an unsupported extension are listed under "rejected" and are not stored.
// @Tags        files
// @Accept      multipart/form-data
// @Accept      json
// @Produce     json
// @Param       project_id path string true "Project ID"
// @Param       files formData file true "SQL source files (multiple allowed)"
// @Param       file_paths formData string false "Relative path of each file"
// @Success     201 {object} models.UploadResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/files [post]
// @Security    Bearer
func (h *FilesHandler) UploadToProject(c *gin.Context) {
	userID, projectID, ok := requestIDs(c, "project_id")
	if !ok {
		return
	}
	h.upload(c, userID, &projectID)
}

// Upload godoc
// @Summary     Upload source files into the active project
// @Description Same as the project upload, using the most recent project or creating one.
// @Tags        files
// @Accept      multipart/form-data
// @Accept      json
// @Produce     json
// @Param       files formData file true "SQL source files (multiple allowed)"
// @Param       file_paths formData string false "Relative path of each file"
// @Success     201 {object} models.UploadResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /files [post]
// @Security    Bearer
func (h *FilesHandler) Upload(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	h.upload(c, userID, nil)
}

func (h *FilesHandler) upload(c *gin.Context, userID uuid.UUID, projectID *uuid.UUID) {
	var (
		inputs []models.FileInput
		err    error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		inputs, err = readMultipartFiles(c)
		if err != nil {
			badRequest(c, "failed to parse multipart form", err)
			return
		}
	} else {
		var req models.UploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body", err)
			return
		}
		inputs = req.Files
	}

	result, err := h.controller.UploadFiles(c.Request.Context(), userID, projectID, inputs)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	status := http.StatusCreated
	if len(result.Files) == 0 {
		status = http.StatusOK
	}
	c.JSON(status, models.UploadResponse{
		ProjectID: result.Project.ID.String(),
		Files:     fileResponses(result.Files),
		Rejected:  result.Rejected,
		Failed:    result.Failed,
	})
}

// readMultipartFiles reads every "files" part as text. "file_paths" values,
// when present, must line up with the files.
func readMultipartFiles(c *gin.Context) ([]models.FileInput, error) {
	if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, err
	}
	form := c.Request.MultipartForm
	if form == nil {
		return nil, errors.New("multipart form is nil")
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return nil, errors.New("no files provided")
	}
	paths := form.Value["file_paths"]
	if len(paths) > 0 && len(paths) != len(headers) {
		return nil, fmt.Errorf("file_paths has %d entries but %d files were sent", len(paths), len(headers))
	}

	inputs := make([]models.FileInput, 0, len(headers))
	for i, fh := range headers {
		content, err := readPart(fh)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		in := models.FileInput{FileName: fh.Filename, Content: content}
		if len(paths) > 0 {
			in.FilePath = paths[i]
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func readPart(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// AddFile godoc
// @Summary     Add a pasted file to a project
// @Tags        files
// @Accept      json
// @Produce     json
// @Param       project_id path string true "Project ID"
// @Param       request body models.FileInput true "File name and content"
// @Success     201 {object} models.FileResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/files/manual [post]
// @Security    Bearer
func (h *FilesHandler) AddFile(c *gin.Context) {
	userID, projectID, ok := requestIDs(c, "project_id")
	if !ok {
		return
	}

	var req models.FileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	file, err := h.controller.AddFile(c.Request.Context(), userID, projectID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, models.NewFileResponse(file))
}

// ConvertUpload godoc
// @Summary     Convert a named file of a project
// @Description Converts the given content. A pending file with the same name (case-insensitive)
// @Description is updated in place and its stored content is used when no content is sent.
// @Description A failed conversion is returned with status 200 and conversion_status "failed".
// @Tags        conversion
// @Accept      json
// @Produce     json
// @Param       project_id path string true "Project ID"
// @Param       request body models.FileInput true "File name and content"
// @Success     200 {object} models.FileResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/convert [post]
// @Security    Bearer
func (h *FilesHandler) ConvertUpload(c *gin.Context) {
	userID, projectID, ok := requestIDs(c, "project_id")
	if !ok {
		return
	}

	var req models.FileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	file, err := h.controller.ConvertUpload(c.Request.Context(), userID, projectID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.NewFileResponse(file))
}
