package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/services"
)

// RegisterRoutes mounts every API route on group. Authentication is left to
// the group's middleware.
func RegisterRoutes(api *gin.RouterGroup, controller *services.Controller, logger *zap.Logger) {
	logger = logger.Named("handlers")

	projectsHandler := NewProjectsHandler(controller, logger)
	filesHandler := NewFilesHandler(controller, logger)
	reviewHandler := NewReviewHandler(controller, logger)
	deploymentsHandler := NewDeploymentsHandler(controller, logger)

	// Projects
	api.POST("/projects", projectsHandler.CreateProject)
	api.GET("/projects", projectsHandler.ListProjects)
	api.GET("/projects/:project_id", projectsHandler.GetProject)
	api.PATCH("/projects/:project_id", projectsHandler.RenameProject)
	api.DELETE("/projects/:project_id", projectsHandler.DeleteProject)

	// Project files, conversion and deployment
	api.GET("/projects/:project_id/files", projectsHandler.ListFiles)
	api.POST("/projects/:project_id/files", filesHandler.UploadToProject)
	api.POST("/projects/:project_id/files/manual", filesHandler.AddFile)
	api.POST("/projects/:project_id/convert", filesHandler.ConvertUpload)
	api.POST("/projects/:project_id/deploy", filesHandler.Deploy)

	// Files
	api.POST("/files", filesHandler.Upload)
	api.POST("/files/:file_id/convert", filesHandler.ConvertFile)
	api.POST("/files/:file_id/approve", filesHandler.ApproveFile)
	api.POST("/files/:file_id/review", filesHandler.PullIntoReview)
	api.GET("/files/:file_id/download", filesHandler.Download)
	api.POST("/files/:file_id/archive", filesHandler.Archive)
	api.DELETE("/files/:file_id", filesHandler.DeleteFile)

	// Review queue
	api.GET("/review", reviewHandler.List)
	api.GET("/review/:id", reviewHandler.Get)
	api.PUT("/review/:id", reviewHandler.Edit)
	api.POST("/review/:id/reviewed", reviewHandler.MarkReviewed)
	api.POST("/review/:id/promote", reviewHandler.Promote)
	api.DELETE("/review/:id", reviewHandler.Delete)

	// Deployments and history
	api.GET("/deployments", deploymentsHandler.List)
	api.POST("/deployments", deploymentsHandler.Record)
	api.GET("/history", projectsHandler.ListHistory)
	api.DELETE("/history", projectsHandler.ClearHistory)
}
