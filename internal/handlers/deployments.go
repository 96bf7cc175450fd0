package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/services"
)

type DeploymentsHandler struct {
	controller *services.Controller
	logger     *zap.Logger
}

func NewDeploymentsHandler(controller *services.Controller, logger *zap.Logger) *DeploymentsHandler {
	return &DeploymentsHandler{controller: controller, logger: logger}
}

// List godoc
// @Summary     List deployment logs
// @Tags        deployments
// @Produce     json
// @Success     200 {object} models.DeploymentListResponse
// @Router      /deployments [get]
// @Security    Bearer
func (h *DeploymentsHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	logs, err := h.controller.ListDeployments(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := models.DeploymentListResponse{Deployments: make([]models.DeploymentLogResponse, len(logs))}
	for i := range logs {
		resp.Deployments[i] = models.NewDeploymentLogResponse(&logs[i])
	}
	c.JSON(http.StatusOK, resp)
}

// Record godoc
// @Summary     Record a deployment made outside the API
// @Tags        deployments
// @Accept      json
// @Produce     json
// @Param       request body models.RecordDeploymentRequest true "Deployment outcome"
// @Success     201 {object} models.DeploymentLogResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /deployments [post]
// @Security    Bearer
func (h *DeploymentsHandler) Record(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.RecordDeploymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	log, err := h.controller.RecordDeployment(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, models.NewDeploymentLogResponse(log))
}
