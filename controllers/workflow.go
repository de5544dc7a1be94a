package controllers

import (
	"errors"
	"net/http"

	"app-review-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListWorkflows returns workflow runs under one of the three views.
func ListWorkflows(c *gin.Context) {
	filter := services.WorkflowFilter(c.DefaultQuery("filter", string(services.WorkflowFilterLatest)))
	switch filter {
	case services.WorkflowFilterLatest, services.WorkflowFilterCompleted, services.WorkflowFilterTested:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "filter must be 'latest', 'completed' or 'tested'"})
		return
	}

	runs, err := services.ListWorkflowRuns(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list workflow runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workflows": runs,
		"total":     len(runs),
	})
}

type assignWorkflowRequest struct {
	AppID      int    `json:"app_id" binding:"required"`
	AppVersion string `json:"app_version" binding:"required"`
	AssignedTo string `json:"assigned_to" binding:"required"`
}

// AssignWorkflowRun records the reviewer responsible for a run.
func AssignWorkflowRun(c *gin.Context) {
	instanceID := c.Param("instance_id")

	var req assignWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "app_id, app_version and assigned_to are required"})
		return
	}

	err := services.AssignWorkflow(instanceID, req.AppID, req.AppVersion, req.AssignedTo)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Workflow run assigned"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Workflow run not found"})
	case errors.Is(err, services.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign workflow run"})
	}
}
