package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"app-review-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetSubmission finds a single submission by nickname and version.
func GetSubmission(c *gin.Context) {
	nickName := c.Query("nickname")
	version := c.Query("version")
	if nickName == "" || version == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nickname and version are required"})
		return
	}

	submission, err := services.FindSubmission(nickName, version)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load submission"})
		return
	}
	if submission == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submission":       submission,
		"turn_around_days": submission.TurnAroundTime(),
	})
}

// ListSubmissions returns submissions filtered by pipeline state.
func ListSubmissions(c *gin.Context) {
	filter := services.StateFilter(c.DefaultQuery("state", string(services.StateFilterTesting)))
	if filter != services.StateFilterTesting && filter != services.StateFilterPendingReview {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state must be 'testing' or 'pending-review'"})
		return
	}

	submissions, err := services.ListSubmissionsInState(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list submissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": submissions,
		"total":       len(submissions),
	})
}

type changeStateRequest struct {
	NewStateID    string `json:"new_state_id" binding:"required"`
	OldStateID    string `json:"old_state_id" binding:"required"`
	RecordHistory *bool  `json:"record_history"`
}

// ChangeSubmissionState moves a submission to a new canonical state.
func ChangeSubmissionState(c *gin.Context) {
	submissionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	var req changeStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "new_state_id and old_state_id are required"})
		return
	}
	recordHistory := true
	if req.RecordHistory != nil {
		recordHistory = *req.RecordHistory
	}

	err = services.ChangeState(submissionID, req.NewStateID, req.OldStateID, recordHistory)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Submission state updated"})
	case errors.Is(err, services.ErrUnknownState):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
	case errors.Is(err, services.ErrHistoryWriteFailed):
		// Partially applied: the state landed, the audit row did not. The
		// caller should hit the reconcile endpoint rather than retry the change.
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":            "State updated but history write failed",
			"reconcile":        true,
			"state_applied":    true,
			"history_recorded": false,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update submission state"})
	}
}

type reconcileHistoryRequest struct {
	NewStateID string `json:"new_state_id" binding:"required"`
	OldStateID string `json:"old_state_id" binding:"required"`
}

// ReconcileSubmissionHistory re-appends the audit row for a state change
// whose history write failed.
func ReconcileSubmissionHistory(c *gin.Context) {
	submissionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	var req reconcileHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "new_state_id and old_state_id are required"})
		return
	}

	err = services.AppendMissingHistory(submissionID, req.NewStateID, req.OldStateID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Audit history reconciled"})
	case errors.Is(err, services.ErrUnknownState):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reconcile audit history"})
	}
}

// GetStates returns the canonical state list.
func GetStates(c *gin.Context) {
	states, err := services.GetStates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load states"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"states": states})
}
