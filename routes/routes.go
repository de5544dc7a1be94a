package routes

import (
	"app-review-api/controllers"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "ok",
				"message": "App Review API is running",
			})
		})

		// Reference data
		v1.GET("/states", controllers.GetStates)

		// Submissions
		submissions := v1.Group("/submissions")
		{
			submissions.GET("", controllers.ListSubmissions)
			submissions.GET("/find", controllers.GetSubmission)
			submissions.PUT("/:id/state", controllers.ChangeSubmissionState)
			submissions.POST("/:id/state/reconcile", controllers.ReconcileSubmissionHistory)
		}

		// Workflow runs
		workflows := v1.Group("/workflows")
		{
			workflows.GET("", controllers.ListWorkflows)
			workflows.PUT("/:instance_id/assign", controllers.AssignWorkflowRun)
		}
	}

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "Route not found"})
	})
}
