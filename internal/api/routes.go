package api

import (
	"net/http"
	"time"

	"tripeak/training-engine/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	planService service.PlanService,
	workoutService service.WorkoutService,
	schedulerService service.SchedulerService,
) {
	planHandler := NewPlanHandler(planService)
	workoutHandler := NewWorkoutHandler(workoutService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Onboarding / calibration ---
		protected.POST("/onboarding/complete", planHandler.CompleteOnboarding)
		protected.POST("/calibration/results", planHandler.SubmitCalibrationResult)

		// --- Plans ---
		planGroup := protected.Group("/plans")
		{
			planGroup.POST("", planHandler.CreatePlan)
			planGroup.GET("/active", planHandler.GetActivePlan)
		}

		// --- Workouts ---
		workoutGroup := protected.Group("/workouts")
		{
			workoutGroup.GET("", planHandler.ListWorkouts)
			workoutGroup.GET("/:workoutId", workoutHandler.GetWorkout)
			workoutGroup.POST("/:workoutId/complete", workoutHandler.CompleteWorkout)
			workoutGroup.POST("/:workoutId/skip", workoutHandler.SkipWorkout)
		}
	}

	// Manual sweep trigger for operations; the cron schedule is the normal
	// path. Deliberately outside the athlete auth group.
	router.POST("/internal/sweep", func(c *gin.Context) {
		report, err := schedulerService.RunDailySweep(c.Request.Context(), time.Now())
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, "Sweep failed: "+err.Error())
			return
		}
		c.JSON(http.StatusOK, report)
	})
}
