package api

import (
	"net/http"

	"tripeak/training-engine/internal/domain"
	"tripeak/training-engine/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkoutHandler struct {
	workoutService service.WorkoutService
}

func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- DTOs ---

type CompleteWorkoutRequest struct {
	DurationSeconds int              `json:"durationSeconds" binding:"required"`
	DistanceMeters  float64          `json:"distanceMeters"`
	AvgHeartRate    int              `json:"avgHeartRate"`
	Source          string           `json:"source"`
	Feedback        *FeedbackRequest `json:"feedback"`
}

type FeedbackRequest struct {
	Rating   string `json:"rating" binding:"required"`
	RPEScore int    `json:"rpeScore"`
}

type SkipWorkoutRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func workoutIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("workoutId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// --- Handlers ---

// GetWorkout returns one workout of the authenticated athlete.
func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify athlete from token.")
		return
	}
	workoutID, ok := workoutIDParam(c)
	if !ok {
		return
	}

	workout, err := h.workoutService.GetWorkout(c.Request.Context(), userID, workoutID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

// CompleteWorkout records a finished session with its actuals and optional
// feedback.
func (h *WorkoutHandler) CompleteWorkout(c *gin.Context) {
	var req CompleteWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify athlete from token.")
		return
	}
	workoutID, ok := workoutIDParam(c)
	if !ok {
		return
	}

	input := service.CompletionInput{
		DurationSeconds: req.DurationSeconds,
		DistanceMeters:  req.DistanceMeters,
		AvgHeartRate:    req.AvgHeartRate,
		Source:          req.Source,
	}
	if req.Feedback != nil {
		input.Rating = domain.FeedbackRating(req.Feedback.Rating)
		input.RPEScore = req.Feedback.RPEScore
	}

	workout, err := h.workoutService.CompleteWorkout(c.Request.Context(), userID, workoutID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

// SkipWorkout marks a session as skipped with a declared reason.
func (h *WorkoutHandler) SkipWorkout(c *gin.Context) {
	var req SkipWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify athlete from token.")
		return
	}
	workoutID, ok := workoutIDParam(c)
	if !ok {
		return
	}

	workout, err := h.workoutService.SkipWorkout(c.Request.Context(), userID, workoutID, domain.SkipReason(req.Reason))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}
