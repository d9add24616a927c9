package api

import (
	"net/http"
	"time"

	"tripeak/training-engine/internal/domain"
	"tripeak/training-engine/internal/service"

	"github.com/gin-gonic/gin"
)

type PlanHandler struct {
	planService service.PlanService
}

func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- DTOs ---

type CreatePlanRequest struct {
	RaceDate   *time.Time `json:"raceDate"`
	TotalWeeks int        `json:"totalWeeks"`
}

type CompleteOnboardingRequest struct {
	Method     string                   `json:"method" binding:"required"`
	Biometrics *ManualBiometricsRequest `json:"biometrics"`
}

type ManualBiometricsRequest struct {
	CriticalSwimSpeed        float64 `json:"criticalSwimSpeed"`
	FunctionalThresholdPower int     `json:"functionalThresholdPower"`
	ThresholdRunPace         int     `json:"thresholdRunPace"`
	MaxHeartRate             int     `json:"maxHeartRate"`
	RestingHeartRate         int     `json:"restingHeartRate"`
}

type CalibrationResultRequest struct {
	TestType string  `json:"testType" binding:"required"`
	Value    float64 `json:"value" binding:"required"`
}

// --- Handlers ---

// CreatePlan generates a full training plan for the authenticated athlete,
// archiving any prior active plan.
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify athlete from token.")
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), userID, req.RaceDate, req.TotalWeeks)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapPlanToResponse(plan))
}

// GetActivePlan returns the athlete's current active plan.
func (h *PlanHandler) GetActivePlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify athlete from token.")
		return
	}

	plan, err := h.planService.GetActivePlan(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// ListWorkouts returns the planned workouts of the active plan inside a date
// window. Defaults to the next 7 days.
func (h *PlanHandler) ListWorkouts(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify athlete from token.")
		return
	}

	from := time.Now()
	to := from.AddDate(0, 0, 7)
	if v := c.Query("from"); v != "" {
		if from, err = time.Parse("2006-01-02", v); err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid 'from' date, want YYYY-MM-DD.")
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse("2006-01-02", v); err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid 'to' date, want YYYY-MM-DD.")
			return
		}
	}

	workouts, err := h.planService.ListWorkouts(c.Request.Context(), userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutsToResponse(workouts))
}

// CompleteOnboarding records the calibration method and, for manual entry,
// the provided scalars.
func (h *PlanHandler) CompleteOnboarding(c *gin.Context) {
	var req CompleteOnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify athlete from token.")
		return
	}

	var manual *service.ManualBiometrics
	if req.Biometrics != nil {
		manual = &service.ManualBiometrics{
			CriticalSwimSpeed:        req.Biometrics.CriticalSwimSpeed,
			FunctionalThresholdPower: req.Biometrics.FunctionalThresholdPower,
			ThresholdRunPace:         req.Biometrics.ThresholdRunPace,
			MaxHeartRate:             req.Biometrics.MaxHeartRate,
			RestingHeartRate:         req.Biometrics.RestingHeartRate,
		}
	}

	err = h.planService.CompleteOnboarding(c.Request.Context(), userID, domain.CalibrationMethod(req.Method), manual)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitCalibrationResult converts one field-test result into its scalar and
// re-materializes the workouts waiting on it.
func (h *PlanHandler) SubmitCalibrationResult(c *gin.Context) {
	var req CalibrationResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify athlete from token.")
		return
	}

	if err := h.planService.SubmitCalibrationResult(c.Request.Context(), userID, req.TestType, req.Value); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
