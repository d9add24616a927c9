package api

import (
	"errors"
	"net/http"
	"time"

	"tripeak/training-engine/internal/domain"

	"github.com/gin-gonic/gin"
)

// --- Response DTOs ---

type PlanResponse struct {
	ID           string     `json:"id"`
	RaceDate     *time.Time `json:"raceDate,omitempty"`
	StartDate    time.Time  `json:"startDate"`
	CurrentPhase string     `json:"currentPhase"`
	CurrentWeek  int        `json:"currentWeek"`
	TotalWeeks   int        `json:"totalWeeks"`
	VolumeTier   int        `json:"volumeTier"`
	Status       string     `json:"status"`
}

type StepResponse struct {
	Name            string `json:"name,omitempty"`
	Kind            string `json:"kind"`
	Zone            int    `json:"zone,omitempty"`
	TargetWatts     *int   `json:"targetWatts,omitempty"`
	TargetPaceSec   *int   `json:"targetPaceSec,omitempty"`
	TargetSwimPace  *int   `json:"targetSwimPace,omitempty"`
	TargetBPM       *int   `json:"targetBpm,omitempty"`
	TargetRPE       int    `json:"targetRpe,omitempty"`
	DurationSeconds int    `json:"durationSeconds"`
}

type WorkoutResponse struct {
	ID                string         `json:"id"`
	PlanID            string         `json:"planId"`
	Name              string         `json:"name"`
	Discipline        string         `json:"discipline"`
	ScheduledDate     time.Time      `json:"scheduledDate"`
	Week              int            `json:"week"`
	Phase             string         `json:"phase"`
	PriorityLevel     int            `json:"priorityLevel"`
	Status            string         `json:"status"`
	IntensityScalar   float64        `json:"intensityScalar"`
	WasAdapted        bool           `json:"wasAdapted"`
	IsCalibrationTest bool           `json:"isCalibrationTest"`
	Steps             []StepResponse `json:"steps,omitempty"`
	TotalDuration     int            `json:"totalDurationSeconds,omitempty"`
}

func MapPlanToResponse(p *domain.TrainingPlan) PlanResponse {
	return PlanResponse{
		ID:           p.ID.Hex(),
		RaceDate:     p.RaceDate,
		StartDate:    p.StartDate,
		CurrentPhase: string(p.CurrentPhase),
		CurrentWeek:  p.CurrentWeek,
		TotalWeeks:   p.TotalWeeks,
		VolumeTier:   p.VolumeTier,
		Status:       string(p.Status),
	}
}

func MapWorkoutToResponse(w *domain.Workout) WorkoutResponse {
	resp := WorkoutResponse{
		ID:                w.ID.Hex(),
		PlanID:            w.PlanID.Hex(),
		Name:              w.Name,
		Discipline:        string(w.Discipline),
		ScheduledDate:     w.ScheduledDate,
		Week:              w.Week,
		Phase:             string(w.Phase),
		PriorityLevel:     w.PriorityLevel,
		Status:            string(w.Status),
		IntensityScalar:   w.IntensityScalar,
		WasAdapted:        w.WasAdapted,
		IsCalibrationTest: w.IsCalibrationTest,
	}
	if w.Structure != nil {
		resp.TotalDuration = w.Structure.TotalDurationSeconds
		resp.Steps = make([]StepResponse, len(w.Structure.Steps))
		for i, s := range w.Structure.Steps {
			resp.Steps[i] = StepResponse{
				Name:            s.Name,
				Kind:            string(s.Kind),
				Zone:            s.Zone,
				TargetWatts:     s.TargetWatts,
				TargetPaceSec:   s.TargetPaceSec,
				TargetSwimPace:  s.TargetSwimPace,
				TargetBPM:       s.TargetBPM,
				TargetRPE:       s.TargetRPE,
				DurationSeconds: s.DurationSeconds,
			}
		}
	}
	return resp
}

func MapWorkoutsToResponse(workouts []domain.Workout) []WorkoutResponse {
	out := make([]WorkoutResponse, len(workouts))
	for i := range workouts {
		out[i] = MapWorkoutToResponse(&workouts[i])
	}
	return out
}

// respondWithError maps the domain error taxonomy to HTTP status codes.
func respondWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrComputation):
		abortWithError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}
