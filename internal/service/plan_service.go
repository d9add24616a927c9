package service

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"tripeak/training-engine/internal/calc"
	"tripeak/training-engine/internal/config"
	"tripeak/training-engine/internal/domain"
	"tripeak/training-engine/internal/repository"
	"tripeak/training-engine/internal/templates"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Calibration test identifiers accepted by SubmitCalibrationResult.
const (
	TestSwim400   = "swim_400"
	TestBike20Min = "bike_20min"
	TestRunMile   = "run_mile"
)

const planLockTTL = 2 * time.Minute

// ManualBiometrics is the onboarding payload when the user enters scalars
// directly instead of running a calibration week.
type ManualBiometrics struct {
	CriticalSwimSpeed        float64
	FunctionalThresholdPower int
	ThresholdRunPace         int
	MaxHeartRate             int
	RestingHeartRate         int
}

// PlanService generates and maintains training plans: periodization, workout
// materialization, the calibration week, and onboarding.
type PlanService interface {
	CreatePlan(ctx context.Context, userID primitive.ObjectID, raceDate *time.Time, totalWeeksOverride int) (*domain.TrainingPlan, error)
	GetActivePlan(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error)
	ListWorkouts(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.Workout, error)
	CompleteOnboarding(ctx context.Context, userID primitive.ObjectID, method domain.CalibrationMethod, manual *ManualBiometrics) error
	SubmitCalibrationResult(ctx context.Context, userID primitive.ObjectID, testType string, rawValue float64) error
}

type planService struct {
	userRepo     repository.UserRepository
	bioRepo      repository.BiometricsRepository
	zoneRepo     repository.HeartRateZoneRepository
	planRepo     repository.PlanRepository
	workoutRepo  repository.WorkoutRepository
	locker       repository.UserLocker
	library      *templates.Library
	policy       config.PlanConfig
	notifier     Notifier
	now          func() time.Time
}

// Notifier is the narrow outbound surface the plan and adaptation services
// need; satisfied by the notification package.
type Notifier interface {
	NotifyAdaptationTriggered(ctx context.Context, userID primitive.ObjectID)
	NotifyCalibrationComplete(ctx context.Context, userID primitive.ObjectID)
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	userRepo repository.UserRepository,
	bioRepo repository.BiometricsRepository,
	zoneRepo repository.HeartRateZoneRepository,
	planRepo repository.PlanRepository,
	workoutRepo repository.WorkoutRepository,
	locker repository.UserLocker,
	library *templates.Library,
	policy config.PlanConfig,
	notifier Notifier,
) PlanService {
	return &planService{
		userRepo:    userRepo,
		bioRepo:     bioRepo,
		zoneRepo:    zoneRepo,
		planRepo:    planRepo,
		workoutRepo: workoutRepo,
		locker:      locker,
		library:     library,
		policy:      policy,
		notifier:    notifier,
		now:         time.Now,
	}
}

// === Plan generation ===

// CreatePlan builds and persists a full plan for the user: resolves the
// volume tier, allocates phases across the weeks, materializes every slot and
// archives any prior active plan.
func (s *planService) CreatePlan(ctx context.Context, userID primitive.ObjectID, raceDate *time.Time, totalWeeksOverride int) (*domain.TrainingPlan, error) {
	if userID == primitive.NilObjectID {
		return nil, domain.Validationf("user ID is required")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("user %s", userID.Hex())
		}
		return nil, err
	}

	startDate := domain.DayOf(s.now())

	// 1. Resolve the plan length.
	totalWeeks := totalWeeksOverride
	if totalWeeks == 0 {
		if raceDate == nil {
			return nil, domain.Validationf("a race date or an explicit plan length is required")
		}
		days := domain.DayOf(*raceDate).Sub(startDate).Hours() / 24
		totalWeeks = int(math.Ceil(days / 7))
	}
	if totalWeeks < s.policy.MinTotalWeeks || totalWeeks > s.policy.MaxTotalWeeks {
		return nil, domain.Validationf("plan length %d weeks outside allowed range %d-%d",
			totalWeeks, s.policy.MinTotalWeeks, s.policy.MaxTotalWeeks)
	}

	// 2. Resolve the volume tier.
	tier := resolveVolumeTier(user)

	// Serialize plan creation per user; a concurrent creation surfaces as a
	// conflict rather than a duplicate active plan.
	owner := uuid.NewString()
	if err := s.locker.Acquire(ctx, userID, owner, planLockTTL); err != nil {
		if errors.Is(err, repository.ErrLockHeld) {
			return nil, domain.Conflictf("plan creation already in flight for user %s", userID.Hex())
		}
		return nil, err
	}
	defer func() {
		if rerr := s.locker.Release(ctx, userID, owner); rerr != nil {
			log.Printf("WARN: Failed to release plan lock for user %s: %v", userID.Hex(), rerr)
		}
	}()

	bio, zones, err := s.loadScalars(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 3. Allocate phases and generate every week's workouts.
	phases := allocatePhases(totalWeeks, s.policy.PhaseProportions)

	plan := &domain.TrainingPlan{
		UserID:       userID,
		RaceDate:     raceDate,
		StartDate:    startDate,
		CurrentPhase: phases[0],
		CurrentWeek:  1,
		TotalWeeks:   totalWeeks,
		VolumeTier:   tier,
		Status:       domain.PlanActive,
	}
	plan.ID = primitive.NewObjectID()

	calibrationFirstWeek := user.UsesCalibrationWeek() && !bio.Complete()

	var workouts []domain.Workout
	for week := 1; week <= totalWeeks; week++ {
		phase := phases[week-1]
		weekStart := startDate.AddDate(0, 0, (week-1)*7)

		if week == 1 && calibrationFirstWeek {
			workouts = append(workouts, s.calibrationWeek(plan, weekStart)...)
			continue
		}
		weekWorkouts, err := s.generateWeek(plan, week, phase, weekStart, bio, zones)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, weekWorkouts...)
	}

	// 4. Persist: archive the prior active plan, then the plan and its
	// workouts, all under the user lock.
	if _, err := s.planRepo.ArchiveActiveForUser(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, err
	}
	if err := s.workoutRepo.CreateMany(ctx, workouts); err != nil {
		return nil, err
	}

	log.Printf("INFO: Created %d-week plan %s for user %s (tier %d, %d workouts)",
		totalWeeks, plan.ID.Hex(), userID.Hex(), tier, len(workouts))
	return plan, nil
}

// resolveVolumeTier prefers the explicit tier, then the experience mapping
// (finisher -> 1, competitor -> 3), and defaults to the middle tier.
func resolveVolumeTier(user *domain.User) int {
	if user.TrainingVolumeTier >= 1 && user.TrainingVolumeTier <= 3 {
		return user.TrainingVolumeTier
	}
	switch user.ExperienceLevel {
	case domain.ExperienceFinisher:
		return 1
	case domain.ExperienceCompetitor:
		return 3
	}
	return 2
}

// allocatePhases splits totalWeeks across BASE/BUILD/PEAK/TAPER in fixed
// order using the configured proportions. Every phase gets at least one week;
// BUILD absorbs the rounding remainder.
func allocatePhases(totalWeeks int, proportions map[string]float64) []domain.TrainingPhase {
	share := func(phase domain.TrainingPhase) int {
		n := int(math.Round(proportions[string(phase)] * float64(totalWeeks)))
		if n < 1 {
			n = 1
		}
		return n
	}
	base := share(domain.PhaseBase)
	peak := share(domain.PhasePeak)
	taper := share(domain.PhaseTaper)

	build := totalWeeks - base - peak - taper
	// Short plans: shrink the bigger blocks before giving up on a build week.
	for build < 1 && base > 1 {
		base--
		build++
	}
	for build < 1 && peak > 1 {
		peak--
		build++
	}
	if build < 1 {
		build = 1
		taper = totalWeeks - base - peak - build
		if taper < 1 {
			taper = 1
		}
	}

	out := make([]domain.TrainingPhase, 0, totalWeeks)
	appendN := func(p domain.TrainingPhase, n int) {
		for i := 0; i < n && len(out) < totalWeeks; i++ {
			out = append(out, p)
		}
	}
	appendN(domain.PhaseBase, base)
	appendN(domain.PhaseBuild, build)
	appendN(domain.PhasePeak, peak)
	appendN(domain.PhaseTaper, taper)
	for len(out) < totalWeeks {
		out = append(out, domain.PhaseTaper)
	}
	return out
}

// difficultyForPhase picks the template difficulty tier consistent with a
// phase.
func difficultyForPhase(phase domain.TrainingPhase) int {
	switch phase {
	case domain.PhaseBuild:
		return 2
	case domain.PhasePeak:
		return 3
	default: // BASE, TAPER
		return 1
	}
}

// generateWeek materializes one regular week: per-discipline session counts
// from the volume tier, templates of the phase's difficulty, days spread so
// two interval sessions never land back to back when avoidable.
func (s *planService) generateWeek(plan *domain.TrainingPlan, week int, phase domain.TrainingPhase, weekStart time.Time, bio *domain.Biometrics, zones []domain.HeartRateZone) ([]domain.Workout, error) {
	tierPolicy := s.policy.TierPolicy(plan.VolumeTier)
	phasePolicy := s.policy.Phases[string(phase)]
	difficulty := difficultyForPhase(phase)

	var sessions []domain.WorkoutTemplate
	add := func(d domain.Discipline, count int) error {
		pool := s.library.Select(d, difficulty)
		if len(pool) == 0 {
			// Fall back one difficulty tier before giving up; a sparse
			// library should not sink the whole plan.
			for fallback := difficulty - 1; fallback >= 1 && len(pool) == 0; fallback-- {
				pool = s.library.Select(d, fallback)
			}
		}
		if len(pool) == 0 {
			return domain.NotFoundf("no %s templates at difficulty %d", d, difficulty)
		}
		for i := 0; i < count; i++ {
			sessions = append(sessions, pool[(week+i)%len(pool)])
		}
		return nil
	}
	if err := add(domain.DisciplineSwim, tierPolicy.SwimSessions); err != nil {
		return nil, err
	}
	if err := add(domain.DisciplineBike, tierPolicy.BikeSessions); err != nil {
		return nil, err
	}
	if err := add(domain.DisciplineRun, tierPolicy.RunSessions); err != nil {
		return nil, err
	}

	priorities := make([]int, len(sessions))
	for i, tmpl := range sessions {
		priorities[i] = tmpl.PriorityLevel
	}
	days := distributeSessions(priorities)

	workouts := make([]domain.Workout, 0, len(sessions))
	for i := range sessions {
		tmpl := sessions[i]
		structure := MaterializeWorkout(&tmpl, bio, zones,
			phasePolicy.IntensityModifier, phasePolicy.VolumeModifier, s.now())
		workouts = append(workouts, domain.Workout{
			PlanID:          plan.ID,
			UserID:          plan.UserID,
			TemplateID:      tmpl.ID,
			Name:            tmpl.Name,
			Discipline:      tmpl.Discipline,
			ScheduledDate:   weekStart.AddDate(0, 0, days[i]),
			Week:            week,
			Phase:           phase,
			PriorityLevel:   tmpl.PriorityLevel,
			Status:          domain.WorkoutPlanned,
			IntensityScalar: phasePolicy.IntensityModifier,
			Structure:       structure,
		})
	}
	return workouts, nil
}

// distributeSessions assigns each session a day 0..6. Key sessions land
// first, days fill evenly, and a priority-2 session avoids days adjacent to
// another priority-2 when any alternative exists.
func distributeSessions(priorities []int) []int {
	used := make(map[int]int)   // day -> session count
	intervalDay := make(map[int]bool) // day -> has a priority-2 session

	order := make([]int, len(priorities))
	for i := range order {
		order[i] = i
	}
	// Place priority-1 first, then 2, then 3, keeping input order inside a
	// priority class.
	for a := 0; a < len(order); a++ {
		for b := a + 1; b < len(order); b++ {
			if priorities[order[b]] < priorities[order[a]] {
				order[a], order[b] = order[b], order[a]
			}
		}
	}

	days := make([]int, len(priorities))
	for _, idx := range order {
		isInterval := priorities[idx] == domain.PriorityInterval
		bestDay, bestScore := 0, math.MaxInt
		for day := 0; day < 7; day++ {
			score := used[day] * 10
			if isInterval && (intervalDay[day-1] || intervalDay[day] || intervalDay[day+1]) {
				score += 5
			}
			if score < bestScore {
				bestDay, bestScore = day, score
			}
		}
		days[idx] = bestDay
		used[bestDay]++
		if isInterval {
			intervalDay[bestDay] = true
		}
	}
	return days
}

// calibrationWeek builds the fixed week-1 test schedule: swim TT day 1, bike
// test day 3, run TT day 5, recovery on days 6-7. Tests carry no absolute
// targets; the results feed the scalar calculator.
func (s *planService) calibrationWeek(plan *domain.TrainingPlan, weekStart time.Time) []domain.Workout {
	mk := func(day int, d domain.Discipline, templateID, name string) domain.Workout {
		return domain.Workout{
			PlanID:            plan.ID,
			UserID:            plan.UserID,
			TemplateID:        templateID,
			Name:              name,
			Discipline:        d,
			ScheduledDate:     weekStart.AddDate(0, 0, day),
			Week:              1,
			Phase:             domain.PhaseBase,
			PriorityLevel:     domain.PriorityKeySession,
			Status:            domain.WorkoutPlanned,
			IntensityScalar:   1.0,
			IsCalibrationTest: true,
		}
	}
	workouts := []domain.Workout{
		mk(0, domain.DisciplineSwim, "calibration-swim-400", "400m Swim Time Trial"),
		mk(2, domain.DisciplineBike, "calibration-bike-20min", "20-Minute Bike Power Test"),
		mk(4, domain.DisciplineRun, "calibration-run-mile", "1-Mile Run Time Trial"),
	}

	// Days 6-7: easy sessions from the recovery pool, zone 1-2 only.
	recoveryDays := []int{5, 6}
	recoveryDisciplines := []domain.Discipline{domain.DisciplineBike, domain.DisciplineRun}
	for i, day := range recoveryDays {
		pool := s.library.RecoveryPool(recoveryDisciplines[i%len(recoveryDisciplines)])
		if len(pool) == 0 {
			continue
		}
		tmpl := pool[0]
		structure := MaterializeWorkout(&tmpl, nil, nil, 1.0, 1.0, s.now())
		workouts = append(workouts, domain.Workout{
			PlanID:          plan.ID,
			UserID:          plan.UserID,
			TemplateID:      tmpl.ID,
			Name:            tmpl.Name,
			Discipline:      tmpl.Discipline,
			ScheduledDate:   weekStart.AddDate(0, 0, day),
			Week:            1,
			Phase:           domain.PhaseBase,
			PriorityLevel:   domain.PriorityRecovery,
			Status:          domain.WorkoutPlanned,
			IntensityScalar: 1.0,
			Structure:       structure,
		})
	}
	return workouts
}

// === Reads ===

func (s *planService) GetActivePlan(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error) {
	plan, err := s.planRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("no active plan for user %s", userID.Hex())
		}
		return nil, err
	}
	return plan, nil
}

func (s *planService) ListWorkouts(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.Workout, error) {
	plan, err := s.GetActivePlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.workoutRepo.ListPlannedBetween(ctx, plan.ID, domain.DayOf(from), domain.DayOf(to))
}

// === Onboarding / calibration ===

// CompleteOnboarding fixes the calibration method and, for manual entry,
// runs the scalar pipeline on the provided values.
func (s *planService) CompleteOnboarding(ctx context.Context, userID primitive.ObjectID, method domain.CalibrationMethod, manual *ManualBiometrics) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFoundf("user %s", userID.Hex())
		}
		return err
	}

	switch method {
	case domain.CalibrationManual:
		if manual == nil {
			return domain.Validationf("manual calibration requires biometrics")
		}
		bio := &domain.Biometrics{
			UserID:                   userID,
			CriticalSwimSpeed:        manual.CriticalSwimSpeed,
			FunctionalThresholdPower: manual.FunctionalThresholdPower,
			ThresholdRunPace:         manual.ThresholdRunPace,
			MaxHeartRate:             manual.MaxHeartRate,
			RestingHeartRate:         manual.RestingHeartRate,
			RecordedAt:               s.now().UTC(),
		}
		if err := s.bioRepo.Upsert(ctx, bio); err != nil {
			return err
		}
		if err := s.recomputeZones(ctx, user, bio); err != nil {
			return err
		}
		user.CalibrationMethod = method
		if bio.Complete() {
			user.OnboardingStatus = domain.OnboardingCompleted
		} else {
			user.OnboardingStatus = domain.OnboardingAwaitingCalibration
		}

	case domain.CalibrationWeek:
		user.CalibrationMethod = method
		user.OnboardingStatus = domain.OnboardingAwaitingCalibration

	default:
		return domain.Validationf("unknown calibration method %q", method)
	}

	return s.userRepo.Update(ctx, user)
}

// SubmitCalibrationResult converts one field-test result into its scalar,
// stores it and re-materializes every downstream workout that was waiting on
// it. Week-1 calibration workouts are never re-materialized.
func (s *planService) SubmitCalibrationResult(ctx context.Context, userID primitive.ObjectID, testType string, rawValue float64) error {
	if rawValue <= 0 {
		return domain.Validationf("test result must be positive")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFoundf("user %s", userID.Hex())
		}
		return err
	}

	bio, err := s.bioRepo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if bio == nil {
		bio = &domain.Biometrics{UserID: userID}
	}

	var discipline domain.Discipline
	switch testType {
	case TestSwim400:
		bio.CriticalSwimSpeed = calc.CSSFrom400m(rawValue)
		discipline = domain.DisciplineSwim
	case TestBike20Min:
		bio.FunctionalThresholdPower = calc.FTPFrom20MinPower(rawValue)
		discipline = domain.DisciplineBike
	case TestRunMile:
		bio.ThresholdRunPace = calc.ThresholdPaceFromMile(rawValue)
		discipline = domain.DisciplineRun
	default:
		return domain.Validationf("unknown calibration test %q", testType)
	}
	bio.RecordedAt = s.now().UTC()

	if err := s.bioRepo.Upsert(ctx, bio); err != nil {
		return err
	}

	if err := s.rematerializeDiscipline(ctx, userID, discipline, bio); err != nil {
		return err
	}

	if bio.Complete() && user.OnboardingStatus != domain.OnboardingCompleted {
		user.OnboardingStatus = domain.OnboardingCompleted
		if err := s.userRepo.Update(ctx, user); err != nil {
			return err
		}
		s.notifier.NotifyCalibrationComplete(ctx, userID)
	}
	return nil
}

// rematerializeDiscipline rebinds absolute targets on every not-yet-completed
// workout of the discipline from week 2 onward.
func (s *planService) rematerializeDiscipline(ctx context.Context, userID primitive.ObjectID, discipline domain.Discipline, bio *domain.Biometrics) error {
	plan, err := s.planRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil // no plan yet; scalars will bind at generation time
		}
		return err
	}

	zones, err := s.zoneRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	workouts, err := s.workoutRepo.ListPlannedFromWeek(ctx, plan.ID, 2)
	if err != nil {
		return err
	}
	for i := range workouts {
		w := &workouts[i]
		if w.Discipline != discipline || w.IsCalibrationTest {
			continue
		}
		tmpl, err := s.library.Get(w.TemplateID)
		if err != nil {
			log.Printf("WARN: Workout %s references unknown template %q, skipping re-materialization", w.ID.Hex(), w.TemplateID)
			continue
		}
		phasePolicy := s.policy.Phases[string(w.Phase)]
		w.Structure = MaterializeWorkout(&tmpl, bio, zones, w.IntensityScalar, phasePolicy.VolumeModifier, s.now())
		if err := s.workoutRepo.Update(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

// recomputeZones rebuilds the five HR zone rows after a baseline change.
// Zones are skipped, not fatal, when no max HR can be resolved.
func (s *planService) recomputeZones(ctx context.Context, user *domain.User, bio *domain.Biometrics) error {
	maxHR, err := calc.MaxHeartRate(bio.MaxHeartRate, user.DateOfBirth, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrComputation) {
			return nil
		}
		return err
	}
	zones, err := calc.HeartRateZones(maxHR, bio.RestingHeartRate)
	if err != nil {
		return err
	}
	return s.zoneRepo.ReplaceForUser(ctx, user.ID, zones)
}

// loadScalars fetches the user's biometrics and HR zones, tolerating their
// absence (nil biometrics degrade to zone-only targets).
func (s *planService) loadScalars(ctx context.Context, userID primitive.ObjectID) (*domain.Biometrics, []domain.HeartRateZone, error) {
	bio, err := s.bioRepo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, err
	}
	zones, err := s.zoneRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return bio, zones, nil
}
