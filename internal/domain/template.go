package domain

// Discipline identifies the sport a template or workout belongs to.
type Discipline string

const (
	DisciplineSwim Discipline = "swim"
	DisciplineBike Discipline = "bike"
	DisciplineRun  Discipline = "run"
)

// TargetKind discriminates the StepTarget variant. Exactly one case is active
// per step.
type TargetKind string

const (
	TargetPercentFtp  TargetKind = "percentFtp"  // fraction of functional threshold power
	TargetPercentCss  TargetKind = "percentCss"  // fraction of critical swim speed
	TargetPercentPace TargetKind = "percentTp"   // fraction of threshold run pace
	TargetZone        TargetKind = "targetZone"  // heart-rate/effort zone 1..5
)

// StepTarget is the tagged intensity coefficient of one template step. Percent
// is set for the three scalar-relative kinds, Zone for the zone kind.
type StepTarget struct {
	Kind    TargetKind `bson:"kind" json:"kind"`
	Percent float64    `bson:"percent,omitempty" json:"percent,omitempty"`
	Zone    int        `bson:"zone,omitempty" json:"zone,omitempty"`
}

func FtpTarget(pct float64) StepTarget  { return StepTarget{Kind: TargetPercentFtp, Percent: pct} }
func CssTarget(pct float64) StepTarget  { return StepTarget{Kind: TargetPercentCss, Percent: pct} }
func PaceTarget(pct float64) StepTarget { return StepTarget{Kind: TargetPercentPace, Percent: pct} }
func ZoneTarget(n int) StepTarget       { return StepTarget{Kind: TargetZone, Zone: n} }

// IsPercent reports whether the target is scalar-relative (needs a biometric
// scalar to become an absolute number).
func (t StepTarget) IsPercent() bool { return t.Kind != TargetZone }

// DisciplineFor returns the discipline whose scalar this target consumes, and
// ok=false for zone targets which need none.
func (t StepTarget) DisciplineFor() (Discipline, bool) {
	switch t.Kind {
	case TargetPercentFtp:
		return DisciplineBike, true
	case TargetPercentCss:
		return DisciplineSwim, true
	case TargetPercentPace:
		return DisciplineRun, true
	}
	return "", false
}

// TemplateStep is one ordered step of a workout template, expressed as a
// coefficient rather than an absolute value.
type TemplateStep struct {
	Name            string     `bson:"name,omitempty" json:"name,omitempty"`
	Target          StepTarget `bson:"target" json:"target"`
	TargetRPE       int        `bson:"targetRpe,omitempty" json:"targetRpe,omitempty"`
	DurationSeconds int        `bson:"durationSeconds" json:"durationSeconds"`
}

// WorkoutTemplate is a versioned, read-only prescription blueprint from the
// template library. Intensity is relative (coefficients / zones); the
// materializer binds it to a user's scalars.
type WorkoutTemplate struct {
	ID             string         `bson:"_id" json:"id"` // library-assigned, e.g. "bike-threshold-2x20-v2"
	Name           string         `bson:"name" json:"name"`
	Discipline     Discipline     `bson:"discipline" json:"discipline"`
	DifficultyTier int            `bson:"difficultyTier" json:"difficultyTier"` // 1..3
	PriorityLevel  int            `bson:"priorityLevel" json:"priorityLevel"`   // 1 long/key, 2 interval/threshold, 3 recovery
	Version        int            `bson:"version" json:"version"`
	Steps          []TemplateStep `bson:"steps" json:"steps"`
}

// TotalDurationSeconds sums the step durations.
func (t *WorkoutTemplate) TotalDurationSeconds() int {
	total := 0
	for _, s := range t.Steps {
		total += s.DurationSeconds
	}
	return total
}

// MaxZone returns the highest zone touched by any zone step, 0 if none.
func (t *WorkoutTemplate) MaxZone() int {
	max := 0
	for _, s := range t.Steps {
		if s.Target.Kind == TargetZone && s.Target.Zone > max {
			max = s.Target.Zone
		}
	}
	return max
}
