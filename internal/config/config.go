package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the plan engine.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Templates    TemplatesConfig    `mapstructure:"templates"`
	Notification NotificationConfig `mapstructure:"notification"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Plan         PlanConfig         `mapstructure:"plan"`
	Adaptation   AdaptationConfig   `mapstructure:"adaptation"`
	Sweep        SweepConfig        `mapstructure:"sweep"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI     string        `mapstructure:"uri"`
	Name    string        `mapstructure:"name"`
	Timeout time.Duration `mapstructure:"timeout"` // bound on individual store calls
}

// TemplatesConfig selects where the read-only template library is published.
type TemplatesConfig struct {
	Source string           `mapstructure:"source"` // "file" or "s3"
	Path   string           `mapstructure:"path"`   // file source
	S3     TemplateS3Config `mapstructure:"s3"`
}

type TemplateS3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	ObjectKey       string `mapstructure:"object_key"`
}

// NotificationConfig wires the outbound fire-and-forget notification
// collaborator (SNS). Disabled falls back to a logging no-op.
type NotificationConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Region   string `mapstructure:"region"`
	TopicARN string `mapstructure:"topic_arn"`
}

// JWTConfig covers validation of tokens issued by the external auth
// collaborator; this service never issues tokens itself, so expiry comes
// from the token's own exp claim.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// PhasePolicy is the per-phase intensity/volume modifier pair.
type PhasePolicy struct {
	IntensityModifier float64 `mapstructure:"intensity_modifier"`
	VolumeModifier    float64 `mapstructure:"volume_modifier"`
}

// VolumeTierPolicy is the static weekly prescription for one volume tier.
type VolumeTierPolicy struct {
	Tier           int     `mapstructure:"tier"`
	MinWeeklyHours float64 `mapstructure:"min_weekly_hours"`
	MaxWeeklyHours float64 `mapstructure:"max_weekly_hours"`
	SwimSessions   int     `mapstructure:"swim_sessions"`
	BikeSessions   int     `mapstructure:"bike_sessions"`
	RunSessions    int     `mapstructure:"run_sessions"`
}

// PlanConfig carries the periodization policy tables. The phase split is a
// configurable proportion, not a fixed algorithm; the defaults reproduce the
// classic 4/8/3/1 split on a 16-week plan.
type PlanConfig struct {
	MinTotalWeeks    int                    `mapstructure:"min_total_weeks"`
	MaxTotalWeeks    int                    `mapstructure:"max_total_weeks"`
	PhaseProportions map[string]float64     `mapstructure:"phase_proportions"`
	Phases           map[string]PhasePolicy `mapstructure:"phases"`
	VolumeTiers      []VolumeTierPolicy     `mapstructure:"volume_tiers"`
}

// AdaptationConfig parameterizes the two-strike fatigue engine.
type AdaptationConfig struct {
	IntensityFactor float64 `mapstructure:"intensity_factor"` // applied to priority-2 sessions
	RPETolerance    int     `mapstructure:"rpe_tolerance"`    // strike when rpe > target + tolerance
	IntervalCount   int     `mapstructure:"interval_count"`   // priority-2 sessions softened per trigger
}

// SweepConfig schedules the daily priority sweep.
type SweepConfig struct {
	CronSpec string `mapstructure:"cron_spec"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Environment variable handling: plan.min_total_weeks -> PLAN_MIN_TOTAL_WEEKS
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "training_engine")
	viper.SetDefault("database.timeout", "10s")
	viper.SetDefault("templates.source", "file")
	viper.SetDefault("templates.path", "templates.json")
	viper.SetDefault("notification.enabled", false)
	viper.SetDefault("plan.min_total_weeks", 4)
	viper.SetDefault("plan.max_total_weeks", 40)
	viper.SetDefault("adaptation.intensity_factor", 0.85)
	viper.SetDefault("adaptation.rpe_tolerance", 2)
	viper.SetDefault("adaptation.interval_count", 2)
	// 00:01 local time, six-field spec (with seconds)
	viper.SetDefault("sweep.cron_spec", "0 1 0 * * *")

	err = viper.ReadInConfig()
	// Config file is optional; env vars and defaults may be enough.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	applyPolicyDefaults(&config)
	return config, nil
}

// applyPolicyDefaults fills the structured policy tables viper cannot default
// cleanly. Values mirror the published training policy document.
func applyPolicyDefaults(c *Config) {
	if len(c.Plan.PhaseProportions) == 0 {
		c.Plan.PhaseProportions = map[string]float64{
			"BASE":  0.25,
			"BUILD": 0.50,
			"PEAK":  0.1875,
			"TAPER": 0.0625,
		}
	}
	if len(c.Plan.Phases) == 0 {
		c.Plan.Phases = map[string]PhasePolicy{
			"BASE":  {IntensityModifier: 0.90, VolumeModifier: 0.90},
			"BUILD": {IntensityModifier: 1.00, VolumeModifier: 1.00},
			"PEAK":  {IntensityModifier: 1.05, VolumeModifier: 0.95},
			"TAPER": {IntensityModifier: 0.80, VolumeModifier: 0.60},
		}
	}
	if len(c.Plan.VolumeTiers) == 0 {
		c.Plan.VolumeTiers = []VolumeTierPolicy{
			{Tier: 1, MinWeeklyHours: 4, MaxWeeklyHours: 6, SwimSessions: 1, BikeSessions: 2, RunSessions: 2},
			{Tier: 2, MinWeeklyHours: 6, MaxWeeklyHours: 9, SwimSessions: 2, BikeSessions: 3, RunSessions: 3},
			{Tier: 3, MinWeeklyHours: 9, MaxWeeklyHours: 13, SwimSessions: 3, BikeSessions: 4, RunSessions: 3},
		}
	}
}

// TierPolicy returns the volume-tier row, falling back to the middle tier.
func (c *PlanConfig) TierPolicy(tier int) VolumeTierPolicy {
	for _, t := range c.VolumeTiers {
		if t.Tier == tier {
			return t
		}
	}
	return c.VolumeTiers[len(c.VolumeTiers)/2]
}
