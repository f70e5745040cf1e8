package anomaly

import "fmt"

// SeverityThresholds maps relative deviation fractions to severity tiers.
// A computed deviation is compared against these bounds, highest first.
type SeverityThresholds struct {
	Minor    float64 `yaml:"minor" json:"minor"`
	Moderate float64 `yaml:"moderate" json:"moderate"`
	Major    float64 `yaml:"major" json:"major"`
}

// Config holds the detector thresholds. It is immutable once handed to a
// detector pass.
type Config struct {
	// OscillationThreshold is the direction-change count at or above which
	// a parameter is considered oscillating
	// Default: 3
	OscillationThreshold int `yaml:"oscillation_threshold" json:"oscillation_threshold"`

	// PerformanceDeclineThreshold is the relative fraction beyond which a
	// score drop or latency rise counts as a decline. The strategy-gap
	// detector reuses this threshold for best/worst divergence.
	// Default: 0.15
	PerformanceDeclineThreshold float64 `yaml:"performance_decline_threshold" json:"performance_decline_threshold"`

	// LearningStallThreshold is the analyzed-query count above which zero
	// parameter adjustments indicate a stall
	// Default: 20
	LearningStallThreshold int `yaml:"learning_stall_threshold" json:"learning_stall_threshold"`

	// MinSampleSize is the minimum number of samples a detector needs
	// before it will consider a grouping
	// Default: 5
	MinSampleSize int `yaml:"min_sample_size" json:"min_sample_size"`

	// RecentWindowSize is how many of the newest records form the analysis
	// window
	// Default: 10
	RecentWindowSize int `yaml:"recent_window_size" json:"recent_window_size"`

	// SeverityThresholds tiers computed deviations into severities
	// Default: minor 0.1, moderate 0.2, major 0.3
	SeverityThresholds SeverityThresholds `yaml:"severity_thresholds" json:"severity_thresholds"`
}

// DefaultConfig returns the default detector thresholds.
func DefaultConfig() Config {
	return Config{
		OscillationThreshold:        3,
		PerformanceDeclineThreshold: 0.15,
		LearningStallThreshold:      20,
		MinSampleSize:               5,
		RecentWindowSize:            10,
		SeverityThresholds: SeverityThresholds{
			Minor:    0.1,
			Moderate: 0.2,
			Major:    0.3,
		},
	}
}

// Validate checks the thresholds. Invalid configuration is the one fatal
// condition in this package; detectors themselves never fail.
func (c Config) Validate() error {
	if c.OscillationThreshold < 1 {
		return fmt.Errorf("oscillation_threshold must be >= 1 (got %d)", c.OscillationThreshold)
	}
	if c.PerformanceDeclineThreshold <= 0 {
		return fmt.Errorf("performance_decline_threshold must be positive (got %g)", c.PerformanceDeclineThreshold)
	}
	if c.LearningStallThreshold < 1 {
		return fmt.Errorf("learning_stall_threshold must be >= 1 (got %d)", c.LearningStallThreshold)
	}
	if c.MinSampleSize < 2 {
		return fmt.Errorf("min_sample_size must be >= 2 (got %d)", c.MinSampleSize)
	}
	if c.RecentWindowSize < 2 {
		return fmt.Errorf("recent_window_size must be >= 2 (got %d)", c.RecentWindowSize)
	}
	t := c.SeverityThresholds
	if t.Minor <= 0 || t.Moderate <= t.Minor || t.Major <= t.Moderate {
		return fmt.Errorf("severity_thresholds must satisfy 0 < minor < moderate < major (got %g, %g, %g)",
			t.Minor, t.Moderate, t.Major)
	}
	return nil
}

// severityFor tiers a relative deviation against the configured thresholds.
// A deviation below every tier still maps to SeverityInfo rather than being
// suppressed; whether the anomaly is raised at all is the detector's call.
func severityFor(deviation float64, t SeverityThresholds) Severity {
	switch {
	case deviation > t.Major:
		return SeverityMajor
	case deviation > t.Moderate:
		return SeverityModerate
	case deviation > t.Minor:
		return SeverityMinor
	default:
		return SeverityInfo
	}
}
