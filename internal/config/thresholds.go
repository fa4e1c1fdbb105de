package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Override carries per-container threshold overrides. Absent fields fall back
// to the monitor defaults field by field.
type Override struct {
	CPUPercent    *float64 `mapstructure:"cpuPercent"`
	MemoryPercent *float64 `mapstructure:"memoryPercent"`
}

// MonitorConfig configures the per-container resource monitor.
type MonitorConfig struct {
	Enabled       bool                `mapstructure:"enabled"`
	PollInterval  time.Duration       `mapstructure:"pollInterval"`
	CPUPercent    float64             `mapstructure:"cpuPercent"`
	MemoryPercent float64             `mapstructure:"memoryPercent"`
	Sustained     time.Duration       `mapstructure:"sustained"`
	Overrides     map[string]Override `mapstructure:"overrides"`
}

// PressureConfig configures the system memory pressure state machine.
type PressureConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	PollInterval       time.Duration `mapstructure:"pollInterval"`
	WarningPercent     float64       `mapstructure:"warningPercent"`
	CriticalPercent    float64       `mapstructure:"criticalPercent"`
	SafePercent        float64       `mapstructure:"safePercent"`
	KillDelay          time.Duration `mapstructure:"killDelay"`
	StabilizationWait  time.Duration `mapstructure:"stabilizationWait"`
	PriorityContainers []string      `mapstructure:"priorityContainers"`
	KillableContainers []string      `mapstructure:"killableContainers"`
	MemoryCacheKey     string        `mapstructure:"memoryCacheKey"`
}

// Thresholds is the file-backed half of the configuration: everything an
// operator tunes per deployment without touching the environment.
type Thresholds struct {
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Pressure PressureConfig `mapstructure:"pressure"`
}

// LoadThresholds reads and validates the YAML thresholds file.
func LoadThresholds(path string) (*Thresholds, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.pollInterval", "30s")
	v.SetDefault("monitor.cpuPercent", 80.0)
	v.SetDefault("monitor.memoryPercent", 85.0)
	v.SetDefault("monitor.sustained", "2m")
	v.SetDefault("pressure.enabled", true)
	v.SetDefault("pressure.pollInterval", "30s")
	v.SetDefault("pressure.warningPercent", 85.0)
	v.SetDefault("pressure.criticalPercent", 95.0)
	v.SetDefault("pressure.safePercent", 75.0)
	v.SetDefault("pressure.killDelay", "60s")
	v.SetDefault("pressure.stabilizationWait", "30s")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read thresholds file %s: %w", path, err)
	}

	var t Thresholds
	if err := v.Unmarshal(&t); err != nil {
		return nil, fmt.Errorf("unmarshal thresholds file %s: %w", path, err)
	}

	if err := t.validate(); err != nil {
		return nil, err
	}

	return &t, nil
}

// validate rejects configuration inconsistencies at load time so they are
// never discovered mid-incident.
func (t *Thresholds) validate() error {
	if t.Monitor.PollInterval <= 0 {
		return fmt.Errorf("%w: monitor.pollInterval must be positive", ErrThresholdsInvalid)
	}

	if t.Monitor.Sustained < 0 {
		return fmt.Errorf("%w: monitor.sustained must not be negative", ErrThresholdsInvalid)
	}

	if t.Monitor.CPUPercent <= 0 || t.Monitor.MemoryPercent <= 0 {
		return fmt.Errorf("%w: monitor thresholds must be positive", ErrThresholdsInvalid)
	}

	for name, o := range t.Monitor.Overrides {
		if o.CPUPercent != nil && *o.CPUPercent <= 0 {
			return fmt.Errorf("%w: override %s: cpuPercent must be positive", ErrThresholdsInvalid, name)
		}

		if o.MemoryPercent != nil && *o.MemoryPercent <= 0 {
			return fmt.Errorf("%w: override %s: memoryPercent must be positive", ErrThresholdsInvalid, name)
		}
	}

	if t.Pressure.PollInterval <= 0 {
		return fmt.Errorf("%w: pressure.pollInterval must be positive", ErrThresholdsInvalid)
	}

	if t.Pressure.KillDelay < 0 || t.Pressure.StabilizationWait < 0 {
		return fmt.Errorf("%w: pressure delays must not be negative", ErrThresholdsInvalid)
	}

	if t.Pressure.WarningPercent >= t.Pressure.CriticalPercent {
		return fmt.Errorf("%w: pressure.warningPercent must be below criticalPercent", ErrThresholdsInvalid)
	}

	if t.Pressure.SafePercent > t.Pressure.WarningPercent {
		return fmt.Errorf("%w: pressure.safePercent must not exceed warningPercent", ErrThresholdsInvalid)
	}

	priority := make(map[string]bool, len(t.Pressure.PriorityContainers))
	for _, name := range t.Pressure.PriorityContainers {
		priority[name] = true
	}

	for _, name := range t.Pressure.KillableContainers {
		if priority[name] {
			return fmt.Errorf("%w: container %s is both killable and priority", ErrThresholdsInvalid, name)
		}
	}

	return nil
}
