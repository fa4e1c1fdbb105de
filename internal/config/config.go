package config

import (
	"fmt"
	"os"
	"time"
)

const (
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
	defaultHTTPPort       = "8080"
	defaultMetricsPort    = "9090"
	defaultThresholdsFile = "/etc/dockguard/thresholds.yaml"
	defaultAlertCooldown  = 5 * time.Minute
	defaultPingerInterval = 10 * time.Second
)

type Config struct {
	LogLevel        string
	LogFormat       string
	HTTPPort        string
	MetricsPort     string
	DockerHost      string
	ThresholdsFile  string
	AlertWebhookURL string
	ReportSchedule  string
	ReportTZ        string
	AlertCooldown   time.Duration
	PingerInterval  time.Duration
}

// Load reads the process environment into a Config.
// The thresholds file is loaded separately via LoadThresholds.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:        getEnvOrDefault(envKeyLogLevel, defaultLogLevel),
		LogFormat:       getEnvOrDefault(envKeyLogFormat, defaultLogFormat),
		HTTPPort:        getEnvOrDefault(envKeyHTTPPort, defaultHTTPPort),
		MetricsPort:     getEnvOrDefault(envKeyMetricsPort, defaultMetricsPort),
		DockerHost:      getEnvOrDefault(envKeyDockerHost, os.Getenv(envKeyDockerHostFallback)),
		ThresholdsFile:  getEnvOrDefault(envKeyThresholdsFile, defaultThresholdsFile),
		AlertWebhookURL: os.Getenv(envKeyAlertWebhookURL),
		ReportSchedule:  os.Getenv(envKeyReportSchedule),
		ReportTZ:        os.Getenv(envKeyReportTZ),
	}

	cooldown, err := getDurationEnv(envKeyAlertCooldown, defaultAlertCooldown, envMinAlertCooldown)
	if err != nil {
		return nil, err
	}

	cfg.AlertCooldown = cooldown

	pingerInterval, err := getDurationEnv(envKeyPingerInterval, defaultPingerInterval, envMinPingerInterval)
	if err != nil {
		return nil, err
	}

	cfg.PingerInterval = pingerInterval

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value
}

func getDurationEnv(key string, defaultValue, minValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	if value < minValue {
		return 0, fmt.Errorf("parse %s: %w: below minimum %s", key, ErrDurationTooSmall, minValue)
	}

	return value, nil
}
