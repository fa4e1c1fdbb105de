package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/dockguard/internal/config"
)

type loadCase struct {
	name    string
	giveEnv map[string]string
	wantErr bool
	wantCfg *config.Config
}

func assertConfigFields(t *testing.T, got, want *config.Config) {
	t.Helper()

	if want == nil {
		return
	}

	if want.HTTPPort != "" {
		require.Equal(t, want.HTTPPort, got.HTTPPort)
	}

	if want.MetricsPort != "" {
		require.Equal(t, want.MetricsPort, got.MetricsPort)
	}

	if want.LogLevel != "" {
		require.Equal(t, want.LogLevel, got.LogLevel)
	}

	if want.LogFormat != "" {
		require.Equal(t, want.LogFormat, got.LogFormat)
	}

	if want.DockerHost != "" {
		require.Equal(t, want.DockerHost, got.DockerHost)
	}

	if want.ThresholdsFile != "" {
		require.Equal(t, want.ThresholdsFile, got.ThresholdsFile)
	}

	if want.ReportSchedule != "" {
		require.Equal(t, want.ReportSchedule, got.ReportSchedule)
	}

	if want.AlertCooldown != 0 {
		require.Equal(t, want.AlertCooldown, got.AlertCooldown)
	}

	if want.PingerInterval != 0 {
		require.Equal(t, want.PingerInterval, got.PingerInterval)
	}
}

func TestLoad(t *testing.T) {
	tests := []loadCase{
		{
			name:    "all defaults",
			giveEnv: map[string]string{},
			wantCfg: &config.Config{
				LogLevel:       "info",
				LogFormat:      "json",
				HTTPPort:       "8080",
				MetricsPort:    "9090",
				ThresholdsFile: "/etc/dockguard/thresholds.yaml",
				AlertCooldown:  5 * time.Minute,
				PingerInterval: 10 * time.Second,
			},
		},
		{
			name: "override ports and cooldown",
			giveEnv: map[string]string{
				"DOCKGUARD_HTTP_PORT":      "8888",
				"DOCKGUARD_METRICS_PORT":   "9999",
				"DOCKGUARD_ALERT_COOLDOWN": "90s",
			},
			wantCfg: &config.Config{
				HTTPPort:      "8888",
				MetricsPort:   "9999",
				AlertCooldown: 90 * time.Second,
			},
		},
		{
			name: "docker host fallback",
			giveEnv: map[string]string{
				"DOCKER_HOST": "unix:///run/docker.sock",
			},
			wantCfg: &config.Config{
				DockerHost: "unix:///run/docker.sock",
			},
		},
		{
			name: "explicit docker host wins over fallback",
			giveEnv: map[string]string{
				"DOCKER_HOST":           "unix:///run/docker.sock",
				"DOCKGUARD_DOCKER_HOST": "tcp://10.0.0.2:2375",
			},
			wantCfg: &config.Config{
				DockerHost: "tcp://10.0.0.2:2375",
			},
		},
		{
			name: "duration with minutes",
			giveEnv: map[string]string{
				"DOCKGUARD_PINGER_INTERVAL": "1m",
			},
			wantCfg: &config.Config{
				PingerInterval: time.Minute,
			},
		},
		{
			name: "invalid cooldown",
			giveEnv: map[string]string{
				"DOCKGUARD_ALERT_COOLDOWN": "x",
			},
			wantErr: true,
		},
		{
			name: "cooldown below minimum",
			giveEnv: map[string]string{
				"DOCKGUARD_ALERT_COOLDOWN": "100ms",
			},
			wantErr: true,
		},
		{
			name: "invalid pinger interval",
			giveEnv: map[string]string{
				"DOCKGUARD_PINGER_INTERVAL": "not-a-duration",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.giveEnv {
				t.Setenv(k, v)
			}

			got, err := config.Load()
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assertConfigFields(t, got, tt.wantCfg)
		})
	}
}
