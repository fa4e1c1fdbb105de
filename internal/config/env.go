package config

import "time"

// Env key constants. All dockguard configuration env vars use DOCKGUARD_ prefix;
// duration values support explicit units (e.g. 5m, 40s, 2h).

// Log level: debug, info, warn, error.
const envKeyLogLevel = "DOCKGUARD_LOG_LEVEL"

// Log format: json or text.
const envKeyLogFormat = "DOCKGUARD_LOG_FORMAT"

// Port for health/readiness/command HTTP server.
const envKeyHTTPPort = "DOCKGUARD_HTTP_PORT"

// Port for Prometheus metrics (GET /metrics).
const envKeyMetricsPort = "DOCKGUARD_METRICS_PORT"

// Docker Engine API endpoint. If unset, DOCKER_HOST is used as fallback.
const envKeyDockerHost = "DOCKGUARD_DOCKER_HOST"

// Path to the YAML thresholds file (monitor thresholds + pressure policy).
const envKeyThresholdsFile = "DOCKGUARD_THRESHOLDS_FILE"

// Webhook URL for alert delivery. Empty disables the webhook sink.
const envKeyAlertWebhookURL = "DOCKGUARD_ALERT_WEBHOOK_URL"

// Cron expression for the scheduled status report. Empty disables the report.
const envKeyReportSchedule = "DOCKGUARD_REPORT_SCHEDULE"

// Report schedule timezone (IANA, e.g. America/New_York). Defaults to UTC.
const envKeyReportTZ = "DOCKGUARD_REPORT_TZ"

// Cooldown window shared by all alert keys. Units: s, m, h (e.g. 5m).
const (
	envKeyAlertCooldown = "DOCKGUARD_ALERT_COOLDOWN"
	envMinAlertCooldown = time.Second
)

// Pinger check interval. Units: s, m, h (e.g. 10s, 1m).
const (
	envKeyPingerInterval = "DOCKGUARD_PINGER_INTERVAL"
	envMinPingerInterval = time.Second
)

// Standard docker env key used as fallback when DOCKGUARD_DOCKER_HOST is unset.
const envKeyDockerHostFallback = "DOCKER_HOST"
