package pressure

// State is the memory pressure escalation state.
type State string

const (
	// StateNormal means system memory is below the warning threshold.
	StateNormal State = "normal"

	// StateWarning means system memory crossed the warning threshold.
	StateWarning State = "warning"

	// StateCritical means system memory crossed the critical threshold and
	// corrective action is in progress.
	StateCritical State = "critical"

	// StateRecovering means pressure subsided but containers stopped during
	// the episode still await an operator restart decision.
	StateRecovering State = "recovering"
)

// gaugeValue maps a state onto the exported prometheus gauge.
func gaugeValue(s State) float64 {
	switch s {
	case StateNormal:
		return 0
	case StateWarning:
		return 1
	case StateCritical:
		return 2
	case StateRecovering:
		return 3
	}

	return 0
}
