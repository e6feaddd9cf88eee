package resolve

// Status is a conflicted file's position in the resolution pipeline.
// Transitions are driven exclusively by the orchestrator; ownership of
// a file is linear through its pipeline, so no stage ever observes a
// concurrent mutation.
type Status int

const (
	StatusDetected Status = iota
	StatusBackedUp
	StatusResolving
	StatusResolved
	StatusFailed
	StatusValidated  // terminal: staged for commit
	StatusRolledBack // terminal: original content restored
)

func (s Status) String() string {
	switch s {
	case StatusDetected:
		return "detected"
	case StatusBackedUp:
		return "backed-up"
	case StatusResolving:
		return "resolving"
	case StatusResolved:
		return "resolved"
	case StatusFailed:
		return "failed"
	case StatusValidated:
		return "validated"
	case StatusRolledBack:
		return "rolled-back"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusValidated || s == StatusRolledBack
}
