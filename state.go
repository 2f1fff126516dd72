package ripple

// State describes what a ChannelNode is doing.
type State int32

const (
	// StateIdle indicates the node has targets and no change in progress.
	StateIdle State = iota

	// StateSuppressing indicates at least one Begin is outstanding; fires
	// are folded into the transaction until the outermost End.
	StateSuppressing

	// StateFiring indicates the node is invoking its targets.
	StateFiring

	// StateDestroyed indicates the node has been torn down and must not be
	// used.
	StateDestroyed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSuppressing:
		return "suppressing"
	case StateFiring:
		return "firing"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}
