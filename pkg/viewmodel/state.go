package viewmodel

// State is the position of a view-model in its update cycle.
type State int

const (
	StateIdle State = iota
	StateRefreshing
	StateRestoring
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRefreshing:
		return "refreshing"
	case StateRestoring:
		return "restoring"
	default:
		return "unknown"
	}
}
