package mission

// State is a phase of the mission.
type State int

const (
	StateSearching State = iota + 1
	StatePlanning
	StateNavigating
	StateDelivering
	StateReplanning
	StateReturning
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "SEARCHING"
	case StatePlanning:
		return "PLANNING"
	case StateNavigating:
		return "NAVIGATING"
	case StateDelivering:
		return "DELIVERING"
	case StateReplanning:
		return "REPLANNING"
	case StateReturning:
		return "RETURNING"
	case StateComplete:
		return "COMPLETE"
	default:
		return "UNKNOWN"
	}
}

// Transition is one recorded state change.
type Transition struct {
	Tick    int
	SimTime float64
	From    State
	To      State
}
