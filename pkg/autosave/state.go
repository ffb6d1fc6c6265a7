package autosave

// State is the coordinator's position in its save cycle.
type State int

const (
	// Idle means nothing is scheduled or in flight.
	Idle State = iota
	// Scheduled means a save is waiting out the debounce delay.
	Scheduled
	// Running means a save is talking to the store.
	Running
	// ConflictRejected means the last save was refused because another
	// writer owns different data under the key. The next Schedule leaves it.
	ConflictRejected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case Running:
		return "running"
	case ConflictRejected:
		return "conflict_rejected"
	default:
		return "unknown"
	}
}
