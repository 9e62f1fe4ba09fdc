package views

// State is the lifecycle position of a view.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Empty
	Failed
	Submitting
	Succeeded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Empty:
		return "empty"
	case Failed:
		return "failed"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	default:
		return "unknown"
	}
}
