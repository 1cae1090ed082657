package pipeline

// State is a point in one lesson run.
type State string

const (
	StateLoaded           State = "loaded"
	StateResourcesChecked State = "resources_checked"
	StateGenerating       State = "generating"
	StateAssembled        State = "assembled"
	StateDone             State = "done"
)

var stateOrder = []State{StateLoaded, StateResourcesChecked, StateGenerating, StateAssembled, StateDone}

func (s State) rank() int {
	for i, candidate := range stateOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

// Next returns the state that follows s, or false at Done.
func (s State) Next() (State, bool) {
	rank := s.rank()
	if rank < 0 || rank == len(stateOrder)-1 {
		return "", false
	}
	return stateOrder[rank+1], true
}

// Reached reports whether s is at or beyond target.
func (s State) Reached(target State) bool {
	return s.rank() >= 0 && s.rank() >= target.rank()
}
