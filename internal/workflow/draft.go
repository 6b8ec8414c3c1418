package workflow

// DraftState is the lifecycle of locally edited selections relative to the server copy.
type DraftState int

const (
	// Unseeded drafts take the next server snapshot as their starting point.
	Unseeded DraftState = iota
	// Seeded drafts mirror the server snapshot they were built from.
	Seeded
	// Dirty drafts carry user edits; only a reset replaces them.
	Dirty
)

func (s DraftState) String() string {
	switch s {
	case Unseeded:
		return "unseeded"
	case Seeded:
		return "seeded"
	case Dirty:
		return "dirty"
	default:
		return "unknown"
	}
}

type draftEvent int

const (
	eventSeed draftEvent = iota
	eventEdit
	eventReset
)

// transitions lists the accepted events per state. An event missing from a state's row is
// ignored and leaves the draft untouched.
var transitions = map[DraftState]map[draftEvent]DraftState{
	Unseeded: {eventSeed: Seeded, eventEdit: Dirty, eventReset: Unseeded},
	Seeded:   {eventEdit: Dirty, eventReset: Unseeded},
	Dirty:    {eventEdit: Dirty, eventReset: Unseeded},
}

type lifecycle struct {
	state DraftState
}

func (l *lifecycle) fire(ev draftEvent) bool {
	next, ok := transitions[l.state][ev]
	if !ok {
		return false
	}
	l.state = next
	return true
}

func (l *lifecycle) State() DraftState {
	return l.state
}
