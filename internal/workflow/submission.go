package workflow

import (
	"github.com/omarshaarawi/pickem/internal/api/backend"
)

type SubmitState int

const (
	Idle SubmitState = iota
	Submitting
	Succeeded
	Failed
)

func (s SubmitState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Submission tracks one mutation flow: Idle -> Submitting -> Succeeded | Failed. A finished
// flow can be started again.
type Submission struct {
	state    SubmitState
	message  string
	fallback string
}

func NewSubmission(fallback string) *Submission {
	return &Submission{fallback: fallback}
}

// Begin moves to Submitting and clears the previous message.
func (s *Submission) Begin() error {
	if s.state == Submitting {
		return ErrSubmitInFlight
	}
	s.state = Submitting
	s.message = ""
	return nil
}

func (s *Submission) Succeed() {
	s.state = Succeeded
	s.message = ""
}

// Fail records the backend's detail message, or the generic fallback when the response
// carried none.
func (s *Submission) Fail(err error) {
	s.state = Failed
	s.message = backend.DetailOr(err, s.fallback)
}

// Reject records a validation failure caught before any request was made.
func (s *Submission) Reject(err error) {
	s.state = Failed
	s.message = err.Error()
}

func (s *Submission) Reset() {
	s.state = Idle
	s.message = ""
}

func (s *Submission) State() SubmitState {
	return s.state
}

func (s *Submission) Message() string {
	return s.message
}

func (s *Submission) InFlight() bool {
	return s.state == Submitting
}
