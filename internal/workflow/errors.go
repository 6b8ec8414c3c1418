package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrNoPicks              = errors.New("Please select at least one pick.")
	ErrNoSelections         = errors.New("Please make at least one selection.")
	ErrGameLocked           = errors.New("This game has already started - picks are locked.")
	ErrUnknownGame          = errors.New("That game is not on the schedule for this date.")
	ErrUnknownTeam          = errors.New("That team is not playing in this game.")
	ErrUnknownCandidate     = errors.New("That selection is not in the list for this competition.")
	ErrCandidateUnavailable = errors.New("This selection has already been taken by another participant.")
	ErrSelectionsLocked     = errors.New("Selections are locked once the competition has started.")
	ErrNotParticipant       = errors.New("Join this competition to view details and start competing!")
	ErrWrongMode            = errors.New("This action is not available in this competition's mode.")
	ErrSubmitInFlight       = errors.New("A submission is already in progress.")
	ErrViewChanged          = errors.New("The view changed before the request finished.")
)

// CapacityError is returned when adding to a fixed roster that is already full.
type CapacityError struct {
	Limit int
	Unit  string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("You can select at most %d %s.", e.Limit, e.Unit)
}
