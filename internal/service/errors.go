package service

import (
	"errors"

	"github.com/omarshaarawi/pickem/internal/workflow"
)

var userErrors = []error{
	workflow.ErrNoPicks,
	workflow.ErrNoSelections,
	workflow.ErrGameLocked,
	workflow.ErrUnknownGame,
	workflow.ErrUnknownTeam,
	workflow.ErrUnknownCandidate,
	workflow.ErrCandidateUnavailable,
	workflow.ErrSelectionsLocked,
	workflow.ErrNotParticipant,
	workflow.ErrWrongMode,
	workflow.ErrSubmitInFlight,
	workflow.ErrViewChanged,
}

// userMessage reports whether err is a validation failure meant to be shown as is.
func userMessage(err error) (string, bool) {
	var capErr *workflow.CapacityError
	if errors.As(err, &capErr) {
		return capErr.Error(), true
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return target.Error(), true
		}
	}
	return "", false
}
