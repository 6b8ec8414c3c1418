package workflow

import (
	"github.com/google/uuid"
	"github.com/omarshaarawi/pickem/internal/models"
)

type selection struct {
	id   uuid.UUID
	kind models.CandidateKind
}

// SelectionDraft is the unsaved fixed roster for one competition. Each entry remembers
// whether it is a team or a golfer from the moment it was added, so serialization never
// depends on the candidate list at submit time.
type SelectionDraft struct {
	lifecycle
	items []selection
}

func NewSelectionDraft() *SelectionDraft {
	return &SelectionDraft{}
}

func (d *SelectionDraft) Seed(selections []models.FixedSelection) bool {
	if !d.fire(eventSeed) {
		return false
	}
	for _, s := range selections {
		switch {
		case s.TeamID != nil:
			d.items = append(d.items, selection{id: *s.TeamID, kind: models.KindTeam})
		case s.GolferID != nil:
			d.items = append(d.items, selection{id: *s.GolferID, kind: models.KindGolfer})
		}
	}
	return true
}

// Toggle removes candidate when it is already selected and adds it otherwise. Removal is
// always allowed; adding checks the roster cap before availability.
func (d *SelectionDraft) Toggle(comp *models.Competition, candidate models.Candidate) (bool, error) {
	if comp.SelectionsLocked() {
		return false, ErrSelectionsLocked
	}

	if i := d.index(candidate.ID); i >= 0 {
		d.fire(eventEdit)
		d.items = append(d.items[:i], d.items[i+1:]...)
		return false, nil
	}

	if limit := comp.SelectionLimit(); limit > 0 && len(d.items) >= limit {
		return false, &CapacityError{Limit: limit, Unit: unitFor(comp, candidate.Kind)}
	}
	if !candidate.IsAvailable {
		return false, ErrCandidateUnavailable
	}

	kind := candidate.Kind
	if kind == "" {
		kind = models.KindTeam
	}
	d.fire(eventEdit)
	d.items = append(d.items, selection{id: candidate.ID, kind: kind})
	return true, nil
}

func (d *SelectionDraft) Contains(id uuid.UUID) bool {
	return d.index(id) >= 0
}

func (d *SelectionDraft) Len() int {
	return len(d.items)
}

// IDs returns the selected ids in the order they were added.
func (d *SelectionDraft) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(d.items))
	for i, s := range d.items {
		ids[i] = s.id
	}
	return ids
}

func (d *SelectionDraft) Reset() {
	d.fire(eventReset)
	d.items = nil
}

func (d *SelectionDraft) Payload() ([]models.SelectionRequest, error) {
	if len(d.items) == 0 {
		return nil, ErrNoSelections
	}
	out := make([]models.SelectionRequest, len(d.items))
	for i, s := range d.items {
		id := s.id
		if s.kind == models.KindGolfer {
			out[i] = models.SelectionRequest{GolferID: &id}
		} else {
			out[i] = models.SelectionRequest{TeamID: &id}
		}
	}
	return out, nil
}

func (d *SelectionDraft) index(id uuid.UUID) int {
	for i, s := range d.items {
		if s.id == id {
			return i
		}
	}
	return -1
}

func unitFor(comp *models.Competition, kind models.CandidateKind) string {
	if comp.League == nil && kind == models.KindGolfer {
		return "golfers"
	}
	return comp.SelectionUnit()
}
