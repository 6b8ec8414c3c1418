package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/omarshaarawi/pickem/internal/models"
	"github.com/omarshaarawi/pickem/internal/workflow"
)

const lockedNotice = "🔒 Selections are locked once the competition has started. Your roster can no longer be changed."

func (s *PickemService) rosterCandidates(ctx context.Context, ctrl *workflow.Controller) ([]models.Candidate, string, error) {
	if err := ctrl.Load(ctx); err != nil {
		return nil, "", fmt.Errorf("error loading selections: %w", err)
	}
	candidates, err := ctrl.Candidates(ctx)
	if msg, ok := userMessage(err); ok {
		return nil, msg, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("error fetching selections: %w", err)
	}
	return candidates, "", nil
}

func (s *PickemService) Candidates(ctx context.Context, chatID int64) (string, error) {
	_, ctrl, prompt := s.current(ctx, chatID)
	if ctrl == nil {
		return prompt, nil
	}
	comp, err := ctrl.Competition(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching competition: %w", err)
	}
	candidates, msg, err := s.rosterCandidates(ctx, ctrl)
	if msg != "" || err != nil {
		return msg, err
	}

	unit := comp.SelectionUnit()
	limit := comp.SelectionLimit()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 *Available %s*", titleCase(unit)))
	selected := len(ctrl.SelectedIDs())
	if limit > 0 {
		sb.WriteString(fmt.Sprintf(" (%d/%d selected)", selected, limit))
	} else {
		sb.WriteString(fmt.Sprintf(" (%d selected)", selected))
	}
	sb.WriteString("\n\n")

	if comp.SelectionsLocked() {
		sb.WriteString(lockedNotice + "\n\n")
	}
	if len(candidates) == 0 {
		sb.WriteString(fmt.Sprintf("No %s available.\n", unit))
	}

	for i, cand := range candidates {
		mark := "▫️"
		suffix := ""
		switch {
		case ctrl.Selected(cand.ID):
			mark = "✅"
		case !cand.IsAvailable:
			mark = "⛔"
			suffix = " (taken)"
		}
		sb.WriteString(fmt.Sprintf("%d. %s %s%s\n", i+1, mark, candidateLabel(cand), suffix))
	}

	if !comp.SelectionsLocked() {
		if ctrl.SelectionDraftState() == workflow.Dirty {
			sb.WriteString("\n✏️ You have unsaved changes. Send /submitselections to save them.")
		}
		sb.WriteString("\nSend /select <number|name> to add or remove.")
	}
	return sb.String(), nil
}

func resolveCandidate(candidates []models.Candidate, arg string) (models.Candidate, bool) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(candidates) {
			return models.Candidate{}, false
		}
		return candidates[n-1], true
	}
	choices := make([][]string, len(candidates))
	for i, cand := range candidates {
		choices[i] = []string{cand.Name, cand.Abbreviation, strings.TrimSpace(cand.City + " " + cand.Name)}
	}
	if i := bestMatch(arg, choices); i >= 0 {
		return candidates[i], true
	}
	return models.Candidate{}, false
}

// Select toggles a team or golfer on the roster draft.
func (s *PickemService) Select(ctx context.Context, chatID int64, arg string) (string, error) {
	_, ctrl, prompt := s.current(ctx, chatID)
	if ctrl == nil {
		return prompt, nil
	}
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "Usage: /select <number|name>", nil
	}

	comp, err := ctrl.Competition(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching competition: %w", err)
	}
	if comp.Mode == models.ModeFixedTeams && comp.SelectionsLocked() {
		return lockedNotice, nil
	}

	candidates, msg, err := s.rosterCandidates(ctx, ctrl)
	if msg != "" || err != nil {
		return msg, err
	}
	cand, ok := resolveCandidate(candidates, arg)
	if !ok {
		return fmt.Sprintf("🔍 No match for '%s'. Send /candidates to see the list.", arg), nil
	}

	selected, err := ctrl.ToggleSelection(cand.ID)
	if err != nil {
		if msg, ok := userMessage(err); ok {
			return "❌ " + msg, nil
		}
		return "", err
	}

	count := len(ctrl.SelectedIDs())
	progress := fmt.Sprintf("%d selected", count)
	if limit := comp.SelectionLimit(); limit > 0 {
		progress = fmt.Sprintf("%d/%d selected", count, limit)
	}
	if selected {
		return fmt.Sprintf("✅ Added *%s* (%s). Send /submitselections when you're done.", cand.Name, progress), nil
	}
	return fmt.Sprintf("Removed *%s* (%s).", cand.Name, progress), nil
}

func (s *PickemService) SubmitSelections(ctx context.Context, chatID int64) (string, error) {
	_, ctrl, prompt := s.current(ctx, chatID)
	if ctrl == nil {
		return prompt, nil
	}

	err := ctrl.SubmitSelections(ctx)
	switch {
	case err == nil:
		return fmt.Sprintf("✅ Selections submitted successfully! %d on your roster.", len(ctrl.SelectedIDs())), nil
	case errors.Is(err, workflow.ErrSubmitInFlight):
		return "Hold on, your selections are still being submitted.", nil
	case errors.Is(err, workflow.ErrSelectionsLocked):
		return lockedNotice, nil
	}
	if msg, ok := userMessage(err); ok {
		return "❌ " + msg, nil
	}
	if st, msg := ctrl.SelectionSubmission(); st == workflow.Failed {
		return "❌ " + msg, nil
	}
	return "", err
}
