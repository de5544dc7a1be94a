package services

import (
	"fmt"
	"strings"
	"time"

	"app-review-api/models"
)

// Audit description template. FormatTransition and ParseTransition are
// coupled through these markers: every description the engine writes must
// round-trip through the parser unchanged.
const (
	transitionOldMarker = "old: "
	transitionNewMarker = "\n    new: "
)

// FormatTransition renders the audit description for a state change.
func FormatTransition(oldName, newName string) string {
	return fmt.Sprintf("Submission State\n    old: %s\n    new: %s", oldName, newName)
}

// ParseTransition parses an audit description into a typed transaction
// record. Both state tokens are stripped of whitespace and matched
// case-sensitively against the canonical state names; anything else is
// ErrUnparsableRecord.
func ParseTransition(description string, recordedAt time.Time) (models.Transaction, error) {
	oldIdx := strings.Index(description, transitionOldMarker)
	newIdx := strings.Index(description, transitionNewMarker)
	if oldIdx < 0 || newIdx < 0 || newIdx < oldIdx+len(transitionOldMarker) {
		return models.Transaction{}, fmt.Errorf("%w: missing state markers", ErrUnparsableRecord)
	}

	oldToken := models.StripStateToken(description[oldIdx+len(transitionOldMarker) : newIdx])
	newToken := models.StripStateToken(description[newIdx+len(transitionNewMarker):])

	if !models.IsCanonicalStateName(oldToken) {
		return models.Transaction{}, fmt.Errorf("%w: unknown old state %q", ErrUnparsableRecord, oldToken)
	}
	if !models.IsCanonicalStateName(newToken) {
		return models.Transaction{}, fmt.Errorf("%w: unknown new state %q", ErrUnparsableRecord, newToken)
	}

	return models.Transaction{
		TransactionDate: recordedAt,
		Old:             oldToken,
		New:             newToken,
	}, nil
}
