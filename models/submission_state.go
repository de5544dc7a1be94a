package models

import "strings"

// Canonical submission state names. These are the display names stored in
// submission_states.state_name and embedded verbatim in audit descriptions,
// so renaming one is a data migration, not a code edit.
const (
	StateNameNewSubmission = "NewSubmission"
	StateNameTesting       = "Testing"
	StateNamePendingReview = "PendingReview"
	StateNameApproved      = "Approved"
	StateNameRejected      = "Rejected"
	StateNamePublished     = "Published"
)

var canonicalStateNames = []string{
	StateNameNewSubmission,
	StateNameTesting,
	StateNamePendingReview,
	StateNameApproved,
	StateNameRejected,
	StateNamePublished,
}

// SubmissionState represents the submission_states table, the authoritative
// list of valid states. Any state may move to any other; there is no
// transition graph beyond membership in this table.
type SubmissionState struct {
	StateID   string `gorm:"primaryKey;column:state_id" json:"state_id"`
	StateName string `gorm:"column:state_name" json:"state_name"`
	SortOrder int    `gorm:"column:sort_order" json:"sort_order"`
}

// TableName specifies the table for SubmissionState.
func (SubmissionState) TableName() string {
	return "submission_states"
}

// CanonicalStateNames returns the known state names in canonical order.
func CanonicalStateNames() []string {
	names := make([]string, len(canonicalStateNames))
	copy(names, canonicalStateNames)
	return names
}

// IsCanonicalStateName reports whether name matches a canonical state name
// exactly (case-sensitive, internal whitespace already stripped by callers).
func IsCanonicalStateName(name string) bool {
	for _, known := range canonicalStateNames {
		if name == known {
			return true
		}
	}
	return false
}

// StripStateToken removes all whitespace from a raw state token before it is
// matched against the canonical names.
func StripStateToken(token string) string {
	return strings.Join(strings.Fields(token), "")
}
