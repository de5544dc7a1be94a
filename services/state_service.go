package services

import (
	"fmt"
	"time"

	"app-review-api/config"
	"app-review-api/models"

	"gorm.io/gorm"
)

// GetStates returns the canonical state list in display order.
func GetStates() ([]models.SubmissionState, error) {
	var states []models.SubmissionState
	if err := config.DB.Order("sort_order").Find(&states).Error; err != nil {
		return nil, fmt.Errorf("failed to load submission states: %w", err)
	}
	return states, nil
}

// loadStatesByID fetches the canonical list keyed by state id. Loaded fresh
// on every state change so renamed or newly added states take effect
// immediately; this reference data is deliberately not cached.
func loadStatesByID() (map[string]models.SubmissionState, error) {
	states, err := GetStates()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.SubmissionState, len(states))
	for _, state := range states {
		byID[state.StateID] = state
	}
	return byID, nil
}

// ChangeState moves a submission to a new canonical state and, when
// recordHistory is set, appends the audit record describing the change.
//
// There is no cross-store transaction: when the current-state write lands
// but the audit append fails, the change is partially applied and the error
// is ErrHistoryWriteFailed so callers can reconcile the audit row alone via
// AppendMissingHistory. Concurrent changes to the same submission are
// last-writer-wins; the audit trail keeps one row per change either way.
func ChangeState(submissionID int, newStateID, oldStateID string, recordHistory bool) error {
	states, err := loadStatesByID()
	if err != nil {
		return err
	}

	newState, ok := states[newStateID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownState, newStateID)
	}
	oldState, ok := states[oldStateID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownState, oldStateID)
	}

	description := FormatTransition(oldState.StateName, newState.StateName)

	result := config.DB.Model(&models.Submission{}).
		Where("submission_id = ?", submissionID).
		Update("state_id", newStateID)
	if result.Error != nil {
		return fmt.Errorf("failed to update submission state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("submission %d: %w", submissionID, gorm.ErrRecordNotFound)
	}

	if !recordHistory {
		return nil
	}

	transaction := models.SubmissionTransaction{
		SubmissionID:    submissionID,
		Description:     description,
		TransactionDate: time.Now(),
	}
	if err := config.DB.Create(&transaction).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrHistoryWriteFailed, err)
	}
	return nil
}

// AppendMissingHistory re-runs only the audit append for a state change
// whose history write failed. Idempotent: when the latest audit row for the
// submission already records this exact transition, nothing is written.
func AppendMissingHistory(submissionID int, newStateID, oldStateID string) error {
	states, err := loadStatesByID()
	if err != nil {
		return err
	}

	newState, ok := states[newStateID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownState, newStateID)
	}
	oldState, ok := states[oldStateID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownState, oldStateID)
	}

	description := FormatTransition(oldState.StateName, newState.StateName)

	var latest models.SubmissionTransaction
	err = config.DB.Where("submission_id = ?", submissionID).
		Order("transaction_date DESC, transaction_id DESC").
		Limit(1).
		Find(&latest).Error
	if err != nil {
		return fmt.Errorf("failed to load latest audit record: %w", err)
	}
	if latest.TransactionID != 0 && latest.Description == description {
		return nil
	}

	transaction := models.SubmissionTransaction{
		SubmissionID:    submissionID,
		Description:     description,
		TransactionDate: time.Now(),
	}
	if err := config.DB.Create(&transaction).Error; err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}
