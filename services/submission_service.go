package services

import (
	"fmt"
	"log"
	"sort"

	"app-review-api/config"
	"app-review-api/models"
)

// StateFilter selects which slice of the pipeline a submission listing covers.
type StateFilter string

const (
	// StateFilterTesting lists submissions currently in Testing.
	StateFilterTesting StateFilter = "testing"
	// StateFilterPendingReview lists submissions in the review set:
	// PendingReview plus the decided-but-unpublished states.
	StateFilterPendingReview StateFilter = "pending-review"
)

// submissionSelect is the flat join the hydrator consumes: one row per
// submission x audit transaction, submission fields duplicated across rows.
const submissionSelect = `
	SELECT s.submission_id,
	       s.nick_name,
	       s.version,
	       s.image_guid,
	       s.state_id,
	       st.state_name,
	       s.created_at,
	       t.description,
	       t.transaction_date
	FROM submissions s
	LEFT JOIN submission_states st ON st.state_id = s.state_id
	LEFT JOIN submission_transactions t ON t.submission_id = s.submission_id`

func querySubmissions(where string, args ...interface{}) (*RowSet, error) {
	query := submissionSelect
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY s.submission_id, t.transaction_date"

	rows, err := config.DB.Raw(query, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	return ReadRows(rows)
}

// FindSubmission returns the single submission matching nickname+version
// with its full transaction history and workflow runs, or nil when none
// matches. Absence is not an error.
func FindSubmission(nickName, version string) (*models.Submission, error) {
	rs, err := querySubmissions("s.nick_name = ? AND s.version = ?", nickName, version)
	if err != nil {
		return nil, err
	}

	submissions, err := hydrateSubmissions(rs, true)
	if err != nil {
		return nil, err
	}
	if len(submissions) == 0 {
		return nil, nil
	}

	submission := submissions[0]
	workflows, err := WorkflowsForApp(submission.SubmissionID, submission.Version)
	if err != nil {
		return nil, err
	}
	submission.Workflows = workflows
	return submission, nil
}

// ListSubmissionsInState returns submissions in the filtered states, newest
// first, each with its transaction history.
func ListSubmissionsInState(filter StateFilter) ([]*models.Submission, error) {
	var (
		rs  *RowSet
		err error
	)
	switch filter {
	case StateFilterTesting:
		rs, err = querySubmissions("st.state_name = ?", models.StateNameTesting)
	case StateFilterPendingReview:
		rs, err = querySubmissions("st.state_name IN (?, ?, ?)",
			models.StateNamePendingReview, models.StateNameApproved, models.StateNameRejected)
	default:
		return nil, fmt.Errorf("unknown state filter %q", filter)
	}
	if err != nil {
		return nil, err
	}

	return hydrateSubmissions(rs, true)
}

// hydrateSubmissions folds the flat join into one aggregate per distinct
// submission id. First-seen submission fields win; rows with a garbled id
// or an unparsable transaction are skipped, never fatal.
func hydrateSubmissions(rs *RowSet, withTransactions bool) ([]*models.Submission, error) {
	if err := rs.Require("submission_id"); err != nil {
		return nil, err
	}

	seen := make(map[int]*models.Submission)
	submissions := make([]*models.Submission, 0, rs.Len())

	for i := 0; i < rs.Len(); i++ {
		id, err := rs.Int(i, "submission_id")
		if err != nil {
			log.Printf("Skipping submission row %d: %v", i, err)
			continue
		}

		submission, ok := seen[id]
		if !ok {
			submission = &models.Submission{SubmissionID: id}
			submission.NickName, _ = rs.Lookup(i, "nick_name")
			submission.Version, _ = rs.Lookup(i, "version")
			submission.ImageGuid, _ = rs.Lookup(i, "image_guid")
			submission.StateID, _ = rs.Lookup(i, "state_id")
			submission.CurrentState, _ = rs.Lookup(i, "state_name")
			// An unparsable creation date degrades to the zero time rather
			// than aborting the whole reconstruction.
			submission.CreatedDate, _ = rs.Time(i, "created_at")
			submission.Transactions = []models.Transaction{}

			seen[id] = submission
			submissions = append(submissions, submission)
		}

		if !withTransactions {
			continue
		}
		description, ok := rs.Lookup(i, "description")
		if !ok || description == "" {
			// LEFT JOIN row with no audit entry for this submission.
			continue
		}
		recordedAt, _ := rs.Time(i, "transaction_date")
		tx, err := ParseTransition(description, recordedAt)
		if err != nil {
			log.Printf("Skipping transaction for submission %d: %v", id, err)
			continue
		}
		submission.Transactions = append(submission.Transactions, tx)
	}

	sort.SliceStable(submissions, func(i, j int) bool {
		return submissions[i].CreatedDate.After(submissions[j].CreatedDate)
	})
	return submissions, nil
}
