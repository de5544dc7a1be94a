package models

import "time"

// Submission represents the submissions table plus the hydrated aggregate
// returned to callers: one app version moving through the review/publish
// pipeline, owning its ordered audit transactions and workflow runs.
type Submission struct {
	SubmissionID int       `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	NickName     string    `gorm:"column:nick_name" json:"nick_name"`
	Version      string    `gorm:"column:version" json:"version"`
	ImageGuid    string    `gorm:"column:image_guid" json:"image_guid,omitempty"`
	StateID      string    `gorm:"column:state_id" json:"state_id"`
	CreatedDate  time.Time `gorm:"column:created_at" json:"created_date"`

	// Hydrated fields, not persisted on the submissions row itself.
	CurrentState string        `gorm:"-" json:"current_state"`
	Transactions []Transaction `gorm:"-" json:"transactions"`
	Workflows    []AppWorkFlow `gorm:"-" json:"workflows"`
}

// TableName specifies the table for Submission.
func (Submission) TableName() string {
	return "submissions"
}

// TurnAroundTime is the elapsed whole days between the earliest and latest
// audit transaction, or 0 when fewer than two transactions are known.
func (s *Submission) TurnAroundTime() int {
	if len(s.Transactions) < 2 {
		return 0
	}
	earliest, latest := s.Transactions[0].TransactionDate, s.Transactions[0].TransactionDate
	for _, tx := range s.Transactions[1:] {
		if tx.TransactionDate.Before(earliest) {
			earliest = tx.TransactionDate
		}
		if tx.TransactionDate.After(latest) {
			latest = tx.TransactionDate
		}
	}
	return int(latest.Sub(earliest).Hours() / 24)
}

// Transaction is one parsed audit record: a single state change with the
// timestamp the change was recorded. Constructed only by parsing a
// submission_transactions description; never written directly.
type Transaction struct {
	TransactionDate time.Time `json:"transaction_date"`
	Old             string    `json:"old"`
	New             string    `json:"new"`
}

// SubmissionTransaction represents the submission_transactions table: the
// append-only audit trail behind each submission's Transaction history.
type SubmissionTransaction struct {
	TransactionID   int       `gorm:"primaryKey;column:transaction_id" json:"transaction_id"`
	SubmissionID    int       `gorm:"column:submission_id" json:"submission_id"`
	Description     string    `gorm:"column:description" json:"description"`
	TransactionDate time.Time `gorm:"column:transaction_date" json:"transaction_date"`
}

// TableName specifies the table for SubmissionTransaction.
func (SubmissionTransaction) TableName() string {
	return "submission_transactions"
}
