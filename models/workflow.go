package models

import "time"

// Known workflow fail reasons recorded by the external test pipeline.
const (
	FailReasonTestFailure     = "TestFailure"
	FailReasonPolicyViolation = "PolicyViolation"
	FailReasonCrash           = "Crash"
	FailReasonTimeout         = "Timeout"
)

// AppWorkFlow represents the workflow_runs table plus its hydrated step
// list: one execution run of the external test/validation pipeline for a
// submission version. TransactionID correlates the run back to the
// submission's audit trail in the submissions store.
type AppWorkFlow struct {
	WorkflowInstanceID string    `gorm:"primaryKey;column:workflow_instance_id" json:"workflow_instance_id"`
	AppID              int       `gorm:"column:app_id" json:"app_id"`
	AppVersion         string    `gorm:"column:app_version" json:"app_version"`
	TransactionID      int       `gorm:"column:transaction_id" json:"transaction_id"`
	TimeCreated        time.Time `gorm:"column:time_created" json:"time_created"`
	Failed             bool      `gorm:"column:failed" json:"failed"`
	FailReason         *string   `gorm:"column:fail_reason" json:"fail_reason,omitempty"`
	AssignedTo         *string   `gorm:"column:assigned_to" json:"assigned_to,omitempty"`

	Steps []SubmissionStatus `gorm:"-" json:"steps"`
}

// TableName specifies the table for AppWorkFlow.
func (AppWorkFlow) TableName() string {
	return "workflow_runs"
}

// Assigned reports whether the run has been picked up by a reviewer.
func (w *AppWorkFlow) Assigned() bool {
	return w.AssignedTo != nil && *w.AssignedTo != ""
}

// SubmissionStatus represents one workflow_steps row: a single step of a
// workflow run. Date is nil for steps the run has not reached yet.
type SubmissionStatus struct {
	StepID             int        `gorm:"primaryKey;column:step_id" json:"step_id"`
	WorkflowInstanceID string     `gorm:"column:workflow_instance_id" json:"workflow_instance_id"`
	Status             string     `gorm:"column:status" json:"status"`
	Date               *time.Time `gorm:"column:status_date" json:"date,omitempty"`
	Pass               bool       `gorm:"column:pass" json:"pass"`
	Log                *string    `gorm:"column:log" json:"log,omitempty"`
}

// TableName specifies the table for SubmissionStatus.
func (SubmissionStatus) TableName() string {
	return "workflow_steps"
}
