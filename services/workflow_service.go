package services

import (
	"fmt"
	"log"
	"sort"

	"app-review-api/config"
	"app-review-api/models"
	"app-review-api/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkflowFilter selects one of the run views over the workflow store.
type WorkflowFilter string

const (
	// WorkflowFilterLatest keeps the most recent run per distinct
	// (app id, app version) pair.
	WorkflowFilterLatest WorkflowFilter = "latest"
	// WorkflowFilterCompleted keeps runs whose every step has been reached.
	WorkflowFilterCompleted WorkflowFilter = "completed"
	// WorkflowFilterTested keeps runs that finished the pipeline without
	// failing, runs awaiting assignment first.
	WorkflowFilterTested WorkflowFilter = "tested"
)

// latestRunLimit caps the distinct (app id, app version) view.
const latestRunLimit = 20

// workflowSelect is the flat join the aggregator consumes: one row per
// workflow run x step, run fields duplicated across its step rows.
const workflowSelect = `
	SELECT w.workflow_instance_id,
	       w.app_id,
	       w.app_version,
	       w.transaction_id,
	       w.time_created,
	       w.failed,
	       w.fail_reason,
	       w.assigned_to,
	       s.step_id,
	       s.status,
	       s.status_date,
	       s.pass,
	       s.log
	FROM workflow_runs w
	LEFT JOIN workflow_steps s ON s.workflow_instance_id = w.workflow_instance_id`

func queryWorkflows(where string, args ...interface{}) (*RowSet, error) {
	query := workflowSelect
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY w.time_created DESC, w.workflow_instance_id, s.step_id"

	rows, err := config.WorkflowDB.Raw(query, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow runs: %w", err)
	}
	defer rows.Close()

	return ReadRows(rows)
}

// hydrateWorkflows folds the flat join into one aggregate per distinct
// workflow instance id, each owning its ordered step list.
func hydrateWorkflows(rs *RowSet) ([]*models.AppWorkFlow, error) {
	if err := rs.Require("workflow_instance_id"); err != nil {
		return nil, err
	}

	seen := make(map[string]*models.AppWorkFlow)
	runs := make([]*models.AppWorkFlow, 0, rs.Len())

	for i := 0; i < rs.Len(); i++ {
		instanceID, ok := rs.Lookup(i, "workflow_instance_id")
		if !ok || instanceID == "" {
			log.Printf("Skipping workflow row %d: missing instance id", i)
			continue
		}

		run, ok := seen[instanceID]
		if !ok {
			run = &models.AppWorkFlow{WorkflowInstanceID: instanceID}
			run.AppID, _ = rs.Int(i, "app_id")
			run.AppVersion, _ = rs.Lookup(i, "app_version")
			run.TransactionID, _ = rs.Int(i, "transaction_id")
			run.TimeCreated, _ = rs.Time(i, "time_created")
			run.Failed = rs.Bool(i, "failed")
			if reason, ok := rs.Lookup(i, "fail_reason"); ok && reason != "" {
				run.FailReason = &reason
			}
			if assignee, ok := rs.Lookup(i, "assigned_to"); ok && assignee != "" {
				run.AssignedTo = &assignee
			}
			run.Steps = []models.SubmissionStatus{}

			seen[instanceID] = run
			runs = append(runs, run)
		}

		stepID, err := rs.Int(i, "step_id")
		if err != nil {
			// LEFT JOIN row with no step for this run.
			continue
		}
		step := models.SubmissionStatus{
			StepID:             stepID,
			WorkflowInstanceID: instanceID,
			Pass:               rs.Bool(i, "pass"),
		}
		step.Status, _ = rs.Lookup(i, "status")
		if date, ok := rs.Time(i, "status_date"); ok {
			step.Date = &date
		}
		if text, ok := rs.Lookup(i, "log"); ok && text != "" {
			step.Log = &text
		}
		run.Steps = append(run.Steps, step)
	}

	for _, run := range runs {
		sortSteps(run.Steps)
	}
	return runs, nil
}

// sortSteps orders a run's steps: steps not yet reached (no date) last,
// then date ascending, then step id ascending.
func sortSteps(steps []models.SubmissionStatus) {
	sort.SliceStable(steps, func(i, j int) bool {
		a, b := steps[i], steps[j]
		switch {
		case a.Date == nil && b.Date == nil:
			return a.StepID < b.StepID
		case a.Date == nil:
			return false
		case b.Date == nil:
			return true
		case !a.Date.Equal(*b.Date):
			return a.Date.Before(*b.Date)
		}
		return a.StepID < b.StepID
	})
}

func completed(run *models.AppWorkFlow) bool {
	if len(run.Steps) == 0 {
		return false
	}
	for _, step := range run.Steps {
		if step.Date == nil {
			return false
		}
	}
	return true
}

// ListWorkflowRuns returns workflow runs under one of the three views.
// The views are projections over the same aggregates, not separate state.
func ListWorkflowRuns(filter WorkflowFilter) ([]*models.AppWorkFlow, error) {
	rs, err := queryWorkflows("")
	if err != nil {
		return nil, err
	}
	runs, err := hydrateWorkflows(rs)
	if err != nil {
		return nil, err
	}
	return applyWorkflowFilter(runs, filter)
}

// applyWorkflowFilter projects the hydrated runs into the requested view.
func applyWorkflowFilter(runs []*models.AppWorkFlow, filter WorkflowFilter) ([]*models.AppWorkFlow, error) {
	switch filter {
	case WorkflowFilterLatest:
		type appKey struct {
			id      int
			version string
		}
		picked := make(map[appKey]bool)
		latest := make([]*models.AppWorkFlow, 0, latestRunLimit)
		for _, run := range runs {
			key := appKey{run.AppID, run.AppVersion}
			if picked[key] {
				continue
			}
			picked[key] = true
			latest = append(latest, run)
			if len(latest) == latestRunLimit {
				break
			}
		}
		return latest, nil

	case WorkflowFilterCompleted:
		finished := make([]*models.AppWorkFlow, 0, len(runs))
		for _, run := range runs {
			if completed(run) {
				finished = append(finished, run)
			}
		}
		return finished, nil

	case WorkflowFilterTested:
		tested := make([]*models.AppWorkFlow, 0, len(runs))
		for _, run := range runs {
			if completed(run) && !run.Failed {
				tested = append(tested, run)
			}
		}
		// Runs awaiting assignment first; within each group the store
		// ordering (newest first) is preserved.
		sort.SliceStable(tested, func(i, j int) bool {
			return !tested[i].Assigned() && tested[j].Assigned()
		})
		return tested, nil
	}

	return nil, fmt.Errorf("unknown workflow filter %q", filter)
}

// WorkflowsForApp returns every run recorded for one app version, newest
// first, for attachment to a hydrated submission.
func WorkflowsForApp(appID int, version string) ([]models.AppWorkFlow, error) {
	rs, err := queryWorkflows("w.app_id = ? AND w.app_version = ?", appID, version)
	if err != nil {
		return nil, err
	}
	runs, err := hydrateWorkflows(rs)
	if err != nil {
		return nil, err
	}

	owned := make([]models.AppWorkFlow, 0, len(runs))
	for _, run := range runs {
		owned = append(owned, *run)
	}
	return owned, nil
}

// AssignWorkflow records the reviewer now responsible for a run and sends a
// best-effort notification. Mail failures are logged, never returned.
func AssignWorkflow(workflowInstanceID string, appID int, version, assignee string) error {
	if _, err := uuid.Parse(workflowInstanceID); err != nil {
		return fmt.Errorf("%w: workflow instance id %q is not a UUID", ErrInvalidArgument, workflowInstanceID)
	}
	assignee = utils.SanitizeInput(assignee)
	if assignee == "" {
		return fmt.Errorf("%w: assignee is required", ErrInvalidArgument)
	}

	result := config.WorkflowDB.Model(&models.AppWorkFlow{}).
		Where("workflow_instance_id = ? AND app_id = ? AND app_version = ?",
			workflowInstanceID, appID, version).
		Update("assigned_to", assignee)
	if result.Error != nil {
		return fmt.Errorf("failed to assign workflow run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("workflow run %s: %w", workflowInstanceID, gorm.ErrRecordNotFound)
	}

	if utils.ValidateEmail(assignee) {
		subject := fmt.Sprintf("Workflow run assigned: app %d v%s", appID, version)
		body := fmt.Sprintf("<p>You have been assigned workflow run <b>%s</b> for app %d version %s.</p>",
			workflowInstanceID, appID, version)
		if err := config.SendMail([]string{assignee}, subject, body); err != nil {
			log.Printf("Warning: assignment notification failed: %v", err)
		}
	}
	return nil
}
