package services

import (
	"testing"

	"app-review-api/config"
	"app-review-api/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var submissionColumns = []string{
	"submission_id", "nick_name", "version", "image_guid", "state_id",
	"state_name", "created_at", "description", "transaction_date",
}

func submissionRow(id int, nick, created, description, recorded string) []interface{} {
	var desc, rec interface{}
	if description != "" {
		desc = description
	}
	if recorded != "" {
		rec = recorded
	}
	return []interface{}{id, nick, "1.0", nil, "2", "Testing", created, desc, rec}
}

func TestHydrateSubmissionsDedupesByID(t *testing.T) {
	transition := FormatTransition(models.StateNameNewSubmission, models.StateNameTesting)
	rs := newTestRowSet(submissionColumns,
		submissionRow(1, "alpha", "2024-01-01 00:00:00", transition, "2024-01-02 00:00:00"),
		submissionRow(1, "alpha", "2024-01-01 00:00:00", transition, "2024-01-03 00:00:00"),
		submissionRow(1, "alpha", "2024-01-01 00:00:00", transition, "2024-01-04 00:00:00"),
		submissionRow(2, "beta", "2024-02-01 00:00:00", "", ""),
		submissionRow(3, "gamma", "2024-03-01 00:00:00", transition, "2024-03-02 00:00:00"),
		submissionRow(3, "gamma", "2024-03-01 00:00:00", transition, "2024-03-03 00:00:00"),
	)

	submissions, err := hydrateSubmissions(rs, true)
	require.NoError(t, err)
	require.Len(t, submissions, 3)

	byID := make(map[int]*models.Submission)
	for _, s := range submissions {
		byID[s.SubmissionID] = s
	}
	assert.Len(t, byID[1].Transactions, 3)
	assert.Len(t, byID[2].Transactions, 0)
	assert.Len(t, byID[3].Transactions, 2)
}

func TestHydrateSubmissionsOrdersByCreatedDateDescending(t *testing.T) {
	rs := newTestRowSet(submissionColumns,
		submissionRow(1, "oldest", "2024-01-01 00:00:00", "", ""),
		submissionRow(2, "tied-first", "2024-02-01 00:00:00", "", ""),
		submissionRow(3, "tied-second", "2024-02-01 00:00:00", "", ""),
		submissionRow(4, "newest", "2024-03-01 00:00:00", "", ""),
	)

	submissions, err := hydrateSubmissions(rs, true)
	require.NoError(t, err)
	require.Len(t, submissions, 4)

	assert.Equal(t, "newest", submissions[0].NickName)
	// Equal dates keep their input order.
	assert.Equal(t, "tied-first", submissions[1].NickName)
	assert.Equal(t, "tied-second", submissions[2].NickName)
	assert.Equal(t, "oldest", submissions[3].NickName)
}

func TestHydrateSubmissionsSkipsUnparsableTransactions(t *testing.T) {
	rs := newTestRowSet(submissionColumns,
		submissionRow(5, "flaky", "2024-01-01 00:00:00",
			FormatTransition(models.StateNameTesting, models.StateNamePendingReview), "2024-01-02 00:00:00"),
		submissionRow(5, "flaky", "2024-01-01 00:00:00",
			"corrupted audit text", "2024-01-03 00:00:00"),
	)

	submissions, err := hydrateSubmissions(rs, true)
	require.NoError(t, err)
	require.Len(t, submissions, 1)
	assert.Len(t, submissions[0].Transactions, 1)
}

func TestHydrateSubmissionsEmptyDescriptionYieldsNoTransaction(t *testing.T) {
	rs := newTestRowSet(submissionColumns,
		submissionRow(7, "weather-app", "2024-01-01 00:00:00", "", ""),
		submissionRow(7, "weather-app", "2024-01-01 00:00:00",
			"Submission State\n    old: NewSubmission\n    new: Testing", "2024-01-02 00:00:00"),
	)

	submissions, err := hydrateSubmissions(rs, true)
	require.NoError(t, err)
	require.Len(t, submissions, 1)

	submission := submissions[0]
	assert.Equal(t, 7, submission.SubmissionID)
	require.Len(t, submission.Transactions, 1)
	assert.Equal(t, models.StateNameNewSubmission, submission.Transactions[0].Old)
	assert.Equal(t, models.StateNameTesting, submission.Transactions[0].New)
}

func TestHydrateSubmissionsToleratesBadCreatedDate(t *testing.T) {
	rs := newTestRowSet(submissionColumns,
		submissionRow(9, "undated", "garbled", "", ""),
	)

	submissions, err := hydrateSubmissions(rs, true)
	require.NoError(t, err)
	require.Len(t, submissions, 1)
	assert.True(t, submissions[0].CreatedDate.IsZero())
}

func TestHydrateSubmissionsWithoutTransactions(t *testing.T) {
	rs := newTestRowSet(submissionColumns,
		submissionRow(1, "alpha", "2024-01-01 00:00:00",
			FormatTransition(models.StateNameTesting, models.StateNamePublished), "2024-01-02 00:00:00"),
	)

	submissions, err := hydrateSubmissions(rs, false)
	require.NoError(t, err)
	require.Len(t, submissions, 1)
	assert.Empty(t, submissions[0].Transactions)
}

func TestHydrateSubmissionsRequiresIDColumn(t *testing.T) {
	rs := newTestRowSet([]string{"nick_name"}, []interface{}{"alpha"})

	_, err := hydrateSubmissions(rs, true)
	assert.ErrorContains(t, err, `column "submission_id" not present`)
}

func mockStore(t *testing.T) (sqlmock.Sqlmock, *gorm.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return mock, gdb
}

func TestFindSubmissionReturnsNilWhenAbsent(t *testing.T) {
	mock, gdb := mockStore(t)
	previous := config.DB
	config.DB = gdb
	t.Cleanup(func() { config.DB = previous })

	mock.ExpectQuery("FROM submissions s").
		WithArgs("missing-app", "1.0").
		WillReturnRows(sqlmock.NewRows(submissionColumns))

	submission, err := FindSubmission("missing-app", "1.0")
	require.NoError(t, err)
	assert.Nil(t, submission)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindSubmissionAttachesWorkflows(t *testing.T) {
	mock, gdb := mockStore(t)
	previous := config.DB
	config.DB = gdb
	t.Cleanup(func() { config.DB = previous })

	workflowMock, workflowGdb := mockStore(t)
	previousWorkflow := config.WorkflowDB
	config.WorkflowDB = workflowGdb
	t.Cleanup(func() { config.WorkflowDB = previousWorkflow })

	mock.ExpectQuery("FROM submissions s").
		WithArgs("weather-app", "2.1").
		WillReturnRows(sqlmock.NewRows(submissionColumns).
			AddRow(7, "weather-app", "2.1", nil, "2", "Testing",
				"2024-01-01 00:00:00",
				"Submission State\n    old: NewSubmission\n    new: Testing",
				"2024-01-02 00:00:00"))

	workflowMock.ExpectQuery("FROM workflow_runs w").
		WithArgs(7, "2.1").
		WillReturnRows(sqlmock.NewRows(workflowColumns).
			AddRow("6ba7b810-9dad-11d1-80b4-00c04fd430c8", 7, "2.1", 12,
				"2024-01-03 00:00:00", 0, nil, nil,
				1, "Validation", "2024-01-03 01:00:00", 1, nil))

	submission, err := FindSubmission("weather-app", "2.1")
	require.NoError(t, err)
	require.NotNil(t, submission)
	assert.Equal(t, 7, submission.SubmissionID)
	require.Len(t, submission.Transactions, 1)
	require.Len(t, submission.Workflows, 1)
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", submission.Workflows[0].WorkflowInstanceID)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, workflowMock.ExpectationsWereMet())
}

func TestListSubmissionsInStateRejectsUnknownFilter(t *testing.T) {
	_, err := ListSubmissionsInState(StateFilter("archived"))
	assert.ErrorContains(t, err, "unknown state filter")
}
