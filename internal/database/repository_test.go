package database

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"clinicAgent/internal/config"
	"clinicAgent/internal/llm"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return NewRepository(db), mock
}

func TestAddSiteResult(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "site_results"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	res := &SiteResult{JobID: "job-1", Row: 3, Site: "https://clinic.com", Outcome: OutcomeWritten, Doctors: "4"}
	require.NoError(t, repo.AddSiteResult(context.Background(), res))
	assert.Equal(t, uint(7), res.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddSiteResultRedactsSecrets(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "site_results"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))

	res := &SiteResult{JobID: "job-1", Row: 4, Site: "https://clinic.com", Outcome: OutcomeFailed,
		Error: "ask staff: Incorrect API key provided: sk-abcdefghijklmnopqrstuvwxyz"}
	require.NoError(t, repo.AddSiteResult(context.Background(), res))
	assert.Equal(t, "ask staff: Incorrect API key provided: [FILTERED]", res.Error)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddChatExchange(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "chat_exchanges"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	jobID := "job-1"
	ex := &ChatExchange{JobID: &jobID, Kind: "nav", Backend: "web", Prompt: "which link?", Reply: "Our Team"}
	require.NoError(t, repo.AddChatExchange(context.Background(), ex))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordExchange(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "chat_exchanges"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))

	req := llm.Request{JobID: "job-1", Site: "https://clinic.com", Kind: llm.KindStaff, Prompt: "csv?"}
	ans := llm.Answer{Text: "555-1234, Ann, Lee, 3", Backend: "openai", Model: "gpt-4o", TokensUsed: 40}
	require.NoError(t, repo.RecordExchange(context.Background(), req, ans))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinishJob(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "jobs" SET "error"=$1,"status"=$2,"total_completed"=$3,"total_errors"=$4`)).
		WithArgs("", "completed", 12, 3, sqlmock.AnyArg(), "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.FinishJob(context.Background(), "job-1", "completed", "", 12, 3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetJob(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "sheet_url", "status"}).
		AddRow("job-1", "https://docs.google.com/spreadsheets/d/abc/edit", "running")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "jobs" WHERE id = $1`)).
		WillReturnRows(rows)

	j, err := repo.GetJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "running", j.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDSN(t *testing.T) {
	assert.Contains(t, DSN(configDatabase()), "host=db port=5432 user=u password=p dbname=clinic")
}

func configDatabase() config.Database {
	return config.Database{Host: "db", Port: "5432", User: "u", Password: "p", Name: "clinic"}
}
