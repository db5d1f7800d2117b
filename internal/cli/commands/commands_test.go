package commands

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"clinicAgent/internal/database"
	"clinicAgent/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeJobs хранит задачи без воркеров.
type fakeJobs struct {
	list    []*jobs.Job
	started []string
	stopErr error
}

func (f *fakeJobs) Start(sheetURL string) *jobs.Job {
	f.started = append(f.started, sheetURL)
	j := jobs.NewJob(sheetURL, jobs.ControlOptions{})
	f.list = append(f.list, j)
	return j
}

func (f *fakeJobs) Get(id string) (*jobs.Job, error) {
	for _, j := range f.list {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, jobs.ErrNotFound
}

func (f *fakeJobs) List() []*jobs.Job { return f.list }

func (f *fakeJobs) Pause(id string) error {
	j, err := f.Get(id)
	if err != nil {
		return err
	}
	j.Control.SetPaused(true)
	return nil
}

func (f *fakeJobs) Resume(id string) error {
	j, err := f.Get(id)
	if err != nil {
		return err
	}
	j.Control.SetPaused(false)
	return nil
}

func (f *fakeJobs) Stop(string) error { return f.stopErr }

func withID(id string) *jobs.Job {
	j := jobs.NewJob("https://docs.google.com/spreadsheets/d/1AbCdEfGhIjKlMnOpQrStUv/edit", jobs.ControlOptions{})
	j.ID = id
	return j
}

func TestResolve(t *testing.T) {
	f := &fakeJobs{list: []*jobs.Job{withID("abc-111"), withID("abd-222")}}
	h := NewJobsHandler(f, &bytes.Buffer{}, zap.NewNop())

	j, err := h.Resolve("abc-111")
	require.NoError(t, err)
	assert.Equal(t, "abc-111", j.ID)

	j, err = h.Resolve("abd")
	require.NoError(t, err)
	assert.Equal(t, "abd-222", j.ID)

	_, err = h.Resolve("ab")
	assert.ErrorIs(t, err, errAmbiguous)

	_, err = h.Resolve("zzz")
	assert.ErrorIs(t, err, jobs.ErrNotFound)

	_, err = h.Resolve("  ")
	assert.ErrorIs(t, err, jobs.ErrNotFound)
}

func TestStartAcceptsSheetReferences(t *testing.T) {
	f := &fakeJobs{}
	out := &bytes.Buffer{}
	h := NewJobsHandler(f, out, zap.NewNop())

	h.Start("https://docs.google.com/spreadsheets/d/1AbCdEfGhIjKlMnOpQrStUv/edit#gid=5")
	h.Start("1AbCdEfGhIjKlMnOpQrStUv")
	h.Start("clinics.xlsx")
	h.Start("not a sheet")
	h.Start("")

	assert.Equal(t, []string{
		"https://docs.google.com/spreadsheets/d/1AbCdEfGhIjKlMnOpQrStUv/edit#gid=5",
		"1AbCdEfGhIjKlMnOpQrStUv",
		"clinics.xlsx",
	}, f.started)
	assert.Contains(t, out.String(), "Неверная ссылка")
}

func TestControlReportsError(t *testing.T) {
	f := &fakeJobs{list: []*jobs.Job{withID("abc-111")}, stopErr: errors.New("boom")}
	out := &bytes.Buffer{}
	h := NewJobsHandler(f, out, zap.NewNop())

	h.Stop("abc")
	assert.Contains(t, out.String(), "boom")

	out.Reset()
	h.Pause("ab")
	assert.Contains(t, out.String(), "Задача на паузе")
	assert.True(t, f.list[0].Control.Paused())

	out.Reset()
	h.Status("abc")
	assert.Contains(t, out.String(), "на паузе")
	assert.Contains(t, out.String(), "обработано: 0, ошибок: 0")
}

func TestListEmpty(t *testing.T) {
	out := &bytes.Buffer{}
	NewJobsHandler(&fakeJobs{}, out, zap.NewNop()).List()
	assert.Contains(t, out.String(), "Задач пока нет")
}

func TestLogsShow(t *testing.T) {
	j := withID("abc-111")
	j.Logf("Row 2: https://vetclinic.com/")
	j.Logf("Row 2 (vetclinic.com): wrote Anna Lee, 3 doctor(s).")
	j.Logf("Row 3 (other.com): failed: timeout")
	out := &bytes.Buffer{}
	jh := NewJobsHandler(&fakeJobs{list: []*jobs.Job{j}}, out, zap.NewNop())

	NewLogsHandler(jh, nil, out, zap.NewNop()).Show("abc")

	s := out.String()
	assert.Contains(t, s, "Журнал задачи abc-111")
	assert.Contains(t, s, "Row 2: https://vetclinic.com/")
	assert.Contains(t, s, "\033[32mRow 2 (vetclinic.com): wrote Anna Lee, 3 doctor(s).")
	assert.Contains(t, s, "\033[31mRow 3 (other.com): failed: timeout")
}

type fakeResults struct {
	jobID string
	rows  []database.SiteResult
	err   error
}

func (f *fakeResults) ListSiteResults(_ context.Context, jobID string) ([]database.SiteResult, error) {
	f.jobID = jobID
	return f.rows, f.err
}

func TestLogsResults(t *testing.T) {
	res := &fakeResults{rows: []database.SiteResult{
		{Row: 2, Site: "vetclinic.com", StaffURL: "https://vetclinic.com/team", Outcome: database.OutcomeWritten,
			Phone: "555-1234", FirstName: "Anna", LastName: "Lee", Doctors: "3", CreatedAt: time.Now()},
		{Row: 3, Site: "other.com", Outcome: database.OutcomeFailed, Error: "timeout", CreatedAt: time.Now()},
	}}
	out := &bytes.Buffer{}
	jh := NewJobsHandler(&fakeJobs{list: []*jobs.Job{withID("abc-111")}}, out, zap.NewNop())
	h := NewLogsHandler(jh, res, out, zap.NewNop())

	h.Results(context.Background(), "abc")

	assert.Equal(t, "abc-111", res.jobID)
	s := out.String()
	assert.Contains(t, s, "Результаты задачи abc-111 (2)")
	assert.Contains(t, s, "https://vetclinic.com/team")
	assert.Contains(t, s, "555-1234 | Anna Lee | 3")
	assert.Contains(t, s, "[ОШИБКА]")
}

func TestLogsResultsForFinishedJob(t *testing.T) {
	res := &fakeResults{}
	out := &bytes.Buffer{}
	jh := NewJobsHandler(&fakeJobs{}, out, zap.NewNop())

	NewLogsHandler(jh, res, out, zap.NewNop()).Results(context.Background(), "old-job-id")

	assert.Equal(t, "old-job-id", res.jobID)
	assert.Contains(t, out.String(), "Результатов нет")
}

type fakeOpener struct {
	reattachErr error
	opened      []string
}

func (f *fakeOpener) Reattach(context.Context) error { return f.reattachErr }

func (f *fakeOpener) SiteTab(_ context.Context, rawURL string) error {
	f.opened = append(f.opened, rawURL)
	return nil
}

func TestBrowserOpen(t *testing.T) {
	br := &fakeOpener{}
	out := &bytes.Buffer{}
	h := NewBrowserHandler(br, out)

	h.Open(context.Background(), "chatgpt.com")
	h.Open(context.Background(), "http://localhost:8080/")
	h.Open(context.Background(), "")

	assert.Equal(t, []string{"https://chatgpt.com", "http://localhost:8080/"}, br.opened)
	assert.Contains(t, out.String(), "Укажите адрес")

	br.reattachErr = errors.New("cdp refused")
	out.Reset()
	h.Open(context.Background(), "chatgpt.com")
	assert.Contains(t, out.String(), "cdp refused")
	assert.Len(t, br.opened, 2)
}
