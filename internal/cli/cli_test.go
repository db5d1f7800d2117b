package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"clinicAgent/internal/jobs"
	"clinicAgent/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sheetURL = "https://docs.google.com/spreadsheets/d/1AbCdEfGhIjKlMnOpQrStUv/edit#gid=0"

type blockingRunner struct{}

func (blockingRunner) CheckAccess(context.Context, *jobs.Job) error { return nil }

func (blockingRunner) Run(ctx context.Context, j *jobs.Job) error {
	select {
	case <-j.Control.Done():
		return jobs.ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newTestCLI(t *testing.T) (*CLI, *jobs.Manager, *bytes.Buffer) {
	t.Helper()
	m := jobs.NewManager(context.Background(), blockingRunner{}, jobs.ControlOptions{}, logger.Nop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = m.Shutdown(ctx)
	})
	out := &bytes.Buffer{}
	return newCLI(m, nil, nil, out, nil), m, out
}

func TestHandleCommandLifecycle(t *testing.T) {
	c, m, out := newTestCLI(t)
	ctx := context.Background()

	require.True(t, c.handleCommand(ctx, "start "+sheetURL))
	list := m.List()
	require.Len(t, list, 1)
	id := list[0].ID
	assert.Contains(t, out.String(), id)

	out.Reset()
	require.True(t, c.handleCommand(ctx, "pause "+id[:8]))
	assert.Contains(t, out.String(), "Задача на паузе")
	assert.Equal(t, jobs.StatusPaused, list[0].Snapshot().Status)

	out.Reset()
	require.True(t, c.handleCommand(ctx, "status "+id))
	assert.Contains(t, out.String(), "на паузе")
	assert.Contains(t, out.String(), sheetURL)

	require.True(t, c.handleCommand(ctx, "resume "+id))
	require.True(t, c.handleCommand(ctx, "stop "+id))

	snap, err := m.Wait(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusStopped, snap.Status)

	out.Reset()
	require.True(t, c.handleCommand(ctx, "jobs"))
	assert.Contains(t, out.String(), "остановлена")
}

func TestHandleCommandRejectsBadLink(t *testing.T) {
	c, m, out := newTestCLI(t)

	require.True(t, c.handleCommand(context.Background(), "start https://example.com/sheet"))
	assert.Empty(t, m.List())
	assert.Contains(t, out.String(), "Неверная ссылка")
}

func TestHandleCommandUnknownJob(t *testing.T) {
	c, _, out := newTestCLI(t)

	for _, cmd := range []string{"status nope", "pause nope", "logs nope", "stop"} {
		out.Reset()
		require.True(t, c.handleCommand(context.Background(), cmd))
		assert.Contains(t, out.String(), "Задача не найдена", cmd)
	}
}

func TestHandleCommandWithoutDatabaseAndBrowser(t *testing.T) {
	c, _, out := newTestCLI(t)

	require.True(t, c.handleCommand(context.Background(), "results abc"))
	assert.Contains(t, out.String(), "База данных отключена")

	out.Reset()
	require.True(t, c.handleCommand(context.Background(), "open chatgpt.com"))
	assert.Contains(t, out.String(), "Браузер не подключен")
}

func TestHandleCommandHelpAndExit(t *testing.T) {
	c, _, out := newTestCLI(t)

	require.True(t, c.handleCommand(context.Background(), "wat"))
	assert.Contains(t, out.String(), "Доступные команды")

	assert.False(t, c.handleCommand(context.Background(), "exit"))
}

func TestRunFallbackReader(t *testing.T) {
	c, m, out := newTestCLI(t)
	c.in = bufioReader("start " + sheetURL + "\n\njobs\nexit\nstart " + sheetURL + "\n")

	c.Run(context.Background())

	assert.Len(t, m.List(), 1)
	assert.Contains(t, out.String(), "До свидания")
}

func TestRunStopsOnEOF(t *testing.T) {
	c, m, _ := newTestCLI(t)
	c.in = bufioReader("start " + sheetURL)

	c.Run(context.Background())

	assert.Len(t, m.List(), 1)
}

func TestRunCancelledContext(t *testing.T) {
	c, m, out := newTestCLI(t)
	c.in = bufioReader("start " + sheetURL + "\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Run(ctx)

	assert.Empty(t, m.List())
	assert.True(t, strings.Contains(out.String(), "сигнал завершения"))
}
