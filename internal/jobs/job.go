// Package jobs управляет задачами обработки таблицы: состояние, журнал,
// пауза, остановка и пауза после пакета.
package jobs

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusCreated        Status = "created"
	StatusCheckingAccess Status = "checking_access"
	StatusRunning        Status = "running"
	StatusPaused         Status = "paused"
	StatusCooldown       Status = "cooldown"
	StatusStopped        Status = "stopped"
	StatusCompleted      Status = "completed"
	StatusError          Status = "error"
)

// Terminal сообщает, что задача больше не изменит состояние.
func (s Status) Terminal() bool {
	return s == StatusStopped || s == StatusCompleted || s == StatusError
}

const (
	maxLogLines    = 1000
	reportLogLines = 200
)

// Job - одна задача обработки таблицы.
type Job struct {
	ID        string
	SheetURL  string
	CreatedAt time.Time
	Control   *Control

	mu     sync.Mutex
	status Status
	err    string
	log    []string
	done   chan struct{}
}

// NewJob создает задачу вне менеджера. Manager.Start делает то же и регистрирует ее.
func NewJob(sheetURL string, opts ControlOptions) *Job {
	j := &Job{
		ID:        uuid.NewString(),
		SheetURL:  sheetURL,
		CreatedAt: time.Now(),
		Control:   NewControl(opts),
		status:    StatusCreated,
		done:      make(chan struct{}),
	}
	j.Control.onCooldown = func(d time.Duration) {
		j.Logf("Batch limit reached, cooling down for %s.", d)
	}
	return j
}

// Logf добавляет строку в журнал задачи. Хранятся последние maxLogLines строк.
func (j *Job) Logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	j.mu.Lock()
	defer j.mu.Unlock()
	j.log = append(j.log, line)
	if over := len(j.log) - maxLogLines; over > 0 {
		j.log = append(j.log[:0:0], j.log[over:]...)
	}
}

// SetStatus меняет состояние. Завершенная задача состояние не меняет.
func (j *Job) SetStatus(s Status) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return
	}
	j.status = s
}

// Fail переводит задачу в состояние ошибки с сообщением для пользователя.
func (j *Job) Fail(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return
	}
	j.status = StatusError
	j.err = msg
}

// Status возвращает сохраненное состояние без учета флагов Control.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Done закрывается, когда воркер задачи завершился.
func (j *Job) Done() <-chan struct{} { return j.done }

// Snapshot - отчет о задаче для API и консоли.
type Snapshot struct {
	JobID    string   `json:"job_id"`
	SheetURL string   `json:"sheet_url"`
	Status   Status   `json:"status"`
	Progress int      `json:"progress"`
	Error    string   `json:"error,omitempty"`
	Log      []string `json:"log"`
	Stats    Stats    `json:"stats"`
}

// Snapshot вычисляет укрупненное состояние: остановка, затем завершение,
// затем пауза после пакета, затем пауза пользователя.
func (j *Job) Snapshot() Snapshot {
	stats := j.Control.Stats()
	stopped := j.Control.Stopped()
	paused := j.Control.Paused()
	progress := j.Control.Progress()

	// Control не опрашивается под j.mu: onCooldown пишет в журнал под блокировкой Control.
	j.mu.Lock()
	defer j.mu.Unlock()

	state := j.status
	switch {
	case state == StatusCompleted || state == StatusError:
	case stopped:
		state = StatusStopped
	case state.Terminal():
	case stats.CooldownRemaining > 0:
		state = StatusCooldown
	case paused:
		state = StatusPaused
	}

	from := max(0, len(j.log)-reportLogLines)
	return Snapshot{
		JobID:    j.ID,
		SheetURL: j.SheetURL,
		Status:   state,
		Progress: progress,
		Error:    j.err,
		Log:      append([]string(nil), j.log[from:]...),
		Stats:    stats,
	}
}
