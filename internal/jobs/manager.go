package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"clinicAgent/internal/logger"
)

// ErrNotFound - задачи с таким идентификатором нет.
var ErrNotFound = errors.New("job not found")

// Runner выполняет работу задачи. CheckAccess вызывается до Run; ошибка
// проверки переводит задачу в error без запуска.
type Runner interface {
	CheckAccess(ctx context.Context, job *Job) error
	Run(ctx context.Context, job *Job) error
}

// Manager хранит задачи и выдает им единственный слот воркера:
// браузер одновременно ведет только одна задача, остальные ждут.
type Manager struct {
	ctx    context.Context
	runner Runner
	opts   ControlOptions
	log    *logger.Zap

	slot chan struct{}
	wg   sync.WaitGroup

	mu   sync.RWMutex
	jobs map[string]*Job

	// OnStart вызывается при регистрации задачи, OnFinish - после завершения
	// ее воркера (метрики, аудит).
	OnStart  func(j *Job)
	OnFinish func(j *Job)
}

func NewManager(ctx context.Context, runner Runner, opts ControlOptions, log *logger.Zap) *Manager {
	return &Manager{
		ctx:    ctx,
		runner: runner,
		opts:   opts,
		log:    log.Named("jobs"),
		slot:   make(chan struct{}, 1),
		jobs:   make(map[string]*Job),
	}
}

// Start регистрирует задачу и запускает ее в фоне.
func (m *Manager) Start(sheetURL string) *Job {
	j := NewJob(sheetURL, m.opts)
	j.SetStatus(StatusCheckingAccess)

	m.mu.Lock()
	m.jobs[j.ID] = j
	m.mu.Unlock()

	m.log.Info("Задача создана", zap.String("job_id", j.ID), zap.String("sheet", sheetURL))
	if m.OnStart != nil {
		m.OnStart(j)
	}

	m.wg.Add(1)
	go m.work(j)
	return j
}

func (m *Manager) work(j *Job) {
	defer m.wg.Done()
	defer close(j.done)
	defer func() {
		if m.OnFinish != nil {
			m.OnFinish(j)
		}
	}()

	if !m.acquire(j) {
		j.SetStatus(StatusStopped)
		return
	}
	defer func() { <-m.slot }()

	log := m.log.With(zap.String("job_id", j.ID))

	j.Logf("Checking edit access…")
	if err := m.runner.CheckAccess(m.ctx, j); err != nil {
		if errors.Is(err, context.Canceled) {
			j.Logf("Stopped.")
			j.SetStatus(StatusStopped)
			return
		}
		log.Warn("Нет доступа к таблице", zap.Error(err))
		j.Logf("Access check failed: %v", err)
		j.Fail(fmt.Sprintf("access check failed: %v", err))
		return
	}
	j.Logf("Access OK. Launching scraper…")
	j.SetStatus(StatusRunning)

	err := m.runner.Run(m.ctx, j)
	switch {
	case err == nil:
		j.Logf("Done.")
		j.SetStatus(StatusCompleted)
	case errors.Is(err, ErrStopped), errors.Is(err, context.Canceled), j.Control.Stopped():
		j.Logf("Stopped.")
		j.SetStatus(StatusStopped)
	default:
		log.Error("Задача завершилась с ошибкой", zap.Error(err))
		j.Logf("Error: %v", err)
		j.Fail(err.Error())
	}
	log.Info("Задача завершена", zap.String("status", string(j.Status())))
}

// acquire ждет слот воркера. false - задачу остановили или контекст менеджера отменен.
func (m *Manager) acquire(j *Job) bool {
	select {
	case m.slot <- struct{}{}:
		return true
	default:
	}
	j.Logf("Waiting for the browser to become free…")
	select {
	case m.slot <- struct{}{}:
		if j.Control.Stopped() {
			<-m.slot
			return false
		}
		return true
	case <-j.Control.Done():
		return false
	case <-m.ctx.Done():
		return false
	}
}

func (m *Manager) Get(id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return j, nil
}

// List возвращает задачи в порядке создания.
func (m *Manager) List() []*Job {
	m.mu.RLock()
	out := make([]*Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	return out
}

func (m *Manager) Pause(id string) error {
	j, err := m.Get(id)
	if err != nil {
		return err
	}
	j.Control.SetPaused(true)
	if j.Status() == StatusRunning {
		j.SetStatus(StatusPaused)
	}
	j.Logf("Paused by user.")
	return nil
}

func (m *Manager) Resume(id string) error {
	j, err := m.Get(id)
	if err != nil {
		return err
	}
	j.Control.SetPaused(false)
	if j.Status() == StatusPaused {
		j.SetStatus(StatusRunning)
	}
	j.Logf("Resumed by user.")
	return nil
}

func (m *Manager) Stop(id string) error {
	j, err := m.Get(id)
	if err != nil {
		return err
	}
	j.Control.Stop()
	j.SetStatus(StatusStopped)
	j.Logf("Stopped by user.")
	return nil
}

// Wait ждет завершения задачи.
func (m *Manager) Wait(ctx context.Context, id string) (Snapshot, error) {
	j, err := m.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	select {
	case <-j.Done():
		return j.Snapshot(), nil
	case <-ctx.Done():
		return j.Snapshot(), ctx.Err()
	}
}

// Shutdown останавливает все задачи и ждет воркеров.
func (m *Manager) Shutdown(ctx context.Context) error {
	for _, j := range m.List() {
		j.Control.Stop()
	}
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
