package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"clinicAgent/internal/retry"
)

// ErrStopped возвращается из Checkpoint после запроса остановки.
var ErrStopped = errors.New("job stopped")

const (
	DefaultBatchLimit   = 80
	DefaultCooldown     = 30 * time.Minute
	DefaultPollInterval = 500 * time.Millisecond
)

// ControlOptions - лимиты пакета и интервал опроса флагов.
type ControlOptions struct {
	BatchLimit   int
	Cooldown     time.Duration
	PollInterval time.Duration
}

func (o ControlOptions) withDefaults() ControlOptions {
	if o.BatchLimit <= 0 {
		o.BatchLimit = DefaultBatchLimit
	}
	if o.Cooldown <= 0 {
		o.Cooldown = DefaultCooldown
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	return o
}

// Stats - счетчики задачи для отчета о статусе.
type Stats struct {
	BatchCompleted    int `json:"batch_completed"`
	BatchLimit        int `json:"batch_limit"`
	TotalCompleted    int `json:"total_completed"`
	TotalErrors       int `json:"total_errors"`
	CooldownRemaining int `json:"cooldown_remaining"`
}

// Control - флаги паузы/остановки и счетчик пакета. Воркер опрашивает его
// кооперативно через Checkpoint; прервать операцию посреди выполнения нельзя.
type Control struct {
	opts  ControlOptions
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
	// onCooldown вызывается при входе в паузу после исчерпания пакета.
	onCooldown func(d time.Duration)

	mu             sync.Mutex
	paused         bool
	stopped        bool
	stopCh         chan struct{}
	batchAttempts  int
	totalCompleted int
	totalErrors    int
	cooldownUntil  time.Time
}

func NewControl(opts ControlOptions) *Control {
	return &Control{
		opts:   opts.withDefaults(),
		now:    time.Now,
		sleep:  retry.Sleep,
		stopCh: make(chan struct{}),
	}
}

func (c *Control) SetPaused(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = v
}

// Stop необратим и приоритетнее паузы и паузы после пакета.
func (c *Control) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.stopped {
		c.stopped = true
		close(c.stopCh)
	}
}

func (c *Control) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *Control) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// Done закрывается при остановке.
func (c *Control) Done() <-chan struct{} { return c.stopCh }

// MarkAttempt учитывает попытку обработки сайта в текущем пакете.
func (c *Control) MarkAttempt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batchAttempts++
}

func (c *Control) MarkSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalCompleted++
}

func (c *Control) MarkError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalErrors++
}

// CooldownRemaining возвращает оставшееся время паузы после пакета.
func (c *Control) CooldownRemaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cooldownRemainingLocked()
}

func (c *Control) cooldownRemainingLocked() time.Duration {
	if c.cooldownUntil.IsZero() {
		return 0
	}
	if rem := c.cooldownUntil.Sub(c.now()); rem > 0 {
		return rem
	}
	return 0
}

// Progress - заполненность текущего пакета в процентах.
func (c *Control) Progress() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return min(100, c.batchAttempts*100/c.opts.BatchLimit)
}

func (c *Control) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		BatchCompleted:    c.batchAttempts,
		BatchLimit:        c.opts.BatchLimit,
		TotalCompleted:    c.totalCompleted,
		TotalErrors:       c.totalErrors,
		CooldownRemaining: int(c.cooldownRemainingLocked().Seconds()),
	}
}

// Checkpoint - точка кооперативного опроса между сайтами. Блокируется, пока задача
// на паузе или в паузе после пакета; при исчерпании пакета сам начинает паузу.
// Возвращает ErrStopped после Stop или ошибку контекста.
func (c *Control) Checkpoint(ctx context.Context) error {
	for {
		wait, err := c.tick()
		if err != nil {
			return err
		}
		if !wait {
			return nil
		}
		if err := c.sleep(ctx, c.opts.PollInterval); err != nil {
			return err
		}
	}
}

func (c *Control) tick() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return false, ErrStopped
	}
	now := c.now()
	if !c.cooldownUntil.IsZero() && !now.Before(c.cooldownUntil) {
		c.cooldownUntil = time.Time{}
		c.batchAttempts = 0
	}
	if c.cooldownUntil.IsZero() && c.batchAttempts >= c.opts.BatchLimit {
		c.cooldownUntil = now.Add(c.opts.Cooldown)
		if c.onCooldown != nil {
			c.onCooldown(c.opts.Cooldown)
		}
	}
	return c.paused || !c.cooldownUntil.IsZero(), nil
}
