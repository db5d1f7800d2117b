// Package retry содержит комбинаторы ожидания: повтор с экспоненциальной
// задержкой, опрос условия по таймеру и предохранитель от серий сбоев.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Policy описывает повторы с экспоненциальной задержкой.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Jitter включает "полный" джиттер: задержка выбирается случайно из [0, d].
	Jitter bool
	// Retryable решает, стоит ли повторять после ошибки. nil - повторять всегда.
	Retryable func(error) bool
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	return p
}

// Delay возвращает задержку перед попыткой attempt (нумерация с 1) без джиттера.
func (p Policy) Delay(attempt int) time.Duration {
	p = p.withDefaults()
	if attempt <= 1 {
		return p.BaseDelay
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if d <= 0 || d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Backoff вызывает fn, пока она не вернет nil, не закончатся попытки
// или ошибка не окажется неповторяемой.
func Backoff(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	p = p.withDefaults()

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			d := p.Delay(attempt)
			if p.Jitter {
				d = time.Duration(rand.Int64N(int64(d) + 1))
			}
			if err := Sleep(ctx, d); err != nil {
				return err
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
	}

	return fmt.Errorf("после %d попыток: %w", p.MaxAttempts, lastErr)
}

// Sleep ждет d или отмены контекста.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
