package retry

import (
	"context"
	"time"
)

// Poll проверяет cond каждые interval, пока оно не станет истинным или не истечет timeout.
// Истекший таймаут - не ошибка: возвращается false. Ошибка возвращается только
// при отмене контекста.
func Poll(ctx context.Context, timeout, interval time.Duration, cond func(ctx context.Context) bool) (bool, error) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)
	for {
		if cond(ctx) {
			return true, nil
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
		left := time.Until(deadline)
		if left <= 0 {
			return false, nil
		}
		if err := Sleep(ctx, min(interval, left)); err != nil {
			return false, err
		}
	}
}

// PollValue опрашивает fn до первого значения с ok == true.
func PollValue[T any](ctx context.Context, timeout, interval time.Duration, fn func(ctx context.Context) (T, bool)) (T, bool, error) {
	var (
		v  T
		ok bool
	)
	found, err := Poll(ctx, timeout, interval, func(ctx context.Context) bool {
		v, ok = fn(ctx)
		return ok
	})
	if !found {
		var zero T
		return zero, false, err
	}
	return v, true, nil
}

// Stable ждет, пока значение, возвращаемое fn, перестанет меняться в течение quiet.
// Используется для ответа ассистента, который печатается по частям.
func Stable(ctx context.Context, timeout, interval, quiet time.Duration, fn func(ctx context.Context) string) (string, bool, error) {
	var (
		last    string
		changed = time.Now()
	)
	found, err := Poll(ctx, timeout, interval, func(ctx context.Context) bool {
		cur := fn(ctx)
		if cur != last {
			last, changed = cur, time.Now()
			return false
		}
		return cur != "" && time.Since(changed) >= quiet
	})
	return last, found, err
}
