package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter выдерживает минимальный интервал между запросами.
// Запросы не отклоняются, а ждут своей очереди.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter с interval <= 0 ничего не ограничивает.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	if interval <= 0 {
		return &RateLimiter{}
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait блокирует до момента, когда можно отправить следующий запрос.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil || rl.limiter == nil {
		return ctx.Err()
	}
	return rl.limiter.Wait(ctx)
}
