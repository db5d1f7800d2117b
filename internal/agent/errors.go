package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinicAgent/internal/browser"
	"clinicAgent/internal/chat"
	"clinicAgent/internal/jobs"
	"clinicAgent/internal/llm"
	"clinicAgent/internal/retry"
	"clinicAgent/internal/sheets"
)

type ErrorType int

const (
	ErrorTypeTemporary ErrorType = iota
	ErrorTypeCritical
	ErrorTypeRetryable
)

func (e ErrorType) String() string {
	switch e {
	case ErrorTypeTemporary:
		return "temporary"
	case ErrorTypeCritical:
		return "critical"
	case ErrorTypeRetryable:
		return "retryable"
	default:
		return "unknown"
	}
}

// ActionError - ошибка шага обработки сайта. Critical прерывает задачу,
// остальные только помечают строку как необработанную.
type ActionError struct {
	Type   ErrorType
	Action string
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

func classifyError(action string, err error) *ActionError {
	if err == nil {
		return nil
	}
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae
	}

	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, jobs.ErrStopped),
		errors.Is(err, chat.ErrComposerNotFound),
		browser.IsSessionLost(err):
		return &ActionError{Type: ErrorTypeCritical, Action: action, Err: err}
	case errors.Is(err, retry.ErrOpen):
		// Ассистент временно отключен предохранителем: сайт пропускается, задача идет дальше.
		return &ActionError{Type: ErrorTypeTemporary, Action: action, Err: err}
	case errors.Is(err, chat.ErrNoResponse),
		errors.Is(err, llm.ErrEmptyAnswer),
		errors.Is(err, context.DeadlineExceeded),
		sheets.IsRateLimited(err):
		return &ActionError{Type: ErrorTypeRetryable, Action: action, Err: err}
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{"timeout", "network", "connection reset", "econnrefused", "etimedout"} {
		if strings.Contains(msg, s) {
			return &ActionError{Type: ErrorTypeRetryable, Action: action, Err: err}
		}
	}
	return &ActionError{Type: ErrorTypeTemporary, Action: action, Err: err}
}

func isCriticalError(err error) bool {
	ae := classifyError("", err)
	return ae != nil && ae.Type == ErrorTypeCritical
}

// retryAction повторяет fn, пока ошибка не критическая.
func retryAction(ctx context.Context, maxRetries int, delay time.Duration, fn func() error) error {
	if maxRetries < 1 {
		maxRetries = 1
	}
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			if err := retry.Sleep(ctx, delay); err != nil {
				return err
			}
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if isCriticalError(err) {
			return err
		}
	}

	return fmt.Errorf("после %d попыток: %w", maxRetries, lastErr)
}
