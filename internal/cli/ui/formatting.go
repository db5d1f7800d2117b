package ui

import (
	"fmt"
	"io"
	"strings"

	"clinicAgent/internal/jobs"
)

// FormatStatus возвращает иконку, цвет и текст для состояния задачи.
func FormatStatus(status jobs.Status) (icon, color, text string) {
	switch status {
	case jobs.StatusCompleted:
		return IconCheckmark, ColorGreen, "завершена"
	case jobs.StatusError:
		return IconCross, ColorRed, "ошибка"
	case jobs.StatusRunning:
		return IconPlay, ColorCyan, "выполняется"
	case jobs.StatusCheckingAccess:
		return IconClock, ColorCyan, "проверка доступа"
	case jobs.StatusPaused:
		return IconPause, ColorYellow, "на паузе"
	case jobs.StatusCooldown:
		return IconClock, ColorYellow, "перерыв после пакета"
	case jobs.StatusStopped:
		return IconStop, ColorGray, "остановлена"
	case jobs.StatusCreated:
		return IconClock, ColorYellow, "ожидает"
	default:
		return IconClock, ColorYellow, string(status)
	}
}

// Shorten обрезает строку до n символов с многоточием.
func Shorten(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}

// ClearScreen очищает терминал
func ClearScreen(w io.Writer) {
	fmt.Fprint(w, "\033[H\033[2J")
}
