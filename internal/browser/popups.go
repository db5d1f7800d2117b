package browser

import (
	"context"
	"time"

	"clinicAgent/internal/retry"
)

// popupCloseSelectors - кнопки закрытия баннеров cookie, чатов и модальных окон.
var popupCloseSelectors = []string{
	"[role='dialog'] button[aria-label*='close' i]",
	"[role='dialog'] button[aria-label*='dismiss' i]",
	".modal button.close",
	".popup button.close",
	"[data-dismiss='modal']",
	"[data-bs-dismiss='modal']",
	".close-button",
	"#onetrust-accept-btn-handler",
	"button[id*='cookie' i][id*='accept' i]",
	"button:has-text('Accept All')",
	"button:has-text('Accept')",
	"button:has-text('Got it')",
	"button:has-text('×')",
	"button:has-text('✕')",
	"[aria-label='Close']",
}

// ClosePopups закрывает видимые всплывающие окна, которые перекрывают навигацию
// и попадают на снимок. Возвращает число нажатых кнопок.
func (t *Tab) ClosePopups(ctx context.Context) int {
	if t.alive() != nil {
		return 0
	}

	closed := 0
	for _, selector := range popupCloseSelectors {
		if ctx.Err() != nil {
			return closed
		}
		elements, err := t.page.QuerySelectorAll(selector)
		if err != nil {
			continue
		}

		for _, element := range elements {
			isVisible, err := element.IsVisible()
			if err != nil || !isVisible {
				continue
			}
			if err := element.Click(clickOpts(t.cfg)); err == nil {
				closed++
				_ = retry.Sleep(ctx, 300*time.Millisecond)
			}
		}
	}
	return closed
}
