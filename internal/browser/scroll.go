package browser

import (
	"context"
	"time"

	"clinicAgent/internal/retry"

	"github.com/playwright-community/playwright-go"
)

// ScrollToTop возвращает окно к началу страницы перед снимком.
func (t *Tab) ScrollToTop(ctx context.Context) {
	if t.alive() != nil {
		return
	}
	if _, err := t.page.Evaluate(`() => window.scrollTo({ top: 0, behavior: 'auto' })`); err != nil {
		return
	}
	_ = retry.Sleep(ctx, 200*time.Millisecond)
}

// triggerLazyLoad пролистывает страницу вниз шагами по высоте окна,
// чтобы подгрузились ленивые фотографии врачей до полного снимка.
func (t *Tab) triggerLazyLoad(ctx context.Context) {
	for i := 0; i < 12; i++ {
		res, err := t.page.Evaluate(`() => {
			window.scrollBy({ top: window.innerHeight, left: 0, behavior: 'auto' });
			return Math.ceil(window.scrollY + window.innerHeight) >= document.body.scrollHeight;
		}`)
		if err != nil {
			return
		}
		if err := retry.Sleep(ctx, 250*time.Millisecond); err != nil {
			return
		}
		if done, ok := res.(bool); ok && done {
			return
		}
	}
}

// scrollIntoView прокручивает к элементу, если он вне окна.
func scrollIntoView(el playwright.ElementHandle) {
	err := el.ScrollIntoViewIfNeeded(playwright.ElementHandleScrollIntoViewIfNeededOptions{
		Timeout: playwright.Float(2000),
	})
	if err != nil {
		_, _ = el.Evaluate(`el => el.scrollIntoView({ behavior: 'auto', block: 'center', inline: 'center' })`)
	}
}
