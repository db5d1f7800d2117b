package browser

import (
	"context"
	"time"

	"clinicAgent/internal/retry"

	"github.com/playwright-community/playwright-go"
)

// FirstVisible возвращает первый селектор из упорядоченного списка, у которого есть
// видимый элемент. Ждет не дольше timeout; отсутствие элемента - не ошибка.
func (t *Tab) FirstVisible(ctx context.Context, selectors []string, timeout time.Duration) (string, bool, error) {
	if err := t.alive(); err != nil {
		return "", false, err
	}

	sel, found, err := retry.PollValue(ctx, timeout, 100*time.Millisecond, func(context.Context) (string, bool) {
		for _, s := range selectors {
			visible, err := t.page.Locator(s).First().IsVisible()
			if err == nil && visible {
				return s, true
			}
		}
		return "", false
	})
	if err != nil {
		return "", false, err
	}
	return sel, found, t.alive()
}

// Count - число элементов, подходящих под селектор.
func (t *Tab) Count(ctx context.Context, selector string) (int, error) {
	if err := t.alive(); err != nil {
		return 0, err
	}
	n, err := t.page.Locator(selector).Count()
	if err != nil {
		return 0, t.soft(ctx, err)
	}
	return n, nil
}

// Texts возвращает innerText всех элементов селектора.
func (t *Tab) Texts(ctx context.Context, selector string) ([]string, error) {
	if err := t.alive(); err != nil {
		return nil, err
	}
	texts, err := t.page.Locator(selector).AllInnerTexts()
	if err != nil {
		return nil, t.soft(ctx, err)
	}
	return texts, nil
}

// Fill очищает поле ввода (в том числе contenteditable) и вводит текст.
func (t *Tab) Fill(ctx context.Context, selector, text string) error {
	if err := t.alive(); err != nil {
		return err
	}
	err := t.page.Locator(selector).First().Fill(text, playwright.LocatorFillOptions{
		Timeout: playwright.Float(float64(t.cfg.ActionTimeout.Milliseconds())),
	})
	return classify(err)
}

// Click кликает первый элемент селектора.
func (t *Tab) Click(ctx context.Context, selector string) error {
	if err := t.alive(); err != nil {
		return err
	}
	err := t.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(t.cfg.ActionTimeout.Milliseconds())),
	})
	return classify(err)
}

// Press нажимает клавишу в первом элементе селектора.
func (t *Tab) Press(ctx context.Context, selector, key string) error {
	if err := t.alive(); err != nil {
		return err
	}
	err := t.page.Locator(selector).First().Press(key, playwright.LocatorPressOptions{
		Timeout: playwright.Float(float64(t.cfg.ActionTimeout.Milliseconds())),
	})
	return classify(err)
}

// SetInputFile прикрепляет файл из памяти к input[type=file].
func (t *Tab) SetInputFile(ctx context.Context, selector, name, mimeType string, data []byte) error {
	if err := t.alive(); err != nil {
		return err
	}
	err := t.page.Locator(selector).First().SetInputFiles([]playwright.InputFile{
		{Name: name, MimeType: mimeType, Buffer: data},
	}, playwright.LocatorSetInputFilesOptions{
		Timeout: playwright.Float(float64(t.cfg.ActionTimeout.Milliseconds())),
	})
	return classify(err)
}
