package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinicAgent/internal/extractor"
	"clinicAgent/internal/retry"
	"clinicAgent/internal/staff"

	"github.com/playwright-community/playwright-go"
)

// Tab - одна вкладка браузера. Методы, которые ничего не нашли, возвращают false
// без ошибки; ошибка означает потерю сессии или отмену контекста.
type Tab struct {
	page playwright.Page
	cfg  Config
}

func newTab(page playwright.Page, cfg Config) *Tab {
	return &Tab{page: page, cfg: cfg}
}

func (t *Tab) URL() string {
	if t.page == nil || t.page.IsClosed() {
		return ""
	}
	return t.page.URL()
}

func (t *Tab) alive() error {
	if t.page == nil || t.page.IsClosed() {
		return ErrSessionLost
	}
	return nil
}

// Focus выводит вкладку на передний план.
func (t *Tab) Focus() error {
	if err := t.alive(); err != nil {
		return err
	}
	return classify(t.page.BringToFront())
}

// Goto переходит на адрес и ждет загрузки DOM. Таймаут навигации не считается
// ошибкой, если страница уже сменила адрес: тяжелые сайты редко доходят до load.
func (t *Tab) Goto(ctx context.Context, rawURL string) error {
	if err := t.alive(); err != nil {
		return err
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	navCtx, cancel := context.WithTimeout(ctx, t.cfg.NavigationTimeout+time.Second)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		_, err := t.page.Goto(rawURL, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(float64(t.cfg.NavigationTimeout.Milliseconds())),
		})
		errChan <- err
	}()

	select {
	case <-navCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("navigate timeout after %v", t.cfg.NavigationTimeout)
	case err := <-errChan:
		if err == nil {
			t.ClosePopups(ctx)
			return nil
		}
		if errors.Is(err, playwright.ErrTimeout) && t.URL() != "about:blank" {
			return nil
		}
		return classify(fmt.Errorf("ошибка перехода на %s: %w", rawURL, err))
	}
}

// HTML возвращает текущую разметку документа.
func (t *Tab) HTML(ctx context.Context) (string, error) {
	if err := t.alive(); err != nil {
		return "", err
	}
	content, err := t.page.Content()
	if err != nil {
		if IsSessionLost(err) {
			return "", classify(err)
		}
		// Документ пересоздается во время навигации: отдаем пустую страницу.
		return "", nil
	}
	return content, nil
}

// VisibleLinks - видимые ссылки текущей страницы.
func (t *Tab) VisibleLinks(ctx context.Context) ([]staff.Candidate, error) {
	if err := t.alive(); err != nil {
		return nil, err
	}
	links, err := extractor.VisibleLinks(ctx, t.page)
	if err != nil {
		if IsSessionLost(err) || ctx.Err() != nil {
			return nil, classify(err)
		}
		return nil, nil
	}
	return links, nil
}

// AllLinks - исчерпывающий проход по href документа, включая скрытые подменю.
func (t *Tab) AllLinks(ctx context.Context) ([]staff.Candidate, error) {
	html, err := t.HTML(ctx)
	if err != nil || html == "" {
		return nil, err
	}
	links, err := extractor.LinksFromHTML(html)
	if err != nil {
		return nil, nil
	}
	return links, nil
}

// Signals снимает сигналы страницы для эвристики списка персонала.
func (t *Tab) Signals(ctx context.Context) (staff.PageSignals, error) {
	html, err := t.HTML(ctx)
	if err != nil || html == "" {
		return staff.PageSignals{}, err
	}
	sig, err := extractor.SignalsFromHTML(html)
	if err != nil {
		return staff.PageSignals{}, nil
	}
	return sig, nil
}

// WaitForURLChange ждет, пока адрес вкладки перестанет быть равным prev.
func (t *Tab) WaitForURLChange(ctx context.Context, prev string, timeout time.Duration) (bool, error) {
	if err := t.alive(); err != nil {
		return false, err
	}
	changed, err := retry.Poll(ctx, timeout, 200*time.Millisecond, func(context.Context) bool {
		cur := t.URL()
		return cur != "" && cur != prev
	})
	if err != nil {
		return false, err
	}
	if changed {
		t.waitForLoad()
	}
	return changed, t.alive()
}

func (t *Tab) waitForLoad() {
	_ = t.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: playwright.Float(float64(t.cfg.NavigationTimeout.Milliseconds())),
	})
}

// Screenshot снимает JPEG. fullPage - вся страница целиком, иначе только окно.
func (t *Tab) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	if err := t.alive(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := t.page.SetViewportSize(t.cfg.ScreenshotWidth, t.cfg.ScreenshotHeight); err != nil && IsSessionLost(err) {
		return nil, classify(err)
	}
	if fullPage {
		t.triggerLazyLoad(ctx)
	}
	t.ScrollToTop(ctx)

	img, err := t.page.Screenshot(playwright.PageScreenshotOptions{
		Type:     playwright.ScreenshotTypeJpeg,
		Quality:  playwright.Int(t.cfg.JPEGQuality),
		FullPage: playwright.Bool(fullPage),
		Timeout:  playwright.Float(float64(t.cfg.NavigationTimeout.Milliseconds())),
	})
	if err != nil {
		return nil, classify(fmt.Errorf("ошибка снимка экрана: %w", err))
	}
	return img, nil
}

// Close закрывает вкладку. Вызывается только для вкладок сайтов.
func (t *Tab) Close() error {
	if t.page == nil || t.page.IsClosed() {
		return nil
	}
	err := t.page.Close()
	if err != nil && IsSessionLost(err) {
		return nil
	}
	return err
}
