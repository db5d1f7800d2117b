package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

func New(cfg Config) *PlaywrightBrowser {
	if cfg.CDPURL == "" {
		cfg.CDPURL = "http://127.0.0.1:9222"
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 15 * time.Second
	}
	if cfg.NavigationTimeout == 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	if cfg.ActionTimeout == 0 {
		cfg.ActionTimeout = 5 * time.Second
	}
	if cfg.ScreenshotWidth == 0 {
		cfg.ScreenshotWidth = 1366
	}
	if cfg.ScreenshotHeight == 0 {
		cfg.ScreenshotHeight = 900
	}
	if cfg.JPEGQuality == 0 {
		cfg.JPEGQuality = 50
	}

	return &PlaywrightBrowser{cfg: cfg}
}

// getBrowser безопасно возвращает подключение с read lock
func (b *PlaywrightBrowser) getBrowser() playwright.Browser {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.browser
}

// Attach подключается к Chrome по CDP. Повторный вызов при живом подключении ничего не делает.
func (b *PlaywrightBrowser) Attach(ctx context.Context) error {
	if b.Alive() {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pw == nil {
		pw, err := playwright.Run(&playwright.RunOptions{SkipInstallBrowsers: true})
		if err != nil {
			return fmt.Errorf("ошибка запуска playwright: %w", err)
		}
		b.pw = pw
	}

	br, err := connectWithin(ctx, func() (playwright.Browser, error) {
		return b.pw.Chromium.ConnectOverCDP(b.cfg.CDPURL, playwright.BrowserTypeConnectOverCDPOptions{
			Timeout: playwright.Float(float64(b.cfg.ConnectTimeout.Milliseconds())),
		})
	}, func(br playwright.Browser) { _ = br.Close() })
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("не удалось подключиться к Chrome на %s: %w", b.cfg.CDPURL, err)
	}
	b.browser = br
	return nil
}

// connectWithin ждет connect не дольше ctx. Подключение, установленное уже после
// отмены ctx, передается в release.
func connectWithin[T any](ctx context.Context, connect func() (T, error), release func(T)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result)
	go func() {
		v, err := connect()
		select {
		case ch <- result{v, err}:
		case <-ctx.Done():
			if err == nil {
				release(v)
			}
		}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}

// Alive сообщает, живо ли подключение к браузеру.
func (b *PlaywrightBrowser) Alive() bool {
	br := b.getBrowser()
	return br != nil && br.IsConnected()
}

// Reattach восстанавливает подключение, если оно было потеряно.
func (b *PlaywrightBrowser) Reattach(ctx context.Context) error {
	if b.Alive() {
		return nil
	}
	b.mu.Lock()
	b.browser = nil
	b.mu.Unlock()
	return b.Attach(ctx)
}

func (b *PlaywrightBrowser) pages() ([]playwright.Page, error) {
	br := b.getBrowser()
	if br == nil || !br.IsConnected() {
		return nil, ErrNotAttached
	}
	var out []playwright.Page
	for _, c := range br.Contexts() {
		for _, p := range c.Pages() {
			if !p.IsClosed() {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// FindTab ищет вкладку, чей хост совпадает с host или является его поддоменом.
// Из нескольких подходящих берется вкладка с самым длинным URL: это обычно
// страница, куда агент перешел, а не исходная главная.
func (b *PlaywrightBrowser) FindTab(host string) (*Tab, bool, error) {
	pages, err := b.pages()
	if err != nil {
		return nil, false, err
	}
	want := strings.TrimPrefix(strings.ToLower(host), "www.")
	if want == "" {
		return nil, false, nil
	}

	var best playwright.Page
	for _, p := range pages {
		if !hostMatches(p.URL(), want) {
			continue
		}
		if best == nil || len(p.URL()) > len(best.URL()) {
			best = p
		}
	}
	if best == nil {
		return nil, false, nil
	}
	return newTab(best, b.cfg), true, nil
}

// OpenTab открывает новую вкладку в существующем контексте браузера и переходит на rawURL.
func (b *PlaywrightBrowser) OpenTab(ctx context.Context, rawURL string) (*Tab, error) {
	br := b.getBrowser()
	if br == nil || !br.IsConnected() {
		return nil, ErrNotAttached
	}

	var (
		page playwright.Page
		err  error
	)
	if contexts := br.Contexts(); len(contexts) > 0 {
		page, err = contexts[0].NewPage()
	} else {
		page, err = br.NewPage()
	}
	if err != nil {
		return nil, classify(fmt.Errorf("ошибка открытия вкладки: %w", err))
	}

	tab := newTab(page, b.cfg)
	if err := tab.Goto(ctx, rawURL); err != nil {
		return tab, err
	}
	return tab, nil
}

// SiteTab возвращает вкладку сайта по хосту, открывая новую при отсутствии.
func (b *PlaywrightBrowser) SiteTab(ctx context.Context, rawURL string) (*Tab, error) {
	if tab, ok, err := b.FindTab(hostOf(rawURL)); err != nil {
		return nil, err
	} else if ok {
		return tab, tab.Focus()
	}
	return b.OpenTab(ctx, rawURL)
}

func (b *PlaywrightBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Для CDP-подключения Close только отключается, сам Chrome продолжает работать.
	if b.browser != nil {
		if err := b.browser.Close(); err != nil && !errors.Is(err, playwright.ErrTargetClosed) {
			return err
		}
		b.browser = nil
	}
	if b.pw != nil {
		err := b.pw.Stop()
		b.pw = nil
		return err
	}
	return nil
}

func hostOf(raw string) string {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func hostMatches(pageURL, want string) bool {
	h := strings.TrimPrefix(hostOf(pageURL), "www.")
	return h != "" && (h == want || strings.HasSuffix(h, "."+want))
}

// classify сводит ошибки закрытого браузера или вкладки к ErrSessionLost.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if IsSessionLost(err) && !errors.Is(err, ErrSessionLost) {
		return fmt.Errorf("%w: %v", ErrSessionLost, err)
	}
	return err
}

// IsSessionLost распознает ошибки закрытого браузера, контекста или вкладки.
func IsSessionLost(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSessionLost) || errors.Is(err, ErrNotAttached) || errors.Is(err, playwright.ErrTargetClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"target closed",
		"target page, context or browser has been closed",
		"browser has been closed",
		"browser has disconnected",
		"connection closed",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
