// Package browser подключается к уже запущенному видимому Chrome по DevTools-протоколу
// и дает агенту вкладки: вкладку сайта клиники и вкладку веб-чата. Браузер не
// запускается и не закрывается агентом, закрываются только вкладки сайтов.
package browser

import (
	"errors"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

var (
	// ErrNotAttached - к браузеру еще не подключились или подключение закрыто.
	ErrNotAttached = errors.New("браузер не подключен")
	// ErrSessionLost - браузер или вкладка закрыты во время работы.
	ErrSessionLost = errors.New("сессия браузера потеряна")
)

type Config struct {
	// CDPURL - адрес DevTools, например http://127.0.0.1:9222.
	CDPURL            string
	ConnectTimeout    time.Duration
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
	ScreenshotWidth   int
	ScreenshotHeight  int
	JPEGQuality       int
}

type PlaywrightBrowser struct {
	cfg Config

	mu      sync.RWMutex
	pw      *playwright.Playwright
	browser playwright.Browser
}
