// Package agent обходит сайты из таблицы: для каждого сайта спрашивает ассистента,
// где страница персонала, находит ее в браузере, снимает скриншот, разбирает ответ
// ассистента и пишет поля обратно в строку таблицы.
package agent

import (
	"context"
	"time"

	"clinicAgent/internal/browser"
	"clinicAgent/internal/database"
	"clinicAgent/internal/llm"
	"clinicAgent/internal/logger"
	"clinicAgent/internal/metrics"
	"clinicAgent/internal/nav"
	"clinicAgent/internal/sheets"
)

// SiteTab - вкладка сайта: все, что нужно навигатору, плюс скриншоты и закрытие.
type SiteTab interface {
	nav.SiteTab
	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)
	Close() error
}

// Browser - подключение к Chrome.
type Browser interface {
	// Reattach восстанавливает подключение, если оно было потеряно.
	Reattach(ctx context.Context) error
	// OpenSite возвращает вкладку сайта, найденную по хосту или открытую заново.
	OpenSite(ctx context.Context, rawURL string) (SiteTab, error)
}

// Store сохраняет задачи и результаты по сайтам.
type Store interface {
	SaveJob(ctx context.Context, j *database.Job) error
	AddSiteResult(ctx context.Context, res *database.SiteResult) error
}

type playwrightSites struct {
	*browser.PlaywrightBrowser
}

// FromPlaywright адаптирует браузер playwright к Browser.
func FromPlaywright(b *browser.PlaywrightBrowser) Browser {
	return playwrightSites{b}
}

func (p playwrightSites) OpenSite(ctx context.Context, rawURL string) (SiteTab, error) {
	tab, err := p.SiteTab(ctx, rawURL)
	if tab == nil {
		return nil, err
	}
	return tab, err
}

// Config - параметры обхода.
type Config struct {
	Columns sheets.Columns
	Sheets  sheets.GoogleOptions
	// Watch - после последнего сайта ждать новые строки до остановки.
	Watch         bool
	WatchInterval time.Duration
	SiteDelay     time.Duration
	MaxLinks      int
	Retries       int
	RetryDelay    time.Duration
	// ScreenshotDir - если задан, скриншоты сохраняются для разбора ошибок.
	ScreenshotDir string
}

// Agent реализует jobs.Runner.
type Agent struct {
	cfg       Config
	browser   Browser
	assistant llm.Assistant
	nav       *nav.Navigator
	store     Store
	metrics   *metrics.Metrics
	log       *logger.Zap

	open func(ctx context.Context, ref string) (sheets.Book, error)
}
