package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clinicAgent/internal/database"
	"clinicAgent/internal/extractor"
	"clinicAgent/internal/jobs"
	"clinicAgent/internal/llm"
	"clinicAgent/internal/nav"
	"clinicAgent/internal/reply"
	"clinicAgent/internal/sheets"

	"go.uber.org/zap"
)

// processSite обрабатывает одну строку. Ошибка возвращается только критическая:
// после нее задача останавливается. Остальные сбои попадают в результат.
func (a *Agent) processSite(ctx context.Context, job *jobs.Job, sheet sheets.Sheet, cols sheets.Columns, site sheets.Site) (database.SiteResult, error) {
	res := database.SiteResult{
		JobID:     job.ID,
		Worksheet: sheet.Title(),
		Row:       site.Row,
		Site:      site.URL,
	}
	log := a.log.With(zap.String("job_id", job.ID), zap.String("site", site.URL), zap.Int("row", site.Row))
	job.Logf("Row %d: %s", site.Row, site.URL)

	if err := a.browser.Reattach(ctx); err != nil {
		return a.fail(res, "подключение к браузеру", err)
	}

	tab, err := a.browser.OpenSite(ctx, site.URL)
	if tab != nil {
		defer func() {
			if cerr := tab.Close(); cerr != nil {
				log.Debug("Вкладка сайта не закрылась", zap.Error(cerr))
			}
		}()
	}
	if err != nil {
		return a.fail(res, "открытие сайта", err)
	}

	hint, err := a.askNav(ctx, job, tab, site)
	if err != nil {
		return a.fail(res, "вопрос о навигации", err)
	}

	found, err := a.nav.Find(ctx, tab, hint)
	if err != nil {
		return a.fail(res, "поиск страницы персонала", err)
	}
	if !found.Found {
		res.Outcome = database.OutcomeNotFound
		return res, nil
	}
	res.StaffURL, res.Strategy = found.URL, found.Strategy
	if !found.Confirmed {
		job.Logf("Landed on %s, not confirmed as a staff page; asking anyway.", found.URL)
	}

	shot, err := tab.Screenshot(ctx, true)
	if err != nil {
		return a.fail(res, "скриншот страницы персонала", err)
	}
	a.saveShot(site.URL, "staff", shot)

	ans, err := a.ask(ctx, llm.Request{
		JobID:     job.ID,
		Site:      site.URL,
		Kind:      llm.KindStaff,
		Prompt:    llm.StaffPrompt(reply.StaffLayout),
		Image:     shot,
		ImageName: "staff.jpg",
	})
	if err != nil {
		return a.fail(res, "вопрос о персонале", err)
	}

	parsed := reply.ParseStaff(ans.Text)
	res.Phone, res.FirstName, res.LastName, res.Doctors = parsed.Phone, parsed.First, parsed.Last, parsed.Doctors
	if parsed.Doctors == "" {
		log.Info("Число врачей не распознано", zap.String("reply", ans.Text))
		res.Outcome = database.OutcomeBlank
		return res, nil
	}

	if err := a.writeRow(ctx, sheet, cols, site, parsed); err != nil {
		return a.fail(res, "запись в таблицу", err)
	}
	res.Outcome = database.OutcomeWritten
	return res, nil
}

// askNav снимает главную страницу и спрашивает, какая ссылка ведет к персоналу.
// Ассистент получает только подписи видимых ссылок, чтобы выбирать из существующих.
func (a *Agent) askNav(ctx context.Context, job *jobs.Job, tab SiteTab, site sheets.Site) (nav.Hint, error) {
	shot, err := tab.Screenshot(ctx, false)
	if err != nil {
		return nav.Hint{}, err
	}
	a.saveShot(site.URL, "home", shot)

	links, err := tab.VisibleLinks(ctx)
	if err != nil {
		return nav.Hint{}, err
	}
	texts := extractor.LinkTexts(links, a.cfg.MaxLinks)

	ans, err := a.ask(ctx, llm.Request{
		JobID:     job.ID,
		Site:      site.URL,
		Kind:      llm.KindNav,
		Prompt:    llm.NavPrompt(texts, a.cfg.MaxLinks),
		Image:     shot,
		ImageName: "home.jpg",
	})
	if err != nil {
		if isCriticalError(err) {
			return nav.Hint{}, err
		}
		// Без подсказки навигатор все равно пробует скоринг ссылок.
		job.Logf("No navigation hint: %v", err)
		return nav.Hint{}, nil
	}

	hint := nav.ParseHint(ans.Text)
	if !hint.Empty() && !nav.MatchesLinks(hint.Label, texts) {
		job.Logf("Hint %q is not among visible links; trying it anyway.", hint.String())
	}
	return hint, nil
}

func (a *Agent) ask(ctx context.Context, req llm.Request) (llm.Answer, error) {
	var ans llm.Answer
	err := retryAction(ctx, a.cfg.Retries, a.cfg.RetryDelay, func() error {
		var err error
		ans, err = a.assistant.Ask(ctx, req)
		return err
	})
	return ans, err
}

// writeRow пишет поля в строку, найденную заново по адресу: строки могли сдвинуться.
func (a *Agent) writeRow(ctx context.Context, sheet sheets.Sheet, cols sheets.Columns, site sheets.Site, s reply.Staff) error {
	row := site.Row
	rows, err := sheet.Rows(ctx)
	if err != nil {
		return err
	}
	if r, ok := sheets.FindRow(rows, cols.Website, site.URL); ok {
		row = r
	}

	cells := map[string]string{
		cols.First:   s.First,
		cols.Last:    s.Last,
		cols.Doctors: s.Doctors,
	}
	if cols.Phone != "" {
		cells[cols.Phone] = s.Phone
	}
	delete(cells, "")

	err = sheet.WriteCells(ctx, row, cells)
	a.metrics.SheetWrite(err)
	return err
}

func (a *Agent) fail(res database.SiteResult, action string, err error) (database.SiteResult, error) {
	ae := classifyError(action, err)
	res.Outcome = database.OutcomeFailed
	res.Error = ae.Error()
	if ae.Type == ErrorTypeCritical {
		return res, ae
	}
	a.log.Warn("Сайт не обработан",
		zap.String("site", res.Site),
		zap.String("error_type", ae.Type.String()),
		zap.Error(err),
	)
	return res, nil
}

func (a *Agent) saveShot(site, name string, data []byte) {
	if a.cfg.ScreenshotDir == "" || len(data) == 0 {
		return
	}
	base := strings.NewReplacer("/", "_", ":", "_").Replace(sheets.NormalizeSite(site))
	path := filepath.Join(a.cfg.ScreenshotDir, fmt.Sprintf("%s-%s.jpg", base, name))
	if err := os.MkdirAll(a.cfg.ScreenshotDir, 0o755); err != nil {
		a.log.Debug("Каталог скриншотов недоступен", zap.Error(err))
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		a.log.Debug("Скриншот не сохранен", zap.String("path", path), zap.Error(err))
	}
}
