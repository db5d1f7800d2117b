package agent

import (
	"context"
	"fmt"
	"time"

	"clinicAgent/internal/database"
	"clinicAgent/internal/jobs"
	"clinicAgent/internal/llm"
	"clinicAgent/internal/logger"
	"clinicAgent/internal/metrics"
	"clinicAgent/internal/nav"
	"clinicAgent/internal/retry"
	"clinicAgent/internal/sheets"

	"go.uber.org/zap"
)

var _ jobs.Runner = (*Agent)(nil)

// New создает агента. store и m могут быть nil.
// Незаданные параметры получают значения по умолчанию:
//   - Columns: K/C/D/O
//   - WatchInterval: 1 минута
//   - MaxLinks: 120
//   - Retries: 2, RetryDelay: 2 секунды
func New(br Browser, assistant llm.Assistant, navigator *nav.Navigator, store Store, m *metrics.Metrics, log *logger.Zap, cfg Config) *Agent {
	if cfg.Columns.Website == "" {
		cfg.Columns = sheets.DefaultColumns()
	}
	if cfg.WatchInterval <= 0 {
		cfg.WatchInterval = time.Minute
	}
	if cfg.MaxLinks <= 0 {
		cfg.MaxLinks = llm.MaxPromptLinks
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 2
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	if navigator == nil {
		navigator = nav.New(nav.Options{}, log, m)
	}

	a := &Agent{
		cfg:       cfg,
		browser:   br,
		assistant: assistant,
		nav:       navigator,
		store:     store,
		metrics:   m,
		log:       log.Named("agent"),
	}
	a.open = func(ctx context.Context, ref string) (sheets.Book, error) {
		return sheets.Open(ctx, ref, cfg.Sheets)
	}
	return a
}

// CheckAccess открывает лист задачи и проверяет право записи.
func (a *Agent) CheckAccess(ctx context.Context, job *jobs.Job) error {
	a.saveJob(ctx, job)

	book, err := a.open(ctx, job.SheetURL)
	if err != nil {
		return err
	}
	defer book.Close()

	sheet, err := book.Worksheet(ctx, sheets.GID(job.SheetURL))
	if err != nil {
		return err
	}
	return a.checkSheet(ctx, sheet)
}

// checkSheet проверяет запись в ячейку заголовка колонки сайтов, найденной по заголовкам.
func (a *Agent) checkSheet(ctx context.Context, sheet sheets.Sheet) error {
	rows, err := sheet.Rows(ctx)
	if err != nil {
		return fmt.Errorf("чтение листа %q: %w", sheet.Title(), err)
	}
	cols := sheets.DetectColumns(sheets.Headers(rows), a.cfg.Columns)
	return sheets.CheckAccess(ctx, sheet, cols.Website)
}

// Run обрабатывает лист, указанный в ссылке задачи (gid), или первый лист.
func (a *Agent) Run(ctx context.Context, job *jobs.Job) error {
	book, err := a.open(ctx, job.SheetURL)
	if err != nil {
		return err
	}
	defer book.Close()

	sheet, err := book.Worksheet(ctx, sheets.GID(job.SheetURL))
	if err != nil {
		return err
	}
	return a.runSheet(ctx, job, sheet, a.cfg.Watch)
}

// runSheet проходит по всем необработанным сайтам листа. В режиме watch после
// последнего сайта перечитывает лист, пока задачу не остановят.
func (a *Agent) runSheet(ctx context.Context, job *jobs.Job, sheet sheets.Sheet, watch bool) error {
	log := a.log.With(zap.String("job_id", job.ID), zap.String("worksheet", sheet.Title()))

	rows, err := sheet.Rows(ctx)
	if err != nil {
		return fmt.Errorf("чтение листа %q: %w", sheet.Title(), err)
	}
	cols := sheets.DetectColumns(sheets.Headers(rows), a.cfg.Columns)

	wrote, err := sheets.EnsureHeaders(ctx, sheet, rows, cols)
	if err != nil {
		return err
	}
	if wrote {
		job.Logf("Headers written to %q.", sheet.Title())
		if rows, err = sheet.Rows(ctx); err != nil {
			return err
		}
	}

	done := make(map[string]struct{})
	watching := false
	for {
		pending := pendingSites(rows, cols, done)
		if len(pending) > 0 {
			job.Logf("%d site(s) to process on %q.", len(pending), sheet.Title())
			watching = false
		}

		for _, site := range pending {
			if err := job.Control.Checkpoint(ctx); err != nil {
				return err
			}
			job.Control.MarkAttempt()
			done[sheets.NormalizeSite(site.URL)] = struct{}{}

			res, err := a.processSite(ctx, job, sheet, cols, site)
			a.finishSite(ctx, job, res)
			if err != nil {
				log.Error("Обработка остановлена", zap.String("site", site.URL), zap.Error(err))
				return err
			}

			if err := retry.Sleep(ctx, a.cfg.SiteDelay); err != nil {
				return err
			}
		}

		if !watch {
			return nil
		}
		if !watching {
			job.Logf("No more sites; watching %q for new rows.", sheet.Title())
			watching = true
		}
		if err := a.waitForRows(ctx, job); err != nil {
			return err
		}
		if rows, err = sheet.Rows(ctx); err != nil {
			if isCriticalError(err) {
				return err
			}
			log.Warn("Не удалось перечитать лист", zap.Error(err))
		}
	}
}

func (a *Agent) waitForRows(ctx context.Context, job *jobs.Job) error {
	t := time.NewTimer(a.cfg.WatchInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-job.Control.Done():
		return jobs.ErrStopped
	case <-t.C:
	}
	return job.Control.Checkpoint(ctx)
}

// pendingSites - сайты без записанного числа врачей, еще не обработанные в этом запуске.
func pendingSites(rows [][]string, cols sheets.Columns, done map[string]struct{}) []sheets.Site {
	var out []sheets.Site
	for _, s := range sheets.Sites(rows, cols.Website) {
		if _, ok := done[sheets.NormalizeSite(s.URL)]; ok {
			continue
		}
		if sheets.Cell(rows[s.Row-1], cols.Doctors) != "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// finishSite обновляет счетчики задачи, метрики и сохраняет результат.
func (a *Agent) finishSite(ctx context.Context, job *jobs.Job, res database.SiteResult) {
	switch res.Outcome {
	case database.OutcomeWritten:
		job.Control.MarkSuccess()
		job.Logf("Row %d (%s): wrote %s %s, %s doctor(s).", res.Row, res.Site, res.FirstName, res.LastName, res.Doctors)
	case database.OutcomeBlank:
		job.Logf("Row %d (%s): doctor count not numeric, row left blank.", res.Row, res.Site)
	case database.OutcomeNotFound:
		job.Logf("Row %d (%s): staff page not found.", res.Row, res.Site)
	default:
		job.Control.MarkError()
		job.Logf("Row %d (%s): failed: %s", res.Row, res.Site, res.Error)
	}
	a.metrics.SiteProcessed(res.Outcome)

	if a.store == nil {
		return
	}
	if err := a.store.AddSiteResult(ctx, &res); err != nil {
		a.log.Warn("Не удалось сохранить результат сайта", zap.String("site", res.Site), zap.Error(err))
	}
}

func (a *Agent) saveJob(ctx context.Context, job *jobs.Job) {
	if a.store == nil {
		return
	}
	err := a.store.SaveJob(ctx, &database.Job{
		ID:       job.ID,
		SheetURL: job.SheetURL,
		Status:   string(job.Status()),
	})
	if err != nil {
		a.log.Warn("Не удалось сохранить задачу", zap.String("job_id", job.ID), zap.Error(err))
	}
}
