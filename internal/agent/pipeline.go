package agent

import (
	"context"
	"strings"

	"clinicAgent/internal/jobs"
	"clinicAgent/internal/sheets"

	"go.uber.org/zap"
)

// Pipeline обрабатывает несколько листов одной таблицы по очереди.
// Пустой список листов - все листы, кроме журналов ошибок.
type Pipeline struct {
	*Agent
	Name       string
	Worksheets []string
}

var _ jobs.Runner = (*Pipeline)(nil)

func NewPipeline(a *Agent, name string, worksheets []string) *Pipeline {
	return &Pipeline{Agent: a, Name: name, Worksheets: worksheets}
}

func (p *Pipeline) CheckAccess(ctx context.Context, job *jobs.Job) error {
	p.saveJob(ctx, job)

	book, err := p.open(ctx, job.SheetURL)
	if err != nil {
		return err
	}
	defer book.Close()

	names, err := p.worksheets(ctx, book)
	if err != nil {
		return err
	}
	for _, name := range names {
		sheet, err := book.Worksheet(ctx, name)
		if err != nil {
			return err
		}
		if err := p.checkSheet(ctx, sheet); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) Run(ctx context.Context, job *jobs.Job) error {
	book, err := p.open(ctx, job.SheetURL)
	if err != nil {
		return err
	}
	defer book.Close()

	names, err := p.worksheets(ctx, book)
	if err != nil {
		return err
	}
	p.log.Info("Запуск конвейера",
		zap.String("pipeline", p.Name),
		zap.String("job_id", job.ID),
		zap.Strings("worksheets", names),
	)

	for i, name := range names {
		if err := job.Control.Checkpoint(ctx); err != nil {
			return err
		}
		job.Logf("Worksheet %d/%d: %s", i+1, len(names), name)

		sheet, err := book.Worksheet(ctx, name)
		if err != nil {
			return err
		}
		// Режим watch применим только к последнему листу.
		if err := p.runSheet(ctx, job, sheet, p.cfg.Watch && i == len(names)-1); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) worksheets(ctx context.Context, book sheets.Book) ([]string, error) {
	if len(p.Worksheets) > 0 {
		return p.Worksheets, nil
	}
	all, err := book.Worksheets(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(all))
	for _, name := range all {
		if strings.Contains(strings.ToLower(name), "error log") {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}
