package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"clinicAgent/internal/cli/ui"
	"clinicAgent/internal/database"

	"go.uber.org/zap"
)

// Results - чтение сохраненных итогов по сайтам.
type Results interface {
	ListSiteResults(ctx context.Context, jobID string) ([]database.SiteResult, error)
}

// LogsHandler обрабатывает команды просмотра журнала и результатов
type LogsHandler struct {
	jobs    *JobsHandler
	results Results
	out     io.Writer
	log     *zap.Logger
}

// NewLogsHandler создает обработчик. results может быть nil, если база отключена.
func NewLogsHandler(jobs *JobsHandler, results Results, out io.Writer, log *zap.Logger) *LogsHandler {
	return &LogsHandler{
		jobs:    jobs,
		results: results,
		out:     out,
		log:     log,
	}
}

// Show выводит журнал задачи
func (h *LogsHandler) Show(id string) {
	j, ok := h.jobs.resolve(id)
	if !ok {
		return
	}
	snap := j.Snapshot()

	fmt.Fprintf(h.out, "\n"+ui.ColorBold+"=== "+ui.IconList+" Журнал задачи %s ==="+ui.ColorReset+"\n", j.ID)
	fmt.Fprintf(h.out, ui.ColorCyan+"Статус:"+ui.ColorReset+" %s\n\n", snap.Status)

	if len(snap.Log) == 0 {
		fmt.Fprintln(h.out, ui.ColorGray+"Журнал пуст"+ui.ColorReset)
		return
	}
	for _, line := range snap.Log {
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "failed") || strings.Contains(lower, "error"):
			fmt.Fprintln(h.out, ui.ColorRed+line+ui.ColorReset)
		case strings.Contains(line, ": wrote "):
			fmt.Fprintln(h.out, ui.ColorGreen+line+ui.ColorReset)
		default:
			fmt.Fprintln(h.out, line)
		}
	}
	fmt.Fprintln(h.out)
}

// Results выводит итоги по сайтам из базы
func (h *LogsHandler) Results(ctx context.Context, id string) {
	if h.results == nil {
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" База данных отключена"+ui.ColorReset)
		return
	}
	jobID := strings.TrimSpace(id)
	if j, err := h.jobs.Resolve(jobID); err == nil {
		jobID = j.ID
	}

	rows, err := h.results.ListSiteResults(ctx, jobID)
	if err != nil {
		h.log.Error("Ошибка чтения результатов", zap.String("job_id", jobID), zap.Error(err))
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Ошибка чтения результатов"+ui.ColorReset)
		return
	}
	if len(rows) == 0 {
		fmt.Fprintln(h.out, ui.ColorGray+"Результатов нет"+ui.ColorReset)
		return
	}

	fmt.Fprintf(h.out, "\n"+ui.ColorBold+"=== Результаты задачи %s (%d) ==="+ui.ColorReset+"\n", jobID, len(rows))
	for _, r := range rows {
		fmt.Fprintf(h.out, ui.ColorGray+"[%s]"+ui.ColorReset+" %s#%d %s"+ui.ColorReset+" %s",
			r.CreatedAt.Format("15:04:05"), outcomeColor(r.Outcome), r.Row, r.Outcome, r.Site)
		if r.StaffURL != "" {
			fmt.Fprintf(h.out, " → "+ui.ColorYellow+"%s"+ui.ColorReset, r.StaffURL)
		}
		fmt.Fprintln(h.out)
		if r.Outcome == database.OutcomeWritten || r.Outcome == database.OutcomeBlank {
			fmt.Fprintf(h.out, "  %s | %s %s | %s\n", r.Phone, r.FirstName, r.LastName, r.Doctors)
		}
		if r.Error != "" {
			fmt.Fprintf(h.out, "  "+ui.ColorRed+"[ОШИБКА]"+ui.ColorReset+" %s\n", ui.Shorten(r.Error, 120))
		}
	}
	fmt.Fprintln(h.out)
}

func outcomeColor(outcome string) string {
	switch outcome {
	case database.OutcomeWritten:
		return ui.ColorGreen
	case database.OutcomeFailed:
		return ui.ColorRed
	default:
		return ui.ColorYellow
	}
}
