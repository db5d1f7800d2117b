package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"clinicAgent/internal/cli/ui"
	"clinicAgent/internal/jobs"
	"clinicAgent/internal/sheets"

	"go.uber.org/zap"
)

// Jobs - операции менеджера задач, доступные из консоли.
type Jobs interface {
	Start(sheetURL string) *jobs.Job
	Get(id string) (*jobs.Job, error)
	List() []*jobs.Job
	Pause(id string) error
	Resume(id string) error
	Stop(id string) error
}

var errAmbiguous = errors.New("ambiguous job id")

// JobsHandler обрабатывает команды управления задачами
type JobsHandler struct {
	jobs Jobs
	out  io.Writer
	log  *zap.Logger
}

func NewJobsHandler(j Jobs, out io.Writer, log *zap.Logger) *JobsHandler {
	return &JobsHandler{
		jobs: j,
		out:  out,
		log:  log,
	}
}

// Resolve находит задачу по полному идентификатору или его уникальному префиксу.
func (h *JobsHandler) Resolve(id string) (*jobs.Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, jobs.ErrNotFound
	}
	if j, err := h.jobs.Get(id); err == nil {
		return j, nil
	}
	var found *jobs.Job
	for _, j := range h.jobs.List() {
		if !strings.HasPrefix(j.ID, id) {
			continue
		}
		if found != nil {
			return nil, errAmbiguous
		}
		found = j
	}
	if found == nil {
		return nil, jobs.ErrNotFound
	}
	return found, nil
}

// Start запускает обработку таблицы по ссылке, идентификатору или пути к .xlsx
func (h *JobsHandler) Start(ref string) {
	ref = strings.TrimSpace(ref)
	if !acceptableRef(ref) {
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Неверная ссылка на Google-таблицу"+ui.ColorReset)
		return
	}
	j := h.jobs.Start(ref)
	h.log.Info("Задача запущена из консоли", zap.String("job_id", j.ID))
	fmt.Fprintf(h.out, ui.ColorGreen+ui.IconCheckmark+" Создана задача %s"+ui.ColorReset+"\n", j.ID)
}

func acceptableRef(ref string) bool {
	if ref == "" {
		return false
	}
	if sheets.IsValidSheetURL(ref) || strings.HasSuffix(strings.ToLower(ref), ".xlsx") {
		return true
	}
	_, ok := sheets.SpreadsheetID(ref)
	return ok
}

// List выводит список всех задач
func (h *JobsHandler) List() {
	list := h.jobs.List()
	if len(list) == 0 {
		fmt.Fprintln(h.out, ui.ColorGray+"Задач пока нет"+ui.ColorReset)
		return
	}
	fmt.Fprintln(h.out, "\n"+ui.ColorBold+ui.IconList+" Список задач:"+ui.ColorReset)
	fmt.Fprintln(h.out)
	for _, j := range list {
		snap := j.Snapshot()
		icon, color, text := ui.FormatStatus(snap.Status)
		fmt.Fprintf(h.out, "  "+ui.ColorBold+"%s"+ui.ColorReset+" %s%s %s"+ui.ColorReset+" (%d)\n", j.ID, color, icon, text, snap.Progress)
		fmt.Fprintf(h.out, "  "+ui.ColorGray+"└─"+ui.ColorReset+" %s\n", ui.Shorten(j.SheetURL, 80))
		fmt.Fprintln(h.out)
	}
}

// Status показывает состояние задачи и счетчики пакета
func (h *JobsHandler) Status(id string) {
	j, ok := h.resolve(id)
	if !ok {
		return
	}
	snap := j.Snapshot()
	icon, color, text := ui.FormatStatus(snap.Status)
	fmt.Fprintln(h.out)
	fmt.Fprintf(h.out, ui.ColorBold+"Задача %s"+ui.ColorReset+" %s%s %s"+ui.ColorReset+"\n", j.ID, color, icon, text)
	fmt.Fprintf(h.out, "  "+ui.ColorCyan+ui.IconGlobe+ui.ColorReset+" %s\n", j.SheetURL)
	fmt.Fprintf(h.out, "  "+ui.ColorGray+ui.IconTime+ui.ColorReset+" %s\n", j.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(h.out, "  "+ui.ColorCyan+ui.IconChart+ui.ColorReset+" обработано: %d, ошибок: %d, в пакете: %d/%d\n",
		snap.Stats.TotalCompleted, snap.Stats.TotalErrors, snap.Stats.BatchCompleted, snap.Stats.BatchLimit)
	if snap.Stats.CooldownRemaining > 0 {
		fmt.Fprintf(h.out, "  "+ui.ColorYellow+ui.IconClock+" до конца перерыва: %d с"+ui.ColorReset+"\n", snap.Stats.CooldownRemaining)
	}
	if snap.Error != "" {
		fmt.Fprintf(h.out, "  "+ui.ColorRed+"Ошибка:"+ui.ColorReset+" %s\n", snap.Error)
	}
	fmt.Fprintln(h.out)
}

// Pause ставит задачу на паузу
func (h *JobsHandler) Pause(id string) {
	h.control(id, h.jobs.Pause, ui.IconPause+" Задача на паузе")
}

// Resume снимает задачу с паузы
func (h *JobsHandler) Resume(id string) {
	h.control(id, h.jobs.Resume, ui.IconPlay+" Задача продолжена")
}

// Stop останавливает задачу после текущего сайта
func (h *JobsHandler) Stop(id string) {
	h.control(id, h.jobs.Stop, ui.IconStop+" Задача остановлена")
}

func (h *JobsHandler) control(id string, fn func(string) error, done string) {
	j, ok := h.resolve(id)
	if !ok {
		return
	}
	if err := fn(j.ID); err != nil {
		h.log.Error("Ошибка управления задачей", zap.String("job_id", j.ID), zap.Error(err))
		fmt.Fprintf(h.out, ui.ColorRed+ui.IconCross+" Ошибка:"+ui.ColorReset+" %v\n", err)
		return
	}
	fmt.Fprintln(h.out, ui.ColorGreen+done+ui.ColorReset)
}

func (h *JobsHandler) resolve(id string) (*jobs.Job, bool) {
	j, err := h.Resolve(id)
	switch {
	case errors.Is(err, errAmbiguous):
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Под префикс подходит несколько задач"+ui.ColorReset)
		return nil, false
	case err != nil:
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Задача не найдена"+ui.ColorReset)
		return nil, false
	}
	return j, true
}
