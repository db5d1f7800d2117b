package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"clinicAgent/internal/cli"
	"clinicAgent/internal/cli/commands"
	"clinicAgent/internal/config"
	"clinicAgent/internal/jobs"
	"clinicAgent/internal/logger"
	"clinicAgent/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runOptions struct {
	pipelineMode bool
	pipeline     string
	sheetID      string
	worksheets   []string
	watch        bool
	addr         string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var o runOptions

	root := &cobra.Command{
		Use:   "clinic-agent [ссылка на таблицу | id | файл.xlsx]",
		Short: "Находит страницы персонала ветклиник и заполняет таблицу",
		Long: `Обрабатывает колонку сайтов Google-таблицы: находит страницу персонала,
спрашивает ассистента о владельце и числе врачей и записывает ответ в строку.
Без аргументов запускает интерактивную консоль.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := o.sheetID
			if len(args) == 1 {
				ref = args[0]
			}
			if ref == "" {
				return runConsole(cmd, o)
			}
			return runOnce(cmd, o, ref)
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVar(&o.pipelineMode, "pipeline-mode", false, "обработать все листы таблицы по очереди")
	pf.StringVar(&o.pipeline, "pipeline", "", "имя конвейера для журналов")
	pf.StringVar(&o.sheetID, "sheet-id", "", "идентификатор или ссылка на таблицу")
	pf.StringSliceVar(&o.worksheets, "selected-worksheets", nil, "листы через запятую (включает режим конвейера)")
	pf.BoolVar(&o.watch, "watch", false, "после последнего сайта ждать новые строки")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "HTTP API управления задачами и метрики",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, o)
		},
	}
	serve.Flags().StringVar(&o.addr, "addr", "", "адрес HTTP API (по умолчанию APP_HOST:APP_PORT)")

	console := &cobra.Command{
		Use:   "console",
		Short: "Интерактивная консоль оператора",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd, o)
		},
	}

	root.AddCommand(serve, console)
	return root
}

// setup загружает конфигурацию, логгер и зависимости. Контекст отменяется по SIGINT/SIGTERM.
func setup(cmd *cobra.Command, o runOptions) (context.Context, context.CancelFunc, *app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if o.watch {
		cfg.Jobs.Watch = true
	}

	log, err := logger.New(cfg.Logger.Env, cfg.Logger.Level)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)

	a, err := bootstrap(ctx, cfg, log)
	if err != nil {
		stop()
		_ = log.Sync()
		return nil, nil, nil, err
	}
	cancel := func() {
		stop()
		a.close()
		_ = log.Sync()
	}
	return ctx, cancel, a, nil
}

func shutdown(a *app, m *jobs.Manager) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		a.log.Warn("Задачи не завершились вовремя", zap.Error(err))
	}
}

// runOnce обрабатывает одну таблицу в текущем процессе и ждет завершения.
func runOnce(cmd *cobra.Command, o runOptions, ref string) error {
	ctx, cancel, a, err := setup(cmd, o)
	if err != nil {
		return err
	}
	defer cancel()

	m := a.manager(ctx, a.runner(o))
	defer shutdown(a, m)

	j := m.Start(strings.TrimSpace(ref))
	a.log.Info("Обработка таблицы", zap.String("job_id", j.ID), zap.String("sheet", j.SheetURL))

	snap, err := m.Wait(ctx, j.ID)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		// По сигналу задача останавливается после текущего сайта.
		_ = m.Stop(j.ID)
		snap, _ = m.Wait(context.Background(), j.ID)
	}

	a.log.Info("Задача завершена",
		zap.String("status", string(snap.Status)),
		zap.Int("completed", snap.Stats.TotalCompleted),
		zap.Int("errors", snap.Stats.TotalErrors))
	if snap.Status == jobs.StatusError {
		return fmt.Errorf("задача завершилась с ошибкой: %s", snap.Error)
	}
	return nil
}

func runServe(cmd *cobra.Command, o runOptions) error {
	ctx, cancel, a, err := setup(cmd, o)
	if err != nil {
		return err
	}
	defer cancel()

	m := a.manager(ctx, a.runner(o))
	defer shutdown(a, m)

	addr := o.addr
	if addr == "" {
		addr = a.cfg.App.Addr()
	}
	return server.New(addr, m, a.registry, a.log).Run(ctx)
}

func runConsole(cmd *cobra.Command, o runOptions) error {
	ctx, cancel, a, err := setup(cmd, o)
	if err != nil {
		return err
	}
	defer cancel()

	m := a.manager(ctx, a.runner(o))
	defer shutdown(a, m)

	var results commands.Results
	if a.repo != nil {
		results = a.repo
	}
	cli.New(m, results, a.browser, a.log).Run(ctx)
	return nil
}
