package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinicAgent/internal/agent"
	"clinicAgent/internal/browser"
	"clinicAgent/internal/chat"
	"clinicAgent/internal/config"
	"clinicAgent/internal/database"
	"clinicAgent/internal/jobs"
	"clinicAgent/internal/llm"
	"clinicAgent/internal/logger"
	"clinicAgent/internal/metrics"
	"clinicAgent/internal/migrations"
	"clinicAgent/internal/nav"
	"clinicAgent/internal/retry"
	"clinicAgent/internal/sheets"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// app - собранные зависимости процесса.
type app struct {
	cfg      *config.Cfg
	log      *logger.Zap
	db       *database.Database
	repo     *database.Repository
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	browser  *browser.PlaywrightBrowser
	agent    *agent.Agent
}

func bootstrap(ctx context.Context, cfg *config.Cfg, log *logger.Zap) (*app, error) {
	a := &app{cfg: cfg, log: log}

	if cfg.Database.Enabled {
		if err := migrations.Run(cfg, log); err != nil {
			return nil, fmt.Errorf("ошибка миграций: %w", err)
		}
		db, err := database.New(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
		}
		a.db = db
		a.repo = database.NewRepository(db.DB)
	} else {
		log.Info("База данных отключена, результаты сохраняются только в таблицу")
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	a.browser = browser.New(browser.Config{
		CDPURL:            cfg.Browser.CDPURL,
		ConnectTimeout:    cfg.Browser.ConnectTimeout,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		ActionTimeout:     cfg.Browser.ActionTimeout,
		ScreenshotWidth:   cfg.Browser.ScreenshotWidth,
		ScreenshotHeight:  cfg.Browser.ScreenshotHeight,
	})
	if err := a.browser.Attach(ctx); err != nil {
		// Задачи переподключаются сами перед каждым сайтом.
		log.Warn("Браузер недоступен, подключение будет повторено при запуске задачи",
			zap.String("cdp", cfg.Browser.CDPURL), zap.Error(err))
	}

	assistant, err := a.assistant()
	if err != nil {
		a.close()
		return nil, err
	}

	navigator := nav.New(nav.Options{
		MinConfidence: cfg.Nav.MinConfidence,
		IsFatal: func(err error) bool {
			return browser.IsSessionLost(err) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
	}, log, a.metrics)

	var store agent.Store
	if a.repo != nil {
		store = a.repo
	}

	a.agent = agent.New(agent.FromPlaywright(a.browser), assistant, navigator, store, a.metrics, log, agent.Config{
		Columns: sheets.Columns{
			Website: cfg.Sheets.WebsiteCol,
			Phone:   cfg.Sheets.PhoneCol,
			First:   cfg.Sheets.FirstCol,
			Last:    cfg.Sheets.LastCol,
			Doctors: cfg.Sheets.DoctorsCol,
		},
		Sheets: sheets.GoogleOptions{
			CredentialsFile: cfg.Sheets.CredentialsFile,
			Retry: retry.Policy{
				MaxAttempts: cfg.Sheets.MaxRetries,
				BaseDelay:   cfg.Sheets.RetryBaseDelay,
				MaxDelay:    time.Minute,
				Jitter:      true,
				Retryable:   sheets.IsRateLimited,
			},
		},
		Watch:         cfg.Jobs.Watch,
		WatchInterval: cfg.Jobs.WatchInterval,
		SiteDelay:     cfg.Jobs.SiteDelay,
		MaxLinks:      cfg.Nav.MaxLinks,
		ScreenshotDir: cfg.Browser.ScreenshotDir,
	})
	return a, nil
}

// assistant выбирает бэкенд и оборачивает его записью обменов, метриками
// и автоматом защиты от серии отказов.
func (a *app) assistant() (llm.Assistant, error) {
	var backend llm.Assistant
	switch a.cfg.Chat.Backend {
	case chat.Backend:
		backend = chat.New(a.chatPage, chat.Options{
			URL:             a.cfg.Chat.URL,
			ResponseTimeout: a.cfg.Chat.ResponseTimeout,
			StableFor:       a.cfg.Chat.StableFor,
		}, a.log)
	case "openai":
		if a.cfg.OpenAI.KeyAI == "" {
			return nil, errors.New("CHAT_BACKEND=openai требует OPENAI_API_KEY")
		}
		backend = llm.NewClient(a.cfg.OpenAI.KeyAI, a.cfg.OpenAI.Model, a.cfg.OpenAI.MaxTokens, a.cfg.OpenAI.RateLimit)
	default:
		return nil, fmt.Errorf("неизвестный CHAT_BACKEND %q", a.cfg.Chat.Backend)
	}

	var recorder llm.Recorder
	if a.repo != nil {
		recorder = a.repo
	}
	return llm.NewRecorded(backend, recorder, retry.NewBreaker(5, time.Minute), a.metrics, a.log), nil
}

// chatPage возвращает вкладку веб-чата, переподключаясь к браузеру при необходимости.
func (a *app) chatPage(ctx context.Context) (chat.Page, error) {
	if err := a.browser.Reattach(ctx); err != nil {
		return nil, err
	}
	tab, err := a.browser.SiteTab(ctx, a.cfg.Chat.URL)
	if err != nil {
		return nil, err
	}
	return tab, nil
}

// runner возвращает исполнителя задач: один лист или конвейер по листам.
func (a *app) runner(o runOptions) jobs.Runner {
	if o.pipelineMode || len(o.worksheets) > 0 {
		return agent.NewPipeline(a.agent, o.pipeline, o.worksheets)
	}
	return a.agent
}

// manager создает менеджер задач с учетом метрик и статуса в БД.
func (a *app) manager(ctx context.Context, runner jobs.Runner) *jobs.Manager {
	m := jobs.NewManager(ctx, runner, jobs.ControlOptions{
		BatchLimit:   a.cfg.Jobs.BatchLimit,
		Cooldown:     a.cfg.Jobs.Cooldown,
		PollInterval: a.cfg.Jobs.PollInterval,
	}, a.log)

	m.OnStart = func(*jobs.Job) { a.metrics.JobStarted() }
	m.OnFinish = func(j *jobs.Job) {
		snap := j.Snapshot()
		a.metrics.JobFinished(string(snap.Status))
		if a.repo == nil {
			return
		}
		// Контекст менеджера к этому моменту может быть отменен.
		uctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.repo.FinishJob(uctx, j.ID, string(snap.Status), snap.Error,
			snap.Stats.TotalCompleted, snap.Stats.TotalErrors); err != nil {
			a.log.Warn("Не удалось сохранить статус задачи", zap.String("job_id", j.ID), zap.Error(err))
		}
	}
	return m
}

func (a *app) close() {
	if a.browser != nil {
		if err := a.browser.Close(); err != nil {
			a.log.Warn("Ошибка закрытия браузера", zap.Error(err))
		}
	}
	if a.db != nil {
		a.db.Close(a.log)
	}
}
