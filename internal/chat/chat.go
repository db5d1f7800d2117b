// Package chat ведет диалог с ассистентом через веб-чат, открытый во вкладке того же
// браузера: новый диалог, скриншот во вложении, отправка вопроса и ожидание ответа,
// который перестал печататься.
package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"clinicAgent/internal/llm"
	"clinicAgent/internal/logger"
	"clinicAgent/internal/retry"

	"go.uber.org/zap"
)

const Backend = "web"

var (
	ErrComposerNotFound = errors.New("поле ввода чата не найдено")
	ErrNoResponse       = errors.New("ассистент не ответил за отведенное время")
)

// Page - вкладка чата. Поиск элементов не падает при их отсутствии,
// ошибка означает потерю вкладки или браузера.
type Page interface {
	URL() string
	Goto(ctx context.Context, rawURL string) error
	FirstVisible(ctx context.Context, selectors []string, timeout time.Duration) (string, bool, error)
	Count(ctx context.Context, selector string) (int, error)
	Texts(ctx context.Context, selector string) ([]string, error)
	Fill(ctx context.Context, selector, text string) error
	Click(ctx context.Context, selector string) error
	Press(ctx context.Context, selector, key string) error
	SetInputFile(ctx context.Context, selector, name, mimeType string, data []byte) error
}

// PageSource возвращает вкладку чата, при необходимости открывая ее.
type PageSource func(ctx context.Context) (Page, error)

var (
	composerSelectors = []string{
		"textarea[data-testid='prompt-textarea']",
		"div[contenteditable='true'][data-testid='prompt-textarea']",
		"div#prompt-textarea.ProseMirror[contenteditable='true']",
		"div[contenteditable='true'][role='textbox']",
		"div[contenteditable='true']",
	}
	newChatSelectors = []string{
		"button[data-testid='new-chat-button']",
		"a[data-testid='create-new-chat-button']",
		"a:has-text('New chat')",
	}
	fileInputSelectors = []string{
		"form input[type='file']",
		"input[type='file'][accept*='image']",
		"input[type='file']",
	}
)

const (
	assistantSelector = "div[data-message-author-role='assistant']"
	sendSelector      = "button[data-testid='send-button']"
	stopSelector      = "button[data-testid='stop-button']"
)

type Options struct {
	// URL открывается, если кнопки нового диалога нет.
	URL             string
	ResponseTimeout time.Duration
	// StableFor - сколько текст ответа должен не меняться, чтобы считаться готовым.
	StableFor       time.Duration
	ComposerTimeout time.Duration
	UploadWait      time.Duration
	PollInterval    time.Duration
}

func (o Options) withDefaults() Options {
	if o.URL == "" {
		o.URL = "https://chatgpt.com/"
	}
	if o.ResponseTimeout <= 0 {
		o.ResponseTimeout = 90 * time.Second
	}
	if o.StableFor <= 0 {
		o.StableFor = 2 * time.Second
	}
	if o.ComposerTimeout <= 0 {
		o.ComposerTimeout = 10 * time.Second
	}
	if o.UploadWait < 0 {
		o.UploadWait = 0
	} else if o.UploadWait == 0 {
		o.UploadWait = 3 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 500 * time.Millisecond
	}
	return o
}

// WebChat реализует llm.Assistant поверх вкладки веб-чата.
// Диалоги идут строго по одному: вкладка чата общая для всех задач.
type WebChat struct {
	mu   sync.Mutex
	open PageSource
	opts Options
	log  *logger.Zap
}

var _ llm.Assistant = (*WebChat)(nil)

func New(open PageSource, opts Options, log *logger.Zap) *WebChat {
	if log == nil {
		log = logger.Nop()
	}
	return &WebChat{
		open: open,
		opts: opts.withDefaults(),
		log:  log.Named("chat"),
	}
}

func (w *WebChat) Name() string { return Backend }

// Ask задает вопрос в новом диалоге и возвращает последний ответ ассистента.
func (w *WebChat) Ask(ctx context.Context, req llm.Request) (llm.Answer, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	page, err := w.open(ctx)
	if err != nil {
		return llm.Answer{}, fmt.Errorf("вкладка чата недоступна: %w", err)
	}

	composer, err := w.NewConversation(ctx, page)
	if err != nil {
		return llm.Answer{}, err
	}

	before, err := page.Count(ctx, assistantSelector)
	if err != nil {
		return llm.Answer{}, err
	}

	if len(req.Image) > 0 {
		if err := w.attach(ctx, page, req); err != nil {
			return llm.Answer{}, err
		}
	}

	if err := page.Fill(ctx, composer, req.Prompt); err != nil {
		return llm.Answer{}, fmt.Errorf("не удалось ввести вопрос: %w", err)
	}
	if err := w.send(ctx, page, composer); err != nil {
		return llm.Answer{}, err
	}

	text, err := w.waitReply(ctx, page, before)
	if err != nil {
		return llm.Answer{}, err
	}
	return llm.Answer{Text: text, Backend: Backend}, nil
}

// NewConversation открывает пустой диалог и возвращает селектор поля ввода.
func (w *WebChat) NewConversation(ctx context.Context, page Page) (string, error) {
	sel, ok, err := page.FirstVisible(ctx, newChatSelectors, time.Second)
	if err != nil {
		return "", err
	}
	clicked := false
	if ok {
		if err := page.Click(ctx, sel); err == nil {
			clicked = true
		} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
	}
	if !clicked {
		if err := page.Goto(ctx, w.opts.URL); err != nil {
			return "", fmt.Errorf("не удалось открыть чат: %w", err)
		}
	}

	composer, ok, err := page.FirstVisible(ctx, composerSelectors, w.opts.ComposerTimeout)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrComposerNotFound
	}
	return composer, nil
}

func (w *WebChat) attach(ctx context.Context, page Page, req llm.Request) error {
	name := req.ImageName
	if name == "" {
		name = "screenshot.jpg"
	}
	mime := http.DetectContentType(req.Image)

	for _, sel := range fileInputSelectors {
		n, err := page.Count(ctx, sel)
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}
		if err := page.SetInputFile(ctx, sel, name, mime, req.Image); err != nil {
			return fmt.Errorf("не удалось прикрепить скриншот: %w", err)
		}
		// Превью загружается асинхронно, до его появления отправка уходит без картинки.
		return retry.Sleep(ctx, w.opts.UploadWait)
	}

	w.log.Warn("Поле загрузки файла не найдено, вопрос уйдет без скриншота",
		zap.String("site", req.Site))
	return nil
}

// send нажимает кнопку отправки, а если ее нет или клик не прошел - Enter в поле ввода.
func (w *WebChat) send(ctx context.Context, page Page, composer string) error {
	n, err := page.Count(ctx, sendSelector)
	if err != nil {
		return err
	}
	if n > 0 {
		if err := page.Click(ctx, sendSelector); err == nil {
			return nil
		}
	}
	if err := page.Press(ctx, composer, "Enter"); err != nil {
		return fmt.Errorf("не удалось отправить вопрос: %w", err)
	}
	return nil
}

// waitReply ждет новое сообщение ассистента и его стабилизацию.
func (w *WebChat) waitReply(ctx context.Context, page Page, before int) (string, error) {
	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var pageErr error
	text, stable, err := retry.Stable(pollCtx, w.opts.ResponseTimeout, w.opts.PollInterval, w.opts.StableFor,
		func(ctx context.Context) string {
			t, err := latestReply(ctx, page, before)
			if err != nil {
				pageErr = err
				cancel()
			}
			return t
		})
	if pageErr != nil {
		return "", pageErr
	}
	if err != nil {
		return "", err
	}
	if !stable {
		if text == "" {
			return "", ErrNoResponse
		}
		w.log.Warn("Ответ не успел стабилизироваться, берем последний текст",
			zap.Int("length", len(text)))
	}
	return text, nil
}

// latestReply возвращает текст последнего ответа, если он новее before.
// Пока видна кнопка остановки, ответ еще печатается и считается пустым.
func latestReply(ctx context.Context, page Page, before int) (string, error) {
	streaming, err := page.Count(ctx, stopSelector)
	if err != nil {
		return "", err
	}
	if streaming > 0 {
		return "", nil
	}
	texts, err := page.Texts(ctx, assistantSelector)
	if err != nil {
		return "", err
	}
	if len(texts) <= before {
		return "", nil
	}
	return strings.TrimSpace(texts[len(texts)-1]), nil
}
