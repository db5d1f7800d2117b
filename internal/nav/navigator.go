// Package nav находит на сайте клиники страницу со списком врачей. Подсказка
// ассистента и эвристика оценки ссылок применяются упорядоченной цепочкой
// стратегий: каждая либо переводит вкладку на новую страницу, либо уступает
// следующей. Результат подтверждается адресом или содержимым страницы.
package nav

import (
	"context"
	"net/url"
	"time"

	"clinicAgent/internal/extractor"
	"clinicAgent/internal/logger"
	"clinicAgent/internal/metrics"
	"clinicAgent/internal/staff"

	"go.uber.org/zap"
)

// SiteTab - вкладка сайта. Методы поиска возвращают пустой результат или false,
// если ничего не нашли; ошибка означает, что продолжать на этой вкладке нельзя.
// Goto - исключение: его ошибку оценивает Options.IsFatal.
type SiteTab interface {
	URL() string
	Goto(ctx context.Context, rawURL string) error
	VisibleLinks(ctx context.Context) ([]staff.Candidate, error)
	AllLinks(ctx context.Context) ([]staff.Candidate, error)
	Signals(ctx context.Context) (staff.PageSignals, error)
	ClickText(ctx context.Context, text string) (bool, error)
	OpenMenus(ctx context.Context) (int, error)
	ExpandDropdown(ctx context.Context, parent string) ([]staff.Candidate, error)
	ExpandAllDropdowns(ctx context.Context) (int, error)
	WaitForURLChange(ctx context.Context, prev string, timeout time.Duration) (bool, error)
}

// Имена стратегий в порядке применения.
const (
	StrategyListing        = "already_listing"
	StrategyBreadcrumbHref = "breadcrumb_href"
	StrategyBreadcrumbMenu = "breadcrumb_menu"
	StrategyParentChild    = "parent_best_child"
	StrategyHintClick      = "hint_click"
	StrategyHintDropdowns  = "hint_dropdowns"
	StrategyHintScored     = "hint_scored"
	StrategyBestLink       = "best_link"
	StrategyDropdownRescan = "dropdown_rescan"
)

type Options struct {
	MinConfidence int
	// HintMinScore - порог для перехода по href пункта, названного в цепочке.
	HintMinScore int
	// ClickWait - сколько ждать смены адреса после клика.
	ClickWait time.Duration
	// IsFatal решает, прерывает ли ошибка Goto поиск. nil - любая ошибка фатальна.
	IsFatal func(error) bool
}

func (o Options) withDefaults() Options {
	if o.MinConfidence <= 0 {
		o.MinConfidence = staff.DefaultMinConfidence
	}
	if o.HintMinScore <= 0 {
		o.HintMinScore = 50
	}
	if o.ClickWait <= 0 {
		o.ClickWait = 6 * time.Second
	}
	if o.IsFatal == nil {
		o.IsFatal = func(error) bool { return true }
	}
	return o
}

// Result - итог поиска. Confirmed == false означает, что вкладка стоит на странице,
// куда привела одна из стратегий, но ни адрес, ни содержимое не похожи на список персонала.
type Result struct {
	Found     bool   `json:"found"`
	URL       string `json:"url"`
	Strategy  string `json:"strategy"`
	Confirmed bool   `json:"confirmed"`
}

// Strategy - один способ добраться до страницы персонала.
// Try возвращает true, если вкладка перешла на другую страницу.
type Strategy struct {
	Name string
	Try  func(ctx context.Context, r *run) (bool, error)
}

type Navigator struct {
	opts       Options
	log        *logger.Zap
	metrics    *metrics.Metrics
	strategies []Strategy
}

func New(opts Options, log *logger.Zap, m *metrics.Metrics) *Navigator {
	if log == nil {
		log = logger.Nop()
	}
	return &Navigator{
		opts:       opts.withDefaults(),
		log:        log.Named("nav"),
		metrics:    m,
		strategies: DefaultStrategies(),
	}
}

// DefaultStrategies - цепочка от самой точной к самой широкой.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{StrategyListing, tryListing},
		{StrategyBreadcrumbHref, tryBreadcrumbHref},
		{StrategyBreadcrumbMenu, tryBreadcrumbMenu},
		{StrategyParentChild, tryParentChild},
		{StrategyHintClick, tryHintClick},
		{StrategyHintDropdowns, tryHintDropdowns},
		{StrategyHintScored, tryHintScored},
		{StrategyBestLink, tryBestLink},
		{StrategyDropdownRescan, tryDropdownRescan},
	}
}

// run - состояние одного поиска.
type run struct {
	n     *Navigator
	tab   SiteTab
	hint  Hint
	start string
	host  string
}

// Find ищет страницу персонала, начиная с текущей страницы вкладки.
func (n *Navigator) Find(ctx context.Context, tab SiteTab, hint Hint) (Result, error) {
	r := &run{n: n, tab: tab, hint: hint, start: tab.URL()}
	r.host = staff.HostOf(r.start)

	var fallback Result
	for _, s := range n.strategies {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		moved, err := s.Try(ctx, r)
		if err != nil {
			return Result{}, err
		}
		if !moved {
			if err := r.back(ctx); err != nil {
				return Result{}, err
			}
			continue
		}

		if s.Name == StrategyListing {
			n.metrics.StrategyHit(s.Name)
			return Result{Found: true, URL: r.start, Strategy: s.Name, Confirmed: true}, nil
		}

		landed := tab.URL()
		ok, err := r.confirm(ctx)
		if err != nil {
			return Result{}, err
		}
		if ok {
			n.log.Debug("Страница персонала найдена",
				zap.String("strategy", s.Name),
				zap.String("url", landed),
			)
			n.metrics.StrategyHit(s.Name)
			return Result{Found: true, URL: landed, Strategy: s.Name, Confirmed: true}, nil
		}

		n.log.Debug("Стратегия привела не на страницу персонала",
			zap.String("strategy", s.Name),
			zap.String("url", landed),
		)
		if !fallback.Found {
			fallback = Result{Found: true, URL: landed, Strategy: s.Name}
		}
		if err := r.back(ctx); err != nil {
			return Result{}, err
		}
	}

	if !fallback.Found {
		return Result{}, nil
	}
	if tab.URL() != fallback.URL {
		if err := tab.Goto(ctx, fallback.URL); err != nil && n.opts.IsFatal(err) {
			return Result{}, err
		}
	}
	n.metrics.StrategyHit(fallback.Strategy)
	return fallback, nil
}

// confirm проверяет, что текущая страница - страница персонала.
func (r *run) confirm(ctx context.Context) (bool, error) {
	if isStaffURL(r.tab.URL()) {
		return true, nil
	}
	sig, err := r.tab.Signals(ctx)
	if err != nil {
		return false, err
	}
	return staff.LooksLikeStaffListing(sig), nil
}

// back возвращает вкладку на исходную страницу перед следующей стратегией.
func (r *run) back(ctx context.Context) error {
	if r.tab.URL() == r.start {
		return nil
	}
	if err := r.tab.Goto(ctx, r.start); err != nil && r.n.opts.IsFatal(err) {
		return err
	}
	return nil
}

// gotoCandidate переходит по href кандидата. false - переход невозможен или ничего не изменил.
func (r *run) gotoCandidate(ctx context.Context, c staff.Candidate) (bool, error) {
	target := extractor.Resolve(r.start, c.Href)
	if target == "" || target == r.tab.URL() {
		return false, nil
	}
	if err := r.tab.Goto(ctx, target); err != nil {
		if r.n.opts.IsFatal(err) {
			return false, err
		}
		return false, nil
	}
	return r.tab.URL() != r.start, nil
}

// clickAndWait кликает по подписи и ждет смены адреса.
func (r *run) clickAndWait(ctx context.Context, label string) (bool, error) {
	prev := r.tab.URL()
	clicked, err := r.tab.ClickText(ctx, label)
	if err != nil || !clicked {
		return false, err
	}
	return r.tab.WaitForURLChange(ctx, prev, r.n.opts.ClickWait)
}

// links - видимые ссылки и полный проход документа, без повторов.
func (r *run) links(ctx context.Context) ([]staff.Candidate, error) {
	visible, err := r.tab.VisibleLinks(ctx)
	if err != nil {
		return nil, err
	}
	all, err := r.tab.AllLinks(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(visible))
	out := make([]staff.Candidate, 0, len(visible)+len(all))
	for _, c := range append(visible, all...) {
		key := c.Label + "|" + c.Href
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

func isStaffURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	p := u.EscapedPath()
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p != "" && staff.IsStaffLike(p) && !staff.IsCareerOrExcluded(p)
}
