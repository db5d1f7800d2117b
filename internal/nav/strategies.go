package nav

import (
	"context"

	"clinicAgent/internal/staff"
)

// tryListing - текущая страница уже показывает список врачей.
func tryListing(ctx context.Context, r *run) (bool, error) {
	sig, err := r.tab.Signals(ctx)
	if err != nil {
		return false, err
	}
	return staff.LooksLikeStaffListing(sig), nil
}

// tryBreadcrumbHref ищет href дочернего пункта цепочки среди всех ссылок документа:
// пункты скрытых подменю обычно уже есть в DOM.
func tryBreadcrumbHref(ctx context.Context, r *run) (bool, error) {
	if !r.hint.Breadcrumb() {
		return false, nil
	}
	links, err := r.links(ctx)
	if err != nil {
		return false, err
	}
	c, ok := staff.SelectByHint(links, r.host, r.hint.Label, r.n.opts.HintMinScore)
	if !ok {
		return false, nil
	}
	return r.gotoCandidate(ctx, c)
}

// tryBreadcrumbMenu раскрывает родителя цепочки и переходит к дочернему пункту.
func tryBreadcrumbMenu(ctx context.Context, r *run) (bool, error) {
	if !r.hint.Breadcrumb() {
		return false, nil
	}
	children, err := r.tab.ExpandDropdown(ctx, r.hint.Parent)
	if err != nil {
		return false, err
	}
	if c, ok := staff.SelectByHint(children, r.host, r.hint.Label, r.n.opts.HintMinScore); ok {
		if moved, err := r.gotoCandidate(ctx, c); err != nil || moved {
			return moved, err
		}
	}
	return r.clickAndWait(ctx, r.hint.Label)
}

// tryParentChild считает одиночную подсказку родительским пунктом меню
// и выбирает в его подменю самый подходящий пункт.
func tryParentChild(ctx context.Context, r *run) (bool, error) {
	if r.hint.Empty() || r.hint.Breadcrumb() {
		return false, nil
	}
	children, err := r.tab.ExpandDropdown(ctx, r.hint.Label)
	if err != nil {
		return false, err
	}
	c, ok := staff.BestChild(children)
	if !ok {
		return false, nil
	}
	return r.gotoCandidate(ctx, c)
}

func tryHintClick(ctx context.Context, r *run) (bool, error) {
	if r.hint.Empty() {
		return false, nil
	}
	if _, err := r.tab.OpenMenus(ctx); err != nil {
		return false, err
	}
	return r.clickAndWait(ctx, r.hint.Label)
}

func tryHintDropdowns(ctx context.Context, r *run) (bool, error) {
	if r.hint.Empty() {
		return false, nil
	}
	n, err := r.tab.ExpandAllDropdowns(ctx)
	if err != nil || n == 0 {
		return false, err
	}
	return r.clickAndWait(ctx, r.hint.Label)
}

// tryHintScored - подсказка как бонус к обычному скорингу видимых ссылок.
func tryHintScored(ctx context.Context, r *run) (bool, error) {
	if r.hint.Empty() {
		return false, nil
	}
	links, err := r.links(ctx)
	if err != nil {
		return false, err
	}
	c, ok := staff.SelectByHint(links, r.host, r.hint.Label, r.n.opts.MinConfidence)
	if !ok {
		return false, nil
	}
	return r.gotoCandidate(ctx, c)
}

// tryBestLink работает без подсказки: сначала видимые ссылки, затем весь документ.
func tryBestLink(ctx context.Context, r *run) (bool, error) {
	visible, err := r.tab.VisibleLinks(ctx)
	if err != nil {
		return false, err
	}

	var allErr error
	c, ok := staff.SelectTiered(visible, func() []staff.Candidate {
		all, err := r.tab.AllLinks(ctx)
		allErr = err
		return all
	}, r.host, r.n.opts.MinConfidence)
	if allErr != nil {
		return false, allErr
	}
	if !ok {
		return false, nil
	}
	return r.gotoCandidate(ctx, c)
}

// tryDropdownRescan раскрывает все меню и пересканирует видимые ссылки:
// пункты, которые скрипт сайта добавляет только при наведении, в HTML не видны.
func tryDropdownRescan(ctx context.Context, r *run) (bool, error) {
	n, err := r.tab.ExpandAllDropdowns(ctx)
	if err != nil || n == 0 {
		return false, err
	}
	visible, err := r.tab.VisibleLinks(ctx)
	if err != nil {
		return false, err
	}
	c, ok := staff.SelectBest(visible, r.host, r.n.opts.MinConfidence)
	if !ok {
		return false, nil
	}
	return r.gotoCandidate(ctx, c)
}
