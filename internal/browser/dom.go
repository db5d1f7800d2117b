package browser

import (
	"context"
	"strings"
	"time"

	"clinicAgent/internal/retry"
	"clinicAgent/internal/staff"

	"github.com/playwright-community/playwright-go"
)

// markAttr помечает элемент, найденный скриптом, чтобы кликнуть его штатно через playwright.
const markAttr = "data-clinic-agent"

const maxDropdownToggles = 20

// hamburgerSelectors - кнопки мобильного и свернутого меню.
var hamburgerSelectors = []string{
	"button[aria-label*='menu' i]",
	"button[aria-label*='navigation' i]",
	"button[class*='hamburger']",
	"button[class*='menu']",
	"button[class*='nav']",
	"[role='button'][aria-label*='menu' i]",
	"[role='button'][class*='menu']",
}

// dropdownSelectors - переключатели выпадающих меню.
var dropdownSelectors = []string{
	"a[aria-haspopup='true']",
	"button[aria-haspopup='true']",
	"a[aria-expanded='false']",
	"button[aria-expanded='false']",
	"[class*='dropdown-toggle']",
	"li.menu-item-has-children > a",
	"li.has-dropdown > a",
}

func clickOpts(cfg Config) playwright.ElementHandleClickOptions {
	return playwright.ElementHandleClickOptions{
		Timeout: playwright.Float(float64(cfg.ActionTimeout.Milliseconds())),
	}
}

const markByTextJS = `
	({ text, attr }) => {
		document.querySelectorAll('[' + attr + ']').forEach(el => el.removeAttribute(attr));
		const target = text.trim().toLowerCase();
		if (!target) return false;

		const nodes = Array.from(document.querySelectorAll(
			'a, button, [role=link], [role=button], [role=menuitem], [role=tab]'));
		const visible = el => {
			const r = el.getBoundingClientRect();
			const s = window.getComputedStyle(el);
			return r.width > 0 && r.height > 0 && s.visibility !== 'hidden' && s.display !== 'none';
		};
		const label = el => (el.innerText || el.textContent || el.getAttribute('aria-label') || '')
			.replace(/\s+/g, ' ').trim().toLowerCase();

		const shown = nodes.filter(visible);
		let hit = shown.find(el => label(el) === target);
		if (!hit) {
			hit = shown.find(el => {
				const l = label(el);
				return l && (l.includes(target) || target.includes(l));
			});
		}
		if (!hit) return false;
		hit.setAttribute(attr, 'target');
		return true;
	}
`

const dispatchClickJS = `
	el => {
		const r = el.getBoundingClientRect();
		const x = r.left + r.width / 2, y = r.top + r.height / 2;
		['mouseover', 'mousedown', 'mouseup', 'click'].forEach(t => {
			el.dispatchEvent(new MouseEvent(t, { bubbles: true, cancelable: true, clientX: x, clientY: y, view: window }));
		});
	}
`

// ClickText кликает первый видимый элемент навигации с подписью text:
// сначала точное совпадение без учета регистра, затем частичное.
func (t *Tab) ClickText(ctx context.Context, text string) (bool, error) {
	if err := t.alive(); err != nil {
		return false, err
	}
	if strings.TrimSpace(text) == "" {
		return false, nil
	}

	res, err := t.page.Evaluate(markByTextJS, map[string]interface{}{"text": text, "attr": markAttr})
	if err != nil {
		return false, t.soft(ctx, err)
	}
	if found, _ := res.(bool); !found {
		return false, nil
	}
	return t.clickMarked(ctx, "target")
}

func (t *Tab) clickMarked(ctx context.Context, mark string) (bool, error) {
	el, err := t.page.QuerySelector("[" + markAttr + "='" + mark + "']")
	if err != nil || el == nil {
		return false, t.soft(ctx, err)
	}
	scrollIntoView(el)

	if err := el.Click(clickOpts(t.cfg)); err != nil {
		if IsSessionLost(err) {
			return false, classify(err)
		}
		// Сайты, перехватывающие клики, реагируют только на синтетические события мыши.
		if _, err := el.Evaluate(dispatchClickJS); err != nil {
			return false, t.soft(ctx, err)
		}
	}
	return true, ctx.Err()
}

// OpenMenus раскрывает свернутое (гамбургер) меню, чтобы ссылки стали кликабельны.
func (t *Tab) OpenMenus(ctx context.Context) (int, error) {
	if err := t.alive(); err != nil {
		return 0, err
	}

	opened := 0
	for _, selector := range hamburgerSelectors {
		elements, err := t.page.QuerySelectorAll(selector)
		if err != nil {
			if err := t.soft(ctx, err); err != nil {
				return opened, err
			}
			continue
		}

		clicked := 0
		for _, el := range elements {
			if clicked >= 2 {
				break
			}
			if visible, err := el.IsVisible(); err != nil || !visible {
				continue
			}
			if expanded, _ := el.GetAttribute("aria-expanded"); expanded == "true" {
				continue
			}
			scrollIntoView(el)
			if err := el.Click(clickOpts(t.cfg)); err != nil {
				continue
			}
			clicked++
			if err := retry.Sleep(ctx, 300*time.Millisecond); err != nil {
				return opened + clicked, err
			}
		}
		opened += clicked
	}
	return opened, nil
}

const markToggleJS = `
	({ text, attr }) => {
		document.querySelectorAll('[' + attr + ']').forEach(el => el.removeAttribute(attr));
		const target = text.trim().toLowerCase();
		if (!target) return null;

		const nodes = document.querySelectorAll('a, button, [role=button], [role=menuitem]');
		for (const el of nodes) {
			const r = el.getBoundingClientRect();
			if (!r.width || !r.height) continue;
			const label = (el.innerText || el.textContent || el.getAttribute('aria-label') || '')
				.replace(/\s+/g, ' ').trim().toLowerCase();
			if (!label || !label.includes(target)) continue;
			el.setAttribute(attr, 'toggle');
			const href = (el.getAttribute('href') || '').trim().toLowerCase();
			const isLink = el.tagName === 'A' && href !== '' && !href.startsWith('#') && !href.startsWith('javascript:');
			return { isLink };
		}
		return null;
	}
`

const toggleChildrenJS = `
	(attr) => {
		const toggle = document.querySelector('[' + attr + '="toggle"]');
		if (!toggle) return [];

		const roots = [];
		const li = toggle.closest('li');
		if (li) roots.push(li);
		const controls = toggle.getAttribute('aria-controls');
		if (controls) {
			const menu = document.getElementById(controls);
			if (menu) roots.push(menu);
		}
		if (!roots.length && toggle.parentElement) roots.push(toggle.parentElement);

		const out = [];
		const seen = new Set();
		for (const root of roots) {
			for (const a of root.querySelectorAll('ul a[href], [role=menu] a[href], .sub-menu a[href], .dropdown-menu a[href]')) {
				if (a === toggle || seen.has(a)) continue;
				seen.add(a);
				const r = a.getBoundingClientRect();
				const label = (a.innerText || a.textContent || a.getAttribute('aria-label') || '').replace(/\s+/g, ' ').trim();
				out.push({
					label: label.substring(0, 200),
					href: a.getAttribute('href') || '',
					y: Math.round(r.top + window.scrollY),
					visible: !!(r.width && r.height)
				});
			}
		}
		return out;
	}
`

// ExpandDropdown раскрывает меню с подписью parent (сначала наведением, затем кликом,
// если переключатель не является обычной ссылкой) и возвращает его пункты.
func (t *Tab) ExpandDropdown(ctx context.Context, parent string) ([]staff.Candidate, error) {
	if err := t.alive(); err != nil {
		return nil, err
	}

	res, err := t.page.Evaluate(markToggleJS, map[string]interface{}{"text": parent, "attr": markAttr})
	if err != nil {
		return nil, t.soft(ctx, err)
	}
	info, ok := res.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	isLink, _ := info["isLink"].(bool)

	el, err := t.page.QuerySelector("[" + markAttr + "='toggle']")
	if err != nil || el == nil {
		return nil, t.soft(ctx, err)
	}
	scrollIntoView(el)
	_ = el.Hover(playwright.ElementHandleHoverOptions{
		Timeout: playwright.Float(float64(t.cfg.ActionTimeout.Milliseconds())),
	})
	if err := retry.Sleep(ctx, 500*time.Millisecond); err != nil {
		return nil, err
	}

	children, err := t.toggleChildren(ctx)
	if err != nil {
		return nil, err
	}
	if anyVisible(children) || isLink {
		return children, nil
	}

	// Наведение не раскрыло меню: кликаем, переключатель не уводит со страницы.
	if err := el.Click(clickOpts(t.cfg)); err != nil {
		return children, t.soft(ctx, err)
	}
	if err := retry.Sleep(ctx, 500*time.Millisecond); err != nil {
		return nil, err
	}
	return t.toggleChildren(ctx)
}

func (t *Tab) toggleChildren(ctx context.Context) ([]staff.Candidate, error) {
	res, err := t.page.Evaluate(toggleChildrenJS, markAttr)
	if err != nil {
		return nil, t.soft(ctx, err)
	}
	items, ok := res.([]interface{})
	if !ok {
		return nil, nil
	}

	out := make([]staff.Candidate, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		c := staff.Candidate{}
		c.Label, _ = m["label"].(string)
		c.Href, _ = m["href"].(string)
		c.Visible, _ = m["visible"].(bool)
		if y, ok := m["y"].(float64); ok {
			c.Y = int(y)
		}
		out = append(out, c)
	}
	return out, nil
}

func anyVisible(cands []staff.Candidate) bool {
	for _, c := range cands {
		if c.Visible {
			return true
		}
	}
	return false
}

// ExpandAllDropdowns раскрывает все найденные выпадающие меню по очереди.
// Ссылки с настоящим href только наводятся, чтобы не уйти со страницы.
func (t *Tab) ExpandAllDropdowns(ctx context.Context) (int, error) {
	if err := t.alive(); err != nil {
		return 0, err
	}

	expanded := 0
	for _, selector := range dropdownSelectors {
		elements, err := t.page.QuerySelectorAll(selector)
		if err != nil {
			if err := t.soft(ctx, err); err != nil {
				return expanded, err
			}
			continue
		}

		for _, el := range elements {
			if expanded >= maxDropdownToggles {
				return expanded, nil
			}
			if visible, err := el.IsVisible(); err != nil || !visible {
				continue
			}
			scrollIntoView(el)
			_ = el.Hover(playwright.ElementHandleHoverOptions{
				Timeout: playwright.Float(float64(t.cfg.ActionTimeout.Milliseconds())),
			})

			href, _ := el.GetAttribute("href")
			if !staff.Usable(href) {
				_ = el.Click(clickOpts(t.cfg))
			}
			expanded++
			if err := retry.Sleep(ctx, 300*time.Millisecond); err != nil {
				return expanded, err
			}
		}
	}
	return expanded, nil
}

// soft превращает ошибку DOM-операции в "не найдено", кроме потери сессии и отмены.
func (t *Tab) soft(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil && IsSessionLost(err) {
		return classify(err)
	}
	return t.alive()
}
