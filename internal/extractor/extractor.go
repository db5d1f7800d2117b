// Package extractor собирает со страницы сайта кандидатов-ссылки и пассивные сигналы
// для эвристик поиска страницы персонала. Видимые ссылки берутся скриптом в живой
// странице, полный проход по документу и сигналы - разбором HTML.
package extractor

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"clinicAgent/internal/staff"

	"github.com/playwright-community/playwright-go"
)

// maxVisibleLinks ограничивает ответ скрипта.
const maxVisibleLinks = 300

// Evaluator - часть playwright.Page, нужная для запуска скриптов.
type Evaluator interface {
	Evaluate(expression string, arg ...interface{}) (interface{}, error)
}

var _ Evaluator = (playwright.Page)(nil)

const visibleLinksJS = `
	(limit) => {
		const out = [];
		const seen = new Set();
		const nodes = document.querySelectorAll('a[href], [role=link][href]');

		function visible(el) {
			const rect = el.getBoundingClientRect();
			if (!rect.width || !rect.height) return false;
			const style = window.getComputedStyle(el);
			return style.display !== 'none' && style.visibility !== 'hidden' && style.opacity !== '0';
		}

		for (const a of nodes) {
			if (!visible(a)) continue;
			const label = (a.innerText || a.textContent || a.getAttribute('aria-label') || a.getAttribute('title') || '')
				.replace(/\s+/g, ' ').trim();
			const href = a.getAttribute('href') || '';
			const key = label + '|' + href;
			if (seen.has(key)) continue;
			seen.add(key);

			const rect = a.getBoundingClientRect();
			out.push({
				label: label.substring(0, 200),
				href: href,
				y: Math.round(rect.top + window.scrollY)
			});
			if (out.length >= limit) break;
		}
		return out;
	}
`

// VisibleLinks возвращает видимые ссылки страницы в порядке документа.
func VisibleLinks(ctx context.Context, page Evaluator) ([]staff.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := page.Evaluate(visibleLinksJS, maxVisibleLinks)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения JavaScript: %w", err)
	}

	items, ok := result.([]interface{})
	if !ok {
		return []staff.Candidate{}, nil
	}

	links := make([]staff.Candidate, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if c, ok := parseCandidate(m); ok {
			links = append(links, c)
		}
	}
	return links, nil
}

func parseCandidate(data map[string]interface{}) (staff.Candidate, bool) {
	c := staff.Candidate{Visible: true}

	if label, ok := data["label"].(string); ok {
		c.Label = label
	}
	if href, ok := data["href"].(string); ok {
		c.Href = href
	}
	switch y := data["y"].(type) {
	case float64:
		c.Y = int(y)
	case int:
		c.Y = y
	}

	if c.Label == "" && c.Href == "" {
		return staff.Candidate{}, false
	}
	return c, true
}

// LinkTexts возвращает неповторяющиеся непустые подписи ссылок, не больше limit.
func LinkTexts(cands []staff.Candidate, limit int) []string {
	seen := make(map[string]struct{}, len(cands))
	out := make([]string, 0, min(len(cands), limit))
	for _, c := range cands {
		t := strings.TrimSpace(c.Label)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// Resolve превращает href кандидата в абсолютный URL относительно base.
// Возвращает "", если href непригоден для перехода.
func Resolve(base, href string) string {
	if !staff.Usable(href) {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil || b.Scheme == "" {
		if ref.IsAbs() {
			return ref.String()
		}
		return ""
	}
	return b.ResolveReference(ref).String()
}
