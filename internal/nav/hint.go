package nav

import (
	"regexp"
	"strings"
)

// Hint - подсказка ассистента: подпись ссылки или цепочка "Родитель > Ссылка".
type Hint struct {
	Raw    string
	Parent string
	Label  string
}

var (
	breadcrumbSep = regexp.MustCompile(`\s*(?:>|›|»|→)\s*`)
	hintPrefix    = regexp.MustCompile(`(?i)^(?:link|answer|click|navigation)\s*:\s*`)
)

// ParseHint разбирает ответ ассистента о навигации. Снимает кавычки, обратные
// апострофы, маркеры списка и завершающую точку; из цепочки берет первый
// и последний элементы.
func ParseHint(raw string) Hint {
	h := Hint{Raw: raw}

	s := strings.TrimSpace(raw)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = hintPrefix.ReplaceAllString(s, "")
	s = strings.TrimLeft(s, "-*• ")
	s = strings.TrimSpace(strings.TrimRight(s, "."))

	var parts []string
	for _, p := range breadcrumbSep.Split(s, -1) {
		if p = clean(p); p != "" {
			parts = append(parts, p)
		}
	}

	switch len(parts) {
	case 0:
	case 1:
		h.Label = parts[0]
	default:
		h.Parent = parts[0]
		h.Label = parts[len(parts)-1]
	}
	return h
}

func clean(p string) string {
	p = strings.TrimSpace(p)
	p = strings.Trim(p, "`\"'“”‘’*")
	return strings.TrimSpace(p)
}

func (h Hint) Empty() bool { return h.Label == "" }

// Breadcrumb сообщает, что ассистент указал пункт внутри выпадающего меню.
func (h Hint) Breadcrumb() bool { return h.Parent != "" }

func (h Hint) String() string {
	if h.Breadcrumb() {
		return h.Parent + " > " + h.Label
	}
	return h.Label
}

// MatchesLinks проверяет, видна ли подпись среди ссылок страницы: точное совпадение
// без учета регистра или вхождение в любую сторону.
func MatchesLinks(label string, links []string) bool {
	t := strings.ToLower(strings.TrimSpace(label))
	if t == "" {
		return false
	}
	for _, l := range links {
		if t == strings.ToLower(strings.TrimSpace(l)) {
			return true
		}
	}
	for _, l := range links {
		ll := strings.ToLower(strings.TrimSpace(l))
		if ll != "" && (strings.Contains(ll, t) || strings.Contains(t, ll)) {
			return true
		}
	}
	return false
}
