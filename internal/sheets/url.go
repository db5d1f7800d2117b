package sheets

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	sheetURLRe = regexp.MustCompile(`^https://docs\.google\.com/spreadsheets/d/[a-zA-Z0-9-_]+/edit`)
	sheetIDRe  = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
	gidRe      = regexp.MustCompile(`[#&?]gid=(\d+)`)
	bareIDRe   = regexp.MustCompile(`^[a-zA-Z0-9-_]{20,}$`)
)

// IsValidSheetURL проверяет, что ссылка ведет на редактор Google-таблицы.
func IsValidSheetURL(u string) bool {
	return sheetURLRe.MatchString(strings.TrimSpace(u))
}

// SpreadsheetID извлекает идентификатор таблицы из ссылки. Голый идентификатор возвращается как есть.
func SpreadsheetID(urlOrID string) (string, bool) {
	s := strings.TrimSpace(urlOrID)
	if m := sheetIDRe.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if bareIDRe.MatchString(s) {
		return s, true
	}
	return "", false
}

// GID извлекает идентификатор листа (gid=...) из ссылки, если он есть.
func GID(u string) string {
	if m := gidRe.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	return ""
}

// NormalizeSite приводит адрес сайта к виду для сравнения строк таблицы:
// без схемы, хост и путь в нижнем регистре, без завершающего "/", без query и fragment.
func NormalizeSite(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "http://" + strings.TrimPrefix(s, "//")
	}
	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		return strings.TrimRight(strings.ToLower(strings.TrimSpace(raw)), "/")
	}
	host := strings.ToLower(u.Hostname())
	if p := u.Port(); p != "" {
		host += ":" + p
	}
	return host + strings.TrimRight(strings.ToLower(u.EscapedPath()), "/")
}

// SameSite сообщает, указывают ли два адреса на одну строку таблицы.
func SameSite(a, b string) bool {
	na := NormalizeSite(a)
	return na != "" && na == NormalizeSite(b)
}
