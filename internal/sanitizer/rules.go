package sanitizer

import "regexp"

const filtered = "[FILTERED]"

type PasswordSanitizer struct{}

var passwordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(password|пароль|passwd|pwd)\s*[:=]\s*["']?[^"'\s]{3,}["']?`),
}

func (s *PasswordSanitizer) Sanitize(text string) string {
	for _, pattern := range passwordPatterns {
		text = pattern.ReplaceAllString(text, `${1}: `+filtered)
	}
	return text
}

// TokenSanitizer закрывает ключи API и bearer-токены, в том числе ключи OpenAI
// и Google, которые попадают в тексты ошибок клиентов.
type TokenSanitizer struct{}

var (
	tokenPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)((?:api[_-]?key|api[_-]?secret|secret[_-]?key|access[_-]?token|refresh[_-]?token|token|токен)\s*[:=]\s*["']?)[a-zA-Z0-9_\-.]{20,}["']?`),
		regexp.MustCompile(`(?i)(bearer\s+)[a-zA-Z0-9_\-.]{20,}`),
	}
	keyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`),
		regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`),
		regexp.MustCompile(`ya29\.[0-9A-Za-z_-]{20,}`),
	}
)

func (s *TokenSanitizer) Sanitize(text string) string {
	for _, pattern := range tokenPatterns {
		text = pattern.ReplaceAllString(text, `${1}`+filtered)
	}
	for _, pattern := range keyPatterns {
		text = pattern.ReplaceAllString(text, filtered)
	}
	return text
}

type CookieSanitizer struct{}

var cookiePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)((?:set-)?cookie\s*[:=]\s*)[^\n]{10,}`),
	regexp.MustCompile(`(?i)(session[_-]?(?:id|token)\s*[:=]\s*["']?)[a-zA-Z0-9_-]{10,}["']?`),
}

func (s *CookieSanitizer) Sanitize(text string) string {
	for _, pattern := range cookiePatterns {
		text = pattern.ReplaceAllString(text, `${1}`+filtered)
	}
	return text
}

// QuerySanitizer закрывает значения секретных параметров в ссылках
// (?key=..., &access_token=..., &sig=...).
type QuerySanitizer struct{}

var queryPattern = regexp.MustCompile(`(?i)([?&](?:key|api_key|apikey|token|access_token|auth|sig|signature|password)=)[^&#\s"']+`)

func (s *QuerySanitizer) Sanitize(text string) string {
	return queryPattern.ReplaceAllString(text, `${1}`+filtered)
}
