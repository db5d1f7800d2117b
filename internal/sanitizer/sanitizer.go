// Package sanitizer вычищает секреты из текста перед сохранением: токены,
// ключи API, пароли, cookie и секретные параметры ссылок. Телефоны и имена
// не трогаются, это полезные данные таблицы.
package sanitizer

type DataSanitizer struct {
	rules []SanitizerRule
}

type SanitizerRule interface {
	Sanitize(text string) string
}

func New() *DataSanitizer {
	return &DataSanitizer{
		rules: []SanitizerRule{
			&PasswordSanitizer{},
			&TokenSanitizer{},
			&CookieSanitizer{},
			&QuerySanitizer{},
		},
	}
}

func (s *DataSanitizer) Sanitize(text string) string {
	if text == "" {
		return text
	}

	result := text
	for _, rule := range s.rules {
		result = rule.Sanitize(result)
	}

	return result
}

var std = New()

// Sanitize применяет набор правил по умолчанию.
func Sanitize(text string) string {
	return std.Sanitize(text)
}
