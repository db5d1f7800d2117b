// Package reply разбирает CSV-подобный ответ ассистента в позиционные поля.
// Разбор никогда не падает: при любом входе возвращается ровно столько полей,
// сколько ожидает раскладка, пустые поля остаются на своих местах.
package reply

import (
	"regexp"
	"strings"
)

// Kind - способ нормализации значения поля.
type Kind int

const (
	// Text - только обрезка пробелов, кавычек и обратных апострофов.
	Text Kind = iota
	// Phone - остаются цифры, x/X, скобки, +, -, точка и пробелы.
	Phone
	// Count - первое целое число в поле или пустая строка.
	Count
)

// Layout - явная раскладка полей ответа. Выбирается вызывающей стороной,
// а не угадывается по содержимому.
type Layout struct {
	Name  string
	Kinds []Kind
}

// Arity возвращает число полей раскладки.
func (l Layout) Arity() int { return len(l.Kinds) }

var (
	// StaffLayout: Phone, First, Last, Doctors.
	StaffLayout = Layout{Name: "staff", Kinds: []Kind{Phone, Text, Text, Count}}
	// OwnerLayout: First, Last, Doctors.
	OwnerLayout = Layout{Name: "owner", Kinds: []Kind{Text, Text, Count}}
	// DetailsLayout: Phone, First, Last.
	DetailsLayout = Layout{Name: "details", Kinds: []Kind{Phone, Text, Text}}
)

var (
	spaceRe    = regexp.MustCompile(`\s+`)
	notPhoneRe = regexp.MustCompile(`[^0-9xX()+\-.\s]`)
	digitsRe   = regexp.MustCompile(`\d+`)
	fenceRe    = regexp.MustCompile("^```[A-Za-z0-9_+-]*$")
)

// LayoutFor подбирает раскладку по числу полей: 4 - StaffLayout, 3 - OwnerLayout,
// иначе все поля текстовые.
func LayoutFor(n int) Layout {
	switch n {
	case 4:
		return StaffLayout
	case 3:
		return OwnerLayout
	}
	if n <= 0 {
		return Layout{Name: "empty"}
	}
	return Layout{Name: "text", Kinds: make([]Kind, n)}
}

// Fields возвращает ровно n полей (для n <= 0 - пустой срез).
func Fields(raw string, n int) []string {
	return Parse(raw, LayoutFor(n))
}

// Parse разбирает ответ по заданной раскладке.
func Parse(raw string, layout Layout) []string {
	n := layout.Arity()
	out := make([]string, n)
	if n == 0 {
		return out
	}

	parts := split(raw)
	for i := 0; i < n && i < len(parts); i++ {
		out[i] = normalize(parts[i], layout.Kinds[i])
	}
	return out
}

func split(raw string) []string {
	s := stripFences(strings.TrimSpace(raw))
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = cleanPiece(p)
	}
	return parts
}

func stripFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		if fenceRe.MatchString(ln) {
			continue
		}
		// Ответ в одну строку: ```555-1234,John,Doe,3```
		kept = append(kept, strings.Trim(ln, "`"))
	}
	return strings.Join(kept, "\n")
}

func cleanPiece(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimSpace(strings.Trim(p, "`"))
	return strings.TrimSpace(strings.Trim(p, `"'`))
}

func normalize(v string, k Kind) string {
	switch k {
	case Phone:
		return NormalizePhone(v)
	case Count:
		return FirstInteger(v)
	}
	return v
}

// NormalizePhone удаляет из строки все символы, недопустимые в номере телефона.
func NormalizePhone(s string) string {
	return strings.TrimSpace(notPhoneRe.ReplaceAllString(s, ""))
}

// FirstInteger возвращает первую непрерывную последовательность цифр или "".
func FirstInteger(s string) string {
	return digitsRe.FindString(s)
}
