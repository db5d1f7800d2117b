package reply

import "strings"

// Reply - типизированный результат разбора. Values возвращает поля
// в порядке колонок раскладки.
type Reply interface {
	Layout() Layout
	Values() []string
}

// Staff - ответ по странице персонала: Phone, First, Last, Doctors.
type Staff struct {
	Phone   string `json:"phone"`
	First   string `json:"first"`
	Last    string `json:"last"`
	Doctors string `json:"doctors"`
}

func (Staff) Layout() Layout { return StaffLayout }

func (s Staff) Values() []string { return []string{s.Phone, s.First, s.Last, s.Doctors} }

// Owner - ответ без телефона: First, Last, Doctors.
type Owner struct {
	First   string `json:"first"`
	Last    string `json:"last"`
	Doctors string `json:"doctors"`
}

func (Owner) Layout() Layout { return OwnerLayout }

func (o Owner) Values() []string { return []string{o.First, o.Last, o.Doctors} }

// Details - ответ без числа врачей: Phone, First, Last.
type Details struct {
	Phone string `json:"phone"`
	First string `json:"first"`
	Last  string `json:"last"`
}

func (Details) Layout() Layout { return DetailsLayout }

func (d Details) Values() []string { return []string{d.Phone, d.First, d.Last} }

func ParseStaff(raw string) Staff {
	f := Parse(raw, StaffLayout)
	s := Staff{Phone: f[0], First: f[1], Last: f[2], Doctors: f[3]}
	s.First, s.Last = CleanName(s.First, s.Last)
	return s
}

func ParseOwner(raw string) Owner {
	f := Parse(raw, OwnerLayout)
	o := Owner{First: f[0], Last: f[1], Doctors: f[2]}
	o.First, o.Last = CleanName(o.First, o.Last)
	return o
}

func ParseDetails(raw string) Details {
	f := Parse(raw, DetailsLayout)
	d := Details{Phone: f[0], First: f[1], Last: f[2]}
	d.First, d.Last = CleanName(d.First, d.Last)
	return d
}

// ParseAs разбирает ответ в типизированный вариант по раскладке.
func ParseAs(raw string, layout Layout) Reply {
	switch layout.Name {
	case OwnerLayout.Name:
		return ParseOwner(raw)
	case DetailsLayout.Name:
		return ParseDetails(raw)
	}
	return ParseStaff(raw)
}

var placeholderNames = map[string]struct{}{
	"":            {},
	"-":           {},
	"n/a":         {},
	"na":          {},
	"none":        {},
	"null":        {},
	"unknown":     {},
	"not found":   {},
	"not visible": {},
	"not listed":  {},
	"first":       {},
	"last":        {},
}

// businessWords - ассистент иногда подставляет название клиники вместо имени.
var businessWords = []string{
	"hospital", "clinic", "veterinary", "practice", "center", "medical",
	"staff", "team", "group", "associates", "partners", "services",
	"animal", "health", "wellness", "emergency",
}

// CleanName очищает пару имя/фамилия от заглушек и названий организаций.
// Слоты сохраняются: вместо недостоверного значения возвращается "".
func CleanName(first, last string) (string, string) {
	f, l := strings.ToLower(first), strings.ToLower(last)
	for _, w := range businessWords {
		if strings.Contains(f, w) || strings.Contains(l, w) {
			return "", ""
		}
	}
	if isPlaceholder(f) {
		first = ""
	}
	if isPlaceholder(l) {
		last = ""
	}
	return first, last
}

func isPlaceholder(s string) bool {
	_, ok := placeholderNames[strings.Trim(strings.TrimSpace(s), ".")]
	return ok
}
