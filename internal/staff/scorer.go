package staff

import (
	"net/url"
	"strings"
)

const (
	// StaffURLBonus начисляется, если href похож на страницу персонала.
	StaffURLBonus = 100
	// CareerPenalty заменяет все положительные вклады ключевых слов,
	// если подпись или href относятся к вакансиям.
	CareerPenalty = 120
	// SameHostBonus - небольшое предпочтение внутренней навигации.
	SameHostBonus = 10

	hintExactBonus    = 50
	hintPartialBonus  = 20
	maxPenaltyLength  = 200
	lengthPenaltyStep = 50
)

// Candidate - кликабельный элемент, найденный при сканировании страницы.
type Candidate struct {
	Label   string `json:"label"`
	Href    string `json:"href"`
	Y       int    `json:"y"`
	Visible bool   `json:"visible"`
}

type labelWeight struct {
	phrase string
	score  int
}

// labelWeights - ранжированная таблица весов подписей. Берется максимум по совпадениям.
var labelWeights = []labelWeight{
	{"our team", 100},
	{"meet the team", 95},
	{"meet our team", 95},
	{"team", 90},
	{"providers", 90},
	{"doctors", 85},
	{"physicians", 85},
	{"staff", 80},
	{"veterinarians", 80},
	{"provider", 75},
	{"doctor", 75},
	{"meet", 60},
	{"about us", 10},
	{"about", 5},
}

// LabelScore возвращает вес подписи ссылки по таблице labelWeights.
func LabelScore(label string) int {
	l := strings.Join(strings.Fields(strings.ToLower(label)), " ")
	if l == "" {
		return 0
	}
	score := 0
	for _, w := range labelWeights {
		if w.score > score && strings.Contains(l, w.phrase) {
			score = w.score
		}
	}
	return score
}

// Score вычисляет итоговый балл кандидата относительно хоста текущей страницы.
func Score(c Candidate, currentHost string) int {
	score := 0
	if IsCareerOrExcluded(c.Label) || IsCareerOrExcluded(c.Href) {
		score -= CareerPenalty
	} else {
		score += LabelScore(c.Label)
		if IsStaffLike(c.Href) {
			score += StaffURLBonus
		}
	}

	if SameHost(c.Href, currentHost) {
		score += SameHostBonus
	}

	score -= min(len(c.Href), maxPenaltyLength) / lengthPenaltyStep
	return score
}

// ScoreWithHint добавляет к Score совпадение подписи с текстом, который предложил ассистент.
func ScoreWithHint(c Candidate, currentHost, hint string) int {
	score := Score(c, currentHost)
	if IsCareerOrExcluded(c.Label) || IsCareerOrExcluded(c.Href) {
		return score
	}
	return score + HintScore(c.Label, hint)
}

// HintScore оценивает совпадение подписи с подсказкой без учета регистра.
func HintScore(label, hint string) int {
	l := strings.ToLower(strings.TrimSpace(label))
	h := strings.ToLower(strings.TrimSpace(hint))
	if l == "" || h == "" {
		return 0
	}
	score := 0
	if l == h {
		score += hintExactBonus
	}
	if strings.Contains(l, h) || strings.Contains(h, l) {
		score += hintPartialBonus
	}
	return score
}

// SameHost сообщает, ведет ли href на тот же хост или его поддомен.
// Относительные ссылки считаются внутренними.
func SameHost(href, currentHost string) bool {
	host := HostOf(href)
	if host == "" {
		return isRelative(href)
	}
	cur := trimWWW(strings.ToLower(currentHost))
	if cur == "" {
		return false
	}
	return host == cur || strings.HasSuffix(host, "."+cur) || strings.HasSuffix(cur, "."+host)
}

// HostOf возвращает хост URL в нижнем регистре без "www.".
func HostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return trimWWW(strings.ToLower(u.Hostname()))
}

func trimWWW(host string) string {
	return strings.TrimPrefix(host, "www.")
}

func isRelative(href string) bool {
	h := strings.TrimSpace(href)
	if h == "" || strings.HasPrefix(h, "//") {
		return false
	}
	u, err := url.Parse(h)
	if err != nil {
		return false
	}
	return u.Scheme == ""
}

// Usable отсеивает ссылки, по которым нельзя перейти.
func Usable(href string) bool {
	h := strings.ToLower(strings.TrimSpace(href))
	if h == "" || strings.HasPrefix(h, "#") {
		return false
	}
	for _, p := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(h, p) {
			return false
		}
	}
	return true
}
