package staff

import (
	"regexp"
	"strings"
)

// PageSignals - пассивный снимок признаков текущей страницы.
type PageSignals struct {
	Headings   []string    `json:"headings"`
	BodyText   string      `json:"body_text"`
	ImageTexts []string    `json:"image_texts"`
	Containers []Container `json:"containers"`
}

// Container - элемент-контейнер с именем из class/id и длиной его текста.
type Container struct {
	Name       string `json:"name"`
	TextLength int    `json:"text_length"`
}

const (
	// ListingMinScore - минимальный балл, при котором страница считается списком персонала.
	ListingMinScore = 3

	headingWeight   = 1
	personWeight    = 2
	imageWeight     = 1
	containerWeight = 1
	hiringPenalty   = 2

	personTokenCap      = 5
	personTokensNeeded  = 3
	imagesNeeded        = 2
	hiringTokensNeeded  = 2
	containerMinTextLen = 200
)

var personTokens = []*regexp.Regexp{
	regexp.MustCompile(`\bdr\.`),
	regexp.MustCompile(`\bdvm\b`),
	regexp.MustCompile(`\bvmd\b`),
	regexp.MustCompile(`\bd\.v\.m\.?`),
	regexp.MustCompile(`\bveterinarians?\b`),
	regexp.MustCompile(`\bphysicians?\b`),
	regexp.MustCompile(`\bmd\b`),
	regexp.MustCompile(`\bm\.d\.`),
	regexp.MustCompile(`\bdds\b`),
	regexp.MustCompile(`\bdmd\b`),
	regexp.MustCompile(`\bnp\b`),
	regexp.MustCompile(`\bpa-c\b`),
}

var hiringTokens = []string{
	"career",
	"job opening",
	"apply now",
	"now hiring",
	"we're hiring",
	"we are hiring",
	"join our team",
	"internship",
	"residency program",
	"volunteer",
}

var imageTokens = []string{"doctor", "dr.", "dvm", "team", "provider", "staff", "veterinarian", "physician"}

var containerTokens = []string{"team", "staff", "provider", "doctor", "physician", "veterinarian", "bio", "member"}

// ListingScore суммирует независимые признаки списка персонала.
func ListingScore(s PageSignals) int {
	score := 0
	if hasStaffHeading(s.Headings) {
		score += headingWeight
	}
	body := strings.ToLower(s.BodyText)
	if countPersonTokens(body) >= personTokensNeeded {
		score += personWeight
	}
	if countImageMentions(s.ImageTexts) >= imagesNeeded {
		score += imageWeight
	}
	if hasStaffContainer(s.Containers) {
		score += containerWeight
	}
	if countHiringTokens(body) >= hiringTokensNeeded {
		score -= hiringPenalty
	}
	return score
}

// LooksLikeStaffListing сообщает, показывает ли страница уже список врачей/команды.
// Эвристика: ложные срабатывания допустимы, навигация все равно продолжит другие стратегии.
func LooksLikeStaffListing(s PageSignals) bool {
	return ListingScore(s) >= ListingMinScore
}

func hasStaffHeading(headings []string) bool {
	for _, h := range headings {
		if IsStaffLike(h) && !IsCareerOrExcluded(h) {
			return true
		}
	}
	return false
}

func countPersonTokens(body string) int {
	total := 0
	for _, re := range personTokens {
		total += min(len(re.FindAllStringIndex(body, personTokenCap)), personTokenCap)
	}
	return total
}

func countImageMentions(texts []string) int {
	n := 0
	for _, t := range texts {
		if containsAny(strings.ToLower(t), imageTokens) {
			n++
		}
	}
	return n
}

func hasStaffContainer(containers []Container) bool {
	for _, c := range containers {
		if c.TextLength >= containerMinTextLen && containsAny(strings.ToLower(c.Name), containerTokens) {
			return true
		}
	}
	return false
}

func countHiringTokens(body string) int {
	n := 0
	for _, t := range hiringTokens {
		n += strings.Count(body, t)
	}
	return n
}
