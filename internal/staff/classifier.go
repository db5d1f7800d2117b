// Package staff содержит эвристики поиска страницы с персоналом клиники:
// классификацию ссылок, их скоринг, выбор лучшего кандидата и распознавание
// страницы, которая уже показывает список врачей.
package staff

import "strings"

// staffKeywords - сильные признаки страницы команды/врачей.
// Сравнение идет по нормализованной строке (пробелы и "_" заменены на "-").
var staffKeywords = []string{
	"our-team",
	"team",
	"providers",
	"provider",
	"doctors",
	"our-doctors",
	"physicians",
	"veterinarians",
	"vets",
	"meet-the-team",
	"meet-our-team",
	"medical-team",
	"our-staff",
	"staff",
	"clinicians",
	"dentists",
}

// roleKeywords нужны для слабого правила со словом "meet":
// "meet our values" не должен считаться страницей персонала.
var roleKeywords = []string{
	"team",
	"doctor",
	"provider",
	"staff",
	"physician",
	"veterinarian",
	"dentist",
}

// careerKeywords - признаки страниц найма. Имеют приоритет над staffKeywords.
var careerKeywords = []string{
	"career",
	"job",
	"apply",
	"internship",
	"externship",
	"residency",
	"volunteer",
	"hiring",
	"employment",
	"join-our-team",
	"join-us",
	"work-with-us",
	"opportunities",
}

// fold приводит URL или подпись ссылки к единому виду для поиска ключевых слов.
func fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "%20", "-")
	s = strings.ReplaceAll(s, "_", "-")
	return strings.Join(strings.Fields(s), "-")
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// IsStaffLike сообщает, похожа ли строка (URL или текст ссылки) на страницу
// команды, врачей или провайдеров.
func IsStaffLike(s string) bool {
	f := fold(s)
	if f == "" {
		return false
	}
	if containsAny(f, staffKeywords) {
		return true
	}
	return strings.Contains(f, "meet") && containsAny(f, roleKeywords)
}

// IsCareerOrExcluded сообщает, относится ли строка к вакансиям/найму.
// Если строка одновременно staff-like и career-like, она исключается.
func IsCareerOrExcluded(s string) bool {
	f := fold(s)
	if f == "" {
		return false
	}
	return containsAny(f, careerKeywords)
}
