package sheets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrColumnNotFound - в таблице нет колонки с адресами сайтов.
var ErrColumnNotFound = errors.New("column not found")

// Columns - буквы колонок, с которыми работает агент. Пустая буква означает,
// что колонка не используется (например, телефон без заголовка).
type Columns struct {
	Website string `json:"website"`
	Phone   string `json:"phone,omitempty"`
	First   string `json:"first"`
	Last    string `json:"last"`
	Doctors string `json:"doctors"`
}

// DefaultColumns: K - сайт, C/D - имя и фамилия владельца, O - число врачей.
func DefaultColumns() Columns {
	return Columns{Website: "K", First: "C", Last: "D", Doctors: "O"}
}

// HeaderNames - заголовки, которые пишутся в пустую таблицу.
var HeaderNames = Columns{
	Website: "Website",
	Phone:   "Clinic Phone Number",
	First:   "Owner First Name",
	Last:    "Owner Last Name",
	Doctors: "Number of Doctors",
}

// ColumnIndex переводит букву колонки в индекс с нуля.
func ColumnIndex(letter string) (int, error) {
	n, err := excelize.ColumnNameToNumber(strings.TrimSpace(letter))
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", letter, err)
	}
	return n - 1, nil
}

// ColumnLetter переводит индекс с нуля в букву колонки.
func ColumnLetter(idx int) (string, error) {
	return excelize.ColumnNumberToName(idx + 1)
}

type headerRule struct {
	any    []string
	prefer string
}

var (
	websiteRule = headerRule{any: []string{"website", "url", "domain", "site"}}
	phoneRule   = headerRule{any: []string{"phone", "tel"}}
	firstRule   = headerRule{any: []string{"first"}, prefer: "owner"}
	lastRule    = headerRule{any: []string{"last"}, prefer: "owner"}
	doctorsRule = headerRule{any: []string{"doctor", "docs", "professionals", "providers", "vets"}}
)

// DetectColumns ищет колонки по заголовкам. Не найденные колонки берутся из defaults.
func DetectColumns(headers []string, defaults Columns) Columns {
	cols := defaults
	pick := func(r headerRule, dst *string) {
		if l, ok := matchHeader(headers, r); ok {
			*dst = l
		}
	}
	pick(websiteRule, &cols.Website)
	pick(phoneRule, &cols.Phone)
	pick(firstRule, &cols.First)
	pick(lastRule, &cols.Last)
	pick(doctorsRule, &cols.Doctors)
	return cols
}

func matchHeader(headers []string, r headerRule) (string, bool) {
	found := -1
	for i, h := range headers {
		hl := strings.ToLower(strings.TrimSpace(h))
		if hl == "" || !containsAny(hl, r.any) {
			continue
		}
		if r.prefer != "" && strings.Contains(hl, r.prefer) {
			found = i
			break
		}
		if found < 0 {
			found = i
		}
	}
	if found < 0 {
		return "", false
	}
	l, err := ColumnLetter(found)
	if err != nil {
		return "", false
	}
	return l, true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Cell возвращает значение ячейки строки по букве колонки или "".
func Cell(row []string, letter string) string {
	if letter == "" {
		return ""
	}
	idx, err := ColumnIndex(letter)
	if err != nil || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// FindRow ищет строку (нумерация с 1, как в таблице) по нормализованному адресу сайта.
// Строка заголовков пропускается.
func FindRow(rows [][]string, websiteCol, site string) (int, bool) {
	target := NormalizeSite(site)
	if target == "" {
		return 0, false
	}
	for i := 1; i < len(rows); i++ {
		if NormalizeSite(Cell(rows[i], websiteCol)) == target {
			return i + 1, true
		}
	}
	return 0, false
}
