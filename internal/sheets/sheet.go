// Package sheets читает адреса сайтов из таблицы и записывает найденные
// поля обратно в строку, сопоставленную по нормализованному адресу.
package sheets

import (
	"context"
	"fmt"
	"strings"
)

// Sheet - один лист таблицы. Строки нумеруются с 1, первая строка - заголовки.
type Sheet interface {
	Title() string
	Rows(ctx context.Context) ([][]string, error)
	// WriteCells пишет значения в строку row; ключ - буква колонки.
	WriteCells(ctx context.Context, row int, cells map[string]string) error
}

// Book - таблица целиком.
type Book interface {
	Worksheets(ctx context.Context) ([]string, error)
	// Worksheet ищет лист по названию или числовому идентификатору (gid). Пустое имя - первый лист.
	Worksheet(ctx context.Context, nameOrID string) (Sheet, error)
	Close() error
}

// Site - адрес сайта и номер его строки.
type Site struct {
	Row int
	URL string
}

// Sites возвращает непустые адреса из колонки сайтов, пропуская заголовок.
func Sites(rows [][]string, websiteCol string) []Site {
	var out []Site
	for i := 1; i < len(rows); i++ {
		u := Cell(rows[i], websiteCol)
		if u == "" {
			continue
		}
		out = append(out, Site{Row: i + 1, URL: u})
	}
	return out
}

// Headers возвращает первую строку листа.
func Headers(rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

// EnsureHeaders пишет заголовки, если первая строка листа пустая. Возвращает true, если писал.
func EnsureHeaders(ctx context.Context, s Sheet, rows [][]string, cols Columns) (bool, error) {
	for _, h := range Headers(rows) {
		if strings.TrimSpace(h) != "" {
			return false, nil
		}
	}
	cells := map[string]string{
		cols.Website: HeaderNames.Website,
		cols.First:   HeaderNames.First,
		cols.Last:    HeaderNames.Last,
		cols.Doctors: HeaderNames.Doctors,
	}
	if cols.Phone != "" {
		cells[cols.Phone] = HeaderNames.Phone
	}
	delete(cells, "")
	if err := s.WriteCells(ctx, 1, cells); err != nil {
		return false, fmt.Errorf("write headers: %w", err)
	}
	return true, nil
}

// CheckAccess проверяет право записи: перезаписывает ячейку заголовка колонки сайтов
// ее же текущим значением.
func CheckAccess(ctx context.Context, s Sheet, websiteCol string) error {
	if _, err := ColumnIndex(websiteCol); websiteCol == "" || err != nil {
		return fmt.Errorf("%w: website column %q", ErrColumnNotFound, websiteCol)
	}
	rows, err := s.Rows(ctx)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", s.Title(), err)
	}
	cur := Cell(Headers(rows), websiteCol)
	if cur == "" {
		cur = HeaderNames.Website
	}
	if err := s.WriteCells(ctx, 1, map[string]string{websiteCol: cur}); err != nil {
		return fmt.Errorf("no edit access to %q: %w", s.Title(), err)
	}
	return nil
}

// Open открывает таблицу: локальный .xlsx или Google-таблицу по ссылке/идентификатору.
func Open(ctx context.Context, ref string, opts GoogleOptions) (Book, error) {
	if strings.HasSuffix(strings.ToLower(strings.TrimSpace(ref)), ".xlsx") {
		wb, err := OpenWorkbook(strings.TrimSpace(ref))
		if err != nil {
			return nil, err
		}
		return wb, nil
	}
	id, ok := SpreadsheetID(ref)
	if !ok {
		return nil, fmt.Errorf("not a spreadsheet link or id: %q", ref)
	}
	gb, err := OpenGoogle(ctx, id, opts)
	if err != nil {
		return nil, err
	}
	return gb, nil
}
