package sheets

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/xuri/excelize/v2"
)

// Workbook - локальная таблица .xlsx. Каждая запись сразу сохраняется на диск.
type Workbook struct {
	path string

	mu sync.Mutex
	f  *excelize.File
}

func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return &Workbook{path: path, f: f}, nil
}

func (w *Workbook) Worksheets(_ context.Context) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.GetSheetList(), nil
}

func (w *Workbook) Worksheet(_ context.Context, nameOrID string) (Sheet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	list := w.f.GetSheetList()
	if len(list) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", w.path)
	}
	if nameOrID == "" {
		return &workbookSheet{book: w, name: list[0]}, nil
	}
	for _, name := range list {
		if name == nameOrID {
			return &workbookSheet{book: w, name: name}, nil
		}
	}
	// числовой идентификатор трактуется как индекс листа
	if idx, err := strconv.Atoi(nameOrID); err == nil && idx >= 0 && idx < len(list) {
		return &workbookSheet{book: w, name: list[idx]}, nil
	}
	return nil, fmt.Errorf("worksheet %q not found in %s", nameOrID, w.path)
}

func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

type workbookSheet struct {
	book *Workbook
	name string
}

func (s *workbookSheet) Title() string { return s.name }

func (s *workbookSheet) Rows(_ context.Context) ([][]string, error) {
	s.book.mu.Lock()
	defer s.book.mu.Unlock()
	rows, err := s.book.f.GetRows(s.name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.name, err)
	}
	return rows, nil
}

func (s *workbookSheet) WriteCells(_ context.Context, row int, cells map[string]string) error {
	s.book.mu.Lock()
	defer s.book.mu.Unlock()

	for col, v := range cells {
		idx, err := ColumnIndex(col)
		if err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(idx+1, row)
		if err != nil {
			return err
		}
		if err := s.book.f.SetCellValue(s.name, cell, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", s.name, cell, err)
		}
	}
	if err := s.book.f.Save(); err != nil {
		return fmt.Errorf("save %s: %w", s.book.path, err)
	}
	return nil
}
