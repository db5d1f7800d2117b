package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"clinicAgent/internal/retry"
)

// GoogleOptions - параметры доступа к Google Sheets API.
type GoogleOptions struct {
	CredentialsFile string
	Retry           retry.Policy
}

// GoogleBook - Google-таблица, доступная через Sheets API v4.
type GoogleBook struct {
	id    string
	svc   *gsheets.Service
	retry retry.Policy
}

func OpenGoogle(ctx context.Context, spreadsheetID string, opts GoogleOptions) (*GoogleBook, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	svc, err := gsheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	p := opts.Retry
	p.Jitter = true
	p.Retryable = IsRateLimited
	return &GoogleBook{id: spreadsheetID, svc: svc, retry: p}, nil
}

// IsRateLimited сообщает, что API отказал из-за квоты и запрос стоит повторить.
func IsRateLimited(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusTooManyRequests || gerr.Code == http.StatusServiceUnavailable {
			return true
		}
		for _, e := range gerr.Errors {
			if strings.Contains(strings.ToLower(e.Reason), "ratelimit") {
				return true
			}
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota exceeded") || strings.Contains(msg, "rate_limit_exceeded")
}

func (b *GoogleBook) do(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Backoff(ctx, b.retry, fn)
}

func (b *GoogleBook) properties(ctx context.Context) ([]*gsheets.SheetProperties, error) {
	var props []*gsheets.SheetProperties
	err := b.do(ctx, func(ctx context.Context) error {
		resp, err := b.svc.Spreadsheets.Get(b.id).Fields("sheets.properties").Context(ctx).Do()
		if err != nil {
			return err
		}
		props = props[:0]
		for _, s := range resp.Sheets {
			if s.Properties != nil {
				props = append(props, s.Properties)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("spreadsheet %s: %w", b.id, err)
	}
	return props, nil
}

func (b *GoogleBook) Worksheets(ctx context.Context) ([]string, error) {
	props, err := b.properties(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(props))
	for _, p := range props {
		names = append(names, p.Title)
	}
	return names, nil
}

func (b *GoogleBook) Worksheet(ctx context.Context, nameOrID string) (Sheet, error) {
	props, err := b.properties(ctx)
	if err != nil {
		return nil, err
	}
	if len(props) == 0 {
		return nil, fmt.Errorf("spreadsheet %s has no sheets", b.id)
	}
	if nameOrID == "" {
		return &googleSheet{book: b, title: props[0].Title}, nil
	}
	for _, p := range props {
		if p.Title == nameOrID || strconv.FormatInt(p.SheetId, 10) == nameOrID {
			return &googleSheet{book: b, title: p.Title}, nil
		}
	}
	return nil, fmt.Errorf("worksheet %q not found in %s", nameOrID, b.id)
}

func (b *GoogleBook) Close() error { return nil }

type googleSheet struct {
	book  *GoogleBook
	title string
}

func (s *googleSheet) Title() string { return s.title }

// a1 собирает диапазон вида 'Лист'!A1 с экранированием кавычек в названии.
func (s *googleSheet) a1(rng string) string {
	return "'" + strings.ReplaceAll(s.title, "'", "''") + "'!" + rng
}

func (s *googleSheet) Rows(ctx context.Context) ([][]string, error) {
	var rows [][]string
	err := s.book.do(ctx, func(ctx context.Context) error {
		resp, err := s.book.svc.Spreadsheets.Values.Get(s.book.id, s.a1("A:ZZ")).Context(ctx).Do()
		if err != nil {
			return err
		}
		rows = make([][]string, len(resp.Values))
		for i, r := range resp.Values {
			rows[i] = make([]string, len(r))
			for j, v := range r {
				rows[i][j] = fmt.Sprint(v)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.title, err)
	}
	return rows, nil
}

func (s *googleSheet) WriteCells(ctx context.Context, row int, cells map[string]string) error {
	req := &gsheets.BatchUpdateValuesRequest{ValueInputOption: "RAW"}
	for col, v := range cells {
		if _, err := ColumnIndex(col); err != nil {
			return err
		}
		req.Data = append(req.Data, &gsheets.ValueRange{
			Range:  s.a1(col + strconv.Itoa(row)),
			Values: [][]interface{}{{v}},
		})
	}
	if len(req.Data) == 0 {
		return nil
	}
	err := s.book.do(ctx, func(ctx context.Context) error {
		_, err := s.book.svc.Spreadsheets.Values.BatchUpdate(s.book.id, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("write %s row %d: %w", s.title, row, err)
	}
	return nil
}
