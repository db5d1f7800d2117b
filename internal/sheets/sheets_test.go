package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/googleapi"
)

func TestNormalizeSite(t *testing.T) {
	assert.Equal(t, NormalizeSite("HTTP://Example.com/Team/"), NormalizeSite("http://example.com/team"))
	assert.Equal(t, NormalizeSite("https://example.com/"), NormalizeSite("http://example.com"))
	assert.Equal(t, "example.com", NormalizeSite("example.com/"))
	assert.Equal(t, "example.com/team", NormalizeSite("https://example.com/team?utm=1#top"))
	assert.Equal(t, "", NormalizeSite("   "))
	assert.NotEqual(t, NormalizeSite("https://example.com/team"), NormalizeSite("https://example.com/about"))
}

func TestSheetURLs(t *testing.T) {
	link := "https://docs.google.com/spreadsheets/d/1AbC-dEf_123456789012345/edit#gid=344000088"
	assert.True(t, IsValidSheetURL(link))
	assert.False(t, IsValidSheetURL("https://example.com/spreadsheets/d/abc/edit"))
	assert.False(t, IsValidSheetURL("http://docs.google.com/spreadsheets/d/abc/edit"))

	id, ok := SpreadsheetID(link)
	require.True(t, ok)
	assert.Equal(t, "1AbC-dEf_123456789012345", id)

	id, ok = SpreadsheetID("1AbC-dEf_123456789012345")
	require.True(t, ok)
	assert.Equal(t, "1AbC-dEf_123456789012345", id)

	_, ok = SpreadsheetID("not a sheet")
	assert.False(t, ok)

	assert.Equal(t, "344000088", GID(link))
	assert.Equal(t, "", GID("https://docs.google.com/spreadsheets/d/abc/edit"))
}

func TestColumnIndexLetter(t *testing.T) {
	idx, err := ColumnIndex("K")
	require.NoError(t, err)
	assert.Equal(t, 10, idx)

	idx, err = ColumnIndex("aa")
	require.NoError(t, err)
	assert.Equal(t, 26, idx)

	l, err := ColumnLetter(14)
	require.NoError(t, err)
	assert.Equal(t, "O", l)

	_, err = ColumnIndex("")
	assert.Error(t, err)
}

func TestDetectColumns(t *testing.T) {
	headers := []string{"Website", "Clinic Phone Number", "Contact First Name", "Owner First Name", "Owner Last Name", "Number of Doctors"}
	cols := DetectColumns(headers, DefaultColumns())
	assert.Equal(t, Columns{Website: "A", Phone: "B", First: "D", Last: "E", Doctors: "F"}, cols)

	cols = DetectColumns(nil, DefaultColumns())
	assert.Equal(t, DefaultColumns(), cols)
	assert.Empty(t, cols.Phone)
}

func TestFindRow(t *testing.T) {
	rows := [][]string{
		{"Website", "Owner First Name"},
		{"https://alpha.com/", ""},
		{},
		{"HTTP://Beta.com/Team/"},
	}
	row, ok := FindRow(rows, "A", "http://beta.com/team")
	require.True(t, ok)
	assert.Equal(t, 4, row)

	row, ok = FindRow(rows, "A", "alpha.com")
	require.True(t, ok)
	assert.Equal(t, 2, row)

	_, ok = FindRow(rows, "A", "gamma.com")
	assert.False(t, ok)

	assert.Equal(t, []Site{{Row: 2, URL: "https://alpha.com/"}, {Row: 4, URL: "HTTP://Beta.com/Team/"}}, Sites(rows, "A"))
}

func newWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	path := filepath.Join(t.TempDir(), "sites.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestWorkbookReadWrite(t *testing.T) {
	ctx := context.Background()
	path := newWorkbook(t, [][]string{
		{"Website", "Owner First Name", "Owner Last Name", "Number of Doctors"},
		{"https://alpha.com"},
		{"https://beta.com/"},
	})

	book, err := Open(ctx, path, GoogleOptions{})
	require.NoError(t, err)

	names, err := book.Worksheets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1"}, names)

	sheet, err := book.Worksheet(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", sheet.Title())

	rows, err := sheet.Rows(ctx)
	require.NoError(t, err)
	cols := DetectColumns(Headers(rows), DefaultColumns())
	require.NoError(t, CheckAccess(ctx, sheet, cols.Website))

	row, ok := FindRow(rows, cols.Website, "http://beta.com")
	require.True(t, ok)
	require.NoError(t, sheet.WriteCells(ctx, row, map[string]string{cols.First: "Anna", cols.Last: "Lee", cols.Doctors: "3"}))
	require.NoError(t, book.Close())

	reopened, err := OpenWorkbook(path)
	require.NoError(t, err)
	defer reopened.Close()
	sheet, err = reopened.Worksheet(ctx, "0")
	require.NoError(t, err)
	rows, err = sheet.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"https://beta.com/", "Anna", "Lee", "3"}, rows[2])
	assert.Equal(t, "Website", rows[0][0])

	_, err = reopened.Worksheet(ctx, "Missing")
	assert.Error(t, err)
}

func TestEnsureHeaders(t *testing.T) {
	ctx := context.Background()
	path := newWorkbook(t, [][]string{{""}})
	book, err := OpenWorkbook(path)
	require.NoError(t, err)
	defer book.Close()

	sheet, err := book.Worksheet(ctx, "Sheet1")
	require.NoError(t, err)
	cols := Columns{Website: "A", Phone: "B", First: "C", Last: "D", Doctors: "E"}

	wrote, err := EnsureHeaders(ctx, sheet, nil, cols)
	require.NoError(t, err)
	assert.True(t, wrote)

	rows, err := sheet.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Website", "Clinic Phone Number", "Owner First Name", "Owner Last Name", "Number of Doctors"}, rows[0])

	wrote, err = EnsureHeaders(ctx, sheet, rows, cols)
	require.NoError(t, err)
	assert.False(t, wrote)
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(&googleapi.Error{Code: http.StatusTooManyRequests}))
	assert.True(t, IsRateLimited(fmt.Errorf("read: %w", &googleapi.Error{Code: http.StatusServiceUnavailable})))
	assert.True(t, IsRateLimited(errors.New("Quota exceeded for quota metric 'Read requests'")))
	assert.False(t, IsRateLimited(&googleapi.Error{Code: http.StatusForbidden}))
	assert.False(t, IsRateLimited(errors.New("boom")))
}

func TestCheckAccessRejectsBadColumn(t *testing.T) {
	ctx := context.Background()
	book, err := Open(ctx, newWorkbook(t, [][]string{{"Website"}}), GoogleOptions{})
	require.NoError(t, err)
	defer book.Close()
	sheet, err := book.Worksheet(ctx, "")
	require.NoError(t, err)

	assert.ErrorIs(t, CheckAccess(ctx, sheet, ""), ErrColumnNotFound)
	assert.ErrorIs(t, CheckAccess(ctx, sheet, "1A"), ErrColumnNotFound)
	assert.NoError(t, CheckAccess(ctx, sheet, "A"))
}
