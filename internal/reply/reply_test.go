package reply

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsArity(t *testing.T) {
	inputs := []string{
		"",
		"   \n\t  ",
		"no commas at all",
		"a,b",
		strings.Repeat("x,", 7),
		strings.Repeat("y,", 20),
		"```",
		"```\n```",
		",,,,",
	}
	for _, n := range []int{3, 4, 5} {
		for _, in := range inputs {
			assert.Len(t, Fields(in, n), n, "n=%d in=%q", n, in)
		}
	}
	assert.Empty(t, Fields("a,b,c", 0))
	assert.Empty(t, Fields("a,b,c", -2))
}

func TestFieldsCleanInput(t *testing.T) {
	assert.Equal(t, []string{"555-1234", "John", "Doe", "3"}, Fields("555-1234,John,Doe,3", 4))
}

func TestFieldsStripsFences(t *testing.T) {
	want := Fields("555-1234,John,Doe,3", 4)
	assert.Equal(t, want, Fields("```\n555-1234,John,Doe,3\n```", 4))
	assert.Equal(t, want, Fields("```csv\n555-1234, John, Doe, 3\n```\n", 4))
	assert.Equal(t, want, Fields("```555-1234,John,Doe,3```", 4))
	assert.Equal(t, want, Fields("```\n555-1234,John,Doe,3```", 4))
}

func TestFieldsCount(t *testing.T) {
	assert.Equal(t, "5", Fields("x,y,z,about 5 doctors", 4)[3])
	assert.Equal(t, "", Fields("x,y,z,several", 4)[3])
	assert.Equal(t, "12", Fields("Jane, Roe, 12 doctors and 3 techs", 3)[2])
}

func TestFieldsPhone(t *testing.T) {
	phone := Fields("Call us: (555) 123-4567 ext.9,John,Doe,3", 4)[0]
	assert.Regexp(t, regexp.MustCompile(`^[0-9xX()+\-.\s]*$`), phone)
	assert.True(t, strings.HasPrefix(phone, "(555) 123-4567"))
	assert.NotContains(t, phone, "Call")
}

func TestFieldsKeepsEmptySlots(t *testing.T) {
	got := Fields("555-1234,,Doe,", 4)
	assert.Equal(t, []string{"555-1234", "", "Doe", ""}, got)

	got = Fields("555-1234, John", 4)
	assert.Equal(t, []string{"555-1234", "John", "", ""}, got)
}

func TestFieldsTruncatesAndUnquotes(t *testing.T) {
	got := Fields("`555-0000`, \"Ann\", 'Lee', 2, extra, more", 4)
	assert.Equal(t, []string{"555-0000", "Ann", "Lee", "2"}, got)
}

func TestFieldsCollapsesWhitespace(t *testing.T) {
	got := Fields("555  1234,\nMary\n  Ann,  Smith  ,4", 4)
	assert.Equal(t, []string{"555 1234", "Mary Ann", "Smith", "4"}, got)
}

func TestTypedViews(t *testing.T) {
	s := ParseStaff("(555) 222-3333, Anna, Lee, 4 doctors")
	assert.Equal(t, Staff{Phone: "(555) 222-3333", First: "Anna", Last: "Lee", Doctors: "4"}, s)
	assert.Equal(t, StaffLayout, s.Layout())
	assert.Len(t, s.Values(), StaffLayout.Arity())

	o := ParseOwner("Anna, Lee")
	assert.Equal(t, Owner{First: "Anna", Last: "Lee"}, o)

	d := ParseDetails("555-1111, Unknown, Lee")
	assert.Equal(t, Details{Phone: "555-1111", Last: "Lee"}, d)

	r := ParseAs("Anna, Lee, 2", OwnerLayout)
	require.IsType(t, Owner{}, r)
	assert.Equal(t, []string{"Anna", "Lee", "2"}, r.Values())
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		first, last         string
		wantFirst, wantLast string
	}{
		{"Anna", "Lee", "Anna", "Lee"},
		{"N/A", "Lee", "", "Lee"},
		{"not found", "not visible", "", ""},
		{"Happy Paws", "Animal Hospital", "", ""},
		{"-", "-", "", ""},
	}
	for _, tt := range tests {
		f, l := CleanName(tt.first, tt.last)
		assert.Equal(t, tt.wantFirst, f)
		assert.Equal(t, tt.wantLast, l)
	}
}

func TestFirstInteger(t *testing.T) {
	assert.Equal(t, "42", FirstInteger("about 42 or 43"))
	assert.Equal(t, "", FirstInteger("none"))
	assert.Equal(t, "", FirstInteger(""))
}
