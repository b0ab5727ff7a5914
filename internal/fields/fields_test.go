package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDocumentSample(t *testing.T) {
	f := Extract("ID#4455667 Name: JOHNSmith Born 1990 XXXXXXXXXXXXXXXXXXXXXX")

	assert.Equal(t, "ID4455667 Name JOHNSmith Born 1990", f.Cleaned)
	assert.Equal(t, "4455667", f.Identifier)
	assert.Equal(t, "1990", f.BirthYear)
	assert.Equal(t, "JOHNSmith", f.Name)
	assert.Empty(t, f.DateToken)
	assert.NotContains(t, f.Cleaned, "XXXX")
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"symbols removed", "A-B_C!", "ABC"},
		{"whitespace collapsed", "  a \t\n b  ", "a b"},
		{"19 letters kept", "abcdefghijklmnopqrs x", "abcdefghijklmnopqrs x"},
		{"20 letters dropped", "abcdefghijklmnopqrst x", "x"},
		{"junk inside word", "12ABCDEFGHIJKLMNOPQRSTUV34", "1234"},
		{"full-width folded", "ＩＤ１２３", "ID123"},
		{"non-ascii letters dropped", "Müller", "Mller"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestExtractPatterns(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Fields
	}{
		{
			name: "date token is exactly six digits",
			in:   "DOB 120385 NR 1234567",
			want: Fields{Identifier: "1234567", DateToken: "120385"},
		},
		{
			name: "identifier prefers first long run",
			in:   "12345678 and 99999999",
			want: Fields{Identifier: "12345678"},
		},
		{
			name: "year needs word boundaries",
			in:   "X1990 2001",
			want: Fields{BirthYear: "2001"},
		},
		{
			name: "year outside 19xx and 20xx ignored",
			in:   "born 1850",
			want: Fields{},
		},
		{
			name: "name requires three capitals then lowercase",
			in:   "JOhn MARYann",
			want: Fields{Name: "MARYann"},
		},
		{
			name: "nothing to find",
			in:   "hello world",
			want: Fields{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.in)
			got.Cleaned = ""
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldsMap(t *testing.T) {
	f := Fields{Identifier: "1234567", Name: "ABCdef"}
	assert.Equal(t, map[string]string{"identifier": "1234567", "name": "ABCdef"}, f.Map())
	assert.False(t, f.Empty())
	assert.True(t, Fields{Cleaned: "x"}.Empty())
}
