// Package fields pulls identity-document style fields out of noisy payload
// text: a long numeric identifier, a birth year, an uppercase-prefixed name
// and a six-digit date token.
package fields

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	symbolRE    = regexp.MustCompile(`[^A-Za-z0-9\s]`)
	junkRE      = regexp.MustCompile(`[A-Za-z]{20,}`)
	spaceRE     = regexp.MustCompile(`\s+`)
	digitsRE    = regexp.MustCompile(`[0-9]+`)
	birthYearRE = regexp.MustCompile(`\b(?:19|20)[0-9]{2}\b`)
	nameRE      = regexp.MustCompile(`\b[A-Z]{3,}[a-z]+\b`)
)

const (
	minIdentifierDigits = 7
	dateTokenDigits     = 6
)

// Fields holds the heuristically extracted values. Empty means not found.
type Fields struct {
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	BirthYear  string `json:"birth_year,omitempty" yaml:"birth_year,omitempty"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	DateToken  string `json:"date_token,omitempty" yaml:"date_token,omitempty"`
	Cleaned    string `json:"cleaned" yaml:"cleaned"`
}

// Empty reports whether no field was extracted.
func (f Fields) Empty() bool {
	return f.Identifier == "" && f.BirthYear == "" && f.Name == "" && f.DateToken == ""
}

// Map returns the non-empty fields keyed by their JSON names.
func (f Fields) Map() map[string]string {
	m := make(map[string]string, 4)
	for k, v := range map[string]string{
		"identifier": f.Identifier,
		"birth_year": f.BirthYear,
		"name":       f.Name,
		"date_token": f.DateToken,
	} {
		if v != "" {
			m[k] = v
		}
	}
	return m
}

// Clean normalizes s to NFKC, drops every character that is neither an ASCII
// letter, digit nor whitespace, removes letter runs of 20 or more and
// collapses whitespace.
func Clean(s string) string {
	s = norm.NFKC.String(s)
	s = symbolRE.ReplaceAllString(s, "")
	s = junkRE.ReplaceAllString(s, "")
	s = spaceRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Extract cleans payload and applies each field pattern independently.
func Extract(payload string) Fields {
	cleaned := Clean(payload)
	f := Fields{Cleaned: cleaned}

	for _, run := range digitsRE.FindAllString(cleaned, -1) {
		if f.Identifier == "" && len(run) >= minIdentifierDigits {
			f.Identifier = run
		}
		if f.DateToken == "" && len(run) == dateTokenDigits {
			f.DateToken = run
		}
	}
	f.BirthYear = birthYearRE.FindString(cleaned)
	f.Name = nameRE.FindString(cleaned)

	return f
}
