package normalization

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// MaxTitleRunes bounds task titles after normalisation.
const MaxTitleRunes = 200

// Text NFC-normalises s and collapses runs of whitespace to a single space.
func Text(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	out := Text(*s)
	return &out
}

// Title normalises a task title, truncating to MaxTitleRunes.
func Title(s string) string {
	s = Text(s)
	if utf8.RuneCountInString(s) <= MaxTitleRunes {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:MaxTitleRunes]))
}

var folder = cases.Fold()

// Email trims and case-folds an address for lookups and uniqueness.
func Email(s string) string {
	return folder.String(strings.TrimSpace(norm.NFC.String(s)))
}

// DisplayName falls back to the local part of email when name is blank.
func DisplayName(name, email string) string {
	if n := Text(name); n != "" {
		return n
	}
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	return Text(local)
}

var upper = cases.Upper(language.Und)

// Initials returns up to two upper-cased initials of name, or "?".
func Initials(name string) string {
	fields := strings.Fields(Text(name))
	var out []rune
	for _, f := range fields {
		r, _ := utf8.DecodeRuneInString(f)
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		out = append(out, r)
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return upper.String(string(out))
}
