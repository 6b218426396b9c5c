package placeholder

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/geocoder89/eventprint/internal/domain/template"
)

// ApplyCase transforms s according to tc. An unknown or empty case is a no-op.
//
// Casing is per rune and never changes the rune count, so "ß" stays "ß" when
// upper-cased. A rune is only upper-cased when its capital lowercases back to
// the same letter; dotless ı, long ſ and the micro sign µ keep their form.
// That keeps upper-then-lower equal to lower alone.
func ApplyCase(s string, tc template.TextCase) string {
	switch tc {
	case template.CaseUpper:
		return strings.Map(upperRune, norm.NFC.String(s))
	case template.CaseLower:
		return strings.Map(unicode.ToLower, norm.NFC.String(s))
	case template.CaseCapitalize:
		return Capitalize(norm.NFC.String(s))
	default:
		return s
	}
}

func upperRune(r rune) rune {
	u := unicode.ToUpper(r)
	if unicode.ToLower(u) != unicode.ToLower(r) {
		return r
	}
	return u
}

// Capitalize upper-cases the first letter at the start of s and after any
// whitespace or punctuation. Other letters keep their case.
func Capitalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	boundary := true
	for _, r := range s {
		if boundary && unicode.IsLetter(r) {
			b.WriteRune(upperRune(r))
		} else {
			b.WriteRune(r)
		}
		boundary = unicode.IsSpace(r) || unicode.IsPunct(r)
	}
	return b.String()
}
