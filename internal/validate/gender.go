package validate

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"souqbridge-identity/internal/domain"
)

var fold = cases.Fold()

// genderSpellings maps folded, NFC-normalized input to the stored value.
var genderSpellings = map[string]domain.Gender{
	"male":   domain.GenderMale,
	"m":      domain.GenderMale,
	"ذكر":    domain.GenderMale,
	"female": domain.GenderFemale,
	"f":      domain.GenderFemale,
	"أنثى":   domain.GenderFemale,
	"انثى":   domain.GenderFemale,
	"other":  domain.GenderOther,
	"اخرى":   domain.GenderOther,
	"أخرى":   domain.GenderOther,
	"آخر":    domain.GenderOther,
}

// NormalizeGender maps a localized spelling to male, female or other.
// Unknown input is rejected, never defaulted.
func NormalizeGender(s string) (domain.Gender, bool) {
	key := fold.String(norm.NFC.String(strings.TrimSpace(s)))
	g, ok := genderSpellings[key]
	return g, ok
}
