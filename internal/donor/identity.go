// Package donor derives the donor identity key used to rank contributors.
//
// An identity is (first name, last name, zip5), upper-cased. It is an
// approximation: two different people with the same name in the same zip5
// collapse into one identity, and one person who moves shows up as two.
package donor

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// KeySeparator joins the parts of a donor key.
const KeySeparator = "|"

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// Identity is a normalized donor identity.
type Identity struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Zip5      string `json:"zip5"`
}

// NewIdentity normalizes the raw fields of a contribution. ok is false when
// the identity is unusable for ranking (missing name or no usable zip5).
func NewIdentity(first, last, zip string) (id Identity, ok bool) {
	id = Identity{
		FirstName: NormalizeName(first),
		LastName:  NormalizeName(last),
		Zip5:      Zip5(zip),
	}
	return id, id.Valid()
}

// Valid reports whether every part of the identity is present.
func (i Identity) Valid() bool {
	return i.FirstName != "" && i.LastName != "" && i.Zip5 != ""
}

// Key returns the stored lookup key, e.g. "JOHN|SMITH|90210".
func (i Identity) Key() string {
	return i.FirstName + KeySeparator + i.LastName + KeySeparator + i.Zip5
}

// NormalizeName trims, collapses inner whitespace and upper-cases a name.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = multiSpaceRe.ReplaceAllString(name, " ")
	return cases.Upper(language.Und).String(name)
}

// Zip5 derives the five-digit zip from a raw zip field. A 9+ digit ZIP+4
// (hyphenated or not) yields its first five digits, an exact 5-digit zip is
// returned as is, and anything else yields "".
func Zip5(zip string) string {
	zip = strings.TrimSpace(zip)
	digits := strings.ReplaceAll(zip, "-", "")
	if !allDigits(digits) {
		return ""
	}
	switch {
	case len(digits) >= 9:
		return digits[:5]
	case len(digits) == 5:
		return digits
	default:
		return ""
	}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
