package recipient

import (
	"regexp"
	"strings"
)

// committeeSuffixes are trailing words that carry no identity in committee
// names. Only one is stripped per name.
var committeeSuffixes = []string{
	" POLITICAL ACTION COMMITTEE",
	" PAC", " P.A.C.",
	" LLC", " L.L.C.",
	" INC", " INC.", " INCORPORATED",
	" CORP", " CORP.", " CORPORATION",
	" COMMITTEE", " CMTE",
}

// stopwords are ignored when tokenizing queries.
var stopwords = map[string]bool{
	"A": true, "AN": true, "AND": true, "FOR": true, "OF": true, "THE": true, "TO": true,
}

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// NormalizeName standardizes a committee name for matching: upper-cased,
// trailing committee suffix removed, punctuation stripped and whitespace
// collapsed.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = strings.ToUpper(name)

	for _, suffix := range committeeSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}

	name = strings.NewReplacer(
		",", "",
		".", "",
		"'", "",
		"\"", "",
		"(", " ",
		")", " ",
		"&", " AND ",
		"-", " ",
		"/", " ",
	).Replace(name)

	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// Tokens splits a normalized name into significant words.
func Tokens(name string) []string {
	var out []string
	for _, w := range strings.Fields(NormalizeName(name)) {
		if len(w) < 2 || stopwords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// stemLen is the prefix length used to find candidates for misspelled tokens.
const stemLen = 3

// Fragments returns the substrings used to pull candidates from storage:
// every query token plus its three-letter stem.
func Fragments(query string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, tok := range Tokens(query) {
		add(tok)
		if len(tok) > stemLen {
			add(tok[:stemLen])
		}
	}
	return out
}
