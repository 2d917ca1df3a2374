package recipient

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// containmentBoost is added when every query token appears in the name.
const containmentBoost = 0.1

// Score rates how well a committee name matches a search query in [0, 1].
// It takes the better of whole-string and per-token Jaro-Winkler
// similarity and boosts names that contain every query token.
func Score(query, name string) float64 {
	q, n := NormalizeName(query), NormalizeName(name)
	if q == "" || n == "" {
		return 0
	}
	if q == n {
		return 1
	}

	best := matchr.JaroWinkler(q, n, false)

	qt, nt := Tokens(q), Tokens(n)
	if len(qt) > 0 && len(nt) > 0 {
		var sum float64
		contained := true
		for _, tok := range qt {
			var tokBest float64
			for _, cand := range nt {
				if s := matchr.JaroWinkler(tok, cand, false); s > tokBest {
					tokBest = s
				}
			}
			sum += tokBest
			if !strings.Contains(n, tok) {
				contained = false
			}
		}
		tokenScore := sum / float64(len(qt))
		if contained {
			tokenScore += containmentBoost
		}
		if tokenScore > best {
			best = tokenScore
		}
	}

	if best > 1 {
		best = 1
	}
	return best
}
