package verify

import "strings"

// hsnMaster maps known HSN/SAC codes to their descriptions. Codes seen
// in filings are snapped to this table before totals are reconciled.
var hsnMaster = map[string]string{
	"1001":   "Wheat and meslin",
	"1002":   "Rye",
	"998412": "Telecommunication services",
	"998599": "Other support services",
	"847130": "Portable digital ADP machines",
	"851712": "Telephones for cellular networks",
	"998311": "Management consulting",
	"998312": "Business consulting",
	"9983":   "Professional Services",
	"8471":   "Computers and tech",
	"99":     "Service generic",
}

// MatchHSN snaps a raw HSN code to the closest master code. Exact
// matches win; otherwise the nearest master code within an edit-distance
// ratio of 0.6 is used. Codes with no close match pass through unchanged
// so an unknown but deliberate code is never destroyed.
func MatchHSN(code string) string {
	c := strings.TrimSpace(code)
	// Spreadsheet cells often deliver numeric codes as "9983.0".
	if i := strings.IndexByte(c, '.'); i >= 0 {
		c = c[:i]
	}
	if c == "" {
		return c
	}
	if _, ok := hsnMaster[c]; ok {
		return c
	}

	best, bestRatio := c, 0.6
	for master := range hsnMaster {
		if r := similarity(c, master); r > bestRatio {
			best, bestRatio = master, r
		}
	}
	return best
}

// similarity is 1 - dist/maxLen over the Levenshtein distance, a rough
// stand-in for sequence-matcher ratios that is stable for short codes.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(maxLen)
}

func levenshtein(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
