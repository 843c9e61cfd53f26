package symbol

import "strings"

const maxSuggestions = 5

// Suggest returns up to five alternate tickers for a symbol that could not
// be resolved: exact corrections first, then prefix matches against the
// popular list, then edit-distance-1 near misses. An empty input returns
// the head of the popular list.
func Suggest(raw string) []string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return append([]string(nil), popular[:maxSuggestions]...)
	}

	out := make([]string, 0, maxSuggestions)
	seen := make(map[string]struct{}, maxSuggestions)
	add := func(candidate string) {
		if len(out) >= maxSuggestions || candidate == s {
			return
		}
		if _, dup := seen[candidate]; dup {
			return
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}

	if fix, ok := corrections[s]; ok {
		add(fix)
	}
	for _, p := range popular {
		if strings.HasPrefix(p, s) {
			add(p)
		}
	}
	for _, p := range popular {
		if withinOneEdit(s, p) {
			add(p)
		}
	}
	return out
}

// withinOneEdit reports whether b can be reached from a with at most one
// substitution, insertion or deletion.
func withinOneEdit(a, b string) bool {
	la, lb := len(a), len(b)
	switch {
	case la == lb:
		diff := 0
		for i := 0; i < la; i++ {
			if a[i] != b[i] {
				diff++
				if diff > 1 {
					return false
				}
			}
		}
		return true
	case la+1 == lb:
		return oneInsertion(a, b)
	case lb+1 == la:
		return oneInsertion(b, a)
	default:
		return false
	}
}

// oneInsertion reports whether long equals short with one extra character.
func oneInsertion(short, long string) bool {
	i, j, skipped := 0, 0, false
	for i < len(short) && j < len(long) {
		if short[i] == long[j] {
			i++
			j++
			continue
		}
		if skipped {
			return false
		}
		skipped = true
		j++
	}
	return true
}
