package ir

import "github.com/sahilm/fuzzy"

// fuzzySuggest ranks candidates against query and returns the closest
// match, used to enrich "unknown reference"/"not found" diagnostics with a
// "did you mean" hint. This has no bearing on lookup semantics.
func fuzzySuggest(query string, candidates []string) (string, bool) {
	matches := fuzzy.Find(query, candidates)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Str, true
}
