package step

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a an and any are as at be been but by can could do does for from
		get got have has hey hi how i if in into is it its just me my need needs of on or our please
		so some that the their them then there these this those to up us was we were what when where
		which who why will with would you your yet still also about should let lets know thanks ok okay
		update updates status done`) {
		stopWords[w] = struct{}{}
	}
}

// tokenize lowercases s and splits it on anything that is not a letter or
// digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// keywords returns the distinct content words of s: tokenized, stop-words
// and very short tokens removed.
func keywords(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range tokenize(s) {
		if len(tok) < 3 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		out[tok] = struct{}{}
	}
	return out
}

func hasToken(tokens []string, words ...string) bool {
	for _, tok := range tokens {
		for _, w := range words {
			if tok == w {
				return true
			}
		}
	}
	return false
}

// containsPhrase reports whether the token sequence phrase appears in tokens.
func containsPhrase(tokens []string, phrase string) bool {
	want := tokenize(phrase)
	if len(want) == 0 {
		return false
	}
	for i := 0; i+len(want) <= len(tokens); i++ {
		match := true
		for j := range want {
			if tokens[i+j] != want[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
