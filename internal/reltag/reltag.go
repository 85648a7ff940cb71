// Package reltag parses and orders facility release tags such as "4-5dls2-3".
//
// A tag is split on the facility separator "dls" into at most two parts, and
// each part into at most three sub-tokens on '-', '.' or '_'. Every sub-token
// becomes a (number, suffix) pair. Tags of different shapes are padded to the
// same arity so any two tags compare.
package reltag

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	// Separator divides an upstream version from the facility patch level.
	Separator = "dls"

	// Parts is the number of Separator-delimited parts in a key.
	Parts = 2

	// Tokens is the number of sub-tokens per part.
	Tokens = 3

	// Final is the suffix of a token that carries no text. It sorts after
	// every real suffix so "1beta2" < "1".
	Final = "\U0010FFFF"
)

// Initial is the version assigned when a module has never been released.
const Initial = "0-1"

var (
	tokenSplit = regexp.MustCompile(`[-._]`)
	leadingNum = regexp.MustCompile(`^[0-9]*`)
	lastNum    = regexp.MustCompile(`[0-9]+`)
)

// Pair is one normalized sub-token.
type Pair struct {
	Number int64
	Suffix string
}

// Key is the fixed-arity normalized form of a tag.
type Key [Parts * Tokens]Pair

// Normalize converts a tag into its ordered key.
//
// When a tag has more structure than the key can hold the remainder is kept,
// separators included, in the last slot of its part: "1-2-3-4" has a third
// token "3-4", i.e. number 3 with suffix "-4".
func Normalize(tag string) Key {
	var key Key
	for i := range key {
		key[i] = Pair{Suffix: Final}
	}

	parts := strings.SplitN(tag, Separator, Parts)
	for p, part := range parts {
		tokens := splitTokens(part)
		for t, token := range tokens {
			key[p*Tokens+t] = parsePair(token)
		}
	}
	return key
}

// splitTokens splits on the first Tokens-1 separators only.
func splitTokens(part string) []string {
	locs := tokenSplit.FindAllStringIndex(part, Tokens-1)
	tokens := make([]string, 0, Tokens)
	start := 0
	for _, loc := range locs {
		tokens = append(tokens, part[start:loc[0]])
		start = loc[1]
	}
	return append(tokens, part[start:])
}

func parsePair(token string) Pair {
	digits := leadingNum.FindString(token)
	pair := Pair{Suffix: token[len(digits):]}
	if pair.Suffix == "" {
		pair.Suffix = Final
	}
	if digits != "" {
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			// overflow: keep the text so ordering stays deterministic
			pair.Suffix = token
			return pair
		}
		pair.Number = n
	}
	return pair
}

// CompareKeys orders two normalized keys.
func CompareKeys(a, b Key) int {
	for i := range a {
		switch {
		case a[i].Number < b[i].Number:
			return -1
		case a[i].Number > b[i].Number:
			return 1
		}
		if c := strings.Compare(a[i].Suffix, b[i].Suffix); c != 0 {
			return c
		}
	}
	return 0
}

// Compare orders two tags. Tags with equal keys (for example "1-0" and
// "1-0-0") fall back to byte order so distinct tags never compare equal.
func Compare(a, b string) int {
	if c := CompareKeys(Normalize(a), Normalize(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// Less reports whether a sorts before b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// SortAscending returns a sorted copy of tags.
func SortAscending(tags []string) []string {
	type entry struct {
		tag string
		key Key
	}
	entries := make([]entry, len(tags))
	for i, t := range tags {
		entries[i] = entry{tag: t, key: Normalize(t)}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if c := CompareKeys(entries[i].key, entries[j].key); c != 0 {
			return c < 0
		}
		return entries[i].tag < entries[j].tag
	})

	sorted := make([]string, len(entries))
	for i, e := range entries {
		sorted[i] = e.tag
	}
	return sorted
}

// Max returns the greatest tag, or false if tags is empty.
func Max(tags []string) (string, bool) {
	if len(tags) == 0 {
		return "", false
	}
	max := tags[0]
	for _, t := range tags[1:] {
		if Less(max, t) {
			max = t
		}
	}
	return max, true
}

// Next returns the version following the greatest of tags by incrementing
// its least-significant numeric run. It returns Initial when there are no
// tags, and appends "-1" to a greatest tag that has no digits at all.
func Next(tags []string) string {
	max, ok := Max(tags)
	if !ok {
		return Initial
	}
	return Increment(max)
}

// Increment bumps the last run of digits in tag, preserving zero padding
// width where the result still fits.
func Increment(tag string) string {
	locs := lastNum.FindAllStringIndex(tag, -1)
	if len(locs) == 0 {
		return tag + "-1"
	}
	loc := locs[len(locs)-1]
	digits := tag[loc[0]:loc[1]]

	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return tag + "-1"
	}
	bumped := strconv.FormatUint(n+1, 10)
	if pad := len(digits) - len(bumped); pad > 0 {
		bumped = strings.Repeat("0", pad) + bumped
	}
	return tag[:loc[0]] + bumped + tag[loc[1]:]
}

// NormalizeSeparators rewrites a user-supplied version into tag form.
// Dots are not used in facility tags, so "1.2" becomes "1-2".
func NormalizeSeparators(version string) string {
	return strings.ReplaceAll(strings.TrimSpace(version), ".", "-")
}
