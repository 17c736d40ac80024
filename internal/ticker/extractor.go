// Package ticker finds ticker symbols in free-form forum text.
//
// Two tiers feed one ordered, deduplicated result: cashtags ($AAPL) are
// accepted on pattern alone, bare uppercase words only when allow-listed.
// Both tiers pass the deny-list and a URL proximity check.
package ticker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxSymbolLen = 5

	// DefaultURLWindow is how many characters before a match are inspected
	// for URL markers
	DefaultURLWindow = 20
)

var urlMarkers = []string{"http", "www.", "://"}

// Config is the static configuration of an Extractor
type Config struct {
	Allow     []string
	Deny      []string
	URLWindow int
}

// DefaultConfig returns the curated lists. The slices are copies and can be
// extended by the caller.
func DefaultConfig() Config {
	return Config{
		Allow:     append([]string(nil), defaultAllow...),
		Deny:      append([]string(nil), defaultDeny...),
		URLWindow: DefaultURLWindow,
	}
}

// Extractor is immutable after construction and safe for concurrent use
type Extractor struct {
	allow     map[string]struct{}
	deny      map[string]struct{}
	urlWindow int
}

// NewExtractor builds an extractor. An empty allow-list only disables the
// bare-word tier.
func NewExtractor(cfg Config) *Extractor {
	window := cfg.URLWindow
	if window < 0 {
		window = 0
	}

	return &Extractor{
		allow:     toSet(cfg.Allow),
		deny:      toSet(cfg.Deny),
		urlWindow: window,
	}
}

type match struct {
	symbol string
	start  int // byte offset of the match in the text
}

// Extract returns the symbols referenced in text, cashtags first, each once
// in first-seen order. It never returns nil.
func (e *Extractor) Extract(text string) []string {
	out := make([]string, 0)
	if text == "" {
		return out
	}

	seen := make(map[string]struct{})
	accept := func(m match) {
		if _, denied := e.deny[m.symbol]; denied {
			return
		}
		if e.insideURL(text, m.start) {
			return
		}
		if _, dup := seen[m.symbol]; dup {
			return
		}
		seen[m.symbol] = struct{}{}
		out = append(out, m.symbol)
	}

	for _, m := range scanCashtags(text) {
		accept(m)
	}

	for _, m := range scanPlain(text) {
		if _, ok := e.allow[m.symbol]; !ok {
			continue
		}
		accept(m)
	}

	return out
}

// insideURL looks for URL markers in the urlWindow characters before start
func (e *Extractor) insideURL(text string, start int) bool {
	if e.urlWindow == 0 || start == 0 {
		return false
	}

	window := strings.ToLower(lastRunes(text[:start], e.urlWindow))
	for _, marker := range urlMarkers {
		if strings.Contains(window, marker) {
			return true
		}
	}
	return false
}

// scanCashtags finds "$" + 1-5 uppercase letters with no word character
// directly before the "$" or directly after the letters.
func scanCashtags(text string) []match {
	var matches []match

	for i := 0; i < len(text); i++ {
		if text[i] != '$' {
			continue
		}
		if i > 0 && isWordRune(lastRune(text[:i])) {
			continue
		}

		end := upperRunEnd(text, i+1)
		n := end - (i + 1)
		if n < 1 || n > maxSymbolLen {
			continue
		}
		if end < len(text) && isWordRune(firstRune(text[end:])) {
			continue
		}

		matches = append(matches, match{symbol: text[i+1 : end], start: i})
		i = end - 1
	}

	return matches
}

// scanPlain finds standalone runs of 1-5 uppercase letters. The boundary is
// tighter than a word boundary: "/" and "." also disqualify, which keeps
// path segments and domain labels out.
func scanPlain(text string) []match {
	var matches []match

	for i := 0; i < len(text); {
		if !isASCIIUpper(text[i]) {
			i++
			continue
		}

		end := upperRunEnd(text, i)
		ok := end-i <= maxSymbolLen
		if ok && i > 0 && blocksPlain(lastRune(text[:i])) {
			ok = false
		}
		if ok && end < len(text) && blocksPlain(firstRune(text[end:])) {
			ok = false
		}

		if ok {
			matches = append(matches, match{symbol: text[i:end], start: i})
		}
		i = end
	}

	return matches
}

func upperRunEnd(text string, from int) int {
	end := from
	for end < len(text) && isASCIIUpper(text[end]) {
		end++
	}
	return end
}

func isASCIIUpper(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

// isWordRune mirrors the regex \w class on unicode text
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func blocksPlain(r rune) bool {
	return r == '/' || r == '.' || isWordRune(r)
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// lastRunes returns the trailing n characters of s
func lastRunes(s string, n int) string {
	i := len(s)
	for count := 0; i > 0 && count < n; count++ {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.ToUpper(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		set[item] = struct{}{}
	}
	return set
}
