// Package sentiment turns raw post text into a labelled polarity score with
// stylistic features. Scoring is deterministic for a fixed lexicon version.
package sentiment

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"wsbsentiment/internal/domain/post"
	"wsbsentiment/pkg/errors"
)

// Label thresholds on the compound score
const (
	BullishThreshold = 0.05
	BearishThreshold = -0.05

	compoundPlaces  = 4
	capsRatioPlaces = 3

	// emoji placeholders are wrapped in a pair of these
	emojiDelimiter = ":"

	minShoutLen = 3
)

// Scorer combines polarity, lemmatization and surface features.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	polarity   PolarityAnalyzer
	lemmatizer Lemmatizer
	demojizer  Demojizer
}

// NewScorer creates a scorer over the given NLP collaborators
func NewScorer(polarity PolarityAnalyzer, lemmatizer Lemmatizer, demojizer Demojizer) (*Scorer, error) {
	if polarity == nil {
		return nil, errors.Wrap(errors.ErrDependencyUnavailable, "polarity analyzer is nil")
	}
	if lemmatizer == nil {
		return nil, errors.Wrap(errors.ErrDependencyUnavailable, "lemmatizer is nil")
	}
	if demojizer == nil {
		return nil, errors.Wrap(errors.ErrDependencyUnavailable, "demojizer is nil")
	}

	return &Scorer{
		polarity:   polarity,
		lemmatizer: lemmatizer,
		demojizer:  demojizer,
	}, nil
}

// Analyze scores a single text. An error means the lemmatizer failed and is
// fatal for the whole run.
func (s *Scorer) Analyze(text string) (post.SentimentResult, error) {
	tokens, err := s.lemmatizer.Lemmatize(text)
	if err != nil {
		return post.SentimentResult{}, fmt.Errorf("lemmatize: %w: %w", errors.ErrDependencyUnavailable, err)
	}

	p := normalizeShares(s.polarity.Polarity(text))

	return post.SentimentResult{
		Label:    LabelFor(p.Compound),
		Compound: round(p.Compound, compoundPlaces),
		Pos:      p.Pos,
		Neu:      p.Neu,
		Neg:      p.Neg,
		Features: post.Features{
			EmojiCount: EmojiCount(s.demojizer.Demojize(text)),
			CapsRatio:  round(CapsRatio(text), capsRatioPlaces),
			LenTokens:  CleanTokenCount(tokens),
		},
	}, nil
}

// LabelFor maps a compound score to its label. The thresholds are exclusive:
// exactly 0.05 is neutral.
func LabelFor(compound float64) post.Label {
	switch {
	case compound > BullishThreshold:
		return post.LabelBullish
	case compound < BearishThreshold:
		return post.LabelBearish
	default:
		return post.LabelNeutral
	}
}

// EmojiCount counts placeholders in demojized text as delimiters floor-divided
// by two. Colons that were already in the text count as well.
func EmojiCount(demojized string) int {
	return strings.Count(demojized, emojiDelimiter) / 2
}

// CapsRatio is the share of whitespace separated words that are longer than
// two characters and fully uppercase, over all words (at least one).
func CapsRatio(text string) float64 {
	words := strings.FieldsFunc(text, isWordSeparator)

	shouted := 0
	for _, w := range words {
		if utf8.RuneCountInString(w) >= minShoutLen && isShouted(w) {
			shouted++
		}
	}

	total := len(words)
	if total == 0 {
		total = 1
	}
	return float64(shouted) / float64(total)
}

// CleanTokenCount counts tokens that are neither stop-words nor punctuation
func CleanTokenCount(tokens []Token) int {
	n := 0
	for _, t := range tokens {
		if t.IsStop || t.IsPunct {
			continue
		}
		n++
	}
	return n
}

// isWordSeparator is unicode.IsSpace plus the ASCII information separators
// U+001C..U+001F, which also separate words
func isWordSeparator(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// isShouted requires at least one uppercase letter and no lowercase or
// titlecase letter. Digits and symbols are ignored, so "GME!!" counts.
func isShouted(w string) bool {
	hasUpper := false
	for _, r := range w {
		switch {
		case unicode.IsLower(r), unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			hasUpper = true
		}
	}
	return hasUpper
}

// normalizeShares keeps neg+neu+pos at 1. The lexicon returns all zeros for
// text without scorable tokens, which becomes fully neutral.
func normalizeShares(p Polarity) Polarity {
	sum := p.Neg + p.Neu + p.Pos
	if sum <= 0 || math.IsNaN(sum) {
		return Polarity{Neu: 1, Compound: 0}
	}
	if math.Abs(sum-1) > 1e-9 {
		p.Neg /= sum
		p.Neu /= sum
		p.Pos /= sum
	}
	if math.IsNaN(p.Compound) {
		p.Compound = 0
	}
	p.Compound = math.Max(-1, math.Min(1, p.Compound))
	return p
}

// round rounds the exact binary value of v, with exact ties going to the
// even digit: 0.0625 becomes 0.062 and 2.675 (stored as 2.67499...) becomes
// 2.67. v must be finite.
func round(v float64, places int) float64 {
	return decimal.RequireFromString(strconv.FormatFloat(v, 'f', places, 64)).InexactFloat64()
}
