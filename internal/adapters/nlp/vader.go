// Package nlp adapts third-party NLP libraries to the sentiment package:
// VADER polarity, prose tokenization with golem lemmas, and gomoji placeholders.
package nlp

import (
	"github.com/jonreiter/govader"

	"wsbsentiment/internal/sentiment"
)

// Vader scores text with the VADER lexicon and rules
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVader loads the bundled lexicon
func NewVader() *Vader {
	return &Vader{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Polarity implements sentiment.PolarityAnalyzer
func (v *Vader) Polarity(text string) sentiment.Polarity {
	s := v.analyzer.PolarityScores(text)
	return sentiment.Polarity{
		Neg:      s.Negative,
		Neu:      s.Neutral,
		Pos:      s.Positive,
		Compound: s.Compound,
	}
}
