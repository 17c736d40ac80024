package nlp

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/jdkato/prose/v2"

	"wsbsentiment/internal/sentiment"
	"wsbsentiment/pkg/errors"
)

// Lemmatizer tokenizes with prose and looks lemmas up in the golem English
// dictionary. Stop-words come from a static list pinned with the lexicon.
type Lemmatizer struct {
	golem *golem.Lemmatizer
	stop  map[string]struct{}
}

// NewLemmatizer loads the English dictionary. Loading takes a moment and a
// few MB, so build one per process.
func NewLemmatizer() (*Lemmatizer, error) {
	lem, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("load english lemma dictionary: %w: %w", errors.ErrDependencyUnavailable, err)
	}

	stop := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		stop[w] = struct{}{}
	}

	return &Lemmatizer{golem: lem, stop: stop}, nil
}

// Lemmatize implements sentiment.Lemmatizer
func (l *Lemmatizer) Lemmatize(text string) ([]sentiment.Token, error) {
	if strings.TrimSpace(text) == "" {
		return []sentiment.Token{}, nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, errors.Wrap(err, "tokenize")
	}

	raw := doc.Tokens()
	tokens := make([]sentiment.Token, 0, len(raw))
	for _, tok := range raw {
		if strings.TrimSpace(tok.Text) == "" {
			continue
		}

		lower := strings.ToLower(tok.Text)
		_, isStop := l.stop[lower]
		tokens = append(tokens, sentiment.Token{
			Text:    tok.Text,
			Lemma:   l.golem.Lemma(lower),
			IsStop:  isStop,
			IsPunct: isPunct(tok.Text),
		})
	}

	return tokens, nil
}

func isPunct(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) {
			return false
		}
	}
	return s != ""
}
