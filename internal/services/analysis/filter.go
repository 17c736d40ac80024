package analysis

import (
	"strings"

	"wsbsentiment/internal/domain/post"
	"wsbsentiment/pkg/errors"
)

// Filter narrows the posts of a snapshot. Zero values match everything.
type Filter struct {
	Label  post.Label
	Ticker string
}

// ParseFilter validates raw query values
func ParseFilter(label, ticker string) (Filter, error) {
	f := Filter{
		Label:  post.Label(strings.ToLower(strings.TrimSpace(label))),
		Ticker: strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(ticker), "$")),
	}
	if f.Label != "" && !f.Label.Valid() {
		return Filter{}, errors.NewValidationError("label", "must be bullish, neutral or bearish", label)
	}
	return f, nil
}

// Apply returns the matching posts in their original order
func (f Filter) Apply(posts []post.AnalyzedPost) []post.AnalyzedPost {
	if f.Label == "" && f.Ticker == "" {
		return posts
	}

	out := make([]post.AnalyzedPost, 0, len(posts))
	for _, p := range posts {
		if f.Label != "" && p.Label != f.Label {
			continue
		}
		if f.Ticker != "" && !hasTicker(p.Tickers, f.Ticker) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func hasTicker(tickers []string, want string) bool {
	for _, t := range tickers {
		if t == want {
			return true
		}
	}
	return false
}
