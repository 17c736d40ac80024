package post

import (
	"sort"
	"time"
)

// Label is the discrete sentiment class derived from the compound score
type Label string

const (
	LabelBullish Label = "bullish"
	LabelNeutral Label = "neutral"
	LabelBearish Label = "bearish"
)

// Valid reports whether l is one of the three known labels
func (l Label) Valid() bool {
	switch l {
	case LabelBullish, LabelNeutral, LabelBearish:
		return true
	}
	return false
}

// Post is one fetched forum submission. Text already holds title, selftext
// and any top comments joined by spaces.
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Flair       string    `json:"flair"`
	Text        string    `json:"text"`
	Permalink   string    `json:"permalink"`
	Score       int       `json:"score"`
	NumComments int       `json:"num_comments"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Features are stylistic signals computed from the raw text
type Features struct {
	EmojiCount int     `json:"emoji_count"`
	CapsRatio  float64 `json:"caps_ratio"`
	LenTokens  int     `json:"len_tokens"`
}

// SentimentResult is the scorer output for a single text
type SentimentResult struct {
	Label    Label    `json:"label"`
	Compound float64  `json:"compound"`
	Pos      float64  `json:"pos"`
	Neu      float64  `json:"neu"`
	Neg      float64  `json:"neg"`
	Features Features `json:"features"`
}

// AnalyzedPost merges a SentimentResult with the post's tickers and identity.
// Field names are the persisted snapshot format consumed downstream.
type AnalyzedPost struct {
	Label     Label    `json:"label" ch:"label"`
	Compound  float64  `json:"compound" ch:"compound"`
	Pos       float64  `json:"pos" ch:"pos"`
	Neu       float64  `json:"neu" ch:"neu"`
	Neg       float64  `json:"neg" ch:"neg"`
	Tickers   []string `json:"tickers" ch:"tickers"`
	Features  Features `json:"features"`
	ID        string   `json:"id" ch:"id"`
	Title     string   `json:"title" ch:"title"`
	Permalink string   `json:"permalink" ch:"permalink"`
}

// NewAnalyzedPost builds the merged record. Tickers is never nil so the
// snapshot always carries an array.
func NewAnalyzedPost(p Post, res SentimentResult, tickers []string) AnalyzedPost {
	if tickers == nil {
		tickers = []string{}
	}
	return AnalyzedPost{
		Label:     res.Label,
		Compound:  res.Compound,
		Pos:       res.Pos,
		Neu:       res.Neu,
		Neg:       res.Neg,
		Tickers:   tickers,
		Features:  res.Features,
		ID:        p.ID,
		Title:     p.Title,
		Permalink: p.Permalink,
	}
}

// Snapshot is the output of one successful run
type Snapshot struct {
	RunID       string         `json:"run_id"`
	CompletedAt time.Time      `json:"completed_at"`
	Posts       []AnalyzedPost `json:"posts"`
}

// LabelCounts tallies posts per label
func (s *Snapshot) LabelCounts() map[Label]int {
	counts := map[Label]int{LabelBullish: 0, LabelNeutral: 0, LabelBearish: 0}
	for _, p := range s.Posts {
		counts[p.Label]++
	}
	return counts
}

// TickerMentions counts how many posts mention each ticker
func (s *Snapshot) TickerMentions() map[string]int {
	mentions := make(map[string]int)
	for _, p := range s.Posts {
		for _, t := range p.Tickers {
			mentions[t]++
		}
	}
	return mentions
}

// TickerCount is a ticker with the number of posts mentioning it
type TickerCount struct {
	Ticker   string `json:"ticker"`
	Mentions int    `json:"mentions"`
}

// TopTickers returns the n most mentioned tickers, ties broken alphabetically.
// n <= 0 returns all of them.
func (s *Snapshot) TopTickers(n int) []TickerCount {
	mentions := s.TickerMentions()

	out := make([]TickerCount, 0, len(mentions))
	for t, c := range mentions {
		out = append(out, TickerCount{Ticker: t, Mentions: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mentions != out[j].Mentions {
			return out[i].Mentions > out[j].Mentions
		}
		return out[i].Ticker < out[j].Ticker
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
