package clickhouse

import (
	"context"
	"time"

	chadapter "wsbsentiment/internal/adapters/clickhouse"
	"wsbsentiment/internal/domain/post"
	"wsbsentiment/pkg/errors"
)

const tablePostSentiment = "social_post_sentiment"

var _ post.Sink = (*PostSentimentSink)(nil)

// postSentimentRow is one analysed post as stored in ClickHouse
type postSentimentRow struct {
	RunID      string    `ch:"run_id"`
	AnalyzedAt time.Time `ch:"analyzed_at"`
	PostID     string    `ch:"post_id"`
	Title      string    `ch:"title"`
	Permalink  string    `ch:"permalink"`
	Label      string    `ch:"label"`
	Compound   float64   `ch:"compound"`
	Pos        float64   `ch:"pos"`
	Neu        float64   `ch:"neu"`
	Neg        float64   `ch:"neg"`
	Tickers    []string  `ch:"tickers"`
	EmojiCount uint32    `ch:"emoji_count"`
	CapsRatio  float64   `ch:"caps_ratio"`
	LenTokens  uint32    `ch:"len_tokens"`
}

// PostSentimentSink appends every analysed post of a snapshot to
// social_post_sentiment for historical queries.
type PostSentimentSink struct {
	client *chadapter.Client
}

// NewPostSentimentSink creates the sink
func NewPostSentimentSink(client *chadapter.Client) *PostSentimentSink {
	return &PostSentimentSink{client: client}
}

// EnsureSchema creates the table if missing
func (s *PostSentimentSink) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS ` + tablePostSentiment + ` (
			run_id      String,
			analyzed_at DateTime64(3, 'UTC'),
			post_id     String,
			title       String,
			permalink   String,
			label       LowCardinality(String),
			compound    Float64,
			pos         Float64,
			neu         Float64,
			neg         Float64,
			tickers     Array(LowCardinality(String)),
			emoji_count UInt32,
			caps_ratio  Float64,
			len_tokens  UInt32
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(analyzed_at)
		ORDER BY (analyzed_at, post_id)`

	if err := s.client.Exec(ctx, query); err != nil {
		return errors.Wrap(err, "create "+tablePostSentiment)
	}
	return nil
}

// Name implements post.Sink
func (s *PostSentimentSink) Name() string {
	return "clickhouse"
}

// Publish implements post.Sink
func (s *PostSentimentSink) Publish(ctx context.Context, snap *post.Snapshot) error {
	if len(snap.Posts) == 0 {
		return nil
	}

	rows := toRows(snap)
	query := "INSERT INTO " + tablePostSentiment
	if err := chadapter.InsertStructs(ctx, s.client, query, rows); err != nil {
		return errors.Wrapf(err, "insert %d rows into %s", len(rows), tablePostSentiment)
	}
	return nil
}

// LabelCountsSince aggregates labels over posts analysed since the given time
func (s *PostSentimentSink) LabelCountsSince(ctx context.Context, since time.Time) (map[post.Label]uint64, error) {
	var rows []struct {
		Label string `ch:"label"`
		Count uint64 `ch:"cnt"`
	}

	query := `
		SELECT label, count() AS cnt
		FROM ` + tablePostSentiment + `
		WHERE analyzed_at >= $1
		GROUP BY label`

	if err := s.client.Conn().Select(ctx, &rows, query, since); err != nil {
		return nil, errors.Wrap(err, "select label counts")
	}

	counts := make(map[post.Label]uint64, len(rows))
	for _, r := range rows {
		counts[post.Label(r.Label)] = r.Count
	}
	return counts, nil
}

func toRows(snap *post.Snapshot) []postSentimentRow {
	rows := make([]postSentimentRow, 0, len(snap.Posts))
	for _, p := range snap.Posts {
		tickers := p.Tickers
		if tickers == nil {
			tickers = []string{}
		}
		rows = append(rows, postSentimentRow{
			RunID:      snap.RunID,
			AnalyzedAt: snap.CompletedAt,
			PostID:     p.ID,
			Title:      p.Title,
			Permalink:  p.Permalink,
			Label:      string(p.Label),
			Compound:   p.Compound,
			Pos:        p.Pos,
			Neu:        p.Neu,
			Neg:        p.Neg,
			Tickers:    tickers,
			EmojiCount: uint32(p.Features.EmojiCount),
			CapsRatio:  p.Features.CapsRatio,
			LenTokens:  uint32(p.Features.LenTokens),
		})
	}
	return rows
}
