package events

import (
	"context"

	"wsbsentiment/internal/adapters/kafka"
	"wsbsentiment/internal/domain/post"
	"wsbsentiment/pkg/errors"
)

// Producer is the part of kafka.Producer the sink needs
type Producer interface {
	PublishBatch(ctx context.Context, topic string, events []kafka.Keyed) error
}

// PostAnalyzedEvent is published once per analysed post
type PostAnalyzedEvent struct {
	BaseEvent
	RunID string            `json:"run_id"`
	Post  post.AnalyzedPost `json:"post"`
}

// RunCompletedEvent summarises a successful run
type RunCompletedEvent struct {
	BaseEvent
	RunID       string             `json:"run_id"`
	PostsCount  int                `json:"posts_count"`
	LabelCounts map[post.Label]int `json:"label_counts"`
	TopTickers  []post.TickerCount `json:"top_tickers"`
}

// SentimentSink publishes a snapshot to Kafka: every post to
// sentiment.posts, then a summary to sentiment.runs.
type SentimentSink struct {
	producer   Producer
	source     string
	topTickers int
}

// NewSentimentSink creates the sink. source identifies this service in events.
func NewSentimentSink(producer Producer, source string) *SentimentSink {
	return &SentimentSink{producer: producer, source: source, topTickers: 10}
}

// Name implements post.Sink
func (s *SentimentSink) Name() string {
	return "kafka"
}

// Publish implements post.Sink
func (s *SentimentSink) Publish(ctx context.Context, snap *post.Snapshot) error {
	if len(snap.Posts) > 0 {
		batch := make([]kafka.Keyed, 0, len(snap.Posts))
		for _, p := range snap.Posts {
			p.Title = SanitizeUTF8(p.Title)
			batch = append(batch, kafka.Keyed{
				Key: p.ID,
				Value: PostAnalyzedEvent{
					BaseEvent: NewBaseEvent(TypePostAnalyzed, s.source, snap.CompletedAt),
					RunID:     snap.RunID,
					Post:      p,
				},
			})
		}
		if err := s.producer.PublishBatch(ctx, kafka.TopicSentimentPosts, batch); err != nil {
			return errors.Wrap(err, "publish analysed posts")
		}
	}

	summary := RunCompletedEvent{
		BaseEvent:   NewBaseEvent(TypeRunCompleted, s.source, snap.CompletedAt),
		RunID:       snap.RunID,
		PostsCount:  len(snap.Posts),
		LabelCounts: snap.LabelCounts(),
		TopTickers:  snap.TopTickers(s.topTickers),
	}
	if err := s.producer.PublishBatch(ctx, kafka.TopicSentimentRuns, []kafka.Keyed{{Key: snap.RunID, Value: summary}}); err != nil {
		return errors.Wrap(err, "publish run summary")
	}
	return nil
}
