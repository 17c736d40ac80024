package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"wsbsentiment/internal/domain/post"
	"wsbsentiment/pkg/errors"
)

// Sender delivers a text message to a chat
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// DigestSink posts a short run summary to a chat after every successful run
type DigestSink struct {
	sender     Sender
	chatID     int64
	topTickers int
}

// NewDigestSink creates a digest sink for the given chat
func NewDigestSink(sender Sender, chatID int64, topTickers int) *DigestSink {
	if topTickers <= 0 {
		topTickers = 5
	}
	return &DigestSink{sender: sender, chatID: chatID, topTickers: topTickers}
}

// Name implements post.Sink
func (s *DigestSink) Name() string {
	return "telegram"
}

// Publish implements post.Sink
func (s *DigestSink) Publish(ctx context.Context, snap *post.Snapshot) error {
	if err := s.sender.SendMessage(ctx, s.chatID, FormatDigest(snap, s.topTickers)); err != nil {
		return errors.Wrap(err, "send digest")
	}
	return nil
}

// FormatDigest renders the Markdown digest of a snapshot
func FormatDigest(snap *post.Snapshot, topTickers int) string {
	counts := snap.LabelCounts()

	var b strings.Builder
	fmt.Fprintf(&b, "*WSB sentiment* (%s posts)\n", humanize.Comma(int64(len(snap.Posts))))
	fmt.Fprintf(&b, "🟢 bullish: %d\n", counts[post.LabelBullish])
	fmt.Fprintf(&b, "⚪ neutral: %d\n", counts[post.LabelNeutral])
	fmt.Fprintf(&b, "🔴 bearish: %d\n", counts[post.LabelBearish])

	top := snap.TopTickers(topTickers)
	if len(top) == 0 {
		b.WriteString("\nNo tickers mentioned")
	} else {
		b.WriteString("\n*Top tickers*\n")
		for i, tc := range top {
			fmt.Fprintf(&b, "%d. `%s` %d\n", i+1, tc.Ticker, tc.Mentions)
		}
	}

	if !snap.CompletedAt.IsZero() {
		fmt.Fprintf(&b, "\n_%s_", snap.CompletedAt.UTC().Format("2006-01-02 15:04 UTC"))
	}
	return strings.TrimRight(b.String(), "\n")
}
