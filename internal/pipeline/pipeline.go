// Package pipeline runs ticker extraction and sentiment scoring over a batch
// of posts and merges both into one AnalyzedPost per post, in input order.
package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"wsbsentiment/internal/domain/post"
	"wsbsentiment/pkg/errors"
)

// TickerExtractor finds ticker symbols in text
type TickerExtractor interface {
	Extract(text string) []string
}

// SentimentAnalyzer scores text
type SentimentAnalyzer interface {
	Analyze(text string) (post.SentimentResult, error)
}

// Result of one pipeline pass
type Result struct {
	Posts     []post.AnalyzedPost
	Processed int
}

// Pipeline is stateless between runs and safe for concurrent use
type Pipeline struct {
	tickers   TickerExtractor
	sentiment SentimentAnalyzer
	workers   int
}

// New creates a pipeline. workers < 1 runs sequentially.
func New(tickers TickerExtractor, sentiment SentimentAnalyzer, workers int) (*Pipeline, error) {
	if tickers == nil || sentiment == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "pipeline needs a ticker extractor and a sentiment analyzer")
	}
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{tickers: tickers, sentiment: sentiment, workers: workers}, nil
}

// Run analyses posts. The first scoring failure aborts the batch and no
// partial result is returned.
func (p *Pipeline) Run(ctx context.Context, posts []post.Post) (*Result, error) {
	out := make([]post.AnalyzedPost, len(posts))

	if p.workers == 1 {
		for i := range posts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			analyzed, err := p.analyze(posts[i])
			if err != nil {
				return nil, err
			}
			out[i] = analyzed
		}
		return &Result{Posts: out, Processed: len(out)}, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i := range posts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			analyzed, err := p.analyze(posts[i])
			if err != nil {
				return err
			}
			// each goroutine owns its index
			out[i] = analyzed
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Result{Posts: out, Processed: len(out)}, nil
}

func (p *Pipeline) analyze(item post.Post) (post.AnalyzedPost, error) {
	res, err := p.sentiment.Analyze(item.Text)
	if err != nil {
		return post.AnalyzedPost{}, errors.Wrapf(err, "analyze post %s", item.ID)
	}
	return post.NewAnalyzedPost(item, res, p.tickers.Extract(item.Text)), nil
}
