package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wsbsentiment/internal/domain/post"
	"wsbsentiment/internal/sentiment"
	"wsbsentiment/internal/ticker"
)

// stubAnalyzer labels by text and can fail on a given text
type stubAnalyzer struct {
	failOn string
	calls  atomic.Int32
	delay  func(text string) time.Duration
}

func (s *stubAnalyzer) Analyze(text string) (post.SentimentResult, error) {
	s.calls.Add(1)
	if s.delay != nil {
		time.Sleep(s.delay(text))
	}
	if text == s.failOn {
		return post.SentimentResult{}, errors.New("lemmatizer unavailable")
	}
	return post.SentimentResult{
		Label:    sentiment.LabelFor(0.5),
		Compound: 0.5,
		Pos:      0.5,
		Neu:      0.5,
		Features: post.Features{LenTokens: len(text)},
	}, nil
}

func makePosts(n int) []post.Post {
	posts := make([]post.Post, n)
	for i := range posts {
		posts[i] = post.Post{
			ID:        fmt.Sprintf("p%03d", i),
			Title:     fmt.Sprintf("title %d", i),
			Text:      fmt.Sprintf("post %d about $GME", i),
			Permalink: fmt.Sprintf("https://www.reddit.com/r/wallstreetbets/comments/p%03d", i),
		}
	}
	return posts
}

func TestPipeline_Run_MergesBothOutputs(t *testing.T) {
	p, err := New(ticker.NewExtractor(ticker.DefaultConfig()), &stubAnalyzer{}, 1)
	require.NoError(t, err)

	posts := []post.Post{
		{ID: "a", Title: "HIMS", Text: "HIMS to the moon! $HIMS 🚀🚀 CEO says buy", Permalink: "https://www.reddit.com/a"},
		{ID: "b", Title: "link", Text: "check out this link https://WWW.WSB.COM/AAPL-to-the-moon", Permalink: "https://www.reddit.com/b"},
	}

	res, err := p.Run(context.Background(), posts)
	require.NoError(t, err)
	require.Len(t, res.Posts, 2)
	assert.Equal(t, 2, res.Processed)

	assert.Equal(t, "a", res.Posts[0].ID)
	assert.Equal(t, "HIMS", res.Posts[0].Title)
	assert.Equal(t, "https://www.reddit.com/a", res.Posts[0].Permalink)
	assert.Equal(t, []string{"HIMS"}, res.Posts[0].Tickers)
	assert.Equal(t, post.LabelBullish, res.Posts[0].Label)

	assert.Equal(t, "b", res.Posts[1].ID)
	assert.NotNil(t, res.Posts[1].Tickers)
	assert.Empty(t, res.Posts[1].Tickers)
}

func TestPipeline_Run_PreservesOrderWithWorkers(t *testing.T) {
	// later posts finish first
	analyzer := &stubAnalyzer{delay: func(text string) time.Duration {
		return time.Duration(len(text)%7) * time.Millisecond
	}}
	p, err := New(ticker.NewExtractor(ticker.DefaultConfig()), analyzer, 8)
	require.NoError(t, err)

	posts := makePosts(100)
	res, err := p.Run(context.Background(), posts)
	require.NoError(t, err)

	require.Len(t, res.Posts, len(posts))
	for i := range posts {
		assert.Equal(t, posts[i].ID, res.Posts[i].ID)
		assert.Equal(t, []string{"GME"}, res.Posts[i].Tickers)
	}
}

func TestPipeline_Run_AbortsOnFirstFailure(t *testing.T) {
	posts := makePosts(20)

	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			analyzer := &stubAnalyzer{failOn: posts[3].Text}
			p, err := New(ticker.NewExtractor(ticker.DefaultConfig()), analyzer, workers)
			require.NoError(t, err)

			res, err := p.Run(context.Background(), posts)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Contains(t, err.Error(), "p003")
		})
	}

	analyzer := &stubAnalyzer{failOn: posts[3].Text}
	p, err := New(ticker.NewExtractor(ticker.DefaultConfig()), analyzer, 1)
	require.NoError(t, err)
	_, _ = p.Run(context.Background(), posts)
	assert.Equal(t, int32(4), analyzer.calls.Load())
}

func TestPipeline_Run_Empty(t *testing.T) {
	p, err := New(ticker.NewExtractor(ticker.DefaultConfig()), &stubAnalyzer{}, 4)
	require.NoError(t, err)

	res, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Posts)
	assert.Zero(t, res.Processed)
}

func TestPipeline_Run_Cancelled(t *testing.T) {
	p, err := New(ticker.NewExtractor(ticker.DefaultConfig()), &stubAnalyzer{}, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Run(ctx, makePosts(3))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_RequiresComponents(t *testing.T) {
	_, err := New(nil, &stubAnalyzer{}, 1)
	assert.Error(t, err)

	_, err = New(ticker.NewExtractor(ticker.Config{}), nil, 1)
	assert.Error(t, err)
}
