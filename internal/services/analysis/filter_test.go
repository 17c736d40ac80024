package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wsbsentiment/internal/domain/post"
	"wsbsentiment/pkg/errors"
)

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(" Bullish ", "$gme")
	require.NoError(t, err)
	assert.Equal(t, Filter{Label: post.LabelBullish, Ticker: "GME"}, f)

	_, err = ParseFilter("moon", "")
	var verr *errors.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestFilter_Apply(t *testing.T) {
	posts := []post.AnalyzedPost{
		{ID: "1", Label: post.LabelBullish, Tickers: []string{"GME"}},
		{ID: "2", Label: post.LabelBearish, Tickers: []string{"GME", "AMC"}},
		{ID: "3", Label: post.LabelBullish, Tickers: []string{}},
	}

	ids := func(ps []post.AnalyzedPost) []string {
		out := []string{}
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(Filter{}.Apply(posts)))
	assert.Equal(t, []string{"1", "3"}, ids(Filter{Label: post.LabelBullish}.Apply(posts)))
	assert.Equal(t, []string{"1", "2"}, ids(Filter{Ticker: "GME"}.Apply(posts)))
	assert.Equal(t, []string{"2"}, ids(Filter{Label: post.LabelBearish, Ticker: "AMC"}.Apply(posts)))
	assert.Empty(t, Filter{Ticker: "TSLA"}.Apply(posts))
}
