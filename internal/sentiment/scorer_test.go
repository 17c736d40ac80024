package sentiment

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wsbsentiment/internal/domain/post"
	pkgerrors "wsbsentiment/pkg/errors"
)

type fakePolarity struct {
	scores map[string]Polarity
	def    Polarity
}

func (f *fakePolarity) Polarity(text string) Polarity {
	if p, ok := f.scores[text]; ok {
		return p
	}
	return f.def
}

// fakeLemmatizer splits on whitespace, flags a tiny stop list and pure punctuation
type fakeLemmatizer struct {
	err error
}

func (f *fakeLemmatizer) Lemmatize(text string) ([]Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	stop := map[string]bool{"the": true, "to": true, "a": true}
	var tokens []Token
	for _, w := range strings.Fields(text) {
		lower := strings.ToLower(w)
		tokens = append(tokens, Token{
			Text:    w,
			Lemma:   lower,
			IsStop:  stop[lower],
			IsPunct: strings.Trim(w, "!?.,") == "",
		})
	}
	return tokens, nil
}

type fakeDemojizer struct{}

func (fakeDemojizer) Demojize(text string) string {
	return strings.ReplaceAll(text, "🚀", ":rocket:")
}

func newTestScorer(t *testing.T, pol *fakePolarity) *Scorer {
	t.Helper()
	s, err := NewScorer(pol, &fakeLemmatizer{}, fakeDemojizer{})
	require.NoError(t, err)
	return s
}

func TestNewScorer_RejectsMissingDependencies(t *testing.T) {
	_, err := NewScorer(nil, &fakeLemmatizer{}, fakeDemojizer{})
	assert.True(t, pkgerrors.Is(err, pkgerrors.ErrDependencyUnavailable))

	_, err = NewScorer(&fakePolarity{}, nil, fakeDemojizer{})
	assert.True(t, pkgerrors.Is(err, pkgerrors.ErrDependencyUnavailable))

	_, err = NewScorer(&fakePolarity{}, &fakeLemmatizer{}, nil)
	assert.True(t, pkgerrors.Is(err, pkgerrors.ErrDependencyUnavailable))
}

func TestLabelFor(t *testing.T) {
	tests := []struct {
		compound float64
		want     post.Label
	}{
		{1, post.LabelBullish},
		{0.0501, post.LabelBullish},
		{0.05, post.LabelNeutral},
		{0, post.LabelNeutral},
		{-0.05, post.LabelNeutral},
		{-0.0501, post.LabelBearish},
		{-1, post.LabelBearish},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LabelFor(tt.compound), "compound %v", tt.compound)
	}
}

func TestLabelFor_OnlyKnownLabels(t *testing.T) {
	for c := -1.0; c <= 1.0; c += 0.001 {
		label := LabelFor(c)
		require.True(t, label.Valid())
		switch {
		case c > BullishThreshold:
			assert.Equal(t, post.LabelBullish, label)
		case c < BearishThreshold:
			assert.Equal(t, post.LabelBearish, label)
		default:
			assert.Equal(t, post.LabelNeutral, label)
		}
	}
}

func TestScorer_RocketScenario(t *testing.T) {
	text := "HIMS to the moon! $HIMS 🚀🚀 CEO says buy"
	s := newTestScorer(t, &fakePolarity{
		scores: map[string]Polarity{text: {Neg: 0, Neu: 0.7, Pos: 0.3, Compound: 0.45678}},
	})

	res, err := s.Analyze(text)
	require.NoError(t, err)

	assert.Equal(t, post.LabelBullish, res.Label)
	assert.Equal(t, 0.4568, res.Compound)
	assert.Equal(t, 2, res.Features.EmojiCount)
	// HIMS, $HIMS and CEO out of nine words
	assert.Equal(t, 0.333, res.Features.CapsRatio)
	// "to" and "the" are stop-words
	assert.Equal(t, 7, res.Features.LenTokens)
}

func TestScorer_CapsRatioRoundsHalfToEven(t *testing.T) {
	s := newTestScorer(t, &fakePolarity{})

	tests := []struct {
		text string
		want float64
	}{
		{"GME" + strings.Repeat(" up", 15), 0.062},
		{"GME AMC TSLA" + strings.Repeat(" up", 77), 0.037},
		{"GME AMC TSLA" + strings.Repeat(" up", 45), 0.062},
	}

	for _, tt := range tests {
		res, err := s.Analyze(tt.text)
		require.NoError(t, err)
		assert.Equal(t, tt.want, res.Features.CapsRatio, "%d words", len(strings.Fields(tt.text)))
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		v      float64
		places int
		want   float64
	}{
		{1.0 / 16, 3, 0.062},
		{3.0 / 80, 3, 0.037},
		{2.675, 2, 2.67},
		{0.03125, 4, 0.0312},
		{0.45678, 4, 0.4568},
		{-0.0625, 3, -0.062},
		{1.0 / 3, 3, 0.333},
		{-1, 4, -1},
		{0, 4, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, round(tt.v, tt.places), "round(%v, %d)", tt.v, tt.places)
	}
}

func TestScorer_EmptyText(t *testing.T) {
	s := newTestScorer(t, &fakePolarity{})

	res, err := s.Analyze("")
	require.NoError(t, err)

	assert.Equal(t, post.LabelNeutral, res.Label)
	assert.Zero(t, res.Compound)
	assert.Equal(t, 1.0, res.Neu)
	assert.Zero(t, res.Features.LenTokens)
	assert.Zero(t, res.Features.CapsRatio)
	assert.Zero(t, res.Features.EmojiCount)
}

func TestScorer_SharesSumToOne(t *testing.T) {
	s := newTestScorer(t, &fakePolarity{scores: map[string]Polarity{
		"drift":  {Neg: 0.2, Neu: 0.5, Pos: 0.31, Compound: 0.1},
		"zeros":  {},
		"exact":  {Neg: 0.1, Neu: 0.6, Pos: 0.3, Compound: 0.2},
		"nan":    {Neg: math.NaN(), Neu: 0.5, Pos: 0.5, Compound: 0.9},
		"excess": {Neg: 0, Neu: 1, Pos: 0, Compound: 1.7},
	}})

	for _, text := range []string{"drift", "zeros", "exact", "nan", "excess"} {
		res, err := s.Analyze(text)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, res.Pos+res.Neu+res.Neg, 1e-6, text)
		assert.GreaterOrEqual(t, res.Compound, -1.0, text)
		assert.LessOrEqual(t, res.Compound, 1.0, text)
	}
}

func TestScorer_Idempotent(t *testing.T) {
	text := "GME 🚀 to the MOON, apes together STRONG!!!"
	s := newTestScorer(t, &fakePolarity{def: Polarity{Neg: 0.1, Neu: 0.5, Pos: 0.4, Compound: 0.8123456}})

	first, err := s.Analyze(text)
	require.NoError(t, err)
	second, err := s.Analyze(text)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScorer_LemmatizerFailureIsFatal(t *testing.T) {
	boom := errors.New("model not loaded")
	s, err := NewScorer(&fakePolarity{}, &fakeLemmatizer{err: boom}, fakeDemojizer{})
	require.NoError(t, err)

	_, err = s.Analyze("anything")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.ErrDependencyUnavailable))
	assert.ErrorIs(t, err, boom)
}

func TestCapsRatio(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"", 0},
		{"   ", 0},
		{"GME", 1},
		{"OK no", 0},
		{"BUY BUY sell", 2.0 / 3.0},
		{"GME!! 123 YOLO4LIFE", 2.0 / 3.0},
		{"Tendies TENDIES", 0.5},
		{"ÄÖÜ straße", 0.5},
		{"GME\x1cup", 0.5},
		{"GME\x1fTSLA\u00a0up\u3000now", 0.5},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, CapsRatio(tt.text), 1e-9, tt.text)
	}
}

func TestEmojiCount(t *testing.T) {
	assert.Equal(t, 0, EmojiCount("no emoji here"))
	assert.Equal(t, 2, EmojiCount(":rocket::rocket:"))
	// pre-existing colons count too, floor division
	assert.Equal(t, 1, EmojiCount("time: 10:30"))
	assert.Equal(t, 1, EmojiCount(":gem: at 9:30"))
}

func TestCleanTokenCount(t *testing.T) {
	tokens := []Token{
		{Text: "apes", Lemma: "ape"},
		{Text: "the", Lemma: "the", IsStop: true},
		{Text: "!", Lemma: "!", IsPunct: true},
		{Text: "holding", Lemma: "hold"},
	}
	assert.Equal(t, 2, CleanTokenCount(tokens))
	assert.Zero(t, CleanTokenCount(nil))
}
