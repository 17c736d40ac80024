package sentiment

// Token is one lemmatized token of the input text
type Token struct {
	Text    string
	Lemma   string
	IsStop  bool
	IsPunct bool
}

// Lemmatizer tokenizes and lemmatizes text. Implementations load their model
// once and must be safe for concurrent use.
type Lemmatizer interface {
	Lemmatize(text string) ([]Token, error)
}

// Polarity is the four-score output of a lexicon based polarity function.
// Neg, Neu and Pos are shares in [0,1], Compound is normalized to [-1,1].
type Polarity struct {
	Neg      float64
	Neu      float64
	Pos      float64
	Compound float64
}

// PolarityAnalyzer scores raw, untokenized text
type PolarityAnalyzer interface {
	Polarity(text string) Polarity
}

// Demojizer replaces every emoji with a ":name:" placeholder
type Demojizer interface {
	Demojize(text string) string
}
