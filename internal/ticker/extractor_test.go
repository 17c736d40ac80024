package ticker

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_Extract(t *testing.T) {
	ex := NewExtractor(DefaultConfig())

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty text", "", []string{}},
		{"repeated cashtag counted once", "$AAPL to the moon, $AAPL again and AAPL", []string{"AAPL"}},
		{"deny-listed bare word", "The CEO said DD is done", []string{}},
		{"deny-listed cashtag", "$CEO $YOLO", []string{}},
		{"bare word not allow-listed", "ZZZZ and QWE are not tickers", []string{}},
		{"single letter cashtag", "$F is cheap", []string{"F"}},
		{"rocket scenario", "HIMS to the moon! $HIMS 🚀🚀 CEO says buy", []string{"HIMS"}},
		{"url path segment", "check out this link https://WWW.WSB.COM/AAPL-to-the-moon", []string{}},
		{"cashtag inside url", "see https://x.com/$TSLA now", []string{}},
		{"cashtags precede bare words", "NVDA beats, but $AMD and $TSLA lead; also NVDA", []string{"AMD", "TSLA", "NVDA"}},
		{"cashtag glued to word before", "x$ZZZZ", []string{}},
		{"glued cashtag falls back to bare word tier", "x$AAPL", []string{"AAPL"}},
		{"cashtag glued to word after", "$AAPLx $AAPL1 $AAPL_", []string{}},
		{"cashtag too long", "$ABCDEF", []string{}},
		{"cashtag followed by punctuation", "buy $AAPL. now", []string{"AAPL"}},
		{"double dollar", "$$GME", []string{"GME"}},
		{"bare word next to slash", "path/GME and GME/x", []string{}},
		{"bare word next to dot", "GME.com and .GME", []string{}},
		{"bare word with punctuation", "(GME), GME! 'TSLA'", []string{"GME", "TSLA"}},
		{"bare word glued to unicode letter", "ÉAAPL", []string{}},
		{"bare word between emoji", "🚀GME🚀", []string{"GME"}},
		{"lowercase is ignored", "aapl and $aapl", []string{}},
		{"uppercase url marker", "HTTP: $GME", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ex.Extract(tt.text)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractor_URLWindow(t *testing.T) {
	ex := NewExtractor(DefaultConfig())

	near := "www.x.com/ $GME"
	assert.Empty(t, ex.Extract(near))

	// Marker sits further back than the inspected window
	far := "www.x.com " + strings.Repeat("z ", 15) + "$GME"
	assert.Equal(t, []string{"GME"}, ex.Extract(far))

	// Disabling the window disables the heuristic
	cfg := DefaultConfig()
	cfg.URLWindow = 0
	assert.Equal(t, []string{"GME"}, NewExtractor(cfg).Extract(near))
}

func TestExtractor_DenyWinsOverAllow(t *testing.T) {
	ex := NewExtractor(Config{
		Allow:     []string{"DD", "XYZ"},
		Deny:      []string{"dd"},
		URLWindow: DefaultURLWindow,
	})

	assert.Equal(t, []string{"XYZ"}, ex.Extract("DD and XYZ"))
	assert.Equal(t, []string{"XYZ"}, ex.Extract("$DD and $XYZ"))
}

func TestExtractor_EmptyAllowList(t *testing.T) {
	ex := NewExtractor(Config{})

	assert.Equal(t, []string{"TSLA"}, ex.Extract("AAPL $TSLA"))
	assert.Empty(t, ex.Extract("AAPL GME"))
}

func TestDefaultConfig_ReturnsCopies(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Allow[0] = "MUTATED"

	assert.NotEqual(t, "MUTATED", DefaultConfig().Allow[0])
}

func TestDefaultLists_WellFormed(t *testing.T) {
	symbol := regexp.MustCompile(`^[A-Z]{1,5}$`)
	deny := toSet(defaultDeny)

	for _, s := range defaultAllow {
		assert.Regexp(t, symbol, s)
		_, clash := deny[s]
		assert.False(t, clash, "%s is both allowed and denied", s)
	}
	for _, s := range defaultDeny {
		assert.Regexp(t, symbol, s)
	}
}

// Every symbol produced matches the symbol pattern, is not denied and appears once
func TestExtractor_OutputInvariants(t *testing.T) {
	ex := NewExtractor(DefaultConfig())
	deny := toSet(defaultDeny)
	symbol := regexp.MustCompile(`^[A-Z]{1,5}$`)

	pieces := []string{
		"$AAPL", "AAPL", "$F", "GME", "$GME", "CEO", "$CEO", "https://", "www.", "/", ".",
		" ", " ", " ", "moon", "🚀", "$", "TSLA", "$TSLAQ", "HIMS", "x", "_", "DD", "$ABCDEF",
	}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		var b strings.Builder
		for j := 0; j < 12; j++ {
			b.WriteString(pieces[rng.Intn(len(pieces))])
		}

		got := ex.Extract(b.String())
		seen := map[string]bool{}
		for _, s := range got {
			assert.Regexp(t, symbol, s)
			_, denied := deny[s]
			assert.False(t, denied, "denied symbol %s in %q", s, b.String())
			assert.False(t, seen[s], "duplicate %s in %q", s, b.String())
			seen[s] = true
		}
	}
}
