package nlp

import (
	"sort"
	"strings"

	"github.com/forPelevin/gomoji"
)

// Emoji replaces emoji characters with ":slug:" placeholders
type Emoji struct{}

// NewEmoji returns the gomoji backed demojizer
func NewEmoji() *Emoji {
	return &Emoji{}
}

// Demojize implements sentiment.Demojizer
func (Emoji) Demojize(text string) string {
	found := gomoji.FindAll(text)
	if len(found) == 0 {
		return text
	}

	// Longest sequences first so ZWJ and skin-tone sequences are not split
	sort.Slice(found, func(i, j int) bool {
		return len(found[i].Character) > len(found[j].Character)
	})

	pairs := make([]string, 0, len(found)*2)
	for _, e := range found {
		slug := e.Slug
		if slug == "" {
			slug = strings.ToLower(strings.ReplaceAll(e.UnicodeName, " ", "-"))
		}
		pairs = append(pairs, e.Character, ":"+slug+":")
	}

	return strings.NewReplacer(pairs...).Replace(text)
}
