package ticker

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"wsbsentiment/pkg/errors"
)

// ListsFile is the on-disk format of additional allow/deny entries:
//
//	allow: [PLTR, SOFI]
//	deny: [MOASS]
type ListsFile struct {
	Allow []string `yaml:"allow"`
	Deny  []string `yaml:"deny"`
}

// LoadListsFile reads a YAML lists file. Entries are trimmed, upper-cased
// and stripped of a leading "$".
func LoadListsFile(path string) (*ListsFile, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrNotFound, "ticker lists file %s", path)
		}
		return nil, errors.Wrap(err, "open ticker lists file")
	}
	defer file.Close()

	var lists ListsFile
	if err := yaml.NewDecoder(file).Decode(&lists); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "decode ticker lists file %s: %v", path, err)
	}

	lists.Allow = normalize(lists.Allow)
	lists.Deny = normalize(lists.Deny)
	return &lists, nil
}

// Extend returns a copy of c with extra entries appended. Deny still wins
// over allow because NewExtractor checks the deny set first.
func (c Config) Extend(allow, deny []string) Config {
	out := Config{
		Allow:     append(append([]string(nil), c.Allow...), normalize(allow)...),
		Deny:      append(append([]string(nil), c.Deny...), normalize(deny)...),
		URLWindow: c.URLWindow,
	}
	return out
}

func normalize(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		s = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), "$"))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
