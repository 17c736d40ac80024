package reddit

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"wsbsentiment/internal/domain/post"
	"wsbsentiment/pkg/errors"
)

// FileSource reads posts from a JSON array written by a previous fetch
// (posts.json or a posts_<ts>.json archive).
type FileSource struct {
	path string
}

// NewFileSource creates a source for path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Fetch implements post.Source. Entries without an id or any text are
// dropped; text falls back to the title.
func (s *FileSource) Fetch(ctx context.Context) ([]post.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrNotFound, "posts file %s", s.path)
		}
		return nil, errors.Wrapf(err, "read posts file %s", s.path)
	}

	var raw []post.Post
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "decode posts file %s: %v", s.path, err)
	}

	posts := make([]post.Post, 0, len(raw))
	for _, p := range raw {
		if strings.TrimSpace(p.ID) == "" {
			continue
		}
		if strings.TrimSpace(p.Text) == "" {
			p.Text = strings.TrimSpace(p.Title)
		}
		if p.Text == "" {
			continue
		}
		posts = append(posts, p)
	}
	return posts, nil
}
