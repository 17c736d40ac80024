// Package snapshot persists the latest successful run as flat JSON files.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jonboulle/clockwork"

	"wsbsentiment/internal/domain/post"
	"wsbsentiment/pkg/errors"
	"wsbsentiment/pkg/logger"
)

const (
	ResultsFile = "sentiment_results.json"
	PostsFile   = "posts.json"
	RunFile     = "sentiment_run.json"

	archiveLayout = "20060102_150405"
)

var _ post.SnapshotRepository = (*FileStore)(nil)

// runMeta sits next to the results file. The results file itself stays a
// flat array for existing consumers.
type runMeta struct {
	RunID       string    `json:"run_id"`
	CompletedAt time.Time `json:"completed_at"`
	Count       int       `json:"count"`
}

// FileStore writes snapshots into a directory. Every file is replaced by
// write-to-temp then rename, so readers never observe a partial file.
type FileStore struct {
	dir     string
	archive bool
	clock   clockwork.Clock
	log     *logger.Logger
}

// NewFileStore creates the directory if needed. With archive set, Save also
// keeps a timestamped posts_<ts>.json copy.
func NewFileStore(dir string, archive bool, clock clockwork.Clock) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create snapshot dir %s", dir)
	}
	return &FileStore{
		dir:     dir,
		archive: archive,
		clock:   clock,
		log:     logger.Get().Component("snapshot_store"),
	}, nil
}

// Save replaces sentiment_results.json, its run metadata and posts.json.
// All files are staged as temp files first and renamed only once every one
// of them was written, so a failed Save leaves the previous run in place.
func (s *FileStore) Save(ctx context.Context, snap *post.Snapshot, posts []post.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	results := snap.Posts
	if results == nil {
		results = []post.AnalyzedPost{}
	}
	if posts == nil {
		posts = []post.Post{}
	}

	// The results file is renamed last, it is what consumers poll
	files := []pendingFile{{PostsFile, posts}}
	if s.archive {
		files = append(files, pendingFile{"posts_" + s.clock.Now().UTC().Format(archiveLayout) + ".json", posts})
	}
	files = append(files,
		pendingFile{RunFile, runMeta{RunID: snap.RunID, CompletedAt: snap.CompletedAt, Count: len(results)}},
		pendingFile{ResultsFile, results},
	)

	staged := make([]stagedFile, 0, len(files))
	discard := func() {
		for _, f := range staged {
			_ = os.Remove(f.tmp)
		}
	}

	for _, f := range files {
		sf, err := s.stageJSON(f.name, f.v)
		if err != nil {
			discard()
			return err
		}
		staged = append(staged, sf)
	}

	for i, f := range staged {
		if err := os.Rename(f.tmp, f.path); err != nil {
			for _, rest := range staged[i:] {
				_ = os.Remove(rest.tmp)
			}
			return errors.Wrapf(err, "commit %s", filepath.Base(f.path))
		}
		s.log.Debugw("Snapshot file written", "file", filepath.Base(f.path), "size", humanize.Bytes(uint64(f.size)))
	}
	return nil
}

// Latest reads the last saved snapshot. ErrNoSnapshot if none was saved.
func (s *FileStore) Latest(ctx context.Context) (*post.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var posts []post.AnalyzedPost
	info, err := s.readJSON(ResultsFile, &posts)
	if err != nil {
		return nil, err
	}

	snap := &post.Snapshot{Posts: posts, CompletedAt: info.ModTime().UTC()}

	var meta runMeta
	if _, err := s.readJSON(RunFile, &meta); err == nil {
		snap.RunID = meta.RunID
		snap.CompletedAt = meta.CompletedAt
	} else if !errors.Is(err, errors.ErrNoSnapshot) {
		s.log.Warnw("Ignoring unreadable run metadata", "error", err)
	}

	return snap, nil
}

// LatestPosts reads posts.json
func (s *FileStore) LatestPosts(ctx context.Context) ([]post.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var posts []post.Post
	if _, err := s.readJSON(PostsFile, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

type pendingFile struct {
	name string
	v    interface{}
}

// stagedFile is an encoded file waiting to be renamed over path
type stagedFile struct {
	tmp  string
	path string
	size int
}

func (s *FileStore) stageJSON(name string, v interface{}) (stagedFile, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return stagedFile{}, errors.Wrapf(err, "encode %s", name)
	}

	path := filepath.Join(s.dir, name)
	tmp, err := writeTemp(path, buf.Bytes())
	if err != nil {
		return stagedFile{}, errors.Wrapf(err, "write %s", name)
	}
	return stagedFile{tmp: tmp, path: path, size: buf.Len()}, nil
}

func (s *FileStore) readJSON(name string, dest interface{}) (os.FileInfo, error) {
	path := filepath.Join(s.dir, name)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(errors.ErrNoSnapshot, "%s", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return nil, errors.Wrapf(err, "decode %s", name)
	}
	return info, nil
}

// writeTemp writes data to a synced temp file in the directory of path and
// returns its name. The caller renames it over path.
func writeTemp(path string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return "", err
	}
	return tmpName, nil
}
