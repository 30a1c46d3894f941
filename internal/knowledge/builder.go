package knowledge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gofrs/flock"
	chromem "github.com/philippgille/chromem-go"

	"babytrack/internal/chunker"
	"babytrack/internal/log"
)

// supportedExtensions are the document types the builder indexes.
// PDF and other binary formats are skipped.
var supportedExtensions = map[string]bool{
	".md":  true,
	".txt": true,
}

// Index is a loaded guideline collection ready for querying.
type Index struct {
	collection *chromem.Collection
}

// Count returns the number of indexed passages.
func (i *Index) Count() int {
	return i.collection.Count()
}

// Load opens a previously built index. It returns ErrIndexNotFound when
// the directory or the collection does not exist or holds no passages.
func Load(indexDir string, embedFn chromem.EmbeddingFunc) (*Index, error) {
	if _, err := os.Stat(indexDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrIndexNotFound
		}
		return nil, fmt.Errorf("checking index directory: %w", err)
	}

	db, err := chromem.NewPersistentDB(indexDir, false)
	if err != nil {
		return nil, fmt.Errorf("opening index at %s: %w", indexDir, err)
	}

	collection := db.GetCollection(CollectionName, embedFn)
	if collection == nil || collection.Count() == 0 {
		return nil, ErrIndexNotFound
	}
	return &Index{collection: collection}, nil
}

// Builder constructs the guideline index from a documents directory.
type Builder struct {
	docsDir  string
	indexDir string
	embedFn  chromem.EmbeddingFunc
	opts     chunker.Options
	logger   log.Logger
}

// NewBuilder creates a Builder. Zero chunker options fall back to
// defaults.
func NewBuilder(docsDir, indexDir string, embedFn chromem.EmbeddingFunc, opts chunker.Options, logger log.Logger) *Builder {
	if opts.TargetSize <= 0 || opts.MaxSize <= 0 {
		opts = chunker.DefaultOptions()
	}
	return &Builder{
		docsDir:  docsDir,
		indexDir: indexDir,
		embedFn:  embedFn,
		opts:     opts,
		logger:   logger,
	}
}

// Build creates or reuses the persisted index. When force is false and
// an index already exists, Build is equivalent to Load. A file lock on
// the index directory serializes concurrent builds across processes.
func (b *Builder) Build(ctx context.Context, force bool) (*Index, error) {
	if err := os.MkdirAll(b.indexDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	lock := flock.New(filepath.Join(b.indexDir, ".build.lock"))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("locking index directory: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	if !force {
		idx, err := Load(b.indexDir, b.embedFn)
		if err == nil {
			b.logger.Debug("reusing existing index", "dir", b.indexDir, "passages", idx.Count())
			return idx, nil
		}
		if !errors.Is(err, ErrIndexNotFound) {
			return nil, err
		}
	}

	docs, err := b.collect()
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, b.docsDir)
	}

	db, err := chromem.NewPersistentDB(b.indexDir, false)
	if err != nil {
		return nil, fmt.Errorf("opening index at %s: %w", b.indexDir, err)
	}
	if force {
		if err := db.DeleteCollection(CollectionName); err != nil {
			return nil, fmt.Errorf("resetting collection: %w", err)
		}
	}
	collection, err := db.GetOrCreateCollection(CollectionName, nil, b.embedFn)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("embedding %d passages: %w", len(docs), err)
	}

	b.logger.Info("built guideline index", "dir", b.indexDir, "passages", len(docs))
	return &Index{collection: collection}, nil
}

// collect walks the documents directory and chunks every supported file.
func (b *Builder) collect() ([]chromem.Document, error) {
	var docs []chromem.Document

	err := filepath.WalkDir(b.docsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		source, err := filepath.Rel(b.docsDir, path)
		if err != nil {
			source = filepath.Base(path)
		}

		for i, chunk := range chunker.Chunk(string(content), b.opts) {
			docs = append(docs, chromem.Document{
				ID:      fmt.Sprintf("%s#%d", source, i),
				Content: chunk,
				Metadata: map[string]string{
					"source": source,
					"chunk":  fmt.Sprintf("%d", i),
				},
			})
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: directory %s does not exist", ErrNoDocuments, b.docsDir)
		}
		return nil, fmt.Errorf("walking documents directory: %w", err)
	}
	return docs, nil
}
