package documents

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/goliatone/go-postembed/internal/markdown"
	"github.com/goliatone/go-postembed/pkg/interfaces"
)

// FSConfig configures how posts are located within a filesystem.
type FSConfig struct {
	// Extension is appended to the slug to build a file name (defaults to ".md").
	Extension string
}

// FSRepository reads posts laid out as <site>/<slug><ext>. Posts without a
// site live at the filesystem root.
type FSRepository struct {
	fs        fs.FS
	extension string
}

// NewFSRepository constructs a read-only repository over filesystem.
func NewFSRepository(filesystem fs.FS, cfg FSConfig) *FSRepository {
	ext := strings.TrimSpace(cfg.Extension)
	if ext == "" {
		ext = ".md"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &FSRepository{fs: filesystem, extension: ext}
}

// Get reads and splits the post stored for site/slug.
func (r *FSRepository) Get(ctx context.Context, site, slugValue string) (*interfaces.RawDocument, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	site, key, err := NormalizeKey(site, slugValue)
	if err != nil {
		return nil, err
	}
	name := path.Join(site, key+r.extension)
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("documents: invalid path %q", name)
	}

	data, err := fs.ReadFile(r.fs, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Site: site, Slug: key}
		}
		return nil, fmt.Errorf("documents: read %s: %w", name, err)
	}
	info, err := fs.Stat(r.fs, name)
	if err != nil {
		return nil, fmt.Errorf("documents: stat %s: %w", name, err)
	}
	return markdown.BuildDocument(site, key, data, info.ModTime())
}

// List returns every post stored directly under the site directory, sorted
// by slug.
func (r *FSRepository) List(ctx context.Context, site string) ([]*interfaces.RawDocument, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	root := normalizeSegment(site)
	dir := root
	if dir == "" {
		dir = "."
	}

	var docs []*interfaces.RawDocument
	walkErr := fs.WalkDir(r.fs, dir, func(current string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path.Clean(current) != path.Clean(dir) {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path.Ext(current) != r.extension {
			return nil
		}
		key := strings.TrimSuffix(path.Base(current), r.extension)
		doc, err := r.Get(ctx, root, key)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, walkErr
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Slug < docs[j].Slug
	})
	return docs, nil
}
