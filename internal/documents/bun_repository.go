package documents

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-postembed/internal/identity"
	"github.com/goliatone/go-postembed/internal/markdown"
	"github.com/goliatone/go-postembed/pkg/interfaces"
)

// Post is the persisted post row. Its ID is derived from site and slug.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID        uuid.UUID `bun:",pk,type:uuid"      json:"id"`
	Site      string    `bun:"site,notnull"       json:"site"`
	Slug      string    `bun:"slug,notnull"       json:"slug"`
	Source    string    `bun:"source,notnull"     json:"source"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// NewPostRepository builds the generic Bun repository for posts.
func NewPostRepository(db *bun.DB) repository.Repository[*Post] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Post]{
		NewRecord: func() *Post { return &Post{} },
		GetID: func(p *Post) uuid.UUID {
			return p.ID
		},
		SetID: func(p *Post, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(p *Post) string {
			return p.ID.String()
		},
	})
}

// BunRepository stores posts through go-repository-bun with optional caching.
type BunRepository struct {
	repo repository.Repository[*Post]
	now  func() time.Time
}

// NewBunRepository constructs an uncached Bun repository.
func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache wraps the Bun repository with a read-through cache
// when both cache collaborators are supplied.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunRepository {
	base := NewPostRepository(db)
	return &BunRepository{
		repo: wrapWithCache(base, cacheService, keySerializer),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// CreateTable creates the posts table when it is missing.
func CreateTable(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*Post)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Get loads and splits the post stored for site/slug.
func (r *BunRepository) Get(ctx context.Context, site, slugValue string) (*interfaces.RawDocument, error) {
	site, key, err := NormalizeKey(site, slugValue)
	if err != nil {
		return nil, err
	}
	record, err := r.repo.GetByID(ctx, identity.PostUUID(site, key).String())
	if err != nil {
		return nil, mapRepositoryError(err, site, key)
	}
	return markdown.BuildDocument(record.Site, record.Slug, []byte(record.Source), record.UpdatedAt)
}

// Put creates or replaces the post stored for site/slug.
func (r *BunRepository) Put(ctx context.Context, site, slugValue string, source []byte) (*interfaces.RawDocument, error) {
	site, key, err := NormalizeKey(site, slugValue)
	if err != nil {
		return nil, err
	}
	now := r.now()
	doc, err := markdown.BuildDocument(site, key, source, now)
	if err != nil {
		return nil, err
	}

	id := identity.PostUUID(site, key)
	existing, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		if mapped := mapRepositoryError(err, site, key); !IsNotFound(mapped) {
			return nil, mapped
		}
		existing = nil
	}

	if existing == nil {
		if _, err := r.repo.Create(ctx, &Post{
			ID:        id,
			Site:      site,
			Slug:      key,
			Source:    string(source),
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return nil, fmt.Errorf("documents: create %s/%s: %w", site, key, err)
		}
		return doc, nil
	}

	existing.Source = string(source)
	existing.UpdatedAt = now
	if _, err := r.repo.Update(ctx, existing,
		repository.UpdateByID(id.String()),
		repository.UpdateColumns("source", "updated_at"),
	); err != nil {
		return nil, fmt.Errorf("documents: update %s/%s: %w", site, key, err)
	}
	return doc, nil
}

// Delete removes the post stored for site/slug.
func (r *BunRepository) Delete(ctx context.Context, site, slugValue string) error {
	site, key, err := NormalizeKey(site, slugValue)
	if err != nil {
		return err
	}
	record, err := r.repo.GetByID(ctx, identity.PostUUID(site, key).String())
	if err != nil {
		return mapRepositoryError(err, site, key)
	}
	if err := r.repo.Delete(ctx, record); err != nil {
		return fmt.Errorf("documents: delete %s/%s: %w", site, key, err)
	}
	return nil
}

func mapRepositoryError(err error, site, slugValue string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Site: site, Slug: slugValue}
	}
	return fmt.Errorf("documents repository error: %w", err)
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
