package examples

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-postembed/pkg/interfaces"
)

// NewExampleRepository builds the generic Bun repository for examples.
// Examples use integer keys, so lookups go through the id identifier column
// and the UUID handlers are inert.
func NewExampleRepository(db *bun.DB) repository.Repository[*exampleModel] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*exampleModel]{
		NewRecord: func() *exampleModel { return &exampleModel{} },
		GetID: func(*exampleModel) uuid.UUID {
			return uuid.Nil
		},
		SetID: func(*exampleModel, uuid.UUID) {},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(m *exampleModel) string {
			if m.ID == 0 {
				return ""
			}
			return strconv.FormatInt(m.ID, 10)
		},
	})
}

// BunRepository reads and writes examples through go-repository-bun.
type BunRepository struct {
	db   *bun.DB
	repo repository.Repository[*exampleModel]
	now  func() time.Time
}

// NewBunRepository constructs a Bun-backed repository.
func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{
		db:   db,
		repo: NewExampleRepository(db),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// CreateTable creates the examples table when it is missing.
func (r *BunRepository) CreateTable(ctx context.Context) error {
	_, err := r.db.NewCreateTable().Model((*exampleModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

// GetByID returns the example or a NotFoundError.
func (r *BunRepository) GetByID(ctx context.Context, id int64) (*interfaces.ExampleRecord, error) {
	model, err := r.repo.GetByID(ctx, strconv.FormatInt(id, 10))
	if err != nil {
		return nil, mapRepositoryError(err, id)
	}
	return model.toRecord(), nil
}

// Save inserts a record with a zero or unknown ID and updates an existing one.
func (r *BunRepository) Save(ctx context.Context, record *interfaces.ExampleRecord) (*interfaces.ExampleRecord, error) {
	if record == nil {
		return nil, errors.New("examples: record is required")
	}

	model := modelFromRecord(record)
	model.UpdatedAt = r.now()

	exists := false
	if model.ID != 0 {
		if _, err := r.repo.GetByID(ctx, strconv.FormatInt(model.ID, 10)); err == nil {
			exists = true
		} else if mapped := mapRepositoryError(err, model.ID); !IsNotFound(mapped) {
			return nil, mapped
		}
	}

	if exists {
		if _, err := r.repo.Update(ctx, model,
			repository.UpdateByID(strconv.FormatInt(model.ID, 10)),
			repository.UpdateColumns("title", "language", "code", "description", "metadata", "updated_at"),
		); err != nil {
			return nil, fmt.Errorf("examples: update %d: %w", model.ID, err)
		}
	} else {
		created, err := r.repo.Create(ctx, model)
		if err != nil {
			return nil, fmt.Errorf("examples: create: %w", err)
		}
		model = created
	}
	return r.GetByID(ctx, model.ID)
}

// Delete removes a record.
func (r *BunRepository) Delete(ctx context.Context, id int64) error {
	model, err := r.repo.GetByID(ctx, strconv.FormatInt(id, 10))
	if err != nil {
		return mapRepositoryError(err, id)
	}
	if err := r.repo.Delete(ctx, model); err != nil {
		return fmt.Errorf("examples: delete %d: %w", id, err)
	}
	return nil
}

func mapRepositoryError(err error, id int64) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{ID: id}
	}
	return fmt.Errorf("examples repository error: %w", err)
}

type exampleModel struct {
	bun.BaseModel `bun:"table:examples,alias:ex"`

	ID          int64          `bun:"id,pk,autoincrement"`
	Title       string         `bun:"title,notnull"`
	Language    string         `bun:"language"`
	Code        string         `bun:"code,notnull"`
	Description string         `bun:"description"`
	Metadata    map[string]any `bun:"metadata,type:jsonb"`
	UpdatedAt   time.Time      `bun:"updated_at,nullzero,default:current_timestamp"`
}

func modelFromRecord(record *interfaces.ExampleRecord) *exampleModel {
	return &exampleModel{
		ID:          record.ID,
		Title:       record.Title,
		Language:    record.Language,
		Code:        record.Code,
		Description: record.Description,
		Metadata:    record.Metadata,
	}
}

func (m *exampleModel) toRecord() *interfaces.ExampleRecord {
	return &interfaces.ExampleRecord{
		ID:          m.ID,
		Title:       m.Title,
		Language:    m.Language,
		Code:        m.Code,
		Description: m.Description,
		Metadata:    m.Metadata,
	}
}
