package examples

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-postembed/pkg/interfaces"
)

// ErrExampleNotFound is matched by every NotFoundError returned from this package.
var ErrExampleNotFound = errors.New("examples: example not found")

// NotFoundError reports a missing example record.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("example %d not found", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrExampleNotFound
}

// IsNotFound reports whether err signals an absent example.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrExampleNotFound)
}

// Repository persists code example records.
type Repository interface {
	interfaces.ExampleStore
	Save(ctx context.Context, record *interfaces.ExampleRecord) (*interfaces.ExampleRecord, error)
	Delete(ctx context.Context, id int64) error
}

func cloneRecord(record *interfaces.ExampleRecord) *interfaces.ExampleRecord {
	if record == nil {
		return nil
	}
	cloned := *record
	if record.Metadata != nil {
		cloned.Metadata = make(map[string]any, len(record.Metadata))
		for k, v := range record.Metadata {
			cloned.Metadata[k] = v
		}
	}
	return &cloned
}
