package validation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-postembed/pkg/interfaces"
)

func frontMatter(raw map[string]any) interfaces.FrontMatter {
	return interfaces.FrontMatter{Raw: raw}
}

func TestNewFrontMatterSchema_Empty(t *testing.T) {
	schema, err := NewFrontMatterSchema(nil)
	if err != nil {
		t.Fatalf("NewFrontMatterSchema() error = %v", err)
	}
	if schema != nil {
		t.Fatalf("expected nil schema for empty definition")
	}
	if err := schema.Validate(frontMatter(map[string]any{"anything": 1})); err != nil {
		t.Fatalf("nil schema should accept everything, got %v", err)
	}
}

func TestFrontMatterSchema_FieldList(t *testing.T) {
	schema, err := NewFrontMatterSchema(map[string]any{
		"fields": []any{
			map[string]any{"name": "title", "type": "string", "required": true},
			map[string]any{"name": "tags", "type": "array"},
			"summary",
		},
	})
	if err != nil {
		t.Fatalf("NewFrontMatterSchema() error = %v", err)
	}

	cases := []struct {
		name    string
		raw     map[string]any
		wantErr bool
	}{
		{name: "valid", raw: map[string]any{"title": "Hello", "tags": []string{"go"}, "date": time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}},
		{name: "missing title", raw: map[string]any{"tags": []string{"go"}}, wantErr: true},
		{name: "wrong type", raw: map[string]any{"title": 42}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := schema.Validate(frontMatter(tc.raw))
			if tc.wantErr {
				if !errors.Is(err, ErrSchemaValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				if len(Issues(err)) == 0 {
					t.Fatalf("expected issues to be reported")
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
		})
	}
}

func TestFrontMatterSchema_JSONSchema(t *testing.T) {
	schema, err := NewFrontMatterSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"draft": map[string]any{"type": "boolean"},
			"order": map[string]any{"type": "integer", "minimum": 1},
		},
	})
	if err != nil {
		t.Fatalf("NewFrontMatterSchema() error = %v", err)
	}
	if err := schema.Validate(frontMatter(map[string]any{"draft": false, "order": 3})); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	err = schema.Validate(frontMatter(map[string]any{"order": 0}))
	issues := Issues(err)
	if len(issues) != 1 || !strings.Contains(issues[0].Location, "order") {
		t.Fatalf("expected one issue at /order, got %+v", issues)
	}
	if !strings.Contains(err.Error(), "#/order") {
		t.Fatalf("expected location in message, got %q", err.Error())
	}
}

func TestNewFrontMatterSchema_Invalid(t *testing.T) {
	_, err := NewFrontMatterSchema(map[string]any{"type": 12})
	if !errors.Is(err, ErrSchemaInvalid) {
		t.Fatalf("expected ErrSchemaInvalid, got %v", err)
	}
}

func TestLoadFrontMatterSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frontmatter.json")
	if err := os.WriteFile(path, []byte(`{"type":"object","required":["title"]}`), 0o600); err != nil {
		t.Fatalf("write schema: %v", err)
	}

	schema, err := LoadFrontMatterSchema(path)
	if err != nil {
		t.Fatalf("LoadFrontMatterSchema() error = %v", err)
	}
	if err := schema.Validate(frontMatter(map[string]any{})); err == nil {
		t.Fatalf("expected required title to be enforced")
	}

	if _, err := LoadFrontMatterSchema(filepath.Join(dir, "missing.json")); !errors.Is(err, ErrSchemaInvalid) {
		t.Fatalf("expected ErrSchemaInvalid for missing file, got %v", err)
	}
	if schema, err := LoadFrontMatterSchema(""); schema != nil || err != nil {
		t.Fatalf("expected nil schema for empty path")
	}
}
