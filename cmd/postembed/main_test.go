package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-postembed"
)

func decode(t *testing.T, out *bytes.Buffer) postembed.CompiledDocument {
	t.Helper()
	var doc postembed.CompiledDocument
	if err := json.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	return doc
}

func TestRunCompilesFile(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"-file", "testdata/post.md"}, &out); err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	doc := decode(t, &out)
	if doc.Slug != "post" {
		t.Fatalf("expected slug derived from file name, got %q", doc.Slug)
	}
	if doc.FrontMatter.Title != "CLI Post" {
		t.Fatalf("unexpected title %q", doc.FrontMatter.Title)
	}
	if !strings.Contains(doc.Body, `<Link href="/index">index</Link>`) {
		t.Fatalf("expected link rewrite, got %s", doc.Body)
	}
	if !strings.Contains(doc.Body, "<Media") {
		t.Fatalf("expected media rewrite, got %s", doc.Body)
	}
}

func TestRunCompilesStoredPost(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{
		"-content-dir", "../../internal/documents/testdata/content",
		"-site", "blog",
		"-slug", "hello-world",
		"-pretty",
	}, &out)
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	doc := decode(t, &out)
	if doc.Site != "blog" || doc.Slug != "hello-world" {
		t.Fatalf("unexpected key %s/%s", doc.Site, doc.Slug)
	}
}

func TestRunRejectsDraftWithoutFlag(t *testing.T) {
	args := []string{
		"-content-dir", "../../internal/documents/testdata/content",
		"-site", "blog",
		"-slug", "second-post",
	}

	var out bytes.Buffer
	if err := run(args, &out); err == nil {
		t.Fatal("expected draft post to be rejected")
	}

	out.Reset()
	if err := run(append(args, "-include-drafts"), &out); err != nil {
		t.Fatalf("expected draft compile with -include-drafts, got %v", err)
	}
}

func TestRunRequiresTarget(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"-site", "blog"}, &out); err == nil {
		t.Fatal("expected error without slug or file")
	}
}

func TestRunPropagatesBootstrapError(t *testing.T) {
	original := moduleBuilder
	defer func() { moduleBuilder = original }()

	bootErr := errors.New("boom")
	moduleBuilder = func(postembed.Config, ...postembed.Option) (*postembed.Module, error) {
		return nil, bootErr
	}

	var out bytes.Buffer
	if err := run([]string{"-file", "testdata/post.md"}, &out); !errors.Is(err, bootErr) {
		t.Fatalf("expected bootstrap error, got %v", err)
	}
}
