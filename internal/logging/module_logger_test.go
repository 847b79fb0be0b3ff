package logging

import (
	"context"
	"testing"

	"github.com/goliatone/go-postembed/pkg/interfaces"
)

type recordingLogger struct {
	fields []map[string]any
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	r.fields = append(r.fields, copied)
	return r
}

func (r *recordingLogger) WithContext(context.Context) interfaces.Logger {
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, compilerModule)
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	logger.WithContext(context.Background()).Debug("noop")
}

func TestModuleLoggerAnnotatesModule(t *testing.T) {
	tests := []struct {
		name   string
		build  func(interfaces.LoggerProvider) interfaces.Logger
		module string
	}{
		{"root", func(p interfaces.LoggerProvider) interfaces.Logger { return ModuleLogger(p, "") }, rootModule},
		{"compiler", CompilerLogger, compilerModule},
		{"embeds", EmbedsLogger, embedsModule},
		{"documents", DocumentsLogger, documentsModule},
		{"social", SocialLogger, socialModule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingLogger{}
			provider := &stubProvider{logger: rec}

			tt.build(provider)

			if len(provider.requested) != 1 || provider.requested[0] != tt.module {
				t.Fatalf("expected module %s, got %v", tt.module, provider.requested)
			}
			if len(rec.fields) != 1 || rec.fields[0]["module"] != tt.module {
				t.Fatalf("expected module field %s, got %#v", tt.module, rec.fields)
			}
		})
	}
}

func TestWithDocumentContextSkipsEmptyValues(t *testing.T) {
	rec := &recordingLogger{}

	WithDocumentContext(rec, " acme ", "")

	if len(rec.fields) != 1 {
		t.Fatalf("expected one WithFields call, got %d", len(rec.fields))
	}
	if rec.fields[0][fieldSite] != "acme" {
		t.Fatalf("expected trimmed site, got %#v", rec.fields[0])
	}
	if _, ok := rec.fields[0][fieldSlug]; ok {
		t.Fatalf("expected empty slug to be skipped, got %#v", rec.fields[0])
	}
}

func TestWithFieldsIgnoresEmptyMap(t *testing.T) {
	rec := &recordingLogger{}
	if got := WithFields(rec, nil); got != rec {
		t.Fatalf("expected same logger back")
	}
	if len(rec.fields) != 0 {
		t.Fatalf("expected no WithFields calls, got %d", len(rec.fields))
	}
}
