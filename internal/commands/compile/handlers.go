package compilecmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-postembed/internal/commands"
	"github.com/goliatone/go-postembed/internal/logging"
	"github.com/goliatone/go-postembed/internal/markdown"
	"github.com/goliatone/go-postembed/pkg/interfaces"
)

const (
	compileDocumentOperation = "compile.document"
	compileSourceOperation   = "compile.source"
)

// ErrResultSinkFailed wraps failures reported by a ResultSink.
var ErrResultSinkFailed = errors.New("compile command: result sink failed")

// ResultSink receives every compiled document produced by a handler.
type ResultSink func(ctx context.Context, doc *interfaces.CompiledDocument) error

var (
	_ command.Commander[CompileDocumentCommand] = (*CompileDocumentHandler)(nil)
	_ command.Commander[CompileSourceCommand]   = (*CompileSourceHandler)(nil)
)

// CompileDocumentHandler compiles stored posts by key.
type CompileDocumentHandler struct {
	inner *commands.Handler[CompileDocumentCommand]
}

// NewCompileDocumentHandler binds a handler to compiler. sink may be nil.
func NewCompileDocumentHandler(compiler interfaces.DocumentCompiler, logger interfaces.Logger, sink ResultSink, opts ...commands.HandlerOption[CompileDocumentCommand]) *CompileDocumentHandler {
	baseLogger := ensureLogger(logger)

	exec := func(ctx context.Context, msg CompileDocumentCommand) error {
		doc, err := compiler.CompileBySlug(ctx, msg.Site, msg.Slug)
		if err != nil {
			return err
		}
		logCompiled(baseLogger, doc)
		return deliver(ctx, sink, doc)
	}

	handlerOpts := []commands.HandlerOption[CompileDocumentCommand]{
		commands.WithLogger[CompileDocumentCommand](baseLogger),
		commands.WithOperation[CompileDocumentCommand](compileDocumentOperation),
		commands.WithMessageFields(func(msg CompileDocumentCommand) map[string]any {
			return map[string]any{"site": msg.Site, "slug": msg.Slug}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[CompileDocumentCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CompileDocumentHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CompileDocumentCommand].
func (h *CompileDocumentHandler) Execute(ctx context.Context, msg CompileDocumentCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CompileSourceHandler compiles caller-supplied markdown.
type CompileSourceHandler struct {
	inner *commands.Handler[CompileSourceCommand]
}

// NewCompileSourceHandler binds a handler to compiler. sink may be nil.
func NewCompileSourceHandler(compiler interfaces.DocumentCompiler, logger interfaces.Logger, sink ResultSink, opts ...commands.HandlerOption[CompileSourceCommand]) *CompileSourceHandler {
	baseLogger := ensureLogger(logger)

	exec := func(ctx context.Context, msg CompileSourceCommand) error {
		raw, err := markdown.SplitFrontMatter(msg.Source)
		if err != nil {
			return err
		}
		raw.Site = msg.Site
		raw.Slug = msg.Slug
		doc, err := compiler.CompileDocument(ctx, raw)
		if err != nil {
			return err
		}
		logCompiled(baseLogger, doc)
		return deliver(ctx, sink, doc)
	}

	handlerOpts := []commands.HandlerOption[CompileSourceCommand]{
		commands.WithLogger[CompileSourceCommand](baseLogger),
		commands.WithOperation[CompileSourceCommand](compileSourceOperation),
		commands.WithMessageFields(func(msg CompileSourceCommand) map[string]any {
			fields := map[string]any{"source_bytes": len(msg.Source)}
			if msg.Slug != "" {
				fields["slug"] = msg.Slug
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[CompileSourceCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CompileSourceHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CompileSourceCommand].
func (h *CompileSourceHandler) Execute(ctx context.Context, msg CompileSourceCommand) error {
	return h.inner.Execute(ctx, msg)
}

func deliver(ctx context.Context, sink ResultSink, doc *interfaces.CompiledDocument) error {
	if sink == nil {
		return nil
	}
	if err := sink(ctx, doc); err != nil {
		return errors.Join(ErrResultSinkFailed, err)
	}
	return nil
}

func logCompiled(logger interfaces.Logger, doc *interfaces.CompiledDocument) {
	if doc == nil {
		return
	}
	logging.WithFields(logger, map[string]any{
		"components": len(doc.Components),
		"body_bytes": len(doc.Body),
	}).Debug("compile.command.completed")
}

func ensureLogger(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}
