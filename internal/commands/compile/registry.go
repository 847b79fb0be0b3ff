package compilecmd

import (
	"errors"

	"github.com/goliatone/go-postembed/internal/commands"
	"github.com/goliatone/go-postembed/pkg/interfaces"
)

// CommandRegistry is the registration contract used when wiring handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the handlers produced by RegisterCompileCommands.
type HandlerSet struct {
	Document *CompileDocumentHandler
	Source   *CompileSourceHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	sink        ResultSink
	documentOps []commands.HandlerOption[CompileDocumentCommand]
	sourceOps   []commands.HandlerOption[CompileSourceCommand]
}

// WithResultSink forwards every compiled document to sink.
func WithResultSink(sink ResultSink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithDocumentHandlerOptions forwards options to the CompileDocumentHandler constructor.
func WithDocumentHandlerOptions(opts ...commands.HandlerOption[CompileDocumentCommand]) Option {
	return func(o *options) {
		o.documentOps = append(o.documentOps, opts...)
	}
}

// WithSourceHandlerOptions forwards options to the CompileSourceHandler constructor.
func WithSourceHandlerOptions(opts ...commands.HandlerOption[CompileSourceCommand]) Option {
	return func(o *options) {
		o.sourceOps = append(o.sourceOps, opts...)
	}
}

// RegisterCompileCommands builds the compile handlers and registers them with
// reg when it is non-nil.
func RegisterCompileCommands(reg CommandRegistry, compiler interfaces.DocumentCompiler, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if compiler == nil {
		return nil, errors.New("compile command registration: compiler is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "compile")

	set := &HandlerSet{
		Document: NewCompileDocumentHandler(compiler, logger, cfg.sink, cfg.documentOps...),
		Source:   NewCompileSourceHandler(compiler, logger, cfg.sink, cfg.sourceOps...),
	}

	if reg != nil {
		if err := reg.RegisterCommand(set.Document); err != nil {
			return nil, err
		}
		if err := reg.RegisterCommand(set.Source); err != nil {
			return nil, err
		}
	}
	return set, nil
}
