package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-postembed/pkg/interfaces"
)

const (
	rootModule      = "postembed"
	compilerModule  = "postembed.compiler"
	embedsModule    = "postembed.embeds"
	documentsModule = "postembed.documents"
	socialModule    = "postembed.social"
)

const (
	fieldSite = "site"
	fieldSlug = "slug"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// CompilerLogger returns the logger namespace reserved for the document compiler.
func CompilerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, compilerModule)
}

// EmbedsLogger returns the logger namespace reserved for directive resolvers.
func EmbedsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, embedsModule)
}

// DocumentsLogger returns the logger namespace reserved for document stores.
func DocumentsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, documentsModule)
}

// SocialLogger returns the logger namespace reserved for the social metadata client.
func SocialLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, socialModule)
}

// WithDocumentContext enriches the logger with the site and slug being compiled.
// Empty values are ignored.
func WithDocumentContext(logger interfaces.Logger, site, slug string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(site); trimmed != "" {
		fields[fieldSite] = trimmed
	}
	if trimmed := strings.TrimSpace(slug); trimmed != "" {
		fields[fieldSlug] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
