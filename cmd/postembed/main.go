package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-postembed"
	compilecmd "github.com/goliatone/go-postembed/internal/commands/compile"
)

var moduleBuilder = postembed.New

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("postembed: %v", err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("postembed", flag.ContinueOnError)
	filePath := fs.String("file", "", "Markdown file to compile directly")
	contentDir := fs.String("content-dir", "content", "Content root holding <site>/<slug>.md posts")
	site := fs.String("site", "", "Site segment of the post to compile")
	slug := fs.String("slug", "", "Slug of the post to compile")
	dsn := fs.String("dsn", "", "Database DSN; when set posts and examples are read through bun")
	dialect := fs.String("dialect", postembed.DialectSQLite, "Database dialect (sqlite or postgres)")
	migrate := fs.Bool("migrate", false, "Create the posts and examples tables before compiling")
	socialEndpoint := fs.String("social-endpoint", "", "Metadata endpoint template containing {id}")
	socialToken := fs.String("social-token", os.Getenv("POSTEMBED_SOCIAL_TOKEN"), "Bearer token for the metadata endpoint")
	schemaPath := fs.String("schema", "", "Frontmatter JSON schema file")
	includeDrafts := fs.Bool("include-drafts", false, "Compile posts marked draft")
	maxConcurrency := fs.Int("max-concurrency", 8, "Concurrent directive lookups per pass (<= 0 is unbounded)")
	timeout := fs.Duration("timeout", 30*time.Second, "Compile timeout")
	logLevel := fs.String("log-level", "", "Enable logging at the given level")
	logFormat := fs.String("log-format", "console", "Log format (console, json, pretty)")
	pretty := fs.Bool("pretty", false, "Indent JSON output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *filePath == "" && (*site == "" || *slug == "") {
		return errors.New("either --file or both --site and --slug are required")
	}

	cfg := postembed.DefaultConfig()
	cfg.Compiler.MaxConcurrency = *maxConcurrency
	cfg.Compiler.IncludeDrafts = *includeDrafts
	cfg.Compiler.FrontMatterSchemaPath = *schemaPath
	cfg.Compiler.Timeout = *timeout

	switch {
	case *dsn != "":
		cfg.Storage.Provider = postembed.StorageBun
		cfg.Storage.Dialect = *dialect
		cfg.Storage.DSN = *dsn
		cfg.Storage.AutoMigrate = *migrate
	case *filePath == "":
		cfg.Storage.Provider = postembed.StorageFS
		cfg.Storage.ContentDir = *contentDir
	}

	if *socialEndpoint != "" {
		cfg.Social.Provider = postembed.SocialHTTP
		cfg.Social.Endpoint = *socialEndpoint
		cfg.Social.Token = *socialToken
	}

	if level := strings.TrimSpace(*logLevel); level != "" {
		cfg.Features.Logger = true
		cfg.Logging.Level = level
		cfg.Logging.Format = *logFormat
	}

	module, err := moduleBuilder(cfg)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Close()

	encoder := json.NewEncoder(stdout)
	encoder.SetEscapeHTML(false)
	if *pretty {
		encoder.SetIndent("", "  ")
	}

	handlers, err := module.RegisterCommands(nil,
		compilecmd.WithResultSink(func(_ context.Context, doc *postembed.CompiledDocument) error {
			return encoder.Encode(doc)
		}),
	)
	if err != nil {
		return fmt.Errorf("register commands: %w", err)
	}

	ctx := context.Background()

	if *filePath != "" {
		source, err := os.ReadFile(*filePath)
		if err != nil {
			return fmt.Errorf("read %s: %w", *filePath, err)
		}
		label := *slug
		if label == "" {
			label = strings.TrimSuffix(filepath.Base(*filePath), filepath.Ext(*filePath))
		}
		return handlers.Source.Execute(ctx, compilecmd.CompileSourceCommand{
			Site:   *site,
			Slug:   label,
			Source: source,
		})
	}

	return handlers.Document.Execute(ctx, compilecmd.CompileDocumentCommand{
		Site: *site,
		Slug: *slug,
	})
}
