package compilecmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	compileDocumentMessageType = "postembed.compile_document"
	compileSourceMessageType   = "postembed.compile_source"
)

// CompileDocumentCommand compiles the stored post identified by Site and Slug.
type CompileDocumentCommand struct {
	Site string `json:"site"`
	Slug string `json:"slug"`
}

// Type implements command.Message.
func (CompileDocumentCommand) Type() string { return compileDocumentMessageType }

// Validate ensures the document key is present.
func (cmd CompileDocumentCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Site, validation.Required, validation.By(notBlank("postembed.compile_document.site_required", "site is required"))),
		validation.Field(&cmd.Slug, validation.Required, validation.By(notBlank("postembed.compile_document.slug_required", "slug is required"))),
	)
}

// CompileSourceCommand compiles raw markdown supplied by the caller. Site and
// Slug only label the result.
type CompileSourceCommand struct {
	Site   string `json:"site,omitempty"`
	Slug   string `json:"slug,omitempty"`
	Source []byte `json:"source"`
}

// Type implements command.Message.
func (CompileSourceCommand) Type() string { return compileSourceMessageType }

// Validate ensures there is something to compile.
func (cmd CompileSourceCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Source, validation.Required.Error("source is required")),
	)
}

func notBlank(code, message string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return validation.NewError(code, message)
		}
		return nil
	}
}
