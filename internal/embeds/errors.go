package embeds

import (
	"errors"
	"fmt"
)

// ErrMalformedDirective is matched by every DirectiveError.
var ErrMalformedDirective = errors.New("embeds: malformed directive")

// DirectiveError reports a directive whose pattern matched but whose
// arguments could not be extracted or parsed.
type DirectiveError struct {
	Directive string
	Match     string
	Reason    string
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("embeds: malformed %s directive %q: %s", e.Directive, e.Match, e.Reason)
}

func (e *DirectiveError) Unwrap() error {
	return ErrMalformedDirective
}

// IsMalformedDirective reports whether err originates from a malformed directive.
func IsMalformedDirective(err error) bool {
	return errors.Is(err, ErrMalformedDirective)
}

func malformed(directive, match, reason string) error {
	return &DirectiveError{Directive: directive, Match: match, Reason: reason}
}
