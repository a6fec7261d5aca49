package translator

import (
	"fmt"
	"strings"
)

const maxSnippet = 500

// TranslationError is returned for every failed language model call:
// network errors, timeouts, non-2xx responses and unparseable output.
// It is never retried by the pipeline.
type TranslationError struct {
	StatusCode int    // upstream HTTP status, 0 when no response was received
	Message    string // what went wrong
	Snippet    string // leading part of the upstream body or model output
	Err        error
}

func (e *TranslationError) Error() string {
	var b strings.Builder
	b.WriteString("translate: ")
	b.WriteString(e.Message)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Snippet != "" {
		fmt.Fprintf(&b, ": %q", e.Snippet)
	}
	return b.String()
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= maxSnippet {
		return s
	}
	return string(r[:maxSnippet]) + "..."
}
