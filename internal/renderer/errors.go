package renderer

import (
	"errors"
	"fmt"
)

// ErrorKind classifies render failures
type ErrorKind int

const (
	// KindInternal covers malformed input and layout faults. It is never
	// converted into a fallback image.
	KindInternal ErrorKind = iota
	// KindToolchainUnavailable means the layout engine could not run at all
	KindToolchainUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindToolchainUnavailable:
		return "toolchain_unavailable"
	default:
		return "internal"
	}
}

// RenderError is returned by every Engine and by Renderer.Render
type RenderError struct {
	Kind    ErrorKind
	Engine  string
	Message string
	Err     error
}

func (e *RenderError) Error() string {
	msg := fmt.Sprintf("render (%s, %s): %s", e.Engine, e.Kind, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// IsToolchainUnavailable reports whether err is a RenderError caused by a
// missing layout toolchain
func IsToolchainUnavailable(err error) bool {
	var re *RenderError
	return errors.As(err, &re) && re.Kind == KindToolchainUnavailable
}

func toolchainError(engine, msg string, err error) *RenderError {
	return &RenderError{Kind: KindToolchainUnavailable, Engine: engine, Message: msg, Err: err}
}

func internalError(engine, msg string, err error) *RenderError {
	return &RenderError{Kind: KindInternal, Engine: engine, Message: msg, Err: err}
}
