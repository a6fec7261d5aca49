package ir

import (
	"fmt"
	"strings"
)

// Format is an output image format
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat accepts "png" or "svg" (case-insensitive). Anything else is an
// error; callers must not fall back to a default on bad input.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	}
	return "", fmt.Errorf("unsupported output format %q (want png or svg)", s)
}

// MIMEType returns the content type for the format
func (f Format) MIMEType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Direction is the layout flow of a diagram
type Direction string

const (
	DirectionTB Direction = "TB" // top to bottom
	DirectionLR Direction = "LR" // left to right
)

// ParseDirection accepts "TB" or "LR" (case-insensitive)
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToUpper(strings.TrimSpace(s))) {
	case DirectionTB:
		return DirectionTB, nil
	case DirectionLR:
		return DirectionLR, nil
	}
	return "", fmt.Errorf("unsupported layout direction %q (want TB or LR)", s)
}

// RenderRequest is the single input of the pipeline
type RenderRequest struct {
	Description string
	Format      string
	Direction   string
}
