package renderer

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Cluster container styling shared by the SVG and PNG writers
const (
	clusterStroke = "#90A4AE"
	clusterFill   = "#F5F8FA"
	edgeColor     = "#555555"
	textColor     = "#333333"
)

// lightenColor lightens a hex color by a percentage
func lightenColor(hexColor string, percent int) string {
	r, g, b := hexToRGB(hexColor)

	factor := float64(percent) / 100.0
	r = clampByte(float64(r) + (255-float64(r))*factor)
	g = clampByte(float64(g) + (255-float64(g))*factor)
	b = clampByte(float64(b) + (255-float64(b))*factor)

	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// darkenColor darkens a hex color by a percentage
func darkenColor(hexColor string, percent int) string {
	r, g, b := hexToRGB(hexColor)

	factor := 1.0 - (float64(percent) / 100.0)
	r = clampByte(float64(r) * factor)
	g = clampByte(float64(g) * factor)
	b = clampByte(float64(b) * factor)

	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// parseColor parses a hex color string into an opaque RGBA color
func parseColor(hexColor string) color.RGBA {
	r, g, b := hexToRGB(hexColor)
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}
}

func hexToRGB(hexColor string) (int64, int64, int64) {
	hexColor = strings.TrimPrefix(hexColor, "#")
	if len(hexColor) != 6 {
		return 0, 0, 0
	}
	r, _ := strconv.ParseInt(hexColor[0:2], 16, 64)
	g, _ := strconv.ParseInt(hexColor[2:4], 16, 64)
	b, _ := strconv.ParseInt(hexColor[4:6], 16, 64)
	return r, g, b
}

func clampByte(v float64) int64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return int64(v)
}
