package renderer

import (
	"html"
	"strings"

	"github.com/ankek/archdiagram/internal/graph"
	"github.com/ankek/archdiagram/internal/registry"
)

// getNodeColor returns the fill color for a node based on its category
func getNodeColor(node *graph.Node) string {
	return categoryColor(node.Kind.Category)
}

func categoryColor(c registry.Category) string {
	switch c {
	case registry.CategoryNetwork:
		return "#1E88E5" // Blue
	case registry.CategorySecurity:
		return "#E53935" // Red
	case registry.CategoryCompute:
		return "#43A047" // Green
	case registry.CategoryLoadBalancer:
		return "#FB8C00" // Orange
	case registry.CategoryStorage:
		return "#8E24AA" // Purple
	case registry.CategoryDatabase:
		return "#00ACC1" // Cyan
	case registry.CategoryDNS:
		return "#F9A825" // Dark Yellow
	case registry.CategoryCertificate:
		return "#7CB342" // Light Green
	case registry.CategorySecret:
		return "#5E35B1" // Deep Purple
	case registry.CategoryContainer:
		return "#039BE5" // Light Blue
	case registry.CategoryCDN:
		return "#F4511E" // Deep Orange
	case registry.CategoryIdentity:
		return "#3949AB" // Indigo
	case registry.CategoryMessaging:
		return "#6D4C41" // Brown
	case registry.CategoryAnalytics:
		return "#C0CA33" // Lime
	case registry.CategoryAI:
		return "#D81B60" // Pink
	case registry.CategoryWeb:
		return "#0078D4" // Azure Blue
	default:
		return "#757575" // Gray
	}
}

// truncate truncates a string to a maximum number of runes
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// EscapeXML escapes s for SVG text and attribute values. Invalid UTF-8 is
// replaced with U+FFFD and characters XML 1.0 does not allow are dropped.
func EscapeXML(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	s = strings.Map(func(r rune) rune {
		if isXMLChar(r) {
			return r
		}
		return -1
	}, s)
	return html.EscapeString(s)
}

func isXMLChar(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}
