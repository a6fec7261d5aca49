package translator

import (
	"errors"
	"strings"

	"github.com/ankek/archdiagram/internal/ir"
)

const systemPrompt = "You are an AI assistant that extracts Azure architecture information from text descriptions and converts it to structured JSON."

const promptTemplate = `Analyze the following Azure architecture description and convert it into a structured JSON format.
Follow these guidelines:

1. Identify Azure services, their names, and relevant attributes
2. Recognize relationships between these services
3. Understand grouping or clustering (e.g., resources within a resource group or subnet)
4. Output the extracted information in the following structured JSON format:

{
  "diagram_label": "...",
  "resources": [
    {
      "name": "...",
      "type": "Azure.[ResourceType]",
      "attributes": {
        "location": "...",
        "sku": "..."
      }
    }
  ],
  "relationships": [
    {
      "source": "...",
      "target": "...",
      "type": "..."
    }
  ],
  "clusters": [
    {
      "name": "...",
      "resources": ["...", "..."]
    }
  ]
}

Only include resources, relationships, and clusters that are explicitly mentioned or can be directly inferred from the description.
Use only valid Azure resource types prefixed with "Azure." for the "type" field.
Make sure all resource names used in relationships and clusters match exactly with the resource names defined.

Architecture Description:
`

// BuildPrompt returns the user message for a description
func BuildPrompt(description string) string {
	return promptTemplate + description
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

var errNoJSONObject = errors.New("no JSON object found in model output")

// ParseContent decodes model output into an IR. The whole text is tried
// first; failing that, the span from the first '{' to the last '}' is
// decoded, which recovers JSON wrapped in prose or markdown fences.
func ParseContent(content string) (*ir.ArchitectureIR, error) {
	a, err := ir.Parse([]byte(content))
	if err == nil {
		return a, nil
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, errNoJSONObject
	}

	return ir.Parse([]byte(content[start : end+1]))
}
