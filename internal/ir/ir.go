// Package ir defines the architecture intermediate representation: the
// resource/relationship/cluster graph that translation produces and the
// renderers consume. An IR is built once per request and never mutated
// after Parse returns it.
package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultLabel        = "Azure Architecture"
	DefaultResourceName = "Resource"
	DefaultClusterName  = "Cluster"
)

// ArchitectureIR is the translated architecture
type ArchitectureIR struct {
	Label         string         `json:"diagram_label" yaml:"diagram_label"`
	Resources     []Resource     `json:"resources" yaml:"resources"`
	Relationships []Relationship `json:"relationships" yaml:"relationships"`
	Clusters      []Cluster      `json:"clusters" yaml:"clusters"`
}

// Resource is a single architecture component. Name is its identity within
// the diagram; relationships and clusters refer to it by name.
type Resource struct {
	Name       string     `json:"name" yaml:"name"`
	Type       string     `json:"type" yaml:"type"`
	Attributes Attributes `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Relationship is a directed connection between two resources
type Relationship struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Kind   string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Cluster is a named visual grouping of resources
type Cluster struct {
	Name    string   `json:"name" yaml:"name"`
	Members []string `json:"resources" yaml:"resources"`
}

// UnmarshalJSON decodes the wire form leniently. The document must be an
// object; a list field of the wrong shape decodes as empty and a
// non-string label is stringified.
func (a *ArchitectureIR) UnmarshalJSON(data []byte) error {
	var raw struct {
		Label         json.RawMessage `json:"diagram_label"`
		Resources     json.RawMessage `json:"resources"`
		Relationships json.RawMessage `json:"relationships"`
		Clusters      json.RawMessage `json:"clusters"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = ArchitectureIR{Label: stringifyJSON(raw.Label)}
	decodeList(raw.Resources, &a.Resources)
	decodeList(raw.Relationships, &a.Relationships)
	decodeList(raw.Clusters, &a.Clusters)
	return nil
}

func decodeList[T any](data json.RawMessage, dst *[]T) {
	if len(data) == 0 {
		return
	}
	if err := json.Unmarshal(data, dst); err != nil {
		*dst = nil
	}
}

// Attributes are informational key/value pairs (region, sku, tier...).
// Language models emit numbers and booleans here as often as strings, so
// decoding stringifies any scalar and keeps nested values as compact JSON.
// A value that is not an object at all is dropped.
type Attributes map[string]string

func (a *Attributes) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		*a = nil
		return nil
	}

	out := make(Attributes, len(raw))
	for k, v := range raw {
		out[k] = stringifyJSON(v)
	}
	*a = out
	return nil
}

// UnmarshalJSON accepts any scalar for name and type. A bare string or
// number in place of the object is taken as the resource name.
func (r *Resource) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name       json.RawMessage `json:"name"`
		Type       json.RawMessage `json:"type"`
		Attributes Attributes      `json:"attributes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		*r = Resource{Name: stringifyJSON(data)}
		return nil
	}
	*r = Resource{
		Name:       stringifyJSON(raw.Name),
		Type:       stringifyJSON(raw.Type),
		Attributes: raw.Attributes,
	}
	return nil
}

// UnmarshalJSON accepts any scalar for source, target and type
func (rel *Relationship) UnmarshalJSON(data []byte) error {
	var raw struct {
		Source json.RawMessage `json:"source"`
		Target json.RawMessage `json:"target"`
		Kind   json.RawMessage `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		*rel = Relationship{}
		return nil
	}
	*rel = Relationship{
		Source: stringifyJSON(raw.Source),
		Target: stringifyJSON(raw.Target),
		Kind:   stringifyJSON(raw.Kind),
	}
	return nil
}

// UnmarshalJSON accepts a bare string for resources as a one-element list
// and stringifies non-string members. Null members are skipped.
func (c *Cluster) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name    json.RawMessage `json:"name"`
		Members json.RawMessage `json:"resources"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		*c = Cluster{}
		return nil
	}
	*c = Cluster{Name: stringifyJSON(raw.Name), Members: members(raw.Members)}
	return nil
}

func members(data json.RawMessage) []string {
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err != nil {
		if m := stringifyJSON(data); m != "" {
			return []string{m}
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if m := stringifyJSON(v); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func stringifyJSON(v json.RawMessage) string {
	trimmed := bytes.TrimSpace(v)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return string(trimmed)
	}
	return compact.String()
}

// Parse decodes an IR from its JSON wire form and fills defaulted fields
func Parse(data []byte) (*ArchitectureIR, error) {
	var a ArchitectureIR
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	a.normalize()
	return &a, nil
}

func (a *ArchitectureIR) normalize() {
	a.Label = strings.TrimSpace(a.Label)
	for i := range a.Resources {
		if strings.TrimSpace(a.Resources[i].Name) == "" {
			a.Resources[i].Name = DefaultResourceName
		}
	}
	for i := range a.Clusters {
		if strings.TrimSpace(a.Clusters[i].Name) == "" {
			a.Clusters[i].Name = DefaultClusterName
		}
	}
}

// Title returns the diagram label, or DefaultLabel when the model left it empty
func (a *ArchitectureIR) Title() string {
	if a.Label == "" {
		return DefaultLabel
	}
	return a.Label
}

// Summary describes the architecture in prose, one sentence per resource
// and relationship, for images that cannot draw the graph itself
func (a *ArchitectureIR) Summary() string {
	var b strings.Builder
	b.WriteString(a.Title())
	b.WriteString(".")
	for _, r := range a.Resources {
		fmt.Fprintf(&b, " %s is a %s.", r.Name, r.Type)
	}
	for _, rel := range a.Relationships {
		fmt.Fprintf(&b, " %s connects to %s.", rel.Source, rel.Target)
	}
	return b.String()
}

// ClusterAssignments maps each resource name to the cluster it is drawn in.
// A resource listed by several clusters ends up in the last one declared.
func (a *ArchitectureIR) ClusterAssignments() map[string]string {
	out := make(map[string]string)
	for _, c := range a.Clusters {
		for _, member := range c.Members {
			out[member] = c.Name
		}
	}
	return out
}

// ResourceNames returns the set of declared resource names
func (a *ArchitectureIR) ResourceNames() map[string]bool {
	names := make(map[string]bool, len(a.Resources))
	for _, r := range a.Resources {
		names[r.Name] = true
	}
	return names
}

// EncodeJSON writes the IR in its wire form
func EncodeJSON(a *ArchitectureIR) ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// EncodeYAML writes the IR as YAML, using the same field names as the wire form
func EncodeYAML(a *ArchitectureIR) ([]byte, error) {
	return yaml.Marshal(a)
}
