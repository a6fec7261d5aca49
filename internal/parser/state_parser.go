package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// TerraformState is the subset of a terraform.tfstate file, or of
// `terraform show -json` output, that diagrams need
type TerraformState struct {
	Version          int             `json:"version"`
	TerraformVersion string          `json:"terraform_version"`
	Resources        []StateResource `json:"resources"`
	Values           *StateValues    `json:"values,omitempty"`
}

// StateValues is the values section of `terraform show -json`
type StateValues struct {
	RootModule *StateModule `json:"root_module,omitempty"`
}

// StateModule is a module in `terraform show -json` output
type StateModule struct {
	Resources    []ShowResource `json:"resources,omitempty"`
	ChildModules []StateModule  `json:"child_modules,omitempty"`
}

// ShowResource is a resource in `terraform show -json` output, one per
// instance
type ShowResource struct {
	Address      string                 `json:"address"`
	Mode         string                 `json:"mode"`
	Type         string                 `json:"type"`
	Name         string                 `json:"name"`
	Values       map[string]interface{} `json:"values"`
	Dependencies []string               `json:"depends_on,omitempty"`
}

// StateResource is a resource in a raw state file
type StateResource struct {
	Mode      string                  `json:"mode"`
	Type      string                  `json:"type"`
	Name      string                  `json:"name"`
	Provider  string                  `json:"provider"`
	Instances []StateResourceInstance `json:"instances"`
}

// StateResourceInstance is one instance of a state resource
type StateResourceInstance struct {
	IndexKey     interface{}            `json:"index_key,omitempty"`
	Attributes   map[string]interface{} `json:"attributes"`
	Dependencies []string               `json:"dependencies,omitempty"`
}

// ParseStateFile reads a state file or `terraform show -json` output and
// returns its managed resources
func ParseStateFile(ctx context.Context, path string) ([]Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	return ParseState(data)
}

// ParseState decodes state JSON
func ParseState(data []byte) ([]Resource, error) {
	var state TerraformState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	if state.Values != nil && state.Values.RootModule != nil {
		return showResources(state.Values.RootModule), nil
	}

	var resources []Resource
	for _, stateRes := range state.Resources {
		if stateRes.Mode != "managed" {
			continue
		}

		for idx, instance := range stateRes.Instances {
			// Single instances use the address dependency lists refer to
			resourceID := fmt.Sprintf("%s.%s", stateRes.Type, stateRes.Name)
			if len(stateRes.Instances) > 1 {
				resourceID = fmt.Sprintf("%s.%s[%s]", stateRes.Type, stateRes.Name, indexKey(instance.IndexKey, idx))
			}

			resources = append(resources, stateResource(stateRes.Type, stateRes.Name, resourceID, instance.Attributes, instance.Dependencies))
		}
	}

	return resources, nil
}

func showResources(m *StateModule) []Resource {
	var resources []Resource
	for _, r := range m.Resources {
		if r.Mode != "managed" {
			continue
		}
		id := r.Address
		if id == "" {
			id = r.Type + "." + r.Name
		}
		resources = append(resources, stateResource(r.Type, r.Name, id, r.Values, r.Dependencies))
	}
	for i := range m.ChildModules {
		resources = append(resources, showResources(&m.ChildModules[i])...)
	}
	return resources
}

func stateResource(typ, name, id string, attrs map[string]interface{}, deps []string) Resource {
	if attrs == nil {
		attrs = map[string]interface{}{}
	}
	group, _ := GetStringAttribute(attrs, "resource_group_name")
	return Resource{
		Type:         typ,
		Name:         name,
		Provider:     extractProvider(typ),
		Attributes:   attrs,
		ID:           id,
		Dependencies: deps,
		Group:        group,
	}
}

func indexKey(key interface{}, idx int) string {
	switch k := key.(type) {
	case string:
		return fmt.Sprintf("%q", k)
	case float64:
		return fmt.Sprintf("%d", int(k))
	}
	return fmt.Sprintf("%d", idx)
}
