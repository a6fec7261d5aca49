package registry

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// kindsFile is the HCL layout of a registry extension file:
//
//	node_kind "Azure.StaticWebApp" {
//	  label    = "Static Web App"
//	  category = "web"
//	}
type kindsFile struct {
	Kinds []kindBlock `hcl:"node_kind,block"`
}

type kindBlock struct {
	TypeID   string `hcl:"type,label"`
	Label    string `hcl:"label,optional"`
	Category string `hcl:"category"`
}

// LoadFile extends base with the node kinds declared in an HCL file. Entries
// in the file override base entries with the same TypeID.
func LoadFile(path string, base *Registry) (*Registry, error) {
	var f kindsFile
	if err := hclsimple.DecodeFile(path, nil, &f); err != nil {
		return nil, fmt.Errorf("failed to decode registry file %s: %w", path, err)
	}

	extra := make([]NodeKind, 0, len(f.Kinds))
	for _, b := range f.Kinds {
		if b.TypeID == "" {
			return nil, fmt.Errorf("registry file %s: node_kind with empty type", path)
		}
		cat, ok := ParseCategory(b.Category)
		if !ok {
			return nil, fmt.Errorf("registry file %s: node_kind %q has unknown category %q", path, b.TypeID, b.Category)
		}
		extra = append(extra, NodeKind{TypeID: b.TypeID, Label: b.Label, Category: cat})
	}

	if base == nil {
		base = Default()
	}
	return base.With(extra...), nil
}
