package parser

import (
	"strings"

	"github.com/ankek/archdiagram/internal/ir"
)

// DependsOn is the relationship type for Terraform references
const DependsOn = "depends_on"

// skuKeys are the attributes providers use for a resource's size or tier
var skuKeys = []string{"sku_name", "sku", "size", "vm_size", "instance_type", "instance_class", "tier"}

// ToIR converts parsed resources into an architecture. Resource groups
// become clusters, references become relationships from the referring
// resource to the referenced one, and utility resources are dropped.
// Resources are named by their Terraform name unless that name is shared,
// in which case the full address is used.
func ToIR(resources []Resource, label string) *ir.ArchitectureIR {
	groupByID := make(map[string]string)
	groupByName := make(map[string]string)
	var included []Resource
	for _, r := range resources {
		if r.Type == resourceGroupType {
			name := r.Name
			if v, ok := GetStringAttribute(r.Attributes, "name"); ok && strings.TrimSpace(v) != "" {
				name = v
			}
			groupByID[r.ID] = name
			groupByName[name] = name
			continue
		}
		if ShouldIncludeInDiagram(r) {
			included = append(included, r)
		}
	}

	nameCount := make(map[string]int)
	for _, r := range included {
		nameCount[r.Name]++
	}
	display := make(map[string]string, len(included))
	for _, r := range included {
		if nameCount[r.Name] == 1 {
			display[r.ID] = r.Name
		} else {
			display[r.ID] = r.ID
		}
	}

	arch := &ir.ArchitectureIR{Label: label}
	clusterIndex := make(map[string]int)
	for _, r := range included {
		arch.Resources = append(arch.Resources, ir.Resource{
			Name:       display[r.ID],
			Type:       TypeID(r.Type),
			Attributes: resourceAttributes(r),
		})

		if r.Group == "" {
			continue
		}
		cluster, ok := groupByID[r.Group]
		if !ok {
			if cluster, ok = groupByName[r.Group]; !ok {
				cluster = r.Group
			}
		}
		i, ok := clusterIndex[cluster]
		if !ok {
			i = len(arch.Clusters)
			clusterIndex[cluster] = i
			arch.Clusters = append(arch.Clusters, ir.Cluster{Name: cluster})
		}
		arch.Clusters[i].Members = append(arch.Clusters[i].Members, display[r.ID])
	}

	seen := make(map[[2]string]bool)
	for _, r := range included {
		for _, dep := range r.Dependencies {
			for _, target := range resolve(dep, included) {
				if target == r.ID {
					continue
				}
				edge := [2]string{display[r.ID], display[target]}
				if seen[edge] {
					continue
				}
				seen[edge] = true
				arch.Relationships = append(arch.Relationships, ir.Relationship{
					Source: edge[0],
					Target: edge[1],
					Kind:   DependsOn,
				})
			}
		}
	}

	return arch
}

// resolve returns the included resources an address refers to. An address
// without an index refers to every instance of a counted resource.
func resolve(address string, included []Resource) []string {
	var out []string
	for _, r := range included {
		if r.ID == address || strings.HasPrefix(r.ID, address+"[") {
			out = append(out, r.ID)
		}
	}
	return out
}

func resourceAttributes(r Resource) ir.Attributes {
	attrs := ir.Attributes{"address": r.ID}
	if v, ok := GetStringAttribute(r.Attributes, "location"); ok && v != "" {
		attrs["location"] = v
	}
	if v, ok := GetStringAttribute(r.Attributes, "region"); ok && v != "" {
		attrs["location"] = v
	}
	if v, ok := GetFirstStringAttribute(r.Attributes, skuKeys...); ok {
		attrs["sku"] = v
	} else if v, ok := GetNestedStringAttribute(r.Attributes, "sku.name"); ok && v != "" {
		attrs["sku"] = v
	}
	return attrs
}
