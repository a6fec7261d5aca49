package parser

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// skippedDirs are never scanned for configuration
var skippedDirs = map[string]bool{
	".terraform": true,
	".git":       true,
}

// ParseConfigDirectory reads every .tf file below dirPath and returns the
// managed resources in file then declaration order
func ParseConfigDirectory(ctx context.Context, dirPath string) ([]Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tfFiles []string
	err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dirPath && skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".tf") {
			tfFiles = append(tfFiles, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}
	sort.Strings(tfFiles)

	p := hclparse.NewParser()
	var resources []Resource
	for _, tfFile := range tfFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileResources, err := parseHCLFile(p, tfFile)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", tfFile, err)
		}
		resources = append(resources, fileResources...)
	}

	return resources, nil
}

func parseHCLFile(p *hclparse.Parser, path string) ([]Resource, error) {
	file, diags := p.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("HCL parse errors: %s", diags.Error())
	}

	content, _, diags := file.Body.PartialContent(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{
			{Type: "resource", LabelNames: []string{"type", "name"}},
		},
	})
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse body: %s", diags.Error())
	}

	var resources []Resource
	for _, block := range content.Blocks {
		resourceType := block.Labels[0]
		resourceName := block.Labels[1]
		id := resourceType + "." + resourceName

		deps := extractDependenciesFromBlock(block.Body)
		resources = append(resources, Resource{
			Type:         resourceType,
			Name:         resourceName,
			Provider:     extractProvider(resourceType),
			Attributes:   parseResourceAttributes(block.Body),
			ID:           id,
			Dependencies: removeString(deps, id),
			Group:        resourceGroupRef(block.Body),
		})
	}

	return resources, nil
}

// parseResourceAttributes evaluates the attributes that need no variables.
// References to other resources cannot be evaluated and are left out.
func parseResourceAttributes(body hcl.Body) map[string]interface{} {
	attrs := make(map[string]interface{})

	syntaxBody, ok := body.(*hclsyntax.Body)
	if !ok {
		return attrs
	}
	for name, attr := range syntaxBody.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() || !val.IsWhollyKnown() {
			continue
		}
		attrs[name] = ctyToInterface(val)
	}
	// Nested blocks such as sku { name = "S1" } are kept as objects
	for _, block := range syntaxBody.Blocks {
		if _, seen := attrs[block.Type]; seen {
			continue
		}
		attrs[block.Type] = parseResourceAttributes(block.Body)
	}
	return attrs
}

// ctyToInterface converts a cty.Value to the shapes encoding/json produces
func ctyToInterface(val cty.Value) interface{} {
	if val.IsNull() {
		return nil
	}

	switch val.Type() {
	case cty.String:
		return val.AsString()
	case cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f
	case cty.Bool:
		return val.True()
	}

	ty := val.Type()
	if ty.IsListType() || ty.IsTupleType() || ty.IsSetType() {
		var list []interface{}
		it := val.ElementIterator()
		for it.Next() {
			_, v := it.Element()
			list = append(list, ctyToInterface(v))
		}
		return list
	}

	if ty.IsMapType() || ty.IsObjectType() {
		m := make(map[string]interface{})
		it := val.ElementIterator()
		for it.Next() {
			k, v := it.Element()
			m[k.AsString()] = ctyToInterface(v)
		}
		return m
	}

	return nil
}

// resourceGroupRef reports the resource group a block is deployed into:
// the address of a referenced azurerm_resource_group, or a literal name
func resourceGroupRef(body hcl.Body) string {
	syntaxBody, ok := body.(*hclsyntax.Body)
	if !ok {
		return ""
	}
	attr, ok := syntaxBody.Attributes["resource_group_name"]
	if !ok {
		return ""
	}

	if tr, ok := attr.Expr.(*hclsyntax.ScopeTraversalExpr); ok && len(tr.Traversal) >= 2 {
		if tr.Traversal.RootName() == resourceGroupType {
			if a, ok := tr.Traversal[1].(hcl.TraverseAttr); ok {
				return resourceGroupType + "." + a.Name
			}
		}
		return ""
	}

	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() || !val.IsWhollyKnown() || val.IsNull() || val.Type() != cty.String {
		return ""
	}
	return val.AsString()
}

// extractDependenciesFromBlock walks the syntax tree for resource
// references and returns them sorted
func extractDependenciesFromBlock(body hcl.Body) []string {
	deps := make(map[string]bool)

	if syntaxBody, ok := body.(*hclsyntax.Body); ok {
		extractTraversals(syntaxBody, deps)
	}

	result := make([]string, 0, len(deps))
	for dep := range deps {
		result = append(result, dep)
	}
	sort.Strings(result)
	return result
}

func extractTraversals(body *hclsyntax.Body, deps map[string]bool) {
	for _, attr := range body.Attributes {
		findTraversalsInExpr(attr.Expr, deps)
	}
	for _, block := range body.Blocks {
		extractTraversals(block.Body, deps)
	}
}

// nonResourceRoots name references that are not managed resources
var nonResourceRoots = map[string]bool{
	"var":       true,
	"local":     true,
	"data":      true,
	"module":    true,
	"path":      true,
	"terraform": true,
	"each":      true,
	"count":     true,
	"self":      true,
}

func findTraversalsInExpr(expr hclsyntax.Expression, deps map[string]bool) {
	if traversal, ok := expr.(*hclsyntax.ScopeTraversalExpr); ok {
		if len(traversal.Traversal) < 2 {
			return
		}
		rootName := traversal.Traversal.RootName()
		if nonResourceRoots[rootName] {
			return
		}
		if attr, ok := traversal.Traversal[1].(hcl.TraverseAttr); ok {
			deps[rootName+"."+attr.Name] = true
		}
		return
	}

	switch e := expr.(type) {
	case *hclsyntax.TupleConsExpr:
		for _, item := range e.Exprs {
			findTraversalsInExpr(item, deps)
		}
	case *hclsyntax.ObjectConsExpr:
		for _, item := range e.Items {
			findTraversalsInExpr(item.KeyExpr, deps)
			findTraversalsInExpr(item.ValueExpr, deps)
		}
	case *hclsyntax.ObjectConsKeyExpr:
		findTraversalsInExpr(e.Wrapped, deps)
	case *hclsyntax.FunctionCallExpr:
		for _, arg := range e.Args {
			findTraversalsInExpr(arg, deps)
		}
	case *hclsyntax.ConditionalExpr:
		findTraversalsInExpr(e.Condition, deps)
		findTraversalsInExpr(e.TrueResult, deps)
		findTraversalsInExpr(e.FalseResult, deps)
	case *hclsyntax.ForExpr:
		findTraversalsInExpr(e.CollExpr, deps)
		if e.KeyExpr != nil {
			findTraversalsInExpr(e.KeyExpr, deps)
		}
		findTraversalsInExpr(e.ValExpr, deps)
	case *hclsyntax.IndexExpr:
		findTraversalsInExpr(e.Collection, deps)
		findTraversalsInExpr(e.Key, deps)
	case *hclsyntax.RelativeTraversalExpr:
		findTraversalsInExpr(e.Source, deps)
	case *hclsyntax.SplatExpr:
		findTraversalsInExpr(e.Source, deps)
	case *hclsyntax.TemplateExpr:
		for _, part := range e.Parts {
			findTraversalsInExpr(part, deps)
		}
	case *hclsyntax.TemplateWrapExpr:
		findTraversalsInExpr(e.Wrapped, deps)
	case *hclsyntax.BinaryOpExpr:
		findTraversalsInExpr(e.LHS, deps)
		findTraversalsInExpr(e.RHS, deps)
	case *hclsyntax.UnaryOpExpr:
		findTraversalsInExpr(e.Val, deps)
	case *hclsyntax.ParenthesesExpr:
		findTraversalsInExpr(e.Expression, deps)
	}
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
