package parser

import (
	"fmt"
	"strings"
)

// Terraform JSON is loose about scalar types: numbers arrive as float64,
// some providers store numbers and booleans as strings.

// GetStringAttribute extracts a scalar attribute as a string
func GetStringAttribute(attrs map[string]interface{}, key string) (string, bool) {
	val, ok := attrs[key]
	if !ok {
		return "", false
	}

	switch v := val.(type) {
	case string:
		return v, true
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v)), true
		}
		return fmt.Sprintf("%g", v), true
	case int:
		return fmt.Sprintf("%d", v), true
	case bool:
		return fmt.Sprintf("%t", v), true
	default:
		return "", false
	}
}

// GetFirstStringAttribute returns the first non-empty scalar among keys
func GetFirstStringAttribute(attrs map[string]interface{}, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := GetStringAttribute(attrs, key); ok && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}

// GetMapAttribute extracts an object attribute
func GetMapAttribute(attrs map[string]interface{}, key string) (map[string]interface{}, bool) {
	val, ok := attrs[key]
	if !ok {
		return nil, false
	}
	m, ok := val.(map[string]interface{})
	return m, ok
}

// GetNestedStringAttribute follows a dot separated path through nested
// objects and single element lists, as state files store blocks:
// "sku.name" matches {"sku": [{"name": "S1"}]} and {"sku": {"name": "S1"}}
func GetNestedStringAttribute(attrs map[string]interface{}, path string) (string, bool) {
	parts := strings.Split(path, ".")
	cur := attrs
	for i, part := range parts {
		if i == len(parts)-1 {
			return GetStringAttribute(cur, part)
		}
		switch next := cur[part].(type) {
		case map[string]interface{}:
			cur = next
		case []interface{}:
			if len(next) != 1 {
				return "", false
			}
			m, ok := next[0].(map[string]interface{})
			if !ok {
				return "", false
			}
			cur = m
		default:
			return "", false
		}
	}
	return "", false
}
