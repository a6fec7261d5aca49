package renderer

import (
	"os"
)

// writeFile writes a request-scoped work file
func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0600)
}

// readFile reads a file produced by an external engine
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, os.ErrNotExist
	}
	return data, nil
}
