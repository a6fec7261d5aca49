package pipeline

import "fmt"

// ValidationError reports a malformed request. It is raised before any
// translation call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
