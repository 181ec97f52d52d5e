package helper

import "fmt"

// NewError wraps err with the operation that produced it. The underlying
// error stays reachable through errors.Is and errors.As.
func NewError(operation string, err error) error {
	return fmt.Errorf("error in %v: %w", operation, err)
}
