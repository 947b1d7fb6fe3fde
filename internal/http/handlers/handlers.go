package handlers

import "strings"

// Services wrap Normalize/Validate failures as "validation failed: ...",
// which is safe to echo back to the caller verbatim.
func isValidationError(err error) bool {
	return strings.HasPrefix(err.Error(), "validation failed")
}
