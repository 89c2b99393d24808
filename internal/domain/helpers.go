package domain

import "strings"

// IsURL reports whether the input should be fetched before extraction.
func IsURL(input string) bool {
	return strings.Contains(input, "://")
}
