// internal/service/template_service.go
package service

import (
	"strings"
)

// Personalize swaps the template's salutation line for a greeting addressed to
// the given name. Pure string substitution; only the first occurrence is
// replaced.
func Personalize(template, salutation, name string) string {
	return strings.Replace(template, salutation, "Hi "+name+",", 1)
}
