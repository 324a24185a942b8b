package domain

import "fmt"

// Traceback renders an error with its captured stack, for the
// errorTraceback report fields. Errors built with cockroachdb/errors
// carry stacks; plain errors degrade to their message.
func Traceback(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%+v", err)
}
