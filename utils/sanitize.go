package utils

import "github.com/microcosm-cc/bluemonday"

var (
	contentPolicy = bluemonday.UGCPolicy()
	strictPolicy  = bluemonday.StrictPolicy()
)

// Sanitize cleans post content, keeping a safe HTML subset.
func Sanitize(input string) string {
	return contentPolicy.Sanitize(input)
}

// SanitizeStrict strips all markup. Used for titles, comments and usernames.
func SanitizeStrict(input string) string {
	return strictPolicy.Sanitize(input)
}
