package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// xssPatterns flags the query-hygiene checks ValidateInput runs before a
// user message is templated into an LLM prompt.
var xssPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script[^>]*>.*?</script>`),
	regexp.MustCompile(`(?i)<iframe[^>]*>.*?</iframe>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)onload\s*=`),
	regexp.MustCompile(`(?i)onerror\s*=`),
	regexp.MustCompile(`(?i)onclick\s*=`),
}

// ValidateInput rejects a user-supplied query that contains control
// characters, invalid UTF-8, or an injection pattern, returning the
// trimmed text otherwise. The orchestrator applies it to the chat message
// in HandleChat and HandleEdit.
func ValidateInput(input string) (string, bool) {
	if input == "" {
		return "", true
	}

	for _, r := range input {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return "", false
		}
	}

	if !utf8.ValidString(input) {
		return "", false
	}

	for _, pattern := range xssPatterns {
		if pattern.MatchString(input) {
			return "", false
		}
	}

	return strings.TrimSpace(input), true
}

// SanitizeForLog strips newlines, tabs and other control characters from
// user-controlled text before it is written to a log line, preventing log
// injection/forging.
func SanitizeForLog(input string) string {
	if input == "" {
		return ""
	}

	sanitized := strings.ReplaceAll(input, "\n", " ")
	sanitized = strings.ReplaceAll(sanitized, "\r", " ")
	sanitized = strings.ReplaceAll(sanitized, "\t", " ")

	var b strings.Builder
	for _, r := range sanitized {
		if r >= 32 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
