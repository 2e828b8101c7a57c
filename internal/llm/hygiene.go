package llm

import (
	"regexp"
	"strings"
)

// chatTemplateMarkers are local-model chat template tokens that
// occasionally leak into raw completions.
var chatTemplateMarkers = []string{"<|system|>", "<|user|>", "<|assistant|>", "<|end|>"}

// echoedRoleLabel matches an echoed role label at the start of a line.
var echoedRoleLabel = regexp.MustCompile(`(?im)^\s*(USER|Assistant)\s*:\s*`)

// hallucinatedSection matches the start of a trailing hallucinated
// section the local model sometimes appends after its real answer.
var hallucinatedSection = regexp.MustCompile(
	`(?im)^(QUESTION|REMINDER|DOCUMENTS|PREVIOUS CHAT|Q|A|Question|Answer|Note|Important|Please note)\s*:.*$`,
)

// SanitizeToken strips chat-template markers and echoed role labels from
// a single streamed token. Applied per-token during streaming.
func SanitizeToken(token string) string {
	for _, marker := range chatTemplateMarkers {
		token = strings.ReplaceAll(token, marker, "")
	}
	return echoedRoleLabel.ReplaceAllString(token, "")
}

// SanitizeFinal applies the same per-token cleanup plus trailing
// hallucinated-section stripping, run once on the accumulated text
// before persistence.
func SanitizeFinal(text string) string {
	text = SanitizeToken(text)
	lines := strings.Split(text, "\n")

	cut := len(lines)
	for i, line := range lines {
		if hallucinatedSection.MatchString(line) {
			cut = i
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines[:cut], "\n"))
}
