package report

import (
	"regexp"
	"strings"
)

var (
	labeledFence   = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	unlabeledFence = regexp.MustCompile("(?s)```\\s*(\\{.*?\\})\\s*```")
)

// ExtractJSON recovers a single JSON object from a free-text reply. It tries
// a ```json fence, then a bare ``` fence, then naive brace balancing from the
// first '{'. Braces inside string literals are counted too. When nothing
// matches the trimmed input is returned so that decoding fails loudly.
func ExtractJSON(raw string) string {
	if m := labeledFence.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := unlabeledFence.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}

	if start := strings.IndexByte(raw, '{'); start != -1 {
		depth := 0
		for i := start; i < len(raw); i++ {
			switch raw[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return strings.TrimSpace(raw[start : i+1])
				}
			}
		}
	}

	return strings.TrimSpace(raw)
}
