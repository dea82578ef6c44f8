package llmclient

import "strings"

// ExtractCodeFence returns the contents of the first triple-backtick
// fenced block in content, with the opening fence's language tag (if
// any) and trailing/leading blank lines stripped (spec §4.2, property 9).
// If no fenced block is present, it returns the trimmed content
// unchanged — the spec treats unfenced output as already-final.
func ExtractCodeFence(content string) string {
	const fence = "```"
	start := strings.Index(content, fence)
	if start == -1 {
		return strings.TrimSpace(content)
	}
	afterOpen := start + len(fence)
	// Skip the language tag on the opening fence line, if any.
	if nl := strings.IndexByte(content[afterOpen:], '\n'); nl != -1 {
		afterOpen += nl + 1
	}
	end := strings.Index(content[afterOpen:], fence)
	if end == -1 {
		return strings.TrimSpace(content[afterOpen:])
	}
	return strings.TrimSpace(content[afterOpen : afterOpen+end])
}
