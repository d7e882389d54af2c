package llm

import "strings"

// CleanMarkdownWrapper removes code fences and any prose around the outermost JSON object.
// Text without braces is returned trimmed so the caller can report it verbatim.
func CleanMarkdownWrapper(content string) string {
	s := strings.TrimSpace(content)

	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSpace(s)
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		s = s[start : end+1]
	}

	return s
}
