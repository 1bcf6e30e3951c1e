package services

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	jsonFence = regexp.MustCompile("(?is)```json[ \\t]*\\r?\\n?(.*?)```")
	anyFence  = regexp.MustCompile("(?s)```[a-zA-Z]*[ \\t]*\\r?\\n?(.*?)```")
)

// extractFenced returns the body of the first fenced block tagged as JSON,
// falling back to the first untagged fence.
func extractFenced(text string) (string, bool) {
	if m := jsonFence.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := anyFence.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

// parseAnswer reads a short model answer. It accepts {"value": "..."} as raw
// JSON or inside a fence, and falls back to the first non-empty line of plain text.
func parseAnswer(raw string) string {
	candidates := []string{strings.TrimSpace(raw)}
	if body, ok := extractFenced(raw); ok {
		candidates = append(candidates, body)
	}

	for _, c := range candidates {
		var obj map[string]any
		if err := json.Unmarshal([]byte(c), &obj); err != nil {
			continue
		}
		for _, key := range []string{"value", "term", "choice", "answer"} {
			if s, ok := obj[key].(string); ok {
				return cleanAnswer(s)
			}
		}
		return ""
	}

	for _, line := range strings.Split(raw, "\n") {
		if s := cleanAnswer(line); s != "" && !strings.HasPrefix(s, "```") {
			return s
		}
	}
	return ""
}

func cleanAnswer(s string) string {
	return strings.Trim(strings.TrimSpace(s), "\"'`.")
}
