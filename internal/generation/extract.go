package generation

import (
	"fmt"
	"strings"
)

// extractFencedBlock pulls the payload out of a response that may be
// wrapped in a fenced code block. The labeled fence (```json, ```html) is
// tried first, then a bare ``` fence; a response with no fence is returned
// trimmed as-is.
func extractFencedBlock(response, label string) string {
	labeled := "```" + label
	if idx := strings.Index(response, labeled); idx >= 0 {
		rest := response[idx+len(labeled):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}

	if idx := strings.Index(response, "```"); idx >= 0 {
		rest := response[idx+3:]
		// Skip a language tag on the fence line, if any.
		if nl := strings.Index(rest, "\n"); nl >= 0 && nl < 20 && !strings.Contains(rest[:nl], "{") {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}

	return strings.TrimSpace(response)
}

// ExtractJSON extracts one JSON object from a provider response,
// unwrapping a labeled or bare fenced block first.
func ExtractJSON(response string) (string, error) {
	payload := extractFencedBlock(response, "json")
	if payload == "" {
		return "", fmt.Errorf("%w: empty payload", ErrInvalidResponse)
	}
	return payload, nil
}

// ExtractHTML extracts an HTML document from a provider response,
// unwrapping a labeled or bare fenced block first.
func ExtractHTML(response string) (string, error) {
	payload := extractFencedBlock(response, "html")
	if payload == "" {
		return "", fmt.Errorf("%w: empty payload", ErrInvalidResponse)
	}
	return payload, nil
}
