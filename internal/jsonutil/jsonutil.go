// Package jsonutil decodes JSON out of LLM responses, which routinely
// arrive wrapped in markdown code fences or surrounded by prose.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var ErrEmptyInput = errors.New("jsonutil: empty input")

// DecodeWithFallback decodes raw into out. It first tries the input as-is,
// then with markdown code fences stripped, then the largest brace-delimited
// slice of the input. The original input is never mutated.
func DecodeWithFallback(raw string, out any) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ErrEmptyInput
	}

	candidates := []string{trimmed}
	if fenced := stripCodeFence(trimmed); fenced != trimmed {
		candidates = append(candidates, fenced)
	}
	if embedded, ok := extractBraced(trimmed); ok {
		candidates = append(candidates, embedded)
	}

	var lastErr error
	for _, candidate := range candidates {
		if !gjson.Valid(candidate) {
			lastErr = fmt.Errorf("jsonutil: invalid json payload")
			continue
		}
		if err := json.Unmarshal([]byte(candidate), out); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the info string ("json", "javascript", ...).
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func extractBraced(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndex(s, "}")
	} else {
		end = strings.LastIndex(s, "]")
	}
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}
