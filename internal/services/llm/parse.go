package llm

import (
	"encoding/json"
	"strings"

	"github.com/ternarybob/vantage/internal/models"
)

// StripCodeFences removes markdown code fence markers from an LLM response.
// Handles ```json ... ``` and bare ``` ... ``` wrappers.
func StripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		// Drop the opening fence and any language tag on the same line.
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		} else {
			text = strings.TrimPrefix(text, "```json")
			text = strings.TrimPrefix(text, "```")
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}

// ExtractJSONArray locates the first top-level JSON array in text,
// tolerating prose before and after it.
func ExtractJSONArray(text string) (string, bool) {
	text = StripCodeFences(text)
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// ParseTickerList parses an LLM response expected to contain a JSON array
// of ticker symbols. Entries are trimmed and uppercased; empties dropped.
// A parse failure is reported as a SelectionParseError so callers can
// degrade to a fallback list.
func ParseTickerList(stage, response string) ([]string, error) {
	raw, ok := ExtractJSONArray(response)
	if !ok {
		return nil, &models.SelectionParseError{
			Stage: stage,
			Raw:   response,
			Err:   errNoJSONArray,
		}
	}

	var tickers []string
	if err := json.Unmarshal([]byte(raw), &tickers); err != nil {
		return nil, &models.SelectionParseError{Stage: stage, Raw: response, Err: err}
	}

	result := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			result = append(result, t)
		}
	}
	if len(result) == 0 {
		return nil, &models.SelectionParseError{
			Stage: stage,
			Raw:   response,
			Err:   errEmptyTickerList,
		}
	}
	return result, nil
}

var (
	errNoJSONArray     = parseErr("no JSON array found in response")
	errEmptyTickerList = parseErr("response contained no tickers")
)

type parseErr string

func (e parseErr) Error() string { return string(e) }
