package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoJSONObject = errors.New("no json object in model output")

// ExtractJSONObject returns the span from the first '{' to the last '}' of text.
// The span is not validated; callers decode it and surface syntax errors.
func ExtractJSONObject(text string) (json.RawMessage, error) {
	raw := strings.TrimSpace(text)
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < 0 || end < start {
		return nil, ErrNoJSONObject
	}
	return json.RawMessage(raw[start : end+1]), nil
}
