package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONObject pulls the first JSON object out of a model response.
// Models asked for JSON still wrap it in markdown fences or prose often
// enough that a plain Unmarshal fails, so this trims fences and slices from
// the first '{' to the last '}' before validating.
func ExtractJSONObject(content string) ([]byte, error) {
	s := strings.TrimSpace(content)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	raw := []byte(s[start : end+1])
	if !json.Valid(raw) {
		return nil, fmt.Errorf("invalid JSON in model response")
	}
	return raw, nil
}

// UnmarshalResponse extracts and decodes a JSON object from a model response
// into v.
func UnmarshalResponse(content string, v any) error {
	raw, err := ExtractJSONObject(content)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("error decoding model response: %w", err)
	}
	return nil
}
