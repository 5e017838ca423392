package synthesis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// RequiredKeys must all be present, and non-null, in a model answer.
var RequiredKeys = []string{"summary", "kpis", "keyPoints", "actors", "recommendations", "chartData"}

// ErrNoJSON is wrapped when the answer holds no balanced object.
var ErrNoJSON = errors.New("no JSON object in model output")

// SchemaError reports a model answer that cannot be trusted as a Report.
type SchemaError struct {
	Missing []string
	Err     error
}

func (e *SchemaError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return "model output missing keys: " + strings.Join(e.Missing, ", ")
	case e.Err != nil:
		return "model output invalid: " + e.Err.Error()
	default:
		return "model output invalid"
	}
}

func (e *SchemaError) Unwrap() error { return e.Err }

// stripFences removes markdown code fences around or inside the answer, and
// any reasoning block a thinking model emits before it.
func stripFences(raw string) string {
	if i := strings.LastIndex(raw, "</think>"); i >= 0 {
		raw = raw[i+len("</think>"):]
	}
	s := strings.ReplaceAll(raw, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// firstObject returns the first balanced {...} span of s. Braces inside JSON
// strings, escaped quotes included, are ignored.
func firstObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// parseModelReport extracts, parses and validates a model answer.
func parseModelReport(raw string) (Report, error) {
	span, ok := firstObject(stripFences(raw))
	if !ok {
		return Report{}, &SchemaError{Err: ErrNoJSON}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(span), &fields); err != nil {
		return Report{}, &SchemaError{Err: fmt.Errorf("parse: %w", err)}
	}
	var missing []string
	for _, key := range RequiredKeys {
		v, ok := fields[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Report{}, &SchemaError{Missing: missing}
	}

	var rep Report
	if err := json.Unmarshal([]byte(span), &rep); err != nil {
		return Report{}, &SchemaError{Err: fmt.Errorf("decode: %w", err)}
	}
	if rep.KeyPoints == nil {
		rep.KeyPoints = TextList{}
	}
	if rep.Actors == nil {
		rep.Actors = []Actor{}
	}
	if rep.Recommendations == nil {
		rep.Recommendations = []Recommendation{}
	}
	if rep.ChartData == nil {
		rep.ChartData = map[string]any{}
	}
	return rep, nil
}
