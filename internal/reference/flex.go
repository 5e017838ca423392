package reference

import (
	"encoding/json"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// flexInt accepts 12, 12.0, "12" and "1 200" and decodes garbage as zero.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	*f = flexInt(toInt(v))
	return nil
}

func (f *flexInt) UnmarshalYAML(node *yaml.Node) error {
	*f = flexInt(parseIntString(node.Value))
	return nil
}

func toInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		return parseIntString(t)
	default:
		return 0
	}
}

func parseIntString(s string) int {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' || r == '\u202f' {
			return -1
		}
		return r
	}, s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
		return int(f)
	}
	return 0
}
