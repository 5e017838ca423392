// Package synthesis turns Facts into a market Report, through a language model
// when one answers correctly and through deterministic rules otherwise.
package synthesis

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Report sources.
const (
	SourceModel    = "model"
	SourceFallback = "fallback"

	fallbackModel = "fallback"
	reportVersion = "1.0"
)

// Text decodes any JSON scalar into a string; objects and arrays are kept as
// compact JSON. Model output is loosely typed.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*t = Text(buf.String())
	default:
		*t = Text(data)
	}
	return nil
}

// TextList accepts a list or a single value.
type TextList []Text

func (l *TextList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []Text
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var one Text
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	if one == "" {
		*l = TextList{}
		return nil
	}
	*l = TextList{one}
	return nil
}

type Trends struct {
	Market    Text `json:"market"`
	Actors    Text `json:"actors"`
	Growth    Text `json:"growth"`
	Potential Text `json:"potential"`
}

type KPIs struct {
	Market    Text   `json:"market"`
	Actors    Text   `json:"actors"`
	Growth    Text   `json:"growth"`
	Potential Text   `json:"potential"`
	Trends    Trends `json:"trends"`
}

type Actor struct {
	Name   Text `json:"name"`
	Type   Text `json:"type"`
	Market Text `json:"market"`
	Growth Text `json:"growth"`
}

type Recommendation struct {
	Title   Text `json:"title"`
	Desc    Text `json:"desc"`
	Comment Text `json:"comment"`
}

// Series is one chart-ready series.
type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

type Metadata struct {
	Place          string    `json:"place"`
	Segment        string    `json:"segment"`
	Objective      string    `json:"objective,omitempty"`
	RequestID      string    `json:"requestId,omitempty"`
	GeneratedAt    time.Time `json:"generatedAt"`
	AIModel        string    `json:"aiModel"`
	Source         string    `json:"source"`
	Version        string    `json:"version"`
	FallbackReason string    `json:"fallbackReason,omitempty"`
}

// Report is the synthesized market analysis.
type Report struct {
	Summary         Text             `json:"summary"`
	KPIs            KPIs             `json:"kpis"`
	KeyPoints       TextList         `json:"keyPoints"`
	Actors          []Actor          `json:"actors"`
	Recommendations []Recommendation `json:"recommendations"`
	ChartData       map[string]any   `json:"chartData"`
	Metadata        Metadata         `json:"metadata"`
}

// IsFallback reports whether the rule-based builder produced r.
func (r Report) IsFallback() bool { return r.Metadata.Source == SourceFallback }

func itoa(n int) Text { return Text(strconv.Itoa(n)) }
