package synthesis

import (
	"errors"
	"reflect"
	"testing"
)

const validAnswer = `{"summary":"Marché {dynamique}","kpis":{"market":"12 M€","actors":42,"growth":"+5%","potential":"élevé","trends":{"market":"Forte","actors":"Stable","growth":"Modérée","potential":"Élevé"}},"keyPoints":["a","b"],"actors":[{"name":"Biocoop","type":"distributeur","market":"12%","growth":"+3%"}],"recommendations":[{"title":"t","desc":"d","comment":"c"}],"chartData":{}}`

func TestFirstObjectIgnoresBracesInStrings(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"prefix text", `Voici: {"a":{"b":2}} fin`, `{"a":{"b":2}}`},
		{"brace in string", `{"a":"}{"}`, `{"a":"}{"}`},
		{"escaped quote", `{"a":"x\"}"} trailing {}`, `{"a":"x\"}"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := firstObject(tc.in)
			if !ok || got != tc.want {
				t.Fatalf("firstObject(%q) = %q, %v; want %q", tc.in, got, ok, tc.want)
			}
		})
	}
	if _, ok := firstObject(`{"a":1`); ok {
		t.Fatalf("unbalanced input should not match")
	}
}

func TestParseModelReportStripsFencesAndThinking(t *testing.T) {
	raw := "<think>je réfléchis {pas du json}</think>\n```json\n" + validAnswer + "\n```"
	rep, err := parseModelReport(raw)
	if err != nil {
		t.Fatalf("parseModelReport: %v", err)
	}
	if rep.Summary != "Marché {dynamique}" {
		t.Fatalf("summary = %q", rep.Summary)
	}
	if rep.KPIs.Actors != "42" {
		t.Fatalf("numeric actors should decode as text, got %q", rep.KPIs.Actors)
	}
	if len(rep.Actors) != 1 || rep.Actors[0].Name != "Biocoop" {
		t.Fatalf("actors = %+v", rep.Actors)
	}
}

func TestParseModelReportReportsMissingKeys(t *testing.T) {
	raw := `{"summary":"s","kpis":{},"keyPoints":[],"actors":null,"recommendations":[]}`
	_, err := parseModelReport(raw)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if want := []string{"actors", "chartData"}; !reflect.DeepEqual(schemaErr.Missing, want) {
		t.Fatalf("missing = %v, want %v", schemaErr.Missing, want)
	}
}

func TestParseModelReportWithoutJSON(t *testing.T) {
	_, err := parseModelReport("désolé, je ne peux pas répondre")
	if !errors.Is(err, ErrNoJSON) {
		t.Fatalf("expected ErrNoJSON, got %v", err)
	}
}

func TestTextListAcceptsSingleValue(t *testing.T) {
	rep, err := parseModelReport(`{"summary":"s","kpis":{},"keyPoints":"un seul point","actors":[],"recommendations":[],"chartData":{}}`)
	if err != nil {
		t.Fatalf("parseModelReport: %v", err)
	}
	if len(rep.KeyPoints) != 1 || rep.KeyPoints[0] != "un seul point" {
		t.Fatalf("keyPoints = %v", rep.KeyPoints)
	}
}
