package operators

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"biomarket-backend/internal/shared/telemetry"
	"biomarket-backend/internal/shared/textnorm"
)

// Directory is an immutable city-keyed index of operators.
type Directory struct {
	byCity      map[string][]Record
	byCollapsed map[string][]Record
	total       int
}

// NewDirectory indexes a dataset keyed by city name.
func NewDirectory(byCity map[string][]Record) *Directory {
	d := &Directory{
		byCity:      make(map[string][]Record),
		byCollapsed: make(map[string][]Record),
	}
	cities := make([]string, 0, len(byCity))
	for city := range byCity {
		cities = append(cities, city)
	}
	sort.Strings(cities)
	for _, city := range cities {
		records := byCity[city]
		if len(records) == 0 {
			continue
		}
		key := textnorm.Fold(city)
		d.byCity[key] = append(d.byCity[key], records...)
		collapsed := textnorm.Collapse(city)
		d.byCollapsed[collapsed] = append(d.byCollapsed[collapsed], records...)
		d.total += len(records)
	}
	return d
}

// Load reads the operator dataset (JSON or YAML by extension). The dataset
// maps a city name to its operator entries.
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read operators dataset: %w", err)
	}
	var raw map[string][]rawOperator
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parse operators dataset: %w", err)
	}
	byCity := make(map[string][]Record, len(raw))
	for city, entries := range raw {
		records := make([]Record, 0, len(entries))
		for _, e := range entries {
			records = append(records, e.toRecord(city))
		}
		byCity[city] = records
	}
	return NewDirectory(byCity), nil
}

// LoadOrEmpty degrades a load failure to an empty directory.
func LoadOrEmpty(path string) *Directory {
	dir, err := Load(path)
	if err != nil {
		telemetry.Warn("operators.load_failed", map[string]any{"path": path, "error": err})
		return NewDirectory(nil)
	}
	telemetry.Info("operators.loaded", map[string]any{"path": path, "operators": dir.Len(), "cities": len(dir.byCity)})
	return dir
}

// Len is the number of indexed operators.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return d.total
}

// FindByCity returns the operators of city, or nil. Lookup tries the folded
// name, then the collapsed variant ("Saint-Étienne" == "saint etienne").
func (d *Directory) FindByCity(city string) []Record {
	if d == nil {
		return nil
	}
	if recs, ok := d.byCity[textnorm.Fold(city)]; ok {
		return clone(recs)
	}
	if recs, ok := d.byCollapsed[textnorm.Collapse(city)]; ok {
		return clone(recs)
	}
	return nil
}

// FilterBySegment keeps operators whose activity, category or segment fields
// contain segment (case- and accent-insensitive). When nothing matches, the
// unfiltered list is returned: a non-empty input never yields an empty output.
func FilterBySegment(list []Record, segment string) []Record {
	if strings.TrimSpace(segment) == "" || len(list) == 0 {
		return list
	}
	var out []Record
	for _, op := range list {
		if containsSegment(op, segment) {
			out = append(out, op)
		}
	}
	if len(out) == 0 {
		return list
	}
	return out
}

// BuildCompetition summarizes list for segment. Direct competitors match any
// segment word of at least four letters in their name, city or activity
// fields. A segment without such a word ("vin", "thé") is matched whole; an
// empty segment makes every operator a competitor.
func BuildCompetition(list []Record, segment string) Competition {
	var competitors []Record
	for _, op := range list {
		if isCompetitor(op, segment) {
			competitors = append(competitors, op)
		}
	}
	breakdown := make(map[string]int)
	for _, op := range list {
		key := op.Activity
		if key == "" {
			key = unknownLabel
		}
		breakdown[key]++
	}
	direct := len(competitors)
	if len(competitors) > maxCompetitors {
		competitors = competitors[:maxCompetitors]
	}
	return Competition{
		TotalOperators:    len(list),
		DirectCompetitors: direct,
		Competitors:       nonNilRecords(competitors),
		ActivityBreakdown: breakdown,
		Operators:         nonNilRecords(list),
	}
}

func containsSegment(op Record, segment string) bool {
	for _, field := range searchable(op) {
		if textnorm.Contains(field, segment) {
			return true
		}
	}
	return false
}

func isCompetitor(op Record, segment string) bool {
	if strings.TrimSpace(segment) == "" {
		return true
	}
	fields := append([]string{op.Name, op.City}, searchable(op)...)
	tokens := textnorm.Tokens(segment, minTokenLen)
	if len(tokens) == 0 {
		for _, field := range fields {
			if textnorm.Contains(field, segment) {
				return true
			}
		}
		return false
	}
	return matchesAnyToken(fields, tokens)
}

func matchesAnyToken(fields []string, tokens []string) bool {
	for _, field := range fields {
		folded := textnorm.Fold(field)
		for _, tok := range tokens {
			if strings.Contains(folded, tok) {
				return true
			}
		}
	}
	return false
}

func searchable(op Record) []string {
	fields := make([]string, 0, 2+len(op.Activities)+len(op.Categories)+len(op.Segments))
	fields = append(fields, op.Activity, op.Category)
	fields = append(fields, op.Activities...)
	fields = append(fields, op.Categories...)
	fields = append(fields, op.Segments...)
	return fields
}

func clone(recs []Record) []Record {
	return append([]Record(nil), recs...)
}

func nonNilRecords(recs []Record) []Record {
	if recs == nil {
		return []Record{}
	}
	return recs
}
