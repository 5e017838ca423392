package operators

import (
	"encoding/json"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// rawOperator mirrors the dataset entries, which use several spellings for
// the same fields depending on their origin.
type rawOperator struct {
	ID          flexString `json:"id" yaml:"id"`
	Nom         string     `json:"nom" yaml:"nom"`
	RaisonSoc   string     `json:"raison_sociale" yaml:"raison_sociale"`
	Activite    string     `json:"activite" yaml:"activite"`
	Activites   flexList   `json:"activites" yaml:"activites"`
	Categorie   string     `json:"categorie" yaml:"categorie"`
	Categories  flexList   `json:"categories" yaml:"categories"`
	Segments    flexList   `json:"segments" yaml:"segments"`
	Labels      flexList   `json:"labels" yaml:"labels"`
	Ville       string     `json:"ville" yaml:"ville"`
	Commune     string     `json:"commune" yaml:"commune"`
	Site        string     `json:"site" yaml:"site"`
	SiteWeb     string     `json:"site_web" yaml:"site_web"`
	Contact     string     `json:"contact" yaml:"contact"`
	Telephone   string     `json:"telephone" yaml:"telephone"`
	Adresse     string     `json:"adresse" yaml:"adresse"`
	CodePostal  flexString `json:"code_postal" yaml:"code_postal"`
	Quartier    string     `json:"quartier" yaml:"quartier"`
	MiseAJour   string     `json:"date_mise_a_jour" yaml:"date_mise_a_jour"`
	Latitude    *float64   `json:"latitude" yaml:"latitude"`
	Longitude   *float64   `json:"longitude" yaml:"longitude"`
	Coordonnees *struct {
		Lat float64 `json:"lat" yaml:"lat"`
		Lon float64 `json:"lon" yaml:"lon"`
	} `json:"coordonnees" yaml:"coordonnees"`
}

// toRecord is the single place where dataset spellings become a Record.
func (r rawOperator) toRecord(cityKey string) Record {
	activities := r.Activites.values()
	if len(activities) == 0 {
		activities = r.Segments.values()
	}
	if len(activities) == 0 && strings.TrimSpace(r.Activite) != "" {
		activities = []string{strings.TrimSpace(r.Activite)}
	}
	categories := r.Categories.values()
	if len(categories) == 0 && strings.TrimSpace(r.Categorie) != "" {
		categories = []string{strings.TrimSpace(r.Categorie)}
	}
	segments := r.Segments.values()
	if len(segments) == 0 {
		segments = activities
	}

	name := firstNonEmpty(r.Nom, r.RaisonSoc, defaultName)
	rec := Record{
		ID:         firstNonEmpty(string(r.ID), r.Nom, r.RaisonSoc),
		Name:       name,
		Activity:   firstNonEmpty(r.Activite, first(activities), unknownLabel),
		Category:   firstNonEmpty(r.Categorie, first(categories), unknownLabel),
		City:       firstNonEmpty(r.Ville, r.Commune, cityKey),
		Activities: nonNil(activities),
		Categories: nonNil(categories),
		Segments:   nonNil(segments),
		Labels:     nonNil(r.Labels.values()),
		Site:       firstNonEmpty(r.Site, r.SiteWeb),
		Contact:    firstNonEmpty(r.Contact, r.Telephone),
		Address:    strings.TrimSpace(r.Adresse),
		PostalCode: strings.TrimSpace(string(r.CodePostal)),
		District:   strings.TrimSpace(r.Quartier),
		UpdatedAt:  strings.TrimSpace(r.MiseAJour),
	}
	switch {
	case r.Coordonnees != nil:
		rec.Location = &Location{Lat: r.Coordonnees.Lat, Lon: r.Coordonnees.Lon}
	case r.Latitude != nil && r.Longitude != nil:
		rec.Location = &Location{Lat: *r.Latitude, Lon: *r.Longitude}
	}
	return rec
}

// flexList accepts a list of strings or a single "a; b, c" string.
type flexList []string

func (f *flexList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*f = flexList{single}
	}
	return nil
}

func (f *flexList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*f = flexList{node.Value}
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err == nil {
			*f = list
		}
	}
	return nil
}

func (f flexList) values() []string {
	var out []string
	seen := map[string]struct{}{}
	for _, v := range f {
		for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == ';' || r == ',' }) {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, dup := seen[part]; dup {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

// flexString accepts strings and numbers (ids and postal codes are both).
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(strconv.FormatFloat(n, 'f', -1, 64))
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
