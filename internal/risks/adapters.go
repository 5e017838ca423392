package risks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// page decodes the registry envelopes seen in the wild: a bare array, or an
// object carrying the list under data, results or items with an optional total.
type page[T any] struct {
	Items    []T
	Total    int
	HasTotal bool
}

func (p *page[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '[' {
		return json.Unmarshal(data, &p.Items)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("registry envelope: %w", err)
	}
	for _, key := range []string{"data", "results", "items"} {
		raw, ok := obj[key]
		if !ok || len(raw) == 0 || raw[0] != '[' {
			continue
		}
		if err := json.Unmarshal(raw, &p.Items); err != nil {
			return fmt.Errorf("registry %s: %w", key, err)
		}
		break
	}
	for _, key := range []string{"total", "results"} {
		var n float64
		if raw, ok := obj[key]; ok && json.Unmarshal(raw, &n) == nil {
			p.Total = int(n)
			p.HasTotal = true
			break
		}
	}
	return nil
}

func (p page[T]) count() int {
	if p.HasTotal && p.Total >= 0 {
		return p.Total
	}
	return len(p.Items)
}

// sspSite is an entry of the SSP (former BASOL) instructions registry.
type sspSite struct {
	ID           string `json:"identifiant_ssp"`
	LegacyID     string `json:"id"`
	Name         string `json:"nom_site"`
	Status       string `json:"statut"`
	Municipality string `json:"nom_commune"`
}

func (s sspSite) item() Item {
	id := firstNonEmpty(s.ID, s.LegacyID)
	return Item{
		ID:    id,
		Label: firstNonEmpty(s.Name, s.Municipality, id, "Site recensé"),
		Kind:  s.Status,
	}
}

// floodZone is an entry of the GASPAR AZI registry.
type floodZone struct {
	Code      string `json:"code_national_azi"`
	Label     string `json:"libelle_azi"`
	Basin     string `json:"libelle_bassin_risques"`
	Start     string `json:"date_debut_programmation"`
	Published string `json:"date_diffusion"`
	Risks     []struct {
		Label string `json:"libelle_risque_long"`
	} `json:"liste_libelle_risque"`
}

func (z floodZone) item() Item {
	kind := ""
	if len(z.Risks) > 0 {
		kind = z.Risks[0].Label
	}
	return Item{
		ID:        z.Code,
		Label:     firstNonEmpty(z.Label, z.Basin, z.Code, "Zone inondable"),
		Kind:      kind,
		StartDate: firstNonEmpty(z.Start, z.Published),
	}
}

// disasterDecree is an entry of the GASPAR CATNAT registry.
type disasterDecree struct {
	Code        string `json:"code_national_catnat"`
	Risk        string `json:"libelle_risque_jo"`
	Start       string `json:"date_debut_evt"`
	End         string `json:"date_fin_evt"`
	Publication string `json:"date_publication_arrete"`
}

func (d disasterDecree) item() Item {
	return Item{
		ID:        d.Code,
		Label:     firstNonEmpty(d.Risk, "Catastrophe naturelle"),
		Kind:      d.Risk,
		StartDate: firstNonEmpty(d.Start, d.Publication),
		EndDate:   d.End,
	}
}

// summarizeByKind counts items per Kind.
func summarizeByKind(items []Item) map[string]int {
	if len(items) == 0 {
		return nil
	}
	out := make(map[string]int)
	for _, it := range items {
		key := strings.TrimSpace(it.Kind)
		if key == "" {
			key = "Non renseigné"
		}
		out[key]++
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
