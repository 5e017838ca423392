// Package reference holds the offline open-data snapshot loaded at startup:
// department profiles with risk levels, sector shares and national actors.
package reference

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"biomarket-backend/internal/shared/textnorm"
)

// Department is the offline profile of one département.
type Department struct {
	Code           string   `json:"code"`
	Name           string   `json:"name"`
	Population     int      `json:"population,omitempty"`
	Operators      int      `json:"operators,omitempty"`
	Producers      int      `json:"producers,omitempty"`
	Processors     int      `json:"processors,omitempty"`
	Distributors   int      `json:"distributors,omitempty"`
	MarketSize     string   `json:"marketSize,omitempty"`
	Growth         string   `json:"growth,omitempty"`
	Potential      string   `json:"potential,omitempty"`
	Specialties    []string `json:"specialties,omitempty"`
	PollutionLevel string   `json:"pollutionLevel,omitempty"`
	FloodLevel     string   `json:"floodLevel,omitempty"`
	DroughtEvents  int      `json:"droughtEvents"`
	FloodEvents    int      `json:"floodEvents"`
	PollutedSites  int      `json:"pollutedSites"`
	FloodZones     int      `json:"floodZones"`
}

// Sector is the national profile of a market segment.
type Sector struct {
	Name          string `json:"name"`
	NationalShare string `json:"nationalShare,omitempty"`
	AnnualGrowth  string `json:"annualGrowth,omitempty"`
}

// Actor is a national market player.
type Actor struct {
	Name        string `json:"name"`
	MarketShare string `json:"marketShare,omitempty"`
	Type        string `json:"type,omitempty"`
	Growth      string `json:"growth,omitempty"`
}

// Dataset is immutable after Load.
type Dataset struct {
	departments map[string]Department
	sectors     map[string]Sector
	actors      []Actor
	trends      []string
}

// Empty returns a dataset with no entries.
func Empty() *Dataset {
	return &Dataset{departments: map[string]Department{}, sectors: map[string]Sector{}}
}

type rawDataset struct {
	Departements     map[string]rawDepartment `json:"departements" yaml:"departements"`
	Secteurs         map[string]rawSector     `json:"secteurs" yaml:"secteurs"`
	ActeursNationaux []rawActor               `json:"acteurs_nationaux" yaml:"acteurs_nationaux"`
	TendancesMarche  []string                 `json:"tendances_marche" yaml:"tendances_marche"`
}

type rawDepartment struct {
	Population   flexInt `json:"population" yaml:"population"`
	NbOperateurs flexInt `json:"nb_operateurs_bio_total" yaml:"nb_operateurs_bio_total"`
	Ventilation  struct {
		Producteurs     flexInt `json:"producteurs" yaml:"producteurs"`
		Transformateurs flexInt `json:"transformateurs" yaml:"transformateurs"`
		Distributeurs   flexInt `json:"distributeurs" yaml:"distributeurs"`
	} `json:"ventilation_acteurs" yaml:"ventilation_acteurs"`
	TailleMarche     string   `json:"taille_marche" yaml:"taille_marche"`
	Croissance       string   `json:"croissance" yaml:"croissance"`
	Potentiel        string   `json:"potentiel" yaml:"potentiel"`
	Specialites      []string `json:"specialites" yaml:"specialites"`
	RisquePollution  string   `json:"risque_pollution_basol" yaml:"risque_pollution_basol"`
	RisqueInondation string   `json:"risque_inondation_azi" yaml:"risque_inondation_azi"`
	HistSecheresse   flexInt  `json:"hist_secheresse_catnat" yaml:"hist_secheresse_catnat"`
	HistInondation   flexInt  `json:"hist_inondation_catnat" yaml:"hist_inondation_catnat"`
	NbSitesBasol     flexInt  `json:"nb_sites_basol" yaml:"nb_sites_basol"`
	NbZonesAZI       flexInt  `json:"nb_zones_azi" yaml:"nb_zones_azi"`
}

type rawSector struct {
	PartMarche string `json:"part_marche_national" yaml:"part_marche_national"`
	Croissance string `json:"croissance_annuelle" yaml:"croissance_annuelle"`
}

type rawActor struct {
	Nom        string `json:"nom" yaml:"nom"`
	PartMarche string `json:"part_marche" yaml:"part_marche"`
	Type       string `json:"type" yaml:"type"`
	Croissance string `json:"croissance" yaml:"croissance"`
}

// Load reads a JSON or YAML snapshot (chosen by file extension).
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference dataset: %w", err)
	}
	var raw rawDataset
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parse reference dataset: %w", err)
	}
	return build(raw), nil
}

func build(raw rawDataset) *Dataset {
	ds := Empty()
	for key, d := range raw.Departements {
		code, name := splitDepartmentKey(key)
		if code == "" {
			continue
		}
		ds.departments[code] = Department{
			Code:           code,
			Name:           name,
			Population:     int(d.Population),
			Operators:      int(d.NbOperateurs),
			Producers:      int(d.Ventilation.Producteurs),
			Processors:     int(d.Ventilation.Transformateurs),
			Distributors:   int(d.Ventilation.Distributeurs),
			MarketSize:     strings.TrimSpace(d.TailleMarche),
			Growth:         strings.TrimSpace(d.Croissance),
			Potential:      strings.TrimSpace(d.Potentiel),
			Specialties:    d.Specialites,
			PollutionLevel: strings.TrimSpace(d.RisquePollution),
			FloodLevel:     strings.TrimSpace(d.RisqueInondation),
			DroughtEvents:  nonNegative(int(d.HistSecheresse)),
			FloodEvents:    nonNegative(int(d.HistInondation)),
			PollutedSites:  nonNegative(int(d.NbSitesBasol)),
			FloodZones:     nonNegative(int(d.NbZonesAZI)),
		}
	}
	for name, s := range raw.Secteurs {
		ds.sectors[textnorm.Fold(name)] = Sector{Name: name, NationalShare: s.PartMarche, AnnualGrowth: s.Croissance}
	}
	for _, a := range raw.ActeursNationaux {
		if strings.TrimSpace(a.Nom) == "" {
			continue
		}
		ds.actors = append(ds.actors, Actor{Name: a.Nom, MarketShare: a.PartMarche, Type: a.Type, Growth: a.Croissance})
	}
	ds.trends = append(ds.trends, raw.TendancesMarche...)
	return ds
}

// splitDepartmentKey parses "75 - Paris" or "2A-Corse-du-Sud" into code and name.
// The code is the leading token up to the first space or hyphen.
func splitDepartmentKey(key string) (string, string) {
	key = strings.TrimSpace(key)
	idx := strings.IndexAny(key, " -")
	if idx <= 0 {
		return NormalizeDepartmentCode(key), ""
	}
	code := NormalizeDepartmentCode(key[:idx])
	name := strings.TrimSpace(strings.TrimLeft(key[idx:], " -"))
	return code, name
}

// NormalizeDepartmentCode upper-cases and zero-pads single-digit codes ("1" -> "01").
func NormalizeDepartmentCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) == 1 && code[0] >= '0' && code[0] <= '9' {
		return "0" + code
	}
	return code
}

// Department returns the profile for an exact department code.
func (d *Dataset) Department(code string) (Department, bool) {
	if d == nil {
		return Department{}, false
	}
	dep, ok := d.departments[NormalizeDepartmentCode(code)]
	return dep, ok
}

// Sector returns the national profile of a segment, matched case- and accent-insensitively.
func (d *Dataset) Sector(name string) (Sector, bool) {
	if d == nil {
		return Sector{}, false
	}
	s, ok := d.sectors[textnorm.Fold(name)]
	return s, ok
}

// NationalActors returns up to n national actors in dataset order.
func (d *Dataset) NationalActors(n int) []Actor {
	if d == nil || n <= 0 {
		return nil
	}
	if n > len(d.actors) {
		n = len(d.actors)
	}
	return append([]Actor(nil), d.actors[:n]...)
}

// MarketTrends returns up to n national trend statements.
func (d *Dataset) MarketTrends(n int) []string {
	if d == nil || n <= 0 {
		return nil
	}
	if n > len(d.trends) {
		n = len(d.trends)
	}
	return append([]string(nil), d.trends[:n]...)
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
