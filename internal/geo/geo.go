// Package geo resolves a free-text place name to a French commune.
package geo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"biomarket-backend/internal/shared/httpx"
	"biomarket-backend/internal/shared/textnorm"
)

const (
	communeFields  = "nom,code,population,codeDepartement,codeRegion,region"
	defaultTimeout = 10 * time.Second
)

// ErrNoMatch is wrapped by LookupError when the registry returns no candidate.
var ErrNoMatch = errors.New("no matching commune")

// LookupError is the hard failure returned by Resolve.
type LookupError struct {
	Place string
	Err   error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("geo lookup %q: %v", e.Place, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// AdministrativeUnit is the canonical identity of the requested place.
type AdministrativeUnit struct {
	Name           string `json:"name"`
	Code           string `json:"code"`
	Population     int    `json:"population"`
	DepartmentCode string `json:"departmentCode"`
	RegionCode     string `json:"regionCode"`
	RegionName     string `json:"regionName"`
}

// Resolver is what the collector depends on.
type Resolver interface {
	Resolve(ctx context.Context, place string) (AdministrativeUnit, error)
}

type commune struct {
	Nom             string `json:"nom"`
	Code            string `json:"code"`
	Population      *int   `json:"population"`
	CodeDepartement string `json:"codeDepartement"`
	CodeRegion      string `json:"codeRegion"`
	Region          *struct {
		Code string `json:"code"`
		Nom  string `json:"nom"`
	} `json:"region"`
}

// Client queries the geo.api.gouv.fr communes endpoint.
type Client struct {
	http    *httpx.Client
	baseURL string
	timeout time.Duration
}

// NewClient builds a geocoder against baseURL (the /communes endpoint). Each
// Resolve is bounded by timeout; zero means 10s.
func NewClient(hc *httpx.Client, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{http: hc, baseURL: baseURL, timeout: timeout}
}

// Resolve returns the best-matching commune for place.
func (c *Client) Resolve(ctx context.Context, place string) (AdministrativeUnit, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return AdministrativeUnit{}, &LookupError{Place: place, Err: ErrNoMatch}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var candidates []commune
	q := url.Values{"nom": {place}, "fields": {communeFields}}
	if err := c.http.GetJSON(ctx, c.baseURL, q, &candidates); err != nil {
		return AdministrativeUnit{}, &LookupError{Place: place, Err: err}
	}

	best, ok := bestMatch(place, candidates)
	if !ok {
		return AdministrativeUnit{}, &LookupError{Place: place, Err: ErrNoMatch}
	}
	return best.unit(), nil
}

// bestMatch applies the matching policy: exact folded name, else the most
// populated substring match, else the most populated candidate overall.
func bestMatch(place string, candidates []commune) (commune, bool) {
	if len(candidates) == 0 {
		return commune{}, false
	}
	target := textnorm.Fold(place)
	if target == "" {
		return candidates[0], true
	}
	for _, c := range candidates {
		if textnorm.Fold(c.Nom) == target {
			return c, true
		}
	}
	var partial []commune
	for _, c := range candidates {
		if strings.Contains(textnorm.Fold(c.Nom), target) {
			partial = append(partial, c)
		}
	}
	if len(partial) > 0 {
		return mostPopulated(partial), true
	}
	return mostPopulated(candidates), true
}

func mostPopulated(list []commune) commune {
	sorted := append([]commune(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].population() > sorted[j].population()
	})
	return sorted[0]
}

func (c commune) population() int {
	if c.Population == nil {
		return 0
	}
	return *c.Population
}

func (c commune) unit() AdministrativeUnit {
	u := AdministrativeUnit{
		Name:           c.Nom,
		Code:           c.Code,
		Population:     c.population(),
		DepartmentCode: c.CodeDepartement,
		RegionCode:     c.CodeRegion,
	}
	if c.Region != nil {
		u.RegionName = c.Region.Nom
		if u.RegionCode == "" {
			u.RegionCode = c.Region.Code
		}
	}
	return u
}
