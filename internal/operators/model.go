// Package operators indexes the local directory of organic-market operators.
package operators

// Location is an optional geocoordinate.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Record is one operator, normalized at ingestion.
type Record struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Activity   string    `json:"activity"`
	Category   string    `json:"category"`
	City       string    `json:"city"`
	Activities []string  `json:"activities"`
	Categories []string  `json:"categories"`
	Segments   []string  `json:"segments"`
	Labels     []string  `json:"labels"`
	Site       string    `json:"site,omitempty"`
	Contact    string    `json:"contact,omitempty"`
	Address    string    `json:"address,omitempty"`
	PostalCode string    `json:"postalCode,omitempty"`
	District   string    `json:"district,omitempty"`
	UpdatedAt  string    `json:"updatedAt,omitempty"`
	Location   *Location `json:"location,omitempty"`
}

// Competition summarizes the operators of one city for a segment.
type Competition struct {
	TotalOperators    int            `json:"totalOperators"`
	DirectCompetitors int            `json:"directCompetitors"`
	Competitors       []Record       `json:"competitors"`
	ActivityBreakdown map[string]int `json:"activityBreakdown"`
	Operators         []Record       `json:"operators"`
}

const (
	unknownLabel   = "Non renseigné"
	defaultName    = "Opérateur local"
	maxCompetitors = 25
	minTokenLen    = 4
)
