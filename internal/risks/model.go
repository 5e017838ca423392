// Package risks aggregates environmental-risk registries for a commune.
package risks

// Category is one of the fixed risk families.
type Category string

const (
	Pollution Category = "pollution"
	Flood     Category = "flood"
	Disasters Category = "disasters"
)

// Categories is the complete, ordered category set every Report carries.
var Categories = []Category{Pollution, Flood, Disasters}

// Source tags where a Record's figures came from.
type Source string

const (
	SourceLive    Source = "live_api"
	SourceOffline Source = "offline_dataset"
)

// Item is one registry entry, reduced to what downstream consumers read.
type Item struct {
	ID        string `json:"id,omitempty"`
	Label     string `json:"label"`
	Kind      string `json:"kind,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// Record is the outcome for one category. Total is never negative.
type Record struct {
	Category Category       `json:"category"`
	Total    int            `json:"total"`
	Items    []Item         `json:"items"`
	Label    string         `json:"label,omitempty"`
	Summary  map[string]int `json:"summary,omitempty"`
	Source   Source         `json:"source"`
	Error    string         `json:"error,omitempty"`
}

// Report holds exactly one Record per Category.
type Report struct {
	CommuneCode string              `json:"communeCode"`
	Records     map[Category]Record `json:"records"`
}

// Get returns the record for c, or an empty live record if absent.
func (r Report) Get(c Category) Record {
	if rec, ok := r.Records[c]; ok {
		return rec
	}
	return emptyRecord(c, "")
}

func emptyRecord(c Category, reason string) Record {
	return Record{Category: c, Items: []Item{}, Source: SourceLive, Error: reason}
}

// levelFor maps a live count to a coarse label.
func levelFor(c Category, total int) string {
	switch {
	case total <= 0:
		return ""
	case c == Flood:
		return "Zone inondable recensée"
	case total >= 10:
		return "Élevé"
	case total >= 3:
		return "Modéré"
	default:
		return "Faible"
	}
}

// EmptyReport has every category empty, each tagged with reason.
func EmptyReport(communeCode, reason string) Report {
	r := Report{CommuneCode: communeCode, Records: make(map[Category]Record, len(Categories))}
	for _, c := range Categories {
		r.Records[c] = emptyRecord(c, reason)
	}
	return r
}
