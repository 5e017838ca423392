package synthesis

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"biomarket-backend/internal/facts"
)

const unavailable = "non disponible"

// Potential buckets, from average yearly growth in percent.
const (
	potentialVeryHigh = "très élevé"
	potentialHigh     = "élevé"
	potentialModerate = "modéré"
	potentialStrained = "sous tension"
)

func potentialFor(growth *float64) string {
	if growth == nil {
		return unavailable
	}
	switch g := *growth; {
	case g >= 8:
		return potentialVeryHigh
	case g >= 4:
		return potentialHigh
	case g >= 1:
		return potentialModerate
	default:
		return potentialStrained
	}
}

func growthTrend(growth *float64) string {
	if growth == nil {
		return "Non disponible"
	}
	switch g := *growth; {
	case g >= 15:
		return "Explosive"
	case g >= 10:
		return "Forte"
	case g >= 5:
		return "Modérée"
	case g >= 0:
		return "Faible"
	default:
		return "Décroissante"
	}
}

func actorsTrend(n int) string {
	switch {
	case n > 300:
		return "Croissant"
	case n > 150:
		return "Dynamique"
	case n > 50:
		return "Stable"
	default:
		return "Limité"
	}
}

func potentialTrend(label string) string {
	switch label {
	case potentialVeryHigh:
		return "Exceptionnel"
	case potentialHigh:
		return "Élevé"
	case potentialModerate:
		return "Modéré"
	case potentialStrained:
		return "Limité"
	default:
		return "Non disponible"
	}
}

// parsePercent reads "+12,5%", "-2.3 %" or "8".
func parsePercent(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimPrefix(strings.TrimSpace(s), "+")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

// kpiInputs are the numbers every fallback section reads.
type kpiInputs struct {
	place     string
	segment   string
	growth    *float64
	market    string
	actors    int
	potential string
}

func deriveInputs(f facts.Facts) kpiInputs {
	p := printer()
	in := kpiInputs{
		place:   firstNonEmpty(f.General.Commune, f.General.Place),
		segment: f.General.Segment,
		market:  unavailable,
		actors:  f.Competition.TotalOperators,
	}

	switch {
	case f.Sales.AverageGrowthPct != nil:
		g := *f.Sales.AverageGrowthPct
		in.growth = &g
	case f.Department != nil:
		if g, ok := parsePercent(f.Department.Growth); ok {
			in.growth = &g
		}
	}
	if in.growth == nil && f.Sector != nil {
		if g, ok := parsePercent(f.Sector.AnnualGrowth); ok {
			in.growth = &g
		}
	}

	if last, ok := f.Trade.LatestTrade(); ok {
		in.market = p.Sprintf("%.2f M€", last.TotalMEur)
	} else if f.Department != nil && strings.TrimSpace(f.Department.MarketSize) != "" {
		in.market = strings.TrimSpace(f.Department.MarketSize)
	}
	if in.actors == 0 && f.Department != nil {
		in.actors = f.Department.Operators
	}
	in.potential = potentialFor(in.growth)
	return in
}

func printer() *message.Printer {
	return message.NewPrinter(language.French)
}

func formatGrowth(g *float64) string {
	if g == nil {
		return unavailable
	}
	return printer().Sprintf("%+.2f%%", *g)
}

// buildFallback derives a complete Report from f alone. It never fails and
// every required section is always populated.
func buildFallback(f facts.Facts) Report {
	in := deriveInputs(f)
	return Report{
		Summary:         Text(fallbackSummary(f, in)),
		KPIs:            fallbackKPIs(in),
		KeyPoints:       fallbackKeyPoints(f, in),
		Actors:          fallbackActors(f),
		Recommendations: fallbackRecommendations(f, in),
		ChartData:       fallbackCharts(f),
	}
}

func fallbackKPIs(in kpiInputs) KPIs {
	return KPIs{
		Market:    Text(in.market),
		Actors:    itoa(in.actors),
		Growth:    Text(formatGrowth(in.growth)),
		Potential: Text(in.potential),
		Trends: Trends{
			Market:    Text(growthTrend(in.growth)),
			Actors:    Text(actorsTrend(in.actors)),
			Growth:    Text(growthTrend(in.growth)),
			Potential: Text(potentialTrend(in.potential)),
		},
	}
}

func fallbackSummary(f facts.Facts, in kpiInputs) string {
	p := printer()
	var b strings.Builder
	b.WriteString(p.Sprintf("Cette analyse du segment « %s » à %s", in.segment, in.place))
	if f.General.Region != "" {
		b.WriteString(p.Sprintf(" (%s)", f.General.Region))
	}
	b.WriteString(p.Sprintf(" révèle un marché estimé à %s avec %d opérateurs bio recensés. ", in.market, in.actors))

	switch {
	case in.growth == nil:
		b.WriteString("Les données de croissance ne sont pas disponibles. ")
	case *in.growth < 0:
		b.WriteString(p.Sprintf("Le marché recule de %.2f %% par an, avec un potentiel %s. ", -*in.growth, in.potential))
	default:
		b.WriteString(p.Sprintf("La croissance moyenne atteint %s par an, pour un potentiel %s. ", formatGrowth(in.growth), in.potential))
	}
	if f.Department != nil && len(f.Department.Specialties) > 0 {
		b.WriteString("Les spécialités locales incluent " + strings.Join(f.Department.Specialties, ", ") + ". ")
	}
	if hasNotableRisk(f.Risks) {
		b.WriteString("Attention aux risques environnementaux (" + riskSentence(f.Risks) + "). ")
	}
	switch {
	case in.growth == nil:
		b.WriteString("Une validation terrain est recommandée avant tout investissement.")
	case *in.growth < 1:
		b.WriteString("Le marché présente des défis importants nécessitant une stratégie adaptée.")
	default:
		b.WriteString("Le marché présente des opportunités stratégiques importantes.")
	}
	return b.String()
}

func fallbackKeyPoints(f facts.Facts, in kpiInputs) TextList {
	p := printer()
	var points TextList
	if f.General.Population > 0 {
		points = append(points, Text(p.Sprintf("%s compte %d habitants.", in.place, f.General.Population)))
	}
	if c := f.Competition; c.TotalOperators > 0 {
		line := p.Sprintf("%d opérateurs bio recensés localement, dont %d concurrents directs.", c.TotalOperators, c.DirectCompetitors)
		if len(c.TopActivities) > 0 {
			top := c.TopActivities[0]
			line += p.Sprintf(" Activité dominante : %s (%d).", top.Label, top.Count)
		}
		points = append(points, Text(line))
	}
	if s := f.Sales; s.Period != nil && s.AverageGrowthPct != nil {
		points = append(points, Text(p.Sprintf("Ventes bio : évolution moyenne de %s par an entre %s et %s.", formatGrowth(s.AverageGrowthPct), strconv.Itoa(s.Period.Start), strconv.Itoa(s.Period.End))))
	}
	if n := len(f.RegionalProduction); n > 0 {
		last := f.RegionalProduction[n-1]
		points = append(points, Text(p.Sprintf("Production régionale %s : %.0f ha cultivés par %d fermes bio.", strconv.Itoa(last.Year), last.SurfaceHa, last.Farms)))
	}
	if last, ok := f.Trade.LatestTrade(); ok {
		points = append(points, Text(p.Sprintf("Commerce extérieur bio %s : %.2f M€.", strconv.Itoa(last.Year), last.TotalMEur)))
	}
	if hasAnyRisk(f.Risks) {
		points = append(points, Text("Risques locaux : "+riskSentence(f.Risks)+"."))
	}
	for _, trend := range f.MarketTrends {
		if len(points) >= 6 {
			break
		}
		if strings.TrimSpace(trend) != "" {
			points = append(points, Text(trend))
		}
	}
	if len(points) == 0 {
		points = TextList{Text("Données locales " + unavailable + " : analyse à compléter par une étude terrain.")}
	}
	return points
}

func fallbackActors(f facts.Facts) []Actor {
	actors := make([]Actor, 0, len(f.Competition.Samples))
	for _, op := range f.Competition.Samples {
		actors = append(actors, Actor{
			Name:   Text(op.Name),
			Type:   Text(firstNonEmpty(op.Activity, op.Category)),
			Market: Text(firstNonEmpty(op.City, "local")),
			Growth: unavailable,
		})
	}
	if len(actors) > 0 {
		return actors
	}
	for _, a := range f.NationalActors {
		actors = append(actors, Actor{
			Name:   Text(a.Name),
			Type:   Text(a.Type),
			Market: Text(firstNonEmpty(a.MarketShare, unavailable)),
			Growth: Text(firstNonEmpty(a.Growth, unavailable)),
		})
	}
	return actors
}

func fallbackRecommendations(f facts.Facts, in kpiInputs) []Recommendation {
	p := printer()
	supply := Recommendation{
		Title: "Structurer l'approvisionnement local",
		Desc:  "Nouer des partenariats avec les producteurs et transformateurs bio du territoire pour sécuriser volumes et marges.",
	}
	if f.Competition.TotalOperators > 0 {
		supply.Comment = Text(p.Sprintf("Avec %d opérateurs bio recensés à %s, les circuits courts sont directement accessibles.", f.Competition.TotalOperators, in.place))
	} else {
		supply.Comment = "Peu d'opérateurs sont recensés localement : la filière d'approvisionnement est à construire."
	}
	recs := []Recommendation{supply}

	if in.growth != nil {
		growth := Recommendation{
			Title: "Accélérer sur la croissance du segment",
			Desc:  Text(p.Sprintf("Aligner l'offre « %s » sur la dynamique observée et planifier les capacités en conséquence.", in.segment)),
		}
		if *in.growth < 0 {
			growth.Comment = Text(p.Sprintf("Le marché recule (%s) : cibler les niches à forte valeur avant d'investir en volume.", formatGrowth(in.growth)))
		} else {
			growth.Comment = Text(p.Sprintf("La croissance moyenne de %s soutient un potentiel %s.", formatGrowth(in.growth), in.potential))
		}
		recs = append(recs, growth)
	}

	if f.Competition.DirectCompetitors > 0 {
		recs = append(recs, Recommendation{
			Title:   "Se différencier face à la concurrence",
			Desc:    "Miser sur les labels, la traçabilité et le service pour se distinguer des acteurs déjà installés.",
			Comment: Text(p.Sprintf("%d concurrents directs identifiés sur le segment.", f.Competition.DirectCompetitors)),
		})
	}

	risk := Recommendation{
		Title: "Anticiper les risques environnementaux",
		Desc:  "Intégrer les risques recensés dans le choix des sites, les assurances et le plan de continuité.",
	}
	if hasAnyRisk(f.Risks) {
		risk.Comment = Text("Risques recensés : " + riskSentence(f.Risks) + ".")
	} else {
		risk.Comment = "Aucun risque majeur recensé ; une veille réglementaire reste nécessaire."
	}
	return append(recs, risk)
}

func fallbackCharts(f facts.Facts) map[string]any {
	byActivity := Series{Labels: []string{}, Values: []float64{}}
	for _, c := range f.Competition.TopActivities {
		byActivity.Labels = append(byActivity.Labels, c.Label)
		byActivity.Values = append(byActivity.Values, float64(c.Count))
	}
	byCategory := Series{Labels: []string{}, Values: []float64{}}
	for _, c := range f.Competition.TopCategories {
		byCategory.Labels = append(byCategory.Labels, c.Label)
		byCategory.Values = append(byCategory.Values, float64(c.Count))
	}
	trade := Series{Labels: []string{}, Values: []float64{}}
	for _, d := range f.Trade.Details {
		trade.Labels = append(trade.Labels, strconv.Itoa(d.Year))
		trade.Values = append(trade.Values, d.TotalMEur)
	}
	sales := Series{Labels: []string{}, Values: []float64{}}
	for _, d := range f.Sales.Details {
		sales.Labels = append(sales.Labels, strconv.Itoa(d.Year))
		sales.Values = append(sales.Values, d.AverageGrowthPct)
	}
	return map[string]any{
		"operatorsByActivity": byActivity,
		"operatorsByCategory": byCategory,
		"tradeTotals":         trade,
		"salesGrowth":         sales,
	}
}

func hasAnyRisk(r facts.Risks) bool {
	return r.Pollution.Total > 0 || r.Flood.Total > 0 || r.Disasters.Total > 0
}

func hasNotableRisk(r facts.Risks) bool {
	return r.Pollution.Total > 0 || r.Flood.Total > 0 || r.Disasters.Total >= 3
}

func riskSentence(r facts.Risks) string {
	p := printer()
	flood := "non"
	if r.Flood.Total > 0 {
		flood = "oui"
	}
	s := p.Sprintf("%d sites pollués, zones inondables : %s, %d arrêtés de catastrophe naturelle", r.Pollution.Total, flood, r.Disasters.Total)
	if len(r.RecentEvents) > 0 {
		ev := r.RecentEvents[0]
		s += " (dernier : " + ev.Label
		if ev.StartDate != "" {
			s += ", " + ev.StartDate
		}
		s += ")"
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
