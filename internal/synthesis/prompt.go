package synthesis

import (
	"encoding/json"
	"strings"

	"biomarket-backend/internal/facts"
)

const promptTemplate = `Tu es un expert en analyse de marché bio. Utilise UNIQUEMENT les données fournies ci-dessous.

DONNÉES (JSON):
{{FACTS}}

Mission: analyser le segment "{{SEGMENT}}" à {{PLACE}}.
Objectif: {{OBJECTIVE}}

RÈGLES STRICTES:
1. Recopie les chiffres tels quels, n'invente aucune valeur.
2. Une croissance négative reste négative.
3. Si une donnée manque, écris "non disponible".
4. Réponds en JSON pur, sans markdown ni texte autour.

Schéma attendu:
{
  "summary": "résumé factuel",
  "kpis": {
    "market": "taille de marché",
    "actors": 0,
    "growth": "+0.0%",
    "potential": "très élevé | élevé | modéré | sous tension | non disponible",
    "trends": {"market": "mot", "actors": "mot", "growth": "mot", "potential": "mot"}
  },
  "keyPoints": ["point"],
  "actors": [{"name": "nom", "type": "type", "market": "part", "growth": "croissance"}],
  "recommendations": [{"title": "titre", "desc": "description", "comment": "justification chiffrée"}],
  "chartData": {"operatorsByActivity": {"labels": ["a"], "values": [1]}}
}`

// BuildPrompt renders the strict-schema prompt for f.
func BuildPrompt(f facts.Facts) string {
	payload, err := json.Marshal(f)
	if err != nil {
		payload = []byte("{}")
	}
	objective := strings.TrimSpace(f.General.Objective)
	if objective == "" {
		objective = "analyse générale"
	}
	place := f.General.Commune
	if place == "" {
		place = f.General.Place
	}
	r := strings.NewReplacer(
		"{{FACTS}}", string(payload),
		"{{SEGMENT}}", f.General.Segment,
		"{{PLACE}}", place,
		"{{OBJECTIVE}}", objective,
	)
	return r.Replace(promptTemplate)
}
