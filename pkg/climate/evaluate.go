package climate

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"agriadvisor/entities"
)

// Generator turns a snapshot into alert drafts. It holds no mutable state,
// so Evaluate may be called repeatedly and concurrently.
type Generator struct {
	rules *Rules
	th    Thresholds
}

func NewGenerator(rules *Rules, th Thresholds) *Generator {
	if rules == nil {
		rules = Default()
	}
	return &Generator{rules: rules, th: th}
}

func (g *Generator) Rules() *Rules          { return g.rules }
func (g *Generator) Thresholds() Thresholds { return g.th }

// Evaluate runs one rule per alert type and returns at most one draft per
// type, ordered irrigation, fertilizer, pest, weather.
func (g *Generator) Evaluate(f entities.Field, s entities.SoilSnapshot) ([]entities.AlertDraft, error) {
	rule, ok := g.rules.Rule(f.CropType)
	if !ok {
		return nil, eris.Errorf("no crop rule for %q", f.CropType)
	}
	var out []entities.AlertDraft

	if idx, ok := MoistureIndex(rule, s); ok && idx < g.th.LowMoisture {
		out = append(out, entities.AlertDraft{
			Type:     entities.AlertIrrigation,
			Priority: entities.SeverityHigh,
			Title:    "Irrigation Required",
			Message: fmt.Sprintf("Soil moisture index %.1f is below %.1f. Irrigation recommended within 24 hours.",
				idx, g.th.LowMoisture),
		})
	}

	if defs := NutrientDeficits(rule, s); len(defs) > 0 {
		parts := make([]string, 0, len(defs))
		for _, d := range defs {
			parts = append(parts, fmt.Sprintf("%s %.1f kg/ha is below the %s minimum of %.1f kg/ha",
				d.Nutrient, d.Have, f.CropType, d.Min))
		}
		out = append(out, entities.AlertDraft{
			Type:     entities.AlertFertilizer,
			Priority: entities.SeverityMedium,
			Title:    "Fertilizer Required",
			Message:  capitalize(strings.Join(parts, "; ")) + ".",
		})
	}

	if risk := PestRisk(rule, s); risk > g.th.PestRisk {
		prio := entities.SeverityMedium
		msg := fmt.Sprintf("Pest risk %.2f exceeds %.2f. Weather conditions favorable for infestation. Monitor closely.",
			risk, g.th.PestRisk)
		if CompoundingWeather(s) {
			prio = entities.SeverityHigh
			msg += " Heavy rain or severe weather increases the risk."
		}
		out = append(out, entities.AlertDraft{
			Type:     entities.AlertPest,
			Priority: prio,
			Title:    "Pest Risk Detected",
			Message:  msg,
		})
	}

	if d, ok := EvaluateWeather(s.Warnings); ok {
		out = append(out, d)
	}
	return out, nil
}

// EvaluateWeather packages externally supplied warnings into one weather
// draft whose priority is the highest warning severity.
func EvaluateWeather(ws []entities.WeatherWarning) (entities.AlertDraft, bool) {
	if len(ws) == 0 {
		return entities.AlertDraft{}, false
	}
	prio := entities.SeverityLow
	msgs := make([]string, 0, len(ws))
	for _, w := range ws {
		if w.Severity.Rank() > prio.Rank() {
			prio = w.Severity
		}
		m := strings.TrimSpace(w.Message)
		if m == "" {
			m = w.Kind
		}
		msgs = append(msgs, m)
	}
	return entities.AlertDraft{
		Type:     entities.AlertWeather,
		Priority: prio,
		Title:    "Severe Weather Warning",
		Message:  strings.Join(msgs, " "),
	}, true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
