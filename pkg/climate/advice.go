package climate

import (
	"fmt"
	"math"
	"strings"

	"agriadvisor/entities"
)

// Nutrient content of the straight fertilizers the advice is written for.
const (
	ureaN   = 0.46
	dapP    = 0.46
	potashK = 0.60
)

// IrrigationAdvice derives the irrigation text from the same moisture index
// the irrigation rule uses.
func (g *Generator) IrrigationAdvice(rule CropRule, s entities.SoilSnapshot) string {
	idx, ok := MoistureIndex(rule, s)
	if !ok {
		return "No moisture reading available. Check soil moisture before the next scheduled irrigation."
	}
	if idx < g.th.LowMoisture {
		mm := math.Max(10, math.Round(rule.WeeklyWaterMM*(1-idx/100)))
		return fmt.Sprintf("Apply %.0fmm irrigation within next 24 hours. Early morning preferred.", mm)
	}
	return "Current moisture levels adequate. Next irrigation in 3-4 days."
}

// FertilizerAdvice sizes top-up doses to bring deficient nutrients back to
// the crop optimum, and flags pH outside the crop range.
func (g *Generator) FertilizerAdvice(rule CropRule, s entities.SoilSnapshot) string {
	var doses []string
	for _, d := range NutrientDeficits(rule, s) {
		gap := d.Opt - d.Have
		switch d.Nutrient {
		case "nitrogen":
			doses = append(doses, fmt.Sprintf("Urea %.0fkg/ha", gap/ureaN))
		case "phosphorus":
			doses = append(doses, fmt.Sprintf("DAP %.0fkg/ha", gap/dapP))
		case "potassium":
			doses = append(doses, fmt.Sprintf("Muriate of potash %.0fkg/ha", gap/potashK))
		}
	}
	var b strings.Builder
	if len(doses) > 0 {
		b.WriteString("Apply " + strings.Join(doses, ", ") + " within 5 days.")
	} else {
		b.WriteString("NPK levels adequate. Next fertilizer application in 2 weeks.")
	}
	switch {
	case s.PH < rule.PHMin:
		fmt.Fprintf(&b, " Soil pH %.1f is below the %.1f-%.1f range; apply agricultural lime.", s.PH, rule.PHMin, rule.PHMax)
	case s.PH > rule.PHMax:
		fmt.Fprintf(&b, " Soil pH %.1f is above the %.1f-%.1f range; apply gypsum or elemental sulphur.", s.PH, rule.PHMin, rule.PHMax)
	}
	return b.String()
}

// PestNotes explains a pest probability computed by PestRisk.
func (g *Generator) PestNotes(risk float64, s entities.SoilSnapshot) string {
	switch {
	case risk > g.th.PestRisk:
		return fmt.Sprintf("High pest risk (%.0f%%). Inspect 5 spots per field and apply neem oil spray if infestation is confirmed. Monitor for 7 days.", risk*100)
	case s.HumidityPct == nil || s.TemperatureC == nil:
		return "No humidity or temperature reading; pest risk estimated as low. Continue regular monitoring."
	}
	return "Low pest risk. Continue regular monitoring."
}
