package climate

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"agriadvisor/entities"
)

// CropRule holds the per-crop constants every rule and estimator reads.
// Nutrients are kg/ha, yield is quintals/ha.
type CropRule struct {
	Crop          entities.CropType
	BaseYieldQHa  float64
	MinN          float64
	MinP          float64
	MinK          float64
	OptN          float64
	OptP          float64
	OptK          float64
	PHMin         float64
	PHMax         float64
	WeeklyWaterMM float64
	PestBaseRate  float64
}

// Rules is a read-only crop table. Safe for concurrent use once loaded.
type Rules struct {
	crops map[entities.CropType]CropRule
}

var defaultRules = []CropRule{
	{Crop: entities.CropWheat, BaseYieldQHa: 45, MinN: 50, MinP: 25, MinK: 30, OptN: 120, OptP: 60, OptK: 60, PHMin: 6.0, PHMax: 7.5, WeeklyWaterMM: 30, PestBaseRate: 0.45},
	{Crop: entities.CropRice, BaseYieldQHa: 50, MinN: 60, MinP: 20, MinK: 30, OptN: 120, OptP: 50, OptK: 60, PHMin: 5.5, PHMax: 7.0, WeeklyWaterMM: 60, PestBaseRate: 0.55},
	{Crop: entities.CropCorn, BaseYieldQHa: 60, MinN: 70, MinP: 30, MinK: 40, OptN: 150, OptP: 70, OptK: 80, PHMin: 5.8, PHMax: 7.2, WeeklyWaterMM: 35, PestBaseRate: 0.50},
	{Crop: entities.CropSugarcane, BaseYieldQHa: 700, MinN: 80, MinP: 30, MinK: 60, OptN: 200, OptP: 80, OptK: 120, PHMin: 6.0, PHMax: 7.5, WeeklyWaterMM: 45, PestBaseRate: 0.40},
	{Crop: entities.CropCotton, BaseYieldQHa: 25, MinN: 50, MinP: 20, MinK: 30, OptN: 100, OptP: 50, OptK: 60, PHMin: 5.8, PHMax: 8.0, WeeklyWaterMM: 35, PestBaseRate: 0.65},
	{Crop: entities.CropSoybean, BaseYieldQHa: 28, MinN: 20, MinP: 25, MinK: 30, OptN: 40, OptP: 60, OptK: 60, PHMin: 6.0, PHMax: 7.0, WeeklyWaterMM: 30, PestBaseRate: 0.50},
}

// Default returns the built-in crop table.
func Default() *Rules {
	r := &Rules{crops: make(map[entities.CropType]CropRule, len(defaultRules))}
	for _, c := range defaultRules {
		r.crops[c.Crop] = c
	}
	return r
}

// LoadFromFiles starts from the built-in table and applies overrides from a
// CSV file and then an XLSX workbook. Empty paths are skipped.
func LoadFromFiles(cropCSV, cropXLSX string) (*Rules, error) {
	r := Default()
	if cropCSV != "" {
		f, err := os.Open(cropCSV)
		if err != nil {
			return nil, eris.Wrapf(err, "climate: open %s", cropCSV)
		}
		defer f.Close()
		if err := r.loadCSV(f); err != nil {
			return nil, eris.Wrapf(err, "climate: load %s", cropCSV)
		}
	}
	if cropXLSX != "" {
		if err := r.loadXLSX(cropXLSX); err != nil {
			return nil, eris.Wrapf(err, "climate: load %s", cropXLSX)
		}
	}
	return r, nil
}

// Rule returns the rule for a crop.
func (r *Rules) Rule(c entities.CropType) (CropRule, bool) {
	rule, ok := r.crops[c]
	return rule, ok
}

// All returns every rule ordered by crop name.
func (r *Rules) All() []CropRule {
	out := make([]CropRule, 0, len(r.crops))
	for _, c := range r.crops {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Crop < out[j].Crop })
	return out
}

func (r *Rules) loadCSV(in io.Reader) error {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	head, err := cr.Read()
	if err != nil {
		return err
	}
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		rows = append(rows, rec)
	}
	return r.applyRows(head, rows)
}

func (r *Rules) loadXLSX(path string) error {
	x, err := excelize.OpenFile(path)
	if err != nil {
		return err
	}
	defer x.Close()
	sheets := x.GetSheetList()
	if len(sheets) == 0 {
		return eris.New("workbook has no sheets")
	}
	rows, err := x.GetRows(sheets[0])
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return r.applyRows(rows[0], rows[1:])
}

// applyRows merges table rows into the rule set. Headers are matched
// loosely (case, spaces, dashes, underscores and a BOM are ignored) and
// several aliases are accepted per column. Blank cells keep the existing
// value, so an override sheet may set a single column.
func (r *Rules) applyRows(head []string, rows [][]string) error {
	norm := func(s string) string {
		s = strings.TrimSpace(s)
		s = strings.TrimPrefix(s, "\uFEFF")
		s = strings.ToLower(s)
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, "-", "")
		s = strings.ReplaceAll(s, "_", "")
		return s
	}
	hmap := map[string]int{}
	for i, h := range head {
		hmap[norm(h)] = i
	}
	findAny := func(keys ...string) int {
		for _, k := range keys {
			if idx, ok := hmap[norm(k)]; ok {
				return idx
			}
		}
		return -1
	}

	cCrop := findAny("crop", "crop_type", "croptype")
	if cCrop == -1 {
		return eris.Errorf("crop rules missing crop column, found headers: %v", head)
	}
	cols := []struct {
		idx int
		set func(*CropRule, float64)
	}{
		{findAny("base_yield_q_ha", "base_yield", "yield"), func(c *CropRule, v float64) { c.BaseYieldQHa = v }},
		{findAny("n_min", "min_n", "nitrogen_min"), func(c *CropRule, v float64) { c.MinN = v }},
		{findAny("p_min", "min_p", "phosphorus_min"), func(c *CropRule, v float64) { c.MinP = v }},
		{findAny("k_min", "min_k", "potassium_min"), func(c *CropRule, v float64) { c.MinK = v }},
		{findAny("n_opt", "opt_n", "nitrogen_opt"), func(c *CropRule, v float64) { c.OptN = v }},
		{findAny("p_opt", "opt_p", "phosphorus_opt"), func(c *CropRule, v float64) { c.OptP = v }},
		{findAny("k_opt", "opt_k", "potassium_opt"), func(c *CropRule, v float64) { c.OptK = v }},
		{findAny("ph_min", "min_ph"), func(c *CropRule, v float64) { c.PHMin = v }},
		{findAny("ph_max", "max_ph"), func(c *CropRule, v float64) { c.PHMax = v }},
		{findAny("weekly_water_mm", "water_mm_week", "water_need_mm"), func(c *CropRule, v float64) { c.WeeklyWaterMM = v }},
		{findAny("pest_base_rate", "pest_rate", "pest_base"), func(c *CropRule, v float64) { c.PestBaseRate = v }},
	}

	for line, rec := range rows {
		get := func(idx int) string {
			if idx < 0 || idx >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[idx])
		}
		crop := entities.CropType(strings.ToLower(get(cCrop)))
		if crop == "" {
			continue
		}
		if !crop.Valid() {
			return eris.Errorf("row %d: unknown crop %q", line+2, crop)
		}
		rule, ok := r.crops[crop]
		if !ok {
			rule = CropRule{Crop: crop}
		}
		for _, col := range cols {
			raw := get(col.idx)
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return eris.Wrapf(err, "row %d: %s", line+2, head[col.idx])
			}
			col.set(&rule, v)
		}
		if err := rule.validate(); err != nil {
			return eris.Wrapf(err, "row %d", line+2)
		}
		r.crops[crop] = rule
	}
	return nil
}

func (c CropRule) validate() error {
	switch {
	case c.BaseYieldQHa < 0:
		return eris.Errorf("%s: base yield must not be negative", c.Crop)
	case c.MinN < 0 || c.MinP < 0 || c.MinK < 0:
		return eris.Errorf("%s: nutrient minimums must not be negative", c.Crop)
	case c.OptN <= 0 || c.OptP <= 0 || c.OptK <= 0:
		return eris.Errorf("%s: nutrient optimums must be positive", c.Crop)
	case c.PHMin < 0 || c.PHMax > 14 || c.PHMin > c.PHMax:
		return eris.Errorf("%s: pH range %.1f-%.1f is invalid", c.Crop, c.PHMin, c.PHMax)
	case c.WeeklyWaterMM <= 0:
		return eris.Errorf("%s: weekly water need must be positive", c.Crop)
	case c.PestBaseRate < 0 || c.PestBaseRate > 1:
		return eris.Errorf("%s: pest base rate must be within [0,1]", c.Crop)
	}
	return nil
}
