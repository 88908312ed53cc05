// Package risk implements the multi-dimensional supplier scoring engine:
// reference tables, the dimension calculator, the weighted aggregator, and
// the threshold alert generator.
package risk

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/supplier-risk/internal/model"
)

// Tables is the static reference data the calculator scores against. It is
// constructed once at startup and never mutated; tests substitute fixture
// tables through the same constructor path.
type Tables struct {
	// CountryRisk maps canonical country names to a location risk score.
	CountryRisk map[string]int `yaml:"country_risk"`
	// SectorRisk maps the first three characters of an industry code to a
	// sector risk score.
	SectorRisk map[string]int `yaml:"sector_risk"`
	// CertificationDeltas adjust per-site risk for recognized certifications.
	CertificationDeltas map[string]int `yaml:"certification_deltas"`
	// FacilityTypeDeltas adjust per-site risk by facility type.
	FacilityTypeDeltas map[string]int `yaml:"facility_type_deltas"`
	// QuestionImpacts maps category -> question key -> normalized answer ->
	// dimension delta.
	QuestionImpacts map[model.Category]map[string]map[string]int `yaml:"question_impacts"`
}

const (
	// unknownCountryRisk is used when a country has no table entry.
	unknownCountryRisk = 50
	// noSectorRisk is used when a supplier has no industry code at all.
	noSectorRisk = 40
	// unmappedSectorRisk is used when the code's prefix has no table entry.
	// Deliberately distinct from noSectorRisk.
	unmappedSectorRisk = 50
)

var countryCaser = cases.Title(language.English)

// DefaultTables returns the built-in reference data.
func DefaultTables() *Tables {
	return &Tables{
		CountryRisk: map[string]int{
			"Germany":        10,
			"France":         12,
			"Netherlands":    12,
			"Austria":        12,
			"Sweden":         10,
			"Denmark":        10,
			"Switzerland":    10,
			"United Kingdom": 15,
			"United States":  18,
			"Canada":         15,
			"Japan":          15,
			"South Korea":    22,
			"Poland":         25,
			"Czechia":        25,
			"Spain":          20,
			"Italy":          22,
			"Portugal":       20,
			"Turkey":         48,
			"Mexico":         45,
			"Brazil":         50,
			"India":          55,
			"Vietnam":        52,
			"Indonesia":      55,
			"Thailand":       48,
			"Malaysia":       42,
			"China":          58,
			"Bangladesh":     70,
			"Pakistan":       68,
			"Ethiopia":       72,
			"Nigeria":        70,
			"Myanmar":        85,
			"Eritrea":        88,
			"North Korea":    95,
		},
		SectorRisk: map[string]int{
			"A01": 55, // crop and animal production
			"A02": 60, // forestry and logging
			"B05": 75, // mining of coal
			"B07": 78, // mining of metal ores
			"B08": 65, // other mining and quarrying
			"C10": 40, // food products
			"C13": 58, // textiles
			"C14": 62, // wearing apparel
			"C15": 60, // leather
			"C16": 50, // wood products
			"C17": 45, // paper
			"C19": 70, // coke and refined petroleum
			"C20": 65, // chemicals
			"C21": 55, // pharmaceuticals
			"C22": 48, // rubber and plastics
			"C23": 50, // other non-metallic minerals
			"C24": 60, // basic metals
			"C25": 45, // fabricated metal products
			"C26": 42, // computer and electronics
			"C27": 40, // electrical equipment
			"C28": 35, // machinery
			"C29": 38, // motor vehicles
			"C31": 45, // furniture
			"E38": 55, // waste collection and treatment
			"F41": 45, // construction of buildings
			"G46": 30, // wholesale trade
			"H49": 35, // land transport
			"J62": 15, // software and IT services
			"M71": 18, // engineering services
		},
		CertificationDeltas: map[string]int{
			"ISO14001":  -5,
			"ISO45001":  -5,
			"SA8000":    -8,
			"FSC":       -5,
			"BSCI":      -5,
			"SMETA":     -5,
			"Fairtrade": -6,
			"RSPO":      -4,
		},
		FacilityTypeDeltas: map[string]int{
			"office":          -10,
			"warehouse":       -5,
			"assembly":        0,
			"factory":         5,
			"chemical_plant":  15,
			"smelter":         20,
			"mine":            25,
			"tannery":         18,
			"dye_house":       15,
			"recycling_plant": 10,
		},
		QuestionImpacts: map[model.Category]map[string]map[string]int{
			model.CategoryChemicalContent: {
				"uses_pfas":             {"yes": 15},
				"uses_svhc":             {"yes": 12},
				"svhc_declaration":      {"no": 8},
				"reach_compliant":       {"no": 15, "yes": -5},
				"restricted_substances": {"yes": 10},
			},
			model.CategoryHumanRights: {
				"no_child_labor":         {"no": 25},
				"forced_labor_controls":  {"no": 20},
				"living_wage_paid":       {"no": 10, "yes": -5},
				"grievance_mechanism":    {"no": 8},
				"freedom_of_association": {"no": 10},
			},
			model.CategoryEnvironmental: {
				"iso14001_certified":     {"yes": -10},
				"hazardous_waste_permit": {"no": 12},
				"wastewater_treatment":   {"no": 10},
				"env_violations_3y":      {"yes": 15},
			},
			model.CategoryDeforestation: {
				"deforestation_free": {"no": 15, "yes": -5},
				"certified_sourcing": {"yes": -8},
				"primary_forest_use": {"yes": 20},
			},
			model.CategoryEmissions: {
				"scope12_measured": {"no": 8, "yes": -4},
				"scope3_reported":  {"no": 5},
				"reduction_target": {"yes": -6},
			},
			model.CategoryPackaging: {
				"recycled_content_verified": {"no": 6},
				"single_use_plastics":       {"yes": 8},
			},
			model.CategoryGeneral: {
				"financial_disclosure":   {"no": 10},
				"code_of_conduct_signed": {"no": 12, "yes": -5},
				"subcontracting_declared": {"no": 8},
			},
		},
	}
}

// LoadTables reads reference tables from a YAML file. Sections missing from
// the file fall back to the built-in defaults, so a fixture can override a
// single table without restating the rest.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "risk: read tables %s", path)
	}

	var wrapper struct {
		Tables Tables `yaml:"tables"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "risk: parse tables")
	}

	t := wrapper.Tables
	defaults := DefaultTables()
	if t.CountryRisk == nil {
		t.CountryRisk = defaults.CountryRisk
	}
	if t.SectorRisk == nil {
		t.SectorRisk = defaults.SectorRisk
	}
	if t.CertificationDeltas == nil {
		t.CertificationDeltas = defaults.CertificationDeltas
	}
	if t.FacilityTypeDeltas == nil {
		t.FacilityTypeDeltas = defaults.FacilityTypeDeltas
	}
	if t.QuestionImpacts == nil {
		t.QuestionImpacts = defaults.QuestionImpacts
	}
	return &t, nil
}

// CountryScore returns the location risk for a country, defaulting to 50
// when the country is unknown. Lookup is case-insensitive.
func (t *Tables) CountryScore(country string) int {
	country = strings.TrimSpace(country)
	if country == "" {
		return unknownCountryRisk
	}
	if v, ok := t.CountryRisk[country]; ok {
		return v
	}
	if v, ok := t.CountryRisk[countryCaser.String(strings.ToLower(country))]; ok {
		return v
	}
	return unknownCountryRisk
}

// SectorScore returns the sector risk for an industry code, keyed by its
// first three characters. No code at all scores 40; a code whose prefix is
// unmapped scores 50.
func (t *Tables) SectorScore(industryCode string) int {
	code := strings.ToUpper(strings.TrimSpace(industryCode))
	if code == "" {
		return noSectorRisk
	}
	if len(code) > 3 {
		code = code[:3]
	}
	if v, ok := t.SectorRisk[code]; ok {
		return v
	}
	return unmappedSectorRisk
}

// ImpactFor returns the dimension delta for a questionnaire answer, or
// (0, false) when no table entry matches.
func (t *Tables) ImpactFor(cat model.Category, key, answer string) (int, bool) {
	byKey, ok := t.QuestionImpacts[cat]
	if !ok {
		return 0, false
	}
	byAnswer, ok := byKey[key]
	if !ok {
		return 0, false
	}
	delta, ok := byAnswer[NormalizeAnswer(answer)]
	return delta, ok
}

// NormalizeAnswer collapses boolean-equivalent answers to "yes" or "no".
// Anything else is lowercased and trimmed.
func NormalizeAnswer(answer string) string {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "true", "y", "1":
		return "yes"
	case "no", "false", "n", "0":
		return "no"
	default:
		return strings.ToLower(strings.TrimSpace(answer))
	}
}
