package risk

import (
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/supplier-risk/internal/model"
)

// Calculator derives the seven risk dimensions for a supplier from its
// attributes, its sites, and its completed questionnaires.
type Calculator struct {
	tables *Tables
	log    *zap.Logger
}

// NewCalculator creates a Calculator over the given reference tables.
func NewCalculator(tables *Tables) *Calculator {
	return &Calculator{
		tables: tables,
		log:    zap.L().With(zap.String("component", "risk.calculator")),
	}
}

// Tables exposes the reference tables the calculator scores against.
func (c *Calculator) Tables() *Tables {
	return c.tables
}

// DimensionForCategory routes a questionnaire category to the single
// dimension its answers adjust. Uncategorized questionnaires adjust
// performance.
func DimensionForCategory(cat model.Category) model.Dimension {
	switch cat {
	case model.CategoryChemicalContent:
		return model.DimChemical
	case model.CategoryHumanRights:
		return model.DimHumanRights
	case model.CategoryEnvironmental, model.CategoryDeforestation,
		model.CategoryEmissions, model.CategoryPackaging:
		return model.DimEnvironmental
	default:
		return model.DimPerformance
	}
}

// Compute derives all seven dimensions. The questionnaire-adjusted
// dimensions start from the neutral baseline 50 and apply every impact
// delta found on completed questionnaires, so recomputing with unchanged
// inputs always yields the same result. Mineral risk has no contributing
// table and passes through the stored value (50 if never set).
func (c *Calculator) Compute(sup model.Supplier, sites []model.Site, tasks []model.Task) model.Dimensions {
	var d model.Dimensions
	d.Location = c.locationRisk(sup.Country, sites)
	d.Sector = c.tables.SectorScore(sup.IndustryCode)

	adjusted := map[model.Dimension]int{
		model.DimHumanRights:   50,
		model.DimEnvironmental: 50,
		model.DimChemical:      50,
		model.DimPerformance:   50,
	}

	for _, t := range tasks {
		if t.Type != model.TaskQuestionnaire || t.Status != model.TaskStatusCompleted {
			continue
		}
		dim := DimensionForCategory(t.Category)
		for key, answer := range t.Responses {
			delta, ok := c.tables.ImpactFor(t.Category, key, answer)
			if !ok {
				continue
			}
			adjusted[dim] += delta
		}
	}

	d.HumanRights = Clamp(adjusted[model.DimHumanRights])
	d.Environmental = Clamp(adjusted[model.DimEnvironmental])
	d.Chemical = Clamp(adjusted[model.DimChemical])
	d.Performance = Clamp(adjusted[model.DimPerformance])

	d.Mineral = sup.Dimensions.Mineral
	if d.Mineral == 0 {
		d.Mineral = 50
	}

	return d
}

// SiteRisk scores one facility: the site country's location risk adjusted
// by facility type and certifications, clamped to [0,100].
func (c *Calculator) SiteRisk(site model.Site) int {
	score := c.tables.CountryScore(site.Country)
	if delta, ok := c.tables.FacilityTypeDeltas[site.FacilityType]; ok {
		score += delta
	}
	for _, cert := range site.Certifications {
		if delta, ok := c.tables.CertificationDeltas[cert]; ok {
			score += delta
		}
	}
	return Clamp(score)
}

// locationRisk looks up the supplier's own country and, when the supplier
// has sites, blends it with the mean site risk.
func (c *Calculator) locationRisk(country string, sites []model.Site) int {
	base := c.tables.CountryScore(country)
	if len(sites) == 0 {
		return base
	}

	sum := 0
	for _, s := range sites {
		sum += c.SiteRisk(s)
	}
	mean := float64(sum) / float64(len(sites))
	return int(math.Round((float64(base) + mean) / 2))
}

// Completeness scores how much of the supplier's profile is on file: core
// attributes plus one slot per questionnaire category completed.
func Completeness(sup model.Supplier, sites []model.Site, tasks []model.Task) int {
	categories := model.AllCategories()
	total := 3 + len(categories)

	met := 0
	if sup.Country != "" {
		met++
	}
	if sup.IndustryCode != "" {
		met++
	}
	if len(sites) > 0 {
		met++
	}

	done := make(map[model.Category]bool)
	for _, t := range tasks {
		if t.Type == model.TaskQuestionnaire && t.Status == model.TaskStatusCompleted {
			done[t.Category] = true
		}
	}
	for _, cat := range categories {
		if done[cat] {
			met++
		}
	}

	return int(math.Round(float64(met) / float64(total) * 100))
}

// Clamp bounds a score to [0,100].
func Clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
