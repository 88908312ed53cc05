package model

import "time"

// RiskLevel is the coarse classification derived from the overall score.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// Dimension names one of the seven risk axes scored 0-100.
type Dimension string

const (
	DimLocation      Dimension = "location"
	DimSector        Dimension = "sector"
	DimHumanRights   Dimension = "human_rights"
	DimEnvironmental Dimension = "environmental"
	DimChemical      Dimension = "chemical"
	DimMineral       Dimension = "mineral"
	DimPerformance   Dimension = "performance"
)

// AllDimensions returns the seven dimensions in canonical order.
func AllDimensions() []Dimension {
	return []Dimension{
		DimLocation, DimSector, DimHumanRights, DimEnvironmental,
		DimChemical, DimMineral, DimPerformance,
	}
}

// Dimensions holds the per-axis risk scores. All values are kept in [0,100].
type Dimensions struct {
	Location      int `json:"location"`
	Sector        int `json:"sector"`
	HumanRights   int `json:"human_rights"`
	Environmental int `json:"environmental"`
	Chemical      int `json:"chemical"`
	Mineral       int `json:"mineral"`
	Performance   int `json:"performance"`
}

// Get returns the score for a dimension. Unknown dimensions return 0.
func (d Dimensions) Get(dim Dimension) int {
	switch dim {
	case DimLocation:
		return d.Location
	case DimSector:
		return d.Sector
	case DimHumanRights:
		return d.HumanRights
	case DimEnvironmental:
		return d.Environmental
	case DimChemical:
		return d.Chemical
	case DimMineral:
		return d.Mineral
	case DimPerformance:
		return d.Performance
	}
	return 0
}

// Set assigns the score for a dimension. Unknown dimensions are ignored.
func (d *Dimensions) Set(dim Dimension, v int) {
	switch dim {
	case DimLocation:
		d.Location = v
	case DimSector:
		d.Sector = v
	case DimHumanRights:
		d.HumanRights = v
	case DimEnvironmental:
		d.Environmental = v
	case DimChemical:
		d.Chemical = v
	case DimMineral:
		d.Mineral = v
	case DimPerformance:
		d.Performance = v
	}
}

// NeutralDimensions returns all seven dimensions set to the neutral score 50,
// the state of a freshly registered supplier before any recompute.
func NeutralDimensions() Dimensions {
	var d Dimensions
	for _, dim := range AllDimensions() {
		d.Set(dim, 50)
	}
	return d
}

// Supplier is a business entity under compliance evaluation. The dimension,
// overall score, level, and completeness fields are owned by the risk engine
// and must not be edited elsewhere.
type Supplier struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Country          string     `json:"country"`
	IndustryCode     string     `json:"industry_code"`
	Dimensions       Dimensions `json:"dimensions"`
	OverallScore     int        `json:"overall_score"`
	RiskLevel        RiskLevel  `json:"risk_level"`
	DataCompleteness int        `json:"data_completeness"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Site is a supplier facility. Read-only input to the dimension calculator.
type Site struct {
	ID             string    `json:"id"`
	SupplierID     string    `json:"supplier_id"`
	Name           string    `json:"name"`
	Country        string    `json:"country"`
	FacilityType   string    `json:"facility_type"`
	Certifications []string  `json:"certifications,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
