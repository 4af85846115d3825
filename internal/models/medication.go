package models

// Medication is immutable catalog reference data
type Medication struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	GenericName          string `json:"genericName"`
	Category             string `json:"category"`
	Description          string `json:"description"`
	OriginalPrice        int64  `json:"originalPrice"` // minor units
	RequiresPrescription bool   `json:"requiresPrescription"`
}

// Coverage splits a price into the insurer-paid and the user-paid portions.
// CoveredPrice + CoPayAmount == OriginalPrice always holds.
type Coverage struct {
	OriginalPrice      int64 `json:"originalPrice"`
	CoveredPrice       int64 `json:"coveredPrice"`
	CoPayAmount        int64 `json:"coPayAmount"`
	CoveragePercentage int   `json:"coveragePercentage"`
	HasCoverage        bool  `json:"hasCoverage"`
}
