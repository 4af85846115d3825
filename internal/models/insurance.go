package models

import (
	"strings"
	"time"
)

// PlanType is an insurance plan tier
type PlanType string

const (
	PlanNone     PlanType = "none"
	PlanBasic    PlanType = "Basic"
	PlanStandard PlanType = "Standard"
	PlanPremium  PlanType = "Premium"
)

// planCoverage is the single coverage table used everywhere coverage is computed
var planCoverage = map[PlanType]int{
	PlanBasic:    60,
	PlanStandard: 80,
	PlanPremium:  90,
}

// PlanTypes lists purchasable plans in display order
func PlanTypes() []PlanType {
	return []PlanType{PlanBasic, PlanStandard, PlanPremium}
}

// ParsePlanType parses a plan name case-insensitively. "" and "none" map to PlanNone.
func ParsePlanType(s string) (PlanType, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(PlanNone)) {
		return PlanNone, true
	}
	for _, p := range PlanTypes() {
		if strings.EqualFold(s, string(p)) {
			return p, true
		}
	}
	return "", false
}

// Purchasable reports whether p is one of Basic, Standard or Premium
func (p PlanType) Purchasable() bool {
	_, ok := planCoverage[p]
	return ok
}

// CoveragePercentage returns the canonical coverage for the plan; 0 for PlanNone
func (p PlanType) CoveragePercentage() int {
	return planCoverage[p]
}

// InsurancePlan is immutable reference data
type InsurancePlan struct {
	PlanType           PlanType `json:"planType"`
	CoveragePercentage int      `json:"coveragePercentage"`
	Price              int64    `json:"price"` // minor units
	DurationDays       int      `json:"durationDays"`
	Description        string   `json:"description,omitempty"`
	IsActive           bool     `json:"isActive"`
}

// Duration returns the coverage period of the plan
func (p InsurancePlan) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}

// UserInsuranceStatus is derived on every query and never stored
type UserInsuranceStatus struct {
	PlanType           PlanType  `json:"planType"`
	StartTime          time.Time `json:"startTime"`
	EndTime            time.Time `json:"endTime"`
	IsActive           bool      `json:"isActive"`
	HasActiveInsurance bool      `json:"hasActiveInsurance"`
}

// NoInsurance is the status of a user without any known plan
func NoInsurance() UserInsuranceStatus {
	return UserInsuranceStatus{PlanType: PlanNone}
}

// ActiveAt reports whether the status grants coverage at t
func (s UserInsuranceStatus) ActiveAt(t time.Time) bool {
	return s.IsActive && t.Before(s.EndTime)
}
