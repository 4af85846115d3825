package api

import (
	"time"

	"pharmacy-coverage/internal/models"
	"pharmacy-coverage/pkg/money"
)

// Amounts leave the service as decimal strings

type MedicationView struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	GenericName          string `json:"genericName,omitempty"`
	Category             string `json:"category,omitempty"`
	Description          string `json:"description,omitempty"`
	Price                string `json:"price"`
	RequiresPrescription bool   `json:"requiresPrescription"`
}

type PlanView struct {
	PlanType           models.PlanType `json:"planType"`
	CoveragePercentage int             `json:"coveragePercentage"`
	Price              string          `json:"price"`
	DurationDays       int             `json:"durationDays"`
	Description        string          `json:"description,omitempty"`
	IsActive           bool            `json:"isActive"`
}

type CoverageView struct {
	OriginalPrice      string `json:"originalPrice"`
	CoveredPrice       string `json:"coveredPrice"`
	CoPayAmount        string `json:"coPayAmount"`
	CoveragePercentage int    `json:"coveragePercentage"`
	HasCoverage        bool   `json:"hasCoverage"`
}

type InsuranceStatusView struct {
	PlanType           models.PlanType `json:"planType"`
	CoveragePercentage int             `json:"coveragePercentage"`
	StartTime          string          `json:"startTime,omitempty"`
	EndTime            string          `json:"endTime,omitempty"`
	IsActive           bool            `json:"isActive"`
	HasActiveInsurance bool            `json:"hasActiveInsurance"`
}

type TransactionView struct {
	Hash         string                 `json:"hash"`
	Type         models.TransactionType `json:"type"`
	PlanType     models.PlanType        `json:"planType,omitempty"`
	MedicationID string                 `json:"medicationId,omitempty"`
	Amount       string                 `json:"amount"`
	Account      string                 `json:"account,omitempty"`
	Timestamp    int64                  `json:"timestamp"`
	Time         string                 `json:"time"`
}

func newMedicationView(m models.Medication) MedicationView {
	return MedicationView{
		ID:                   m.ID,
		Name:                 m.Name,
		GenericName:          m.GenericName,
		Category:             m.Category,
		Description:          m.Description,
		Price:                money.Format(m.OriginalPrice),
		RequiresPrescription: m.RequiresPrescription,
	}
}

func newPlanView(p models.InsurancePlan) PlanView {
	return PlanView{
		PlanType:           p.PlanType,
		CoveragePercentage: p.CoveragePercentage,
		Price:              money.Format(p.Price),
		DurationDays:       p.DurationDays,
		Description:        p.Description,
		IsActive:           p.IsActive,
	}
}

func newCoverageView(c models.Coverage) CoverageView {
	return CoverageView{
		OriginalPrice:      money.Format(c.OriginalPrice),
		CoveredPrice:       money.Format(c.CoveredPrice),
		CoPayAmount:        money.Format(c.CoPayAmount),
		CoveragePercentage: c.CoveragePercentage,
		HasCoverage:        c.HasCoverage,
	}
}

func newInsuranceStatusView(s models.UserInsuranceStatus) InsuranceStatusView {
	view := InsuranceStatusView{
		PlanType:           s.PlanType,
		IsActive:           s.IsActive,
		HasActiveInsurance: s.HasActiveInsurance,
	}
	if s.HasActiveInsurance {
		view.CoveragePercentage = s.PlanType.CoveragePercentage()
	}
	if !s.StartTime.IsZero() {
		view.StartTime = s.StartTime.UTC().Format(time.RFC3339)
	}
	if !s.EndTime.IsZero() {
		view.EndTime = s.EndTime.UTC().Format(time.RFC3339)
	}
	return view
}

func newTransactionViews(records []models.TransactionRecord) []TransactionView {
	views := make([]TransactionView, 0, len(records))
	for _, r := range records {
		views = append(views, TransactionView{
			Hash:         r.Hash,
			Type:         r.Type,
			PlanType:     r.Details.PlanType,
			MedicationID: r.Details.MedicationID,
			Amount:       money.Format(r.Details.Amount),
			Account:      r.Details.Account,
			Timestamp:    r.Timestamp,
			Time:         r.Time().UTC().Format(time.RFC3339),
		})
	}
	return views
}
