package api

import (
	"errors"
	"net/http"

	"pharmacy-coverage/internal/models"
	"pharmacy-coverage/internal/response"
	"pharmacy-coverage/internal/services"
	"pharmacy-coverage/pkg/logging"

	"github.com/gin-gonic/gin"
)

// GetMedications lists catalog medications
// GET /api/medications?id=MED001&category=Antibiotic&search=amox
func (h *Handler) GetMedications(c *gin.Context) {
	medications := h.Catalog.Medications(services.MedicationFilter{
		ID:       c.Query("id"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})

	views := make([]MedicationView, 0, len(medications))
	for _, m := range medications {
		views = append(views, newMedicationView(m))
	}
	response.SuccessJSON(c, views)
}

// MedicationAvailabilityResponse represents medication availability response
type MedicationAvailabilityResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	Source       string `json:"source"`
	MedicationID string `json:"medicationId"`
	Available    bool   `json:"available"`
}

// GetMedicationAvailability asks the ledger whether a medication is listed,
// answering from the catalog while the ledger is unreachable
// GET /api/medications/:id/availability
func (h *Handler) GetMedicationAvailability(c *gin.Context) {
	id := c.Param("id")

	available, err := h.Ledger.IsMedicationAvailable(c.Request.Context(), id)
	source := services.SourceRemote
	if err != nil {
		if !errors.Is(err, services.ErrRemoteUnavailable) {
			writeError(c, err)
			return
		}
		logging.Warnf("Ledger unavailable for availability of %s, using catalog: %v", id, err)
		_, catalogErr := h.Catalog.Medication(id)
		available = catalogErr == nil
		source = services.SourceLocal
	}

	c.JSON(http.StatusOK, MedicationAvailabilityResponse{
		Success:      true,
		Source:       string(source),
		MedicationID: id,
		Available:    available,
	})
}

// GetPlans lists insurance plans as configured on the ledger, falling back to the catalog
// GET /api/plans
func (h *Handler) GetPlans(c *gin.Context) {
	plans, err := h.Ledger.FetchPlans(c.Request.Context())
	source := services.SourceRemote
	if err != nil {
		if !errors.Is(err, services.ErrRemoteUnavailable) {
			writeError(c, err)
			return
		}
		logging.Warnf("Ledger unavailable for plans, using catalog: %v", err)
		plans = h.Catalog.Plans()
		source = services.SourceLocal
	}

	views := make([]PlanView, 0, len(plans))
	for _, p := range plans {
		if p.Description == "" {
			if local, err := h.Catalog.Plan(p.PlanType); err == nil {
				p.Description = local.Description
			}
		}
		views = append(views, newPlanView(p))
	}
	response.JSON(c, http.StatusOK, response.SuccessFrom(string(source), views))
}

// planTypeParam parses a plan type or reports invalid input
func planTypeParam(s string) (models.PlanType, bool) {
	planType, ok := models.ParsePlanType(s)
	return planType, ok && planType.Purchasable()
}
