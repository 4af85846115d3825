package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"pharmacy-coverage/internal/models"
	"pharmacy-coverage/pkg/logging"
	"pharmacy-coverage/pkg/money"
)

// defaultPlanDurationDays is the coverage period of every built-in plan
const defaultPlanDurationDays = 30

// PricingCatalog serves medication and insurance plan reference data
type PricingCatalog struct {
	medications []models.Medication
	plans       []models.InsurancePlan
}

// MedicationFilter selects medications. Empty fields match everything.
type MedicationFilter struct {
	ID       string // exact id, case-insensitive
	Category string // exact category, case-insensitive
	Search   string // substring of name or generic name, case-insensitive
}

// NewPricingCatalog creates a catalog over the given reference data
func NewPricingCatalog(medications []models.Medication, plans []models.InsurancePlan) *PricingCatalog {
	return &PricingCatalog{
		medications: append([]models.Medication(nil), medications...),
		plans:       append([]models.InsurancePlan(nil), plans...),
	}
}

// DefaultPricingCatalog returns the built-in medications and plans
func DefaultPricingCatalog() *PricingCatalog {
	return NewPricingCatalog(DefaultMedications(), DefaultPlans())
}

// DefaultMedications returns the built-in medication list
func DefaultMedications() []models.Medication {
	return []models.Medication{
		{
			ID:                   "MED001",
			Name:                 "Aspirin",
			GenericName:          "acetylsalicylic acid",
			Category:             "Pain Relief",
			Description:          "Used to treat pain, fever, and inflammation",
			OriginalPrice:        money.MustParse("0.005"),
			RequiresPrescription: false,
		},
		{
			ID:                   "MED002",
			Name:                 "Amoxicillin",
			GenericName:          "amoxicillin",
			Category:             "Antibiotics",
			Description:          "Used to treat bacterial infections",
			OriginalPrice:        money.MustParse("0.01"),
			RequiresPrescription: true,
		},
		{
			ID:                   "MED003",
			Name:                 "Lipitor",
			GenericName:          "atorvastatin",
			Category:             "Cholesterol Control",
			Description:          "Used to lower cholesterol levels",
			OriginalPrice:        money.MustParse("0.02"),
			RequiresPrescription: true,
		},
		{
			ID:                   "MED004",
			Name:                 "Insulin",
			GenericName:          "insulin",
			Category:             "Diabetes",
			Description:          "Used to control blood sugar levels in diabetes",
			OriginalPrice:        money.MustParse("0.025"),
			RequiresPrescription: true,
		},
		{
			ID:                   "MED005",
			Name:                 "Ibuprofen",
			GenericName:          "ibuprofen",
			Category:             "Pain Relief",
			Description:          "Used to reduce pain, fever, and inflammation",
			OriginalPrice:        money.MustParse("0.004"),
			RequiresPrescription: false,
		},
	}
}

// DefaultPlans returns the built-in insurance plans
func DefaultPlans() []models.InsurancePlan {
	prices := map[models.PlanType]string{
		models.PlanBasic:    "0.01",
		models.PlanStandard: "0.02",
		models.PlanPremium:  "0.03",
	}
	descriptions := map[models.PlanType]string{
		models.PlanBasic:    "Basic coverage for essential medications",
		models.PlanStandard: "Standard coverage for most medications",
		models.PlanPremium:  "Premium coverage for all medications including specialized treatments",
	}

	plans := make([]models.InsurancePlan, 0, len(models.PlanTypes()))
	for _, pt := range models.PlanTypes() {
		plans = append(plans, models.InsurancePlan{
			PlanType:           pt,
			CoveragePercentage: pt.CoveragePercentage(),
			Price:              money.MustParse(prices[pt]),
			DurationDays:       defaultPlanDurationDays,
			Description:        descriptions[pt],
			IsActive:           true,
		})
	}
	return plans
}

// Medications returns the medications matching filter, in catalog order
func (c *PricingCatalog) Medications(filter MedicationFilter) []models.Medication {
	id := strings.TrimSpace(filter.ID)
	category := strings.TrimSpace(filter.Category)
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	result := make([]models.Medication, 0, len(c.medications))
	for _, med := range c.medications {
		if id != "" && !strings.EqualFold(med.ID, id) {
			continue
		}
		if category != "" && !strings.EqualFold(med.Category, category) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(med.Name), search) &&
			!strings.Contains(strings.ToLower(med.GenericName), search) {
			continue
		}
		result = append(result, med)
	}
	return result
}

// Medication looks up a medication by id
func (c *PricingCatalog) Medication(id string) (models.Medication, error) {
	if strings.TrimSpace(id) == "" {
		return models.Medication{}, fmt.Errorf("%w: medication id is required", ErrInvalidInput)
	}
	for _, med := range c.medications {
		if strings.EqualFold(med.ID, strings.TrimSpace(id)) {
			return med, nil
		}
	}
	return models.Medication{}, fmt.Errorf("%w: medication %s", ErrNotFound, id)
}

// Plans returns all insurance plans
func (c *PricingCatalog) Plans() []models.InsurancePlan {
	return append([]models.InsurancePlan(nil), c.plans...)
}

// Plan looks up a plan by type
func (c *PricingCatalog) Plan(planType models.PlanType) (models.InsurancePlan, error) {
	for _, plan := range c.plans {
		if plan.PlanType == planType {
			return plan, nil
		}
	}
	return models.InsurancePlan{}, fmt.Errorf("%w: plan %s", ErrNotFound, planType)
}

// medicationCSVColumns is the expected header of a medication catalog file
var medicationCSVColumns = []string{"id", "name", "generic_name", "category", "description", "price", "requires_prescription"}

// LoadMedicationsCSV reads medications from a CSV file with a header row.
// Prices are decimal strings in display units. Malformed rows are skipped.
func LoadMedicationsCSV(r io.Reader) ([]models.Medication, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("unable to read medication header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range medicationCSVColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("medication header missing column %q", name)
		}
	}

	var medications []models.Medication
	seen := make(map[string]bool)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logging.Warnf("Skipping medication row %d: %v", line, err)
			continue
		}
		field := func(name string) string {
			if idx := columns[name]; idx < len(record) {
				return strings.TrimSpace(record[idx])
			}
			return ""
		}

		id := field("id")
		if id == "" || seen[strings.ToUpper(id)] {
			logging.Warnf("Skipping medication row %d: missing or duplicate id %q", line, id)
			continue
		}
		price, err := money.Parse(field("price"))
		if err != nil {
			logging.Warnf("Skipping medication row %d: %v", line, err)
			continue
		}
		requiresPrescription, _ := strconv.ParseBool(field("requires_prescription"))

		seen[strings.ToUpper(id)] = true
		medications = append(medications, models.Medication{
			ID:                   id,
			Name:                 field("name"),
			GenericName:          field("generic_name"),
			Category:             field("category"),
			Description:          field("description"),
			OriginalPrice:        price,
			RequiresPrescription: requiresPrescription,
		})
	}

	return medications, nil
}

// LoadPricingCatalog builds the catalog, replacing the built-in medications with
// the CSV at csvPath when it is set and readable.
func LoadPricingCatalog(csvPath string) *PricingCatalog {
	if csvPath == "" {
		return DefaultPricingCatalog()
	}

	file, err := os.Open(csvPath)
	if err != nil {
		logging.Errorf("Unable to open medication catalog %s: %v, using built-in catalog", csvPath, err)
		return DefaultPricingCatalog()
	}
	defer file.Close()

	medications, err := LoadMedicationsCSV(file)
	if err != nil || len(medications) == 0 {
		logging.Errorf("Unable to load medication catalog %s: %v, using built-in catalog", csvPath, err)
		return DefaultPricingCatalog()
	}

	logging.Infof("Loaded %d medications from %s", len(medications), csvPath)
	return NewPricingCatalog(medications, DefaultPlans())
}
