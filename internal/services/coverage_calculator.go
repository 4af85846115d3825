package services

import (
	"fmt"
	"math/big"

	"pharmacy-coverage/internal/models"
)

var hundred = big.NewInt(100)

// ComputeCoverage splits originalPrice into the covered part and the co-pay.
// covered = floor(price * percentage / 100) and coPay = price - covered, so the two
// always add up to the original price. The product is computed in big.Int to avoid
// int64 overflow for large prices.
func ComputeCoverage(originalPrice int64, coveragePercentage int) (models.Coverage, error) {
	if originalPrice < 0 {
		return models.Coverage{}, fmt.Errorf("%w: original price %d is negative", ErrInvalidInput, originalPrice)
	}
	if coveragePercentage < 0 || coveragePercentage > 100 {
		return models.Coverage{}, fmt.Errorf("%w: coverage percentage %d outside [0,100]", ErrInvalidInput, coveragePercentage)
	}

	covered := new(big.Int).Mul(big.NewInt(originalPrice), big.NewInt(int64(coveragePercentage)))
	covered.Quo(covered, hundred)
	coveredPrice := covered.Int64()

	return models.Coverage{
		OriginalPrice:      originalPrice,
		CoveredPrice:       coveredPrice,
		CoPayAmount:        originalPrice - coveredPrice,
		CoveragePercentage: coveragePercentage,
		HasCoverage:        coveragePercentage > 0,
	}, nil
}

// CoverageForStatus applies the user's plan to a price.
// Users without active insurance at the given status get no coverage.
func CoverageForStatus(originalPrice int64, status models.UserInsuranceStatus) (models.Coverage, error) {
	if !status.HasActiveInsurance {
		return ComputeCoverage(originalPrice, 0)
	}
	return ComputeCoverage(originalPrice, status.PlanType.CoveragePercentage())
}
