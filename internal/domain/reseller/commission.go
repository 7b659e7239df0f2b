package reseller

import (
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CommissionResult is the outcome of applying a commission policy to a
// package price for a number of billing periods.
type CommissionResult struct {
	// Commission is the amount retained by the platform/parent. Never negative.
	Commission decimal.Decimal
	// DeductAmount is what the reseller owes for the recharge. Never negative.
	DeductAmount decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// CalculateCommission applies a commission policy to a package price.
// packagePrice is the price per validity period; months is the number of
// periods being purchased. The function is deterministic and performs no I/O.
//
// With a percentage policy the commission is taken once off the per-period
// price; with a flat policy it accrues per month. Under the discount rate
// type the commission reduces what the reseller owes; otherwise the reseller
// owes the full price and the commission is tracked separately.
func CalculateCommission(packagePrice decimal.Decimal, months int, policy CommissionPolicy) (CommissionResult, error) {
	if months <= 0 {
		return CommissionResult{}, shared.NewDomainError("INVALID_MONTHS", "Months must be a positive integer")
	}
	if packagePrice.IsNegative() {
		return CommissionResult{}, shared.NewDomainError("INVALID_PRICE", "Package price cannot be negative")
	}
	if err := policy.Validate(); err != nil {
		return CommissionResult{}, err
	}

	monthsDec := decimal.NewFromInt(int64(months))
	gross := packagePrice.Mul(monthsDec)

	commission := decimal.Zero
	if policy.CommissionValue.IsPositive() {
		if policy.CommissionType == CommissionTypePercentage {
			commission = packagePrice.Mul(policy.CommissionValue).Div(oneHundred).Round(2)
		} else {
			commission = policy.CommissionValue.Mul(monthsDec)
		}
	} else if policy.CustomerRate.IsPositive() {
		// Legacy flat-rate fallback: the reseller pays the configured
		// per-month rate instead of the package price.
		deduct := policy.CustomerRate.Mul(monthsDec)
		if deduct.GreaterThan(gross) {
			deduct = gross
		}
		return CommissionResult{
			Commission:   gross.Sub(deduct),
			DeductAmount: deduct,
		}, nil
	}

	deduct := gross
	if policy.RateType == RateTypeDiscount {
		if commission.GreaterThan(gross) {
			return CommissionResult{}, shared.NewDomainError("INVALID_COMMISSION_VALUE",
				"Commission exceeds the package total under a discount policy")
		}
		deduct = gross.Sub(commission)
	}

	return CommissionResult{
		Commission:   commission,
		DeductAmount: deduct,
	}, nil
}
