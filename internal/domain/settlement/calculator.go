package settlement

import (
	"github.com/fleetops/backend/internal/domain/fleet"
	"github.com/shopspring/decimal"
)

// CalculationInput carries everything the calculator needs. The ledger
// debit is the amount of accumulated accruals being recovered on this
// settlement, already validated against the driver's balance.
type CalculationInput struct {
	Earnings    EarningsSummary
	Costs       CostSummary
	Contract    *fleet.Contract
	Config      *fleet.DriverFinancialConfig
	LedgerDebit decimal.Decimal
}

// Calculator computes a settlement breakdown from aggregated earnings,
// partitioned costs, the active contract and the driver's financial config.
// It is pure: no I/O, no clock, deterministic for a given input.
type Calculator struct{}

// NewCalculator creates a calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

var oneHundred = decimal.NewFromInt(100)

// Calculate produces the monetary breakdown for one settlement period.
//
// The commission base starts from total gross. When the driver's earnings
// are VAT-inclusive the VAT is divided out (base = gross / (1 + vat/100)),
// and when gratuities are paid separately the tips are removed from the
// base and returned to the driver on top of the share. Rental contracts
// hand the driver the full net and deduct the fixed rent; commission
// contracts split the base by the effective percentages. The liquid value
// may be negative and is never clamped.
func (c *Calculator) Calculate(in CalculationInput) (Breakdown, error) {
	if in.Contract == nil {
		return Breakdown{}, fleet.ErrNoActiveContract
	}
	if in.Config != nil {
		if err := in.Config.Validate(); err != nil {
			return Breakdown{}, err
		}
	}

	b := Breakdown{
		TotalGross:      in.Earnings.TotalGross,
		TotalCommission: in.Earnings.TotalCommission,
		TotalNet:        in.Earnings.TotalNet,
		TotalTips:       in.Earnings.TotalTips,
		ImmediateCosts:  in.Costs.ImmediateTotal.Round(2),
		DeferredCosts:   in.Costs.DeferredTotal.Round(2),
		LedgerDebit:     in.LedgerDebit.Round(2),
	}

	base := in.Earnings.TotalGross
	gratuitySeparate := decimal.Zero
	if in.Config != nil {
		if in.Config.VATIncluded {
			divisor := decimal.NewFromInt(1).Add(in.Config.VATPercent.Div(oneHundred))
			base = base.Div(divisor)
		}
		if in.Config.Gratuity == fleet.GratuityPaidSeparately {
			base = base.Sub(in.Earnings.TotalTips)
			gratuitySeparate = in.Earnings.TotalTips
		}
	}
	b.CommissionBase = base.Round(2)
	b.GratuitySeparate = gratuitySeparate.Round(2)

	switch in.Contract.Model {
	case fleet.ContractModelRental:
		// Driver keeps the full net, the fleet's take is the fixed rent.
		b.DriverShare = in.Earnings.TotalNet.Round(2)
		b.PartnerShare = decimal.Zero
		b.RentDue = in.Contract.RentDue().Round(2)
		b.GratuitySeparate = decimal.Zero

	case fleet.ContractModelCommission:
		driverPct, partnerPct, err := c.split(in.Contract, in.Config)
		if err != nil {
			return Breakdown{}, err
		}
		b.DriverPct = driverPct
		b.PartnerPct = partnerPct
		b.DriverShare = b.CommissionBase.Mul(driverPct).Div(oneHundred).Round(2)
		b.PartnerShare = b.CommissionBase.Mul(partnerPct).Div(oneHundred).Round(2)
		b.RentDue = decimal.Zero

	default:
		return Breakdown{}, fleet.ErrInvalidContractModel
	}

	b.TotalDeductions = b.ImmediateCosts.Add(b.RentDue).Add(b.LedgerDebit)
	b.LiquidValue = b.DriverShare.Add(b.GratuitySeparate).Sub(b.TotalDeductions)
	return b, nil
}

func (c *Calculator) split(contract *fleet.Contract, config *fleet.DriverFinancialConfig) (decimal.Decimal, decimal.Decimal, error) {
	if config != nil {
		return config.EffectiveSplit(contract)
	}
	return contract.DefaultSplit()
}
