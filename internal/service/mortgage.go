package service

import (
	"fmt"
	"math"

	"concierge/internal/config"
	"concierge/internal/model"
)

// DefaultInsuranceRate is the annual insurance estimate as a fraction of price
const DefaultInsuranceRate = 0.0035

// MortgageCalculator computes monthly payment breakdowns
type MortgageCalculator struct {
	insuranceRate      float64
	defaultDownPayment float64
	defaultRate        float64
	defaultTermYears   int
}

// NewMortgageCalculator creates a calculator from config defaults
func NewMortgageCalculator(cfg config.MortgageConfig) *MortgageCalculator {
	c := &MortgageCalculator{
		insuranceRate:      cfg.InsuranceRate,
		defaultDownPayment: cfg.DefaultDownPaymentPercent,
		defaultRate:        cfg.DefaultInterestRate,
		defaultTermYears:   cfg.DefaultLoanTermYears,
	}
	if c.insuranceRate <= 0 {
		c.insuranceRate = DefaultInsuranceRate
	}
	if c.defaultTermYears <= 0 {
		c.defaultTermYears = 30
	}
	return c
}

// Quote computes the monthly breakdown for in
func (c *MortgageCalculator) Quote(in model.MortgageInput) (model.MortgageQuote, error) {
	if err := validateMortgageInput(in); err != nil {
		return model.MortgageQuote{}, err
	}

	loanAmount := in.Price * (1 - in.DownPaymentPercent/100)
	payments := float64(in.LoanTermYears * 12)

	var monthlyPI float64
	switch {
	case loanAmount == 0:
		monthlyPI = 0
	case in.AnnualInterestRatePercent == 0:
		monthlyPI = loanAmount / payments
	default:
		monthlyRate := in.AnnualInterestRatePercent / 100 / 12
		growth := math.Pow(1+monthlyRate, payments)
		if growth-1 == 0 {
			// rate too small to register in float64
			monthlyPI = loanAmount / payments
		} else {
			monthlyPI = loanAmount * monthlyRate * growth / (growth - 1)
		}
	}

	quote := model.MortgageQuote{
		LoanAmount:               loanAmount,
		MonthlyPrincipalInterest: monthlyPI,
		MonthlyPropertyTax:       in.AnnualPropertyTax / 12,
		MonthlyInsurance:         in.Price * c.insuranceRate / 12,
		MonthlyHOA:               in.MonthlyHOA,
	}
	quote.MonthlyTotal = quote.MonthlyPrincipalInterest + quote.MonthlyPropertyTax +
		quote.MonthlyInsurance + quote.MonthlyHOA
	for _, v := range []float64{quote.LoanAmount, quote.MonthlyPrincipalInterest, quote.MonthlyPropertyTax,
		quote.MonthlyInsurance, quote.MonthlyTotal} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return model.MortgageQuote{}, fmt.Errorf("%w: inputs overflow the payment calculation", ErrInvalidInput)
		}
	}
	return quote, nil
}

// InputForListing builds calculator input from a listing's price, tax and
// HOA fees, applying overrides on top of the configured defaults
func (c *MortgageCalculator) InputForListing(p model.PropertyRecord, o model.MortgageOverrides) model.MortgageInput {
	in := model.MortgageInput{
		Price:                     p.Price,
		DownPaymentPercent:        c.defaultDownPayment,
		AnnualInterestRatePercent: c.defaultRate,
		LoanTermYears:             c.defaultTermYears,
		AnnualPropertyTax:         p.PropertyTax,
		MonthlyHOA:                p.HOAFees,
	}
	if o.DownPaymentPercent != nil {
		in.DownPaymentPercent = *o.DownPaymentPercent
	}
	if o.AnnualInterestRatePercent != nil {
		in.AnnualInterestRatePercent = *o.AnnualInterestRatePercent
	}
	if o.LoanTermYears != nil {
		in.LoanTermYears = *o.LoanTermYears
	}
	return in
}

// QuoteForListing quotes a listing with overrides applied
func (c *MortgageCalculator) QuoteForListing(p model.PropertyRecord, o model.MortgageOverrides) (model.MortgageInput, model.MortgageQuote, error) {
	in := c.InputForListing(p, o)
	quote, err := c.Quote(in)
	return in, quote, err
}

func validateMortgageInput(in model.MortgageInput) error {
	for name, v := range map[string]float64{
		"price":                in.Price,
		"down payment percent": in.DownPaymentPercent,
		"interest rate":        in.AnnualInterestRatePercent,
		"property tax":         in.AnnualPropertyTax,
		"HOA":                  in.MonthlyHOA,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidInput, name)
		}
	}
	if in.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	if in.DownPaymentPercent < 0 || in.DownPaymentPercent > 100 {
		return fmt.Errorf("%w: down payment percent must be between 0 and 100", ErrInvalidInput)
	}
	if in.AnnualInterestRatePercent < 0 {
		return fmt.Errorf("%w: interest rate must not be negative", ErrInvalidInput)
	}
	if in.LoanTermYears <= 0 {
		return fmt.Errorf("%w: loan term must be positive", ErrInvalidInput)
	}
	if in.AnnualPropertyTax < 0 || in.MonthlyHOA < 0 {
		return fmt.Errorf("%w: tax and HOA must not be negative", ErrInvalidInput)
	}
	return nil
}
