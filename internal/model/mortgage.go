package model

// MortgageInput are the calculator parameters
type MortgageInput struct {
	Price                     float64 `json:"price"`
	DownPaymentPercent        float64 `json:"down_payment_percent"`
	AnnualInterestRatePercent float64 `json:"annual_interest_rate_percent"`
	LoanTermYears             int     `json:"loan_term_years"`
	AnnualPropertyTax         float64 `json:"annual_property_tax"`
	MonthlyHOA                float64 `json:"monthly_hoa"`
}

// MortgageQuote is a derived monthly payment breakdown; never persisted
type MortgageQuote struct {
	LoanAmount               float64 `json:"loan_amount"`
	MonthlyPrincipalInterest float64 `json:"monthly_principal_interest"`
	MonthlyPropertyTax       float64 `json:"monthly_property_tax"`
	MonthlyInsurance         float64 `json:"monthly_insurance"`
	MonthlyHOA               float64 `json:"monthly_hoa"`
	MonthlyTotal             float64 `json:"monthly_total"`
}

// MortgageOverrides replace calculator defaults when quoting a listing
type MortgageOverrides struct {
	DownPaymentPercent        *float64 `json:"down_payment_percent,omitempty" form:"down_payment_percent"`
	AnnualInterestRatePercent *float64 `json:"annual_interest_rate_percent,omitempty" form:"rate"`
	LoanTermYears             *int     `json:"loan_term_years,omitempty" form:"term"`
}

// ListingMortgageResponse is a quote computed from a catalog listing
type ListingMortgageResponse struct {
	PropertyID int64         `json:"property_id"`
	Input      MortgageInput `json:"input"`
	Quote      MortgageQuote `json:"quote"`
}
