package domain

// ValidationResult is the validator verdict over a generated reply.
type ValidationResult struct {
	IsValid  bool
	Score    float64
	Errors   []string
	Warnings []string
	Details  map[string]string
}

func (r *ValidationResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

func (r *ValidationResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// TerritoryVerification is the outcome of checking an address against the
// parish boundary.
type TerritoryVerification struct {
	AddressFound bool
	Street       string
	CivicNumber  int
	InParish     bool
	Detail       string
}
