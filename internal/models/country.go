package models

// Country describes what onboarding and payments need for one supported
// country.
type Country struct {
	Code                string `json:"code"`
	Currency            string `json:"currency"`
	RequiresNationalID  bool   `json:"requiresNationalId"`
	NationalIDLength    int    `json:"nationalIdLength,omitempty"`
	AccountNumberLength int    `json:"accountNumberLength,omitempty"`
	KYCOptional         bool   `json:"kycOptional"`
}

// OnboardingSteps returns the ordered step list for the country.
func (c Country) OnboardingSteps() []StepState {
	steps := []StepState{{ID: StepBusinessVerification, Required: true}}
	if c.RequiresNationalID {
		steps = append(steps, StepState{ID: StepNationalIDVerification, Required: true})
	}
	steps = append(steps,
		StepState{ID: StepBankAccount, Required: true},
		StepState{ID: StepKYCVerification, Required: !c.KYCOptional},
	)
	return steps
}

func DefaultCountries() map[string]Country {
	return map[string]Country{
		"NG": {Code: "NG", Currency: "NGN", RequiresNationalID: true, NationalIDLength: 11, AccountNumberLength: 10},
		"GH": {Code: "GH", Currency: "GHS", KYCOptional: true},
		"KE": {Code: "KE", Currency: "KES", RequiresNationalID: true, NationalIDLength: 8},
	}
}
