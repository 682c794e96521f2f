package onboarding

import (
	"bytes"
	"encoding/json"

	apperrors "sitepay/internal/errors"
	"sitepay/internal/models"
	"sitepay/internal/validation"
)

// StepAnswers is the typed payload of one onboarding step. Each step has its
// own variant; the set is closed by the unexported method.
type StepAnswers interface {
	Step() models.StepID
	// countryFields returns fields that fail country-specific rules.
	countryFields(c models.Country) []string
}

type BusinessVerificationAnswers struct {
	BusinessName       string `json:"businessName" validate:"required,max=120"`
	BusinessEmail      string `json:"businessEmail" validate:"required,email"`
	BusinessType       string `json:"businessType" validate:"required,max=64"`
	BusinessPhone      string `json:"businessPhone" validate:"omitempty,min=7,max=20"`
	RegistrationNumber string `json:"registrationNumber" validate:"omitempty,max=64"`
}

func (BusinessVerificationAnswers) Step() models.StepID { return models.StepBusinessVerification }

func (BusinessVerificationAnswers) countryFields(models.Country) []string { return nil }

type NationalIDAnswers struct {
	IDNumber    string `json:"idNumber" validate:"required,numeric"`
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
}

func (NationalIDAnswers) Step() models.StepID { return models.StepNationalIDVerification }

func (a NationalIDAnswers) countryFields(c models.Country) []string {
	if c.NationalIDLength > 0 && len(a.IDNumber) != c.NationalIDLength {
		return []string{"idNumber"}
	}
	return nil
}

type BankAccountAnswers struct {
	BankCode      string `json:"bankCode" validate:"required,max=16"`
	AccountNumber string `json:"accountNumber" validate:"required,numeric,max=32"`
	// AccountName is replaced by the holder name the gateway resolves.
	AccountName string `json:"accountName" validate:"omitempty,max=120"`
}

func (BankAccountAnswers) Step() models.StepID { return models.StepBankAccount }

func (a BankAccountAnswers) countryFields(c models.Country) []string {
	if c.AccountNumberLength > 0 && len(a.AccountNumber) != c.AccountNumberLength {
		return []string{"accountNumber"}
	}
	return nil
}

type KYCAnswers struct {
	DocumentType   string `json:"documentType" validate:"required,oneof=passport drivers_license national_id voters_card"`
	DocumentNumber string `json:"documentNumber" validate:"required,max=64"`
	AcceptTerms    bool   `json:"acceptTerms" validate:"required"`
}

func (KYCAnswers) Step() models.StepID { return models.StepKYCVerification }

func (KYCAnswers) countryFields(models.Country) []string { return nil }

func newAnswers(step models.StepID) (StepAnswers, error) {
	switch step {
	case models.StepBusinessVerification:
		return &BusinessVerificationAnswers{}, nil
	case models.StepNationalIDVerification:
		return &NationalIDAnswers{}, nil
	case models.StepBankAccount:
		return &BankAccountAnswers{}, nil
	case models.StepKYCVerification:
		return &KYCAnswers{}, nil
	default:
		return nil, apperrors.ErrUnknownStep
	}
}

// decodeAnswers parses raw into the variant for step and validates it.
func decodeAnswers(v *validation.Validator, step models.StepID, raw json.RawMessage, country models.Country) (StepAnswers, error) {
	answers, err := newAnswers(step)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, answers); err != nil {
		return nil, apperrors.ErrInvalidStepData.WithMessage("answers must be a JSON object").Wrap(err)
	}

	errs := v.Check(answers)
	for _, f := range answers.countryFields(country) {
		errs[f] = "country"
	}
	if !errs.Valid() {
		return nil, apperrors.ErrInvalidStepData.WithFields(errs.Fields()...)
	}
	return answers, nil
}
