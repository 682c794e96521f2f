package gateway

// Field names follow the provider's v3 API exactly.

type SubAccountRequest struct {
	AccountBank    string  `json:"account_bank"`
	AccountNumber  string  `json:"account_number"`
	BusinessName   string  `json:"business_name"`
	BusinessEmail  string  `json:"business_email"`
	BusinessMobile string  `json:"business_mobile,omitempty"`
	Country        string  `json:"country"`
	SplitType      string  `json:"split_type"`
	SplitValue     float64 `json:"split_value"`
}

type SubAccount struct {
	ID            int64  `json:"id"`
	SubaccountID  string `json:"subaccount_id"`
	AccountNumber string `json:"account_number"`
	AccountBank   string `json:"account_bank"`
	FullName      string `json:"full_name"`
	BankName      string `json:"bank_name"`
}

type ResolveAccountRequest struct {
	AccountNumber string `json:"account_number"`
	AccountBank   string `json:"account_bank"`
}

type ResolvedAccount struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

type Customer struct {
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	PhoneNumber string `json:"phonenumber,omitempty"`
}

type Customizations struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Transaction charge types for a subaccount split.
const (
	ChargePercentage = "percentage"
	ChargeFlat       = "flat"
)

type SubaccountSplit struct {
	ID                    string  `json:"id"`
	TransactionChargeType string  `json:"transaction_charge_type"`
	TransactionCharge     float64 `json:"transaction_charge"`
}

type PaymentRequest struct {
	TxRef          string                 `json:"tx_ref"`
	Amount         float64                `json:"amount"`
	Currency       string                 `json:"currency"`
	RedirectURL    string                 `json:"redirect_url,omitempty"`
	Customer       Customer               `json:"customer"`
	Customizations *Customizations        `json:"customizations,omitempty"`
	Meta           map[string]interface{} `json:"meta,omitempty"`
	Subaccounts    []SubaccountSplit      `json:"subaccounts,omitempty"`
}

type PaymentLink struct {
	Link string `json:"link"`
}

type Bank struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// envelope wraps every provider response.
type envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}
