package common

// Client is the read model of a Client node enriched with its debt total and
// latest contact.
type Client struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	TotalDebt   float64 `json:"totalDebt"`
	LastContact string  `json:"lastContact,omitempty"`
	CreatedAt   string  `json:"createdAt,omitempty"`
}

// ClientSummary is one row of the client listing.
type ClientSummary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	DebtAmount float64 `json:"debtAmount"`
	LoanDate   string  `json:"loanDate"`
	DebtType   string  `json:"debtType"`
}

// Debt is the read model of a Debt node. OutstandingAmount and DerivedStatus
// are computed from the client's payments, promises and renegotiations.
type Debt struct {
	ID                string  `json:"id"`
	ClientID          string  `json:"clientId"`
	OriginalAmount    float64 `json:"originalAmount"`
	CurrentAmount     float64 `json:"currentAmount"`
	OutstandingAmount float64 `json:"outstandingAmount"`
	DebtType          string  `json:"debtType"`
	CreationDate      string  `json:"creationDate"`
	Status            string  `json:"status"`
	DerivedStatus     string  `json:"derivedStatus"`
	CreatedAt         string  `json:"createdAt,omitempty"`
}

type Agent struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
}
