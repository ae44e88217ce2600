package gatewayrepo

import "github.com/shopspring/decimal"

type CreateInvoiceReq struct {
	ExternalID  string
	Amount      decimal.Decimal
	PayerEmail  string
	Description string
	ExpirySec   int
}

type CreateInvoiceResp struct {
	InvoiceID  string
	InvoiceURL string
	ExpiresAt  string
}

// Callback is the body the gateway posts when an invoice changes state.
type Callback struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
}

type Repo interface {
	CreateInvoice(req CreateInvoiceReq) (*CreateInvoiceResp, error)
	VerifyCallbackToken(token string) error
}
