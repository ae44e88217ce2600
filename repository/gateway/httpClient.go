package gatewayrepo

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"propertyhub/util/apperr"
	"propertyhub/util/httpx"
)

type httpRepo struct {
	client        *resty.Client
	callbackToken string
}

func NewHTTP(baseURL, apiKey, callbackToken string) Repo {
	c := resty.NewWithClient(httpx.New(httpx.Options{Timeout: 15 * time.Second})).
		SetBaseURL(baseURL).
		SetBasicAuth(apiKey, "").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &httpRepo{client: c, callbackToken: callbackToken}
}

func (r *httpRepo) CreateInvoice(req CreateInvoiceReq) (*CreateInvoiceResp, error) {
	body := map[string]any{
		"external_id":      req.ExternalID,
		"amount":           req.Amount.InexactFloat64(),
		"description":      req.Description,
		"payer_email":      req.PayerEmail,
		"invoice_duration": req.ExpirySec,
	}

	var out struct {
		ID         string `json:"id"`
		InvoiceURL string `json:"invoice_url"`
		ExpiryDate string `json:"expiry_date"`
	}
	resp, err := r.client.R().
		SetBody(body).
		SetResult(&out).
		Post("/v2/invoices")
	if err != nil {
		return nil, fmt.Errorf("gateway create invoice: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gateway create invoice failed: %s", resp.Status())
	}
	if out.ID == "" {
		return nil, errors.New("gateway: empty invoice id")
	}

	return &CreateInvoiceResp{InvoiceID: out.ID, InvoiceURL: out.InvoiceURL, ExpiresAt: out.ExpiryDate}, nil
}

func (r *httpRepo) VerifyCallbackToken(token string) error {
	if r.callbackToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(r.callbackToken)) != 1 {
		return apperr.Unauthorized("invalid callback token")
	}
	return nil
}
