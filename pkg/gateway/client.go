package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sanabelapp/sanabel-backend/pkg/config"
	pkgerrors "github.com/sanabelapp/sanabel-backend/pkg/errors"
	"github.com/sanabelapp/sanabel-backend/pkg/logger"
)

var (
	errBaseURLRequired   = errors.New("gateway base url is required")
	errAPIKeyRequired    = errors.New("gateway api key is required")
	errReturnURLRequired = errors.New("gateway return url is required")
	errLoggerRequired    = errors.New("gateway logger is required")
)

// PaymentLink is the hosted checkout session issued by the gateway.
type PaymentLink struct {
	TrackID string `json:"track_id"`
	Link    string `json:"link"`
}

// VerifiedStatus is the authoritative charge state returned by the gateway's
// status-query API. Webhook payloads are never trusted; this is.
type VerifiedStatus struct {
	TrackID   string          `json:"track_id"`
	IsSuccess bool            `json:"is_success"`
	IsFailed  bool            `json:"is_failed"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	ReceiptID string          `json:"receipt_id"`
	PaymentID string          `json:"payment_id"`
	TranID    string          `json:"tran_id"`
	OrderRef  string          `json:"order_ref"`
}

// CreateLinkInput carries the local idempotent reference and the expected
// charge amount.
type CreateLinkInput struct {
	Reference string
	Amount    decimal.Decimal
	Currency  string
}

// Client talks to the hosted payment link provider. All calls use the
// configured bounded timeout via the underlying http.Client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	provider   string
	currency   string
	returnURL  string
	logger     *logger.Logger
}

// NewClient validates credentials and builds the gateway wrapper.
func NewClient(cfg config.GatewayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	returnURL := strings.TrimSpace(cfg.ReturnURL)
	if returnURL == "" {
		return nil, errReturnURLRequired
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		provider:   cfg.Provider,
		currency:   cfg.Currency,
		returnURL:  returnURL,
		logger:     logg,
	}, nil
}

// Provider returns the configured provider slug recorded on payments and
// audit events.
func (c *Client) Provider() string {
	return c.provider
}

// Currency returns the gateway settlement currency.
func (c *Client) Currency() string {
	return c.currency
}

type createLinkRequest struct {
	Reference string `json:"reference"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	ReturnURL string `json:"return_url"`
}

// CreatePaymentLink requests a hosted payment session keyed by the local
// reference and returns the gateway-issued track id and link.
func (c *Client) CreatePaymentLink(ctx context.Context, input CreateLinkInput) (*PaymentLink, error) {
	if strings.TrimSpace(input.Reference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	currency := input.Currency
	if currency == "" {
		currency = c.currency
	}

	body := createLinkRequest{
		Reference: input.Reference,
		Amount:    input.Amount.StringFixed(2),
		Currency:  currency,
		ReturnURL: c.returnURL,
	}

	var link PaymentLink
	if err := c.do(ctx, http.MethodPost, "/v1/charges", body, &link); err != nil {
		return nil, err
	}
	if link.TrackID == "" || link.Link == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "gateway returned incomplete payment link")
	}
	return &link, nil
}

// GetPaymentStatus queries the gateway's authoritative status API for the
// given track id.
func (c *Client) GetPaymentStatus(ctx context.Context, trackID string) (*VerifiedStatus, error) {
	if strings.TrimSpace(trackID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "track id required")
	}

	var status VerifiedStatus
	if err := c.do(ctx, http.MethodGet, "/v1/charges/"+trackID, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, dest any) error {
	var payload *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode gateway request")
		}
		payload = bytes.NewReader(raw)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, fmt.Sprintf("gateway %s %s", method, path))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return pkgerrors.New(pkgerrors.CodeGateway, fmt.Sprintf("gateway responded %d", resp.StatusCode))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return pkgerrors.New(pkgerrors.CodeGateway, fmt.Sprintf("gateway rejected request with %d", resp.StatusCode)).
			WithDetails(map[string]any{"status": resp.StatusCode, "path": path})
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode gateway response")
	}
	return nil
}
