package sslcommerz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/refurbmart/refurbmart-backend/pkg/errors"
)

const (
	initPath           = "gwprocess/v4/api.php"
	validationPath     = "validator/api/validationserverAPI.php"
	queryPath          = "validator/api/merchantTransIDvalidationAPI.php"
	responseReadLimit  = 1 << 20
	errorBodyReadLimit = 1024
	defaultTimeout     = 15 * time.Second

	StatusSuccess   = "SUCCESS"
	StatusFailed    = "FAILED"
	StatusValid     = "VALID"
	StatusValidated = "VALIDATED"
	StatusPending   = "PENDING"
	StatusCancelled = "CANCELLED"
	StatusExpired   = "EXPIRED"

	apiConnectDone = "DONE"
)

var (
	errStoreIDRequired  = errors.New("sslcommerz store id is required")
	errPasswordRequired = errors.New("sslcommerz store password is required")
	errBaseURLRequired  = errors.New("sslcommerz base url is required")
)

// Client talks to the SSLCommerz hosted payment API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	storeID    string
	storePass  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds a client for the given store credentials and base URL
// (sandbox or live).
func NewClient(baseURL, storeID, storePassword string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return nil, errStoreIDRequired
	}
	storePassword = strings.TrimSpace(storePassword)
	if storePassword == "" {
		return nil, errPasswordRequired
	}

	client := &Client{
		baseURL:    baseURL,
		storeID:    storeID,
		storePass:  storePassword,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// SessionRequest is the subset of the session API fields the marketplace sends.
// Amount is a decimal string such as "225.99".
type SessionRequest struct {
	TransactionID string
	Amount        string
	Currency      string
	SuccessURL    string
	FailURL       string
	CancelURL     string
	IPNURL        string
	ProductName   string
	NumItems      int

	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string
	CustomerAddress  string
	CustomerCity     string
	CustomerPostcode string
	CustomerCountry  string
}

// Session is the gateway's answer to a session request.
type Session struct {
	Status         string
	FailedReason   string
	SessionKey     string
	GatewayPageURL string
	Raw            map[string]any
}

// OK reports whether a hosted payment page is available.
func (s *Session) OK() bool {
	return s != nil && strings.EqualFold(s.Status, StatusSuccess) && s.GatewayPageURL != ""
}

// Validation is the server-side confirmation of a completed payment.
type Validation struct {
	Status        string
	TransactionID string
	ValID         string
	Amount        string
	Currency      string
	BankTranID    string
	CardType      string
	// CurrencyType and CurrencyAmount carry the session's original currency
	// when it differs from the store currency reported in Currency.
	CurrencyType   string
	CurrencyAmount string
	Raw            map[string]any
}

// Valid reports whether the gateway considers the payment genuine.
func (v *Validation) Valid() bool {
	if v == nil {
		return false
	}
	status := strings.ToUpper(v.Status)
	return status == StatusValid || status == StatusValidated
}

// Failed reports whether the gateway closed the attempt without payment.
func (v *Validation) Failed() bool {
	if v == nil {
		return false
	}
	switch strings.ToUpper(v.Status) {
	case StatusFailed, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// InitSession creates a hosted payment session.
func (c *Client) InitSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sslcommerz client not configured")
	}
	if strings.TrimSpace(req.TransactionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	if strings.TrimSpace(req.Amount) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount is required")
	}

	form := url.Values{}
	form.Set("store_id", c.storeID)
	form.Set("store_passwd", c.storePass)
	form.Set("total_amount", req.Amount)
	form.Set("currency", req.Currency)
	form.Set("tran_id", req.TransactionID)
	form.Set("success_url", req.SuccessURL)
	form.Set("fail_url", req.FailURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("ipn_url", req.IPNURL)
	form.Set("cus_name", req.CustomerName)
	form.Set("cus_email", req.CustomerEmail)
	form.Set("cus_phone", req.CustomerPhone)
	form.Set("cus_add1", req.CustomerAddress)
	form.Set("cus_city", req.CustomerCity)
	form.Set("cus_postcode", req.CustomerPostcode)
	form.Set("cus_country", req.CustomerCountry)
	form.Set("shipping_method", "Courier")
	form.Set("ship_name", req.CustomerName)
	form.Set("ship_add1", req.CustomerAddress)
	form.Set("ship_city", req.CustomerCity)
	form.Set("ship_postcode", req.CustomerPostcode)
	form.Set("ship_country", req.CustomerCountry)
	form.Set("product_name", req.ProductName)
	form.Set("product_category", "Electronics")
	form.Set("product_profile", "physical-goods")
	form.Set("num_of_item", fmt.Sprintf("%d", req.NumItems))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(initPath), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build session request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	raw, err := c.do(httpReq, "session")
	if err != nil {
		return nil, err
	}
	return &Session{
		Status:         stringField(raw, "status"),
		FailedReason:   stringField(raw, "failedreason"),
		SessionKey:     stringField(raw, "sessionkey"),
		GatewayPageURL: stringField(raw, "GatewayPageURL"),
		Raw:            raw,
	}, nil
}

// Validate confirms a payment by the val_id the gateway posted back.
func (c *Client) Validate(ctx context.Context, valID string) (*Validation, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sslcommerz client not configured")
	}
	valID = strings.TrimSpace(valID)
	if valID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "val_id is required")
	}

	query := url.Values{}
	query.Set("val_id", valID)
	query.Set("store_id", c.storeID)
	query.Set("store_passwd", c.storePass)
	query.Set("format", "json")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(validationPath)+"?"+query.Encode(), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build validation request")
	}

	raw, err := c.do(httpReq, "validation")
	if err != nil {
		return nil, err
	}
	return validationFrom(raw), nil
}

// QueryTransaction lists the gateway's records for a merchant transaction id.
// An empty slice means the gateway has not seen a payment attempt yet.
func (c *Client) QueryTransaction(ctx context.Context, transactionID string) ([]Validation, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sslcommerz client not configured")
	}
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}

	query := url.Values{}
	query.Set("tran_id", transactionID)
	query.Set("store_id", c.storeID)
	query.Set("store_passwd", c.storePass)
	query.Set("format", "json")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(queryPath)+"?"+query.Encode(), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build transaction query request")
	}

	raw, err := c.do(httpReq, "transaction query")
	if err != nil {
		return nil, err
	}
	if connect := stringField(raw, "APIConnect"); !strings.EqualFold(connect, apiConnectDone) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("APIConnect %q", connect), "transaction query rejected")
	}
	elements, _ := raw["element"].([]any)
	out := make([]Validation, 0, len(elements))
	for _, el := range elements {
		fields, ok := el.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, *validationFrom(fields))
	}
	return out, nil
}

func validationFrom(raw map[string]any) *Validation {
	return &Validation{
		Status:         stringField(raw, "status"),
		TransactionID:  stringField(raw, "tran_id"),
		ValID:          stringField(raw, "val_id"),
		Amount:         stringField(raw, "amount"),
		Currency:       stringField(raw, "currency"),
		BankTranID:     stringField(raw, "bank_tran_id"),
		CardType:       stringField(raw, "card_type"),
		CurrencyType:   stringField(raw, "currency_type"),
		CurrencyAmount: stringField(raw, "currency_amount"),
		Raw:            raw,
	}
}

func (c *Client) do(req *http.Request, op string) (map[string]any, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+op+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), op+" request failed")
	}

	var raw map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseReadLimit)).Decode(&raw); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+op+" response")
	}
	return raw, nil
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
}

// stringField reads a field that the gateway may send as a string or a number.
func stringField(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
