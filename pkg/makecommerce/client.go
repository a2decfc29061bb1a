package makecommerce

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elida-shop/storefront-backend/pkg/config"
	pkgerrors "github.com/elida-shop/storefront-backend/pkg/errors"
	"github.com/elida-shop/storefront-backend/pkg/logger"
	"github.com/elida-shop/storefront-backend/pkg/metrics"
)

const transactionsPath = "/v1/transactions"

var (
	// ErrPaymentURLMissing signals a well-formed gateway response without a
	// usable redirect entry. Hard failure: there is nowhere to send the shopper.
	ErrPaymentURLMissing = errors.New("payment url missing in gateway response")

	// ErrGatewayUnavailable signals a failed status lookup.
	ErrGatewayUnavailable = errors.New("gateway status query failed")

	errCredentialsRequired = errors.New("makecommerce store id and secret key are required")
	errLoggerRequired      = errors.New("makecommerce logger is required")
)

// Client talks to the MakeCommerce transactions API with centralized auth,
// logging, and error mapping. Credentials live server-side only.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authHeader string
	country    string
	locale     string
	logger     *logger.Logger
	metrics    *metrics.PaymentMetrics
}

// NewClient initializes the gateway wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.MakeCommerceConfig, logg *logger.Logger, pm *metrics.PaymentMetrics) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	storeID := strings.TrimSpace(cfg.StoreID)
	secretKey := strings.TrimSpace(cfg.SecretKey)
	if storeID == "" || secretKey == "" {
		return nil, errCredentialsRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	credentials := base64.StdEncoding.EncodeToString([]byte(storeID + ":" + secretKey))

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authHeader: "Basic " + credentials,
		country:    cfg.Country,
		locale:     cfg.Locale,
		logger:     logg,
		metrics:    pm,
	}

	logg.Info(ctx, "makecommerce client initialized")
	return c, nil
}

// CreateTransaction opens a gateway transaction and returns it together with
// the hosted payment page URL. Invoked once per checkout attempt; the caller
// must not retry silently, a retry would open a duplicate transaction.
func (c *Client) CreateTransaction(ctx context.Context, params TransactionParams) (*Transaction, string, error) {
	if err := params.validate(); err != nil {
		return nil, "", err
	}

	body := createTransactionRequest{
		Customer: customerBody{
			Email:   params.Email,
			Country: c.country,
			Locale:  c.locale,
			IP:      params.CustomerIP,
		},
		AppInfo: appInfo{
			Module:          "ELIDA",
			Platform:        "Go",
			PlatformVersion: "1.0",
		},
	}
	body.Transaction = transactionBody{
		Amount:            params.Amount.StringFixed(2),
		Currency:          Currency,
		Reference:         params.Reference,
		MerchantData:      fmt.Sprintf("Order ID: %s", params.Reference),
		RecurringRequired: false,
	}
	body.Transaction.TransactionURL.ReturnURL = callbackURL{URL: params.ReturnURL, Method: http.MethodGet}
	body.Transaction.TransactionURL.CancelURL = callbackURL{URL: params.CancelURL, Method: http.MethodGet}
	body.Transaction.TransactionURL.NotificationURL = callbackURL{URL: params.NotificationURL, Method: http.MethodPost}

	c.log(ctx, "request", "create_transaction", map[string]any{
		"reference": params.Reference,
		"amount":    params.Amount.StringFixed(2),
		"email":     params.Email,
	})

	var tx Transaction
	if err := c.do(ctx, "create_transaction", http.MethodPost, transactionsPath, body, &tx); err != nil {
		return nil, "", err
	}

	redirectURL, ok := tx.RedirectURL()
	if !ok {
		c.log(ctx, "error", "create_transaction", map[string]any{
			"reference": params.Reference,
			"error":     ErrPaymentURLMissing.Error(),
		})
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, ErrPaymentURLMissing, "gateway offered no redirect flow")
	}

	c.log(ctx, "response", "create_transaction", map[string]any{
		"transaction_id": tx.ID,
		"status":         string(tx.Status),
	})
	return &tx, redirectURL, nil
}

// GetTransaction performs an authenticated status lookup by transaction id.
// The gateway's status is returned verbatim; callers decide what completion
// means.
func (c *Client) GetTransaction(ctx context.Context, transactionID string) (*Transaction, error) {
	id := strings.TrimSpace(transactionID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}

	c.log(ctx, "request", "get_transaction", map[string]any{"transaction_id": id})

	var tx Transaction
	if err := c.do(ctx, "get_transaction", http.MethodGet, transactionsPath+"/"+id, nil, &tx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.Join(ErrGatewayUnavailable, err), "gateway status query")
	}

	c.log(ctx, "response", "get_transaction", map[string]any{
		"transaction_id": tx.ID,
		"status":         string(tx.Status),
		"reference":      tx.Reference,
	})
	return &tx, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode gateway request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authHeader)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveGateway(op, "error", time.Since(start))
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("gateway %s", op))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.ObserveGateway(op, "error", time.Since(start))
		return c.mapGatewayError(ctx, op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		c.metrics.ObserveGateway(op, "error", time.Since(start))
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode gateway %s response", op))
	}

	c.metrics.ObserveGateway(op, "ok", time.Since(start))
	return nil
}

// mapGatewayError logs the gateway's own message for operators and returns a
// coded error whose public metadata never exposes it to the shopper.
func (c *Client) mapGatewayError(ctx context.Context, op string, resp *http.Response) error {
	var gatewayErr gatewayErrorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &gatewayErr)

	c.log(ctx, "error", op, map[string]any{
		"status":          resp.StatusCode,
		"gateway_message": gatewayErr.Message,
		"error":           fmt.Sprintf("gateway returned status %d", resp.StatusCode),
	})

	code := pkgerrors.CodeDependency
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		code = pkgerrors.CodeUnauthorized
	case http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = pkgerrors.CodeValidation
	}
	return pkgerrors.New(code, fmt.Sprintf("gateway %s failed with status %d", op, resp.StatusCode))
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("makecommerce %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("makecommerce %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"secret", "token", "email", "ip", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
