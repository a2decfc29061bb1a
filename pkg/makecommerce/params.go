package makecommerce

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/elida-shop/storefront-backend/pkg/enums"
	pkgerrors "github.com/elida-shop/storefront-backend/pkg/errors"
)

// Currency is fixed for the storefront; the gateway contract sends it on
// every transaction.
const Currency = "EUR"

const redirectMethodName = "redirect"

// TransactionParams describes a transaction-creation request. The three
// callback URLs route the shopper (and the gateway's server-to-server
// notification) back into the storefront.
type TransactionParams struct {
	Amount          decimal.Decimal
	Reference       string
	Email           string
	CustomerIP      string
	ReturnURL       string
	CancelURL       string
	NotificationURL string
}

func (p TransactionParams) validate() *pkgerrors.Error {
	switch {
	case !p.Amount.IsPositive():
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction amount must be positive")
	case strings.TrimSpace(p.Reference) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction reference required")
	case strings.TrimSpace(p.Email) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	case p.ReturnURL == "" || p.CancelURL == "" || p.NotificationURL == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "return, cancel and notification urls required")
	}
	return nil
}

type callbackURL struct {
	URL    string `json:"url"`
	Method string `json:"method"`
}

type transactionBody struct {
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	Reference         string `json:"reference"`
	MerchantData      string `json:"merchant_data"`
	RecurringRequired bool   `json:"recurring_required"`
	TransactionURL    struct {
		ReturnURL       callbackURL `json:"return_url"`
		CancelURL       callbackURL `json:"cancel_url"`
		NotificationURL callbackURL `json:"notification_url"`
	} `json:"transaction_url"`
}

type customerBody struct {
	Email   string `json:"email"`
	Country string `json:"country"`
	Locale  string `json:"locale"`
	IP      string `json:"ip"`
}

type appInfo struct {
	Module          string `json:"module"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
}

type createTransactionRequest struct {
	Transaction transactionBody `json:"transaction"`
	Customer    customerBody    `json:"customer"`
	AppInfo     appInfo         `json:"app_info"`
}

// PaymentMethod is one entry of the gateway's payment_methods listing.
type PaymentMethod struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// PaymentMethods groups the gateway's offered payment flows.
type PaymentMethods struct {
	Other []PaymentMethod `json:"other"`
}

// Transaction is the gateway-side payment record. Only id and status are ever
// persisted locally; the reference joins it to the local order.
type Transaction struct {
	ID             string                  `json:"id"`
	Status         enums.TransactionStatus `json:"status"`
	Reference      string                  `json:"reference"`
	Amount         string                  `json:"amount,omitempty"`
	Currency       string                  `json:"currency,omitempty"`
	PaymentMethods PaymentMethods          `json:"payment_methods"`
}

// RedirectURL selects the hosted-payment-page entry from the response. The
// gateway marks it with the redirect method name; anything else is unusable
// for this storefront's flow.
func (t *Transaction) RedirectURL() (string, bool) {
	if t == nil {
		return "", false
	}
	for _, method := range t.PaymentMethods.Other {
		if method.Name == redirectMethodName && method.URL != "" {
			return method.URL, true
		}
	}
	return "", false
}

type gatewayErrorBody struct {
	Message string `json:"message"`
}
