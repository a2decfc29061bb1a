package ipify

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/elida-shop/storefront-backend/pkg/config"
	pkgerrors "github.com/elida-shop/storefront-backend/pkg/errors"
)

// Client resolves the caller's public IP through the ipify echo service. The
// gateway wants a customer IP on every transaction; this is the fallback when
// the inbound request carries no usable public address.
type Client struct {
	httpClient *http.Client
	url        string
}

func NewClient(cfg config.IPLookupConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        strings.TrimRight(cfg.URL, "/") + "?format=json",
	}
}

// Lookup returns the echoed public IP address.
func (c *Client) Lookup(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build ip lookup request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ip lookup")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "ip lookup returned non-200")
	}

	var payload struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode ip lookup response")
	}
	if payload.IP == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "ip lookup returned empty address")
	}
	return payload.IP, nil
}
