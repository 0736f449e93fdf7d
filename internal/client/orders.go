// Package client holds the HTTP clients the services use to talk to each
// other.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gofrs/uuid"
)

// clientTimeout bounds every cross-service call. Callers treat a timeout the
// same as any other failure.
const clientTimeout = 3 * time.Second

// OrdersClient reads purchase facts from the order service.
type OrdersClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOrdersClient(baseURL string) *OrdersClient {
	return &OrdersClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: clientTimeout},
	}
}

type verifyPurchaseResponse struct {
	Purchased bool `json:"purchased"`
}

// VerifyPurchase asks the order service whether the user bought the product
// in the given completed order.
func (c *OrdersClient) VerifyPurchase(ctx context.Context, userID, productID, orderID uuid.UUID) (bool, error) {
	query := url.Values{}
	query.Set("userId", userID.String())
	query.Set("productId", productID.String())
	query.Set("orderId", orderID.String())

	endpoint := c.baseURL + "/orders/verify-purchase?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("client: failed to build verify-purchase request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("client: verify-purchase call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("client: verify-purchase returned status %d", resp.StatusCode)
	}

	var payload verifyPurchaseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, fmt.Errorf("client: failed to decode verify-purchase response: %w", err)
	}

	return payload.Purchased, nil
}
