package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gofrs/uuid"

	"github.com/kembakery/cakeshop/internal/review"
)

// UsersClient reads public profiles from the user service.
type UsersClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewUsersClient(baseURL string) *UsersClient {
	return &UsersClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: clientTimeout},
	}
}

type profileResponse struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Avatar    string `json:"avatar"`
}

// GetProfile fetches the public author profile for a user.
func (c *UsersClient) GetProfile(ctx context.Context, userID uuid.UUID) (*review.Author, error) {
	endpoint := fmt.Sprintf("%s/users/%s/profile", c.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("client: failed to build profile request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: profile call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("client: profile call returned status %d", resp.StatusCode)
	}

	var payload profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("client: failed to decode profile response: %w", err)
	}

	return &review.Author{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Avatar:    payload.Avatar,
	}, nil
}
