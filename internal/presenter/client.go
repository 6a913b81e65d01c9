package presenter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hitpay-gateway/internal/models"
)

// HTTPStatusFetcher reads the status endpoint the thank-you page polls.
type HTTPStatusFetcher struct {
	baseURL string
	http    *http.Client
}

// NewHTTPStatusFetcher creates a fetcher for the service at baseURL.
func NewHTTPStatusFetcher(baseURL string, timeout time.Duration) *HTTPStatusFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPStatusFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchStatus performs one poll.
func (f *HTTPStatusFetcher) FetchStatus(ctx context.Context, orderID int64) (models.PollResponse, error) {
	q := url.Values{}
	q.Set("get_order_status", "1")
	q.Set("order_id", strconv.FormatInt(orderID, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/api/hitpay?"+q.Encode(), nil)
	if err != nil {
		return models.PollResponse{}, err
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return models.PollResponse{}, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.PollResponse{}, fmt.Errorf("status request returned %s", resp.Status)
	}

	var out models.PollResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.PollResponse{}, fmt.Errorf("failed to decode status: %w", err)
	}
	return out, nil
}
