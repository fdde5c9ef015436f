package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"gofalre.io/storefront/models"
)

const (
	DefaultBaseURL = "https://fakestoreapi.com"

	requestTimeout = 10 * time.Second
)

var _ Source = (*Client)(nil)

// Client reads the product list from a fakestoreapi-compatible endpoint.
// Each call is a single request; failures are not retried.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	url := c.baseURL + "/products"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("Failed to fetch products", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("Failed to fetch products", zap.String("url", url), zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: unexpected status %s", ErrFetchFailed, resp.Status)
	}

	var products []models.Product
	if err = json.NewDecoder(resp.Body).Decode(&products); err != nil {
		c.logger.Error("Failed to decode products", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to decode products: %w", ErrFetchFailed, err)
	}

	return products, nil
}
