// Package catalog lists the products the storefront can sell.
package catalog

import (
	"context"
	"errors"
	"slices"
	"strings"

	"gofalre.io/storefront/models"
)

// FailureMessage is shown when the product list cannot be loaded.
const FailureMessage = "Failed to load products. Please try again later."

// ErrFetchFailed wraps any failure to obtain the product list.
var ErrFetchFailed = errors.New("failed to fetch products")

type Source interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
}

// Search keeps the products whose title contains query, ignoring case.
// An empty query keeps everything.
func Search(products []models.Product, query string) []models.Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return slices.Clone(products)
	}

	matched := make([]models.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Title), query) {
			matched = append(matched, p)
		}
	}
	return matched
}

func Find(products []models.Product, id int) (models.Product, bool) {
	i := slices.IndexFunc(products, func(p models.Product) bool {
		return p.ID == id
	})
	if i < 0 {
		return models.Product{}, false
	}
	return products[i], true
}
