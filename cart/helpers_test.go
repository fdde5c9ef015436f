package cart_test

import (
	"context"
	"errors"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"

	"gofalre.io/storefront/models"
)

// memoryStorage is an in-process cart.Storage that counts writes.
type memoryStorage struct {
	mu      sync.Mutex
	data    map[string][]byte
	writes  int
	deletes int
	failSet error
	failGet error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{data: make(map[string][]byte)}
}

func (m *memoryStorage) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failGet != nil {
		return nil, false, m.failGet
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryStorage) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSet != nil {
		return m.failSet
	}
	m.data[key] = append([]byte(nil), value...)
	m.writes++
	return nil
}

func (m *memoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	m.deletes++
	return nil
}

func (m *memoryStorage) raw(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.data[key]
	return v, ok
}

var errStorageDown = errors.New("storage down")

func product(id int, price string) models.Product {
	return models.Product{
		ID:    id,
		Title: gofakeit.ProductName(),
		Price: decimal.RequireFromString(price),
	}
}

func randomProduct() models.Product {
	return models.Product{
		ID:    gofakeit.Number(1, 1_000_000),
		Title: gofakeit.ProductName(),
		Price: decimal.NewFromFloat(gofakeit.Price(1, 100)).Round(2),
		Image: gofakeit.URL(),
	}
}
