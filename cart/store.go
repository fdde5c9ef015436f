// Package cart holds the session's shopping cart and keeps it written through
// to durable storage.
package cart

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"gofalre.io/storefront/models"
)

// Store is the single source of truth for cart contents within a session.
// Every mutation writes the snapshot before it is applied in memory, so state
// and storage agree once a call returns.
type Store struct {
	mu sync.Mutex

	storage Storage
	key     string
	logger  *zap.Logger

	lines       []models.CartLine
	total       decimal.Decimal
	initialized bool
}

func NewStore(storage Storage, key string, logger *zap.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		storage: storage,
		key:     key,
		logger:  logger,
		total:   decimal.Zero,
	}
}

// Initialize rehydrates the cart from storage. Only the first call reads
// storage; any failure leaves an empty cart and is logged, never returned.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initializeLocked(ctx)
}

func (s *Store) initializeLocked(ctx context.Context) {
	if s.initialized {
		return
	}
	s.initialized = true
	s.commit(nil)

	if s.storage == nil {
		s.logger.Warn("Durable storage unavailable, starting with an empty cart", zap.String("key", s.key))
		return
	}

	data, found, err := s.storage.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("Failed to read cart snapshot", zap.String("key", s.key), zap.Error(err))
		return
	}
	if !found {
		s.logger.Debug("No cart snapshot found", zap.String("key", s.key))
		return
	}

	lines, err := DecodeSnapshot(data)
	if err != nil {
		s.logger.Warn("Failed to parse cart snapshot", zap.String("key", s.key), zap.Error(err))
		return
	}

	s.commit(lines)
	s.logger.Debug("Cart rehydrated", zap.Int("lines", len(lines)), zap.String("total", s.total.String()))
}

// Add puts one unit of product in the cart. A new line starts at quantity
// (at least one); an existing line always grows by exactly one unit.
func (s *Store) Add(ctx context.Context, product models.Product, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initializeLocked(ctx)

	next := slices.Clone(s.lines)
	if i := indexOf(next, product.ID); i >= 0 {
		next[i].Quantity++
	} else {
		next = append(next, models.NewCartLine(product, quantity))
	}

	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.commit(next)

	return nil
}

// Remove takes one unit of productID out of the cart, dropping the line when
// its last unit goes. Unknown ids leave state and storage untouched.
func (s *Store) Remove(ctx context.Context, productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initializeLocked(ctx)

	i := indexOf(s.lines, productID)
	if i < 0 {
		return nil
	}

	next := slices.Clone(s.lines)
	if next[i].Quantity > 1 {
		next[i].Quantity--
	} else {
		next = slices.Delete(next, i, i+1)
	}

	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.commit(next)

	return nil
}

// Clear empties the cart and deletes the snapshot entry.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.storage != nil {
		if err := s.storage.Delete(ctx, s.key); err != nil {
			s.logger.Error("Failed to delete cart snapshot", zap.String("key", s.key), zap.Error(err))
			return fmt.Errorf("failed to delete cart snapshot: %w", err)
		}
	}

	s.initialized = true
	s.commit(nil)

	return nil
}

// Lines returns a copy of the cart lines in insertion order.
func (s *Store) Lines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.lines)
}

// Snapshot returns a copy of the lines and their total taken under one lock.
func (s *Store) Snapshot() ([]models.CartLine, decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.lines), s.total
}

func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.total
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.lines)
}

func (s *Store) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.initialized
}

func (s *Store) persist(ctx context.Context, lines []models.CartLine) error {
	if s.storage == nil {
		return nil
	}

	data, err := EncodeSnapshot(lines)
	if err != nil {
		return fmt.Errorf("failed to encode cart snapshot: %w", err)
	}

	if err = s.storage.Set(ctx, s.key, data); err != nil {
		s.logger.Error("Failed to write cart snapshot", zap.String("key", s.key), zap.Error(err))
		return fmt.Errorf("failed to write cart snapshot: %w", err)
	}

	return nil
}

// commit replaces the lines and recomputes the total from scratch.
func (s *Store) commit(lines []models.CartLine) {
	s.lines = lines
	s.total = models.SumLines(lines)
}

func indexOf(lines []models.CartLine, productID int) int {
	return slices.IndexFunc(lines, func(l models.CartLine) bool {
		return l.ProductID == productID
	})
}
