package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"gofalre.io/storefront/models"
)

type snapshotLine struct {
	ID       int         `json:"id"`
	Title    string      `json:"title"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
	Image    string      `json:"image,omitempty"`
}

// snapshotEntry is the decoding side of snapshotLine; a missing id stays nil.
type snapshotEntry struct {
	ID       *int        `json:"id"`
	Title    string      `json:"title"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
	Image    string      `json:"image,omitempty"`
}

// EncodeSnapshot serializes lines as a JSON array with prices as JSON numbers.
func EncodeSnapshot(lines []models.CartLine) ([]byte, error) {
	out := make([]snapshotLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, snapshotLine{
			ID:       line.ProductID,
			Title:    line.Title,
			Price:    json.Number(line.UnitPrice.String()),
			Quantity: line.Quantity,
			Image:    line.Image,
		})
	}
	return json.Marshal(out)
}

// DecodeSnapshot parses a snapshot. Quantities below one are read as one and
// repeated ids are merged so that every product appears on a single line.
// A null entry or an entry without an id fails the whole snapshot.
func DecodeSnapshot(data []byte) ([]models.CartLine, error) {
	var in []*snapshotEntry
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart snapshot: %w", err)
	}

	lines := make([]models.CartLine, 0, len(in))
	index := make(map[int]int, len(in))
	for i, entry := range in {
		if entry == nil {
			return nil, fmt.Errorf("cart snapshot entry %d is null", i)
		}
		if entry.ID == nil {
			return nil, fmt.Errorf("cart snapshot entry %d has no id", i)
		}
		raw := snapshotLine{
			ID:       *entry.ID,
			Title:    entry.Title,
			Price:    entry.Price,
			Quantity: entry.Quantity,
			Image:    entry.Image,
		}

		price := decimal.Zero
		if raw.Price != "" {
			p, err := decimal.NewFromString(raw.Price.String())
			if err != nil {
				return nil, fmt.Errorf("invalid price for product %d: %w", raw.ID, err)
			}
			price = p
		}

		quantity := raw.Quantity
		if quantity < 1 {
			quantity = 1
		}

		if j, ok := index[raw.ID]; ok {
			lines[j].Quantity += quantity
			continue
		}
		index[raw.ID] = len(lines)
		lines = append(lines, models.CartLine{
			ProductID: raw.ID,
			Title:     raw.Title,
			UnitPrice: price,
			Quantity:  quantity,
			Image:     raw.Image,
		})
	}

	return lines, nil
}
