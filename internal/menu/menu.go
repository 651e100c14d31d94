package menu

import (
	"encoding/json"
	"fmt"
	"os"
)

// Catalog is a versioned snapshot of the orderable menu. It is immutable
// once loaded; callers get a fresh snapshot on every Load.
type Catalog struct {
	MenuVersion string      `json:"menuVersion"`
	Categories  []string    `json:"categories"`
	Items       []Item      `json:"items"`
	Constraints Constraints `json:"constraints"`
}

// Item is a single orderable menu entry. BasePrice is in minor currency
// units. Option descriptors are opaque to the backend and passed through
// unchanged.
type Item struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	BasePrice   int               `json:"basePrice"`
	Available   bool              `json:"available"`
	Description string            `json:"description"`
	Allergens   []string          `json:"allergens"`
	Options     []json.RawMessage `json:"options"`
}

// UnmarshalJSON defaults Available to true when the field is absent.
func (i *Item) UnmarshalJSON(data []byte) error {
	type alias Item
	a := alias{Available: true}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*i = Item(a)
	return nil
}

// Constraints are the catalog-level ordering constraints. They are exposed
// over the tool surface but not enforced during order creation.
type Constraints struct {
	OpenHours        string   `json:"openHours"`
	MaxItemsPerOrder int      `json:"maxItemsPerOrder"`
	Notes            []string `json:"notes"`
}

// Reader loads the menu catalog from a static JSON file.
type Reader struct {
	path string
}

// NewReader creates a catalog reader for the given file path.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Load reads the catalog file. The file is read on every call so that a
// replaced catalog takes effect without a restart.
func (r *Reader) Load() (*Catalog, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu catalog: %w", err)
	}

	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse menu catalog: %w", err)
	}

	return &catalog, nil
}

// PriceLookup builds an id to base price mapping over items carrying an id.
func (c *Catalog) PriceLookup() map[string]int {
	prices := make(map[string]int, len(c.Items))
	for _, item := range c.Items {
		if item.ID != "" {
			prices[item.ID] = item.BasePrice
		}
	}
	return prices
}

// FindItem returns the item with the given id, or nil when absent.
func (c *Catalog) FindItem(id string) *Item {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i]
		}
	}
	return nil
}
