package models

import (
	"strings"
	"time"

	"bazaar/pkg/domain"
	dErrors "bazaar/pkg/domain-errors"
)

// Category classifies a listed item. The set is closed; anything else is
// rejected at creation time.
type Category string

const (
	CategoryGrocery      Category = "grocery"
	CategoryMisc         Category = "misc"
	CategoryBooks        Category = "books"
	CategoryElectronics  Category = "electronics"
	CategoryFood         Category = "food"
	CategorySubscription Category = "subscription"
)

var validCategories = map[Category]struct{}{
	CategoryGrocery:      {},
	CategoryMisc:         {},
	CategoryBooks:        {},
	CategoryElectronics:  {},
	CategoryFood:         {},
	CategorySubscription: {},
}

// ParseCategory normalizes and validates a category string.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validCategories[c]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown category %q", s)
	}
	return c, nil
}

// Item is a listing in the catalog. VendorName is captured when the listing
// is created and is never updated when the vendor later renames.
type Item struct {
	ID          domain.ItemID   `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       float64         `json:"price"`
	Category    Category        `json:"category"`
	VendorID    domain.MemberID `json:"vendor_id"`
	VendorName  string          `json:"vendor_name"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewItem validates and constructs a listing.
func NewItem(id domain.ItemID, name, description string, price float64, category Category,
	vendorID domain.MemberID, vendorName string, now time.Time) (*Item, error) {
	if strings.TrimSpace(name) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "item name must not be empty")
	}
	if price < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "price must not be negative")
	}
	if _, ok := validCategories[category]; !ok {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown category")
	}
	if vendorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "vendor id must not be nil")
	}
	return &Item{
		ID:          id,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Price:       price,
		Category:    category,
		VendorID:    vendorID,
		VendorName:  vendorName,
		CreatedAt:   now,
	}, nil
}

// CreateItemRequest is the payload for listing an item.
type CreateItemRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
}

// ListFilter narrows a catalog listing. A zero filter matches everything.
type ListFilter struct {
	// Search matches case-insensitively against the item name.
	Search string
	// Categories limits results to the given set when non-empty.
	Categories []Category
}

// Matches reports whether the item passes the filter.
func (f ListFilter) Matches(item *Item) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(f.Search)) {
		return false
	}
	if len(f.Categories) > 0 {
		found := false
		for _, c := range f.Categories {
			if item.Category == c {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
