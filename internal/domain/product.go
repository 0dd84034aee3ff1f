package domain

import (
	"time"
)

// Product represents a product in the catalog with its child objects.
// Child slices and pointers are populated according to the hydration
// requested from the repository; an empty slice means "loaded, none exist"
// while nil may simply mean "not loaded".
type Product struct {
	ID               int64                `json:"id"`
	Title            string               `json:"title"`
	Price            int64                `json:"price"`
	Brand            *string              `json:"brand,omitempty"`
	MemoryAmount     *int64               `json:"memory_amount,omitempty"`
	TypeID           int64                `json:"type_id"`
	Type             *ProductType         `json:"type,omitempty"`
	SelectableValues []string             `json:"selectable_values"`
	Images           []ProductImage       `json:"images"`
	Color            *Color               `json:"color,omitempty"`
	ShortInfo        []ShortInfoItem      `json:"short_info"`
	AdditionalInfo   []AdditionalInfoItem `json:"additional_info"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// ProductImage represents an image associated with a product. Image order is
// insertion order (ascending id); the first image serves as the cover.
type ProductImage struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	URL       string `json:"url"`
}

// Color is an optional one-to-one color attribute of a product.
type Color struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	ColorValue string `json:"color_value"`
}

// ShortInfoItem is a short specification line shown in product previews.
type ShortInfoItem struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
	Value string `json:"value"`
}

// AdditionalInfoItem is an extended specification line of a product.
type AdditionalInfoItem struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// ProductListItem is the reduced projection returned by product listings.
// Image is the URL of the cover image, or nil when the product has no images.
type ProductListItem struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Price int64   `json:"price"`
	Image *string `json:"image"`
}

// CoverImage returns the URL of the first image, or nil if there are none.
func (p *Product) CoverImage() *string {
	if len(p.Images) == 0 {
		return nil
	}
	return &p.Images[0].URL
}
