package model

import "time"

// Category is a top-level forum section. Position defines the display
// order across the whole category set; the slug is the external address
// and never changes once created.
type Category struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Color       string    `json:"color,omitempty"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"createdAt"`

	// Filled by list/detail queries, not stored on the row.
	Subcategories []Subcategory `json:"subcategories,omitempty"`
	ThreadCount   int           `json:"threadCount"`
}

// Subcategory is a section nested under exactly one category.
// Its slug is unique within the parent, and position orders it there.
type Subcategory struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"categoryId"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CategorySummary is the projection attached to thread listings.
type CategorySummary struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color,omitempty"`
}

// SubcategorySummary is the projection attached to thread listings.
type SubcategorySummary struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}
