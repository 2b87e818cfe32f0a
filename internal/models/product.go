// Package models defines core data structures for products, queries, and search results.
package models

import (
	"strings"
	"time"
)

// Product is a searchable catalog item. It is owned outside the search core and
// treated as an immutable read per query.
type Product struct {
	ID           string    `json:"id" yaml:"id"`
	Title        string    `json:"title" yaml:"title"`
	Description  string    `json:"description,omitempty" yaml:"description"`
	Tags         []string  `json:"tags,omitempty" yaml:"tags"`
	Features     []string  `json:"features,omitempty" yaml:"features"`
	CategoryID   string    `json:"category_id,omitempty" yaml:"category_id"`
	CategoryName string    `json:"category_name,omitempty" yaml:"category"`
	Price        float64   `json:"price" yaml:"price"`
	Rating       float64   `json:"rating" yaml:"rating"`
	Active       bool      `json:"is_active" yaml:"active"`
	Featured     bool      `json:"is_featured,omitempty" yaml:"featured"`
	CreatedAt    time.Time `json:"created_at,omitempty" yaml:"created_at"`
}

// Field names a searchable product field.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldTags        Field = "tags"
	FieldFeatures    Field = "features"
)

// AllFields lists every searchable field in the order broad matching checks them.
var AllFields = []Field{FieldTitle, FieldDescription, FieldTags, FieldFeatures}

// Valid reports whether f is a known searchable field.
func (f Field) Valid() bool {
	switch f {
	case FieldTitle, FieldDescription, FieldTags, FieldFeatures:
		return true
	}
	return false
}

// FieldText returns the lowercased text of field f. Tags and features are joined with spaces.
func (p *Product) FieldText(f Field) string {
	switch f {
	case FieldTitle:
		return strings.ToLower(p.Title)
	case FieldDescription:
		return strings.ToLower(p.Description)
	case FieldTags:
		return strings.ToLower(strings.Join(p.Tags, " "))
	case FieldFeatures:
		return strings.ToLower(strings.Join(p.Features, " "))
	}
	return ""
}

// Contains reports whether the lowercased term is a substring of field f.
func (p *Product) Contains(f Field, term string) bool {
	term = strings.ToLower(term)
	if f == FieldTags || f == FieldFeatures {
		// Match per element so a term never spans two tags.
		items := p.Tags
		if f == FieldFeatures {
			items = p.Features
		}
		for _, it := range items {
			if strings.Contains(strings.ToLower(it), term) {
				return true
			}
		}
		return false
	}
	return strings.Contains(p.FieldText(f), term)
}
