package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexventures/nexsearch/internal/models"
)

// productNamespace seeds the UUIDv5 given to records without an id.
var productNamespace = uuid.MustParse("6f1c2a3e-8d4b-5e9f-a07c-3b2d1e4f5a6b")

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// record is one product as written in a seed file.
type record struct {
	ID           string   `json:"id" yaml:"id"`
	Title        string   `json:"title" yaml:"title"`
	Description  string   `json:"description" yaml:"description"`
	Tags         []string `json:"tags" yaml:"tags"`
	Features     []string `json:"features" yaml:"features"`
	CategoryID   string   `json:"category_id" yaml:"category_id"`
	CategoryName string   `json:"category" yaml:"category"`
	Price        float64  `json:"price" yaml:"price"`
	Rating       float64  `json:"rating" yaml:"rating"`
	Active       *bool    `json:"active" yaml:"active"`
	Featured     bool     `json:"featured" yaml:"featured"`
	CreatedAt    string   `json:"created_at" yaml:"created_at"`
}

// product validates r and converts it. Missing ids are derived from the
// title, and a missing active flag means active.
func (r *record) product() (models.Product, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return models.Product{}, fmt.Errorf("%w: title is required", ErrInvalidRecord)
	}
	if r.Price < 0 || r.Rating < 0 {
		return models.Product{}, fmt.Errorf("%w: %q has a negative price or rating", ErrInvalidRecord, title)
	}
	p := models.Product{
		ID:           strings.TrimSpace(r.ID),
		Title:        title,
		Description:  strings.TrimSpace(r.Description),
		Tags:         cleanList(r.Tags),
		Features:     cleanList(r.Features),
		CategoryID:   strings.TrimSpace(r.CategoryID),
		CategoryName: strings.TrimSpace(r.CategoryName),
		Price:        r.Price,
		Rating:       r.Rating,
		Active:       r.Active == nil || *r.Active,
		Featured:     r.Featured,
	}
	if p.ID == "" {
		p.ID = uuid.NewSHA1(productNamespace, []byte(strings.ToLower(title))).String()
	}
	if r.CreatedAt != "" {
		t, err := parseTime(r.CreatedAt)
		if err != nil {
			return models.Product{}, fmt.Errorf("%w: %q: %v", ErrInvalidRecord, title, err)
		}
		p.CreatedAt = t
	}
	return p, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized created_at %q", s)
}

func cleanList(items []string) []string {
	var out []string
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

// splitList splits a spreadsheet cell on ';' or ','.
func splitList(cell string) []string {
	return cleanList(strings.FieldsFunc(cell, func(r rune) bool { return r == ';' || r == ',' }))
}
