package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/nexventures/nexsearch/internal/models"
)

const (
	relatedMaxTags      = 5
	relatedMinTagLen    = 3
	relatedTitleWords   = 3
	relatedMinWordLen   = 4
	relatedPriceBandPct = 0.30
)

// relation holds the criteria a candidate is compared against in FindRelated.
// A candidate is related when it meets any one of them.
type relation struct {
	sourceID   string
	categoryID string
	tags       []string // lowercased
	titleWord  string   // lowercased, empty when the title has no significant word
	minPrice   float64
	maxPrice   float64
}

func newRelation(p models.Product) relation {
	r := relation{sourceID: p.ID, categoryID: p.CategoryID}
	for _, t := range p.Tags {
		if len(r.tags) == relatedMaxTags {
			break
		}
		if utf8.RuneCountInString(t) >= relatedMinTagLen {
			r.tags = append(r.tags, strings.ToLower(t))
		}
	}
	words := strings.Fields(p.Title)
	if len(words) > relatedTitleWords {
		words = words[:relatedTitleWords]
	}
	for _, w := range words {
		if utf8.RuneCountInString(w) >= relatedMinWordLen {
			r.titleWord = strings.ToLower(w)
			break
		}
	}
	if p.Price > 0 {
		r.minPrice = p.Price * (1 - relatedPriceBandPct)
		r.maxPrice = p.Price * (1 + relatedPriceBandPct)
	}
	return r
}

// empty reports whether no criterion can match anything.
func (r relation) empty() bool {
	return r.categoryID == "" && len(r.tags) == 0 && r.titleWord == "" && r.maxPrice == 0
}

func (r relation) matches(c *models.Product) bool {
	if c.ID == r.sourceID || !c.Active {
		return false
	}
	if r.categoryID != "" && c.CategoryID == r.categoryID {
		return true
	}
	for _, t := range c.Tags {
		lt := strings.ToLower(t)
		for _, want := range r.tags {
			if lt == want {
				return true
			}
		}
	}
	if r.maxPrice > 0 && c.Price >= r.minPrice && c.Price <= r.maxPrice {
		return true
	}
	return r.titleWord != "" && strings.Contains(strings.ToLower(c.Title), r.titleWord)
}
