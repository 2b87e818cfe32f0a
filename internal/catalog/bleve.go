package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/nexventures/nexsearch/internal/models"
)

const (
	foldedKeywordAnalyzer = "folded_keyword"
	bleveDocType          = "product"
	bleveLoadBatch        = 1000
)

// bleveDoc is the indexed form of a product. Every text field is one lowercased
// token per value, so a wildcard "*term*" is a substring test. Source carries the
// full product for reloading an on-disk index.
type bleveDoc struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Features    []string `json:"features"`
	Source      string   `json:"source"`
}

// Type lets bleve pick the product mapping.
func (bleveDoc) Type() string { return bleveDocType }

// Bleve is a Store whose substring predicates run as wildcard queries against a
// Bleve index. Product records live in an embedded Memory store; every index hit
// is re-checked against the record, since bleve wildcards cannot express a
// literal '*' or '?'.
type Bleve struct {
	index bleve.Index
	docs  *Memory
}

func newBleveMapping() (mapping.IndexMapping, error) {
	im := bleve.NewIndexMapping()
	err := im.AddCustomAnalyzer(foldedKeywordAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     single.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register analyzer: %w", err)
	}

	text := bleve.NewTextFieldMapping()
	text.Analyzer = foldedKeywordAnalyzer
	text.Store = false
	text.IncludeInAll = false
	text.IncludeTermVectors = false

	source := bleve.NewTextFieldMapping()
	source.Index = false
	source.Store = true
	source.IncludeInAll = false

	doc := bleve.NewDocumentMapping()
	for _, f := range models.AllFields {
		doc.AddFieldMappingsAt(string(f), text)
	}
	doc.AddFieldMappingsAt("source", source)
	im.AddDocumentMapping(bleveDocType, doc)
	im.DefaultType = bleveDocType
	im.DefaultMapping = doc
	return im, nil
}

// NewBleve creates or opens a Bleve catalog index at path. An existing index is
// opened and its products reloaded. If the mapping changes, remove the index
// directory to rebuild it.
func NewBleve(path string) (*Bleve, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		b := &Bleve{index: index, docs: NewMemory()}
		if err := b.load(); err != nil {
			_ = index.Close()
			return nil, err
		}
		return b, nil
	}

	im, err := newBleveMapping()
	if err != nil {
		return nil, err
	}
	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &Bleve{index: index, docs: NewMemory()}, nil
}

// NewBleveMemOnly creates an index that lives only in memory.
func NewBleveMemOnly() (*Bleve, error) {
	im, err := newBleveMapping()
	if err != nil {
		return nil, err
	}
	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &Bleve{index: index, docs: NewMemory()}, nil
}

// load reads every stored product back from the index.
func (b *Bleve) load() error {
	var products []models.Product
	for from := 0; ; from += bleveLoadBatch {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), bleveLoadBatch, from, false)
		req.Fields = []string{"source"}
		req.SortBy([]string{"_id"})
		res, err := b.index.Search(req)
		if err != nil {
			return fmt.Errorf("failed to load Bleve products: %w", err)
		}
		for _, hit := range res.Hits {
			raw, _ := hit.Fields["source"].(string)
			var p models.Product
			if err := json.Unmarshal([]byte(raw), &p); err != nil {
				return fmt.Errorf("failed to decode product %s: %w", hit.ID, err)
			}
			products = append(products, p)
		}
		if len(res.Hits) < bleveLoadBatch {
			break
		}
	}
	b.docs.upsert(products)
	return nil
}

var wildcardCleaner = strings.NewReplacer("*", "?")

func substringQuery(field models.Field, term string) blevequery.Query {
	// '*' and '?' cannot be escaped; '?' matches them and the record re-check drops false hits.
	q := bleve.NewWildcardQuery("*" + wildcardCleaner.Replace(strings.ToLower(term)) + "*")
	q.SetField(string(field))
	return q
}

// FindBySubstring implements Query.
func (b *Bleve) FindBySubstring(ctx context.Context, field models.Field, term string, limit int) ([]models.Product, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return b.search(ctx, substringQuery(field, term), limit, func(p *models.Product) bool {
		return p.Contains(field, term)
	})
}

// FindAllTerms implements Query.
func (b *Bleve) FindAllTerms(ctx context.Context, terms []string, limit int) ([]models.Product, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	conj := bleve.NewConjunctionQuery()
	for _, t := range terms {
		conj.AddQuery(substringQuery(models.FieldTitle, t))
	}
	return b.search(ctx, conj, limit, func(p *models.Product) bool {
		for _, t := range terms {
			if !p.Contains(models.FieldTitle, t) {
				return false
			}
		}
		return true
	})
}

// FindAnyTerm implements Query.
func (b *Bleve) FindAnyTerm(ctx context.Context, terms []string, fields []models.Field, limit int) ([]models.Product, error) {
	if err := checkFields(fields); err != nil {
		return nil, err
	}
	if len(terms) == 0 || len(fields) == 0 {
		return nil, nil
	}
	disj := bleve.NewDisjunctionQuery()
	for _, f := range fields {
		for _, t := range terms {
			disj.AddQuery(substringQuery(f, t))
		}
	}
	return b.search(ctx, disj, limit, func(p *models.Product) bool {
		for _, f := range fields {
			for _, t := range terms {
				if p.Contains(f, t) {
					return true
				}
			}
		}
		return false
	})
}

// search runs q, maps hits to active products that pass verify, and returns them in ID order.
func (b *Bleve) search(ctx context.Context, q blevequery.Query, limit int, verify func(*models.Product) bool) ([]models.Product, error) {
	total, err := b.docs.Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequestOptions(q, total, 0, false)
	req.SortBy([]string{"_id"})
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	var out []models.Product
	for _, hit := range res.Hits {
		p, err := b.docs.Get(ctx, hit.ID)
		if err != nil {
			continue
		}
		if !p.Active || !verify(p) {
			continue
		}
		out = append(out, *p)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// SampleTitles implements Query.
func (b *Bleve) SampleTitles(ctx context.Context, limit int) ([]string, error) {
	return b.docs.SampleTitles(ctx, limit)
}

// FindRelated implements Query.
func (b *Bleve) FindRelated(ctx context.Context, p models.Product, limit int) ([]models.Product, error) {
	return b.docs.FindRelated(ctx, p, limit)
}

// Featured implements Query.
func (b *Bleve) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	return b.docs.Featured(ctx, limit)
}

// Upsert implements Store.
func (b *Bleve) Upsert(ctx context.Context, products ...models.Product) error {
	batch := b.index.NewBatch()
	for _, p := range products {
		src, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to encode product %s: %w", p.ID, err)
		}
		doc := bleveDoc{
			Title:       p.Title,
			Description: p.Description,
			Tags:        p.Tags,
			Features:    p.Features,
			Source:      string(src),
		}
		if err := batch.Index(p.ID, doc); err != nil {
			return fmt.Errorf("failed to index product %s: %w", p.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to apply Bleve batch: %w", err)
	}
	return b.docs.Upsert(ctx, products...)
}

// Delete implements Store.
func (b *Bleve) Delete(ctx context.Context, ids ...string) error {
	batch := b.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to apply Bleve batch: %w", err)
	}
	return b.docs.Delete(ctx, ids...)
}

// Get implements Store.
func (b *Bleve) Get(ctx context.Context, id string) (*models.Product, error) {
	return b.docs.Get(ctx, id)
}

// IDs implements Store.
func (b *Bleve) IDs(ctx context.Context) ([]string, error) {
	return b.docs.IDs(ctx)
}

// Count implements Store.
func (b *Bleve) Count(ctx context.Context) (int, error) {
	return b.docs.Count(ctx)
}

// Close implements Store.
func (b *Bleve) Close() error {
	return b.index.Close()
}
