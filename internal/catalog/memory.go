package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nexventures/nexsearch/internal/models"
)

// Memory is an in-process Store. Products are kept sorted by ID so every scan
// returns them in a stable order.
type Memory struct {
	mu       sync.RWMutex
	products []models.Product
	byID     map[string]int
}

// NewMemory creates a Memory store holding products.
func NewMemory(products ...models.Product) *Memory {
	m := &Memory{byID: make(map[string]int)}
	m.upsert(products)
	return m
}

// FindBySubstring implements Query.
func (m *Memory) FindBySubstring(ctx context.Context, field models.Field, term string, limit int) ([]models.Product, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return m.scan(ctx, limit, func(p *models.Product) bool {
		return p.Contains(field, term)
	})
}

// FindAllTerms implements Query.
func (m *Memory) FindAllTerms(ctx context.Context, terms []string, limit int) ([]models.Product, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	return m.scan(ctx, limit, func(p *models.Product) bool {
		for _, t := range terms {
			if !p.Contains(models.FieldTitle, t) {
				return false
			}
		}
		return true
	})
}

// FindAnyTerm implements Query.
func (m *Memory) FindAnyTerm(ctx context.Context, terms []string, fields []models.Field, limit int) ([]models.Product, error) {
	if err := checkFields(fields); err != nil {
		return nil, err
	}
	if len(terms) == 0 || len(fields) == 0 {
		return nil, nil
	}
	return m.scan(ctx, limit, func(p *models.Product) bool {
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

// SampleTitles implements Query.
func (m *Memory) SampleTitles(ctx context.Context, limit int) ([]string, error) {
	ps, err := m.scan(ctx, limit, func(*models.Product) bool { return true })
	if err != nil {
		return nil, err
	}
	titles := make([]string, len(ps))
	for i := range ps {
		titles[i] = ps[i].Title
	}
	return titles, nil
}

// FindRelated implements Query.
func (m *Memory) FindRelated(ctx context.Context, p models.Product, limit int) ([]models.Product, error) {
	rel := newRelation(p)
	if rel.empty() {
		return nil, nil
	}
	ps, err := m.scan(ctx, 0, rel.matches)
	if err != nil {
		return nil, err
	}
	return byRating(ps, limit), nil
}

// Featured implements Query.
func (m *Memory) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	ps, err := m.scan(ctx, 0, func(p *models.Product) bool { return p.Featured })
	if err != nil {
		return nil, err
	}
	return byRating(ps, limit), nil
}

// Upsert implements Store.
func (m *Memory) Upsert(ctx context.Context, products ...models.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsert(products)
	return nil
}

func (m *Memory) upsert(products []models.Product) {
	added := false
	for _, p := range products {
		if i, ok := m.byID[p.ID]; ok {
			m.products[i] = p
			continue
		}
		m.products = append(m.products, p)
		m.byID[p.ID] = len(m.products) - 1
		added = true
	}
	if added {
		sort.SliceStable(m.products, func(i, j int) bool { return m.products[i].ID < m.products[j].ID })
		m.reindex()
	}
}

// Delete implements Store. Unknown ids are ignored.
func (m *Memory) Delete(ctx context.Context, ids ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := m.products[:0]
	for _, p := range m.products {
		if _, ok := drop[p.ID]; !ok {
			kept = append(kept, p)
		}
	}
	m.products = kept
	m.reindex()
	return nil
}

func (m *Memory) reindex() {
	m.byID = make(map[string]int, len(m.products))
	for i, p := range m.products {
		m.byID[p.ID] = i
	}
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context, id string) (*models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	p := m.products[i]
	return &p, nil
}

// IDs implements Store.
func (m *Memory) IDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, len(m.products))
	for i, p := range m.products {
		ids[i] = p.ID
	}
	return ids, nil
}

// Count implements Store.
func (m *Memory) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.products), nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

// scan returns active products accepted by keep, in ID order, stopping at limit.
func (m *Memory) scan(ctx context.Context, limit int, keep func(*models.Product) bool) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Product
	for i := range m.products {
		p := &m.products[i]
		if !p.Active || !keep(p) {
			continue
		}
		out = append(out, *p)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// byRating sorts ps by rating descending, then ID, and truncates to limit.
func byRating(ps []models.Product, limit int) []models.Product {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Rating != ps[j].Rating {
			return ps[i].Rating > ps[j].Rating
		}
		return ps[i].ID < ps[j].ID
	})
	if limit > 0 && len(ps) > limit {
		ps = ps[:limit]
	}
	return ps
}

func checkFields(fields []models.Field) error {
	for _, f := range fields {
		if !f.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownField, f)
		}
	}
	return nil
}
