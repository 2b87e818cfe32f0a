package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nexventures/nexsearch/internal/catalog"
	"github.com/nexventures/nexsearch/internal/keyword"
	"github.com/nexventures/nexsearch/internal/metrics"
	"github.com/nexventures/nexsearch/internal/models"
	"github.com/nexventures/nexsearch/internal/ranking"
)

// candidateSet accumulates candidates across phases, deduplicated by product ID.
// The first phase to find a product keeps its attribution.
type candidateSet struct {
	seen  map[string]struct{}
	items []*ranking.Candidate
}

func newCandidateSet() *candidateSet {
	return &candidateSet{seen: make(map[string]struct{})}
}

func (s *candidateSet) add(p models.Product, mt models.MatchType, words []string) {
	if _, ok := s.seen[p.ID]; ok {
		return
	}
	s.seen[p.ID] = struct{}{}
	s.items = append(s.items, &ranking.Candidate{Product: p, MatchType: mt, MatchedWords: words})
}

// addUpTo adds at most want products not already in the set and reports how
// many it added.
func (s *candidateSet) addUpTo(ps []models.Product, want int, mt models.MatchType, words func(*models.Product) []string) int {
	added := 0
	for i := range ps {
		if added >= want {
			break
		}
		if _, ok := s.seen[ps[i].ID]; ok {
			continue
		}
		s.add(ps[i], mt, words(&ps[i]))
		added++
	}
	return added
}

func (s *candidateSet) len() int { return len(s.items) }

// matcher runs the matching phases against a catalog, loosening the predicate
// until it has target candidates.
type matcher struct {
	catalog   catalog.Query
	pairLimit int
	logger    *zap.Logger
	metrics   *metrics.Recorder
}

// match returns deduplicated candidates for phrase and terms. With no terms it
// runs the exact-phrase phase only. Any catalog error aborts matching.
func (m *matcher) match(ctx context.Context, phrase string, terms []string, target int) ([]*ranking.Candidate, error) {
	set := newCandidateSet()
	distinct := keyword.Distinct(terms)

	// Phase 1: the whole query as a title substring.
	if err := m.phase(ctx, set, models.MatchExactPhrase, func(limit int) ([]models.Product, error) {
		return m.catalog.FindBySubstring(ctx, models.FieldTitle, phrase, limit)
	}, titleWords(distinct), target); err != nil {
		return nil, err
	}
	if len(distinct) == 0 {
		return set.items, nil
	}

	// Phase 2: every term in the title.
	if set.len() < target {
		if err := m.phase(ctx, set, models.MatchAllWords, func(limit int) ([]models.Product, error) {
			return m.catalog.FindAllTerms(ctx, distinct, limit)
		}, titleWords(distinct), target); err != nil {
			return nil, err
		}
	}

	// Phase 3: any pair of terms in the title.
	if set.len() < target && len(distinct) >= 2 {
		m.metrics.MatchPhase(string(models.MatchPartial))
		before := set.len()
		words := titleWords(distinct)
	pairs:
		for i := 0; i < len(distinct); i++ {
			for j := i + 1; j < len(distinct); j++ {
				want := target - set.len()
				if want <= 0 {
					break pairs
				}
				if m.pairLimit > 0 {
					want = min(want, m.pairLimit)
				}
				ps, err := m.catalog.FindAllTerms(ctx, []string{distinct[i], distinct[j]}, set.len()+want)
				if err != nil {
					return nil, fmt.Errorf("%s phase: %w", models.MatchPartial, err)
				}
				set.addUpTo(ps, want, models.MatchPartial, words)
			}
		}
		m.logger.Debug("match phase", zap.String("phase", string(models.MatchPartial)),
			zap.Int("found", set.len()-before), zap.Int("total", set.len()))
	}

	// Phase 4: any term in the title.
	if set.len() < target {
		if err := m.phase(ctx, set, models.MatchSingleWord, func(limit int) ([]models.Product, error) {
			return m.catalog.FindAnyTerm(ctx, distinct, []models.Field{models.FieldTitle}, limit)
		}, titleWords(distinct), target); err != nil {
			return nil, err
		}
	}

	// Phase 5: any term in any field, then featured products if nothing matched at all.
	if set.len() < target {
		if err := m.phase(ctx, set, models.MatchBroad, func(limit int) ([]models.Product, error) {
			return m.catalog.FindAnyTerm(ctx, distinct, models.AllFields, limit)
		}, anyFieldWords(distinct), target); err != nil {
			return nil, err
		}
	}
	if set.len() == 0 {
		if err := m.phase(ctx, set, models.MatchRelatedProducts, func(limit int) ([]models.Product, error) {
			return m.catalog.Featured(ctx, limit)
		}, func(*models.Product) []string { return []string{} }, target); err != nil {
			return nil, err
		}
	}
	return set.items, nil
}

// phase runs one catalog call and adds up to the number of candidates still
// missing under mt. The call fetches that many plus the current set size so
// products already found in earlier phases cannot crowd out new ones.
func (m *matcher) phase(
	ctx context.Context,
	set *candidateSet,
	mt models.MatchType,
	find func(limit int) ([]models.Product, error),
	words func(*models.Product) []string,
	target int,
) error {
	m.metrics.MatchPhase(string(mt))
	want := target - set.len()
	ps, err := find(set.len() + want)
	if err != nil {
		return fmt.Errorf("%s phase: %w", mt, err)
	}
	found := set.addUpTo(ps, want, mt, words)
	m.logger.Debug("match phase", zap.String("phase", string(mt)),
		zap.Int("found", found), zap.Int("total", set.len()))
	return nil
}

// titleWords returns the terms found in a product's title.
func titleWords(terms []string) func(*models.Product) []string {
	return func(p *models.Product) []string {
		out := []string{}
		for _, t := range terms {
			if p.Contains(models.FieldTitle, t) {
				out = append(out, t)
			}
		}
		return out
	}
}

// anyFieldWords returns the terms found in any searchable field.
func anyFieldWords(terms []string) func(*models.Product) []string {
	return func(p *models.Product) []string {
		out := []string{}
		for _, t := range terms {
			for _, f := range models.AllFields {
				if p.Contains(f, t) {
					out = append(out, t)
					break
				}
			}
		}
		return out
	}
}

// trimmedPhrase is the query text matched as a whole in phase 1.
func trimmedPhrase(q string) string {
	return strings.Join(strings.Fields(q), " ")
}
