package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nexventures/nexsearch/internal/models"
)

// pgxPool is the subset of *pgxpool.Pool the Postgres catalog uses.
type pgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// pgSelect reads the marketplace's products table joined to its category names.
// Tags and features are JSONB arrays.
const pgSelect = `SELECT p.id::text, p.title, COALESCE(p.description, ''),
	COALESCE(p.tags, '[]'::jsonb)::text, COALESCE(p.features, '[]'::jsonb)::text,
	COALESCE(p.category_id::text, ''), COALESCE(c.name, ''),
	p.price, COALESCE(p.rating, 0), p.is_active, COALESCE(p.is_featured, false),
	COALESCE(p.created_at, '0001-01-01 00:00:00'::timestamp)
FROM products p
LEFT JOIN product_categories c ON c.id = p.category_id`

// Postgres reads the catalog from the marketplace's PostgreSQL database.
// The marketplace owns that schema, so writes return ErrReadOnly.
type Postgres struct {
	pool   pgxPool
	logger *zap.Logger
}

// NewPostgres connects to the database at url and verifies the connection.
func NewPostgres(ctx context.Context, url string, logger *zap.Logger) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres url: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if logger != nil {
		logger.Info("postgres catalog connected",
			zap.String("host", cfg.ConnConfig.Host), zap.String("database", cfg.ConnConfig.Database))
	}
	return newPostgresWithPool(pool, logger), nil
}

func newPostgresWithPool(pool pgxPool, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{pool: pool, logger: logger}
}

// pgArgs numbers placeholders as arguments are added.
type pgArgs []any

func (a *pgArgs) add(v any) string {
	*a = append(*a, v)
	return fmt.Sprintf("$%d", len(*a))
}

func pgPredicate(f models.Field, placeholder string) (string, error) {
	switch f {
	case models.FieldTitle:
		return "p.title ILIKE " + placeholder, nil
	case models.FieldDescription:
		return "p.description ILIKE " + placeholder, nil
	case models.FieldTags:
		return "EXISTS (SELECT 1 FROM jsonb_array_elements_text(p.tags) AS t(v) WHERE t.v ILIKE " + placeholder + ")", nil
	case models.FieldFeatures:
		return "EXISTS (SELECT 1 FROM jsonb_array_elements_text(p.features) AS f(v) WHERE f.v ILIKE " + placeholder + ")", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, f)
}

// FindBySubstring implements Query.
func (pg *Postgres) FindBySubstring(ctx context.Context, field models.Field, term string, limit int) ([]models.Product, error) {
	var args pgArgs
	pred, err := pgPredicate(field, args.add(likePattern(term)))
	if err != nil {
		return nil, err
	}
	return pg.query(ctx, pred, "p.id", limit, args)
}

// FindAllTerms implements Query.
func (pg *Postgres) FindAllTerms(ctx context.Context, terms []string, limit int) ([]models.Product, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	var args pgArgs
	conds := make([]string, len(terms))
	for i, t := range terms {
		conds[i], _ = pgPredicate(models.FieldTitle, args.add(likePattern(t)))
	}
	return pg.query(ctx, strings.Join(conds, " AND "), "p.id", limit, args)
}

// FindAnyTerm implements Query.
func (pg *Postgres) FindAnyTerm(ctx context.Context, terms []string, fields []models.Field, limit int) ([]models.Product, error) {
	if len(terms) == 0 || len(fields) == 0 {
		return nil, checkFields(fields)
	}
	var args pgArgs
	var conds []string
	for _, f := range fields {
		for _, t := range terms {
			pred, err := pgPredicate(f, args.add(likePattern(t)))
			if err != nil {
				return nil, err
			}
			conds = append(conds, pred)
		}
	}
	return pg.query(ctx, "("+strings.Join(conds, " OR ")+")", "p.id", limit, args)
}

// SampleTitles implements Query.
func (pg *Postgres) SampleTitles(ctx context.Context, limit int) ([]string, error) {
	sql := "SELECT p.title FROM products p WHERE p.is_active ORDER BY p.id"
	var args []any
	if limit > 0 {
		sql += " LIMIT $1"
		args = append(args, limit)
	}
	rows, err := pg.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("sample titles: %w", err)
	}
	titles, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("sample titles: %w", err)
	}
	return titles, nil
}

// FindRelated implements Query.
func (pg *Postgres) FindRelated(ctx context.Context, p models.Product, limit int) ([]models.Product, error) {
	rel := newRelation(p)
	if rel.empty() {
		return nil, nil
	}
	var args pgArgs
	where := "p.id::text <> " + args.add(rel.sourceID)
	var conds []string
	if rel.categoryID != "" {
		conds = append(conds, "p.category_id::text = "+args.add(rel.categoryID))
	}
	if len(rel.tags) > 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM jsonb_array_elements_text(p.tags) AS t(v) WHERE lower(t.v) = ANY("+args.add(rel.tags)+"))")
	}
	if rel.maxPrice > 0 {
		conds = append(conds, "p.price BETWEEN "+args.add(rel.minPrice)+" AND "+args.add(rel.maxPrice))
	}
	if rel.titleWord != "" {
		conds = append(conds, "p.title ILIKE "+args.add(likePattern(rel.titleWord)))
	}
	where += " AND (" + strings.Join(conds, " OR ") + ")"
	return pg.query(ctx, where, "p.rating DESC NULLS LAST, p.id", limit, args)
}

// Featured implements Query.
func (pg *Postgres) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	return pg.query(ctx, "p.is_featured", "p.rating DESC NULLS LAST, p.id", limit, nil)
}

func (pg *Postgres) query(ctx context.Context, where, orderBy string, limit int, args pgArgs) ([]models.Product, error) {
	sql := pgSelect + " WHERE p.is_active AND " + where + " ORDER BY " + orderBy
	if limit > 0 {
		sql += " LIMIT " + args.add(limit)
	}
	rows, err := pg.pool.Query(ctx, sql, args...)
	if err != nil {
		pg.logger.Debug("postgres catalog query failed", zap.String("where", where), zap.Error(err))
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()
	var out []models.Product
	for rows.Next() {
		p, err := scanPgProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return out, nil
}

func scanPgProduct(row pgx.Row) (models.Product, error) {
	var (
		p              models.Product
		tags, features string
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &tags, &features, &p.CategoryID, &p.CategoryName,
		&p.Price, &p.Rating, &p.Active, &p.Featured, &p.CreatedAt); err != nil {
		return p, err
	}
	if err := decodeList(tags, &p.Tags); err != nil {
		return p, fmt.Errorf("product %s tags: %w", p.ID, err)
	}
	if err := decodeList(features, &p.Features); err != nil {
		return p, fmt.Errorf("product %s features: %w", p.ID, err)
	}
	return p, nil
}

// Get implements Store.
func (pg *Postgres) Get(ctx context.Context, id string) (*models.Product, error) {
	p, err := scanPgProduct(pg.pool.QueryRow(ctx, pgSelect+" WHERE p.id::text = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// IDs implements Store.
func (pg *Postgres) IDs(ctx context.Context) ([]string, error) {
	rows, err := pg.pool.Query(ctx, "SELECT id::text FROM products ORDER BY id")
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Count implements Store.
func (pg *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	err := pg.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products").Scan(&n)
	return n, err
}

// Upsert implements Store; the marketplace owns product writes.
func (pg *Postgres) Upsert(context.Context, ...models.Product) error {
	return ErrReadOnly
}

// Delete implements Store; the marketplace owns product writes.
func (pg *Postgres) Delete(context.Context, ...string) error {
	return ErrReadOnly
}

// Ping checks the database connection.
func (pg *Postgres) Ping(ctx context.Context) error {
	return pg.pool.Ping(ctx)
}

// Close implements Store.
func (pg *Postgres) Close() error {
	pg.pool.Close()
	return nil
}
