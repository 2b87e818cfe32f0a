package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/nexventures/nexsearch/internal/models"
)

// sqliteDriver is go-sqlite3 with a Unicode-aware fold() function registered on
// every connection; SQLite's own lower() only folds ASCII.
const sqliteDriver = "sqlite3_nexsearch"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold", strings.ToLower, true)
		},
	})
}

const sqliteColumns = `id, title, description, tags, features, category_id, category_name,
	price, rating, is_active, is_featured, created_at`

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates a SQLite catalog at dbPath and initializes the schema.
// Parent directories are created if they do not exist. ":memory:" opens a private
// in-memory database.
func NewSQLite(dbPath string) (*SQLite, error) {
	memory := dbPath == ":memory:"
	if !memory {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open(sqliteDriver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func initSQLiteSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		features TEXT NOT NULL DEFAULT '[]',
		category_id TEXT NOT NULL DEFAULT '',
		category_name TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL DEFAULT 0,
		rating REAL NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		is_featured INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_products_active ON products(is_active);
	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
	`
	_, err := db.Exec(schema)
	return err
}

func sqlitePredicate(f models.Field) (string, error) {
	switch f {
	case models.FieldTitle:
		return `fold(title) LIKE ? ESCAPE '\'`, nil
	case models.FieldDescription:
		return `fold(description) LIKE ? ESCAPE '\'`, nil
	case models.FieldTags:
		return `EXISTS (SELECT 1 FROM json_each(products.tags) WHERE fold(json_each.value) LIKE ? ESCAPE '\')`, nil
	case models.FieldFeatures:
		return `EXISTS (SELECT 1 FROM json_each(products.features) WHERE fold(json_each.value) LIKE ? ESCAPE '\')`, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, f)
}

// FindBySubstring implements Query.
func (s *SQLite) FindBySubstring(ctx context.Context, field models.Field, term string, limit int) ([]models.Product, error) {
	pred, err := sqlitePredicate(field)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, pred+" ORDER BY id LIMIT ?", likePattern(term), sqliteLimit(limit))
}

// FindAllTerms implements Query.
func (s *SQLite) FindAllTerms(ctx context.Context, terms []string, limit int) ([]models.Product, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	pred, _ := sqlitePredicate(models.FieldTitle)
	conds := make([]string, len(terms))
	args := make([]any, 0, len(terms)+1)
	for i, t := range terms {
		conds[i] = pred
		args = append(args, likePattern(t))
	}
	args = append(args, sqliteLimit(limit))
	return s.query(ctx, strings.Join(conds, " AND ")+" ORDER BY id LIMIT ?", args...)
}

// FindAnyTerm implements Query.
func (s *SQLite) FindAnyTerm(ctx context.Context, terms []string, fields []models.Field, limit int) ([]models.Product, error) {
	if len(terms) == 0 || len(fields) == 0 {
		return nil, checkFields(fields)
	}
	var conds []string
	var args []any
	for _, f := range fields {
		pred, err := sqlitePredicate(f)
		if err != nil {
			return nil, err
		}
		for _, t := range terms {
			conds = append(conds, pred)
			args = append(args, likePattern(t))
		}
	}
	args = append(args, sqliteLimit(limit))
	return s.query(ctx, "("+strings.Join(conds, " OR ")+") ORDER BY id LIMIT ?", args...)
}

// SampleTitles implements Query.
func (s *SQLite) SampleTitles(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title FROM products WHERE is_active = 1 ORDER BY id LIMIT ?`, sqliteLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("sample titles: %w", err)
	}
	defer rows.Close()
	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// FindRelated implements Query.
func (s *SQLite) FindRelated(ctx context.Context, p models.Product, limit int) ([]models.Product, error) {
	rel := newRelation(p)
	if rel.empty() {
		return nil, nil
	}
	var conds []string
	args := []any{rel.sourceID}
	if rel.categoryID != "" {
		conds = append(conds, "category_id = ?")
		args = append(args, rel.categoryID)
	}
	if len(rel.tags) > 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM json_each(products.tags) WHERE fold(json_each.value) IN (?"+strings.Repeat(", ?", len(rel.tags)-1)+"))")
		for _, t := range rel.tags {
			args = append(args, t)
		}
	}
	if rel.maxPrice > 0 {
		conds = append(conds, "price BETWEEN ? AND ?")
		args = append(args, rel.minPrice, rel.maxPrice)
	}
	if rel.titleWord != "" {
		conds = append(conds, `fold(title) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(rel.titleWord))
	}
	args = append(args, sqliteLimit(limit))
	return s.query(ctx, "id <> ? AND ("+strings.Join(conds, " OR ")+") ORDER BY rating DESC, id LIMIT ?", args...)
}

// Featured implements Query.
func (s *SQLite) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	return s.query(ctx, "is_featured = 1 ORDER BY rating DESC, id LIMIT ?", sqliteLimit(limit))
}

// query selects active products matching where, which carries its own ORDER BY and LIMIT.
func (s *SQLite) query(ctx context.Context, where string, args ...any) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sqliteColumns+" FROM products WHERE is_active = 1 AND "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()
	var out []models.Product
	for rows.Next() {
		p, err := scanSQLiteProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanSQLiteProduct(row interface{ Scan(...any) error }) (models.Product, error) {
	var (
		p                models.Product
		tags, features   string
		active, featured int
		createdAt        sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Title, &p.Description, &tags, &features, &p.CategoryID, &p.CategoryName,
		&p.Price, &p.Rating, &active, &featured, &createdAt)
	if err != nil {
		return p, err
	}
	if err := decodeList(tags, &p.Tags); err != nil {
		return p, fmt.Errorf("product %s tags: %w", p.ID, err)
	}
	if err := decodeList(features, &p.Features); err != nil {
		return p, fmt.Errorf("product %s features: %w", p.ID, err)
	}
	p.Active = active != 0
	p.Featured = featured != 0
	if createdAt.Valid {
		p.CreatedAt = createdAt.Time
	}
	return p, nil
}

// Upsert implements Store.
func (s *SQLite) Upsert(ctx context.Context, products ...models.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (`+sqliteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title, description = excluded.description,
			tags = excluded.tags, features = excluded.features,
			category_id = excluded.category_id, category_name = excluded.category_name,
			price = excluded.price, rating = excluded.rating,
			is_active = excluded.is_active, is_featured = excluded.is_featured,
			created_at = excluded.created_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		tags, err := encodeList(p.Tags)
		if err != nil {
			return err
		}
		features, err := encodeList(p.Features)
		if err != nil {
			return err
		}
		var created any
		if !p.CreatedAt.IsZero() {
			created = p.CreatedAt.UTC()
		}
		if _, err := stmt.ExecContext(ctx, p.ID, p.Title, p.Description, tags, features,
			p.CategoryID, p.CategoryName, p.Price, p.Rating, boolInt(p.Active), boolInt(p.Featured), created); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// Delete implements Store.
func (s *SQLite) Delete(ctx context.Context, ids ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete product %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, id string) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sqliteColumns+" FROM products WHERE id = ?", id)
	p, err := scanSQLiteProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// IDs implements Store.
func (s *SQLite) IDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count implements Store.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}

// Close implements Store.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func sqliteLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a case-folded, escaped "%term%" pattern for LIKE/ILIKE.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func decodeList(raw string, dst *[]string) error {
	if raw == "" || raw == "null" {
		*dst = nil
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return err
	}
	if len(items) == 0 {
		items = nil
	}
	*dst = items
	return nil
}
