package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexventures/nexsearch/internal/models"
)

var pgColumns = []string{
	"id", "title", "description", "tags", "features", "category_id", "category_name",
	"price", "rating", "is_active", "is_featured", "created_at",
}

func newMockPostgres(t *testing.T) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return newPostgresWithPool(mock, nil), mock
}

func TestPostgres_FindBySubstring(t *testing.T) {
	pg, mock := newMockPostgres(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := mock.NewRows(pgColumns).
		AddRow("1", "Wireless Headphones", "", `["audio", "wireless"]`, `[]`, "7", "Electronics",
			99.5, 4.5, true, false, created)
	mock.ExpectQuery(`WHERE p\.is_active AND p\.title ILIKE \$1 ORDER BY p\.id LIMIT \$2`).
		WithArgs("%wireless%", 10).
		WillReturnRows(rows)

	got, err := pg.FindBySubstring(context.Background(), models.FieldTitle, "Wireless", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, []string{"audio", "wireless"}, got[0].Tags)
	assert.Nil(t, got[0].Features)
	assert.Equal(t, "Electronics", got[0].CategoryName)
	assert.True(t, got[0].Active)
	assert.Equal(t, created, got[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_TagPredicateIsElementWise(t *testing.T) {
	pg, mock := newMockPostgres(t)
	mock.ExpectQuery(`jsonb_array_elements_text\(p\.tags\) AS t\(v\) WHERE t\.v ILIKE \$1\)`).
		WithArgs(`%50\%%`).
		WillReturnRows(mock.NewRows(pgColumns))

	got, err := pg.FindBySubstring(context.Background(), models.FieldTags, "50%", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindAllTermsAndAnyTerm(t *testing.T) {
	pg, mock := newMockPostgres(t)
	ctx := context.Background()

	mock.ExpectQuery(`p\.title ILIKE \$1 AND p\.title ILIKE \$2 ORDER BY p\.id$`).
		WithArgs("%samsung%", "%galaxy%").
		WillReturnRows(mock.NewRows(pgColumns))
	_, err := pg.FindAllTerms(ctx, []string{"samsung", "galaxy"}, 0)
	require.NoError(t, err)

	mock.ExpectQuery(`\(p\.title ILIKE \$1 OR p\.description ILIKE \$2\) ORDER BY p\.id LIMIT \$3`).
		WithArgs("%lumbar%", "%lumbar%", 5).
		WillReturnRows(mock.NewRows(pgColumns))
	_, err = pg.FindAnyTerm(ctx, []string{"lumbar"}, []models.Field{models.FieldTitle, models.FieldDescription}, 5)
	require.NoError(t, err)

	_, err = pg.FindAnyTerm(ctx, []string{"x"}, []models.Field{"sku"}, 0)
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindRelated(t *testing.T) {
	pg, mock := newMockPostgres(t)
	src := models.Product{ID: "1", Title: "Wireless Headphones", CategoryID: "7", Tags: []string{"audio"}, Price: 100}

	mock.ExpectQuery(`p\.id::text <> \$1 AND \(p\.category_id::text = \$2 OR .*lower\(t\.v\) = ANY\(\$3\).* OR p\.price BETWEEN \$4 AND \$5 OR p\.title ILIKE \$6\) ORDER BY p\.rating DESC NULLS LAST, p\.id LIMIT \$7`).
		WithArgs("1", "7", []string{"audio"}, pgxmock.AnyArg(), pgxmock.AnyArg(), "%wireless%", 3).
		WillReturnRows(mock.NewRows(pgColumns).
			AddRow("2", "Bluetooth Speaker", "", `["audio"]`, `[]`, "7", "", 80.0, 4.0, true, false, time.Time{}))

	got, err := pg.FindRelated(context.Background(), src, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(got))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SampleTitlesAndCount(t *testing.T) {
	pg, mock := newMockPostgres(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT p\.title FROM products p WHERE p\.is_active ORDER BY p\.id LIMIT \$1`).
		WithArgs(2).
		WillReturnRows(mock.NewRows([]string{"title"}).AddRow("A").AddRow("B"))
	titles, err := pg.SampleTitles(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, titles)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products`).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(42))
	n, err := pg.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetNotFound(t *testing.T) {
	pg, mock := newMockPostgres(t)
	mock.ExpectQuery(`WHERE p\.id::text = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := pg.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_QueryErrorIsWrapped(t *testing.T) {
	pg, mock := newMockPostgres(t)
	connErr := errors.New("connection reset by peer")
	mock.ExpectQuery(`FROM products p`).WillReturnError(connErr)

	_, err := pg.FindBySubstring(context.Background(), models.FieldTitle, "x", 0)
	assert.ErrorIs(t, err, connErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ReadOnly(t *testing.T) {
	pg, _ := newMockPostgres(t)
	ctx := context.Background()
	assert.ErrorIs(t, pg.Upsert(ctx, models.Product{ID: "1"}), ErrReadOnly)
	assert.ErrorIs(t, pg.Delete(ctx, "1"), ErrReadOnly)
}
