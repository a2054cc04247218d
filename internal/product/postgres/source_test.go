package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/render-gateway/internal/product"
)

var productColumns = []string{"id", "name", "description", "price", "mrp", "image", "brand", "type", "stock"}

func TestFetchScansRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	src, err := NewWithPool(mock, "products", time.Second)
	require.NoError(t, err)

	mock.ExpectQuery("FROM products").
		WithArgs("abc123").
		WillReturnRows(pgxmock.NewRows(productColumns).
			AddRow("abc123", "Gel Pen", "Smooth.", "199", "249.50", "https://cdn.example/pen.jpg", "KamiKoto", "Pens", int64(0)))

	p, err := src.Fetch(context.Background(), "abc123")
	require.NoError(t, err)
	require.Equal(t, "Gel Pen", p.Name)
	require.True(t, p.Price.Equal(decimal.NewFromInt(199)))
	require.True(t, p.MRP.Equal(decimal.RequireFromString("249.5")))
	require.True(t, p.StockKnown)
	require.False(t, p.InStock())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchUnknownStock(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	src, err := NewWithPool(mock, "", 0)
	require.NoError(t, err)

	mock.ExpectQuery("FROM products").
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows(productColumns).
			AddRow("p1", "Pen", "", "0", "0", "", "", "", int64(-1)))

	p, err := src.Fetch(context.Background(), "p1")
	require.NoError(t, err)
	require.False(t, p.StockKnown)
	require.Equal(t, 0, p.Stock)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchFailureCauses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		expect func(pgxmock.PgxPoolIface)
		cause  product.Cause
	}{
		{
			name: "no rows",
			expect: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery("FROM products").WithArgs("x").WillReturnError(pgx.ErrNoRows)
			},
			cause: product.CauseNotFound,
		},
		{
			name: "connection error",
			expect: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery("FROM products").WithArgs("x").WillReturnError(errors.New("connection refused"))
			},
			cause: product.CauseNetwork,
		},
		{
			name: "bad amount",
			expect: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery("FROM products").WithArgs("x").
					WillReturnRows(pgxmock.NewRows(productColumns).
						AddRow("x", "Pen", "", "NaN?", "0", "", "", "", int64(1)))
			},
			cause: product.CauseParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			src, err := NewWithPool(mock, "products", time.Second)
			require.NoError(t, err)
			tt.expect(mock)

			_, err = src.Fetch(context.Background(), "x")
			require.Error(t, err)
			require.Equal(t, tt.cause, product.CauseOf(err))
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestNewWithPoolRejectsBadTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(mock, "products; drop table x", time.Second)
	require.Error(t, err)

	_, err = NewWithPool(nil, "products", time.Second)
	require.Error(t, err)
}

func TestPing(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mock.Close()

	src, err := NewWithPool(mock, "", time.Second)
	require.NoError(t, err)

	mock.ExpectPing()
	require.NoError(t, src.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	require.ErrorContains(t, src.Ping(context.Background()), "connection refused")
	require.NoError(t, mock.ExpectationsWereMet())
}
