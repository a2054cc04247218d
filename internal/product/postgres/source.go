// Package postgres provides a Postgres-backed product source for deployments
// that keep the catalogue in SQL rather than the document store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/JakeFAU/render-gateway/internal/product"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTable = "products"

// Config controls the connection pool and the per-call budget.
type Config struct {
	DSN      string
	Table    string
	MaxConns int32
	Timeout  time.Duration
}

type queryRowCloser interface {
	QueryRow(context.Context, string, ...any) pgx.Row
	Ping(context.Context) error
	Close()
}

// Source reads products with a single-row SELECT.
type Source struct {
	pool    queryRowCloser
	query   string
	timeout time.Duration
}

// New connects a pool using cfg.
func New(ctx context.Context, cfg Config) (*Source, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("docstore.postgres.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	src, err := NewWithPool(pool, cfg.Table, cfg.Timeout)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return src, nil
}

// NewWithPool constructs a Source from an existing pool.
func NewWithPool(pool queryRowCloser, table string, timeout time.Duration) (*Source, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	// Amounts travel as text so they reach decimal.Decimal without a float
	// round trip. A stock of -1 marks a NULL column.
	query := fmt.Sprintf(`
SELECT
	id,
	COALESCE(name, ''),
	COALESCE(description, ''),
	COALESCE(price, 0)::text,
	COALESCE(mrp, 0)::text,
	COALESCE(image, ''),
	COALESCE(brand, ''),
	COALESCE(type, ''),
	COALESCE(stock, -1)
FROM %s
WHERE id = $1`, table)
	return &Source{pool: pool, query: query, timeout: timeout}, nil
}

// Ping checks that the database is reachable.
func (s *Source) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Source) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Fetch implements product.Source.
func (s *Source) Fetch(ctx context.Context, id string) (product.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		p          product.Product
		price, mrp string
		stock      int64
	)
	err := s.pool.QueryRow(ctx, s.query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&price,
		&mrp,
		&p.Image,
		&p.Brand,
		&p.Type,
		&stock,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.Product{}, product.Fail(product.CauseNotFound, id, err)
		}
		return product.Product{}, product.Fail(product.CauseNetwork, id, fmt.Errorf("select product: %w", err))
	}

	if p.Price, err = parseAmount("price", price); err != nil {
		return product.Product{}, product.Fail(product.CauseParse, id, err)
	}
	if p.MRP, err = parseAmount("mrp", mrp); err != nil {
		return product.Product{}, product.Fail(product.CauseParse, id, err)
	}
	if stock >= 0 {
		p.StockKnown = true
		p.Stock = int(stock)
	}
	return p, nil
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("column %s: %w", field, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("column %s: negative amount %s", field, raw)
	}
	return d, nil
}
