// internal/adapters/db/product_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const productColumns = `id, ean_code, product_name, images, unit, supplier, quantity, quantity_sold,
	price, category, expiry_date, arrival_date, created_at, updated_at`

// productRepository implements ports.ProductRepository
type productRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *Database, logger *slog.Logger) ports.ProductRepository {
	return &productRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "product")),
	}
}

func scanProduct(row scanner) (*domain.Product, error) {
	p := &domain.Product{}
	var unit string
	err := row.Scan(
		&p.ID, &p.EANCode, &p.Name, &p.Images, &unit, &p.Supplier,
		&p.Quantity, &p.QuantitySold, &p.Price, &p.Category,
		&p.ExpiryDate, &p.ArrivalDate, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Unit = domain.Unit(unit)
	if p.Images == nil {
		p.Images = []string{}
	}
	return p, nil
}

// Save inserts a new product
func (r *productRepository) Save(ctx context.Context, p *domain.Product) error {
	p.PrepareForStorage()

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(ctx, query,
		p.ID, p.EANCode, p.Name, p.Images, string(p.Unit), p.Supplier,
		p.Quantity, p.QuantitySold, p.Price, p.Category,
		p.ExpiryDate, p.ArrivalDate, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", translateError(err))
	}

	r.logger.DebugContext(ctx, "product saved",
		slog.String("product_id", p.ID.String()),
		slog.String("ean_code", p.EANCode))

	return nil
}

// Update rewrites the editable columns. quantity_sold is only ever moved by
// checkouts, so it is not touched here.
func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now()

	query := `
		UPDATE products SET
			ean_code = $2, product_name = $3, images = $4, unit = $5, supplier = $6,
			quantity = $7, price = $8, category = $9, expiry_date = $10, arrival_date = $11,
			updated_at = $12
		WHERE id = $1
		RETURNING quantity_sold`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.EANCode, p.Name, p.Images, string(p.Unit), p.Supplier,
		p.Quantity, p.Price, p.Category, p.ExpiryDate, p.ArrivalDate, p.UpdatedAt,
	).Scan(&p.QuantitySold)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.NotFoundError{Entity: "Product", ID: p.ID.String()}
		}
		return fmt.Errorf("failed to update product: %w", translateError(err))
	}

	r.logger.DebugContext(ctx, "product updated", slog.String("product_id", p.ID.String()))
	return nil
}

// FindByID returns (nil, nil) when no product matches
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return p, nil
}

// FindByEAN returns (nil, nil) when no product carries the code
func (r *productRepository) FindByEAN(ctx context.Context, ean string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE ean_code = $1`

	p, err := scanProduct(r.db.QueryRow(ctx, query, strings.TrimSpace(ean)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product by EAN: %w", err)
	}
	return p, nil
}

// List returns one page of products plus the total matching count
func (r *productRepository) List(ctx context.Context, filter ports.ProductFilter) ([]*domain.Product, int64, error) {
	where := squirrel.And{}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + escapeLike(s) + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"product_name": pattern},
			squirrel.ILike{"ean_code": pattern},
			squirrel.ILike{"supplier": pattern},
		})
	}
	if filter.Category != "" {
		where = append(where, squirrel.Eq{"category": filter.Category})
	}
	if filter.Supplier != "" {
		where = append(where, squirrel.Eq{"supplier": filter.Supplier})
	}
	if filter.InStock != nil {
		if *filter.InStock {
			where = append(where, squirrel.Expr("quantity - quantity_sold > 0"))
		} else {
			where = append(where, squirrel.Expr("quantity - quantity_sold <= 0"))
		}
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("products").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	qb := psql.Select(productColumns).From("products").Where(where).
		OrderBy(productOrderBy(filter.SortBy, filter.SortOrder), "id")
	if filter.Limit > 0 {
		qb = qb.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		qb = qb.Offset(filter.Offset)
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}

	products, err := ScanMany(rows, scanProduct)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan products: %w", err)
	}
	return products, total, nil
}

func productOrderBy(sortBy, sortOrder string) string {
	direction := "ASC"
	if strings.EqualFold(sortOrder, "desc") {
		direction = "DESC"
	}

	switch sortBy {
	case "name":
		return "product_name " + direction
	case "price":
		return "price " + direction
	case "stock":
		return "(quantity - quantity_sold) " + direction
	case "category":
		return "category " + direction
	case "expiry":
		return "expiry_date " + direction + " NULLS LAST"
	case "created":
		return "created_at " + direction
	default:
		return "created_at DESC"
	}
}

// ListLowStock returns products whose available stock is at or below threshold
func (r *productRepository) ListLowStock(ctx context.Context, threshold decimal.Decimal, limit uint64) ([]*domain.Product, error) {
	qb := psql.Select(productColumns).From("products").
		Where(squirrel.Expr("quantity - quantity_sold <= ?", threshold)).
		OrderBy("(quantity - quantity_sold) ASC", "product_name ASC")
	if limit > 0 {
		qb = qb.Limit(limit)
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build low stock query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock products: %w", err)
	}

	products, err := ScanMany(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("failed to scan low stock products: %w", err)
	}
	return products, nil
}

// Delete removes a product; its adjustments cascade, sale lines keep their snapshot
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: "Product", ID: id.String()}
	}

	r.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id.String()))
	return nil
}

// Count returns the number of catalog products
func (r *productRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// escapeLike escapes LIKE wildcards in user input
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
