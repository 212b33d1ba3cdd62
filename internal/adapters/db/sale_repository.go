// internal/adapters/db/sale_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
)

const saleColumns = `id, user_id, customer_id, customer_name, customer_mobile, customer_address,
	total, payment_method, status, created_at, updated_at`

// saleRepository implements ports.SaleRepository
type saleRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *Database, logger *slog.Logger) ports.SaleRepository {
	return &saleRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "sale")),
	}
}

// CreateWithDeductions deducts stock and writes the sale in one transaction.
// Each deduction only applies while enough stock remains, so two cashiers
// selling the last packet cannot both succeed.
func (r *saleRepository) CreateWithDeductions(ctx context.Context, sale *domain.Sale, deductions []domain.StockDeduction) error {
	sale.PrepareForStorage()

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		for _, d := range deductions {
			if err := deductStock(ctx, tx, d); err != nil {
				return err
			}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO sales (`+saleColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			sale.ID, sale.UserID, sale.Customer.ID, sale.Customer.Name, sale.Customer.Mobile,
			sale.Customer.Address, sale.Total, string(sale.PaymentMethod), string(sale.Status),
			sale.CreatedAt, sale.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert sale: %w", err)
		}

		batch := &pgx.Batch{}
		for i, item := range sale.Items {
			batch.Queue(`
				INSERT INTO sale_items (sale_id, line_no, product_id, name, quantity, unit, price, stock_quantity, line_total)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				sale.ID, i, item.ProductID, item.Name, item.Quantity, string(item.Unit),
				item.Price, item.StockQuantity, item.LineTotal,
			)
		}

		br := tx.SendBatch(ctx, batch)
		for i := range sale.Items {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to insert sale item %d: %w", i, err)
			}
		}
		return br.Close()
	})
	if err != nil {
		return err
	}

	r.logger.DebugContext(ctx, "sale created",
		slog.String("sale_id", sale.ID.String()),
		slog.Int("items", len(sale.Items)))

	return nil
}

func deductStock(ctx context.Context, tx pgx.Tx, d domain.StockDeduction) error {
	tag, err := tx.Exec(ctx, `
		UPDATE products
		SET quantity_sold = quantity_sold + $2, updated_at = NOW()
		WHERE id = $1 AND quantity - quantity_sold >= $2`,
		d.ProductID, d.Quantity,
	)
	if err != nil {
		return fmt.Errorf("failed to deduct stock: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Lost the race or the product vanished; report which.
	var available decimal.Decimal
	err = tx.QueryRow(ctx, `SELECT quantity - quantity_sold FROM products WHERE id = $1`, d.ProductID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.NotFoundError{Entity: "Product", ID: d.ProductID.String()}
	}
	if err != nil {
		return fmt.Errorf("failed to read available stock: %w", err)
	}
	return &domain.InsufficientStockError{ProductName: d.ProductName, Available: available, Unit: d.Unit}
}

func scanSale(row scanner) (*domain.Sale, error) {
	s := &domain.Sale{}
	var payment, status string
	err := row.Scan(
		&s.ID, &s.UserID, &s.Customer.ID, &s.Customer.Name, &s.Customer.Mobile, &s.Customer.Address,
		&s.Total, &payment, &status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.PaymentMethod = domain.PaymentMethod(payment)
	s.Status = domain.SaleStatus(status)
	s.Items = []domain.SaleItem{}
	return s, nil
}

// FindByID returns (nil, nil) when no sale matches
func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	sale, err := scanSale(r.db.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find sale: %w", err)
	}

	if err := r.attachItems(ctx, []*domain.Sale{sale}); err != nil {
		return nil, err
	}
	return sale, nil
}

// List returns one page of sales, newest first
func (r *saleRepository) List(ctx context.Context, filter ports.SaleFilter) ([]*domain.Sale, int64, error) {
	where := squirrel.And{}
	if filter.UserID != nil {
		where = append(where, squirrel.Eq{"user_id": *filter.UserID})
	}
	if filter.PaymentMethod != "" {
		where = append(where, squirrel.Eq{"payment_method": string(filter.PaymentMethod)})
	}
	if filter.From != nil {
		where = append(where, squirrel.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		where = append(where, squirrel.Lt{"created_at": *filter.To})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("sales").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sales: %w", err)
	}

	qb := psql.Select(saleColumns).From("sales").Where(where).OrderBy("created_at DESC", "id")
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
		return nil, 0, fmt.Errorf("failed to query sales: %w", err)
	}
	sales, err := ScanMany(rows, scanSale)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan sales: %w", err)
	}

	if err := r.attachItems(ctx, sales); err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

// attachItems loads the lines of every sale with a single query
func (r *saleRepository) attachItems(ctx context.Context, sales []*domain.Sale) error {
	if len(sales) == 0 {
		return nil
	}

	ids := make([]string, len(sales))
	byID := make(map[uuid.UUID]*domain.Sale, len(sales))
	for i, s := range sales {
		ids[i] = s.ID.String()
		byID[s.ID] = s
	}

	rows, err := r.db.Query(ctx, `
		SELECT sale_id, product_id, name, quantity, unit, price, stock_quantity, line_total
		FROM sale_items
		WHERE sale_id = ANY($1::uuid[])
		ORDER BY sale_id, line_no`, ids)
	if err != nil {
		return fmt.Errorf("failed to query sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var saleID uuid.UUID
		var item domain.SaleItem
		var unit string
		if err := rows.Scan(&saleID, &item.ProductID, &item.Name, &item.Quantity, &unit,
			&item.Price, &item.StockQuantity, &item.LineTotal); err != nil {
			return fmt.Errorf("failed to scan sale item: %w", err)
		}
		item.Unit = domain.Unit(unit)
		if s, ok := byID[saleID]; ok {
			s.Items = append(s.Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating sale items: %w", err)
	}
	return nil
}

// Summary aggregates completed sales. Product counts are filled by the caller.
func (r *saleRepository) Summary(ctx context.Context) (*domain.SalesSummary, error) {
	summary := &domain.SalesSummary{}

	// A customer is identified by id, then mobile, then name.
	err := r.db.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(total), 0),
			COUNT(*),
			COUNT(DISTINCT COALESCE(customer_id::text, NULLIF(customer_mobile, ''), NULLIF(customer_name, '')))
		FROM sales
		WHERE status = 'completed'`,
	).Scan(&summary.TotalRevenue, &summary.TotalSales, &summary.TotalCustomers)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise sales: %w", err)
	}

	return summary, nil
}
