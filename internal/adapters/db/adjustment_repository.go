// internal/adapters/db/adjustment_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
)

// adjustmentRepository implements ports.AdjustmentRepository over the
// inventory_adjustments ledger
type adjustmentRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewAdjustmentRepository creates a new inventory ledger repository
func NewAdjustmentRepository(db *Database, logger *slog.Logger) ports.AdjustmentRepository {
	return &adjustmentRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "inventory")),
	}
}

// Apply moves product stock and appends the ledger entry in one
// transaction. A removal never takes stock below what has been sold.
func (r *adjustmentRepository) Apply(ctx context.Context, adj *domain.InventoryAdjustment) (*domain.Product, error) {
	adj.PrepareForStorage()

	var product *domain.Product
	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		var query string
		switch adj.Type {
		case domain.AdjustmentAdd:
			query = `UPDATE products SET quantity = quantity + $2, updated_at = NOW()
				WHERE id = $1
				RETURNING ` + productColumns
		case domain.AdjustmentRemove:
			query = `UPDATE products SET quantity = quantity - $2, updated_at = NOW()
				WHERE id = $1 AND quantity - quantity_sold >= $2
				RETURNING ` + productColumns
		default:
			return domain.NewValidationError("type", "type must be add or remove")
		}

		p, err := scanProduct(tx.QueryRow(ctx, query, adj.ProductID, adj.Quantity))
		if errors.Is(err, pgx.ErrNoRows) {
			return explainMissedUpdate(ctx, tx, adj)
		}
		if err != nil {
			return fmt.Errorf("failed to update product stock: %w", err)
		}
		product = p

		_, err = tx.Exec(ctx, `
			INSERT INTO inventory_adjustments (id, product_id, quantity, type, notes, user_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			adj.ID, adj.ProductID, adj.Quantity, string(adj.Type), adj.Notes, adj.UserID, adj.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to append adjustment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "inventory adjusted",
		slog.String("adjustment_id", adj.ID.String()),
		slog.String("product_id", adj.ProductID.String()),
		slog.String("type", string(adj.Type)),
		slog.String("quantity", adj.Quantity.String()))

	return product, nil
}

// explainMissedUpdate tells a missing product apart from a short one
func explainMissedUpdate(ctx context.Context, tx pgx.Tx, adj *domain.InventoryAdjustment) error {
	var name, unit string
	var available decimal.Decimal
	err := tx.QueryRow(ctx,
		`SELECT product_name, unit, quantity - quantity_sold FROM products WHERE id = $1`,
		adj.ProductID,
	).Scan(&name, &unit, &available)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.NotFoundError{Entity: "Product", ID: adj.ProductID.String()}
	}
	if err != nil {
		return fmt.Errorf("failed to read product stock: %w", err)
	}
	return &domain.InsufficientStockError{ProductName: name, Available: available, Unit: domain.Unit(unit)}
}

// List returns ledger entries newest first, each with a product summary
func (r *adjustmentRepository) List(ctx context.Context, filter ports.AdjustmentFilter) ([]*domain.InventoryAdjustment, int64, error) {
	where := squirrel.And{}
	if filter.ProductID != nil {
		where = append(where, squirrel.Eq{"a.product_id": *filter.ProductID})
	}
	if filter.UserID != nil {
		where = append(where, squirrel.Eq{"a.user_id": *filter.UserID})
	}
	if filter.Type != "" {
		where = append(where, squirrel.Eq{"a.type": string(filter.Type)})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("inventory_adjustments a").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count adjustments: %w", err)
	}

	qb := psql.Select(
		"a.id", "a.product_id", "a.quantity", "a.type", "a.notes", "a.user_id", "a.created_at",
		"p.ean_code", "p.product_name", "p.unit",
	).From("inventory_adjustments a").
		Join("products p ON p.id = a.product_id").
		Where(where).
		OrderBy("a.created_at DESC", "a.id")
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
		return nil, 0, fmt.Errorf("failed to query adjustments: %w", err)
	}

	items, err := ScanMany(rows, func(row scanner) (*domain.InventoryAdjustment, error) {
		a := &domain.InventoryAdjustment{Product: &domain.Product{}}
		var adjType, unit string
		if err := row.Scan(&a.ID, &a.ProductID, &a.Quantity, &adjType, &a.Notes, &a.UserID, &a.CreatedAt,
			&a.Product.EANCode, &a.Product.Name, &unit); err != nil {
			return nil, err
		}
		a.Type = domain.AdjustmentType(adjType)
		a.Product.ID = a.ProductID
		a.Product.Unit = domain.Unit(unit)
		return a, nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan adjustments: %w", err)
	}
	return items, total, nil
}
