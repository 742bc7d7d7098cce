package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const productColumns = `id, company_id, name, price, category, description, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.CompanyID, &p.Name, &p.Price, &p.Category,
		&p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

type CreateProductParams struct {
	CompanyID   uuid.UUID
	Name        string
	Price       pgtype.Numeric
	Category    string
	Description pgtype.Text
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO products (company_id, name, price, category, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+productColumns,
		arg.CompanyID, arg.Name, arg.Price, arg.Category, arg.Description,
	)
	return scanProduct(row)
}

type GetProductParams struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
}

func (q *Queries) GetProduct(ctx context.Context, arg GetProductParams) (Product, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 AND company_id = $2`,
		arg.ID, arg.CompanyID,
	)
	return scanProduct(row)
}

// GetProductForOrder is the lookup the order core uses to build price
// snapshots. Inactive products are invisible to it.
func (q *Queries) GetProductForOrder(ctx context.Context, arg GetProductParams) (Product, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 AND company_id = $2 AND is_active`,
		arg.ID, arg.CompanyID,
	)
	return scanProduct(row)
}

type ListProductsParams struct {
	CompanyID uuid.UUID
	Category  pgtype.Text
}

func (q *Queries) ListProducts(ctx context.Context, arg ListProductsParams) ([]Product, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE company_id = $1 AND is_active
		  AND ($2::text IS NULL OR category = $2)
		ORDER BY category, name`,
		arg.CompanyID, arg.Category,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

type UpdateProductParams struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	Name        string
	Price       pgtype.Numeric
	Category    string
	Description pgtype.Text
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE products
		SET name = $3, price = $4, category = $5, description = $6, updated_at = now()
		WHERE id = $1 AND company_id = $2
		RETURNING `+productColumns,
		arg.ID, arg.CompanyID, arg.Name, arg.Price, arg.Category, arg.Description,
	)
	return scanProduct(row)
}

type SoftDeleteProductParams struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
}

func (q *Queries) SoftDeleteProduct(ctx context.Context, arg SoftDeleteProductParams) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE products SET is_active = false, updated_at = now() WHERE id = $1 AND company_id = $2 AND is_active`,
		arg.ID, arg.CompanyID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
