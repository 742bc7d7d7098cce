package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const customerColumns = `id, company_id, name, phone, email, address, is_active, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.Name, &c.Phone, &c.Email,
		&c.Address, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

type CreateCustomerParams struct {
	CompanyID uuid.UUID
	Name      string
	Phone     string
	Email     pgtype.Text
	Address   pgtype.Text
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO customers (company_id, name, phone, email, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+customerColumns,
		arg.CompanyID, arg.Name, arg.Phone, arg.Email, arg.Address,
	)
	return scanCustomer(row)
}

type GetCustomerParams struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
}

func (q *Queries) GetCustomer(ctx context.Context, arg GetCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1 AND company_id = $2 AND is_active`,
		arg.ID, arg.CompanyID,
	)
	return scanCustomer(row)
}

type ListCustomersParams struct {
	CompanyID uuid.UUID
	Search    pgtype.Text
}

func (q *Queries) ListCustomers(ctx context.Context, arg ListCustomersParams) ([]Customer, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE company_id = $1 AND is_active
		  AND ($2::text IS NULL OR name ILIKE '%' || $2 || '%' OR phone LIKE '%' || $2 || '%')
		ORDER BY name`,
		arg.CompanyID, arg.Search,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

type UpdateCustomerParams struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Name      string
	Phone     string
	Email     pgtype.Text
	Address   pgtype.Text
}

func (q *Queries) UpdateCustomer(ctx context.Context, arg UpdateCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE customers
		SET name = $3, phone = $4, email = $5, address = $6, updated_at = now()
		WHERE id = $1 AND company_id = $2 AND is_active
		RETURNING `+customerColumns,
		arg.ID, arg.CompanyID, arg.Name, arg.Phone, arg.Email, arg.Address,
	)
	return scanCustomer(row)
}

type SoftDeleteCustomerParams struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
}

func (q *Queries) SoftDeleteCustomer(ctx context.Context, arg SoftDeleteCustomerParams) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE customers SET is_active = false, updated_at = now() WHERE id = $1 AND company_id = $2 AND is_active`,
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
