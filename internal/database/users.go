package database

import (
	"context"

	"github.com/google/uuid"
)

const userColumns = `id, company_id, full_name, email, hashed_password, role, is_active, created_at`

type CreateCompanyParams struct {
	Name string
}

func (q *Queries) CreateCompany(ctx context.Context, arg CreateCompanyParams) (Company, error) {
	var c Company
	err := q.db.QueryRow(ctx,
		`INSERT INTO companies (name) VALUES ($1) RETURNING id, name, created_at`,
		arg.Name,
	).Scan(&c.ID, &c.Name, &c.CreatedAt)
	return c, err
}

func (q *Queries) GetCompany(ctx context.Context, id uuid.UUID) (Company, error) {
	var c Company
	err := q.db.QueryRow(ctx,
		`SELECT id, name, created_at FROM companies WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.CreatedAt)
	return c, err
}

type CreateUserParams struct {
	CompanyID      uuid.UUID
	FullName       string
	Email          string
	HashedPassword string
	Role           string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, `
		INSERT INTO users (company_id, full_name, email, hashed_password, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		arg.CompanyID, arg.FullName, arg.Email, arg.HashedPassword, arg.Role,
	).Scan(&u.ID, &u.CompanyID, &u.FullName, &u.Email, &u.HashedPassword, &u.Role, &u.IsActive, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := q.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND is_active`,
		email,
	).Scan(&u.ID, &u.CompanyID, &u.FullName, &u.Email, &u.HashedPassword, &u.Role, &u.IsActive, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := q.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND is_active`,
		id,
	).Scan(&u.ID, &u.CompanyID, &u.FullName, &u.Email, &u.HashedPassword, &u.Role, &u.IsActive, &u.CreatedAt)
	return u, err
}
