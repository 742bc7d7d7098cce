package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const tableColumns = `id, company_id, number, capacity, status, current_order, occupied_at, occupied_by, created_at, updated_at`

func scanTable(row pgx.Row) (Table, error) {
	var t Table
	err := row.Scan(
		&t.ID, &t.CompanyID, &t.Number, &t.Capacity, &t.Status,
		&t.CurrentOrder, &t.OccupiedAt, &t.OccupiedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

type CreateTableParams struct {
	CompanyID uuid.UUID
	Number    int32
	Capacity  int32
}

func (q *Queries) CreateTable(ctx context.Context, arg CreateTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO tables (company_id, number, capacity, status)
		VALUES ($1, $2, $3, 'available')
		RETURNING `+tableColumns,
		arg.CompanyID, arg.Number, arg.Capacity,
	)
	return scanTable(row)
}

type GetTableParams struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
}

func (q *Queries) GetTable(ctx context.Context, arg GetTableParams) (Table, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+tableColumns+` FROM tables WHERE id = $1 AND company_id = $2`,
		arg.ID, arg.CompanyID,
	)
	return scanTable(row)
}

func (q *Queries) ListTables(ctx context.Context, companyID uuid.UUID) ([]Table, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+tableColumns+` FROM tables WHERE company_id = $1 ORDER BY number`,
		companyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

type UpdateTableParams struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Number    int32
	Capacity  int32
}

func (q *Queries) UpdateTable(ctx context.Context, arg UpdateTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE tables
		SET number = $3, capacity = $4, updated_at = now()
		WHERE id = $1 AND company_id = $2
		RETURNING `+tableColumns,
		arg.ID, arg.CompanyID, arg.Number, arg.Capacity,
	)
	return scanTable(row)
}

type UpdateTableStatusParams struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Status    string
}

func (q *Queries) UpdateTableStatus(ctx context.Context, arg UpdateTableStatusParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE tables
		SET status = $3, updated_at = now()
		WHERE id = $1 AND company_id = $2
		RETURNING `+tableColumns,
		arg.ID, arg.CompanyID, arg.Status,
	)
	return scanTable(row)
}

type OccupyTableParams struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	CurrentOrder uuid.UUID
	OccupiedBy   uuid.UUID
}

// OccupyTable only succeeds while the table is still available; a concurrent
// occupation makes this return pgx.ErrNoRows instead of double-booking.
func (q *Queries) OccupyTable(ctx context.Context, arg OccupyTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE tables
		SET status = 'occupied', current_order = $3, occupied_at = now(), occupied_by = $4, updated_at = now()
		WHERE id = $1 AND company_id = $2 AND status = 'available'
		RETURNING `+tableColumns,
		arg.ID, arg.CompanyID, arg.CurrentOrder, arg.OccupiedBy,
	)
	return scanTable(row)
}

type ReleaseTableParams struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
}

// ReleaseTable clears occupancy unconditionally. The caller does not check
// that the table still points at the releasing order; see the consistency
// notes in DESIGN.md.
func (q *Queries) ReleaseTable(ctx context.Context, arg ReleaseTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE tables
		SET status = 'available', current_order = NULL, occupied_at = NULL, occupied_by = NULL, updated_at = now()
		WHERE id = $1 AND company_id = $2
		RETURNING `+tableColumns,
		arg.ID, arg.CompanyID,
	)
	return scanTable(row)
}

type DeleteTableParams struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
}

// DeleteTable refuses to remove an occupied table.
func (q *Queries) DeleteTable(ctx context.Context, arg DeleteTableParams) error {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM tables WHERE id = $1 AND company_id = $2 AND status <> 'occupied'`,
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
