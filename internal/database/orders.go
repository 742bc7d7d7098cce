package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, company_id, order_seq, order_number, order_type, table_id, people_count,
	customer_id, delivery_address, pickup_name, lines, item_count, total, status,
	created_by, created_at, updated_at, closed_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.CompanyID, &o.OrderSeq, &o.OrderNumber, &o.OrderType, &o.TableID, &o.PeopleCount,
		&o.CustomerID, &o.DeliveryAddress, &o.PickupName, &o.Lines, &o.ItemCount, &o.Total, &o.Status,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt, &o.ClosedAt,
	)
	return o, err
}

// GetNextOrderSeq returns the next per-company order sequence number. Two
// concurrent transactions can read the same MAX; the unique constraint on
// (company_id, order_seq) catches the loser, which retries.
func (q *Queries) GetNextOrderSeq(ctx context.Context, companyID uuid.UUID) (int32, error) {
	var next int32
	err := q.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(order_seq), 0) + 1 FROM orders WHERE company_id = $1`,
		companyID,
	).Scan(&next)
	return next, err
}

type CreateOrderParams struct {
	CompanyID       uuid.UUID
	OrderSeq        int32
	OrderNumber     string
	OrderType       string
	TableID         pgtype.UUID
	PeopleCount     pgtype.Int4
	CustomerID      pgtype.UUID
	DeliveryAddress pgtype.Text
	PickupName      pgtype.Text
	Lines           []OrderLine
	ItemCount       int32
	Total           pgtype.Numeric
	CreatedBy       uuid.UUID
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (
			company_id, order_seq, order_number, order_type, table_id, people_count,
			customer_id, delivery_address, pickup_name, lines, item_count, total,
			status, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'received', $13)
		RETURNING `+orderColumns,
		arg.CompanyID, arg.OrderSeq, arg.OrderNumber, arg.OrderType, arg.TableID, arg.PeopleCount,
		arg.CustomerID, arg.DeliveryAddress, arg.PickupName, arg.Lines, arg.ItemCount, arg.Total,
		arg.CreatedBy,
	)
	return scanOrder(row)
}

type GetOrderParams struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND company_id = $2`,
		arg.ID, arg.CompanyID,
	)
	return scanOrder(row)
}

// GetOrderDetailRow joins in the bits the detail endpoint displays alongside
// the raw order.
type GetOrderDetailRow struct {
	Order
	TableNumber   pgtype.Int4
	CustomerName  pgtype.Text
	CreatedByName pgtype.Text
	CompanyName   string
}

func (q *Queries) GetOrderDetail(ctx context.Context, arg GetOrderParams) (GetOrderDetailRow, error) {
	var r GetOrderDetailRow
	err := q.db.QueryRow(ctx, `
		SELECT o.id, o.company_id, o.order_seq, o.order_number, o.order_type, o.table_id, o.people_count,
			o.customer_id, o.delivery_address, o.pickup_name, o.lines, o.item_count, o.total, o.status,
			o.created_by, o.created_at, o.updated_at, o.closed_at,
			t.number, c.name, u.full_name, co.name
		FROM orders o
		LEFT JOIN tables t ON t.id = o.table_id
		LEFT JOIN customers c ON c.id = o.customer_id
		LEFT JOIN users u ON u.id = o.created_by
		JOIN companies co ON co.id = o.company_id
		WHERE o.id = $1 AND o.company_id = $2`,
		arg.ID, arg.CompanyID,
	).Scan(
		&r.ID, &r.CompanyID, &r.OrderSeq, &r.OrderNumber, &r.OrderType, &r.TableID, &r.PeopleCount,
		&r.CustomerID, &r.DeliveryAddress, &r.PickupName, &r.Lines, &r.ItemCount, &r.Total, &r.Status,
		&r.CreatedBy, &r.CreatedAt, &r.UpdatedAt, &r.ClosedAt,
		&r.TableNumber, &r.CustomerName, &r.CreatedByName, &r.CompanyName,
	)
	return r, err
}

type ListOrdersParams struct {
	CompanyID uuid.UUID
	Status    pgtype.Text
	OrderType pgtype.Text
	Limit     int32
	Offset    int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE company_id = $1
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::text IS NULL OR order_type = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`,
		arg.CompanyID, arg.Status, arg.OrderType, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type UpdateOrderParams struct {
	ID              uuid.UUID
	CompanyID       uuid.UUID
	OrderType       string
	TableID         pgtype.UUID
	PeopleCount     pgtype.Int4
	CustomerID      pgtype.UUID
	DeliveryAddress pgtype.Text
	PickupName      pgtype.Text
	Lines           []OrderLine
	ItemCount       int32
	Total           pgtype.Numeric
	Status          string
}

// UpdateOrder replaces the mutable half of the order row in one write. The
// reconciled line ledger goes out with the recomputed totals, so the
// quantity/ledger invariant can never be observed half-applied.
func (q *Queries) UpdateOrder(ctx context.Context, arg UpdateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET order_type = $3, table_id = $4, people_count = $5, customer_id = $6,
			delivery_address = $7, pickup_name = $8, lines = $9, item_count = $10,
			total = $11, status = $12, updated_at = now()
		WHERE id = $1 AND company_id = $2
		RETURNING `+orderColumns,
		arg.ID, arg.CompanyID, arg.OrderType, arg.TableID, arg.PeopleCount, arg.CustomerID,
		arg.DeliveryAddress, arg.PickupName, arg.Lines, arg.ItemCount,
		arg.Total, arg.Status,
	)
	return scanOrder(row)
}

type CloseOrderParams struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Lines     []OrderLine
}

func (q *Queries) CloseOrder(ctx context.Context, arg CloseOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET lines = $3, status = 'closed', closed_at = now(), updated_at = now()
		WHERE id = $1 AND company_id = $2
		RETURNING `+orderColumns,
		arg.ID, arg.CompanyID, arg.Lines,
	)
	return scanOrder(row)
}

type DeleteOrderParams struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
}

func (q *Queries) DeleteOrder(ctx context.Context, arg DeleteOrderParams) error {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM orders WHERE id = $1 AND company_id = $2`,
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
