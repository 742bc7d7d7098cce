package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type Company struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

type User struct {
	ID             uuid.UUID
	CompanyID      uuid.UUID
	FullName       string
	Email          string
	HashedPassword string
	Role           string
	IsActive       bool
	CreatedAt      time.Time
}

type Product struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	Name        string
	Price       pgtype.Numeric
	Category    string
	Description pgtype.Text
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Customer struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Name      string
	Phone     string
	Email     pgtype.Text
	Address   pgtype.Text
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Table struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	Number       int32
	Capacity     int32
	Status       string
	CurrentOrder pgtype.UUID
	OccupiedAt   pgtype.Timestamptz
	OccupiedBy   pgtype.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Order is the aggregate root. The per-unit fulfillment ledger lives inside
// the lines JSONB column, so one order mutation is one row write.
type Order struct {
	ID              uuid.UUID
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
	Status          string
	CreatedBy       uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ClosedAt        pgtype.Timestamptz
}

// OrderLine is one requested product within an order, stored as JSON inside
// the order row.
type OrderLine struct {
	ProductID         uuid.UUID       `json:"product_id"`
	ProductSnapshot   ProductSnapshot `json:"product_snapshot"`
	RequestedQuantity int             `json:"requested_quantity"`
	Message           string          `json:"message,omitempty"`
	UnitStatuses      []UnitStatus    `json:"unit_statuses"`
}

// ProductSnapshot freezes the product at the moment the line was created.
// Later product edits never alter historical order lines.
type ProductSnapshot struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

// UnitStatus tracks fulfillment of exactly one physical unit of a line.
// Positions are 1-based and contiguous; they are re-assigned after removals.
type UnitStatus struct {
	Position int    `json:"position"`
	Status   string `json:"status"`
}
