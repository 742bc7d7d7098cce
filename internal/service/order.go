package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
)

const maxOrderSeqRetries = 3

// Errors returned by the order service.
var (
	ErrEmptyLines         = errors.New("lines are required")
	ErrInvalidOrderType   = errors.New("invalid order_type")
	ErrInvalidQuantity    = errors.New("requested_quantity must be > 0")
	ErrDuplicateProduct   = errors.New("duplicate product in requested lines")
	ErrInvalidProductID   = errors.New("invalid product_id")
	ErrProductNotFound    = errors.New("product not found or inactive")
	ErrOrderNotFound      = errors.New("order not found")
	ErrTableRequired      = errors.New("table_id is required for table orders")
	ErrInvalidTableID     = errors.New("invalid table_id")
	ErrInvalidPeopleCount = errors.New("invalid people_count")
	ErrTableNotFound      = errors.New("table not found")
	ErrTableNotAvailable  = errors.New("table not available")
	ErrTableOverCapacity  = errors.New("table capacity exceeded")
	ErrCustomerRequired   = errors.New("customer_id is required for delivery orders")
	ErrInvalidCustomerID  = errors.New("invalid customer_id")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrAddressRequired    = errors.New("delivery_address is required for delivery orders")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrOrderClosed        = errors.New("order is closed")
	ErrLineNotFound       = errors.New("order has no line for this product")
	ErrUnitNotFound       = errors.New("line has no unit at this position")
	ErrUnitTransition     = errors.New("unit status can only move forward")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the order service needs.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetNextOrderSeq(ctx context.Context, companyID uuid.UUID) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	UpdateOrder(ctx context.Context, arg database.UpdateOrderParams) (database.Order, error)
	CloseOrder(ctx context.Context, arg database.CloseOrderParams) (database.Order, error)
	DeleteOrder(ctx context.Context, arg database.DeleteOrderParams) error
	GetProductForOrder(ctx context.Context, arg database.GetProductParams) (database.Product, error)
	GetTable(ctx context.Context, arg database.GetTableParams) (database.Table, error)
	OccupyTable(ctx context.Context, arg database.OccupyTableParams) (database.Table, error)
	ReleaseTable(ctx context.Context, arg database.ReleaseTableParams) (database.Table, error)
	GetCustomer(ctx context.Context, arg database.GetCustomerParams) (database.Customer, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx), so the
// service can run the order-number allocation inside a transaction.
type NewOrderStore func(db database.DBTX) OrderStore

// OrderService owns the order lifecycle: creation, line reconciliation,
// table occupancy, deletion-on-empty, and closing.
type OrderService struct {
	pool     TxBeginner
	store    OrderStore
	newStore NewOrderStore
}

func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, store: store, newStore: newStore}
}

// --- Requests / results ---

// OrderLineRequest is one desired line as submitted by the caller, before
// parsing.
type OrderLineRequest struct {
	ProductID    string
	Quantity     int
	Message      string
	UnitStatuses []UnitStatusRequest
}

// UnitStatusRequest mirrors one ledger entry in a request body.
type UnitStatusRequest struct {
	Position int
	Status   string
}

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	CompanyID       uuid.UUID
	CreatedBy       uuid.UUID
	OrderType       string
	TableID         string
	PeopleCount     int
	CustomerID      string
	DeliveryAddress string
	PickupName      string
	Lines           []OrderLineRequest
}

// UpdateOrderRequest carries the full desired state of an order: the line
// list is the complete set the caller wants, not a delta.
type UpdateOrderRequest struct {
	OrderID         uuid.UUID
	CompanyID       uuid.UUID
	UpdatedBy       uuid.UUID
	OrderType       string
	TableID         string
	PeopleCount     int
	CustomerID      string
	DeliveryAddress string
	PickupName      string
	Status          string // empty = keep current
	Lines           []OrderLineRequest
}

// UpdateOrderResult distinguishes a normal update from the empty-lines
// auto-delete.
type UpdateOrderResult struct {
	Order   database.Order
	Deleted bool
}

// CloseOrderResult carries the closed order plus the status the table was
// left in ("" for non-table orders).
type CloseOrderResult struct {
	Order       database.Order
	TableStatus string
}

// --- Create ---

// Create validates the variant and lines, resolves product snapshots,
// inserts the order (retrying order-number races), and finally occupies the
// table for table orders. Table availability is checked before any write.
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (database.Order, error) {
	variant, err := parseVariant(req.OrderType, req.TableID, req.PeopleCount, req.CustomerID, req.DeliveryAddress, req.PickupName)
	if err != nil {
		return database.Order{}, err
	}

	requested, err := parseRequestedLines(req.Lines)
	if err != nil {
		return database.Order{}, err
	}

	if err := s.validateVariantTargets(ctx, req.CompanyID, variant); err != nil {
		return database.Order{}, err
	}

	// Creation is reconciliation against an empty order: every line is new.
	lines, err := ReconcileLines(ctx, nil, requested, s.productResolver(req.CompanyID))
	if err != nil {
		return database.Order{}, err
	}
	total, itemCount := OrderTotals(lines)
	cols := flattenVariant(variant)

	var order database.Order
	var lastErr error
	for attempt := 0; attempt < maxOrderSeqRetries; attempt++ {
		order, err = s.createOrderTx(ctx, req, cols, lines, itemCount, total)
		if err == nil {
			lastErr = nil
			break
		}
		if isOrderSeqConflict(err) {
			lastErr = err
			continue
		}
		return database.Order{}, err
	}
	if lastErr != nil {
		return database.Order{}, lastErr
	}

	if tv, ok := variant.(TableVariant); ok {
		if _, err := s.occupyTable(ctx, req.CompanyID, tv.TableID, order.ID, req.CreatedBy); err != nil {
			// The table was taken between validation and occupation. Undo the
			// order best-effort; the window is inherent to the two-write design.
			_ = s.store.DeleteOrder(ctx, database.DeleteOrderParams{ID: order.ID, CompanyID: req.CompanyID})
			return database.Order{}, err
		}
	}

	return order, nil
}

func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest, cols variantColumns, lines []database.OrderLine, itemCount int32, total decimal.Decimal) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	seq, err := store.GetNextOrderSeq(ctx, req.CompanyID)
	if err != nil {
		return database.Order{}, fmt.Errorf("get next order seq: %w", err)
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		CompanyID:       req.CompanyID,
		OrderSeq:        seq,
		OrderNumber:     fmt.Sprintf("ORD-%03d", seq),
		OrderType:       cols.OrderType,
		TableID:         cols.TableID,
		PeopleCount:     cols.PeopleCount,
		CustomerID:      cols.CustomerID,
		DeliveryAddress: cols.DeliveryAddress,
		PickupName:      cols.PickupName,
		Lines:           lines,
		ItemCount:       itemCount,
		Total:           decimalToNumeric(total),
		CreatedBy:       req.CreatedBy,
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("create order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

// --- Update (reconciliation entry point) ---

// Update is the full reconciliation path: it diffs the requested line list
// against the persisted order, recomputes totals, re-plans table occupancy
// for variant changes, and persists the result in one row write. An empty
// requested line list deletes the order outright.
//
// All validation happens before the first write; on failure nothing is
// persisted. The subsequent table writes are separate statements — the
// inconsistency window between them is a documented property of the design.
func (s *OrderService) Update(ctx context.Context, req UpdateOrderRequest) (UpdateOrderResult, error) {
	current, err := s.store.GetOrder(ctx, database.GetOrderParams{ID: req.OrderID, CompanyID: req.CompanyID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UpdateOrderResult{}, ErrOrderNotFound
		}
		return UpdateOrderResult{}, fmt.Errorf("get order: %w", err)
	}

	prevVariant, err := variantFromOrder(current)
	if err != nil {
		return UpdateOrderResult{}, err
	}

	// Empty requested list: terminal action, the order ceases to exist.
	if len(req.Lines) == 0 {
		if err := s.store.DeleteOrder(ctx, database.DeleteOrderParams{ID: req.OrderID, CompanyID: req.CompanyID}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return UpdateOrderResult{}, ErrOrderNotFound
			}
			return UpdateOrderResult{}, fmt.Errorf("delete order: %w", err)
		}
		if tv, ok := prevVariant.(TableVariant); ok {
			if _, err := s.releaseTable(ctx, req.CompanyID, tv.TableID); err != nil {
				return UpdateOrderResult{}, err
			}
		}
		return UpdateOrderResult{Deleted: true}, nil
	}

	nextVariant, err := parseVariant(req.OrderType, req.TableID, req.PeopleCount, req.CustomerID, req.DeliveryAddress, req.PickupName)
	if err != nil {
		return UpdateOrderResult{}, err
	}

	requested, err := parseRequestedLines(req.Lines)
	if err != nil {
		return UpdateOrderResult{}, err
	}

	lines, err := ReconcileLines(ctx, current.Lines, requested, s.productResolver(req.CompanyID))
	if err != nil {
		return UpdateOrderResult{}, err
	}
	total, itemCount := OrderTotals(lines)

	status := current.Status
	if req.Status != "" && req.Status != current.Status {
		// closed is terminal; a status write may never reopen the order
		if current.Status == enum.OrderStatusClosed {
			return UpdateOrderResult{}, ErrOrderClosed
		}
		if !isUpdatableOrderStatus(req.Status) {
			return UpdateOrderResult{}, ErrInvalidStatus
		}
		status = req.Status
	}

	plan := PlanOccupancy(prevVariant, nextVariant)
	if plan.Occupy != uuid.Nil {
		if err := s.validateVariantTargets(ctx, req.CompanyID, nextVariant); err != nil {
			return UpdateOrderResult{}, err
		}
	} else if _, ok := nextVariant.(DeliveryVariant); ok {
		if err := s.validateVariantTargets(ctx, req.CompanyID, nextVariant); err != nil {
			return UpdateOrderResult{}, err
		}
	}

	cols := flattenVariant(nextVariant)
	order, err := s.store.UpdateOrder(ctx, database.UpdateOrderParams{
		ID:              req.OrderID,
		CompanyID:       req.CompanyID,
		OrderType:       cols.OrderType,
		TableID:         cols.TableID,
		PeopleCount:     cols.PeopleCount,
		CustomerID:      cols.CustomerID,
		DeliveryAddress: cols.DeliveryAddress,
		PickupName:      cols.PickupName,
		Lines:           lines,
		ItemCount:       itemCount,
		Total:           decimalToNumeric(total),
		Status:          status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UpdateOrderResult{}, ErrOrderNotFound
		}
		return UpdateOrderResult{}, fmt.Errorf("update order: %w", err)
	}

	if plan.Release != uuid.Nil {
		if _, err := s.releaseTable(ctx, req.CompanyID, plan.Release); err != nil {
			return UpdateOrderResult{}, err
		}
	}
	if plan.Occupy != uuid.Nil {
		if _, err := s.occupyTable(ctx, req.CompanyID, plan.Occupy, order.ID, req.UpdatedBy); err != nil {
			return UpdateOrderResult{}, err
		}
	}

	return UpdateOrderResult{Order: order}, nil
}

// --- Close ---

// Close forces every unserved unit to ready_to_serve, stamps closed_at, and
// releases the table. There is deliberately no guard against closing an
// already-closed order; the forcing rule is a no-op the second time.
func (s *OrderService) Close(ctx context.Context, companyID, orderID uuid.UUID) (CloseOrderResult, error) {
	current, err := s.store.GetOrder(ctx, database.GetOrderParams{ID: orderID, CompanyID: companyID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CloseOrderResult{}, ErrOrderNotFound
		}
		return CloseOrderResult{}, fmt.Errorf("get order: %w", err)
	}

	order, err := s.store.CloseOrder(ctx, database.CloseOrderParams{
		ID:        orderID,
		CompanyID: companyID,
		Lines:     forceReadyToServe(current.Lines),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CloseOrderResult{}, ErrOrderNotFound
		}
		return CloseOrderResult{}, fmt.Errorf("close order: %w", err)
	}

	result := CloseOrderResult{Order: order}
	if current.OrderType == enum.OrderTypeTable && current.TableID.Valid {
		table, err := s.releaseTable(ctx, companyID, uuid.UUID(current.TableID.Bytes))
		if err != nil {
			return CloseOrderResult{}, err
		}
		result.TableStatus = table.Status
	}
	return result, nil
}

// --- Kitchen unit progression ---

// AdvanceUnit moves a single unit of a line forward along the fulfillment
// progression. The first advance also moves a freshly received order to
// in_progress.
func (s *OrderService) AdvanceUnit(ctx context.Context, companyID, orderID, productID uuid.UUID, position int, newStatus string) (database.Order, error) {
	if !isValidUnitStatus(newStatus) {
		return database.Order{}, ErrInvalidStatus
	}

	current, err := s.store.GetOrder(ctx, database.GetOrderParams{ID: orderID, CompanyID: companyID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}

	lines := make([]database.OrderLine, len(current.Lines))
	copy(lines, current.Lines)

	lineIdx := -1
	for i, line := range lines {
		if line.ProductID == productID {
			lineIdx = i
			break
		}
	}
	if lineIdx < 0 {
		return database.Order{}, ErrLineNotFound
	}

	unitIdx := -1
	units := make([]database.UnitStatus, len(lines[lineIdx].UnitStatuses))
	copy(units, lines[lineIdx].UnitStatuses)
	for i, u := range units {
		if u.Position == position {
			unitIdx = i
			break
		}
	}
	if unitIdx < 0 {
		return database.Order{}, ErrUnitNotFound
	}

	if !canAdvanceUnit(units[unitIdx].Status, newStatus) {
		return database.Order{}, fmt.Errorf("%w: %s -> %s", ErrUnitTransition, units[unitIdx].Status, newStatus)
	}
	units[unitIdx].Status = newStatus
	lines[lineIdx].UnitStatuses = units

	status := current.Status
	if status == enum.OrderStatusReceived {
		status = enum.OrderStatusInProgress
	}

	total, itemCount := OrderTotals(lines)
	order, err := s.store.UpdateOrder(ctx, database.UpdateOrderParams{
		ID:              orderID,
		CompanyID:       companyID,
		OrderType:       current.OrderType,
		TableID:         current.TableID,
		PeopleCount:     current.PeopleCount,
		CustomerID:      current.CustomerID,
		DeliveryAddress: current.DeliveryAddress,
		PickupName:      current.PickupName,
		Lines:           lines,
		ItemCount:       itemCount,
		Total:           decimalToNumeric(total),
		Status:          status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("update order: %w", err)
	}
	return order, nil
}

// --- Helpers ---

func (s *OrderService) productResolver(companyID uuid.UUID) ProductResolver {
	return func(ctx context.Context, productID uuid.UUID) (database.Product, error) {
		return s.store.GetProductForOrder(ctx, database.GetProductParams{ID: productID, CompanyID: companyID})
	}
}

// validateVariantTargets checks the entities a variant points at before any
// write: the table for table orders, the customer for delivery orders.
func (s *OrderService) validateVariantTargets(ctx context.Context, companyID uuid.UUID, v OrderVariant) error {
	switch t := v.(type) {
	case TableVariant:
		_, err := s.validateTableForOccupancy(ctx, companyID, t)
		return err
	case DeliveryVariant:
		if _, err := s.store.GetCustomer(ctx, database.GetCustomerParams{ID: t.CustomerID, CompanyID: companyID}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrCustomerNotFound
			}
			return fmt.Errorf("get customer: %w", err)
		}
	}
	return nil
}

func parseRequestedLines(lines []OrderLineRequest) ([]RequestedLine, error) {
	requested := make([]RequestedLine, len(lines))
	for i, l := range lines {
		pid, err := uuid.Parse(l.ProductID)
		if err != nil {
			return nil, fmt.Errorf("lines[%d]: %w", i, ErrInvalidProductID)
		}
		units := make([]database.UnitStatus, len(l.UnitStatuses))
		for j, u := range l.UnitStatuses {
			units[j] = database.UnitStatus{Position: u.Position, Status: u.Status}
		}
		requested[i] = RequestedLine{
			ProductID:    pid,
			Quantity:     l.Quantity,
			Message:      l.Message,
			UnitStatuses: units,
		}
	}
	return requested, nil
}

// isOrderSeqConflict checks for a unique violation on (company_id, order_seq)
// (pgconn error code 23505): two transactions read the same MAX concurrently.
func isOrderSeqConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_company_id_order_seq_key"
	}
	return false
}
