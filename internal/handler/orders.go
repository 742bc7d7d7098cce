package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/middleware"
	"github.com/comanda-pos/api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	Create(ctx context.Context, req service.CreateOrderRequest) (database.Order, error)
	Update(ctx context.Context, req service.UpdateOrderRequest) (service.UpdateOrderResult, error)
	Close(ctx context.Context, companyID, orderID uuid.UUID) (service.CloseOrderResult, error)
	AdvanceUnit(ctx context.Context, companyID, orderID, productID uuid.UUID, position int, newStatus string) (database.Order, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrderDetail(ctx context.Context, arg database.GetOrderParams) (database.GetOrderDetailRow, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore) *OrderHandler {
	return &OrderHandler{svc: svc, store: store}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted inside a company-scoped subrouter: /companies/{cid}/orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/close", h.Close)
	r.Patch("/{id}/lines/{productId}/units/{position}", h.AdvanceUnit)
}

// --- Request / Response types ---

type orderLineRequest struct {
	ProductID         string              `json:"product_id"`
	RequestedQuantity int                 `json:"requested_quantity"`
	Message           string              `json:"message"`
	UnitStatuses      []unitStatusRequest `json:"unit_statuses"`
}

type unitStatusRequest struct {
	Position int    `json:"position"`
	Status   string `json:"status"`
}

type orderRequest struct {
	OrderType       string             `json:"order_type"`
	TableID         string             `json:"table_id"`
	PeopleCount     int                `json:"people_count"`
	CustomerID      string             `json:"customer_id"`
	DeliveryAddress string             `json:"delivery_address"`
	PickupName      string             `json:"pickup_name"`
	Status          string             `json:"status"`
	Lines           []orderLineRequest `json:"lines"`
}

type unitStatusResponse struct {
	Position int    `json:"position"`
	Status   string `json:"status"`
}

type orderLineResponse struct {
	ProductID         uuid.UUID            `json:"product_id"`
	ProductName       string               `json:"product_name"`
	Price             string               `json:"price"`
	Category          string               `json:"category"`
	Description       string               `json:"description,omitempty"`
	RequestedQuantity int                  `json:"requested_quantity"`
	Message           string               `json:"message,omitempty"`
	UnitStatuses      []unitStatusResponse `json:"unit_statuses"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	CompanyID       uuid.UUID           `json:"company_id"`
	OrderNumber     string              `json:"order_number"`
	OrderType       string              `json:"order_type"`
	TableID         *uuid.UUID          `json:"table_id"`
	PeopleCount     *int32              `json:"people_count"`
	CustomerID      *uuid.UUID          `json:"customer_id"`
	DeliveryAddress *string             `json:"delivery_address"`
	PickupName      *string             `json:"pickup_name"`
	Lines           []orderLineResponse `json:"lines"`
	ItemCount       int32               `json:"item_count"`
	Total           string              `json:"total"`
	Status          string              `json:"status"`
	CreatedBy       uuid.UUID           `json:"created_by"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	ClosedAt        *time.Time          `json:"closed_at"`
}

// orderDetailResponse extends orderResponse with joined display fields for
// the GET detail endpoint.
type orderDetailResponse struct {
	orderResponse
	CompanyName   string  `json:"company_name"`
	TableNumber   *int32  `json:"table_number"`
	CustomerName  *string `json:"customer_name"`
	CreatedByName *string `json:"created_by_name"`
}

// orderListResponse wraps a list of orders with pagination metadata.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type advanceUnitRequest struct {
	Status string `json:"status"`
}

// --- Handlers ---

// Create handles POST /companies/{cid}/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "cid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid company ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.OrderType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order_type is required"})
		return
	}
	if len(req.Lines) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lines are required"})
		return
	}

	order, err := h.svc.Create(r.Context(), service.CreateOrderRequest{
		CompanyID:       companyID,
		CreatedBy:       claims.UserID,
		OrderType:       req.OrderType,
		TableID:         req.TableID,
		PeopleCount:     req.PeopleCount,
		CustomerID:      req.CustomerID,
		DeliveryAddress: req.DeliveryAddress,
		PickupName:      req.PickupName,
		Lines:           toServiceLines(req.Lines),
	})
	if err != nil {
		writeOrderError(w, "create order", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "order created",
		"order_id": order.ID,
		"order":    toOrderResponse(order),
	})
}

// List handles GET /companies/{cid}/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "cid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid company ID"})
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	params := database.ListOrdersParams{
		CompanyID: companyID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("type"); s != "" {
		params.OrderType = pgtype.Text{String: s, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /companies/{cid}/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "cid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid company ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	detail, err := h.store.GetOrderDetail(r.Context(), database.GetOrderParams{
		ID:        orderID,
		CompanyID: companyID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := orderDetailResponse{
		orderResponse: toOrderResponse(detail.Order),
		CompanyName:   detail.CompanyName,
	}
	if detail.TableNumber.Valid {
		resp.TableNumber = &detail.TableNumber.Int32
	}
	if detail.CustomerName.Valid {
		resp.CustomerName = &detail.CustomerName.String
	}
	if detail.CreatedByName.Valid {
		resp.CreatedByName = &detail.CreatedByName.String
	}

	writeJSON(w, http.StatusOK, resp)
}

// Update handles PUT /companies/{cid}/orders/{id}. The body carries the full
// desired order; an empty line list deletes it.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "cid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid company ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.OrderType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order_type is required"})
		return
	}

	result, err := h.svc.Update(r.Context(), service.UpdateOrderRequest{
		OrderID:         orderID,
		CompanyID:       companyID,
		UpdatedBy:       claims.UserID,
		OrderType:       req.OrderType,
		TableID:         req.TableID,
		PeopleCount:     req.PeopleCount,
		CustomerID:      req.CustomerID,
		DeliveryAddress: req.DeliveryAddress,
		PickupName:      req.PickupName,
		Status:          req.Status,
		Lines:           toServiceLines(req.Lines),
	})
	if err != nil {
		writeOrderError(w, "update order", err)
		return
	}

	if result.Deleted {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":  "order deleted",
			"deleted":  true,
			"order_id": orderID,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "order updated",
		"order":   toOrderResponse(result.Order),
	})
}

// Close handles PATCH /companies/{cid}/orders/{id}/close.
func (h *OrderHandler) Close(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "cid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid company ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	result, err := h.svc.Close(r.Context(), companyID, orderID)
	if err != nil {
		writeOrderError(w, "close order", err)
		return
	}

	resp := map[string]interface{}{
		"message": "order closed",
		"order":   toOrderResponse(result.Order),
	}
	if result.TableStatus != "" {
		resp["table_status"] = result.TableStatus
	}
	writeJSON(w, http.StatusOK, resp)
}

// AdvanceUnit handles PATCH /companies/{cid}/orders/{id}/lines/{productId}/units/{position}.
// Kitchen staff move one physical unit forward along its progression.
func (h *OrderHandler) AdvanceUnit(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "cid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid company ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	position, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil || position < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid unit position"})
		return
	}

	var req advanceUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	order, err := h.svc.AdvanceUnit(r.Context(), companyID, orderID, productID, position, req.Status)
	if err != nil {
		writeOrderError(w, "advance unit", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "unit updated",
		"order":   toOrderResponse(order),
	})
}

// --- Helpers ---

func toServiceLines(lines []orderLineRequest) []service.OrderLineRequest {
	out := make([]service.OrderLineRequest, len(lines))
	for i, l := range lines {
		units := make([]service.UnitStatusRequest, len(l.UnitStatuses))
		for j, u := range l.UnitStatuses {
			units[j] = service.UnitStatusRequest{Position: u.Position, Status: u.Status}
		}
		out[i] = service.OrderLineRequest{
			ProductID:    l.ProductID,
			Quantity:     l.RequestedQuantity,
			Message:      l.Message,
			UnitStatuses: units,
		}
	}
	return out
}

func toOrderResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:          o.ID,
		CompanyID:   o.CompanyID,
		OrderNumber: o.OrderNumber,
		OrderType:   o.OrderType,
		Lines:       toLineResponses(o.Lines),
		ItemCount:   o.ItemCount,
		Total:       numericString(o.Total),
		Status:      o.Status,
		CreatedBy:   o.CreatedBy,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	if o.TableID.Valid {
		id := uuid.UUID(o.TableID.Bytes)
		resp.TableID = &id
	}
	if o.PeopleCount.Valid {
		resp.PeopleCount = &o.PeopleCount.Int32
	}
	if o.CustomerID.Valid {
		id := uuid.UUID(o.CustomerID.Bytes)
		resp.CustomerID = &id
	}
	if o.DeliveryAddress.Valid {
		resp.DeliveryAddress = &o.DeliveryAddress.String
	}
	if o.PickupName.Valid {
		resp.PickupName = &o.PickupName.String
	}
	if o.ClosedAt.Valid {
		resp.ClosedAt = &o.ClosedAt.Time
	}
	return resp
}

func toLineResponses(lines []database.OrderLine) []orderLineResponse {
	out := make([]orderLineResponse, len(lines))
	for i, l := range lines {
		units := make([]unitStatusResponse, len(l.UnitStatuses))
		for j, u := range l.UnitStatuses {
			units[j] = unitStatusResponse{Position: u.Position, Status: u.Status}
		}
		out[i] = orderLineResponse{
			ProductID:         l.ProductID,
			ProductName:       l.ProductSnapshot.Name,
			Price:             l.ProductSnapshot.Price.StringFixed(2),
			Category:          l.ProductSnapshot.Category,
			Description:       l.ProductSnapshot.Description,
			RequestedQuantity: l.RequestedQuantity,
			Message:           l.Message,
			UnitStatuses:      units,
		}
	}
	return out
}

// writeOrderError maps service errors to HTTP status codes. Validation
// failures are 400, missing entities 404, table conflicts 409; anything
// unrecognized is logged and hidden behind a 500.
func writeOrderError(w http.ResponseWriter, op string, err error) {
	var rerr *service.ReconcileError
	if errors.As(err, &rerr) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "line reconciliation failed",
			"errors": rerr.Violations,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrTableNotFound),
		errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrLineNotFound),
		errors.Is(err, service.ErrUnitNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})

	case errors.Is(err, service.ErrTableNotAvailable),
		errors.Is(err, service.ErrTableOverCapacity),
		errors.Is(err, service.ErrOrderClosed),
		errors.Is(err, service.ErrUnitTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})

	case errors.Is(err, service.ErrEmptyLines),
		errors.Is(err, service.ErrInvalidOrderType),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrDuplicateProduct),
		errors.Is(err, service.ErrInvalidProductID),
		errors.Is(err, service.ErrTableRequired),
		errors.Is(err, service.ErrInvalidTableID),
		errors.Is(err, service.ErrInvalidPeopleCount),
		errors.Is(err, service.ErrCustomerRequired),
		errors.Is(err, service.ErrInvalidCustomerID),
		errors.Is(err, service.ErrAddressRequired),
		errors.Is(err, service.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})

	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func numericString(n pgtype.Numeric) string {
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	return val.(string)
}
