package enum

// ── State machines (CHECK constrained in DB) ──

const (
	OrderStatusReceived   = "received"
	OrderStatusInProgress = "in_progress"
	OrderStatusClosed     = "closed"
)

const (
	UnitStatusPending       = "pending"
	UnitStatusInPreparation = "in_preparation"
	UnitStatusReadyToServe  = "ready_to_serve"
	UnitStatusServed        = "served"
)

const (
	TableStatusAvailable    = "available"
	TableStatusOccupied     = "occupied"
	TableStatusReserved     = "reserved"
	TableStatusCleaning     = "cleaning"
	TableStatusOutOfService = "out_of_service"
)

// ── Tagged order variants (CHECK constrained in DB) ──

const (
	OrderTypeTable    = "table"
	OrderTypeDelivery = "delivery"
	OrderTypePickup   = "pickup"
)

// ── Roles ──

const (
	UserRoleAdmin   = "admin"
	UserRoleWaiter  = "waiter"
	UserRoleKitchen = "kitchen"
)
