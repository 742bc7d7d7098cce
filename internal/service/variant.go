package service

import (
	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// OrderVariant is the sealed sum of order types. Exactly one variant exists
// per order type and each carries only the fields that type uses, so changing
// an order's type can never leave the old type's fields behind.
type OrderVariant interface {
	orderType() string
}

// TableVariant is a dine-in order bound to a table.
type TableVariant struct {
	TableID     uuid.UUID
	PeopleCount int // 0 when the caller did not supply it
}

// DeliveryVariant is an order delivered to a registered customer.
type DeliveryVariant struct {
	CustomerID uuid.UUID
	Address    string
}

// PickupVariant is an order collected at the counter. CustomerID is uuid.Nil
// for walk-ins identified only by name.
type PickupVariant struct {
	CustomerID uuid.UUID
	PickupName string
}

func (TableVariant) orderType() string    { return enum.OrderTypeTable }
func (DeliveryVariant) orderType() string { return enum.OrderTypeDelivery }
func (PickupVariant) orderType() string   { return enum.OrderTypePickup }

// OrderTypeOf returns the wire name of a variant's order type.
func OrderTypeOf(v OrderVariant) string {
	return v.orderType()
}

// variantFromOrder rebuilds the variant from a persisted order row.
func variantFromOrder(o database.Order) (OrderVariant, error) {
	switch o.OrderType {
	case enum.OrderTypeTable:
		v := TableVariant{}
		if o.TableID.Valid {
			v.TableID = uuid.UUID(o.TableID.Bytes)
		}
		if o.PeopleCount.Valid {
			v.PeopleCount = int(o.PeopleCount.Int32)
		}
		return v, nil
	case enum.OrderTypeDelivery:
		v := DeliveryVariant{Address: o.DeliveryAddress.String}
		if o.CustomerID.Valid {
			v.CustomerID = uuid.UUID(o.CustomerID.Bytes)
		}
		return v, nil
	case enum.OrderTypePickup:
		v := PickupVariant{PickupName: o.PickupName.String}
		if o.CustomerID.Valid {
			v.CustomerID = uuid.UUID(o.CustomerID.Bytes)
		}
		return v, nil
	}
	return nil, ErrInvalidOrderType
}

// variantColumns flattens a variant into the nullable order columns. Columns
// belonging to other variants come back as SQL NULL.
type variantColumns struct {
	OrderType       string
	TableID         pgtype.UUID
	PeopleCount     pgtype.Int4
	CustomerID      pgtype.UUID
	DeliveryAddress pgtype.Text
	PickupName      pgtype.Text
}

func flattenVariant(v OrderVariant) variantColumns {
	cols := variantColumns{OrderType: v.orderType()}
	switch t := v.(type) {
	case TableVariant:
		cols.TableID = pgtype.UUID{Bytes: t.TableID, Valid: true}
		if t.PeopleCount > 0 {
			cols.PeopleCount = pgtype.Int4{Int32: int32(t.PeopleCount), Valid: true}
		}
	case DeliveryVariant:
		cols.CustomerID = pgtype.UUID{Bytes: t.CustomerID, Valid: true}
		cols.DeliveryAddress = pgtype.Text{String: t.Address, Valid: true}
	case PickupVariant:
		if t.CustomerID != uuid.Nil {
			cols.CustomerID = pgtype.UUID{Bytes: t.CustomerID, Valid: true}
		}
		if t.PickupName != "" {
			cols.PickupName = pgtype.Text{String: t.PickupName, Valid: true}
		}
	}
	return cols
}

// parseVariant validates the raw order-type fields of a request and builds
// the matching variant.
func parseVariant(orderType, tableID string, peopleCount int, customerID, deliveryAddress, pickupName string) (OrderVariant, error) {
	switch orderType {
	case enum.OrderTypeTable:
		if tableID == "" {
			return nil, ErrTableRequired
		}
		tid, err := uuid.Parse(tableID)
		if err != nil {
			return nil, ErrInvalidTableID
		}
		if peopleCount < 0 {
			return nil, ErrInvalidPeopleCount
		}
		return TableVariant{TableID: tid, PeopleCount: peopleCount}, nil

	case enum.OrderTypeDelivery:
		if customerID == "" {
			return nil, ErrCustomerRequired
		}
		cid, err := uuid.Parse(customerID)
		if err != nil {
			return nil, ErrInvalidCustomerID
		}
		if deliveryAddress == "" {
			return nil, ErrAddressRequired
		}
		return DeliveryVariant{CustomerID: cid, Address: deliveryAddress}, nil

	case enum.OrderTypePickup:
		v := PickupVariant{PickupName: pickupName}
		if customerID != "" {
			cid, err := uuid.Parse(customerID)
			if err != nil {
				return nil, ErrInvalidCustomerID
			}
			v.CustomerID = cid
		}
		return v, nil
	}
	return nil, ErrInvalidOrderType
}
