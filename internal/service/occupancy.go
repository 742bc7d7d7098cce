package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
)

// OccupancyPlan says which tables to release and/or occupy for an order
// mutation. uuid.Nil means no action on that side.
type OccupancyPlan struct {
	Release uuid.UUID
	Occupy  uuid.UUID
}

// PlanOccupancy compares the order's previous and next variants and decides
// the table side effects. prev is nil on creation; next is nil on deletion
// and close.
//
// The previous table is released unconditionally whenever the order stops
// pointing at it; there is no check that the table still references this
// order (see the consistency notes in DESIGN.md).
func PlanOccupancy(prev, next OrderVariant) OccupancyPlan {
	var plan OccupancyPlan

	prevTable, hadTable := prev.(TableVariant)
	nextTable, hasTable := next.(TableVariant)

	switch {
	case hadTable && hasTable:
		if prevTable.TableID != nextTable.TableID {
			plan.Release = prevTable.TableID
			plan.Occupy = nextTable.TableID
		}
	case hadTable:
		plan.Release = prevTable.TableID
	case hasTable:
		plan.Occupy = nextTable.TableID
	}
	return plan
}

// validateTableForOccupancy checks the target table before any write: it must
// exist, be available, and have room for the party.
func (s *OrderService) validateTableForOccupancy(ctx context.Context, companyID uuid.UUID, v TableVariant) (database.Table, error) {
	table, err := s.store.GetTable(ctx, database.GetTableParams{ID: v.TableID, CompanyID: companyID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Table{}, ErrTableNotFound
		}
		return database.Table{}, fmt.Errorf("get table: %w", err)
	}
	if table.Status != enum.TableStatusAvailable {
		return database.Table{}, fmt.Errorf("%w: table %d is %s", ErrTableNotAvailable, table.Number, table.Status)
	}
	if v.PeopleCount > 0 && table.Capacity < int32(v.PeopleCount) {
		return database.Table{}, fmt.Errorf("%w: table %d seats %d, %d requested",
			ErrTableOverCapacity, table.Number, table.Capacity, v.PeopleCount)
	}
	return table, nil
}

// occupyTable marks the table taken by the given order. The conditional
// update loses against a concurrent occupation, which surfaces as
// ErrTableNotAvailable.
func (s *OrderService) occupyTable(ctx context.Context, companyID, tableID, orderID, userID uuid.UUID) (database.Table, error) {
	table, err := s.store.OccupyTable(ctx, database.OccupyTableParams{
		ID:           tableID,
		CompanyID:    companyID,
		CurrentOrder: orderID,
		OccupiedBy:   userID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Table{}, fmt.Errorf("%w: table was taken concurrently", ErrTableNotAvailable)
		}
		return database.Table{}, fmt.Errorf("occupy table: %w", err)
	}
	return table, nil
}

// releaseTable frees the table regardless of who it currently points at.
func (s *OrderService) releaseTable(ctx context.Context, companyID, tableID uuid.UUID) (database.Table, error) {
	table, err := s.store.ReleaseTable(ctx, database.ReleaseTableParams{ID: tableID, CompanyID: companyID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Table was deleted out from under the order; nothing to free.
			return database.Table{}, nil
		}
		return database.Table{}, fmt.Errorf("release table: %w", err)
	}
	return table, nil
}
