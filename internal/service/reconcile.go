package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RequestedLine is one desired line in an order mutation, already parsed.
type RequestedLine struct {
	ProductID    uuid.UUID
	Quantity     int
	Message      string
	UnitStatuses []database.UnitStatus // optional; honored only when plausible
}

// LineViolation names one line that blocks a mutation.
type LineViolation struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Reason      string    `json:"reason"`
}

// ReconcileError aggregates every violated line of a mutation. The caller
// sees all problems at once and nothing is persisted.
type ReconcileError struct {
	Violations []LineViolation
}

func (e *ReconcileError) Error() string {
	reasons := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		reasons[i] = fmt.Sprintf("%s: %s", v.ProductName, v.Reason)
	}
	return "reconcile: " + strings.Join(reasons, "; ")
}

// ProductResolver looks up an active product for a brand-new line.
// Implementations return pgx.ErrNoRows when the product is missing or
// inactive.
type ProductResolver func(ctx context.Context, productID uuid.UUID) (database.Product, error)

// ReconcileLines merges the persisted line list with a requested one. Lines
// match by product ID; a persisted line absent from the request is a removal,
// a requested product absent from the persisted list is a new line, and
// matched lines keep their unit ledger across quantity changes:
//
//   - same quantity: the ledger is carried over verbatim
//   - growth: existing units keep their positions, new pending units append
//   - shrink: only pending units may be removed, taken from the tail of the
//     pending subset; survivors are re-numbered contiguously from 1
//
// A removal is only legal while every unit of the line is still pending.
// All violations across all lines are collected into one *ReconcileError and
// nothing is returned; the caller must not persist a partial result.
//
// An empty requested list returns ErrEmptyLines: the caller interprets that
// as whole-order deletion.
func ReconcileLines(ctx context.Context, current []database.OrderLine, requested []RequestedLine, resolve ProductResolver) ([]database.OrderLine, error) {
	if len(requested) == 0 {
		return nil, ErrEmptyLines
	}

	currentByProduct := make(map[uuid.UUID]database.OrderLine, len(current))
	for _, line := range current {
		currentByProduct[line.ProductID] = line
	}

	requestedSet := make(map[uuid.UUID]bool, len(requested))
	for i, r := range requested {
		if r.Quantity <= 0 {
			return nil, fmt.Errorf("lines[%d]: %w", i, ErrInvalidQuantity)
		}
		if requestedSet[r.ProductID] {
			return nil, fmt.Errorf("lines[%d]: %w", i, ErrDuplicateProduct)
		}
		requestedSet[r.ProductID] = true
	}

	var violations []LineViolation

	// Implicit removals first: a line may only disappear while the kitchen
	// has not touched any of its units.
	for _, line := range current {
		if requestedSet[line.ProductID] {
			continue
		}
		if n := countNonPending(line.UnitStatuses); n > 0 {
			violations = append(violations, LineViolation{
				ProductID:   line.ProductID,
				ProductName: line.ProductSnapshot.Name,
				Reason:      fmt.Sprintf("cannot remove: %d unit(s) are no longer pending", n),
			})
		}
	}

	next := make([]database.OrderLine, 0, len(requested))
	for _, r := range requested {
		cur, exists := currentByProduct[r.ProductID]
		if !exists {
			line, err := newLine(ctx, r, resolve)
			if err != nil {
				return nil, err
			}
			next = append(next, line)
			continue
		}

		line := database.OrderLine{
			ProductID:         cur.ProductID,
			ProductSnapshot:   cur.ProductSnapshot,
			RequestedQuantity: r.Quantity,
			Message:           r.Message,
		}

		oldQuantity := len(cur.UnitStatuses)
		switch {
		case r.Quantity == oldQuantity:
			line.UnitStatuses = cur.UnitStatuses

		case r.Quantity > oldQuantity:
			units := make([]database.UnitStatus, 0, r.Quantity)
			units = append(units, cur.UnitStatuses...)
			for pos := oldQuantity + 1; pos <= r.Quantity; pos++ {
				units = append(units, database.UnitStatus{Position: pos, Status: enum.UnitStatusPending})
			}
			line.UnitStatuses = units

		default:
			units, ok := shrinkUnits(cur.UnitStatuses, oldQuantity-r.Quantity)
			if !ok {
				pending := oldQuantity - countNonPending(cur.UnitStatuses)
				violations = append(violations, LineViolation{
					ProductID:   cur.ProductID,
					ProductName: cur.ProductSnapshot.Name,
					Reason: fmt.Sprintf("cannot reduce quantity to %d: %d unit(s) must be removed but only %d are still pending",
						r.Quantity, oldQuantity-r.Quantity, pending),
				})
				continue
			}
			line.UnitStatuses = units
		}

		next = append(next, line)
	}

	if len(violations) > 0 {
		return nil, &ReconcileError{Violations: violations}
	}
	return next, nil
}

// newLine resolves the product and builds a fresh line with its price
// snapshot. Caller-supplied unit statuses are honored only when the ledger
// already has the right length and only valid statuses; anything else is
// discarded and regenerated as pending.
func newLine(ctx context.Context, r RequestedLine, resolve ProductResolver) (database.OrderLine, error) {
	product, err := resolve(ctx, r.ProductID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.OrderLine{}, fmt.Errorf("product %s: %w", r.ProductID, ErrProductNotFound)
		}
		return database.OrderLine{}, fmt.Errorf("resolve product %s: %w", r.ProductID, err)
	}

	line := database.OrderLine{
		ProductID: product.ID,
		ProductSnapshot: database.ProductSnapshot{
			Name:        product.Name,
			Price:       numericToDecimal(product.Price),
			Category:    product.Category,
			Description: product.Description.String,
		},
		RequestedQuantity: r.Quantity,
		Message:           r.Message,
	}

	if supplied, ok := plausibleUnitStatuses(r.UnitStatuses, r.Quantity); ok {
		line.UnitStatuses = supplied
		return line, nil
	}

	units := make([]database.UnitStatus, r.Quantity)
	for i := range units {
		units[i] = database.UnitStatus{Position: i + 1, Status: enum.UnitStatusPending}
	}
	line.UnitStatuses = units
	return line, nil
}

// plausibleUnitStatuses re-numbers a caller-supplied ledger when its length
// matches the requested quantity and every status is a known value.
func plausibleUnitStatuses(units []database.UnitStatus, quantity int) ([]database.UnitStatus, bool) {
	if len(units) != quantity {
		return nil, false
	}
	out := make([]database.UnitStatus, quantity)
	for i, u := range units {
		if !isValidUnitStatus(u.Status) {
			return nil, false
		}
		out[i] = database.UnitStatus{Position: i + 1, Status: u.Status}
	}
	return out, true
}

// shrinkUnits removes removeCount units, taking them exclusively from the
// tail of the pending subset. Non-pending units always survive. Survivors
// keep their relative order and are re-numbered from 1. Returns false when
// fewer than removeCount units are pending.
func shrinkUnits(units []database.UnitStatus, removeCount int) ([]database.UnitStatus, bool) {
	var pendingIdx []int
	for i, u := range units {
		if u.Status == enum.UnitStatusPending {
			pendingIdx = append(pendingIdx, i)
		}
	}
	if len(pendingIdx) < removeCount {
		return nil, false
	}

	removed := make(map[int]bool, removeCount)
	for _, i := range pendingIdx[len(pendingIdx)-removeCount:] {
		removed[i] = true
	}

	survivors := make([]database.UnitStatus, 0, len(units)-removeCount)
	for i, u := range units {
		if !removed[i] {
			survivors = append(survivors, u)
		}
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].Position < survivors[j].Position
	})
	for i := range survivors {
		survivors[i].Position = i + 1
	}
	return survivors, true
}

func countNonPending(units []database.UnitStatus) int {
	n := 0
	for _, u := range units {
		if u.Status != enum.UnitStatusPending {
			n++
		}
	}
	return n
}

func isValidUnitStatus(s string) bool {
	switch s {
	case enum.UnitStatusPending, enum.UnitStatusInPreparation,
		enum.UnitStatusReadyToServe, enum.UnitStatusServed:
		return true
	}
	return false
}
