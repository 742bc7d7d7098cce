package service

import (
	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
)

// unitRank orders the unit statuses along their normal kitchen progression.
var unitRank = map[string]int{
	enum.UnitStatusPending:       0,
	enum.UnitStatusInPreparation: 1,
	enum.UnitStatusReadyToServe:  2,
	enum.UnitStatusServed:        3,
}

// forceReadyToServe applies the close rule: every unit not yet served is
// pushed to ready_to_serve. Served units stay served. Re-applying the rule is
// a no-op, which is what makes re-closing a closed order harmless.
func forceReadyToServe(lines []database.OrderLine) []database.OrderLine {
	out := make([]database.OrderLine, len(lines))
	for i, line := range lines {
		units := make([]database.UnitStatus, len(line.UnitStatuses))
		for j, u := range line.UnitStatuses {
			if u.Status != enum.UnitStatusServed {
				u.Status = enum.UnitStatusReadyToServe
			}
			units[j] = u
		}
		out[i] = line
		out[i].UnitStatuses = units
	}
	return out
}

// canAdvanceUnit reports whether a single unit may move from one status to
// another. Units only ever move forward; there is no undo.
func canAdvanceUnit(from, to string) bool {
	fromRank, ok := unitRank[from]
	if !ok {
		return false
	}
	toRank, ok := unitRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// isUpdatableOrderStatus reports whether a caller may set this status through
// a plain update. Closing has its own endpoint because it carries side
// effects (forcing units, releasing the table, stamping closed_at).
func isUpdatableOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusReceived, enum.OrderStatusInProgress:
		return true
	}
	return false
}
