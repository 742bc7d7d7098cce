package service

import (
	"testing"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
)

func TestForceReadyToServe(t *testing.T) {
	lines := []database.OrderLine{
		{
			UnitStatuses: []database.UnitStatus{
				{Position: 1, Status: enum.UnitStatusPending},
				{Position: 2, Status: enum.UnitStatusInPreparation},
				{Position: 3, Status: enum.UnitStatusServed},
			},
		},
	}

	forced := forceReadyToServe(lines)

	want := []string{enum.UnitStatusReadyToServe, enum.UnitStatusReadyToServe, enum.UnitStatusServed}
	for i, u := range forced[0].UnitStatuses {
		if u.Status != want[i] {
			t.Errorf("unit %d = %s, want %s", i, u.Status, want[i])
		}
	}

	// Input must be untouched; callers hold the pre-close state.
	if lines[0].UnitStatuses[0].Status != enum.UnitStatusPending {
		t.Errorf("input was mutated: %+v", lines[0].UnitStatuses)
	}
}

func TestForceReadyToServeIdempotent(t *testing.T) {
	lines := []database.OrderLine{
		{UnitStatuses: []database.UnitStatus{
			{Position: 1, Status: enum.UnitStatusPending},
			{Position: 2, Status: enum.UnitStatusServed},
		}},
	}
	once := forceReadyToServe(lines)
	twice := forceReadyToServe(once)
	for i := range once[0].UnitStatuses {
		if once[0].UnitStatuses[i] != twice[0].UnitStatuses[i] {
			t.Errorf("unit %d changed on second application", i)
		}
	}
}

func TestCanAdvanceUnit(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{enum.UnitStatusPending, enum.UnitStatusInPreparation, true},
		{enum.UnitStatusPending, enum.UnitStatusServed, true},
		{enum.UnitStatusInPreparation, enum.UnitStatusReadyToServe, true},
		{enum.UnitStatusReadyToServe, enum.UnitStatusServed, true},
		{enum.UnitStatusServed, enum.UnitStatusReadyToServe, false},
		{enum.UnitStatusInPreparation, enum.UnitStatusPending, false},
		{enum.UnitStatusPending, enum.UnitStatusPending, false},
		{"cooked", enum.UnitStatusServed, false},
		{enum.UnitStatusPending, "cooked", false},
	}
	for _, tt := range tests {
		if got := canAdvanceUnit(tt.from, tt.to); got != tt.want {
			t.Errorf("canAdvanceUnit(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsUpdatableOrderStatus(t *testing.T) {
	if !isUpdatableOrderStatus(enum.OrderStatusReceived) {
		t.Error("received should be updatable")
	}
	if !isUpdatableOrderStatus(enum.OrderStatusInProgress) {
		t.Error("in_progress should be updatable")
	}
	if isUpdatableOrderStatus(enum.OrderStatusClosed) {
		t.Error("closed must not be settable through a plain update")
	}
	if isUpdatableOrderStatus("cancelled") {
		t.Error("unknown status must be rejected")
	}
}
