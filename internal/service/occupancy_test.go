package service

import (
	"testing"

	"github.com/google/uuid"
)

func TestPlanOccupancy(t *testing.T) {
	tableA := uuid.New()
	tableB := uuid.New()
	customer := uuid.New()

	tests := []struct {
		name        string
		prev, next  OrderVariant
		wantRelease uuid.UUID
		wantOccupy  uuid.UUID
	}{
		{
			name:       "creation of table order",
			next:       TableVariant{TableID: tableA, PeopleCount: 2},
			wantOccupy: tableA,
		},
		{
			name: "creation of delivery order",
			next: DeliveryVariant{CustomerID: customer, Address: "Jl. Sudirman 1"},
		},
		{
			name: "same table is a no-op",
			prev: TableVariant{TableID: tableA, PeopleCount: 2},
			next: TableVariant{TableID: tableA, PeopleCount: 4},
		},
		{
			name:        "move between tables",
			prev:        TableVariant{TableID: tableA},
			next:        TableVariant{TableID: tableB},
			wantRelease: tableA,
			wantOccupy:  tableB,
		},
		{
			name:        "table to pickup releases",
			prev:        TableVariant{TableID: tableA},
			next:        PickupVariant{PickupName: "Budi"},
			wantRelease: tableA,
		},
		{
			name:       "pickup to table occupies",
			prev:       PickupVariant{PickupName: "Budi"},
			next:       TableVariant{TableID: tableB},
			wantOccupy: tableB,
		},
		{
			name:        "deletion of table order releases",
			prev:        TableVariant{TableID: tableA},
			wantRelease: tableA,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanOccupancy(tt.prev, tt.next)
			if plan.Release != tt.wantRelease {
				t.Errorf("release = %s, want %s", plan.Release, tt.wantRelease)
			}
			if plan.Occupy != tt.wantOccupy {
				t.Errorf("occupy = %s, want %s", plan.Occupy, tt.wantOccupy)
			}
		})
	}
}
