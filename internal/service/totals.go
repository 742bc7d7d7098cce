package service

import (
	"github.com/comanda-pos/api/internal/database"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// OrderTotals recomputes the order total and item count from the preserved
// price snapshots. total = Σ(snapshot price × requested quantity), rounded
// half away from zero to 2 decimal places.
func OrderTotals(lines []database.OrderLine) (decimal.Decimal, int32) {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.ProductSnapshot.Price.Mul(decimal.NewFromInt(int64(line.RequestedQuantity))))
	}
	return total.Round(2), int32(len(lines))
}

// --- Numeric conversion helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
