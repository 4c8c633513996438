package ledger

import "github.com/shopspring/decimal"

// ApplySignedPosition folds a fill of deltaQty (signed: positive adds to
// the long side, negative adds to the short side) at fillPrice into pos,
// returning the updated position. The four cases:
//
//   - flat or same-sign add: weighted-average the cost basis.
//   - opposite sign and the add exactly flattens: quantity goes to zero,
//     cost basis is irrelevant (caller deletes the position).
//   - opposite sign but sign is preserved (a partial reduction): quantity
//     shrinks, cost basis is unchanged.
//   - opposite sign and the add crosses through zero: the residual
//     quantity re-bases its cost to fillPrice, since it is effectively a
//     fresh position opened at the fill.
func ApplySignedPosition(pos Position, deltaQty, fillPrice decimal.Decimal) Position {
	newQty := pos.Quantity.Add(deltaQty)

	switch {
	case pos.Quantity.IsZero() || sameSign(pos.Quantity, deltaQty):
		return Position{
			Symbol:   pos.Symbol,
			Quantity: newQty,
			AvgPrice: weightedAvg(pos.Quantity, pos.AvgPrice, deltaQty, fillPrice, newQty),
		}
	case newQty.IsZero():
		return Position{Symbol: pos.Symbol, Quantity: decimal.Zero, AvgPrice: decimal.Zero}
	case sameSign(pos.Quantity, newQty):
		return Position{Symbol: pos.Symbol, Quantity: newQty, AvgPrice: pos.AvgPrice}
	default:
		return Position{Symbol: pos.Symbol, Quantity: newQty, AvgPrice: fillPrice}
	}
}

// sameSign reports whether a and b are both positive or both negative.
// Zero is never considered same-signed as anything, including itself.
func sameSign(a, b decimal.Decimal) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	return a.Sign() == b.Sign()
}

// weightedAvg computes (|oldQty|*oldAvg + |deltaQty|*price) / |newQty|.
func weightedAvg(oldQty, oldAvg, deltaQty, price, newQty decimal.Decimal) decimal.Decimal {
	if newQty.IsZero() {
		return decimal.Zero
	}
	numerator := oldQty.Abs().Mul(oldAvg).Add(deltaQty.Abs().Mul(price))
	return numerator.Div(newQty.Abs()).Round(6)
}
