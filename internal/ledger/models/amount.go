package models

import (
	"math/big"

	"github.com/shopspring/decimal"

	dErrors "badgeledger/pkg/domain-errors"
)

const (
	// AmountScale is the number of fractional digits the ledger stores.
	AmountScale = 18
	// AmountIntegerDigits bounds the integer part, matching NUMERIC(78,18).
	AmountIntegerDigits = 60
)

var ten = big.NewInt(10)

// ValidateAmount rejects amounts the ledger cannot hold exactly. Only the
// coefficient and exponent are inspected; the value is never rescaled, so an
// extreme exponent is refused without allocating for it.
func ValidateAmount(field string, amount decimal.Decimal) error {
	coef := amount.Coefficient()
	if coef.Sign() == 0 {
		return nil
	}
	exp := int64(amount.Exponent())
	digits := int64(len(coef.Text(10)))
	if coef.Sign() < 0 {
		digits--
	}

	if exp < -AmountScale {
		// Digits below the scale are allowed only if they are all zeros.
		excess := -AmountScale - exp
		if excess >= digits {
			return tooPrecise(field)
		}
		unit := new(big.Int).Exp(ten, big.NewInt(excess), nil)
		if new(big.Int).Rem(coef, unit).Sign() != 0 {
			return tooPrecise(field)
		}
	}
	if digits+exp > AmountIntegerDigits {
		return dErrors.New(dErrors.CodeBadRequest, field+" is too large")
	}
	return nil
}

func tooPrecise(field string) error {
	return dErrors.New(dErrors.CodeBadRequest, field+" has more than 18 decimal places")
}
