package calculator

import (
	"fmt"
	"math/big"

	"github.com/mmynk/lingostake/internal/models"
)

// Totals summarizes what a distribution pays out.
type Totals struct {
	Principal *big.Int // principal returned
	Yield     *big.Int // allocations paid
	Payout    *big.Int // Principal + Yield
}

// Audit checks that a distribution creates no funds: every entitlement is
// non-negative and the total paid out never exceeds the amount withdrawn.
// For a group with stakers the two are equal.
func Audit(d *Distribution) (*Totals, error) {
	t := &Totals{
		Principal: new(big.Int),
		Yield:     new(big.Int),
		Payout:    new(big.Int),
	}

	for _, a := range d.Allocations {
		if a.Principal.Sign() < 0 || a.Yield.Sign() < 0 {
			return nil, fmt.Errorf("%w: negative entitlement for %s", models.ErrConservation, a.Account)
		}
		if a.Forfeited && a.Total().Sign() != 0 {
			return nil, fmt.Errorf("%w: forfeited member %s is paid %s", models.ErrConservation, a.Account, a.Total())
		}
		t.Principal.Add(t.Principal, a.Principal)
		t.Yield.Add(t.Yield, a.Yield)
	}
	t.Payout.Add(t.Principal, t.Yield)

	if t.Payout.Cmp(d.Withdrawn) > 0 {
		return nil, fmt.Errorf("%w: paying %s from %s", models.ErrConservation, t.Payout, d.Withdrawn)
	}
	if len(d.Allocations) > 0 && t.Payout.Cmp(d.Withdrawn) != 0 {
		return nil, fmt.Errorf("%w: %s of %s left unallocated", models.ErrConservation,
			new(big.Int).Sub(d.Withdrawn, t.Payout), d.Withdrawn)
	}

	return t, nil
}
