package calculator

import (
	"fmt"
	"math/big"

	"github.com/mmynk/lingostake/internal/models"
)

// Stake is one member's input to a distribution, in join order.
type Stake struct {
	Account   string
	Amount    *big.Int
	Completed bool
}

// Allocation is one member's computed entitlement.
type Allocation struct {
	Account string

	// Principal is the stake returned on claim.
	Principal *big.Int

	// Yield is the member's share of the distributable pool.
	Yield *big.Int

	// Forfeited is set for hardcore non-completers.
	Forfeited bool
}

// Total returns Principal + Yield.
func (a Allocation) Total() *big.Int {
	return new(big.Int).Add(a.Principal, a.Yield)
}

// Distribution is the result of settling a group.
type Distribution struct {
	Withdrawn     *big.Int
	Principal     *big.Int // sum of stakes
	YieldTotal    *big.Int // Withdrawn - Principal
	Forfeited     *big.Int // principal lost by hardcore non-completers
	Distributable *big.Int // YieldTotal + Forfeited

	// Allocations are in the same order as the input stakes.
	Allocations []Allocation

	// Remainder is the pro-rata rounding dust, credited to RemainderTo.
	Remainder   *big.Int
	RemainderTo string

	// FellBack is set when a hardcore group had no completers and was
	// settled with no-loss rules so that no funds are stranded.
	FellBack bool
}

// Distribute computes each member's entitlement from the amount withdrawn
// from the vault.
//
// Algorithm:
//   - yield = withdrawn - sum(stakes); withdrawn below principal is an error
//   - no-loss: everyone gets their stake back, yield is split pro-rata by
//     stake among all stakers
//   - hardcore: non-completers forfeit their stake; yield + forfeited is
//     split pro-rata by stake among completers. With no completers the
//     group is settled as no-loss.
//   - integer division; the remainder goes to the last recipient in join
//     order so the sum of entitlements equals withdrawn exactly
func Distribute(mode models.Mode, withdrawn *big.Int, stakes []Stake) (*Distribution, error) {
	if withdrawn == nil || withdrawn.Sign() < 0 {
		return nil, fmt.Errorf("withdrawn amount must be non-negative")
	}
	if mode != models.ModeNoLoss && mode != models.ModeHardcore {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidMode, mode)
	}

	principal := new(big.Int)
	for _, s := range stakes {
		if s.Amount == nil || s.Amount.Sign() <= 0 {
			return nil, fmt.Errorf("%w: stake of %s", models.ErrInvalidAmount, s.Account)
		}
		principal.Add(principal, s.Amount)
	}
	if withdrawn.Cmp(principal) < 0 {
		return nil, fmt.Errorf("%w: withdrew %s below principal %s", models.ErrConservation, withdrawn, principal)
	}
	if len(stakes) == 0 && withdrawn.Sign() > 0 {
		return nil, fmt.Errorf("%w: %s withdrawn with no stakers", models.ErrConservation, withdrawn)
	}

	d := &Distribution{
		Withdrawn:   new(big.Int).Set(withdrawn),
		Principal:   principal,
		YieldTotal:  new(big.Int).Sub(withdrawn, principal),
		Forfeited:   new(big.Int),
		Allocations: make([]Allocation, len(stakes)),
		Remainder:   new(big.Int),
	}

	completers := 0
	for _, s := range stakes {
		if s.Completed {
			completers++
		}
	}
	hardcore := mode == models.ModeHardcore && completers > 0
	d.FellBack = mode == models.ModeHardcore && completers == 0 && len(stakes) > 0

	// recipients share the distributable pool
	var recipients []int
	for i, s := range stakes {
		alloc := Allocation{
			Account:   s.Account,
			Principal: new(big.Int).Set(s.Amount),
			Yield:     new(big.Int),
		}
		if hardcore && !s.Completed {
			alloc.Principal.SetInt64(0)
			alloc.Forfeited = true
			d.Forfeited.Add(d.Forfeited, s.Amount)
		} else {
			recipients = append(recipients, i)
		}
		d.Allocations[i] = alloc
	}

	d.Distributable = new(big.Int).Add(d.YieldTotal, d.Forfeited)
	if len(recipients) == 0 {
		return d, nil
	}

	weight := new(big.Int)
	for _, i := range recipients {
		weight.Add(weight, stakes[i].Amount)
	}

	paid := new(big.Int)
	for _, i := range recipients {
		share := new(big.Int).Mul(d.Distributable, stakes[i].Amount)
		share.Quo(share, weight)
		d.Allocations[i].Yield = share
		paid.Add(paid, share)
	}

	last := recipients[len(recipients)-1]
	d.Remainder.Sub(d.Distributable, paid)
	d.Allocations[last].Yield.Add(d.Allocations[last].Yield, d.Remainder)
	d.RemainderTo = stakes[last].Account

	return d, nil
}
