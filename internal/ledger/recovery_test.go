package ledger

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmynk/lingostake/internal/custody"
	"github.com/mmynk/lingostake/internal/models"
	"github.com/mmynk/lingostake/internal/storage"
	"github.com/mmynk/lingostake/internal/vault"
)

// cancelOnPayToken cancels a context as soon as a transfer to account has
// gone through, like a client hanging up mid-call.
type cancelOnPayToken struct {
	custody.Token
	account string
	cancel  context.CancelFunc
}

func (c *cancelOnPayToken) Transfer(ctx context.Context, sender, recipient string, amount *big.Int) error {
	err := c.Token.Transfer(ctx, sender, recipient, amount)
	if err == nil && recipient == c.account && c.cancel != nil {
		c.cancel()
	}
	return err
}

// pausedToken rejects the next n transfers to account.
type pausedToken struct {
	custody.Token
	account string
	n       int
}

func (p *pausedToken) Transfer(ctx context.Context, sender, recipient string, amount *big.Int) error {
	if recipient == p.account && p.n > 0 {
		p.n--
		return errors.New("token paused")
	}
	return p.Token.Transfer(ctx, sender, recipient, amount)
}

// cancelOnDepositFacility cancels a context after a successful deposit.
type cancelOnDepositFacility struct {
	vault.Facility
	cancel context.CancelFunc
}

func (c *cancelOnDepositFacility) Deposit(ctx context.Context, position string, amount *big.Int) (*vault.Receipt, error) {
	r, err := c.Facility.Deposit(ctx, position, amount)
	if err == nil && c.cancel != nil {
		c.cancel()
	}
	return r, err
}

// brokenStore fails AddStake after its callback has moved the funds.
type brokenStore struct {
	storage.Store
	stakeErr error
}

func (s *brokenStore) AddStake(ctx context.Context, m *models.Membership, fn storage.StakeFunc) error {
	return s.Store.AddStake(ctx, m, func(g *models.Group, m *models.Membership) error {
		if err := fn(g, m); err != nil {
			return err
		}
		return s.stakeErr
	})
}

func (h *harness) settled(t *testing.T, mode models.Mode, accounts ...string) *models.Group {
	t.Helper()
	g := h.createGroup(t, mode, 100, len(accounts))
	for _, a := range accounts {
		h.fund(t, a, 100)
	}
	h.stake(t, g.ID, accounts...)
	h.expire()
	_, err := h.ledger.Settle(context.Background(), g.ID, testAgent, nil)
	require.NoError(t, err)
	return g
}

func TestClaim_CallerGoneAfterPaymentIsPaidOnce(t *testing.T) {
	tok := &cancelOnPayToken{account: "alice"}
	h := newHarness(t, func(d *harnessDeps) {
		tok.Token = d.token
		d.token = tok
	})
	g := h.settled(t, models.ModeNoLoss, "alice", "bob")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tok.cancel = cancel

	p, err := h.ledger.Claim(ctx, g.ID, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(100), p.Total.Int64())
	require.ErrorIs(t, ctx.Err(), context.Canceled)

	_, err = h.ledger.Claim(context.Background(), g.ID, "alice")
	require.ErrorIs(t, err, models.ErrAlreadyClaimed)
	require.Equal(t, int64(100), h.balance(t, "alice"))

	p, err = h.ledger.Claim(context.Background(), g.ID, "bob")
	require.NoError(t, err)
	require.Equal(t, int64(100), p.Total.Int64())
	require.Equal(t, int64(0), h.balance(t, testEscrow))
}

func TestClaim_FailedTransferReleasesClaim(t *testing.T) {
	tok := &pausedToken{account: "alice"}
	h := newHarness(t, func(d *harnessDeps) {
		tok.Token = d.token
		d.token = tok
	})
	ctx := context.Background()
	g := h.settled(t, models.ModeNoLoss, "alice", "bob")

	tok.n = 1
	_, err := h.ledger.Claim(ctx, g.ID, "alice")
	require.Error(t, err)

	m, err := h.ledger.GetUserInfo(ctx, g.ID, "alice")
	require.NoError(t, err)
	require.False(t, m.Claimed, "unpaid claim is released")
	payouts, err := h.ledger.ListPayouts(ctx, g.ID)
	require.NoError(t, err)
	require.Empty(t, payouts)

	p, err := h.ledger.Claim(ctx, g.ID, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(100), p.Total.Int64())
	require.Equal(t, int64(100), h.balance(t, "alice"))
}

func TestStake_CallerGoneAfterDepositCommits(t *testing.T) {
	fac := &cancelOnDepositFacility{}
	h := newHarness(t, func(d *harnessDeps) {
		fac.Facility = d.facility
		d.facility = fac
	})
	g := h.createGroup(t, models.ModeNoLoss, 100, 2)
	h.fund(t, "alice", 100)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fac.cancel = cancel

	m, err := h.ledger.Stake(ctx, g.ID, "alice")
	require.NoError(t, err)
	require.True(t, m.HasStaked)

	bg := context.Background()
	_, err = h.ledger.GetUserInfo(bg, g.ID, "alice")
	require.NoError(t, err)
	info, err := h.ledger.GetGroupInfo(bg, g.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100), info.VaultPrincipal.Int64())
	require.Equal(t, int64(100), h.balance(t, testVault))

	h.expire()
	_, err = h.ledger.Settle(bg, g.ID, testAgent, nil)
	require.NoError(t, err)
	p, err := h.ledger.Claim(bg, g.ID, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(100), p.Total.Int64())
}

func TestStake_UnwindsFundsWhenMembershipFails(t *testing.T) {
	store := &brokenStore{}
	h := newHarness(t, func(d *harnessDeps) {
		store.Store = d.store
		d.store = store
	})
	ctx := context.Background()
	g := h.createGroup(t, models.ModeNoLoss, 100, 3)
	h.fund(t, "alice", 100)
	h.fund(t, "bob", 100)
	h.stake(t, g.ID, "bob")

	store.stakeErr = errors.New("disk full")
	_, err := h.ledger.Stake(ctx, g.ID, "alice")
	require.ErrorIs(t, err, store.stakeErr)

	_, err = h.ledger.GetUserInfo(ctx, g.ID, "alice")
	require.ErrorIs(t, err, models.ErrNotAMember)
	require.Equal(t, int64(100), h.balance(t, "alice"), "stake returned")
	allowed, err := h.token.Allowance(ctx, "alice", testEscrow)
	require.NoError(t, err)
	require.Equal(t, int64(100), allowed.Int64())
	require.Equal(t, int64(0), h.balance(t, testEscrow))
	require.Equal(t, int64(100), h.balance(t, testVault), "only bob's stake is invested")

	store.stakeErr = nil
	h.stake(t, g.ID, "alice")
	h.expire()
	s, err := h.ledger.Settle(ctx, g.ID, testAgent, nil)
	require.NoError(t, err)
	require.Equal(t, int64(200), s.Distribution.Withdrawn.Int64())
	require.Zero(t, s.Distribution.YieldTotal.Sign(), "no stray funds turn into yield")
}

func TestSettle_InlineVerdictsCommitWithSettlement(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	g := h.createGroup(t, models.ModeHardcore, 100, 2)
	h.fund(t, "alice", 100)
	h.fund(t, "bob", 100)
	h.stake(t, g.ID, "alice", "bob")
	h.expire()

	v := &Verdicts{Accounts: []string{"alice"}, Flags: []bool{true}}
	h.pool.SetAvailable(false)
	_, err := h.ledger.Settle(ctx, g.ID, testAgent, v)
	require.ErrorIs(t, err, models.ErrVaultUnavailable)

	a, err := h.ledger.GetAttestation(ctx, g.ID)
	require.NoError(t, err)
	require.Nil(t, a, "verdicts of a failed settlement are not kept")

	h.pool.SetAvailable(true)
	_, err = h.ledger.Settle(ctx, g.ID, testAgent, v)
	require.NoError(t, err)

	a, err = h.ledger.GetAttestation(ctx, g.ID)
	require.NoError(t, err)
	require.NotNil(t, a)
	require.True(t, a.Completed("alice"))
	require.False(t, a.Completed("bob"))
	require.Equal(t, h.clock.Now().Unix(), a.SubmittedAt)
}

func TestVerifyBacking(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.ledger.VerifyBacking(ctx), "empty store")

	active := h.createGroup(t, models.ModeNoLoss, 100, 2)
	h.fund(t, "alice", 100)
	h.stake(t, active.ID, "alice")
	settled := h.settled(t, models.ModeNoLoss, "bob", "carol")
	require.NoError(t, h.ledger.VerifyBacking(ctx))

	// A new process starts with an empty token and vault.
	h.rebuild()
	err := h.ledger.VerifyBacking(ctx)
	require.ErrorIs(t, err, models.ErrUnbacked)
	require.ErrorContains(t, err, "principal 100")
	require.ErrorContains(t, err, "owes 200")

	_, err = h.ledger.Claim(ctx, settled.ID, "bob")
	require.Error(t, err, "escrow cannot pay")
	m, err := h.ledger.GetUserInfo(ctx, settled.ID, "bob")
	require.NoError(t, err)
	require.False(t, m.Claimed)
}
