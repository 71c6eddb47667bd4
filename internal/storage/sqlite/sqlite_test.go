package sqlite

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmynk/lingostake/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "lingostake-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func noopStake(*models.Group, *models.Membership) error { return nil }

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateGroup assigns sequential IDs", func(t *testing.T) {
		first := models.NewGroup("alice", big.NewInt(100), 86400, 2, models.ModeHardcore)
		second := models.NewGroup("bob", big.NewInt(5_000_000), 3600, 4, models.ModeNoLoss)
		first.CreatedAt = 1_700_000_000

		if err := store.CreateGroup(ctx, first); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if err := store.CreateGroup(ctx, second); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if first.ID == 0 || second.ID != first.ID+1 {
			t.Errorf("IDs = %d, %d; want sequential", first.ID, second.ID)
		}
		got, _ := store.GetGroup(ctx, first.ID)
		if got.CreatedAt != 1_700_000_000 || got.SettleableAt() != 1_700_086_400 {
			t.Errorf("CreatedAt = %d, SettleableAt = %d", got.CreatedAt, got.SettleableAt())
		}
	})

	t.Run("GetGroup round-trips amounts", func(t *testing.T) {
		huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
		g := models.NewGroup("carol", huge, 60, 3, models.ModeNoLoss)
		g.Title = "Spanish in 30 days"
		g.Language = "es"
		if err := store.CreateGroup(ctx, g); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}

		got, err := store.GetGroup(ctx, g.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.StakingAmount.Cmp(huge) != 0 {
			t.Errorf("StakingAmount = %s, want %s", got.StakingAmount, huge)
		}
		if got.Title != g.Title || got.Language != "es" {
			t.Errorf("metadata mismatch: %q %q", got.Title, got.Language)
		}
		if !got.IsActive || got.IsCompleted {
			t.Errorf("lifecycle flags = active %v completed %v", got.IsActive, got.IsCompleted)
		}
	})

	t.Run("GetGroup returns ErrGroupNotFound", func(t *testing.T) {
		_, err := store.GetGroup(ctx, 9999)
		if !errors.Is(err, models.ErrGroupNotFound) {
			t.Errorf("Expected ErrGroupNotFound, got %v", err)
		}
	})
}

func TestSQLiteStore_AddStake(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	g := models.NewGroup("alice", big.NewInt(100), 86400, 2, models.ModeHardcore)
	if err := store.CreateGroup(ctx, g); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	t.Run("updates totals and join order", func(t *testing.T) {
		for _, who := range []string{"alice", "bob"} {
			m := models.NewMembership(g.ID, who, g.StakingAmount, 0)
			if err := store.AddStake(ctx, m, noopStake); err != nil {
				t.Fatalf("AddStake(%s) failed: %v", who, err)
			}
		}

		got, _ := store.GetGroup(ctx, g.ID)
		if got.MemberCount != 2 || got.TotalStaked.Int64() != 200 || got.VaultPrincipal.Int64() != 200 {
			t.Errorf("totals = count %d staked %s principal %s", got.MemberCount, got.TotalStaked, got.VaultPrincipal)
		}

		members, err := store.ListMemberships(ctx, g.ID)
		if err != nil {
			t.Fatalf("ListMemberships failed: %v", err)
		}
		if len(members) != 2 || members[0].Account != "alice" || members[1].Seq != 2 {
			t.Errorf("unexpected members: %+v", members)
		}
	})

	t.Run("duplicate stake fails", func(t *testing.T) {
		m := models.NewMembership(g.ID, "alice", g.StakingAmount, 0)
		if err := store.AddStake(ctx, m, noopStake); !errors.Is(err, models.ErrAlreadyStaked) {
			t.Errorf("Expected ErrAlreadyStaked, got %v", err)
		}
	})

	t.Run("full group fails", func(t *testing.T) {
		m := models.NewMembership(g.ID, "carol", g.StakingAmount, 0)
		if err := store.AddStake(ctx, m, noopStake); !errors.Is(err, models.ErrGroupFull) {
			t.Errorf("Expected ErrGroupFull, got %v", err)
		}
	})

	t.Run("failing callback leaves no trace", func(t *testing.T) {
		other := models.NewGroup("dave", big.NewInt(50), 60, 3, models.ModeNoLoss)
		store.CreateGroup(ctx, other)

		m := models.NewMembership(other.ID, "dave", other.StakingAmount, 0)
		boom := errors.New("deposit failed")
		err := store.AddStake(ctx, m, func(*models.Group, *models.Membership) error { return boom })
		if !errors.Is(err, boom) {
			t.Fatalf("Expected callback error, got %v", err)
		}

		if _, err := store.GetMembership(ctx, other.ID, "dave"); !errors.Is(err, models.ErrNotAMember) {
			t.Errorf("Expected ErrNotAMember after rollback, got %v", err)
		}
		got, _ := store.GetGroup(ctx, other.ID)
		if got.MemberCount != 0 || got.TotalStaked.Sign() != 0 {
			t.Errorf("group totals changed: count %d staked %s", got.MemberCount, got.TotalStaked)
		}
	})
}

func TestSQLiteStore_SettleAndClaim(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	g := models.NewGroup("alice", big.NewInt(100), 60, 2, models.ModeNoLoss)
	store.CreateGroup(ctx, g)
	for _, who := range []string{"alice", "bob"} {
		if err := store.AddStake(ctx, models.NewMembership(g.ID, who, g.StakingAmount, 0), noopStake); err != nil {
			t.Fatalf("AddStake failed: %v", err)
		}
	}

	t.Run("claim before settlement fails", func(t *testing.T) {
		_, err := store.ClaimMembership(ctx, g.ID, "alice", 1000)
		if !errors.Is(err, models.ErrNotCompleted) {
			t.Errorf("Expected ErrNotCompleted, got %v", err)
		}
	})

	err := store.SettleGroup(ctx, g.ID, nil, func(g *models.Group, members []*models.Membership) error {
		g.IsActive, g.IsCompleted = false, true
		g.VaultPrincipal.SetInt64(0)
		g.WithdrawnTotal.SetInt64(210)
		g.YieldTotal.SetInt64(10)
		for _, m := range members {
			m.PrincipalOwed.Set(m.Stake)
			m.YieldAllocation.SetInt64(5)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("SettleGroup failed: %v", err)
	}

	t.Run("settling twice fails", func(t *testing.T) {
		err := store.SettleGroup(ctx, g.ID, nil, func(*models.Group, []*models.Membership) error { return nil })
		if !errors.Is(err, models.ErrAlreadyCompleted) {
			t.Errorf("Expected ErrAlreadyCompleted, got %v", err)
		}
	})

	t.Run("claim is one-shot", func(t *testing.T) {
		p, err := store.ClaimMembership(ctx, g.ID, "alice", 1000)
		if err != nil {
			t.Fatalf("ClaimMembership failed: %v", err)
		}
		if p.Total.Int64() != 105 || p.ID == "" || p.CreatedAt != 1000 {
			t.Errorf("payout = %+v, want total 105 at 1000", p)
		}
		m, _ := store.GetMembership(ctx, g.ID, "alice")
		if !m.Claimed || m.ClaimedAt != 1000 {
			t.Errorf("membership claimed=%v at %d, want true at 1000", m.Claimed, m.ClaimedAt)
		}

		_, err = store.ClaimMembership(ctx, g.ID, "alice", 1001)
		if !errors.Is(err, models.ErrAlreadyClaimed) {
			t.Errorf("Expected ErrAlreadyClaimed, got %v", err)
		}

		payouts, _ := store.ListPayouts(ctx, g.ID)
		if len(payouts) != 1 {
			t.Errorf("Expected 1 payout, got %d", len(payouts))
		}
	})

	t.Run("released claim can be claimed again", func(t *testing.T) {
		p, err := store.ClaimMembership(ctx, g.ID, "bob", 1000)
		if err != nil {
			t.Fatalf("ClaimMembership failed: %v", err)
		}
		if err := store.ReleaseClaim(ctx, p); err != nil {
			t.Fatalf("ReleaseClaim failed: %v", err)
		}
		m, _ := store.GetMembership(ctx, g.ID, "bob")
		if m.Claimed || m.ClaimedAt != 0 {
			t.Errorf("Expected bob to be unclaimed, got claimed=%v at %d", m.Claimed, m.ClaimedAt)
		}
		if err := store.ReleaseClaim(ctx, p); err == nil {
			t.Error("Expected releasing a released payout to fail")
		}

		if _, err := store.ClaimMembership(ctx, g.ID, "bob", 1002); err != nil {
			t.Fatalf("second ClaimMembership failed: %v", err)
		}
		payouts, _ := store.ListPayouts(ctx, g.ID)
		if len(payouts) != 2 {
			t.Errorf("Expected 2 payouts, got %d", len(payouts))
		}
	})

	t.Run("non-member claim fails", func(t *testing.T) {
		_, err := store.ClaimMembership(ctx, g.ID, "mallory", 1000)
		if !errors.Is(err, models.ErrNotAMember) {
			t.Errorf("Expected ErrNotAMember, got %v", err)
		}
	})
}

func TestSQLiteStore_SettleRecordsAttestation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	g := models.NewGroup("alice", big.NewInt(100), 60, 2, models.ModeHardcore)
	store.CreateGroup(ctx, g)
	store.AddStake(ctx, models.NewMembership(g.ID, "alice", g.StakingAmount, 0), noopStake)

	a := &models.Attestation{GroupID: g.ID, Agent: "agent", Verdicts: map[string]bool{"alice": true}, SubmittedAt: 500}
	boom := errors.New("distribution failed")
	if err := store.SettleGroup(ctx, g.ID, a, func(*models.Group, []*models.Membership) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("Expected settle error, got %v", err)
	}
	if got, _ := store.GetAttestation(ctx, g.ID); got != nil {
		t.Fatalf("Expected no attestation after failed settlement, got %+v", got)
	}

	err := store.SettleGroup(ctx, g.ID, a, func(g *models.Group, _ []*models.Membership) error {
		g.IsActive, g.IsCompleted = false, true
		return nil
	})
	if err != nil {
		t.Fatalf("SettleGroup failed: %v", err)
	}
	got, err := store.GetAttestation(ctx, g.ID)
	if err != nil || got == nil {
		t.Fatalf("GetAttestation = %v, %v; want the inline attestation", got, err)
	}
	if !got.Completed("alice") || got.SubmittedAt != 500 {
		t.Errorf("unexpected attestation: %+v", got)
	}
}

func TestSQLiteStore_CommitsAfterCancel(t *testing.T) {
	store := newTestStore(t)

	g := models.NewGroup("alice", big.NewInt(100), 60, 2, models.ModeNoLoss)
	store.CreateGroup(context.Background(), g)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	err := store.AddStake(ctx, models.NewMembership(g.ID, "alice", g.StakingAmount, 0),
		func(*models.Group, *models.Membership) error {
			// Funds have moved; the caller goes away before commit.
			cancel()
			return nil
		})
	if err != nil {
		t.Fatalf("AddStake failed: %v", err)
	}

	m, err := store.GetMembership(context.Background(), g.ID, "alice")
	if err != nil || !m.HasStaked {
		t.Fatalf("GetMembership = %+v, %v; want a committed membership", m, err)
	}
}

func TestSQLiteStore_Attestation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	g := models.NewGroup("alice", big.NewInt(100), 60, 2, models.ModeHardcore)
	store.CreateGroup(ctx, g)

	if a, err := store.GetAttestation(ctx, g.ID); err != nil || a != nil {
		t.Fatalf("GetAttestation = %v, %v; want nil, nil", a, err)
	}

	a := &models.Attestation{GroupID: g.ID, Agent: "agent", Verdicts: map[string]bool{"alice": true, "bob": false}}
	if err := store.SaveAttestation(ctx, a); err != nil {
		t.Fatalf("SaveAttestation failed: %v", err)
	}
	if err := store.SaveAttestation(ctx, a); !errors.Is(err, models.ErrAlreadyAttested) {
		t.Errorf("Expected ErrAlreadyAttested, got %v", err)
	}

	got, err := store.GetAttestation(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetAttestation failed: %v", err)
	}
	if !got.Completed("alice") || got.Completed("bob") || got.Completed("carol") {
		t.Errorf("unexpected verdicts: %v", got.Verdicts)
	}
}

func TestSQLiteStore_Accounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := models.NewAccount("alice", "Alice", "hash")
	if err := store.CreateAccount(ctx, a); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if err := store.CreateAccount(ctx, models.NewAccount("alice", "Other", "hash")); err == nil {
		t.Error("Expected duplicate handle to fail")
	}

	got, err := store.GetAccountByHandle(ctx, "alice")
	if err != nil || got == nil || got.ID != a.ID {
		t.Fatalf("GetAccountByHandle = %+v, %v", got, err)
	}
	missing, err := store.GetAccountByHandle(ctx, "nobody")
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for missing account, got %+v, %v", missing, err)
	}
}
