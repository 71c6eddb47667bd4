package calculator

import (
	"errors"
	"math/big"
	"testing"

	"github.com/mmynk/lingostake/internal/models"
)

func stakes(amount int64, completed ...bool) []Stake {
	names := []string{"Alice", "Bob", "Charlie", "Diana", "Eve"}
	out := make([]Stake, len(completed))
	for i, c := range completed {
		out[i] = Stake{Account: names[i], Amount: big.NewInt(amount), Completed: c}
	}
	return out
}

func byAccount(d *Distribution) map[string]Allocation {
	m := make(map[string]Allocation, len(d.Allocations))
	for _, a := range d.Allocations {
		m[a.Account] = a
	}
	return m
}

func TestDistribute(t *testing.T) {
	tests := []struct {
		name         string
		mode         models.Mode
		withdrawn    int64
		stakes       []Stake
		wantErr      error
		validateFunc func(t *testing.T, d *Distribution)
	}{
		{
			name:      "hardcore single completer takes forfeit and yield",
			mode:      models.ModeHardcore,
			withdrawn: 210,
			stakes:    stakes(100, true, false),
			validateFunc: func(t *testing.T, d *Distribution) {
				// yield = 10, forfeited = 100, distributable = 110, all to Alice
				got := byAccount(d)
				if d.Distributable.Int64() != 110 {
					t.Errorf("distributable = %s, want 110", d.Distributable)
				}
				if got["Alice"].Total().Int64() != 210 {
					t.Errorf("Alice total = %s, want 210", got["Alice"].Total())
				}
				if got["Bob"].Total().Sign() != 0 || !got["Bob"].Forfeited {
					t.Errorf("Bob = %+v, want forfeited with 0", got["Bob"])
				}
			},
		},
		{
			name:      "no-loss splits yield across everyone",
			mode:      models.ModeNoLoss,
			withdrawn: 210,
			stakes:    stakes(100, true, false),
			validateFunc: func(t *testing.T, d *Distribution) {
				got := byAccount(d)
				for _, who := range []string{"Alice", "Bob"} {
					if got[who].Total().Int64() != 105 {
						t.Errorf("%s total = %s, want 105", who, got[who].Total())
					}
				}
			},
		},
		{
			name:      "remainder goes to last recipient in join order",
			mode:      models.ModeNoLoss,
			withdrawn: 310,
			stakes:    stakes(100, true, true, true),
			validateFunc: func(t *testing.T, d *Distribution) {
				// 10 / 3 = 3 each, remainder 1 to Charlie
				got := byAccount(d)
				if got["Alice"].Yield.Int64() != 3 || got["Bob"].Yield.Int64() != 3 {
					t.Errorf("Alice/Bob yield = %s/%s, want 3/3", got["Alice"].Yield, got["Bob"].Yield)
				}
				if got["Charlie"].Yield.Int64() != 4 {
					t.Errorf("Charlie yield = %s, want 4", got["Charlie"].Yield)
				}
				if d.RemainderTo != "Charlie" || d.Remainder.Int64() != 1 {
					t.Errorf("remainder = %s to %q, want 1 to Charlie", d.Remainder, d.RemainderTo)
				}
			},
		},
		{
			name:      "hardcore remainder goes to last completer",
			mode:      models.ModeHardcore,
			withdrawn: 401,
			stakes:    stakes(100, true, false, true, false),
			validateFunc: func(t *testing.T, d *Distribution) {
				// distributable = 1 + 200 = 201, 100 each, remainder 1 to Charlie
				got := byAccount(d)
				if got["Alice"].Total().Int64() != 200 {
					t.Errorf("Alice total = %s, want 200", got["Alice"].Total())
				}
				if got["Charlie"].Total().Int64() != 201 {
					t.Errorf("Charlie total = %s, want 201", got["Charlie"].Total())
				}
				if d.RemainderTo != "Charlie" {
					t.Errorf("remainder to %q, want Charlie", d.RemainderTo)
				}
			},
		},
		{
			name:      "hardcore without completers falls back to no-loss",
			mode:      models.ModeHardcore,
			withdrawn: 206,
			stakes:    stakes(100, false, false),
			validateFunc: func(t *testing.T, d *Distribution) {
				if !d.FellBack {
					t.Error("expected FellBack")
				}
				got := byAccount(d)
				if got["Alice"].Total().Int64() != 103 || got["Bob"].Total().Int64() != 103 {
					t.Errorf("totals = %s/%s, want 103/103", got["Alice"].Total(), got["Bob"].Total())
				}
			},
		},
		{
			name:      "no yield returns exact principal",
			mode:      models.ModeNoLoss,
			withdrawn: 200,
			stakes:    stakes(100, false, true),
			validateFunc: func(t *testing.T, d *Distribution) {
				if d.YieldTotal.Sign() != 0 {
					t.Errorf("yield = %s, want 0", d.YieldTotal)
				}
				for _, a := range d.Allocations {
					if a.Total().Int64() != 100 {
						t.Errorf("%s total = %s, want 100", a.Account, a.Total())
					}
				}
			},
		},
		{
			name:      "empty group withdraws nothing",
			mode:      models.ModeHardcore,
			withdrawn: 0,
			stakes:    nil,
			validateFunc: func(t *testing.T, d *Distribution) {
				if len(d.Allocations) != 0 {
					t.Errorf("expected no allocations, got %d", len(d.Allocations))
				}
			},
		},
		{
			name:      "withdrawn below principal should error",
			mode:      models.ModeNoLoss,
			withdrawn: 199,
			stakes:    stakes(100, true, true),
			wantErr:   models.ErrConservation,
		},
		{
			name:      "unknown mode should error",
			mode:      models.Mode("yolo"),
			withdrawn: 200,
			stakes:    stakes(100, true, true),
			wantErr:   models.ErrInvalidMode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Distribute(tt.mode, big.NewInt(tt.withdrawn), tt.stakes)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Distribute() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Distribute() unexpected error: %v", err)
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, d)
			}
			if _, err := Audit(d); err != nil {
				t.Errorf("Audit() failed: %v", err)
			}
		})
	}
}

// TestDistribute_Conserves checks the no-fund-creation property over a
// spread of group sizes, yields and completion patterns.
func TestDistribute_Conserves(t *testing.T) {
	for members := 1; members <= 5; members++ {
		for yield := int64(0); yield <= 23; yield += 7 {
			for pattern := 0; pattern < 1<<members; pattern++ {
				in := make([]Stake, members)
				for i := range in {
					in[i] = Stake{
						Account:   string(rune('A' + i)),
						Amount:    big.NewInt(1_000_000),
						Completed: pattern&(1<<i) != 0,
					}
				}
				withdrawn := big.NewInt(int64(members)*1_000_000 + yield)

				for _, mode := range []models.Mode{models.ModeNoLoss, models.ModeHardcore} {
					d, err := Distribute(mode, withdrawn, in)
					if err != nil {
						t.Fatalf("Distribute(%s, %d members, pattern %b) error: %v", mode, members, pattern, err)
					}
					totals, err := Audit(d)
					if err != nil {
						t.Fatalf("Audit(%s, %d members, pattern %b) error: %v", mode, members, pattern, err)
					}
					if totals.Payout.Cmp(withdrawn) != 0 {
						t.Errorf("payout %s != withdrawn %s", totals.Payout, withdrawn)
					}
				}
			}
		}
	}
}

func TestAudit_RejectsFundCreation(t *testing.T) {
	d := &Distribution{
		Withdrawn: big.NewInt(100),
		Allocations: []Allocation{
			{Account: "Alice", Principal: big.NewInt(100), Yield: big.NewInt(1)},
		},
	}
	if _, err := Audit(d); !errors.Is(err, models.ErrConservation) {
		t.Fatalf("expected ErrConservation, got %v", err)
	}
}
