package api

// Account is a registered account.
type Account struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

// Group is a staking group as seen by clients.
type Group struct {
	ID              int64  `json:"id"`
	Creator         string `json:"creator"`
	Title           string `json:"title,omitempty"`
	Language        string `json:"language,omitempty"`
	StakingAmount   string `json:"staking_amount"`
	DurationSeconds int64  `json:"duration_seconds"`
	MaxMembers      int    `json:"max_members"`
	Mode            string `json:"mode"`
	TotalStaked     string `json:"total_staked"`
	MemberCount     int    `json:"member_count"`
	IsActive        bool   `json:"is_active"`
	IsCompleted     bool   `json:"is_completed"`
	VaultPrincipal  string `json:"vault_principal"`
	CreatedAt       int64  `json:"created_at"`
	SettleableAt    int64  `json:"settleable_at"`
	SettledAt       int64  `json:"settled_at,omitempty"`
	SettledBy       string `json:"settled_by,omitempty"`
	WithdrawnTotal  string `json:"withdrawn_total"`
	YieldTotal      string `json:"yield_total"`
}

// Member is an account's membership in a group.
type Member struct {
	GroupID         int64  `json:"group_id"`
	Account         string `json:"account"`
	Seq             int    `json:"seq"`
	Stake           string `json:"stake"`
	StakedAt        int64  `json:"staked_at"`
	Completed       bool   `json:"completed"`
	PrincipalOwed   string `json:"principal_owed"`
	YieldAllocation string `json:"yield_allocation"`
	Claimed         bool   `json:"claimed"`
	ClaimedAt       int64  `json:"claimed_at,omitempty"`
}

// Payout is the record of a claim.
type Payout struct {
	ID        string `json:"id"`
	GroupID   int64  `json:"group_id"`
	Account   string `json:"account"`
	Principal string `json:"principal"`
	Yield     string `json:"yield"`
	Total     string `json:"total"`
	CreatedAt int64  `json:"created_at"`
}

// Attestation is the agent's finalized completion set for a group.
type Attestation struct {
	GroupID     int64           `json:"group_id"`
	Agent       string          `json:"agent"`
	SubmittedAt int64           `json:"submitted_at"`
	Verdicts    map[string]bool `json:"verdicts"`
}

// Verdicts pairs accounts with completion flags by index.
type Verdicts struct {
	Accounts  []string `json:"accounts"`
	Completed []bool   `json:"completed"`
}

type RegisterRequest struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	Passphrase  string `json:"passphrase"`
}

type RegisterResponse struct {
	Account *Account `json:"account"`
	Token   string   `json:"token"`
}

type LoginRequest struct {
	Handle     string `json:"handle"`
	Passphrase string `json:"passphrase"`
}

type LoginResponse struct {
	Account *Account `json:"account"`
	Token   string   `json:"token"`
}

type CreateGroupRequest struct {
	StakingAmount   string `json:"staking_amount"`
	DurationSeconds int64  `json:"duration_seconds"`
	MaxMembers      int    `json:"max_members"`
	Mode            string `json:"mode"`
	Title           string `json:"title,omitempty"`
	Language        string `json:"language,omitempty"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type StakeRequest struct {
	GroupID int64 `json:"group_id"`
}

type StakeResponse struct {
	Member *Member `json:"member"`
	Group  *Group  `json:"group"`
}

type SetCompletionRequest struct {
	GroupID  int64    `json:"group_id"`
	Verdicts Verdicts `json:"verdicts"`
}

type SetCompletionResponse struct {
	Attestation *Attestation `json:"attestation"`
}

// SettleRequest settles a group. Verdicts, when present, are attested
// together with the settlement and require the agent.
type SettleRequest struct {
	GroupID  int64     `json:"group_id"`
	Verdicts *Verdicts `json:"verdicts,omitempty"`
}

type SettleResponse struct {
	Group       *Group    `json:"group"`
	Members     []*Member `json:"members"`
	Forfeited   string    `json:"forfeited"`
	Remainder   string    `json:"remainder"`
	RemainderTo string    `json:"remainder_to,omitempty"`
	FellBack    bool      `json:"fell_back"`
}

type ClaimRequest struct {
	GroupID int64 `json:"group_id"`
}

type ClaimResponse struct {
	Payout *Payout `json:"payout"`
}

type GetGroupInfoRequest struct {
	GroupID int64 `json:"group_id"`
}

type GetGroupInfoResponse struct {
	Group        *Group       `json:"group"`
	PendingYield string       `json:"pending_yield"`
	Attestation  *Attestation `json:"attestation,omitempty"`
}

// GetUserInfoRequest looks up a membership. An empty Account means the caller.
type GetUserInfoRequest struct {
	GroupID int64  `json:"group_id"`
	Account string `json:"account,omitempty"`
}

type GetUserInfoResponse struct {
	Member *Member `json:"member"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type ListMembersRequest struct {
	GroupID int64 `json:"group_id"`
}

type ListMembersResponse struct {
	Members []*Member `json:"members"`
}

type ListPayoutsRequest struct {
	GroupID int64 `json:"group_id"`
}

type ListPayoutsResponse struct {
	Payouts []*Payout `json:"payouts"`
}

// ApproveRequest sets the caller's allowance for the staking escrow.
type ApproveRequest struct {
	Amount string `json:"amount"`
}

type ApproveResponse struct {
	Spender   string `json:"spender"`
	Allowance string `json:"allowance"`
}

// BalanceOfRequest reads a balance. An empty Account means the caller.
type BalanceOfRequest struct {
	Account string `json:"account,omitempty"`
}

type BalanceOfResponse struct {
	Account   string `json:"account"`
	Balance   string `json:"balance"`
	Allowance string `json:"allowance"`
}

// FaucetRequest mints test tokens to the caller. An empty Amount uses the
// server's default.
type FaucetRequest struct {
	Amount string `json:"amount,omitempty"`
}

type FaucetResponse struct {
	Balance string `json:"balance"`
}
