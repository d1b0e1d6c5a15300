// Package draw defines the core data model for whitelisted, tiered prize
// draws funded in a fungible token.
package draw

import (
	"math/big"
	"time"
)

// Status represents the lifecycle state of a draw.
type Status string

const (
	StatusOpen      Status = "open"
	StatusClosed    Status = "closed"
	StatusCancelled Status = "cancelled"
)

// BasisPoints is the probability space a random value is reduced into.
// A tier with WinProbability 500 wins 5% of the time.
const BasisPoints = 10000

// TierIndexNone marks a result that fell outside every configured tier band
// and resolved to the default prize (or nothing).
const TierIndexNone = -1

// Draw is one instance of the lottery with its own funding, tiers and
// participant set. Amounts are opaque integers in the token's smallest unit.
type Draw struct {
	ID               uint64    `json:"id"`
	Token            string    `json:"token"`
	Status           Status    `json:"status"`
	FundedAmount     *big.Int  `json:"funded_amount"`
	TotalDistributed *big.Int  `json:"total_distributed"`
	EntrantCount     uint64    `json:"entrant_count"`
	ResolvedCount    uint64    `json:"resolved_count"`
	Tiers            []Tier    `json:"tiers"`
	DefaultPrize     *big.Int  `json:"default_prize"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Tier is a fixed-prize, fixed-probability prize band. Tiers are ordered by
// insertion index; index 0 is the jackpot slot by convention.
type Tier struct {
	PrizeAmount    *big.Int `json:"prize_amount"`
	WinProbability uint32   `json:"win_probability"`
	WinnersCount   uint64   `json:"winners_count"`
	TotalPaid      *big.Int `json:"total_paid"`
}

// TierInput is the operator-supplied definition of a tier.
type TierInput struct {
	PrizeAmount    *big.Int `json:"prize_amount"`
	WinProbability uint32   `json:"win_probability"`
}

// UserResult tracks one participant's entry in a draw. At most one exists
// per (draw, participant); once HasResult is set it never changes.
type UserResult struct {
	DrawID      uint64    `json:"draw_id"`
	Participant string    `json:"participant"`
	HasEntered  bool      `json:"has_entered"`
	HasResult   bool      `json:"has_result"`
	TierIndex   int       `json:"tier_index"`
	PrizeAmount *big.Int  `json:"prize_amount"`
	RequestID   uint64    `json:"request_id"`
	EnteredAt   time.Time `json:"entered_at"`
	ResolvedAt  time.Time `json:"resolved_at"`
}

// PendingRequest correlates an outstanding randomness request with the
// entry that issued it. Removed once resolved; request ids are never reused.
type PendingRequest struct {
	RequestID   uint64    `json:"request_id"`
	DrawID      uint64    `json:"draw_id"`
	Participant string    `json:"participant"`
	CreatedAt   time.Time `json:"created_at"`
}

// TotalProbability returns the summed win probability of the tiers, in
// basis points.
func TotalProbability(tiers []Tier) uint64 {
	var total uint64
	for _, t := range tiers {
		total += uint64(t.WinProbability)
	}
	return total
}

// AvailableFunds returns fundedAmount - totalDistributed. Never negative
// while the solvency invariant holds.
func (d Draw) AvailableFunds() *big.Int {
	return new(big.Int).Sub(d.FundedAmount, d.TotalDistributed)
}

// Clone returns a deep copy so callers cannot alias the draw's amounts.
func (d Draw) Clone() Draw {
	out := d
	out.FundedAmount = CloneAmount(d.FundedAmount)
	out.TotalDistributed = CloneAmount(d.TotalDistributed)
	out.DefaultPrize = CloneAmount(d.DefaultPrize)
	out.Tiers = make([]Tier, len(d.Tiers))
	for i, t := range d.Tiers {
		t.PrizeAmount = CloneAmount(t.PrizeAmount)
		t.TotalPaid = CloneAmount(t.TotalPaid)
		out.Tiers[i] = t
	}
	return out
}

// Clone returns a deep copy of the result.
func (r UserResult) Clone() UserResult {
	out := r
	out.PrizeAmount = CloneAmount(r.PrizeAmount)
	return out
}

// CloneAmount copies a big integer amount, mapping nil to zero.
func CloneAmount(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(x)
}
