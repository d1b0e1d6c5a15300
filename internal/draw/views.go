package draw

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	domain "github.com/R3E-Network/luckydraw/internal/domain/draw"
	"github.com/R3E-Network/luckydraw/internal/storage"
	"github.com/R3E-Network/luckydraw/internal/vrf"
)

// GetDraw returns a draw by id.
func (s *Service) GetDraw(ctx context.Context, drawID uint64) (domain.Draw, error) {
	return s.getDraw(ctx, drawID)
}

// ListDraws returns all draws ordered by id.
func (s *Service) ListDraws(ctx context.Context) ([]domain.Draw, error) {
	return s.store.ListDraws(ctx)
}

// GetTier returns one tier of a draw by insertion index.
func (s *Service) GetTier(ctx context.Context, drawID uint64, index int) (domain.Tier, error) {
	d, err := s.getDraw(ctx, drawID)
	if err != nil {
		return domain.Tier{}, err
	}
	if index < 0 || index >= len(d.Tiers) {
		return domain.Tier{}, fmt.Errorf("draw %d tier %d: %w", drawID, index, storage.ErrNotFound)
	}
	return d.Tiers[index], nil
}

// GetTierCount returns the number of configured tiers.
func (s *Service) GetTierCount(ctx context.Context, drawID uint64) (int, error) {
	d, err := s.getDraw(ctx, drawID)
	if err != nil {
		return 0, err
	}
	return len(d.Tiers), nil
}

// TotalTierProbability returns the summed tier probability in basis
// points.
func (s *Service) TotalTierProbability(ctx context.Context, drawID uint64) (uint64, error) {
	d, err := s.getDraw(ctx, drawID)
	if err != nil {
		return 0, err
	}
	return domain.TotalProbability(d.Tiers), nil
}

// GetUserResult returns a participant's entry state. Participants who
// never entered get a zero-value result, matching the read surface of the
// ledger.
func (s *Service) GetUserResult(ctx context.Context, drawID uint64, participant string) (domain.UserResult, error) {
	r, err := s.store.GetUserResult(ctx, drawID, strings.ToLower(participant))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.UserResult{
				DrawID:      drawID,
				Participant: strings.ToLower(participant),
				TierIndex:   domain.TierIndexNone,
				PrizeAmount: new(big.Int),
			}, nil
		}
		return domain.UserResult{}, fmt.Errorf("get result: %w", err)
	}
	return r, nil
}

// IsWhitelisted reports whether an address may enter draws.
func (s *Service) IsWhitelisted(ctx context.Context, address string) (bool, error) {
	return s.store.IsWhitelisted(ctx, address)
}

// AvailableFunds returns fundedAmount - totalDistributed for a draw.
func (s *Service) AvailableFunds(ctx context.Context, drawID uint64) (*big.Int, error) {
	d, err := s.getDraw(ctx, drawID)
	if err != nil {
		return nil, err
	}
	return d.AvailableFunds(), nil
}

// MaxPayout is an advisory worst-case reserve projection: every entry
// still awaiting resolution wins the largest configured prize. It is not
// an enforced precondition for entry; solvency is checked at payout time.
func (s *Service) MaxPayout(ctx context.Context, drawID uint64) (*big.Int, error) {
	d, err := s.getDraw(ctx, drawID)
	if err != nil {
		return nil, err
	}

	maxPrize := domain.CloneAmount(d.DefaultPrize)
	for _, tier := range d.Tiers {
		if tier.PrizeAmount.Cmp(maxPrize) > 0 {
			maxPrize = domain.CloneAmount(tier.PrizeAmount)
		}
	}

	pending := new(big.Int).SetUint64(d.EntrantCount - d.ResolvedCount)
	return maxPrize.Mul(maxPrize, pending), nil
}

// ExpectedPayout is an advisory probability-weighted reserve projection
// for the entries still awaiting resolution, rounded down to the smallest
// token unit.
func (s *Service) ExpectedPayout(ctx context.Context, drawID uint64) (*big.Int, error) {
	d, err := s.getDraw(ctx, drawID)
	if err != nil {
		return nil, err
	}

	// Σ probability-weighted prizes plus the default prize over the
	// unallocated remainder, all in basis-point space.
	weighted := new(big.Int)
	var allocated uint64
	for _, tier := range d.Tiers {
		term := new(big.Int).Mul(tier.PrizeAmount, new(big.Int).SetUint64(uint64(tier.WinProbability)))
		weighted.Add(weighted, term)
		allocated += uint64(tier.WinProbability)
	}
	remainder := new(big.Int).SetUint64(domain.BasisPoints - allocated)
	weighted.Add(weighted, remainder.Mul(remainder, d.DefaultPrize))

	pending := new(big.Int).SetUint64(d.EntrantCount - d.ResolvedCount)
	weighted.Mul(weighted, pending)
	return weighted.Div(weighted, basisPoints), nil
}

// NextDrawID returns the id the next created draw will receive.
func (s *Service) NextDrawID(ctx context.Context) (uint64, error) {
	return s.store.NextDrawID(ctx)
}

// Owner returns the admin principal address.
func (s *Service) Owner() string {
	return s.owner
}

// Paused reports whether entry acceptance is halted.
func (s *Service) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// RandomnessConfig returns the oracle request configuration currently in
// effect.
func (s *Service) RandomnessConfig() vrf.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}
