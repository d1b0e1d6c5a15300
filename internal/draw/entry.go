package draw

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	domain "github.com/R3E-Network/luckydraw/internal/domain/draw"
	"github.com/R3E-Network/luckydraw/internal/events"
	"github.com/R3E-Network/luckydraw/internal/metrics"
	"github.com/R3E-Network/luckydraw/internal/storage"
)

// Enter admits a whitelisted participant into an open draw. It issues a
// randomness request and returns the request id; the prize is resolved
// later, when the randomness is delivered.
func (s *Service) Enter(ctx context.Context, participant string, drawID uint64) (uint64, error) {
	participant = strings.ToLower(strings.TrimSpace(participant))
	if participant == "" {
		return 0, ErrInvalidRecipient
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused {
		return 0, ErrPaused
	}

	whitelisted, err := s.store.IsWhitelisted(ctx, participant)
	if err != nil {
		return 0, fmt.Errorf("check whitelist: %w", err)
	}
	if !whitelisted {
		return 0, ErrNotWhitelisted
	}

	d, err := s.getDraw(ctx, drawID)
	if err != nil {
		return 0, err
	}
	if d.Status != domain.StatusOpen {
		return 0, fmt.Errorf("draw %d: %w", drawID, ErrDrawNotOpen)
	}

	existing, err := s.store.GetUserResult(ctx, drawID, participant)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("check entry %d/%s: %w", drawID, participant, err)
	}
	if err == nil && existing.HasEntered {
		return 0, fmt.Errorf("draw %d participant %s: %w", drawID, participant, ErrAlreadyEntered)
	}

	requestID, err := s.vrf.RequestRandomness(ctx, s.cfg)
	if err != nil {
		return 0, fmt.Errorf("request randomness: %w", err)
	}

	now := time.Now().UTC()
	if err := s.store.PutPendingRequest(ctx, domain.PendingRequest{
		RequestID:   requestID,
		DrawID:      drawID,
		Participant: participant,
		CreatedAt:   now,
	}); err != nil {
		return 0, fmt.Errorf("record pending request: %w", err)
	}
	if err := s.store.PutUserResult(ctx, domain.UserResult{
		DrawID:      drawID,
		Participant: participant,
		HasEntered:  true,
		TierIndex:   domain.TierIndexNone,
		PrizeAmount: new(big.Int),
		RequestID:   requestID,
		EnteredAt:   now,
	}); err != nil {
		return 0, fmt.Errorf("record entry: %w", err)
	}

	d.EntrantCount++
	if _, err := s.store.UpdateDraw(ctx, d); err != nil {
		return 0, fmt.Errorf("update draw %d: %w", drawID, err)
	}

	s.log.WithField("draw_id", drawID).
		WithField("participant", participant).
		WithField("request_id", requestID).
		Info("entry requested")
	s.emit(ctx, events.New(events.TypeEntryRequested, map[string]any{
		"draw_id":     drawID,
		"participant": participant,
		"request_id":  requestID,
	}))
	metrics.EntryRequested()

	return requestID, nil
}

// OnRandomnessDelivered consumes one randomness delivery and resolves the
// originating entry exactly once. Unknown or replayed request ids fail
// loudly with ErrUnknownRequest and change nothing.
//
// A delivery for a closed draw still pays: the entry was counted while
// the draw was open. A delivery for a cancelled draw is absorbed with a
// zero payout, since the pool has been refunded but the participant's
// single entry slot is already consumed.
//
// When the pool cannot cover the resolved prize the delivery fails with
// ErrInsufficientFunds and the entry stays pending, so a redelivery after
// the operator funds the draw can complete it.
func (s *Service) OnRandomnessDelivered(ctx context.Context, requestID uint64, random *big.Int) error {
	if random == nil {
		return fmt.Errorf("request %d: nil random value", requestID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.store.GetPendingRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("request %d: %w", requestID, ErrUnknownRequest)
		}
		return fmt.Errorf("lookup request %d: %w", requestID, err)
	}

	d, err := s.getDraw(ctx, pending.DrawID)
	if err != nil {
		return err
	}
	result, err := s.store.GetUserResult(ctx, pending.DrawID, pending.Participant)
	if err != nil {
		return fmt.Errorf("lookup entry %d/%s: %w", pending.DrawID, pending.Participant, err)
	}
	if result.HasResult {
		return fmt.Errorf("request %d: %w", requestID, ErrUnknownRequest)
	}

	tierIndex, prize := Resolve(d.Tiers, d.DefaultPrize, random)

	if d.Status == domain.StatusCancelled {
		prize = new(big.Int)
	} else if prize.Sign() > 0 {
		needed := new(big.Int).Add(d.TotalDistributed, prize)
		if needed.Cmp(d.FundedAmount) > 0 {
			metrics.PayoutFailure()
			s.log.WithField("draw_id", d.ID).
				WithField("request_id", requestID).
				WithField("prize", prize.String()).
				WithField("available", d.AvailableFunds().String()).
				Error("payout exceeds available funds, entry left pending")
			return fmt.Errorf("draw %d prize %s: %w", d.ID, prize.String(), ErrInsufficientFunds)
		}
	}

	prevDraw := d.Clone()
	prevResult := result.Clone()

	if prize.Sign() > 0 {
		d.TotalDistributed.Add(d.TotalDistributed, prize)
		if tierIndex != domain.TierIndexNone {
			tier := &d.Tiers[tierIndex]
			tier.WinnersCount++
			tier.TotalPaid.Add(tier.TotalPaid, prize)
		}
	}

	result.HasResult = true
	result.TierIndex = tierIndex
	result.PrizeAmount = prize
	result.ResolvedAt = time.Now().UTC()
	d.ResolvedCount++

	// The resolution is persisted before any tokens move; if a later step
	// fails, the writes made so far are reverted and the request stays
	// pending, so the whole resolution runs again on redelivery instead
	// of paying the same prize twice.
	if err := s.store.PutUserResult(ctx, result); err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	if _, err := s.store.UpdateDraw(ctx, d); err != nil {
		s.revertResolution(ctx, pending, prevDraw, prevResult, false)
		return fmt.Errorf("update draw %d: %w", d.ID, err)
	}
	if err := s.store.DeletePendingRequest(ctx, requestID); err != nil {
		s.revertResolution(ctx, pending, prevDraw, prevResult, false)
		return fmt.Errorf("clear request %d: %w", requestID, err)
	}

	if prize.Sign() > 0 {
		if err := s.tokens.Transfer(ctx, d.Token, pending.Participant, prize); err != nil {
			s.revertResolution(ctx, pending, prevDraw, prevResult, true)
			return fmt.Errorf("pay prize for draw %d: %w", d.ID, err)
		}
	}

	s.log.WithField("draw_id", d.ID).
		WithField("participant", pending.Participant).
		WithField("tier_index", tierIndex).
		WithField("prize", prize.String()).
		Info("prize awarded")
	s.emit(ctx, events.New(events.TypePrizeAwarded, map[string]any{
		"draw_id":     d.ID,
		"participant": pending.Participant,
		"tier_index":  tierIndex,
		"amount":      prize.String(),
	}))
	metrics.PrizeAwarded(outcomeKind(tierIndex, prize))

	return nil
}

// revertResolution undoes the persisted resolution after a failure so a
// redelivery can resolve the entry again. Revert failures leave the
// store inconsistent and are logged for operator attention.
func (s *Service) revertResolution(ctx context.Context, pending domain.PendingRequest, d domain.Draw, result domain.UserResult, repend bool) {
	if err := s.store.PutUserResult(ctx, result); err != nil {
		s.log.WithError(err).WithField("draw_id", d.ID).Error("restore entry after failed resolution")
	}
	if _, err := s.store.UpdateDraw(ctx, d); err != nil {
		s.log.WithError(err).WithField("draw_id", d.ID).Error("restore draw after failed resolution")
	}
	if repend {
		if err := s.store.PutPendingRequest(ctx, pending); err != nil {
			s.log.WithError(err).WithField("request_id", pending.RequestID).Error("restore pending request after failed payout")
		}
	}
}

func outcomeKind(tierIndex int, prize *big.Int) string {
	switch {
	case tierIndex != domain.TierIndexNone:
		return "tier"
	case prize.Sign() > 0:
		return "default"
	default:
		return "none"
	}
}
