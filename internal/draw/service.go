// Package draw implements the draw ledger: the per-draw state machine,
// tier registry, fund accounting and the randomness-driven resolution
// engine.
package draw

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	domain "github.com/R3E-Network/luckydraw/internal/domain/draw"
	"github.com/R3E-Network/luckydraw/internal/events"
	"github.com/R3E-Network/luckydraw/internal/metrics"
	"github.com/R3E-Network/luckydraw/internal/storage"
	"github.com/R3E-Network/luckydraw/internal/token"
	"github.com/R3E-Network/luckydraw/internal/vrf"
	"github.com/R3E-Network/luckydraw/pkg/logger"
)

// Service owns all draw state mutation. Every public operation executes
// as an atomic, serialized unit: a single mutex orders independently
// submitted calls, including asynchronous randomness deliveries.
type Service struct {
	mu sync.Mutex

	owner  string
	paused bool

	store  storage.DrawStore
	tokens token.Client
	vrf    vrf.Coordinator
	cfg    vrf.Config

	events events.Sink
	log    *logger.Logger
}

// New constructs the draw service and subscribes it to the randomness
// coordinator. The owner address is the only principal allowed to call
// admin operations.
func New(owner string, store storage.DrawStore, tokens token.Client, coordinator vrf.Coordinator, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("draw")
	}
	s := &Service{
		owner:  strings.ToLower(owner),
		store:  store,
		tokens: tokens,
		vrf:    coordinator,
		events: events.Discard,
		log:    log,
	}
	coordinator.Subscribe(s.OnRandomnessDelivered)
	return s
}

// WithEvents sets the audit event sink.
func (s *Service) WithEvents(sink events.Sink) {
	if sink != nil {
		s.events = sink
	}
}

// WithRandomnessConfig sets the initial oracle request configuration.
func (s *Service) WithRandomnessConfig(cfg vrf.Config) {
	s.cfg = cfg
}

func (s *Service) requireOwner(caller string) error {
	if strings.ToLower(caller) != s.owner {
		return ErrNotOwner
	}
	return nil
}

func (s *Service) emit(ctx context.Context, ev events.Event) {
	if err := s.events.Emit(ctx, ev); err != nil {
		s.log.WithError(err).WithField("event", ev.Type).Warn("failed to emit event")
	}
}

func (s *Service) getDraw(ctx context.Context, id uint64) (domain.Draw, error) {
	d, err := s.store.GetDraw(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Draw{}, fmt.Errorf("draw %d: %w", id, ErrDrawNotFound)
		}
		return domain.Draw{}, fmt.Errorf("get draw %d: %w", id, err)
	}
	return d, nil
}

// CreateDraw allocates a new draw in Open state with an empty tier list.
func (s *Service) CreateDraw(ctx context.Context, caller, tok string) (domain.Draw, error) {
	if err := s.requireOwner(caller); err != nil {
		return domain.Draw{}, err
	}
	if strings.TrimSpace(tok) == "" {
		return domain.Draw{}, ErrInvalidToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.store.CreateDraw(ctx, domain.Draw{
		Token:            strings.ToLower(tok),
		Status:           domain.StatusOpen,
		FundedAmount:     new(big.Int),
		TotalDistributed: new(big.Int),
		DefaultPrize:     new(big.Int),
	})
	if err != nil {
		return domain.Draw{}, fmt.Errorf("create draw: %w", err)
	}

	s.log.WithField("draw_id", created.ID).WithField("token", created.Token).Info("draw created")
	s.emit(ctx, events.New(events.TypeDrawCreated, map[string]any{
		"draw_id": created.ID,
		"token":   created.Token,
	}))
	metrics.DrawCreated()

	return created, nil
}

// SetTiers atomically replaces the draw's ordered tier list. The previous
// list is left untouched on any validation failure.
func (s *Service) SetTiers(ctx context.Context, caller string, drawID uint64, inputs []domain.TierInput) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.getDraw(ctx, drawID)
	if err != nil {
		return err
	}
	if d.Status != domain.StatusOpen {
		return fmt.Errorf("draw %d: %w", drawID, ErrDrawNotOpen)
	}

	tiers := make([]domain.Tier, 0, len(inputs))
	var total uint64
	for i, in := range inputs {
		if in.PrizeAmount == nil || in.PrizeAmount.Sign() <= 0 {
			return fmt.Errorf("tier %d: %w", i, ErrInvalidTierConfig)
		}
		total += uint64(in.WinProbability)
		if total > domain.BasisPoints {
			return fmt.Errorf("tier %d: %w", i, ErrProbabilityExceedsMax)
		}
		tiers = append(tiers, domain.Tier{
			PrizeAmount:    domain.CloneAmount(in.PrizeAmount),
			WinProbability: in.WinProbability,
			TotalPaid:      new(big.Int),
		})
	}

	d.Tiers = tiers
	if _, err := s.store.UpdateDraw(ctx, d); err != nil {
		return fmt.Errorf("update draw %d: %w", drawID, err)
	}

	s.log.WithField("draw_id", drawID).WithField("tier_count", len(tiers)).Info("tiers configured")
	s.emit(ctx, events.New(events.TypeTiersConfigured, map[string]any{
		"draw_id":    drawID,
		"tier_count": len(tiers),
	}))

	return nil
}

// SetDefaultPrize sets the consolation prize paid when a random value
// falls outside every tier band. Zero disables it.
func (s *Service) SetDefaultPrize(ctx context.Context, caller string, drawID uint64, amount *big.Int) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.getDraw(ctx, drawID)
	if err != nil {
		return err
	}
	if d.Status != domain.StatusOpen {
		return fmt.Errorf("draw %d: %w", drawID, ErrDrawNotOpen)
	}

	d.DefaultPrize = domain.CloneAmount(amount)
	if _, err := s.store.UpdateDraw(ctx, d); err != nil {
		return fmt.Errorf("update draw %d: %w", drawID, err)
	}

	s.emit(ctx, events.New(events.TypeDefaultPrizeConfigured, map[string]any{
		"draw_id": drawID,
		"amount":  amount.String(),
	}))

	return nil
}

// FundDraw pulls tokens from the caller into custody and credits the
// draw's prize pool.
func (s *Service) FundDraw(ctx context.Context, caller string, drawID uint64, amount *big.Int) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.getDraw(ctx, drawID)
	if err != nil {
		return err
	}
	if d.Status == domain.StatusCancelled {
		return fmt.Errorf("draw %d: %w", drawID, ErrDrawCancelled)
	}

	if err := s.tokens.TransferFrom(ctx, d.Token, caller, amount); err != nil {
		return fmt.Errorf("fund draw %d: %w", drawID, err)
	}

	d.FundedAmount.Add(d.FundedAmount, amount)
	if _, err := s.store.UpdateDraw(ctx, d); err != nil {
		return fmt.Errorf("update draw %d: %w", drawID, err)
	}

	s.log.WithField("draw_id", drawID).
		WithField("amount", amount.String()).
		WithField("funded_amount", d.FundedAmount.String()).
		Info("draw funded")
	s.emit(ctx, events.New(events.TypeDrawFunded, map[string]any{
		"draw_id":       drawID,
		"amount":        amount.String(),
		"funded_amount": d.FundedAmount.String(),
	}))

	return nil
}

// CloseDraw ends a draw normally. New entries are rejected; outstanding
// randomness deliveries still resolve and pay.
func (s *Service) CloseDraw(ctx context.Context, caller string, drawID uint64) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.getDraw(ctx, drawID)
	if err != nil {
		return err
	}
	if d.Status != domain.StatusOpen {
		return fmt.Errorf("draw %d: %w", drawID, ErrDrawNotOpen)
	}

	d.Status = domain.StatusClosed
	if _, err := s.store.UpdateDraw(ctx, d); err != nil {
		return fmt.Errorf("update draw %d: %w", drawID, err)
	}

	s.log.WithField("draw_id", drawID).Info("draw closed")
	s.emit(ctx, events.New(events.TypeDrawClosed, map[string]any{"draw_id": drawID}))

	return nil
}

// CancelDraw terminates a draw, refunds the undistributed pool to the
// owner and blocks all future entries. Outstanding randomness deliveries
// are absorbed with a zero payout.
func (s *Service) CancelDraw(ctx context.Context, caller string, drawID uint64) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.getDraw(ctx, drawID)
	if err != nil {
		return err
	}
	if d.Status == domain.StatusCancelled {
		return fmt.Errorf("draw %d: %w", drawID, ErrDrawCancelled)
	}

	leftover := d.AvailableFunds()
	if leftover.Sign() > 0 {
		if err := s.tokens.Transfer(ctx, d.Token, s.owner, leftover); err != nil {
			return fmt.Errorf("refund draw %d: %w", drawID, err)
		}
		d.FundedAmount.Sub(d.FundedAmount, leftover)
	}

	d.Status = domain.StatusCancelled
	if _, err := s.store.UpdateDraw(ctx, d); err != nil {
		return fmt.Errorf("update draw %d: %w", drawID, err)
	}

	s.log.WithField("draw_id", drawID).WithField("refunded", leftover.String()).Info("draw cancelled")
	s.emit(ctx, events.New(events.TypeDrawCancelled, map[string]any{
		"draw_id":  drawID,
		"refunded": leftover.String(),
	}))

	return nil
}

// WithdrawLeftover transfers the undistributed pool of a closed draw to
// the recipient. A second call withdraws zero without error.
func (s *Service) WithdrawLeftover(ctx context.Context, caller string, drawID uint64, recipient string) (*big.Int, error) {
	if err := s.requireOwner(caller); err != nil {
		return nil, err
	}
	if strings.TrimSpace(recipient) == "" {
		return nil, ErrInvalidRecipient
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.getDraw(ctx, drawID)
	if err != nil {
		return nil, err
	}
	if d.Status != domain.StatusClosed {
		return nil, fmt.Errorf("draw %d: %w", drawID, ErrDrawNotClosed)
	}

	leftover := d.AvailableFunds()
	if leftover.Sign() == 0 {
		return new(big.Int), nil
	}

	if err := s.tokens.Transfer(ctx, d.Token, recipient, leftover); err != nil {
		return nil, fmt.Errorf("withdraw draw %d: %w", drawID, err)
	}

	d.FundedAmount.Sub(d.FundedAmount, leftover)
	if _, err := s.store.UpdateDraw(ctx, d); err != nil {
		return nil, fmt.Errorf("update draw %d: %w", drawID, err)
	}

	s.log.WithField("draw_id", drawID).
		WithField("recipient", recipient).
		WithField("amount", leftover.String()).
		Info("leftover withdrawn")
	s.emit(ctx, events.New(events.TypeLeftoverWithdrawn, map[string]any{
		"draw_id":   drawID,
		"recipient": recipient,
		"amount":    leftover.String(),
	}))

	return leftover, nil
}

// SetWhitelist updates a single address's whitelist state.
func (s *Service) SetWhitelist(ctx context.Context, caller, address string, allowed bool) error {
	return s.SetWhitelistBatch(ctx, caller, []string{address}, allowed)
}

// SetWhitelistBatch updates several addresses at once; one change record
// is emitted per address.
func (s *Service) SetWhitelistBatch(ctx context.Context, caller string, addresses []string, allowed bool) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lowered := make([]string, len(addresses))
	for i, address := range addresses {
		address = strings.ToLower(strings.TrimSpace(address))
		if address == "" {
			return ErrInvalidRecipient
		}
		lowered[i] = address
	}

	// Single store call, so a failure persists none of the batch.
	if err := s.store.SetWhitelistedBatch(ctx, lowered, allowed); err != nil {
		return fmt.Errorf("set whitelist batch: %w", err)
	}

	for _, address := range lowered {
		s.emit(ctx, events.New(events.TypeWhitelistUpdated, map[string]any{
			"address": address,
			"allowed": allowed,
		}))
	}

	s.log.WithField("count", len(addresses)).WithField("allowed", allowed).Info("whitelist updated")
	return nil
}

// Pause halts entry acceptance. Admin configuration and withdrawal stay
// available so fund recovery is never frozen.
func (s *Service) Pause(ctx context.Context, caller string) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	s.log.Info("entries paused")
	return nil
}

// Unpause resumes entry acceptance.
func (s *Service) Unpause(ctx context.Context, caller string) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	s.log.Info("entries resumed")
	return nil
}

// UpdateRandomnessConfig replaces the oracle request configuration used
// for subsequent entries.
func (s *Service) UpdateRandomnessConfig(ctx context.Context, caller string, cfg vrf.Config) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg = cfg
	s.emit(ctx, events.New(events.TypeVRFConfigUpdated, map[string]any{
		"subscription_id":       cfg.SubscriptionID,
		"key_hash":              cfg.KeyHash,
		"callback_gas_limit":    cfg.CallbackGasLimit,
		"request_confirmations": cfg.RequestConfirmations,
		"native_payment":        cfg.NativePayment,
	}))
	return nil
}
