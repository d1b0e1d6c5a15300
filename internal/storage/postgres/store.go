// Package postgres implements storage.DrawStore backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/R3E-Network/luckydraw/internal/domain/draw"
	"github.com/R3E-Network/luckydraw/internal/storage"
)

// Store implements storage.DrawStore backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.DrawStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// tierRecord is the JSONB shape for a prize tier. Amounts are decimal
// strings so that values beyond int64 survive the round trip.
type tierRecord struct {
	PrizeAmount    string `json:"prize_amount"`
	WinProbability uint32 `json:"win_probability"`
	WinnersCount   uint64 `json:"winners_count"`
	TotalPaid      string `json:"total_paid"`
}

func encodeTiers(tiers []draw.Tier) ([]byte, error) {
	records := make([]tierRecord, len(tiers))
	for i, t := range tiers {
		records[i] = tierRecord{
			PrizeAmount:    amountString(t.PrizeAmount),
			WinProbability: t.WinProbability,
			WinnersCount:   t.WinnersCount,
			TotalPaid:      amountString(t.TotalPaid),
		}
	}
	return json.Marshal(records)
}

func decodeTiers(raw []byte) ([]draw.Tier, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var records []tierRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	tiers := make([]draw.Tier, len(records))
	for i, r := range records {
		prize, err := parseAmount(r.PrizeAmount)
		if err != nil {
			return nil, err
		}
		paid, err := parseAmount(r.TotalPaid)
		if err != nil {
			return nil, err
		}
		tiers[i] = draw.Tier{
			PrizeAmount:    prize,
			WinProbability: r.WinProbability,
			WinnersCount:   r.WinnersCount,
			TotalPaid:      paid,
		}
	}
	return tiers, nil
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseAmount(raw string) (*big.Int, error) {
	if raw == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return v, nil
}

// --- DrawStore --------------------------------------------------------------

func (s *Store) CreateDraw(ctx context.Context, d draw.Draw) (draw.Draw, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return draw.Draw{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		UPDATE draw_counter SET next_id = next_id + 1
		RETURNING next_id - 1
	`)
	if err := row.Scan(&d.ID); err != nil {
		return draw.Draw{}, err
	}

	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	tiersJSON, err := encodeTiers(d.Tiers)
	if err != nil {
		return draw.Draw{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO draws (id, token, status, funded_amount, total_distributed, default_prize,
			entrant_count, resolved_count, tiers, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, d.ID, d.Token, string(d.Status), amountString(d.FundedAmount), amountString(d.TotalDistributed),
		amountString(d.DefaultPrize), d.EntrantCount, d.ResolvedCount, tiersJSON, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return draw.Draw{}, err
	}

	if err := tx.Commit(); err != nil {
		return draw.Draw{}, err
	}
	return d, nil
}

func (s *Store) GetDraw(ctx context.Context, id uint64) (draw.Draw, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, token, status, funded_amount, total_distributed, default_prize,
			entrant_count, resolved_count, tiers, created_at, updated_at
		FROM draws
		WHERE id = $1
	`, id)
	d, err := scanDraw(row)
	if errors.Is(err, sql.ErrNoRows) {
		return draw.Draw{}, fmt.Errorf("draw %d: %w", id, storage.ErrNotFound)
	}
	return d, err
}

func (s *Store) UpdateDraw(ctx context.Context, d draw.Draw) (draw.Draw, error) {
	d.UpdatedAt = time.Now().UTC()

	tiersJSON, err := encodeTiers(d.Tiers)
	if err != nil {
		return draw.Draw{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE draws
		SET token = $2, status = $3, funded_amount = $4, total_distributed = $5,
			default_prize = $6, entrant_count = $7, resolved_count = $8, tiers = $9, updated_at = $10
		WHERE id = $1
	`, d.ID, d.Token, string(d.Status), amountString(d.FundedAmount), amountString(d.TotalDistributed),
		amountString(d.DefaultPrize), d.EntrantCount, d.ResolvedCount, tiersJSON, d.UpdatedAt)
	if err != nil {
		return draw.Draw{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return draw.Draw{}, fmt.Errorf("draw %d: %w", d.ID, storage.ErrNotFound)
	}
	return d, nil
}

func (s *Store) ListDraws(ctx context.Context) ([]draw.Draw, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, token, status, funded_amount, total_distributed, default_prize,
			entrant_count, resolved_count, tiers, created_at, updated_at
		FROM draws
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var draws []draw.Draw
	for rows.Next() {
		d, err := scanDraw(rows)
		if err != nil {
			return nil, err
		}
		draws = append(draws, d)
	}
	return draws, rows.Err()
}

func (s *Store) NextDrawID(ctx context.Context) (uint64, error) {
	var next uint64
	err := s.db.QueryRowContext(ctx, `SELECT next_id FROM draw_counter`).Scan(&next)
	return next, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDraw(row scanner) (draw.Draw, error) {
	var (
		d            draw.Draw
		status       string
		funded       string
		distributed  string
		defaultPrize string
		tiersRaw     []byte
	)
	err := row.Scan(&d.ID, &d.Token, &status, &funded, &distributed, &defaultPrize,
		&d.EntrantCount, &d.ResolvedCount, &tiersRaw, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return draw.Draw{}, err
	}

	d.Status = draw.Status(status)
	if d.FundedAmount, err = parseAmount(funded); err != nil {
		return draw.Draw{}, err
	}
	if d.TotalDistributed, err = parseAmount(distributed); err != nil {
		return draw.Draw{}, err
	}
	if d.DefaultPrize, err = parseAmount(defaultPrize); err != nil {
		return draw.Draw{}, err
	}
	if d.Tiers, err = decodeTiers(tiersRaw); err != nil {
		return draw.Draw{}, err
	}
	return d, nil
}

// --- user results -----------------------------------------------------------

func (s *Store) GetUserResult(ctx context.Context, drawID uint64, participant string) (draw.UserResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT draw_id, participant, has_entered, has_result, tier_index, prize_amount,
			request_id, entered_at, resolved_at
		FROM user_results
		WHERE draw_id = $1 AND participant = $2
	`, drawID, strings.ToLower(participant))

	var (
		r        draw.UserResult
		prize    string
		resolved sql.NullTime
	)
	err := row.Scan(&r.DrawID, &r.Participant, &r.HasEntered, &r.HasResult, &r.TierIndex,
		&prize, &r.RequestID, &r.EnteredAt, &resolved)
	if errors.Is(err, sql.ErrNoRows) {
		return draw.UserResult{}, fmt.Errorf("result %d/%s: %w", drawID, participant, storage.ErrNotFound)
	}
	if err != nil {
		return draw.UserResult{}, err
	}
	if r.PrizeAmount, err = parseAmount(prize); err != nil {
		return draw.UserResult{}, err
	}
	if resolved.Valid {
		r.ResolvedAt = resolved.Time
	}
	return r, nil
}

func (s *Store) PutUserResult(ctx context.Context, r draw.UserResult) error {
	var resolved sql.NullTime
	if !r.ResolvedAt.IsZero() {
		resolved = sql.NullTime{Time: r.ResolvedAt, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_results (draw_id, participant, has_entered, has_result, tier_index,
			prize_amount, request_id, entered_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (draw_id, participant) DO UPDATE
		SET has_entered = EXCLUDED.has_entered, has_result = EXCLUDED.has_result,
			tier_index = EXCLUDED.tier_index, prize_amount = EXCLUDED.prize_amount,
			request_id = EXCLUDED.request_id, entered_at = EXCLUDED.entered_at,
			resolved_at = EXCLUDED.resolved_at
	`, r.DrawID, strings.ToLower(r.Participant), r.HasEntered, r.HasResult, r.TierIndex,
		amountString(r.PrizeAmount), r.RequestID, r.EnteredAt, resolved)
	return err
}

func (s *Store) ListUserResults(ctx context.Context, drawID uint64) ([]draw.UserResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT draw_id, participant, has_entered, has_result, tier_index, prize_amount,
			request_id, entered_at, resolved_at
		FROM user_results
		WHERE draw_id = $1
		ORDER BY entered_at
	`, drawID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []draw.UserResult
	for rows.Next() {
		var (
			r        draw.UserResult
			prize    string
			resolved sql.NullTime
		)
		if err := rows.Scan(&r.DrawID, &r.Participant, &r.HasEntered, &r.HasResult, &r.TierIndex,
			&prize, &r.RequestID, &r.EnteredAt, &resolved); err != nil {
			return nil, err
		}
		if r.PrizeAmount, err = parseAmount(prize); err != nil {
			return nil, err
		}
		if resolved.Valid {
			r.ResolvedAt = resolved.Time
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// --- pending requests -------------------------------------------------------

func (s *Store) PutPendingRequest(ctx context.Context, p draw.PendingRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_requests (request_id, draw_id, participant, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (request_id) DO NOTHING
	`, p.RequestID, p.DrawID, strings.ToLower(p.Participant), p.CreatedAt)
	return err
}

func (s *Store) GetPendingRequest(ctx context.Context, requestID uint64) (draw.PendingRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT request_id, draw_id, participant, created_at
		FROM pending_requests
		WHERE request_id = $1
	`, requestID)

	var p draw.PendingRequest
	err := row.Scan(&p.RequestID, &p.DrawID, &p.Participant, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return draw.PendingRequest{}, fmt.Errorf("request %d: %w", requestID, storage.ErrNotFound)
	}
	return p, err
}

func (s *Store) DeletePendingRequest(ctx context.Context, requestID uint64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM pending_requests WHERE request_id = $1
	`, requestID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("request %d: %w", requestID, storage.ErrNotFound)
	}
	return nil
}

// --- whitelist --------------------------------------------------------------

func (s *Store) SetWhitelisted(ctx context.Context, address string, allowed bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO whitelist (address, allowed, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (address) DO UPDATE
		SET allowed = EXCLUDED.allowed, updated_at = EXCLUDED.updated_at
	`, strings.ToLower(address), allowed, time.Now().UTC())
	return err
}

func (s *Store) SetWhitelistedBatch(ctx context.Context, addresses []string, allowed bool) error {
	if len(addresses) == 0 {
		return nil
	}
	lowered := make([]string, len(addresses))
	for i, address := range addresses {
		lowered[i] = strings.ToLower(address)
	}
	// One statement so the batch commits or fails as a whole.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO whitelist (address, allowed, updated_at)
		SELECT addr, $2, $3 FROM unnest($1::text[]) AS addr
		ON CONFLICT (address) DO UPDATE
		SET allowed = EXCLUDED.allowed, updated_at = EXCLUDED.updated_at
	`, pq.Array(lowered), allowed, time.Now().UTC())
	return err
}

func (s *Store) IsWhitelisted(ctx context.Context, address string) (bool, error) {
	var allowed bool
	err := s.db.QueryRowContext(ctx, `
		SELECT allowed FROM whitelist WHERE address = $1
	`, strings.ToLower(address)).Scan(&allowed)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return allowed, err
}
