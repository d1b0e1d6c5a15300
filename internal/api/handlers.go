package api

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	domain "github.com/R3E-Network/luckydraw/internal/domain/draw"
	"github.com/R3E-Network/luckydraw/internal/httputil"
	"github.com/R3E-Network/luckydraw/internal/vrf"
)

func drawID(r *http.Request) (uint64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	return id, err == nil
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	nextID, err := a.svc.NextDrawID(r.Context())
	if err != nil {
		httputil.InternalError(w, "failed to load status")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"owner":        a.svc.Owner(),
		"paused":       a.svc.Paused(),
		"next_draw_id": nextID,
		"vrf_config":   a.svc.RandomnessConfig(),
	})
}

func (a *API) handleListDraws(w http.ResponseWriter, r *http.Request) {
	draws, err := a.svc.ListDraws(r.Context())
	if err != nil {
		httputil.InternalError(w, "failed to list draws")
		return
	}
	views := make([]drawView, len(draws))
	for i, d := range draws {
		views[i] = renderDraw(d)
	}
	httputil.WriteJSON(w, http.StatusOK, views)
}

func (a *API) handleGetDraw(w http.ResponseWriter, r *http.Request) {
	id, ok := drawID(r)
	if !ok {
		httputil.BadRequest(w, "invalid draw id")
		return
	}
	d, err := a.svc.GetDraw(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, renderDraw(d))
}

func (a *API) handleGetTiers(w http.ResponseWriter, r *http.Request) {
	id, ok := drawID(r)
	if !ok {
		httputil.BadRequest(w, "invalid draw id")
		return
	}
	d, err := a.svc.GetDraw(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	views := make([]tierView, len(d.Tiers))
	for i, t := range d.Tiers {
		views[i] = renderTier(i, t)
	}
	httputil.WriteJSON(w, http.StatusOK, views)
}

func (a *API) handleGetTier(w http.ResponseWriter, r *http.Request) {
	id, ok := drawID(r)
	if !ok {
		httputil.BadRequest(w, "invalid draw id")
		return
	}
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		httputil.BadRequest(w, "invalid tier index")
		return
	}
	tier, err := a.svc.GetTier(r.Context(), id, index)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, renderTier(index, tier))
}

func (a *API) handleGetFunds(w http.ResponseWriter, r *http.Request) {
	id, ok := drawID(r)
	if !ok {
		httputil.BadRequest(w, "invalid draw id")
		return
	}
	available, err := a.svc.AvailableFunds(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	maxPayout, err := a.svc.MaxPayout(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	expected, err := a.svc.ExpectedPayout(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	total, err := a.svc.TotalTierProbability(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"available_funds":        available.String(),
		"max_payout":             maxPayout.String(),
		"expected_payout":        expected.String(),
		"total_tier_probability": total,
	})
}

func (a *API) handleGetUserResult(w http.ResponseWriter, r *http.Request) {
	id, ok := drawID(r)
	if !ok {
		httputil.BadRequest(w, "invalid draw id")
		return
	}
	result, err := a.svc.GetUserResult(r.Context(), id, mux.Vars(r)["address"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, renderResult(result))
}

func (a *API) handleIsWhitelisted(w http.ResponseWriter, r *http.Request) {
	allowed, err := a.svc.IsWhitelisted(r.Context(), mux.Vars(r)["address"])
	if err != nil {
		httputil.InternalError(w, "failed to check whitelist")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"whitelisted": allowed})
}

func (a *API) handleCreateDraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := httputil.CallerAddress(w, r)
	if !ok {
		return
	}
	var input struct {
		Token string `json:"token"`
	}
	if !httputil.DecodeJSON(w, r, &input) {
		return
	}
	created, err := a.svc.CreateDraw(r.Context(), caller, input.Token)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, renderDraw(created))
}

func (a *API) handleSetTiers(w http.ResponseWriter, r *http.Request) {
	caller, ok := httputil.CallerAddress(w, r)
	if !ok {
		return
	}
	id, ok := drawID(r)
	if !ok {
		httputil.BadRequest(w, "invalid draw id")
		return
	}
	var input struct {
		Tiers []struct {
			PrizeAmount    string `json:"prize_amount"`
			WinProbability uint32 `json:"win_probability"`
		} `json:"tiers"`
	}
	if !httputil.DecodeJSON(w, r, &input) {
		return
	}
	tiers := make([]domain.TierInput, len(input.Tiers))
	for i, t := range input.Tiers {
		amount, ok := parseAmount(t.PrizeAmount)
		if !ok {
			httputil.BadRequest(w, "invalid tier prize amount")
			return
		}
		tiers[i] = domain.TierInput{PrizeAmount: amount, WinProbability: t.WinProbability}
	}
	if err := a.svc.SetTiers(r.Context(), caller, id, tiers); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"draw_id": id, "tier_count": len(tiers)})
}

func (a *API) handleSetDefaultPrize(w http.ResponseWriter, r *http.Request) {
	caller, ok := httputil.CallerAddress(w, r)
	if !ok {
		return
	}
	id, ok := drawID(r)
	if !ok {
		httputil.BadRequest(w, "invalid draw id")
		return
	}
	var input struct {
		Amount string `json:"amount"`
	}
	if !httputil.DecodeJSON(w, r, &input) {
		return
	}
	amount, okAmount := parseAmount(input.Amount)
	if !okAmount {
		httputil.BadRequest(w, "invalid amount")
		return
	}
	if err := a.svc.SetDefaultPrize(r.Context(), caller, id, amount); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"draw_id": id, "default_prize": amount.String()})
}

func (a *API) handleFundDraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := httputil.CallerAddress(w, r)
	if !ok {
		return
	}
	id, ok := drawID(r)
	if !ok {
		httputil.BadRequest(w, "invalid draw id")
		return
	}
	var input struct {
		Amount string `json:"amount"`
	}
	if !httputil.DecodeJSON(w, r, &input) {
		return
	}
	amount, okAmount := parseAmount(input.Amount)
	if !okAmount {
		httputil.BadRequest(w, "invalid amount")
		return
	}
	if err := a.svc.FundDraw(r.Context(), caller, id, amount); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"draw_id": id, "amount": amount.String()})
}

func (a *API) handleCloseDraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := httputil.CallerAddress(w, r)
	if !ok {
		return
	}
	id, ok := drawID(r)
	if !ok {
		httputil.BadRequest(w, "invalid draw id")
		return
	}
	if err := a.svc.CloseDraw(r.Context(), caller, id); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"draw_id": id, "status": "closed"})
}

func (a *API) handleCancelDraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := httputil.CallerAddress(w, r)
	if !ok {
		return
	}
	id, ok := drawID(r)
	if !ok {
		httputil.BadRequest(w, "invalid draw id")
		return
	}
	if err := a.svc.CancelDraw(r.Context(), caller, id); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"draw_id": id, "status": "cancelled"})
}

func (a *API) handleWithdrawLeftover(w http.ResponseWriter, r *http.Request) {
	caller, ok := httputil.CallerAddress(w, r)
	if !ok {
		return
	}
	id, ok := drawID(r)
	if !ok {
		httputil.BadRequest(w, "invalid draw id")
		return
	}
	var input struct {
		Recipient string `json:"recipient"`
	}
	if !httputil.DecodeJSON(w, r, &input) {
		return
	}
	amount, err := a.svc.WithdrawLeftover(r.Context(), caller, id, input.Recipient)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"draw_id": id, "amount": amount.String()})
}

func (a *API) handleEnter(w http.ResponseWriter, r *http.Request) {
	caller, ok := httputil.CallerAddress(w, r)
	if !ok {
		return
	}
	id, ok := drawID(r)
	if !ok {
		httputil.BadRequest(w, "invalid draw id")
		return
	}
	requestID, err := a.svc.Enter(r.Context(), caller, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]any{"draw_id": id, "request_id": requestID})
}

func (a *API) handleSetWhitelist(w http.ResponseWriter, r *http.Request) {
	caller, ok := httputil.CallerAddress(w, r)
	if !ok {
		return
	}
	var input struct {
		Addresses []string `json:"addresses"`
		Allowed   bool     `json:"allowed"`
	}
	if !httputil.DecodeJSON(w, r, &input) {
		return
	}
	if len(input.Addresses) == 0 {
		httputil.BadRequest(w, "addresses required")
		return
	}
	if err := a.svc.SetWhitelistBatch(r.Context(), caller, input.Addresses, input.Allowed); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"count": len(input.Addresses), "allowed": input.Allowed})
}

func (a *API) handlePause(w http.ResponseWriter, r *http.Request) {
	caller, ok := httputil.CallerAddress(w, r)
	if !ok {
		return
	}
	if err := a.svc.Pause(r.Context(), caller); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"paused": true})
}

func (a *API) handleUnpause(w http.ResponseWriter, r *http.Request) {
	caller, ok := httputil.CallerAddress(w, r)
	if !ok {
		return
	}
	if err := a.svc.Unpause(r.Context(), caller); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"paused": false})
}

func (a *API) handleUpdateVRFConfig(w http.ResponseWriter, r *http.Request) {
	caller, ok := httputil.CallerAddress(w, r)
	if !ok {
		return
	}
	var cfg vrf.Config
	if !httputil.DecodeJSON(w, r, &cfg) {
		return
	}
	if err := a.svc.UpdateRandomnessConfig(r.Context(), caller, cfg); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

// handleRandomnessDelivery accepts an out-of-process oracle callback.
func (a *API) handleRandomnessDelivery(w http.ResponseWriter, r *http.Request) {
	if _, ok := httputil.CallerAddress(w, r); !ok {
		return
	}
	var input struct {
		RequestID uint64 `json:"request_id"`
		Random    string `json:"random"`
	}
	if !httputil.DecodeJSON(w, r, &input) {
		return
	}
	random, ok := new(big.Int).SetString(input.Random, 10)
	if !ok {
		httputil.BadRequest(w, "invalid random value")
		return
	}
	if err := a.svc.OnRandomnessDelivered(r.Context(), input.RequestID, random); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"request_id": input.RequestID})
}
