// Package api exposes the draw ledger over HTTP for the operator
// dashboard and entry clients.
package api

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/R3E-Network/luckydraw/internal/draw"
	domain "github.com/R3E-Network/luckydraw/internal/domain/draw"
	"github.com/R3E-Network/luckydraw/internal/httputil"
	"github.com/R3E-Network/luckydraw/internal/metrics"
	"github.com/R3E-Network/luckydraw/internal/storage"
	"github.com/R3E-Network/luckydraw/pkg/logger"
)

// API wires the draw service to HTTP handlers.
type API struct {
	svc *draw.Service
	log *logger.Logger
}

// New constructs the API.
func New(svc *draw.Service, log *logger.Logger) *API {
	if log == nil {
		log = logger.NewDefault("api")
	}
	return &API{svc: svc, log: log}
}

// Router builds the HTTP routes. Mutating routes are wrapped with the
// given auth middleware; pass nil to skip authentication (tests and
// trusted local use).
func (a *API) Router(auth mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	read := r.PathPrefix("/v1").Subrouter()
	read.HandleFunc("/status", a.handleStatus).Methods(http.MethodGet)
	read.HandleFunc("/draws", a.handleListDraws).Methods(http.MethodGet)
	read.HandleFunc("/draws/{id:[0-9]+}", a.handleGetDraw).Methods(http.MethodGet)
	read.HandleFunc("/draws/{id:[0-9]+}/tiers", a.handleGetTiers).Methods(http.MethodGet)
	read.HandleFunc("/draws/{id:[0-9]+}/tiers/{index:[0-9]+}", a.handleGetTier).Methods(http.MethodGet)
	read.HandleFunc("/draws/{id:[0-9]+}/funds", a.handleGetFunds).Methods(http.MethodGet)
	read.HandleFunc("/draws/{id:[0-9]+}/results/{address}", a.handleGetUserResult).Methods(http.MethodGet)
	read.HandleFunc("/whitelist/{address}", a.handleIsWhitelisted).Methods(http.MethodGet)

	write := r.PathPrefix("/v1").Subrouter()
	if auth != nil {
		write.Use(auth)
	}
	write.HandleFunc("/draws", a.handleCreateDraw).Methods(http.MethodPost)
	write.HandleFunc("/draws/{id:[0-9]+}/tiers", a.handleSetTiers).Methods(http.MethodPut)
	write.HandleFunc("/draws/{id:[0-9]+}/default-prize", a.handleSetDefaultPrize).Methods(http.MethodPut)
	write.HandleFunc("/draws/{id:[0-9]+}/fund", a.handleFundDraw).Methods(http.MethodPost)
	write.HandleFunc("/draws/{id:[0-9]+}/close", a.handleCloseDraw).Methods(http.MethodPost)
	write.HandleFunc("/draws/{id:[0-9]+}/cancel", a.handleCancelDraw).Methods(http.MethodPost)
	write.HandleFunc("/draws/{id:[0-9]+}/withdraw", a.handleWithdrawLeftover).Methods(http.MethodPost)
	write.HandleFunc("/draws/{id:[0-9]+}/entries", a.handleEnter).Methods(http.MethodPost)
	write.HandleFunc("/whitelist", a.handleSetWhitelist).Methods(http.MethodPut)
	write.HandleFunc("/pause", a.handlePause).Methods(http.MethodPost)
	write.HandleFunc("/unpause", a.handleUnpause).Methods(http.MethodPost)
	write.HandleFunc("/vrf-config", a.handleUpdateVRFConfig).Methods(http.MethodPut)
	write.HandleFunc("/randomness", a.handleRandomnessDelivery).Methods(http.MethodPost)

	return r
}

// writeServiceError maps draw service errors onto HTTP status codes so
// admin tooling can branch on cause.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, draw.ErrNotOwner), errors.Is(err, draw.ErrNotWhitelisted):
		httputil.Forbidden(w, err.Error())
	case errors.Is(err, draw.ErrDrawNotFound), errors.Is(err, draw.ErrUnknownRequest),
		errors.Is(err, storage.ErrNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, draw.ErrPaused), errors.Is(err, draw.ErrDrawNotOpen),
		errors.Is(err, draw.ErrDrawNotClosed), errors.Is(err, draw.ErrDrawCancelled),
		errors.Is(err, draw.ErrAlreadyEntered), errors.Is(err, draw.ErrInsufficientFunds):
		httputil.Conflict(w, err.Error())
	case errors.Is(err, draw.ErrInvalidToken), errors.Is(err, draw.ErrInvalidAmount),
		errors.Is(err, draw.ErrInvalidRecipient), errors.Is(err, draw.ErrInvalidTierConfig),
		errors.Is(err, draw.ErrProbabilityExceedsMax):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.InternalError(w, "internal error")
	}
}

func parseAmount(raw string) (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(raw, 10)
	return amount, ok
}

type tierView struct {
	Index          int    `json:"index"`
	PrizeAmount    string `json:"prize_amount"`
	WinProbability uint32 `json:"win_probability"`
	WinnersCount   uint64 `json:"winners_count"`
	TotalPaid      string `json:"total_paid"`
}

type drawView struct {
	ID               uint64     `json:"id"`
	Token            string     `json:"token"`
	Status           string     `json:"status"`
	FundedAmount     string     `json:"funded_amount"`
	TotalDistributed string     `json:"total_distributed"`
	EntrantCount     uint64     `json:"entrant_count"`
	TierCount        int        `json:"tier_count"`
	DefaultPrize     string     `json:"default_prize"`
	Tiers            []tierView `json:"tiers"`
}

type resultView struct {
	DrawID      uint64 `json:"draw_id"`
	Participant string `json:"participant"`
	HasEntered  bool   `json:"has_entered"`
	HasResult   bool   `json:"has_result"`
	TierIndex   *int   `json:"tier_index"`
	PrizeAmount string `json:"prize_amount"`
	RequestID   uint64 `json:"request_id,omitempty"`
}

func renderTier(index int, t domain.Tier) tierView {
	return tierView{
		Index:          index,
		PrizeAmount:    t.PrizeAmount.String(),
		WinProbability: t.WinProbability,
		WinnersCount:   t.WinnersCount,
		TotalPaid:      t.TotalPaid.String(),
	}
}

func renderDraw(d domain.Draw) drawView {
	tiers := make([]tierView, len(d.Tiers))
	for i, t := range d.Tiers {
		tiers[i] = renderTier(i, t)
	}
	return drawView{
		ID:               d.ID,
		Token:            d.Token,
		Status:           string(d.Status),
		FundedAmount:     d.FundedAmount.String(),
		TotalDistributed: d.TotalDistributed.String(),
		EntrantCount:     d.EntrantCount,
		TierCount:        len(d.Tiers),
		DefaultPrize:     d.DefaultPrize.String(),
		Tiers:            tiers,
	}
}

func renderResult(r domain.UserResult) resultView {
	view := resultView{
		DrawID:      r.DrawID,
		Participant: r.Participant,
		HasEntered:  r.HasEntered,
		HasResult:   r.HasResult,
		PrizeAmount: r.PrizeAmount.String(),
		RequestID:   r.RequestID,
	}
	if r.HasResult && r.TierIndex != domain.TierIndexNone {
		index := r.TierIndex
		view.TierIndex = &index
	}
	return view
}
