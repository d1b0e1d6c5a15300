// Package storage defines the persistence interfaces for the lucky draw
// service.
package storage

import (
	"context"
	"errors"

	"github.com/R3E-Network/luckydraw/internal/domain/draw"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// DrawStore persists draws, entries, pending randomness requests and the
// whitelist. Implementations serialize individual calls; cross-call
// atomicity is the service's responsibility.
type DrawStore interface {
	// Draw operations. CreateDraw assigns the next draw id; ids are
	// monotonically increasing and never reused.
	CreateDraw(ctx context.Context, d draw.Draw) (draw.Draw, error)
	GetDraw(ctx context.Context, id uint64) (draw.Draw, error)
	UpdateDraw(ctx context.Context, d draw.Draw) (draw.Draw, error)
	ListDraws(ctx context.Context) ([]draw.Draw, error)
	NextDrawID(ctx context.Context) (uint64, error)

	// Entry operations, keyed by (drawID, participant).
	GetUserResult(ctx context.Context, drawID uint64, participant string) (draw.UserResult, error)
	PutUserResult(ctx context.Context, r draw.UserResult) error
	ListUserResults(ctx context.Context, drawID uint64) ([]draw.UserResult, error)

	// Pending randomness requests, keyed by request id.
	PutPendingRequest(ctx context.Context, p draw.PendingRequest) error
	GetPendingRequest(ctx context.Context, requestID uint64) (draw.PendingRequest, error)
	DeletePendingRequest(ctx context.Context, requestID uint64) error

	// Whitelist operations, independent of any draw.
	SetWhitelisted(ctx context.Context, address string, allowed bool) error
	// SetWhitelistedBatch applies one allowed state to every address, all
	// or nothing.
	SetWhitelistedBatch(ctx context.Context, addresses []string, allowed bool) error
	IsWhitelisted(ctx context.Context, address string) (bool, error)
}
