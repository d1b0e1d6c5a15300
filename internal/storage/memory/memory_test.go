package memory

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/R3E-Network/luckydraw/internal/domain/draw"
	"github.com/R3E-Network/luckydraw/internal/storage"
)

func TestStore_DrawLifecycle(t *testing.T) {
	ctx := context.Background()
	store := New()

	first, err := store.CreateDraw(ctx, draw.Draw{
		Token:            "0xtoken",
		Status:           draw.StatusOpen,
		FundedAmount:     new(big.Int),
		TotalDistributed: new(big.Int),
		DefaultPrize:     new(big.Int),
	})
	if err != nil {
		t.Fatalf("CreateDraw failed: %v", err)
	}
	if first.ID != 0 {
		t.Errorf("first draw id = %d, want 0", first.ID)
	}

	second, _ := store.CreateDraw(ctx, draw.Draw{Status: draw.StatusOpen})
	if second.ID != 1 {
		t.Errorf("second draw id = %d, want 1", second.ID)
	}

	next, _ := store.NextDrawID(ctx)
	if next != 2 {
		t.Errorf("next draw id = %d, want 2", next)
	}

	first.Status = draw.StatusClosed
	if _, err := store.UpdateDraw(ctx, first); err != nil {
		t.Fatalf("UpdateDraw failed: %v", err)
	}
	got, err := store.GetDraw(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetDraw failed: %v", err)
	}
	if got.Status != draw.StatusClosed {
		t.Errorf("status = %s, want closed", got.Status)
	}

	draws, _ := store.ListDraws(ctx)
	if len(draws) != 2 || draws[0].ID != 0 || draws[1].ID != 1 {
		t.Errorf("ListDraws = %+v, want ids 0 and 1 in order", draws)
	}
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := New()

	if _, err := store.GetDraw(ctx, 42); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetDraw error = %v, want ErrNotFound", err)
	}
	if _, err := store.UpdateDraw(ctx, draw.Draw{ID: 42}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateDraw error = %v, want ErrNotFound", err)
	}
	if _, err := store.GetUserResult(ctx, 0, "0xalice"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetUserResult error = %v, want ErrNotFound", err)
	}
	if _, err := store.GetPendingRequest(ctx, 7); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetPendingRequest error = %v, want ErrNotFound", err)
	}
	if err := store.DeletePendingRequest(ctx, 7); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeletePendingRequest error = %v, want ErrNotFound", err)
	}
}

func TestStore_UserResults(t *testing.T) {
	ctx := context.Background()
	store := New()

	result := draw.UserResult{
		DrawID:      3,
		Participant: "0xAlice",
		HasEntered:  true,
		TierIndex:   draw.TierIndexNone,
		PrizeAmount: new(big.Int),
		EnteredAt:   time.Now().UTC(),
	}
	if err := store.PutUserResult(ctx, result); err != nil {
		t.Fatalf("PutUserResult failed: %v", err)
	}

	// Lookups are case-insensitive on the participant address.
	got, err := store.GetUserResult(ctx, 3, "0xALICE")
	if err != nil {
		t.Fatalf("GetUserResult failed: %v", err)
	}
	if !got.HasEntered {
		t.Error("stored result lost its entered flag")
	}

	// Mutating the returned copy must not leak into the store.
	got.PrizeAmount.SetInt64(999)
	again, _ := store.GetUserResult(ctx, 3, "0xalice")
	if again.PrizeAmount.Sign() != 0 {
		t.Errorf("stored prize mutated to %s", again.PrizeAmount)
	}

	list, _ := store.ListUserResults(ctx, 3)
	if len(list) != 1 {
		t.Errorf("ListUserResults = %d entries, want 1", len(list))
	}
}

func TestStore_PendingRequests(t *testing.T) {
	ctx := context.Background()
	store := New()

	p := draw.PendingRequest{RequestID: 9, DrawID: 1, Participant: "0xbob", CreatedAt: time.Now().UTC()}
	if err := store.PutPendingRequest(ctx, p); err != nil {
		t.Fatalf("PutPendingRequest failed: %v", err)
	}
	got, err := store.GetPendingRequest(ctx, 9)
	if err != nil {
		t.Fatalf("GetPendingRequest failed: %v", err)
	}
	if got.DrawID != 1 || got.Participant != "0xbob" {
		t.Errorf("pending request = %+v", got)
	}
	if err := store.DeletePendingRequest(ctx, 9); err != nil {
		t.Fatalf("DeletePendingRequest failed: %v", err)
	}
	if _, err := store.GetPendingRequest(ctx, 9); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("error after delete = %v, want ErrNotFound", err)
	}
}

func TestStore_Whitelist(t *testing.T) {
	ctx := context.Background()
	store := New()

	allowed, _ := store.IsWhitelisted(ctx, "0xalice")
	if allowed {
		t.Error("fresh store should not whitelist anyone")
	}

	if err := store.SetWhitelisted(ctx, "0xAlice", true); err != nil {
		t.Fatalf("SetWhitelisted failed: %v", err)
	}
	allowed, _ = store.IsWhitelisted(ctx, "0xALICE")
	if !allowed {
		t.Error("whitelist lookup should be case-insensitive")
	}

	if err := store.SetWhitelisted(ctx, "0xalice", false); err != nil {
		t.Fatalf("SetWhitelisted failed: %v", err)
	}
	allowed, _ = store.IsWhitelisted(ctx, "0xalice")
	if allowed {
		t.Error("revoked address should not be whitelisted")
	}

	if err := store.SetWhitelistedBatch(ctx, []string{"0xAlice", "0xBob"}, true); err != nil {
		t.Fatalf("SetWhitelistedBatch failed: %v", err)
	}
	for _, addr := range []string{"0xalice", "0xbob"} {
		if allowed, _ := store.IsWhitelisted(ctx, addr); !allowed {
			t.Errorf("IsWhitelisted(%s) = false after batch allow", addr)
		}
	}
}
