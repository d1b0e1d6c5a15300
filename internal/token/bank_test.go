package token

import (
	"context"
	"errors"
	"math/big"
	"testing"
)

func TestBank_TransferFrom(t *testing.T) {
	ctx := context.Background()
	bank := NewBank("custody")

	bank.Mint("0xtoken", "0xowner", big.NewInt(1000))

	t.Run("RequiresAllowance", func(t *testing.T) {
		err := bank.TransferFrom(ctx, "0xtoken", "0xowner", big.NewInt(100))
		if !errors.Is(err, ErrInsufficientAllowance) {
			t.Errorf("error = %v, want ErrInsufficientAllowance", err)
		}
	})

	bank.Approve("0xtoken", "0xowner", big.NewInt(500))

	t.Run("MovesIntoCustody", func(t *testing.T) {
		if err := bank.TransferFrom(ctx, "0xtoken", "0xowner", big.NewInt(300)); err != nil {
			t.Fatalf("TransferFrom failed: %v", err)
		}
		custody, _ := bank.BalanceOf(ctx, "0xtoken", "custody")
		owner, _ := bank.BalanceOf(ctx, "0xtoken", "0xowner")
		if custody.Int64() != 300 || owner.Int64() != 700 {
			t.Errorf("balances = custody %s, owner %s; want 300 and 700", custody, owner)
		}
	})

	t.Run("AllowanceDecreases", func(t *testing.T) {
		err := bank.TransferFrom(ctx, "0xtoken", "0xowner", big.NewInt(300))
		if !errors.Is(err, ErrInsufficientAllowance) {
			t.Errorf("error = %v, want ErrInsufficientAllowance after spend", err)
		}
	})

	t.Run("RequiresBalance", func(t *testing.T) {
		bank.Approve("0xtoken", "0xpoor", big.NewInt(1000))
		err := bank.TransferFrom(ctx, "0xtoken", "0xpoor", big.NewInt(1))
		if !errors.Is(err, ErrInsufficientBalance) {
			t.Errorf("error = %v, want ErrInsufficientBalance", err)
		}
	})
}

func TestBank_Transfer(t *testing.T) {
	ctx := context.Background()
	bank := NewBank("custody")
	bank.Mint("0xtoken", "custody", big.NewInt(50))

	if err := bank.Transfer(ctx, "0xtoken", "0xalice", big.NewInt(30)); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	alice, _ := bank.BalanceOf(ctx, "0xtoken", "0xAlice")
	if alice.Int64() != 30 {
		t.Errorf("recipient balance = %s, want 30", alice)
	}

	err := bank.Transfer(ctx, "0xtoken", "0xalice", big.NewInt(100))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("error = %v, want ErrInsufficientBalance", err)
	}
}
