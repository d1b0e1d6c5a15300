// Package token defines the fungible token boundary. The ledger never
// assumes a decimal precision; amounts are opaque integers in the token's
// smallest unit.
package token

import (
	"context"
	"errors"
	"math/big"
)

// Errors surfaced by token clients.
var (
	ErrInsufficientBalance   = errors.New("insufficient token balance")
	ErrInsufficientAllowance = errors.New("insufficient token allowance")
	ErrUnknownToken          = errors.New("unknown token")
)

// Client moves funds on behalf of the draw ledger's custody account, with
// ERC20-style semantics. TransferFrom pulls `amount` of `token` from
// `from` into custody (requires a prior approval); Transfer pays out of
// custody.
type Client interface {
	TransferFrom(ctx context.Context, token, from string, amount *big.Int) error
	Transfer(ctx context.Context, token, to string, amount *big.Int) error
	BalanceOf(ctx context.Context, token, account string) (*big.Int, error)
}
