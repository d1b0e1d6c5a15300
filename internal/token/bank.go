package token

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
)

// Bank is an in-memory token client for tests and single-process
// deployments. It tracks balances and allowances per token and acts on
// behalf of a single custody account.
type Bank struct {
	mu         sync.Mutex
	custody    string
	balances   map[string]map[string]*big.Int
	allowances map[string]map[string]map[string]*big.Int
}

var _ Client = (*Bank)(nil)

// NewBank creates a bank whose transfers act for the given custody account.
func NewBank(custody string) *Bank {
	return &Bank{
		custody:    strings.ToLower(custody),
		balances:   make(map[string]map[string]*big.Int),
		allowances: make(map[string]map[string]map[string]*big.Int),
	}
}

func (b *Bank) balance(token, account string) *big.Int {
	accounts, ok := b.balances[token]
	if !ok {
		accounts = make(map[string]*big.Int)
		b.balances[token] = accounts
	}
	bal, ok := accounts[account]
	if !ok {
		bal = new(big.Int)
		accounts[account] = bal
	}
	return bal
}

func (b *Bank) allowance(token, owner, spender string) *big.Int {
	owners, ok := b.allowances[token]
	if !ok {
		owners = make(map[string]map[string]*big.Int)
		b.allowances[token] = owners
	}
	spenders, ok := owners[owner]
	if !ok {
		spenders = make(map[string]*big.Int)
		owners[owner] = spenders
	}
	allowed, ok := spenders[spender]
	if !ok {
		allowed = new(big.Int)
		spenders[spender] = allowed
	}
	return allowed
}

// Mint credits an account. Test and bootstrap helper.
func (b *Bank) Mint(token, account string, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bal := b.balance(strings.ToLower(token), strings.ToLower(account))
	bal.Add(bal, amount)
}

// Approve lets the custody account spend up to amount of owner's tokens.
func (b *Bank) Approve(token, owner string, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allowance(strings.ToLower(token), strings.ToLower(owner), b.custody).Set(amount)
}

func (b *Bank) TransferFrom(ctx context.Context, tok, from string, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tok = strings.ToLower(tok)
	from = strings.ToLower(from)

	allowed := b.allowance(tok, from, b.custody)
	if allowed.Cmp(amount) < 0 {
		return fmt.Errorf("token %s from %s: %w", tok, from, ErrInsufficientAllowance)
	}
	bal := b.balance(tok, from)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("token %s from %s: %w", tok, from, ErrInsufficientBalance)
	}
	allowed.Sub(allowed, amount)
	bal.Sub(bal, amount)
	custodyBal := b.balance(tok, b.custody)
	custodyBal.Add(custodyBal, amount)
	return nil
}

func (b *Bank) Transfer(ctx context.Context, tok, to string, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tok = strings.ToLower(tok)
	bal := b.balance(tok, b.custody)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("token %s custody: %w", tok, ErrInsufficientBalance)
	}
	bal.Sub(bal, amount)
	toBal := b.balance(tok, strings.ToLower(to))
	toBal.Add(toBal, amount)
	return nil
}

func (b *Bank) BalanceOf(ctx context.Context, tok, account string) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.balance(strings.ToLower(tok), strings.ToLower(account))), nil
}
