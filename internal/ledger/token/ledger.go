// Package token is the fungible balance ledger's minting capability. A single
// authorized caller (the reward engine) holds a Minter handle; nothing else
// can move balances.
package token

import (
	"context"
	"sync"

	"vibegate/pkg/domain"
	"vibegate/pkg/platform/sentinel"
)

// Ledger tracks fungible balances. Balances only increase through the
// authorized Minter; there is no public decrease operation.
type Ledger struct {
	mu       sync.RWMutex
	owner    string
	balances map[domain.Address]uint64
	minter   *Minter
}

// NewLedger creates a ledger owned by the deploying authority. The owner can
// authorize and re-authorize the minting capability but cannot mint.
func NewLedger(owner string) *Ledger {
	return &Ledger{
		owner:    owner,
		balances: make(map[domain.Address]uint64),
	}
}

// Authorize issues the one-time minting capability. A second call fails with
// sentinel.ErrAlreadyConfigured; re-pointing requires Reauthorize.
func (l *Ledger) Authorize(authority string) (*Minter, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.minter != nil {
		return nil, sentinel.ErrAlreadyConfigured
	}
	l.minter = &Minter{ledger: l, authority: authority}
	return l.minter, nil
}

// Reauthorize replaces the minting capability. Owner-only; the previous
// handle is revoked and all further calls through it fail.
func (l *Ledger) Reauthorize(owner, authority string) (*Minter, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if owner != l.owner {
		return nil, sentinel.ErrInvalidState
	}
	l.minter = &Minter{ledger: l, authority: authority}
	return l.minter, nil
}

// Balance returns the current balance of an address.
func (l *Ledger) Balance(_ context.Context, address domain.Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[address]
}

// Minter is the capability handle held by the authorized caller. It becomes
// invalid when the owner re-authorizes a new one.
type Minter struct {
	ledger    *Ledger
	authority string
}

// Authority returns the identity the handle was issued to.
func (m *Minter) Authority() string { return m.authority }

// Credit increases the balance of an address.
func (m *Minter) Credit(_ context.Context, address domain.Address, amount uint64) error {
	m.ledger.mu.Lock()
	defer m.ledger.mu.Unlock()

	if m.ledger.minter != m {
		return sentinel.ErrInvalidState
	}
	m.ledger.balances[address] += amount
	return nil
}

// Revert reverses a prior Credit during dual-mint rollback. It exists only on
// the capability handle and is not part of any external contract.
func (m *Minter) Revert(_ context.Context, address domain.Address, amount uint64) error {
	m.ledger.mu.Lock()
	defer m.ledger.mu.Unlock()

	if m.ledger.minter != m {
		return sentinel.ErrInvalidState
	}
	if m.ledger.balances[address] < amount {
		return sentinel.ErrInvalidState
	}
	m.ledger.balances[address] -= amount
	return nil
}
