// Package ledger exposes the owner configuration surface over the two mint
// adapters and hands the reward engine a stable pair of capabilities that
// survive re-authorization.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"vibegate/internal/ledger/badge"
	"vibegate/internal/ledger/token"
	"vibegate/pkg/domain"
)

// Manager holds the current capability handles for both adapters. It
// implements the reward engine's TokenMinter and BadgeMinter by delegating to
// whichever handles are currently authorized, so an owner re-authorization
// re-points the engine atomically.
type Manager struct {
	mu     sync.RWMutex
	owner  string
	tokens *token.Ledger
	badges *badge.Registry

	tokenMinter *token.Minter
	badgeMinter *badge.Minter
}

func NewManager(owner string, tokens *token.Ledger, badges *badge.Registry) *Manager {
	return &Manager{
		owner:  owner,
		tokens: tokens,
		badges: badges,
	}
}

// Bootstrap performs the one-time authority setup on both adapters. A failure
// here is fatal to deployment: the engine must never start half-authorized.
func (m *Manager) Bootstrap(authority string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokenMinter, err := m.tokens.Authorize(authority)
	if err != nil {
		return fmt.Errorf("authorize token ledger: %w", err)
	}
	badgeMinter, err := m.badges.Authorize(authority)
	if err != nil {
		return fmt.Errorf("authorize badge registry: %w", err)
	}

	m.tokenMinter = tokenMinter
	m.badgeMinter = badgeMinter
	return nil
}

// Reauthorize re-points both adapters at a new authority. Owner-only; the
// previous handles are revoked on both sides before the new ones take effect.
func (m *Manager) Reauthorize(owner, authority string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokenMinter, err := m.tokens.Reauthorize(owner, authority)
	if err != nil {
		return fmt.Errorf("reauthorize token ledger: %w", err)
	}
	badgeMinter, err := m.badges.Reauthorize(owner, authority)
	if err != nil {
		return fmt.Errorf("reauthorize badge registry: %w", err)
	}

	m.tokenMinter = tokenMinter
	m.badgeMinter = badgeMinter
	return nil
}

// Authority returns the identity currently holding the mint capabilities.
func (m *Manager) Authority() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tokenMinter == nil {
		return ""
	}
	return m.tokenMinter.Authority()
}

func (m *Manager) Credit(ctx context.Context, address domain.Address, amount uint64) error {
	m.mu.RLock()
	minter := m.tokenMinter
	m.mu.RUnlock()
	if minter == nil {
		return fmt.Errorf("token ledger not authorized")
	}
	return minter.Credit(ctx, address, amount)
}

func (m *Manager) Revert(ctx context.Context, address domain.Address, amount uint64) error {
	m.mu.RLock()
	minter := m.tokenMinter
	m.mu.RUnlock()
	if minter == nil {
		return fmt.Errorf("token ledger not authorized")
	}
	return minter.Revert(ctx, address, amount)
}

func (m *Manager) Mint(ctx context.Context, owner domain.Address, awardType domain.AwardType, description string) (domain.AssetID, error) {
	m.mu.RLock()
	minter := m.badgeMinter
	m.mu.RUnlock()
	if minter == nil {
		return domain.AssetID{}, fmt.Errorf("badge registry not authorized")
	}
	return minter.Mint(ctx, owner, awardType, description)
}

func (m *Manager) Burn(ctx context.Context, id domain.AssetID) error {
	m.mu.RLock()
	minter := m.badgeMinter
	m.mu.RUnlock()
	if minter == nil {
		return fmt.Errorf("badge registry not authorized")
	}
	return minter.Burn(ctx, id)
}
