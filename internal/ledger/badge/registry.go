// Package badge is the non-fungible asset registry's minting capability. Each
// mint creates one uniquely-identified asset carrying a trait bundle derived
// from the award type.
package badge

import (
	"context"
	"sync"
	"time"

	"vibegate/pkg/domain"
	"vibegate/pkg/platform/sentinel"
)

// Asset is one minted badge.
type Asset struct {
	ID          domain.AssetID
	Owner       domain.Address
	AwardType   domain.AwardType
	Tier        domain.TraitTier
	Description string
	MintedAt    time.Time
}

// Registry tracks badge ownership. Mutations flow only through the authorized
// Minter handle.
type Registry struct {
	mu      sync.RWMutex
	owner   string
	assets  map[domain.AssetID]Asset
	byOwner map[domain.Address][]domain.AssetID
	minter  *Minter
}

// NewRegistry creates a registry owned by the deploying authority.
func NewRegistry(owner string) *Registry {
	return &Registry{
		owner:   owner,
		assets:  make(map[domain.AssetID]Asset),
		byOwner: make(map[domain.Address][]domain.AssetID),
	}
}

// Authorize issues the one-time minting capability. A second call fails with
// sentinel.ErrAlreadyConfigured; re-pointing requires Reauthorize.
func (r *Registry) Authorize(authority string) (*Minter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.minter != nil {
		return nil, sentinel.ErrAlreadyConfigured
	}
	r.minter = &Minter{registry: r, authority: authority}
	return r.minter, nil
}

// Reauthorize replaces the minting capability. Owner-only; the previous
// handle is revoked.
func (r *Registry) Reauthorize(owner, authority string) (*Minter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner != r.owner {
		return nil, sentinel.ErrInvalidState
	}
	r.minter = &Minter{registry: r, authority: authority}
	return r.minter, nil
}

// OwnerOf returns the owner of an asset.
func (r *Registry) OwnerOf(_ context.Context, id domain.AssetID) (domain.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, ok := r.assets[id]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return asset.Owner, nil
}

// ListByOwner returns all assets held by an address.
func (r *Registry) ListByOwner(_ context.Context, owner domain.Address) []Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Asset, 0, len(r.byOwner[owner]))
	for _, id := range r.byOwner[owner] {
		out = append(out, r.assets[id])
	}
	return out
}

// Minter is the capability handle held by the authorized caller.
type Minter struct {
	registry  *Registry
	authority string
}

// Authority returns the identity the handle was issued to.
func (m *Minter) Authority() string { return m.authority }

// Mint creates one new asset owned by the address, tagged with the award type
// and its trait tier.
func (m *Minter) Mint(_ context.Context, owner domain.Address, awardType domain.AwardType, description string) (domain.AssetID, error) {
	m.registry.mu.Lock()
	defer m.registry.mu.Unlock()

	if m.registry.minter != m {
		return domain.AssetID{}, sentinel.ErrInvalidState
	}
	if !awardType.IsValid() {
		return domain.AssetID{}, sentinel.ErrInvalidState
	}

	asset := Asset{
		ID:          domain.NewAssetID(),
		Owner:       owner,
		AwardType:   awardType,
		Tier:        awardType.Tier(),
		Description: description,
		MintedAt:    time.Now(),
	}
	m.registry.assets[asset.ID] = asset
	m.registry.byOwner[owner] = append(m.registry.byOwner[owner], asset.ID)
	return asset.ID, nil
}

// Burn removes an asset during dual-mint rollback. It exists only on the
// capability handle and is not part of any external contract.
func (m *Minter) Burn(_ context.Context, id domain.AssetID) error {
	m.registry.mu.Lock()
	defer m.registry.mu.Unlock()

	if m.registry.minter != m {
		return sentinel.ErrInvalidState
	}
	asset, ok := m.registry.assets[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(m.registry.assets, id)

	owned := m.registry.byOwner[asset.Owner]
	for i, ownedID := range owned {
		if ownedID == id {
			m.registry.byOwner[asset.Owner] = append(owned[:i], owned[i+1:]...)
			break
		}
	}
	return nil
}
