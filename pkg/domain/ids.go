// Package domain holds the typed identifiers shared across the engine.
// Parsing happens once at trust boundaries; everything downstream works with
// validated values.
package domain

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	dErrors "vibegate/pkg/domain-errors"
)

var (
	addressPattern   = regexp.MustCompile(`^0x[0-9a-f]{40}$`)
	nullifierPattern = regexp.MustCompile(`^0x[0-9a-f]{1,64}$`)
)

// Address is a ledger account address in lowercase 0x-hex form.
type Address string

// ParseAddress validates and normalizes an address string.
func ParseAddress(s string) (Address, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}
	if !addressPattern.MatchString(normalized) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address must be 0x-prefixed 20-byte hex")
	}
	return Address(normalized), nil
}

func (a Address) String() string { return string(a) }

// IsNil returns true for the zero address value.
func (a Address) IsNil() bool { return a == "" }

// Nullifier is the scope-bound identity handle disclosed by a proof. It is
// deterministic per (credential, scope) and unlinkable to the credential.
type Nullifier string

// ParseNullifier validates a nullifier string.
func ParseNullifier(s string) (Nullifier, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "nullifier is required")
	}
	if !nullifierPattern.MatchString(normalized) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "nullifier must be 0x-prefixed hex")
	}
	return Nullifier(normalized), nil
}

func (n Nullifier) String() string { return string(n) }

// IsNil returns true for the zero nullifier value.
func (n Nullifier) IsNil() bool { return n == "" }

// AssetID identifies a minted non-fungible asset.
type AssetID uuid.UUID

// NewAssetID returns a fresh random asset ID.
func NewAssetID() AssetID { return AssetID(uuid.New()) }

// ParseAssetID validates an asset ID string.
func ParseAssetID(s string) (AssetID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil || parsed == uuid.Nil {
		return AssetID{}, dErrors.New(dErrors.CodeInvalidInput, "asset id must be a valid UUID")
	}
	return AssetID(parsed), nil
}

func (id AssetID) String() string { return uuid.UUID(id).String() }

// IsNil returns true for the zero asset ID.
func (id AssetID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
