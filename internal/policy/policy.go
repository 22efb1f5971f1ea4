// Package policy holds the immutable deployment policy the proof circuit and
// the verifier agree on. Once constructed the values never change; they are
// the contract between the two sides.
package policy

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"

	"vibegate/pkg/domain"
)

// Config is the verification policy fixed at deploy time.
type Config struct {
	// ScopeHash binds proofs to this deployment's endpoint and purpose.
	// Proofs computed for a different scope are rejected.
	ScopeHash string
	// AttestationID identifies the credential schema the proof must attest to.
	AttestationID uint64
	// MinimumAge is the disclosed-age floor. Zero disables the check.
	MinimumAge int
	// ForbiddenCountries is the excluded-country bitmask. Empty disables the check.
	ForbiddenCountries CountrySet
	// ScreeningFlags toggles up to three independent watch-list checks.
	ScreeningFlags [ScreeningLists]bool
}

// ScreeningLists is the number of independent watch-list checks a proof can
// disclose clearance for.
const ScreeningLists = 3

// ScopeHashFor derives the scope binding value from the deployment endpoint
// and purpose, matching the derivation the proving client uses.
func ScopeHashFor(endpoint, purpose string) string {
	h := sha3.Sum256([]byte(endpoint + "|" + purpose))
	return fmt.Sprintf("0x%x", h)
}

// ScreeningEnabled reports whether any watch-list check is on.
func (c Config) ScreeningEnabled() bool {
	for _, enabled := range c.ScreeningFlags {
		if enabled {
			return true
		}
	}
	return false
}

// CountrySet is a bitmask over ISO-3166 numeric country codes (0-999). The
// packed form mirrors the on-chain representation the policy was deployed with.
type CountrySet struct {
	bits [16]uint64
}

// ParseCountrySet builds a set from a comma-separated list of numeric codes.
func ParseCountrySet(csv string) (CountrySet, error) {
	var set CountrySet
	if strings.TrimSpace(csv) == "" {
		return set, nil
	}
	for _, field := range strings.Split(csv, ",") {
		code, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || code < 0 || code > 999 {
			return CountrySet{}, fmt.Errorf("invalid country code %q", field)
		}
		set.Add(uint16(code))
	}
	return set, nil
}

// Add inserts a numeric country code into the set.
func (s *CountrySet) Add(code uint16) {
	if code > 999 {
		return
	}
	s.bits[code/64] |= 1 << (code % 64)
}

// Contains reports membership of a numeric country code.
func (s CountrySet) Contains(code uint16) bool {
	if code > 999 {
		return false
	}
	return s.bits[code/64]&(1<<(code%64)) != 0
}

// IsEmpty reports whether no countries are excluded (check disabled).
func (s CountrySet) IsEmpty() bool {
	for _, word := range s.bits {
		if word != 0 {
			return false
		}
	}
	return true
}

// DefaultAwardAmounts are the per-award token quantities seeded at deploy
// time. Mutable afterwards through the owner configuration interface only.
func DefaultAwardAmounts() map[domain.AwardType]uint64 {
	return map[domain.AwardType]uint64{
		domain.AwardTopContributor:   1000,
		domain.AwardCommunityStar:    500,
		domain.AwardInnovation:       2000,
		domain.AwardGovernanceExpert: 750,
	}
}
