package verifier

import (
	"context"

	"vibegate/internal/policy"
	"vibegate/pkg/domain"
)

// PublicSignals are the circuit's public inputs as submitted by the client.
// The hub checks the proof against exactly these values, so a tampered signal
// set fails cryptographic verification before any policy check runs.
type PublicSignals struct {
	ScopeHash     string                      `json:"scope_hash"`
	AttestationID uint64                      `json:"attestation_id"`
	Nullifier     string                      `json:"nullifier"`
	Age           int                         `json:"age"`
	CountryCode   uint16                      `json:"country_code"`
	ScreeningHits [policy.ScreeningLists]bool `json:"screening_hits"`
}

// Submission pairs an opaque proof with its public signals.
type Submission struct {
	Proof         []byte        `json:"proof"`
	PublicSignals PublicSignals `json:"public_signals"`
}

// Disclosures are the minimal attribute facts carried out of a successful
// verification for audit. No raw identity data ever appears here.
type Disclosures struct {
	Age            int
	CountryCode    uint16
	ScreeningClear [policy.ScreeningLists]bool
}

// Outcome is the result of a successful verification.
type Outcome struct {
	Nullifier   domain.Nullifier
	Disclosures Disclosures
}

// Hub is the external verification capability. Cryptographic proof validity
// is delegated here rather than reimplemented; implementations must return a
// non-nil error whenever the proof does not verify against the signals.
type Hub interface {
	Verify(ctx context.Context, proof []byte, signals PublicSignals) error
}
