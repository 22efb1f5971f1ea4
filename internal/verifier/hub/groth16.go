package hub

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"

	"vibegate/internal/verifier"
)

// Groth16 verifies proofs against a fixed verifying key. The key is produced
// by the proving side's trusted setup and loaded once at startup.
type Groth16 struct {
	vk groth16.VerifyingKey
}

// NewGroth16FromFile loads the verifying key from disk.
func NewGroth16FromFile(path string) (*Groth16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open verifying key: %w", err)
	}
	defer f.Close()

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("read verifying key: %w", err)
	}
	return &Groth16{vk: vk}, nil
}

// NewGroth16 wraps an already-loaded verifying key.
func NewGroth16(vk groth16.VerifyingKey) *Groth16 {
	return &Groth16{vk: vk}
}

// Verify checks the serialized proof against the submitted public signals.
func (g *Groth16) Verify(_ context.Context, proofBytes []byte, signals verifier.PublicSignals) error {
	if len(proofBytes) == 0 {
		return fmt.Errorf("empty proof")
	}

	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return fmt.Errorf("decode proof: %w", err)
	}

	assignment, err := publicAssignment(signals)
	if err != nil {
		return err
	}

	publicWitness, err := frontend.NewWitness(assignment, fr.Modulus(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("build public witness: %w", err)
	}

	if err := groth16.Verify(proof, g.vk, publicWitness); err != nil {
		return fmt.Errorf("groth16 verify: %w", err)
	}
	return nil
}

// publicAssignment maps wire-form signals onto the circuit's public inputs.
func publicAssignment(signals verifier.PublicSignals) (*HumanityCircuit, error) {
	scope, err := fieldElement(signals.ScopeHash)
	if err != nil {
		return nil, fmt.Errorf("scope hash: %w", err)
	}
	nullifier, err := fieldElement(signals.Nullifier)
	if err != nil {
		return nil, fmt.Errorf("nullifier: %w", err)
	}

	assignment := &HumanityCircuit{
		ScopeHash:     scope,
		AttestationID: new(big.Int).SetUint64(signals.AttestationID),
		Nullifier:     nullifier,
		Age:           big.NewInt(int64(signals.Age)),
		Country:       big.NewInt(int64(signals.CountryCode)),
	}
	for i, hit := range signals.ScreeningHits {
		if hit {
			assignment.Screening[i] = big.NewInt(1)
		} else {
			assignment.Screening[i] = big.NewInt(0)
		}
	}
	return assignment, nil
}

// fieldElement parses a 0x-hex string and reduces it into the BN254 scalar
// field, matching the proving client's encoding.
func fieldElement(hexValue string) (*big.Int, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(hexValue)), "0x")
	if trimmed == "" {
		return nil, fmt.Errorf("empty field element")
	}
	value, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex field element %q", hexValue)
	}
	return value.Mod(value, fr.Modulus()), nil
}
