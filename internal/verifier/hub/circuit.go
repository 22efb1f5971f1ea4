// Package hub implements the Groth16-backed verification capability. The
// circuit mirrors the proving client's: a MiMC commitment ties the disclosed
// attributes and the nullifier to the hidden credential, so the verifier
// learns nothing beyond the public signals.
package hub

import (
	"github.com/consensys/gnark/frontend"
	mimc "github.com/consensys/gnark/std/hash/mimc"
)

// HumanityCircuit proves possession of a credential matching the disclosed
// attributes without revealing it. Public input ordering is load-bearing:
// gnark processes public inputs in declared order and the witness builder in
// this package must match it.
type HumanityCircuit struct {
	// Public inputs.
	ScopeHash     frontend.Variable `gnark:",public"`
	AttestationID frontend.Variable `gnark:",public"`
	Nullifier     frontend.Variable `gnark:",public"`
	Age           frontend.Variable `gnark:",public"`
	Country       frontend.Variable `gnark:",public"`
	// Screening entries disclose 1 for "listed", 0 for "clear".
	Screening [3]frontend.Variable `gnark:",public"`

	// Private inputs.
	DocumentID   frontend.Variable
	BirthAge     frontend.Variable
	Nationality  frontend.Variable
	CredentialKD frontend.Variable // key-derivation salt baked into the credential
}

// Define encodes the circuit constraints.
func (c *HumanityCircuit) Define(api frontend.API) error {
	// Nullifier = MiMC(documentID, salt, scopeHash, attestationID). Same
	// credential + same scope always derives the same nullifier; a different
	// scope derives an unlinkable one.
	hasher, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	hasher.Write(c.DocumentID, c.CredentialKD, c.ScopeHash, c.AttestationID)
	api.AssertIsEqual(hasher.Sum(), c.Nullifier)

	// Disclosed attributes must equal the credential's hidden fields.
	api.AssertIsEqual(c.Age, c.BirthAge)
	api.AssertIsEqual(c.Country, c.Nationality)

	// Screening flags are booleans.
	for i := range c.Screening {
		api.AssertIsBoolean(c.Screening[i])
	}

	return nil
}
