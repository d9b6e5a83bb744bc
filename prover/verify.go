package prover

import (
	"fmt"

	"github.com/vocdoni/circom2gnark/parser"
)

// Verify checks the artifact against the circuit verification key before it
// leaves the process. It converts the circom proof to the gnark format and
// runs the native Groth16 verifier, so an invalid proof is caught locally
// instead of burning a submission attempt.
func Verify(vkey []byte, a *Artifact) error {
	if a == nil || a.Proof == nil {
		return fmt.Errorf("%w: nothing to verify", ErrMalformedArtifact)
	}
	vk, err := parser.UnmarshalCircomVerificationKeyJSON(vkey)
	if err != nil {
		return fmt.Errorf("parse verification key: %w", err)
	}
	gnarkProof, err := parser.ConvertCircomToGnark(a.Proof, vk, a.PublicSignals)
	if err != nil {
		return fmt.Errorf("convert proof to gnark format: %w", err)
	}
	if ok, err := parser.VerifyProof(gnarkProof); !ok || err != nil {
		return fmt.Errorf("proof verification failed: %v", err)
	}
	return nil
}
