// Package prover produces Groth16 proof artifacts for the bandcheck circom
// circuit. The proving toolchain is modeled as a capability interface with
// two backends: an in-process one built on rapidsnark and one that shells
// out to the snarkjs CLI. Both exchange the same opaque data: a JSON input
// document in, a binary witness and a proof/public-signals JSON pair out.
package prover

import (
	"context"
	"errors"
)

// ErrMalformedArtifact is returned when the prover output does not have the
// expected Groth16 shape.
var ErrMalformedArtifact = errors.New("malformed proof artifact")

// Backend is the proving capability used by the pipeline. ComputeWitness
// takes the circom input document (JSON) and returns the binary witness.
// GenerateProof takes that witness and returns the proof and the public
// signals as JSON strings, in the snarkjs output format.
type Backend interface {
	ComputeWitness(ctx context.Context, inputs []byte) ([]byte, error)
	GenerateProof(ctx context.Context, wtns []byte) (proof string, publicSignals string, err error)
}
