package relayer

import (
	"encoding/json"
	"fmt"

	"github.com/zkpipe/zkpipe/prover"
)

// NewSubmitProofRequest normalizes a proof artifact and the circuit
// verification key into a submission payload. It is a pure transformation:
// the same artifact and key always produce the same payload. The array
// shapes of the proof groups and the order of the public signals are
// preserved as-is.
func NewSubmitProofRequest(a *prover.Artifact, vkey []byte) (*SubmitProofRequest, error) {
	if a == nil || a.Proof == nil {
		return nil, fmt.Errorf("%w: no proof to submit", prover.ErrMalformedArtifact)
	}
	if !json.Valid(vkey) {
		return nil, fmt.Errorf("verification key is not valid JSON")
	}
	proof := &Groth16Proof{
		PiA:      append([]string{}, a.Proof.PiA...),
		PiB:      make([][]string, len(a.Proof.PiB)),
		PiC:      append([]string{}, a.Proof.PiC...),
		Protocol: ProofTypeGroth16,
	}
	for i, pair := range a.Proof.PiB {
		proof.PiB[i] = append([]string{}, pair...)
	}
	return &SubmitProofRequest{
		ProofType:    ProofTypeGroth16,
		VkRegistered: false,
		ProofOptions: ProofOptions{
			Library: ProofLibrary,
			Curve:   ProofCurve,
		},
		ProofData: ProofData{
			Proof:         proof,
			PublicSignals: append([]string{}, a.PublicSignals...),
			Vk:            json.RawMessage(vkey),
		},
	}, nil
}
