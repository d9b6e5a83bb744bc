package prover

import (
	"fmt"
	"math/big"

	"github.com/vocdoni/circom2gnark/parser"
)

// Artifact is a parsed proof as produced by a Backend: the three Groth16
// coordinate groups plus the public signals in their original order. All
// values are decimal strings, exactly as the prover emitted them.
type Artifact struct {
	Proof         *parser.CircomProof
	PublicSignals []string
}

// ParseArtifact decodes and validates the proof and public-signals JSON
// returned by a Backend. It fails with ErrMalformedArtifact if either
// document is missing fields, has the wrong shape, or contains values that
// are not decimal numbers.
func ParseArtifact(proofJSON, publicSignalsJSON []byte) (*Artifact, error) {
	proof, err := parser.UnmarshalCircomProofJSON(proofJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArtifact, err)
	}
	publicSignals, err := parser.UnmarshalCircomPublicSignalsJSON(publicSignalsJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArtifact, err)
	}
	a := &Artifact{Proof: proof, PublicSignals: publicSignals}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// validate checks the Groth16 shape: pi_a and pi_c are flat groups, pi_b is
// a group of pairs, and every element is a decimal string. The public
// signals must be decimal strings as well.
func (a *Artifact) validate() error {
	if a.Proof == nil {
		return fmt.Errorf("%w: missing proof", ErrMalformedArtifact)
	}
	if len(a.Proof.PiA) < 2 || len(a.Proof.PiC) < 2 {
		return fmt.Errorf("%w: incomplete proof points", ErrMalformedArtifact)
	}
	for _, s := range append(append([]string{}, a.Proof.PiA...), a.Proof.PiC...) {
		if !isDecimal(s) {
			return fmt.Errorf("%w: non-decimal proof value %q", ErrMalformedArtifact, s)
		}
	}
	if len(a.Proof.PiB) < 2 {
		return fmt.Errorf("%w: incomplete pi_b", ErrMalformedArtifact)
	}
	for _, pair := range a.Proof.PiB {
		if len(pair) < 2 {
			return fmt.Errorf("%w: pi_b entry is not a pair", ErrMalformedArtifact)
		}
		for _, s := range pair {
			if !isDecimal(s) {
				return fmt.Errorf("%w: non-decimal pi_b value %q", ErrMalformedArtifact, s)
			}
		}
	}
	for _, s := range a.PublicSignals {
		if !isDecimal(s) {
			return fmt.Errorf("%w: non-decimal public signal %q", ErrMalformedArtifact, s)
		}
	}
	return nil
}

func isDecimal(s string) bool {
	_, ok := new(big.Int).SetString(s, 10)
	return ok
}
