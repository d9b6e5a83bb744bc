package prover

import (
	"context"
	"fmt"

	rapidsnark "github.com/iden3/go-rapidsnark/prover"
	"github.com/iden3/go-rapidsnark/witness"
)

// Rapidsnark is the in-process proving backend. It calculates the witness
// with the compiled circom circuit (wasm) and generates the proof with the
// rapidsnark Groth16 prover over the zkey.
type Rapidsnark struct {
	circuit    []byte // compiled circom witness generator (wasm)
	provingKey []byte // Groth16 proving key (zkey)
}

// NewRapidsnark returns a backend bound to the given circuit and proving key
// contents.
func NewRapidsnark(circuit, provingKey []byte) *Rapidsnark {
	return &Rapidsnark{circuit: circuit, provingKey: provingKey}
}

// ComputeWitness parses the circom input document and calculates the binary
// witness (wtns format) with the embedded witness calculator.
func (r *Rapidsnark) ComputeWitness(ctx context.Context, inputs []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parsedInputs, err := witness.ParseInputs(inputs)
	if err != nil {
		return nil, fmt.Errorf("parse circuit inputs: %w", err)
	}
	calc, err := witness.NewCircom2WitnessCalculator(r.circuit, true)
	if err != nil {
		return nil, fmt.Errorf("instance witness calculator: %w", err)
	}
	wtns, err := calc.CalculateWTNSBin(parsedInputs, true)
	if err != nil {
		return nil, fmt.Errorf("calculate witness: %w", err)
	}
	return wtns, nil
}

// GenerateProof runs the Groth16 prover over the witness and returns the
// proof and public signals as JSON strings.
func (r *Rapidsnark) GenerateProof(ctx context.Context, wtns []byte) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	return rapidsnark.Groth16ProverRaw(r.provingKey, wtns)
}
