package prover

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
)

var (
	testProofJSON = []byte(`{
		"pi_a": ["12508846988396728247736766411872776700103039702746563529988253583268269893093", "1462023283005058089", "1"],
		"pi_b": [["2", "9703183463808492890324558667540422456217918028156579119774211327827490070634"], ["3", "4"], ["1", "0"]],
		"pi_c": ["5", "18400412628911522706683859999088427612124019743946760518291638788815906568526", "1"],
		"protocol": "groth16"
	}`)
	testPublicSignalsJSON = []byte(`["17", "1"]`)
)

func TestParseArtifact(t *testing.T) {
	c := qt.New(t)
	a, err := ParseArtifact(testProofJSON, testPublicSignalsJSON)
	c.Assert(err, qt.IsNil)
	c.Assert(a.Proof.PiA, qt.HasLen, 3)
	c.Assert(a.Proof.PiB, qt.HasLen, 3)
	c.Assert(a.Proof.PiC, qt.HasLen, 3)
	// public signal order must be preserved
	c.Assert(a.PublicSignals, qt.DeepEquals, []string{"17", "1"})
}

func TestParseArtifactMalformed(t *testing.T) {
	c := qt.New(t)

	// not JSON at all
	_, err := ParseArtifact([]byte("snarkjs exploded"), testPublicSignalsJSON)
	c.Assert(err, qt.ErrorIs, ErrMalformedArtifact)

	// pi_b entries must be pairs
	_, err = ParseArtifact([]byte(`{
		"pi_a": ["1", "2", "1"],
		"pi_b": [["1"], ["2"], ["3"]],
		"pi_c": ["1", "2", "1"],
		"protocol": "groth16"
	}`), testPublicSignalsJSON)
	c.Assert(err, qt.ErrorIs, ErrMalformedArtifact)

	// values must be decimal strings
	_, err = ParseArtifact([]byte(`{
		"pi_a": ["0xff", "2", "1"],
		"pi_b": [["1", "2"], ["3", "4"], ["1", "0"]],
		"pi_c": ["1", "2", "1"],
		"protocol": "groth16"
	}`), testPublicSignalsJSON)
	c.Assert(err, qt.ErrorIs, ErrMalformedArtifact)
}

// cannedBackend returns a fixed artifact for any input, standing in for the
// proving toolchain in tests.
type cannedBackend struct {
	proof         string
	publicSignals string
	witnessCalls  int
	proveCalls    int
}

func (b *cannedBackend) ComputeWitness(_ context.Context, inputs []byte) ([]byte, error) {
	b.witnessCalls++
	return inputs, nil
}

func (b *cannedBackend) GenerateProof(_ context.Context, _ []byte) (string, string, error) {
	b.proveCalls++
	return b.proof, b.publicSignals, nil
}

func TestBackendRoundtrip(t *testing.T) {
	c := qt.New(t)
	backend := &cannedBackend{proof: string(testProofJSON), publicSignals: string(testPublicSignalsJSON)}

	wtns, err := backend.ComputeWitness(context.Background(), []byte(`{"x": "17"}`))
	c.Assert(err, qt.IsNil)
	proof, publicSignals, err := backend.GenerateProof(context.Background(), wtns)
	c.Assert(err, qt.IsNil)

	a, err := ParseArtifact([]byte(proof), []byte(publicSignals))
	c.Assert(err, qt.IsNil)
	c.Assert(a.PublicSignals[0], qt.Equals, "17")
}
