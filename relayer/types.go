package relayer

import "encoding/json"

// Fixed metadata describing the proving scheme of every submission. These
// describe how the proof was produced, they are not derived from the
// artifact.
const (
	ProofTypeGroth16 = "groth16"
	ProofLibrary     = "snarkjs"
	ProofCurve       = "bn128"
)

// ProofOptions identifies the proving library and curve of a submission.
type ProofOptions struct {
	Library string `json:"library"`
	Curve   string `json:"curve"`
}

// Groth16Proof carries the three proof coordinate groups in the snarkjs
// layout: pi_a and pi_c are flat groups, pi_b is a group of pairs. Every
// value is a decimal string; large proof values do not survive a round-trip
// through native JSON numbers.
type Groth16Proof struct {
	PiA      []string   `json:"pi_a"`
	PiB      [][]string `json:"pi_b"`
	PiC      []string   `json:"pi_c"`
	Protocol string     `json:"protocol"`
}

// ProofData is the submission body: the proof, its public signals in
// original order, and the circuit verification key embedded verbatim.
type ProofData struct {
	Proof         *Groth16Proof   `json:"proof"`
	PublicSignals []string        `json:"publicSignals"`
	Vk            json.RawMessage `json:"vk"`
}

// SubmitProofRequest is the payload POSTed to the relayer submit-proof
// endpoint.
type SubmitProofRequest struct {
	ProofType    string       `json:"proofType"`
	VkRegistered bool         `json:"vkRegistered"`
	ProofOptions ProofOptions `json:"proofOptions"`
	ProofData    ProofData    `json:"proofData"`
}
