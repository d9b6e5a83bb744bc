package config

const (
	// DefaultRelayerURL is the base URL of the proof relayer API.
	DefaultRelayerURL = "https://relayer-api.zkpipe.dev"
	// SubmitProofRoute is the relayer route where payloads are POSTed. The
	// API key is appended as the last path segment.
	SubmitProofRoute = "api/v1/submit-proof"
	// RateLimitMarker is the substring of a relayer response body that
	// identifies a rate-limited attempt. The relayer returns free-form text
	// on errors, so this is matched verbatim in addition to HTTP 429.
	RateLimitMarker = "Too Many Requests"
	// DefaultMaxAttempts is the per-iteration cap of submission attempts.
	DefaultMaxAttempts = 5
)

// Submission pacing windows, in whole seconds, both bounds inclusive.
const (
	// RetryDelayMinSec and RetryDelayMaxSec bound the backoff between
	// rate-limited attempts of the same payload.
	RetryDelayMinSec = 60
	RetryDelayMaxSec = 120
	// IterationDelayMinSec and IterationDelayMaxSec bound the pause between
	// successive iterations, keeping the request rate well under the
	// relayer's limits.
	IterationDelayMinSec = 120
	IterationDelayMaxSec = 180
)

// Input range for the bandcheck circuit. Values are drawn uniformly from the
// inclusive range, which covers both sides of the band the circuit accepts.
const (
	InputMin = 1
	InputMax = 20
)

const (
	// Bandcheck circuit artifacts: compiled circom witness generator (wasm),
	// Groth16 proving key (zkey) and verification key (json).
	BandcheckCircuitURL          = "https://circuits.ams3.cdn.digitaloceanspaces.com/circuits/dev/bandcheck.wasm"
	BandcheckCircuitHash         = "0a6d5b8b6e4c2da7c6de8f19a31f5b87b93a9f2b55118c64f3c1a42b2d0e7c19"
	BandcheckProvingKeyURL       = "https://circuits.ams3.cdn.digitaloceanspaces.com/circuits/dev/bandcheck_pkey.zkey"
	BandcheckProvingKeyHash      = "7be41f9231c4de1f7a5be21c79a6e0d4c3b2f86a9d05e77412c9b6d13a58f04e"
	BandcheckVerificationKeyURL  = "https://circuits.ams3.cdn.digitaloceanspaces.com/circuits/dev/bandcheck_vkey.json"
	BandcheckVerificationKeyHash = "d51a6c3f9eb7420b8c15d0a4f6e8b29c7f30412aee95d8c6b1f72e04a39c8d5b"
)
