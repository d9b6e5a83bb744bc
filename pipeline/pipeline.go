// Package pipeline drives the proof submission loop: for each iteration it
// draws a random circuit input, runs the proving backend, verifies the proof
// locally and hands the payload to the submitter, pacing iterations with a
// randomized delay.
package pipeline

import (
	"context"
	"fmt"

	"github.com/zkpipe/zkpipe/config"
	"github.com/zkpipe/zkpipe/log"
	"github.com/zkpipe/zkpipe/prover"
	"github.com/zkpipe/zkpipe/relayer"
	"github.com/zkpipe/zkpipe/util"
)

// Summary is the final tally of a pipeline run.
type Summary struct {
	Requested int
	Accepted  int
	Exhausted int
}

// Pipeline runs proof generation and submission iterations.
type Pipeline struct {
	backend   prover.Backend
	vkey      []byte
	submitter *relayer.Submitter
	pacer     *Pacer

	inputMin int
	inputMax int

	// VerifyLocally checks every proof against the verification key before
	// submission. A proof that fails local verification aborts the run:
	// submitting it would only burn relayer quota.
	VerifyLocally bool

	randInt func(min, max int) int
}

// New creates a pipeline with the default input range and local
// verification enabled.
func New(backend prover.Backend, vkey []byte, submitter *relayer.Submitter, pacer *Pacer) *Pipeline {
	return &Pipeline{
		backend:       backend,
		vkey:          vkey,
		submitter:     submitter,
		pacer:         pacer,
		inputMin:      config.InputMin,
		inputMax:      config.InputMax,
		VerifyLocally: true,
		randInt:       util.RandomInRange,
	}
}

// Input builds the circuit input document for one iteration: a single
// signal drawn uniformly from the configured range, bounds included, encoded
// as a decimal string.
func (p *Pipeline) Input() []byte {
	n := p.randInt(p.inputMin, p.inputMax)
	return []byte(fmt.Sprintf(`{"x": "%d"}`, n))
}

// Run executes n iterations. A prover or artifact failure aborts the run; a
// submission that exhausts its attempt budget is tallied and the run moves
// on to the next iteration. Iterations are 1-based in logs and journal
// records.
func (p *Pipeline) Run(ctx context.Context, n int) (*Summary, error) {
	summary := &Summary{Requested: n}
	for iteration := 1; iteration <= n; iteration++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		res, err := p.runIteration(ctx, iteration)
		if err != nil {
			return summary, fmt.Errorf("iteration %d: %w", iteration, err)
		}
		switch res.Outcome {
		case relayer.OutcomeAccepted:
			summary.Accepted++
		case relayer.OutcomeExhausted:
			summary.Exhausted++
		}
		// every iteration ends with a pacer delay, the last one included,
		// so the request rate stays bounded across back-to-back runs
		if err := p.pacer.Wait(ctx); err != nil {
			return summary, err
		}
	}
	log.Infow("run finished",
		"requested", summary.Requested,
		"accepted", summary.Accepted,
		"exhausted", summary.Exhausted,
	)
	return summary, nil
}

// runIteration proves one random input and submits the resulting payload.
func (p *Pipeline) runIteration(ctx context.Context, iteration int) (*relayer.Result, error) {
	input := p.Input()
	log.Infow("starting iteration", "iteration", iteration, "input", string(input))

	wtns, err := p.backend.ComputeWitness(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("compute witness: %w", err)
	}
	proofJSON, publicSignalsJSON, err := p.backend.GenerateProof(ctx, wtns)
	if err != nil {
		return nil, fmt.Errorf("generate proof: %w", err)
	}
	artifact, err := prover.ParseArtifact([]byte(proofJSON), []byte(publicSignalsJSON))
	if err != nil {
		return nil, err
	}
	if p.VerifyLocally {
		if err := prover.Verify(p.vkey, artifact); err != nil {
			return nil, fmt.Errorf("local verification: %w", err)
		}
	}
	payload, err := relayer.NewSubmitProofRequest(artifact, p.vkey)
	if err != nil {
		return nil, err
	}
	return p.submitter.Submit(ctx, iteration, payload)
}
