package prover

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// SnarkJS is the subprocess proving backend. It invokes the snarkjs CLI the
// same way the manual workflow does: "snarkjs wtns calculate" to compute the
// witness and "snarkjs groth16 prove" to generate the proof, exchanging
// files through a working directory.
type SnarkJS struct {
	Bin         string // snarkjs binary, defaults to "snarkjs" in PATH
	CircuitPath string // compiled circom witness generator (wasm)
	ZkeyPath    string // Groth16 proving key
	WorkDir     string // scratch directory, defaults to a temp dir
}

func (s *SnarkJS) bin() string {
	if s.Bin == "" {
		return "snarkjs"
	}
	return s.Bin
}

func (s *SnarkJS) workDir() (string, error) {
	if s.WorkDir != "" {
		return s.WorkDir, os.MkdirAll(s.WorkDir, 0o755)
	}
	return os.MkdirTemp("", "zkpipe-snarkjs-*")
}

// ComputeWitness writes the input document to disk, runs the witness
// calculation step and returns the binary witness.
func (s *SnarkJS) ComputeWitness(ctx context.Context, inputs []byte) ([]byte, error) {
	dir, err := s.workDir()
	if err != nil {
		return nil, fmt.Errorf("prepare work dir: %w", err)
	}
	inputPath := filepath.Join(dir, "input.json")
	wtnsPath := filepath.Join(dir, "witness.wtns")
	if err := os.WriteFile(inputPath, inputs, 0o644); err != nil {
		return nil, fmt.Errorf("write input document: %w", err)
	}
	if err := s.run(ctx, "wtns", "calculate", s.CircuitPath, inputPath, wtnsPath); err != nil {
		return nil, err
	}
	wtns, err := os.ReadFile(wtnsPath)
	if err != nil {
		return nil, fmt.Errorf("read witness: %w", err)
	}
	return wtns, nil
}

// GenerateProof writes the witness to disk, runs the proving step and
// returns the contents of the proof and public-signals files.
func (s *SnarkJS) GenerateProof(ctx context.Context, wtns []byte) (string, string, error) {
	dir, err := s.workDir()
	if err != nil {
		return "", "", fmt.Errorf("prepare work dir: %w", err)
	}
	wtnsPath := filepath.Join(dir, "witness.wtns")
	proofPath := filepath.Join(dir, "proof.json")
	publicPath := filepath.Join(dir, "public.json")
	if err := os.WriteFile(wtnsPath, wtns, 0o644); err != nil {
		return "", "", fmt.Errorf("write witness: %w", err)
	}
	if err := s.run(ctx, "groth16", "prove", s.ZkeyPath, wtnsPath, proofPath, publicPath); err != nil {
		return "", "", err
	}
	proof, err := os.ReadFile(proofPath)
	if err != nil {
		return "", "", fmt.Errorf("read proof: %w", err)
	}
	publicSignals, err := os.ReadFile(publicPath)
	if err != nil {
		return "", "", fmt.Errorf("read public signals: %w", err)
	}
	return string(proof), string(publicSignals), nil
}

func (s *SnarkJS) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, s.bin(), args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s %s: %w: %s", s.bin(), args[0], err, out)
	}
	return nil
}
