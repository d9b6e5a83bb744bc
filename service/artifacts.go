// Package service wires the pipeline components together for the command
// line entry point.
package service

import (
	"context"
	"time"

	"github.com/zkpipe/zkpipe/prover"
)

// DownloadArtifacts fetches the bandcheck circuit artifacts into the local
// cache and loads them into memory, bounded by the given timeout.
func DownloadArtifacts(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := prover.Bandcheck.DownloadAll(ctx); err != nil {
		return err
	}
	return prover.Bandcheck.LoadAll()
}
