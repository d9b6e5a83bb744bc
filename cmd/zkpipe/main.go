package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/zkpipe/zkpipe/config"
	"github.com/zkpipe/zkpipe/journal"
	"github.com/zkpipe/zkpipe/log"
	"github.com/zkpipe/zkpipe/pipeline"
	"github.com/zkpipe/zkpipe/prover"
	"github.com/zkpipe/zkpipe/relayer"
	"github.com/zkpipe/zkpipe/service"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
)

func main() {
	iterations := flag.Int("iterations", 1, "number of proof submission iterations")
	relayerURL := flag.String("relayer", config.DefaultRelayerURL, "relayer API base URL")
	apiKey := flag.String("apikey", "", "relayer API key (required)")
	backendName := flag.String("backend", "rapidsnark", "proving backend: rapidsnark or snarkjs")
	snarkjsBin := flag.String("snarkjs", "snarkjs", "snarkjs executable (snarkjs backend only)")
	dataDir := flag.String("datadir", "", "data directory (default ~/.zkpipe)")
	logLevel := flag.String("loglevel", "info", "log level (debug, info, warn, error, fatal)")
	artifactTimeout := flag.Duration("artifact-timeout", 10*time.Minute, "timeout for downloading circuit artifacts")
	noVerify := flag.Bool("no-verify", false, "skip local proof verification before submission")
	flag.Parse()

	log.Init(*logLevel, "stdout", nil)

	if *apiKey == "" {
		log.Fatal("an API key is required, use -apikey")
	}
	if *iterations < 1 {
		log.Fatal("iterations must be at least 1")
	}
	if *dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal(err)
		}
		*dataDir = filepath.Join(home, ".zkpipe")
	}
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	log.Infow("downloading circuit artifacts", "timeout", artifactTimeout.String())
	if err := service.DownloadArtifacts(*artifactTimeout); err != nil {
		log.Fatal(err)
	}

	var backend prover.Backend
	switch *backendName {
	case "rapidsnark":
		backend = prover.NewRapidsnark(prover.Bandcheck.Circuit(), prover.Bandcheck.ProvingKey())
	case "snarkjs":
		backend = &prover.SnarkJS{
			Bin:         *snarkjsBin,
			CircuitPath: prover.Bandcheck.CircuitPath(),
			ZkeyPath:    prover.Bandcheck.ProvingKeyPath(),
			WorkDir:     filepath.Join(*dataDir, "snarkjs"),
		}
	default:
		log.Fatalf("unknown backend %q", *backendName)
	}

	client, err := relayer.New(*relayerURL)
	if err != nil {
		log.Fatal(err)
	}

	database, err := metadb.New(db.TypePebble, filepath.Join(*dataDir, "journaldb"))
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Warnw("failed to close journal database", "err", err.Error())
		}
	}()
	jnl, err := journal.New(database, filepath.Join(*dataDir, "journal.log"))
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := jnl.Close(); err != nil {
			log.Warnw("failed to close journal", "err", err.Error())
		}
	}()

	retryPacer := pipeline.NewPacer(pipeline.Window{
		Min: config.RetryDelayMinSec,
		Max: config.RetryDelayMaxSec,
	})
	submitter := relayer.NewSubmitter(client, jnl, *apiKey, retryPacer.Wait)

	iterationPacer := pipeline.NewPacer(pipeline.Window{
		Min: config.IterationDelayMinSec,
		Max: config.IterationDelayMaxSec,
	})
	pipe := pipeline.New(backend, prover.Bandcheck.VerificationKey(), submitter, iterationPacer)
	pipe.VerifyLocally = !*noVerify

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Infow("starting run",
		"iterations", *iterations,
		"relayer", *relayerURL,
		"backend", *backendName,
	)
	summary, err := pipe.Run(ctx, *iterations)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("requested %d, accepted %d, exhausted %d\n",
		summary.Requested, summary.Accepted, summary.Exhausted)
	if summary.Accepted < summary.Requested {
		os.Exit(1)
	}
}
