package prover

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/zkpipe/zkpipe/config"
	"github.com/zkpipe/zkpipe/log"
	"github.com/zkpipe/zkpipe/util"
	"golang.org/x/sync/errgroup"
)

// CheckHashes determines if artifact contents are verified against their
// expected sha256 when loaded or downloaded. It can be disabled by setting
// the ZKPIPE_CHECK_HASHES environment variable to false or 0.
var CheckHashes = true

// BaseDir is the local artifact cache. Artifacts not found there are
// downloaded and stored. Defaults to the ZKPIPE_ARTIFACTS_DIR env var or a
// directory under the user cache.
var BaseDir string

func init() {
	if checkHashes := os.Getenv("ZKPIPE_CHECK_HASHES"); checkHashes != "" {
		if strings.ToLower(checkHashes) == "false" || checkHashes == "0" {
			CheckHashes = false
		}
	}
	if dir := os.Getenv("ZKPIPE_ARTIFACTS_DIR"); dir != "" {
		BaseDir = dir
	} else {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			log.Warnf("unable to access user home directory, using temporary directory: %v", err)
			BaseDir = filepath.Join(os.TempDir(), "zkpipe-artifacts")
		} else {
			BaseDir = filepath.Join(home, ".cache", "zkpipe-artifacts")
		}
	}
	if err := os.MkdirAll(BaseDir, 0o755); err != nil {
		log.Errorf("failed to create artifact cache dir %s: %v", BaseDir, err)
	}
}

// RemoteArtifact holds the remote URL, the expected sha256 of the content
// and, once loaded, the content itself. Artifacts are cached on disk keyed
// by their hash.
type RemoteArtifact struct {
	RemoteURL string
	Hash      []byte
	Content   []byte
}

// Load reads the artifact content from the local cache, verifying its hash.
// It is a no-op when the content is already in memory.
func (a *RemoteArtifact) Load() error {
	if len(a.Content) != 0 {
		return nil
	}
	if len(a.Hash) == 0 {
		return fmt.Errorf("artifact hash not provided")
	}
	content, err := readCached(a.Hash)
	if err != nil {
		return err
	}
	if content == nil {
		return fmt.Errorf("artifact not found in cache")
	}
	a.Content = content
	return nil
}

// Download fetches the artifact from its remote URL into the local cache,
// verifying the hash on the way. Already-cached content is not fetched
// again.
func (a *RemoteArtifact) Download(ctx context.Context) error {
	if a.RemoteURL == "" {
		return fmt.Errorf("artifact not cached and remote url not provided")
	}
	if cached, err := readCached(a.Hash); err == nil && cached != nil {
		return nil
	}
	return downloadAndStore(ctx, a.Hash, a.RemoteURL)
}

// CircuitArtifacts groups the three bandcheck circuit artifacts: the
// compiled witness generator, the Groth16 proving key and the verification
// key.
type CircuitArtifacts struct {
	circuit         *RemoteArtifact
	provingKey      *RemoteArtifact
	verificationKey *RemoteArtifact
}

// NewCircuitArtifacts builds a CircuitArtifacts from its three parts.
func NewCircuitArtifacts(circuit, provingKey, verificationKey *RemoteArtifact) *CircuitArtifacts {
	return &CircuitArtifacts{
		circuit:         circuit,
		provingKey:      provingKey,
		verificationKey: verificationKey,
	}
}

// LoadAll loads the three artifacts from the local cache into memory.
func (ca *CircuitArtifacts) LoadAll() error {
	if err := ca.circuit.Load(); err != nil {
		return fmt.Errorf("error loading circuit: %w", err)
	}
	if err := ca.provingKey.Load(); err != nil {
		return fmt.Errorf("error loading proving key: %w", err)
	}
	if err := ca.verificationKey.Load(); err != nil {
		return fmt.Errorf("error loading verification key: %w", err)
	}
	return nil
}

// DownloadAll fetches any artifact missing from the local cache. The three
// downloads run concurrently; the first failure cancels the rest.
func (ca *CircuitArtifacts) DownloadAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ca.circuit.Download(ctx); err != nil {
			return fmt.Errorf("error downloading circuit: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := ca.provingKey.Download(ctx); err != nil {
			return fmt.Errorf("error downloading proving key: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := ca.verificationKey.Download(ctx); err != nil {
			return fmt.Errorf("error downloading verification key: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// Circuit returns the compiled witness generator content, or nil if not
// loaded.
func (ca *CircuitArtifacts) Circuit() []byte { return ca.circuit.Content }

// ProvingKey returns the proving key content, or nil if not loaded.
func (ca *CircuitArtifacts) ProvingKey() []byte { return ca.provingKey.Content }

// VerificationKey returns the verification key content, or nil if not
// loaded.
func (ca *CircuitArtifacts) VerificationKey() []byte { return ca.verificationKey.Content }

// CircuitPath returns the cache file path of the compiled witness
// generator, for backends that read artifacts from disk.
func (ca *CircuitArtifacts) CircuitPath() string { return cachePath(ca.circuit.Hash) }

// ProvingKeyPath returns the cache file path of the proving key.
func (ca *CircuitArtifacts) ProvingKeyPath() string { return cachePath(ca.provingKey.Hash) }

// Bandcheck holds the artifacts of the bandcheck circuit, addressed by the
// URLs and hashes pinned in the config package.
var Bandcheck = NewCircuitArtifacts(
	&RemoteArtifact{
		RemoteURL: config.BandcheckCircuitURL,
		Hash:      mustHexDecode(config.BandcheckCircuitHash),
	},
	&RemoteArtifact{
		RemoteURL: config.BandcheckProvingKeyURL,
		Hash:      mustHexDecode(config.BandcheckProvingKeyHash),
	},
	&RemoteArtifact{
		RemoteURL: config.BandcheckVerificationKeyURL,
		Hash:      mustHexDecode(config.BandcheckVerificationKeyHash),
	},
)

// cachePath is the on-disk location of a cached artifact, keyed by hash.
func cachePath(hash []byte) string {
	return filepath.Join(BaseDir, hex.EncodeToString(hash))
}

func mustHexDecode(s string) []byte {
	b, err := hex.DecodeString(util.TrimHex(s))
	if err != nil {
		panic(err)
	}
	return b
}

// readCached returns the cached content for the given hash, or nil if there
// is no cache entry. The hash is verified unless CheckHashes is disabled.
func readCached(hash []byte) ([]byte, error) {
	if err := os.MkdirAll(BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating the cache directory: %w", err)
	}
	path := cachePath(hash)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading cached artifact %s: %w", path, err)
	}
	if CheckHashes {
		sum := sha256.Sum256(content)
		if !bytes.Equal(sum[:], hash) {
			return nil, fmt.Errorf("hash mismatch for %s: expected %x, got %x", path, hash, sum)
		}
	}
	return content, nil
}

// downloadAndStore fetches a remote file into the cache, writing to a
// .partial file first and renaming only after the hash checks out.
func downloadAndStore(ctx context.Context, expectedHash []byte, fileURL string) error {
	path := cachePath(expectedHash)
	partialPath := path + ".partial"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("error creating the artifact request: %w", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("error performing the artifact request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("error downloading %s: http status: %d", fileURL, res.StatusCode)
	}

	fd, err := os.OpenFile(partialPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("error opening artifact file: %w", err)
	}
	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(fd, hasher), res.Body); err != nil {
		fd.Close()
		return fmt.Errorf("error writing artifact file: %w", err)
	}
	if err := fd.Close(); err != nil {
		return err
	}
	if CheckHashes {
		if sum := hasher.Sum(nil); !bytes.Equal(sum, expectedHash) {
			os.Remove(partialPath)
			return fmt.Errorf("hash mismatch: expected %x, got %x", expectedHash, sum)
		}
	}
	if err := os.Rename(partialPath, path); err != nil {
		return fmt.Errorf("error renaming artifact file: %w", err)
	}
	log.Debugw("artifact downloaded", "url", fileURL, "hash", hex.EncodeToString(expectedHash))
	return nil
}
