package prover

import (
	"bytes"
	"context"
	"crypto/sha256"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

var dummyArtifactContent = []byte("dummy artifact content")

func testArtifactServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "artifact.bin", time.Now(), bytes.NewReader(dummyArtifactContent))
	}))
}

func TestArtifactDownloadAndLoad(t *testing.T) {
	c := qt.New(t)
	BaseDir = t.TempDir()

	srv := testArtifactServer()
	defer srv.Close()

	hash := sha256.Sum256(dummyArtifactContent)
	artifact := &RemoteArtifact{RemoteURL: srv.URL, Hash: hash[:]}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c.Assert(artifact.Download(ctx), qt.IsNil)
	c.Assert(artifact.Load(), qt.IsNil)
	c.Assert(artifact.Content, qt.DeepEquals, dummyArtifactContent)

	// a second download must hit the cache, not the (now closed) server
	srv.Close()
	fresh := &RemoteArtifact{RemoteURL: srv.URL, Hash: hash[:]}
	c.Assert(fresh.Download(ctx), qt.IsNil)
	c.Assert(fresh.Load(), qt.IsNil)
}

func TestArtifactHashMismatch(t *testing.T) {
	c := qt.New(t)
	BaseDir = t.TempDir()

	srv := testArtifactServer()
	defer srv.Close()

	wrongHash := sha256.Sum256([]byte("something else"))
	artifact := &RemoteArtifact{RemoteURL: srv.URL, Hash: wrongHash[:]}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c.Assert(artifact.Download(ctx), qt.ErrorMatches, "hash mismatch.*")
}

func TestArtifactLoadMissing(t *testing.T) {
	c := qt.New(t)
	BaseDir = t.TempDir()

	hash := sha256.Sum256([]byte("never stored"))
	artifact := &RemoteArtifact{Hash: hash[:]}
	c.Assert(artifact.Load(), qt.ErrorMatches, "artifact not found in cache")

	c.Assert((&RemoteArtifact{}).Load(), qt.ErrorMatches, "artifact hash not provided")
}
