package relayer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/zkpipe/zkpipe/journal"
	"github.com/zkpipe/zkpipe/log"
	"go.vocdoni.io/dvote/db/metadb"
)

type submitterHarness struct {
	submitter *Submitter
	journal   *journal.Journal
	logPath   string
	backoffs  int
}

func newSubmitterHarness(t *testing.T, serverURL string) *submitterHarness {
	c := qt.New(t)
	h := &submitterHarness{logPath: filepath.Join(t.TempDir(), "journal.log")}

	jnl, err := journal.New(metadb.NewTest(t), h.logPath)
	c.Assert(err, qt.IsNil)
	h.journal = jnl

	client, err := New(serverURL)
	c.Assert(err, qt.IsNil)
	client.SetRetries(1)

	h.submitter = NewSubmitter(client, jnl, "test-api-key", func(ctx context.Context) error {
		h.backoffs++
		return ctx.Err()
	})
	return h
}

func (h *submitterHarness) journalLines(c *qt.C) string {
	data, err := os.ReadFile(h.logPath)
	c.Assert(err, qt.IsNil)
	return string(data)
}

func TestSubmitAccepted(t *testing.T) {
	c := qt.New(t)

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	}))
	defer srv.Close()

	h := newSubmitterHarness(t, srv.URL)
	req, err := NewSubmitProofRequest(testArtifact(c), testVkeyJSON)
	c.Assert(err, qt.IsNil)

	res, err := h.submitter.Submit(context.Background(), 1, req)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Outcome, qt.Equals, OutcomeAccepted)
	c.Assert(res.Attempts, qt.HasLen, 1)
	c.Assert(h.backoffs, qt.Equals, 0)
	c.Assert(gotPath, qt.Equals, "/api/v1/submit-proof/test-api-key")
	c.Assert(h.journalLines(c), qt.Equals, "[1][1] {\"status\": \"ok\"}\n")
}

func TestSubmitRetriesRateLimit(t *testing.T) {
	c := qt.New(t)

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("Too Many Requests"))
			return
		}
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	}))
	defer srv.Close()

	h := newSubmitterHarness(t, srv.URL)
	req, err := NewSubmitProofRequest(testArtifact(c), testVkeyJSON)
	c.Assert(err, qt.IsNil)

	res, err := h.submitter.Submit(context.Background(), 3, req)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Outcome, qt.Equals, OutcomeAccepted)
	c.Assert(res.Attempts, qt.HasLen, 3)
	c.Assert(res.Attempts[0].Outcome, qt.Equals, OutcomeRateLimited)
	c.Assert(res.Attempts[1].Outcome, qt.Equals, OutcomeRateLimited)
	c.Assert(res.Attempts[2].Outcome, qt.Equals, OutcomeAccepted)
	// one backoff between each pair of attempts, none after success
	c.Assert(h.backoffs, qt.Equals, 2)
	c.Assert(h.journalLines(c), qt.Equals,
		"[3][1] Too Many Requests\n[3][2] Too Many Requests\n[3][3] {\"status\": \"ok\"}\n")
}

// The rate limit marker can arrive in a 200 body; classification is by
// content, not only status code.
func TestSubmitMarkerInOKBody(t *testing.T) {
	c := qt.New(t)

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			_, _ = w.Write([]byte(`{"error": "Too Many Requests"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	}))
	defer srv.Close()

	h := newSubmitterHarness(t, srv.URL)
	req, err := NewSubmitProofRequest(testArtifact(c), testVkeyJSON)
	c.Assert(err, qt.IsNil)

	res, err := h.submitter.Submit(context.Background(), 1, req)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Outcome, qt.Equals, OutcomeAccepted)
	c.Assert(res.Attempts[0].Outcome, qt.Equals, OutcomeRateLimited)
}

func TestSubmitExhausted(t *testing.T) {
	c := qt.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("Too Many Requests"))
	}))
	defer srv.Close()

	h := newSubmitterHarness(t, srv.URL)
	req, err := NewSubmitProofRequest(testArtifact(c), testVkeyJSON)
	c.Assert(err, qt.IsNil)

	res, err := h.submitter.Submit(context.Background(), 7, req)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Outcome, qt.Equals, OutcomeExhausted)
	c.Assert(res.Attempts, qt.HasLen, 5)
	// no backoff after the final attempt
	c.Assert(h.backoffs, qt.Equals, 4)

	records, err := h.journal.Records()
	c.Assert(err, qt.IsNil)
	c.Assert(records, qt.HasLen, 5)
	for i, r := range records {
		c.Assert(r.Iteration, qt.Equals, 7)
		c.Assert(r.Attempt, qt.Equals, i+1)
		c.Assert(string(r.Response), qt.Equals, "Too Many Requests")
	}
}

func TestSubmitTransportFailureJournaled(t *testing.T) {
	c := qt.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	}))
	// closed before any request: every attempt fails at the transport
	serverURL := srv.URL
	srv.Close()

	h := newSubmitterHarness(t, serverURL)
	h.submitter.SetMaxAttempts(2)
	req, err := NewSubmitProofRequest(testArtifact(c), testVkeyJSON)
	c.Assert(err, qt.IsNil)

	res, err := h.submitter.Submit(context.Background(), 1, req)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Outcome, qt.Equals, OutcomeExhausted)

	records, err := h.journal.Records()
	c.Assert(err, qt.IsNil)
	c.Assert(records, qt.HasLen, 2)
	c.Assert(string(records[0].Response), qt.Matches, "request failed: .*")
}

// Every attempt's response must show up on the console log as well as in the
// journal.
func TestSubmitLogsResponseBody(t *testing.T) {
	c := qt.New(t)

	logPath := filepath.Join(t.TempDir(), "console.log")
	log.Init(log.LogLevelDebug, logPath, nil)
	defer log.Init(log.LogLevelInfo, "stderr", nil)

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("Too Many Requests"))
			return
		}
		_, _ = w.Write([]byte("accepted-7c1f"))
	}))
	defer srv.Close()

	h := newSubmitterHarness(t, srv.URL)
	req, err := NewSubmitProofRequest(testArtifact(c), testVkeyJSON)
	c.Assert(err, qt.IsNil)

	res, err := h.submitter.Submit(context.Background(), 1, req)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Outcome, qt.Equals, OutcomeAccepted)

	out, err := os.ReadFile(logPath)
	c.Assert(err, qt.IsNil)
	c.Assert(strings.Contains(string(out), "Too Many Requests"), qt.IsTrue)
	c.Assert(strings.Contains(string(out), "accepted-7c1f"), qt.IsTrue)
}

func TestSubmitContextCancelled(t *testing.T) {
	c := qt.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("Too Many Requests"))
	}))
	defer srv.Close()

	h := newSubmitterHarness(t, srv.URL)
	req, err := NewSubmitProofRequest(testArtifact(c), testVkeyJSON)
	c.Assert(err, qt.IsNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.submitter.Submit(ctx, 1, req)
	c.Assert(err, qt.ErrorIs, context.Canceled)
}
