package relayer

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/zkpipe/zkpipe/config"
	"github.com/zkpipe/zkpipe/journal"
	"github.com/zkpipe/zkpipe/log"
)

// Outcome classifies the final state of a submission after the retry loop.
type Outcome int

const (
	// OutcomeAccepted means the relayer took the proof.
	OutcomeAccepted Outcome = iota
	// OutcomeRateLimited is the per-attempt classification for a rate
	// limited response, never a final submission outcome.
	OutcomeRateLimited
	// OutcomeExhausted means every allowed attempt was rate limited.
	OutcomeExhausted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRateLimited:
		return "rateLimited"
	case OutcomeExhausted:
		return "exhausted"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Attempt is the record of a single POST to the relayer.
type Attempt struct {
	Index   int
	Status  int
	Body    []byte
	Outcome Outcome
}

// Result is the final state of one submission, with every attempt made.
type Result struct {
	Outcome  Outcome
	Attempts []Attempt
}

// Submitter posts proof payloads to the relayer and retries rate limited
// attempts up to a bounded number of times. Every attempt, successful or
// not, is recorded in the journal before the outcome is acted on.
type Submitter struct {
	client      *HTTPclient
	journal     *journal.Journal
	apiKey      string
	maxAttempts int
	backoff     func(ctx context.Context) error
}

// NewSubmitter creates a submitter. The backoff function is called between
// rate limited attempts; it is injected so callers control the delay policy
// (and tests can make it instant).
func NewSubmitter(client *HTTPclient, jnl *journal.Journal, apiKey string,
	backoff func(ctx context.Context) error,
) *Submitter {
	return &Submitter{
		client:      client,
		journal:     jnl,
		apiKey:      apiKey,
		maxAttempts: config.DefaultMaxAttempts,
		backoff:     backoff,
	}
}

// SetMaxAttempts overrides the attempt budget per submission.
func (s *Submitter) SetMaxAttempts(n int) {
	s.maxAttempts = n
}

// Submit posts the payload to the relayer, retrying rate limited responses
// until acceptance or until the attempt budget runs out. The iteration
// number is only used to tag journal records. A Result is returned for both
// accepted and exhausted submissions; the error is reserved for local
// failures (journal writes, context cancellation).
func (s *Submitter) Submit(ctx context.Context, iteration int, payload *SubmitProofRequest) (*Result, error) {
	res := &Result{}
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, status, err := s.client.Request(HTTPPOST, payload, nil, config.SubmitProofRoute, s.apiKey)
		if err != nil {
			// A transport failure is journaled and retried like a rate
			// limited response: the proof may still land on a later try.
			body = []byte(fmt.Sprintf("request failed: %v", err))
		}
		if jerr := s.journal.Append(iteration, attempt, body); jerr != nil {
			return nil, fmt.Errorf("journal append: %w", jerr)
		}

		a := Attempt{Index: attempt, Status: status, Body: body, Outcome: OutcomeAccepted}
		if err != nil || status == http.StatusTooManyRequests ||
			bytes.Contains(body, []byte(config.RateLimitMarker)) {
			a.Outcome = OutcomeRateLimited
		}
		res.Attempts = append(res.Attempts, a)

		if a.Outcome == OutcomeAccepted {
			log.Infow("proof submitted",
				"iteration", iteration,
				"attempt", attempt,
				"status", status,
				"response", truncateBody(body),
			)
			res.Outcome = OutcomeAccepted
			return res, nil
		}

		log.Warnw("submission rate limited",
			"iteration", iteration,
			"attempt", attempt,
			"maxAttempts", s.maxAttempts,
			"status", status,
			"response", truncateBody(body),
		)
		if attempt < s.maxAttempts {
			if err := s.backoff(ctx); err != nil {
				return nil, err
			}
		}
	}
	log.Errorw(fmt.Errorf("attempt budget exhausted after %d tries", s.maxAttempts),
		fmt.Sprintf("giving up on iteration %d", iteration))
	res.Outcome = OutcomeExhausted
	return res, nil
}

// truncateBody bounds a response body for log fields. The journal keeps the
// full body, the console line only needs enough to identify it.
func truncateBody(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
