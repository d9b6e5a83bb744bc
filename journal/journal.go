// Package journal implements the append-only audit trail of submission
// attempts. Every attempt is recorded twice: as a plain-text line in a log
// file (the human-facing trail, never truncated or reordered) and as a
// cbor-encoded record in a prefixed key-value store, keyed so that store
// order equals submission order.
package journal

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

var attemptPrefix = []byte("a/")

// AttemptRecord is the durable record of a single submission attempt. The
// response body is stored verbatim, whatever the relayer returned.
type AttemptRecord struct {
	Iteration int       `json:"iteration"`
	Attempt   int       `json:"attempt"`
	Response  []byte    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// Line returns the attempt formatted as a journal file line, without the
// trailing newline.
func (r *AttemptRecord) Line() string {
	return fmt.Sprintf("[%d][%d] %s", r.Iteration, r.Attempt, r.Response)
}

// Journal is the append-only attempt log. A single writer is assumed; the
// mutex only guards against accidental concurrent use.
type Journal struct {
	mu   sync.Mutex
	db   db.Database
	file *os.File
}

// New opens (or creates) the journal file at path in append mode and wraps
// the given database for the record store. The caller keeps ownership of the
// database; Close only closes the file.
func New(database db.Database, path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal file: %w", err)
	}
	return &Journal{db: database, file: f}, nil
}

// Append records one submission attempt. The file line has the shape
// "[iteration][attempt] response". Records are never updated or deleted.
func (j *Journal) Append(iteration, attempt int, response []byte) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	record := &AttemptRecord{
		Iteration: iteration,
		Attempt:   attempt,
		Response:  response,
		Timestamp: time.Now(),
	}
	if _, err := fmt.Fprintf(j.file, "%s\n", record.Line()); err != nil {
		return fmt.Errorf("append journal line: %w", err)
	}
	val, err := encodeRecord(record)
	if err != nil {
		return fmt.Errorf("encode attempt record: %w", err)
	}
	wTx := prefixeddb.NewPrefixedWriteTx(j.db.WriteTx(), attemptPrefix)
	if err := wTx.Set(attemptKey(iteration, attempt), val); err != nil {
		wTx.Discard()
		return err
	}
	return wTx.Commit()
}

// Records returns every recorded attempt in submission order: iterations in
// increasing order, attempts of the same iteration in increasing order.
func (j *Journal) Records() ([]*AttemptRecord, error) {
	pr := prefixeddb.NewPrefixedReader(j.db, attemptPrefix)
	var records []*AttemptRecord
	var decodeErr error
	if err := pr.Iterate(nil, func(_, v []byte) bool {
		var r AttemptRecord
		if err := decodeRecord(v, &r); err != nil {
			decodeErr = fmt.Errorf("decode attempt record: %w", err)
			return false
		}
		records = append(records, &r)
		return true
	}); err != nil {
		return nil, fmt.Errorf("iterate attempt records: %w", err)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return records, nil
}

// Close closes the journal file. The record store is left to its owner.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

// attemptKey builds a big-endian iteration/attempt key, so the store's key
// order matches submission order.
func attemptKey(iteration, attempt int) []byte {
	key := make([]byte, 12)
	binary.BigEndian.PutUint64(key[:8], uint64(iteration))
	binary.BigEndian.PutUint32(key[8:], uint32(attempt))
	return key
}

func encodeRecord(r *AttemptRecord) ([]byte, error) {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	return em.Marshal(r)
}

func decodeRecord(data []byte, out *AttemptRecord) error {
	return cbor.Unmarshal(data, out)
}
