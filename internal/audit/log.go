package audit

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// GenesisHash is the prev_hash for the first entry in a new audit log.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// TimestampFormat is the layout used in audit entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// ErrClosed is returned by Record after Close.
var ErrClosed = errors.New("audit: log is closed")

// Log appends host decisions to a JSONL file. Every line carries the hash
// of the line before it, so an edited or deleted entry breaks the chain at
// the next one.
type Log struct {
	mu   sync.Mutex
	path string
	f    *os.File
	tail string // hash of the last written line
	n    int    // entries written by this process
}

// Open appends to the log at path, creating it and its directory with
// owner-only permissions. An existing log is continued from its last line.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}
	tail, err := chainTail(path)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}
	return &Log{path: path, f: f, tail: tail}, nil
}

// chainTail returns the hash of the last non-empty line in path, or
// GenesisHash for a missing or empty file. Lines may be any length.
func chainTail(path string) (string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return GenesisHash, nil
	}
	if err != nil {
		return "", fmt.Errorf("audit: read existing log: %w", err)
	}
	defer f.Close()

	tail := GenesisHash
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadBytes('\n')
		if trimmed := bytes.TrimRight(line, "\r\n"); len(trimmed) > 0 {
			tail = HashLine(trimmed)
		}
		if err == io.EOF {
			return tail, nil
		}
		if err != nil {
			return "", fmt.Errorf("audit: scan existing log: %w", err)
		}
	}
}

// Record stamps entry with the chain tail (and the current time when it has
// none) and appends it, syncing before it returns.
func (l *Log) Record(entry AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return ErrClosed
	}

	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(TimestampFormat)
	}
	entry.PrevHash = l.tail
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: encode %s entry: %w", entry.Op, err)
	}

	buf := make([]byte, 0, len(line)+1)
	buf = append(append(buf, line...), '\n')
	if _, err := l.f.Write(buf); err != nil {
		return fmt.Errorf("audit: append: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("audit: sync: %w", err)
	}
	l.tail = HashLine(line)
	l.n++
	return nil
}

// Path returns the file the log appends to.
func (l *Log) Path() string { return l.path }

// Written returns how many entries this Log has appended since Open.
func (l *Log) Written() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n
}

// Close closes the file. It is safe to call more than once.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil
	return f.Close()
}

// HashLine returns "sha256:<hex>" of line.
func HashLine(line []byte) string {
	sum := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(sum[:])
}
