// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

// Package store persists target results into one append-only JSON array
// document per calendar day.
//
// The document is intentionally an unterminated array between writes:
// Append adds one element under an exclusive lock, Finalize writes the
// closing bracket. Writers that cannot acquire the lock within a bounded
// retry window skip their result with a warning instead of blocking the
// run or corrupting the file.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/netcheck/netcheck/result"
)

const (
	// DefaultLockAttempts and DefaultLockBackoff bound how long a writer
	// waits for the document lock before dropping its result.
	DefaultLockAttempts = 30
	DefaultLockBackoff  = time.Second
)

// ConcurrencyError reports that the result document lock could not be
// acquired within the retry window. The result is dropped, never the run.
type ConcurrencyError struct {
	Path string
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("could not acquire lock on result document %s", e.Path)
}

// Config configures a Store.
type Config struct {
	// Dir is the directory holding result documents and traceroute dumps.
	Dir string
	// Prefix names the result documents: <prefix>-results-YYYYMMDD.json.
	Prefix string
	// LockAttempts and LockBackoff tune the acquire-with-timeout loop.
	// Zero values take the defaults.
	LockAttempts int
	LockBackoff  time.Duration
}

// Store is the single in-process owner of the day-keyed result document.
type Store struct {
	dir          string
	prefix       string
	lockAttempts int
	lockBackoff  time.Duration
	logger       *zap.Logger

	sem     chan struct{}
	lastDay string // day key of the most recent append, guarded by sem

	now func() time.Time
}

// New creates the results directory if needed and returns a Store.
func New(cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.LockAttempts <= 0 {
		cfg.LockAttempts = DefaultLockAttempts
	}
	if cfg.LockBackoff <= 0 {
		cfg.LockBackoff = DefaultLockBackoff
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "netcheck"
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating results directory")
	}
	return &Store{
		dir:          cfg.Dir,
		prefix:       cfg.Prefix,
		lockAttempts: cfg.LockAttempts,
		lockBackoff:  cfg.LockBackoff,
		logger:       logger,
		sem:          make(chan struct{}, 1),
		now:          time.Now,
	}, nil
}

// acquire tries to take the document lock, backing off between attempts.
func (s *Store) acquire() bool {
	for i := 0; i < s.lockAttempts; i++ {
		select {
		case s.sem <- struct{}{}:
			return true
		default:
		}
		time.Sleep(s.lockBackoff)
	}
	return false
}

func (s *Store) release() {
	<-s.sem
}

func (s *Store) dayPath(day string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-results-%s.json", s.prefix, day))
}

// Append serializes res and adds it to today's document. On lock-acquire
// timeout the result is dropped and a ConcurrencyError returned; callers
// log and continue.
func (s *Store) Append(res *result.TargetResult) error {
	day := s.now().UTC().Format("20060102")
	path := s.dayPath(day)

	if !s.acquire() {
		s.logger.Warn("dropping result, document lock not acquired",
			zap.String("target", res.Target), zap.String("path", path))
		return &ConcurrencyError{Path: path}
	}
	defer s.release()
	s.lastDay = day

	data, err := json.Marshal(res)
	if err != nil {
		return errors.Wrap(err, "marshalling target result")
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return errors.Wrap(err, "opening result document")
	}
	defer f.Close()

	offset, first, err := recoverOffset(f)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if first {
		buf.WriteString("[\n")
	} else {
		buf.WriteString(",\n")
	}
	buf.Write(data)

	if err := f.Truncate(offset); err != nil {
		return errors.Wrap(err, "truncating result document")
	}
	if _, err := f.WriteAt(buf.Bytes(), offset); err != nil {
		return errors.Wrap(err, "appending target result")
	}
	return nil
}

// Finalize closes the array of the most recently written document. It is
// idempotent: finalizing an already-closed document is a no-op.
func (s *Store) Finalize() error {
	if !s.acquire() {
		return &ConcurrencyError{Path: s.dayPath(s.now().UTC().Format("20060102"))}
	}
	defer s.release()

	day := s.lastDay
	if day == "" {
		day = s.now().UTC().Format("20060102")
	}
	path := s.dayPath(day)

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "opening result document")
	}
	defer f.Close()

	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading result document")
	}
	if trimmed := bytes.TrimRight(content, " \t\r\n"); len(trimmed) > 0 && trimmed[len(trimmed)-1] == ']' {
		return nil // already finalized
	}

	offset, first, err := recoverOffset(f)
	if err != nil {
		return err
	}
	if err := f.Truncate(offset); err != nil {
		return errors.Wrap(err, "truncating result document")
	}

	closing := "\n]\n"
	if first {
		closing = "[]\n"
	}
	if _, err := f.WriteAt([]byte(closing), offset); err != nil {
		return errors.Wrap(err, "closing result document")
	}
	return nil
}

// recoverOffset scans the document and returns the offset at which the
// next element may be written, discarding a premature closing bracket
// (a finalized earlier run on the same day) and any torn trailing bytes
// from an interrupted write. first reports whether the array is empty.
//
// Elements nest objects (one per test kind), so the boundary of the last
// complete element is found by tracking brace depth outside string
// literals, not by looking for the last closing brace: a torn element
// may well end at a nested brace.
func recoverOffset(f *os.File) (int64, bool, error) {
	content, err := os.ReadFile(f.Name())
	if err != nil {
		return 0, false, errors.Wrap(err, "reading result document")
	}

	trimmed := bytes.TrimRight(content, " \t\r\n")
	if len(trimmed) == 0 {
		return 0, true, nil
	}

	// Reopened after a same-day finalize: strip the closing bracket and
	// keep appending to the array.
	if trimmed[len(trimmed)-1] == ']' {
		trimmed = bytes.TrimRight(trimmed[:len(trimmed)-1], " \t\r\n,")
	}
	if len(trimmed) == 0 {
		return 0, true, nil
	}

	open := bytes.IndexByte(trimmed, '[')
	if open < 0 {
		return 0, true, nil
	}

	last := -1
	depth := 0
	inString := false
	escaped := false
	for i := open + 1; i < len(trimmed); i++ {
		c := trimmed[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				last = i
			}
		}
	}

	if last < 0 {
		// No complete element survives. Writers rewrite the opening
		// bracket themselves, so hand back its offset.
		return int64(open), true, nil
	}
	return int64(last) + 1, false, nil
}

// WriteTraceroute stores the raw tool output of a successful traceroute
// and returns the file path.
func (s *Store) WriteTraceroute(hostname, raw string) (string, error) {
	ts := s.now().UTC().Format("20060102-150405")
	path := filepath.Join(s.dir, fmt.Sprintf("traceroute-%s-%s.txt", hostname, ts))
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		return "", errors.Wrap(err, "writing traceroute output")
	}
	return path, nil
}

// Sweep deletes result documents and traceroute dumps older than
// retentionDays. A non-positive retention disables the sweep.
func (s *Store) Sweep(retentionDays int) int {
	if retentionDays <= 0 {
		return 0
	}
	cutoff := s.now().AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("retention sweep failed", zap.Error(err))
		return 0
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, s.prefix+"-results-") && !strings.HasPrefix(name, "traceroute-") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			s.logger.Warn("could not remove expired file", zap.String("file", name), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("retention sweep removed expired files", zap.Int("count", removed))
	}
	return removed
}
