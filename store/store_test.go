// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/netcheck/netcheck/result"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{
		Dir:          t.TempDir(),
		Prefix:       "test",
		LockAttempts: 3,
		LockBackoff:  10 * time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)
	return s
}

func sampleResult(targetName string) *result.TargetResult {
	res := result.New(targetName, time.Now())
	o := result.Success()
	o.TimeMs = result.Float(12.5)
	res.Set(result.KindPing, o)
	return res
}

func (s *Store) todayPath() string {
	return s.dayPath(s.now().UTC().Format("20060102"))
}

func readDocument(t *testing.T, path string) []result.TargetResult {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var docs []result.TargetResult
	require.NoError(t, json.Unmarshal(data, &docs), "document not valid JSON: %s", data)
	return docs
}

func TestAppendAndFinalize(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Append(sampleResult("a.example.com")))
	require.NoError(t, s.Append(sampleResult("b.example.com")))

	// Mid-run the array is intentionally unterminated.
	data, err := os.ReadFile(s.todayPath())
	require.NoError(t, err)
	var parsed []result.TargetResult
	assert.Error(t, json.Unmarshal(data, &parsed))

	require.NoError(t, s.Finalize())
	docs := readDocument(t, s.todayPath())
	require.Len(t, docs, 2)
	assert.Equal(t, "a.example.com", docs[0].Target)
	assert.Equal(t, "b.example.com", docs[1].Target)
}

func TestConcurrentAppends(t *testing.T) {
	s := newTestStore(t)
	const n = 25

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Append(sampleResult(fmt.Sprintf("host-%d.example.com", i))))
		}(i)
	}
	wg.Wait()

	require.NoError(t, s.Finalize())
	docs := readDocument(t, s.todayPath())
	assert.Len(t, docs, n)
}

func TestFinalizeIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(sampleResult("a.example.com")))

	require.NoError(t, s.Finalize())
	first, err := os.ReadFile(s.todayPath())
	require.NoError(t, err)

	require.NoError(t, s.Finalize())
	second, err := os.ReadFile(s.todayPath())
	require.NoError(t, err)

	assert.Equal(t, first, second, "second finalize must not add a closing bracket")
}

func TestFinalizeWithoutAppendsWritesEmptyArray(t *testing.T) {
	s := newTestStore(t)
	// No document exists yet, nothing to close.
	require.NoError(t, s.Finalize())

	require.NoError(t, s.Append(sampleResult("a.example.com")))
	require.NoError(t, s.Finalize())
	docs := readDocument(t, s.todayPath())
	assert.Len(t, docs, 1)
}

func TestAppendAfterSameDayFinalize(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(sampleResult("a.example.com")))
	require.NoError(t, s.Finalize())

	// A second run on the same day reopens the finalized document.
	require.NoError(t, s.Append(sampleResult("b.example.com")))
	require.NoError(t, s.Finalize())

	docs := readDocument(t, s.todayPath())
	require.Len(t, docs, 2)
	assert.Equal(t, "b.example.com", docs[1].Target)
}

func TestAppendRecoversFromTornWrite(t *testing.T) {
	// Each case simulates a crash mid-append: a dangling partial element
	// after a complete one. Recovery must truncate back to the complete
	// element regardless of where inside the partial one the write died.
	tests := []struct {
		name    string
		partial string
	}{
		{
			name:    "mid key",
			partial: ",\n{\"target\":\"torn",
		},
		{
			name:    "inside a nested outcome",
			partial: ",\n{\"target\":\"torn\",\"dns\":{\"status\":\"success\"},\"ping\":{\"stat",
		},
		{
			name:    "ends at a nested closing brace",
			partial: ",\n{\"target\":\"torn\",\"dns\":{\"status\":\"success\"}",
		},
		{
			name:    "braces inside a string value",
			partial: ",\n{\"target\":\"torn\",\"dns\":{\"status\":\"failed\",\"error\":\"got {garbage}\"},\"ping\":{\"st",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			require.NoError(t, s.Append(sampleResult("a.example.com")))

			f, err := os.OpenFile(s.todayPath(), os.O_APPEND|os.O_WRONLY, 0o644)
			require.NoError(t, err)
			_, err = f.WriteString(tt.partial)
			require.NoError(t, err)
			require.NoError(t, f.Close())

			require.NoError(t, s.Append(sampleResult("b.example.com")))
			require.NoError(t, s.Finalize())

			docs := readDocument(t, s.todayPath())
			require.Len(t, docs, 2)
			assert.Equal(t, "a.example.com", docs[0].Target)
			assert.Equal(t, "b.example.com", docs[1].Target)
		})
	}
}

func TestAppendRecoversWhenNoElementIsComplete(t *testing.T) {
	s := newTestStore(t)

	// The very first append died mid-element: nothing but a torn head.
	require.NoError(t, os.WriteFile(s.todayPath(), []byte("[\n{\"target\":\"torn\",\"dns\":{\"st"), 0o644))

	require.NoError(t, s.Append(sampleResult("a.example.com")))
	require.NoError(t, s.Finalize())

	docs := readDocument(t, s.todayPath())
	require.Len(t, docs, 1)
	assert.Equal(t, "a.example.com", docs[0].Target)
}

func TestAppendSkipsOnLockContention(t *testing.T) {
	s := newTestStore(t)
	s.lockAttempts = 2
	s.lockBackoff = time.Millisecond

	// Hold the document lock so the writer cannot acquire it.
	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	err := s.Append(sampleResult("a.example.com"))
	require.Error(t, err)
	var cerr *ConcurrencyError
	assert.ErrorAs(t, err, &cerr)

	_, statErr := os.Stat(s.todayPath())
	assert.True(t, os.IsNotExist(statErr), "dropped result must not touch the document")
}

func TestWriteTraceroute(t *testing.T) {
	s := newTestStore(t)
	path, err := s.WriteTraceroute("example.com", "1  10.0.0.1  1.234 ms\n")
	require.NoError(t, err)

	assert.Regexp(t, `traceroute-example\.com-\d{8}-\d{6}\.txt$`, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "10.0.0.1")
}

func TestSweepRemovesExpiredFiles(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(sampleResult("a.example.com")))
	require.NoError(t, s.Finalize())

	old := filepath.Join(s.dir, "test-results-20200101.json")
	require.NoError(t, os.WriteFile(old, []byte("[]"), 0o644))
	stale := time.Now().AddDate(0, 0, -90)
	require.NoError(t, os.Chtimes(old, stale, stale))

	unrelated := filepath.Join(s.dir, "keep.txt")
	require.NoError(t, os.WriteFile(unrelated, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(unrelated, stale, stale))

	removed := s.Sweep(30)
	assert.Equal(t, 1, removed)

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(unrelated)
	assert.NoError(t, err, "files outside the store naming scheme are kept")
	_, err = os.Stat(s.todayPath())
	assert.NoError(t, err)
}

func TestSweepDisabled(t *testing.T) {
	s := newTestStore(t)
	assert.Zero(t, s.Sweep(0))
	assert.Zero(t, s.Sweep(-1))
}
