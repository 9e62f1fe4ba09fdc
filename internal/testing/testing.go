// Package testing holds helpers shared by the package tests: failing I/O stubs, a canned
// [http.RoundTripper], file assertions and [FakeBackend], an in-memory ECN REST API.
package testing

import (
	"errors"
	"io"
	"net/http"
	"os"
	"testing"
)

var (
	errWrite = errors.New("write failed")
	errRead  = errors.New("read failed")
)

// FWriter fails every write. Use it as a command's output to exercise write errors.
type FWriter struct{}

func (*FWriter) Write([]byte) (int, error) { return 0, errWrite }

// LimitedWriter passes writes to target until maxWrites is reached, then fails.
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (int, error) {
	if l.written >= l.maxWrites {
		return 0, errWrite
	}
	l.written++
	return l.target.Write(p)
}

// NewLimitedWriter starts with written writes already counted.
func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper answers every request with the same response or error.
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser is a response body whose reads fail.
type FCloser struct{}

func (*FCloser) Read([]byte) (int, error) { return 0, errRead }

func (*FCloser) Close() error { return nil }

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	return wd
}

// MustChdir changes the process working directory. Callers restore it themselves.
func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected file %s: %v", path, err)
		return
	}
	if info.IsDir() {
		t.Errorf("expected %s to be a file, got a directory", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected directory %s: %v", path, err)
		return
	}
	if !info.IsDir() {
		t.Errorf("expected %s to be a directory", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(content)
}
