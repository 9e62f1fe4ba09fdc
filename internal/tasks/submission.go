package tasks

import (
	"context"
	"sync"

	"github.com/desertthunder/ecn/internal/services"
)

// SubmitFunc performs one submission, reporting upload progress through onProgress.
type SubmitFunc func(ctx context.Context, onProgress services.ProgressFunc) (services.Result, error)

// Submission is an in-flight submission: a future for its result plus a stream of upload percentages.
type Submission struct {
	progress chan int
	done     chan struct{}

	mu   sync.Mutex
	last int

	result services.Result
	err    error
}

// Submit runs fn in a new goroutine. Cancel ctx to abandon the request.
func Submit(ctx context.Context, fn SubmitFunc) *Submission {
	s := &Submission{
		progress: make(chan int, 101),
		done:     make(chan struct{}),
		last:     -1,
	}

	go func() {
		defer close(s.done)
		defer close(s.progress)
		s.result, s.err = fn(ctx, s.send)
	}()

	return s
}

// send forwards strictly increasing percentages without blocking the uploader.
//
// At most 101 distinct values exist, so the buffered channel never drops one.
func (s *Submission) send(percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if percent <= s.last || percent > 100 {
		return
	}
	s.last = percent
	select {
	case s.progress <- percent:
	default:
	}
}

// Progress streams upload percentages. It is closed before [Submission.Wait] returns.
func (s *Submission) Progress() <-chan int {
	return s.progress
}

// Done is closed when the submission finishes.
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the submission finishes and returns its outcome.
func (s *Submission) Wait() (services.Result, error) {
	<-s.done
	return s.result, s.err
}
