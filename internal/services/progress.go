package services

import (
	"io"
	"math"
	"sync"
)

// ProgressFunc receives upload progress as a whole percentage in [0, 100].
//
// Calls may come from the transport's writer goroutine and are serialized. Values never decrease,
// never repeat, and a successful upload always ends with 100.
type ProgressFunc func(percent int)

// Percent returns round(sent*100/total), clamped to [0, 100]. An empty body is complete.
func Percent(sent, total int64) int {
	if total <= 0 {
		return 100
	}
	p := int(math.Round(float64(sent) * 100 / float64(total)))
	return min(max(p, 0), 100)
}

// progressReader counts bytes read by the transport and reports percentage changes.
type progressReader struct {
	mu    sync.Mutex
	r     io.Reader
	total int64
	sent  int64
	last  int
	fn    ProgressFunc
}

func newProgressReader(r io.Reader, total int64, fn ProgressFunc) *progressReader {
	return &progressReader{r: r, total: total, last: -1, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.mu.Lock()
		p.sent += int64(n)
		p.report(Percent(p.sent, p.total))
		p.mu.Unlock()
	}
	return n, err
}

func (p *progressReader) report(percent int) {
	if percent <= p.last {
		return
	}
	p.last = percent
	p.fn(percent)
}

// finish reports 100 if the transport never read the final byte.
func (p *progressReader) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.report(100)
}
