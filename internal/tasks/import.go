package tasks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/time/rate"

	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/services"
	"github.com/desertthunder/ecn/internal/shared"
)

// Creator is the create half of a [services.Resource].
type Creator interface {
	Create(ctx context.Context, form models.Form, onProgress services.ProgressFunc) (services.Result, error)
}

// ImportRow is one form to create. Row is the 1-based source line used in reports.
type ImportRow struct {
	Row   int
	Label string
	Form  models.Form
}

// ImportOpts contains configuration for bulk imports.
type ImportOpts struct {
	NumWorkers int     // Concurrent workers (default: 3, max: 10)
	RateLimit  float64 // Requests per second (default: 5)
}

// RowResult is the outcome of a single row.
type RowResult struct {
	Row     int
	Label   string
	Success bool
	Message string
	Error   error
}

// ImportResult summarizes a bulk import. Results are ordered by row.
type ImportResult struct {
	Total     int
	Invalid   int
	Succeeded int
	Failed    int
	Results   []RowResult
}

// BulkImport validates every row and then creates the valid ones concurrently under a rate limit.
//
// Invalid rows never reach the network. A cancelled context stops dispatching; rows not yet sent
// are reported as failed with [shared.ErrCancelled].
func BulkImport(ctx context.Context, prog chan<- ProgressUpdate, c Creator, rows []ImportRow, opts ImportOpts) (*ImportResult, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: no resource to import into", shared.ErrInvalidArgument)
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	result := &ImportResult{Total: len(rows), Results: make([]RowResult, 0, len(rows))}

	valid := make([]ImportRow, 0, len(rows))
	for i, row := range rows {
		if err := row.Form.Validate(); err != nil {
			res := RowResult{Row: row.Row, Label: row.Label, Error: err}
			result.Invalid++
			result.Results = append(result.Results, res)
			sendProgress(prog, invalidRowUpdate(i+1, len(rows), res))
			continue
		}
		valid = append(valid, row)
	}
	sendProgress(prog, validatedUpdate(len(valid), len(rows)))

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan ImportRow, len(valid))
	results := make(chan RowResult, len(valid))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go importWorker(ctx, &wg, c, jobs, results)
	}

	go func() {
		defer close(jobs)
		for i, row := range valid {
			if err := limiter.Wait(ctx); err != nil {
				for _, skipped := range valid[i:] {
					results <- RowResult{Row: skipped.Row, Label: skipped.Label, Error: fmt.Errorf("%w: %w", shared.ErrCancelled, err)}
				}
				return
			}
			jobs <- row
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)
		if res.Success {
			result.Succeeded++
			sendProgress(prog, submittedUpdate(completed, len(valid), res))
		} else {
			result.Failed++
			sendProgress(prog, submitFailedUpdate(completed, len(valid), res))
		}
	}

	sort.SliceStable(result.Results, func(i, j int) bool {
		return result.Results[i].Row < result.Results[j].Row
	})

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("%w: import interrupted: %w", shared.ErrCancelled, err)
	}
	return result, nil
}

// importWorker creates rows from the jobs channel until it is closed.
func importWorker(ctx context.Context, wg *sync.WaitGroup, c Creator, jobs <-chan ImportRow, results chan<- RowResult) {
	defer wg.Done()

	for job := range jobs {
		res := RowResult{Row: job.Row, Label: job.Label}
		out, err := c.Create(ctx, job.Form, nil)
		if err != nil {
			res.Error = err
			res.Message = services.ServerMessage(err)
		} else {
			res.Success = true
			res.Message = out.Message
		}
		results <- res
	}
}
