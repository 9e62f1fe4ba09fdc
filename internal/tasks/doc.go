// Package tasks runs submissions off the caller's goroutine and reports their progress.
//
// # Submissions
//
// [Submit] starts one create or update request and returns a [Submission]: a future for the
// result ([Submission.Wait]) and a stream of upload percentages ([Submission.Progress]). The
// stream is buffered for all 101 possible values so the uploader never blocks.
//
// # Bulk import
//
// [BulkImport] validates every row first; invalid rows are reported and never sent. Valid rows
// are created by a small worker pool behind a [rate.Limiter].
//
// # Progress Reporting
//
// Bulk operations report [ProgressUpdate] values on a caller-owned channel. Updates use select
// with default so a slow reader never stalls the import.
package tasks
