package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ValidateRows Phase = iota
	SubmitRows
	Upload
)

func (p Phase) String() string {
	switch p {
	case ValidateRows:
		return "validate_rows"
	case SubmitRows:
		return "submit_rows"
	case Upload:
		return "upload"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func invalidRowUpdate(step, total int, row RowResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ValidateRows,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ row %d (%s): %v", step, total, row.Row, row.Label, row.Error),
		Data:    row,
	}
}

func validatedUpdate(valid, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ValidateRows,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("%d of %d rows valid", valid, total),
	}
}

func submittedUpdate(step, total int, row RowResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SubmitRows,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, row.Label),
		Data:    row,
	}
}

func submitFailedUpdate(step, total int, row RowResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SubmitRows,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, row.Label, row.Error),
		Data:    row,
	}
}

// UploadUpdate wraps an upload percentage for channels of [ProgressUpdate].
func UploadUpdate(percent int, label string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Upload,
		Step:    percent,
		Total:   100,
		Message: fmt.Sprintf("Uploading %s... %d%%", label, percent),
	}
}
