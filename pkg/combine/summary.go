package combine

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"promptpack/pkg/engine"
)

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
)

// Report summarizes a combine run.
type Report struct {
	BatchID   string
	Output    string
	Processed int
	Compacted int
	Binary    int
	BytesIn   int64
	BytesOut  int64
	Elapsed   time.Duration
	Failures  []engine.Result
	Aborted   bool // the user declined to continue
}

func newReport(batchID, output string, batch *engine.Batch, binary int, elapsed time.Duration) *Report {
	r := &Report{
		BatchID:  batchID,
		Output:   output,
		Binary:   binary,
		Elapsed:  elapsed,
		Failures: batch.Errors,
	}
	for _, res := range batch.Results {
		r.Processed++
		if res.Stats.Compacted {
			r.Compacted++
		}
		r.BytesIn += res.Stats.OriginalSize
		r.BytesOut += int64(len(res.Content))
	}
	return r
}

// Failed returns the number of files that could not be processed.
func (r *Report) Failed() int {
	return len(r.Failures)
}

// Render writes a human-readable summary to w.
func (r *Report) Render(w io.Writer) error {
	fmt.Fprintln(w)
	if r.Failed() == 0 {
		green.Fprintf(w, "Combined %d files into %s\n", r.Processed, r.Output)
	} else {
		yellow.Fprintf(w, "Combined %d files into %s, %d failed\n", r.Processed, r.Output, r.Failed())
	}

	table := tablewriter.NewWriter(w)
	table.Header("Processed", "Compacted", "Failed", "Binary Skipped", "Input", "Output", "Elapsed")
	_ = table.Append(
		strconv.Itoa(r.Processed),
		strconv.Itoa(r.Compacted),
		strconv.Itoa(r.Failed()),
		strconv.Itoa(r.Binary),
		formatBytes(r.BytesIn),
		formatBytes(r.BytesOut),
		r.Elapsed.Round(time.Millisecond).String(),
	)
	if err := table.Render(); err != nil {
		return err
	}

	if r.Failed() == 0 {
		return nil
	}
	fmt.Fprintln(w)
	bold.Fprintln(w, "Failures")
	failures := tablewriter.NewWriter(w)
	failures.Header("File", "Error")
	for _, f := range r.Failures {
		_ = failures.Append(f.FilePath, red.Sprint(f.Err.Message))
	}
	return failures.Render()
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
