package ingest

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/IshaanNene/linkarchive/internal/types"
)

// Result is the outcome of one URL.
type Result struct {
	URL      string
	Slug     string
	Updated  bool
	Success  bool
	Err      error
	Duration time.Duration

	// Item is the record as written, or as it would be written in a dry run.
	// Nil for failures.
	Item *types.ArchivedItem
}

// Action describes what happened to the URL's record.
func (r Result) Action() string {
	switch {
	case !r.Success:
		return "failed"
	case r.Updated:
		return "updated"
	default:
		return "inserted"
	}
}

// Report is the end-of-batch summary. Results keep input order.
type Report struct {
	RunID    string
	DryRun   bool
	Results  []Result
	Started  time.Time
	Finished time.Time
}

// Succeeded returns the number of successful URLs.
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

// Failed returns the number of failed URLs.
func (r *Report) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// Failures returns the failed results in input order.
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Success {
			out = append(out, res)
		}
	}
	return out
}

// ExitCode is 1 if any URL failed, else 0.
func (r *Report) ExitCode() int {
	if r.Failed() > 0 {
		return 1
	}
	return 0
}

// Render writes the per-URL table and the failure list to w.
func (r *Report) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "URL", "Result", "Slug", "Time"})
	for i, res := range r.Results {
		t.AppendRow(table.Row{
			i + 1,
			res.URL,
			res.Action(),
			res.Slug,
			res.Duration.Round(time.Millisecond),
		})
	}
	t.Render()

	summary := fmt.Sprintf("%d succeeded, %d failed in %s", r.Succeeded(), r.Failed(), r.Finished.Sub(r.Started).Round(time.Millisecond))
	if r.DryRun {
		summary += " (dry run)"
	}
	fmt.Fprintf(w, "\n%s\n", summary)

	if r.DryRun {
		r.renderPlanned(w)
	}

	failures := r.Failures()
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(w, "\nFailures:\n")
	for _, res := range failures {
		fmt.Fprintf(w, "  %s: %v\n", res.URL, res.Err)
	}
}

// renderPlanned writes the JSON of every record a dry run would have written.
func (r *Report) renderPlanned(w io.Writer) {
	fmt.Fprintf(w, "\nWould write:\n")
	for _, res := range r.Results {
		if res.Item == nil {
			continue
		}
		data, err := res.Item.ToJSON()
		if err != nil {
			fmt.Fprintf(w, "  %s: encode: %v\n", res.URL, err)
			continue
		}
		fmt.Fprintf(w, "%s\n", data)
	}
}
