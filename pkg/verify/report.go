package verify

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
)

// AllPassed reports whether every outcome passed.
func AllPassed(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o.Failed() {
			return false
		}
	}
	return true
}

// WriteReport renders the outcomes as a table, one row per scenario in
// execution order, followed by a one-line verdict.
func WriteReport(w io.Writer, outcomes []Outcome) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Scenario", "Status", "Duration", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, o := range outcomes {
		detail := o.Detail
		if o.Failed() && o.Kind != "" {
			detail = fmt.Sprintf("[%s] %s", o.Kind, o.Detail)
		}
		if o.Fragments > 0 {
			detail = fmt.Sprintf("%s (%d fragments)", detail, o.Fragments)
		}
		table.Append([]string{
			o.Scenario,
			string(o.Status),
			o.Duration.Round(time.Millisecond).String(),
			detail,
		})
	}
	table.Render()

	if AllPassed(outcomes) {
		fmt.Fprintln(w, "all scenarios passed")
	} else {
		fmt.Fprintf(w, "%d of %d scenarios failed\n", countFailed(outcomes), len(outcomes))
	}
}

func countFailed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}
