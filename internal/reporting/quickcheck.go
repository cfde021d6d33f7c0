package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

// HighMissingThreshold is the missing percentage QuickCheck warns above.
const HighMissingThreshold = 50.0

var rule = strings.Repeat("=", 60)

// QuickCheck prints a short diagnostic report to w and returns the summary
// it was built from. Colors follow color.NoColor, so output to a file or
// pipe is plain text.
func QuickCheck(rec audit.Recorder, w io.Writer, f *frame.Frame) (Summary, error) {
	s := summarize(f)
	high := highMissing(missingness(f), HighMissingThreshold)

	bold := color.New(color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", rule)
	fmt.Fprintf(&b, "%s\n", bold("fdakit quick check"))
	fmt.Fprintf(&b, "%s\n\n", rule)
	fmt.Fprintf(&b, "Shape:            (%d, %d)\n", s.Rows, s.Columns)
	fmt.Fprintf(&b, "Total cells:      %d\n", s.TotalCells)
	fmt.Fprintf(&b, "Null cells:       %d (%.2f%%)\n", s.NullCells, s.NullPercent)
	fmt.Fprintf(&b, "Duplicated rows:  %d\n", s.DuplicatedRows)
	fmt.Fprintf(&b, "Approx size:      %.2f KB\n", float64(s.ApproxBytes)/1024)

	if len(high) > 0 {
		fmt.Fprintf(&b, "\n%s\n", yellow(fmt.Sprintf("High missing values (>%.0f%%):", HighMissingThreshold)))
		for _, p := range high {
			fmt.Fprintf(&b, "   %s: %.2f%%\n", p.Column, p.MissingPercent)
		}
	} else {
		fmt.Fprintf(&b, "\n%s\n", green("No columns above the missing threshold"))
	}
	fmt.Fprintf(&b, "\n%s\n", rule)

	_, err := io.WriteString(w, b.String())

	rec.Record("quick_check", audit.Shape(f), audit.State{
		"null_cells":      s.NullCells,
		"duplicated_rows": s.DuplicatedRows,
		"high_missing":    len(high),
	})
	if err != nil {
		return s, fmt.Errorf("writing quick check: %w", err)
	}
	return s, nil
}
