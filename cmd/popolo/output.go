package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/ersonp/popolo-core/internal/domain/reconcile"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outcomeLabel colors a reconciliation outcome.
func outcomeLabel(outcome string) string {
	switch outcome {
	case reconcile.Created.String():
		return color.GreenString(outcome)
	case reconcile.Updated.String():
		return color.CyanString(outcome)
	case reconcile.NoOp.String():
		return color.New(color.Faint).Sprint("unchanged")
	default:
		return color.RedString(outcome)
	}
}

func printOutcome(kind, outcome, id string) {
	fmt.Printf("%s %s %s\n", outcomeLabel(outcome), kind, id)
}

func printReplace(kind string, r reconcile.ReplaceResult) {
	fmt.Printf("Replaced %s: %d deleted, %d overwritten, %d added\n", kind, r.Deleted, r.Overwritten, r.Added)
}

func warnf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, color.YellowString(format, args...))
}
