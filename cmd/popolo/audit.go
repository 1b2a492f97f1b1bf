package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newAuditCmd() *cobra.Command {
	var (
		action string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "audit [SUBJECT_ID]",
		Short: "Show the audit log",
		Long: `Shows the history of one entity or fact, or the latest entries of
the dataset, optionally of one action (create, extend, merge, overwrite,
replace, delete, import).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var subject string
			if len(args) == 1 {
				subject = args[0]
			}
			return withDeps(func(d *Deps) error {
				entries, err := d.Audit.Handle(cmd.Context(), subject, action, limit)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Println("No audit entries found.")
					return nil
				}
				for _, e := range entries {
					fmt.Printf("%s  %-9s %-38s %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, e.SubjectID, formatDetails(e.Details))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&action, "action", "a", "", "Only entries of this action")
	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultAuditLimit, "Maximum number of entries")

	return cmd
}

// formatDetails renders details as sorted key=value pairs.
func formatDetails(details map[string]any) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, details[k])
	}
	return strings.Join(parts, " ")
}
