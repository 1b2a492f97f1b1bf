package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ersonp/popolo-core/internal/domain/entities"
)

func newSearchCmd() *cobra.Command {
	var (
		kind  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find persons and organizations by name",
		Long: `Searches names and alternate names. With a name index configured the
search is semantic, otherwise names are matched as text.

Examples:
  popolo search "Mario Rossi"
  popolo search camera --kind organization`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withDeps(func(d *Deps) error {
				result, err := d.Search.Handle(cmd.Context(), query, entities.OwnerKind(kind), limit)
				if err != nil {
					return err
				}

				if len(result.Matches) == 0 {
					fmt.Println("No matches found.")
					return nil
				}

				mode := "text"
				if result.Semantic {
					mode = "semantic"
				}
				fmt.Printf("Found %d matches (%s):\n\n", len(result.Matches), mode)
				for i, m := range result.Matches {
					fmt.Printf("%d. [%.2f] %s %s\n", i+1, m.Score, color.CyanString(m.Name), m.Ref())
					if len(m.OtherNames) > 0 {
						fmt.Printf("   also: %s\n", strings.Join(m.OtherNames, "; "))
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Only person or organization names")
	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultSearchLimit, "Maximum number of matches")

	cmd.AddCommand(&cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the name index from the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				n, err := d.Search.HandleReindex(cmd.Context())
				if err != nil {
					return fmt.Errorf("reindexing: %w", err)
				}
				fmt.Printf("Indexed %d entities\n", n)
				return nil
			})
		},
	})

	return cmd
}
