package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/popolo-core/internal/application/handlers"
	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/reconcile"
	"github.com/ersonp/popolo-core/internal/domain/services"
)

// readItems decodes a JSON array of facts from path.
func readItems[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return items, nil
}

// printResults reports each stored fact, then every failure of the batch.
func printResults[T any](kind string, results []services.Result[T], id func(T) string, err error) error {
	for _, r := range results {
		printOutcome(kind, r.Outcome, id(r.Item))
	}
	failures := reconcile.Failures(err)
	for _, f := range failures {
		warnf("  %v", f)
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d of %d %ss failed", len(failures), len(failures)+len(results), kind)
	}
	return nil
}

func newIdentifierCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "identifier",
		Aliases: []string{"id"},
		Short:   "Manage dated identifiers",
	}

	cmd.AddCommand(
		newIdentifierAddCmd(),
		newFactsLoadCmd("identifier", func(d *Deps, cmd *cobra.Command, owner entities.OwnerRef, path string, p *policyFlags) error {
			items, err := readItems[entities.Identifier](path)
			if err != nil {
				return err
			}
			results, err := d.Facts.AddIdentifiers(cmd.Context(), owner, items, p.policy())
			return printResults("identifier", results, func(i entities.Identifier) string { return i.Scheme + ":" + i.Identifier }, err)
		}),
		newFactsReplaceCmd("identifier", func(d *Deps, cmd *cobra.Command, owner entities.OwnerRef, path string, p *policyFlags) (reconcile.ReplaceResult, error) {
			items, err := readItems[entities.Identifier](path)
			if err != nil {
				return reconcile.ReplaceResult{}, err
			}
			return d.Facts.ReplaceIdentifiers(cmd.Context(), owner, items, p.policy())
		}),
		newIdentifierOwnersCmd(),
	)

	return cmd
}

func newIdentifierAddCmd() *cobra.Command {
	var (
		source string
		dates  dateFlags
		policy policyFlags
	)

	cmd := &cobra.Command{
		Use:   "add OWNER SCHEME VALUE",
		Short: "Add an identifier to an entity",
		Long: `Adds an identifier valid over a period. OWNER is kind:id.

An identifier touching a stored one of the same value extends it. One
crossing a different value in the same scheme is rejected unless
--overwrite or --same-values-only is given.

Examples:
  popolo identifier add person:pe-rossi CF RSSMRA50A01H501U
  popolo identifier add organization:o-camera istat 058091 --start 2001 --end 2010`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parseOwner(args[0])
			if err != nil {
				return err
			}
			df, err := dates.dateframe()
			if err != nil {
				return err
			}
			in := entities.Identifier{Scheme: args[1], Identifier: args[2], Source: source, Dateframe: df}

			return withDeps(func(d *Deps) error {
				res, err := d.Facts.AddIdentifier(cmd.Context(), owner, in, policy.policy())
				if err != nil {
					return fmt.Errorf("adding identifier: %w", err)
				}
				printOutcome("identifier", res.Outcome, res.Item.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Source of the identifier")
	dates.register(cmd)
	policy.register(cmd, false)

	return cmd
}

func newIdentifierOwnersCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "owners SCHEME VALUE",
		Short: "Find the entities holding an identifier",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				owners, err := d.Facts.FindOwners(cmd.Context(), entities.OwnerKind(kind), args[0], args[1])
				if err != nil {
					return fmt.Errorf("finding owners: %w", err)
				}
				if len(owners) == 0 {
					fmt.Println("No entities found.")
					return nil
				}
				for _, o := range owners {
					fmt.Println(o.String())
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", string(entities.OwnerPerson), "Entity kind")

	return cmd
}

func newOtherNameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "othername",
		Short: "Manage alternate names",
	}

	cmd.AddCommand(
		newOtherNameAddCmd(),
		newFactsLoadCmd("other name", func(d *Deps, cmd *cobra.Command, owner entities.OwnerRef, path string, p *policyFlags) error {
			items, err := readItems[entities.OtherName](path)
			if err != nil {
				return err
			}
			results, err := d.Facts.AddOtherNames(cmd.Context(), owner, items, p.policy())
			return printResults("other name", results, func(n entities.OtherName) string { return n.Name }, err)
		}),
		newFactsReplaceCmd("other name", func(d *Deps, cmd *cobra.Command, owner entities.OwnerRef, path string, p *policyFlags) (reconcile.ReplaceResult, error) {
			items, err := readItems[entities.OtherName](path)
			if err != nil {
				return reconcile.ReplaceResult{}, err
			}
			return d.Facts.ReplaceOtherNames(cmd.Context(), owner, items, p.policy())
		}),
	)

	return cmd
}

func newOtherNameAddCmd() *cobra.Command {
	var (
		n      entities.OtherName
		dates  dateFlags
		policy policyFlags
	)

	cmd := &cobra.Command{
		Use:   "add OWNER NAME",
		Short: "Add an alternate name to an entity",
		Long: `Adds a name valid over a period. Names are grouped by --type.

Examples:
  popolo othername add person:pe-rossi "M. Rossi"
  popolo othername add organization:o-camera "Camera" --type short --start 1948`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parseOwner(args[0])
			if err != nil {
				return err
			}
			if n.Dateframe, err = dates.dateframe(); err != nil {
				return err
			}
			n.Name = args[1]

			return withDeps(func(d *Deps) error {
				res, err := d.Facts.AddOtherName(cmd.Context(), owner, n, policy.policy())
				if err != nil {
					return fmt.Errorf("adding other name: %w", err)
				}
				printOutcome("other name", res.Outcome, res.Item.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&n.Type, "type", "", "Name type")
	cmd.Flags().StringVar(&n.Note, "note", "", "Note")
	cmd.Flags().StringVar(&n.Source, "source", "", "Source of the name")
	dates.register(cmd)
	policy.register(cmd, false)

	return cmd
}

func newMembershipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "membership",
		Short: "Manage memberships",
	}

	cmd.AddCommand(
		newMembershipAddCmd(),
		newFactsLoadCmd("membership", func(d *Deps, cmd *cobra.Command, member entities.OwnerRef, path string, p *policyFlags) error {
			items, err := readItems[entities.Membership](path)
			if err != nil {
				return err
			}
			results, err := d.Facts.AddMemberships(cmd.Context(), member, items, p.membershipOptions())
			return printResults("membership", results, func(m entities.Membership) string { return m.ID }, err)
		}),
		newFactsReplaceCmd("membership", func(d *Deps, cmd *cobra.Command, member entities.OwnerRef, path string, p *policyFlags) (reconcile.ReplaceResult, error) {
			items, err := readItems[entities.Membership](path)
			if err != nil {
				return reconcile.ReplaceResult{}, err
			}
			return d.Facts.ReplaceMemberships(cmd.Context(), member, items, p.membershipOptions())
		}),
	)

	return cmd
}

func newMembershipAddCmd() *cobra.Command {
	var (
		m      entities.Membership
		dates  dateFlags
		policy policyFlags
	)

	cmd := &cobra.Command{
		Use:   "add MEMBER",
		Short: "Add a membership of a person or an organization",
		Long: `Adds a membership valid over a period. MEMBER is person:id or
organization:id. With --post and no --org the post's organization is used,
and the role defaults to the post's role or label.

Examples:
  popolo membership add person:pe-rossi --org o-gruppo --role member --start 2008
  popolo membership add person:pe-rossi --post post-dep --start 2008-04-29
  popolo membership add organization:o-gruppo --org o-coalizione`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			member, err := parseOwner(args[0])
			if err != nil {
				return err
			}
			if m.Dateframe, err = dates.dateframe(); err != nil {
				return err
			}

			return withDeps(func(d *Deps) error {
				res, err := d.Facts.AddMembership(cmd.Context(), member, m, policy.membershipOptions())
				if err != nil {
					return fmt.Errorf("adding membership: %w", err)
				}
				printOutcome("membership", res.Outcome, res.Item.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&m.OrganizationID, "org", "", "Organization the membership is held in")
	cmd.Flags().StringVar(&m.PostID, "post", "", "Post held")
	cmd.Flags().StringVar(&m.Role, "role", "", "Role")
	cmd.Flags().StringVar(&m.Label, "label", "", "Label")
	cmd.Flags().StringVar(&m.OnBehalfOfID, "on-behalf-of", "", "Organization represented")
	cmd.Flags().StringVar(&m.AreaID, "area", "", "Area represented")
	dates.register(cmd)
	policy.register(cmd, true)

	return cmd
}

func newOwnershipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ownership",
		Short: "Manage ownerships",
	}

	cmd.AddCommand(
		newOwnershipAddCmd(),
		newFactsLoadCmd("ownership", func(d *Deps, cmd *cobra.Command, owner entities.OwnerRef, path string, p *policyFlags) error {
			items, err := readItems[entities.Ownership](path)
			if err != nil {
				return err
			}
			results, err := d.Facts.AddOwnerships(cmd.Context(), owner, items, p.policy())
			return printResults("ownership", results, func(o entities.Ownership) string { return o.ID }, err)
		}),
		newFactsReplaceCmd("ownership", func(d *Deps, cmd *cobra.Command, owner entities.OwnerRef, path string, p *policyFlags) (reconcile.ReplaceResult, error) {
			items, err := readItems[entities.Ownership](path)
			if err != nil {
				return reconcile.ReplaceResult{}, err
			}
			return d.Facts.ReplaceOwnerships(cmd.Context(), owner, items, p.policy())
		}),
	)

	return cmd
}

func newOwnershipAddCmd() *cobra.Command {
	var (
		o      entities.Ownership
		dates  dateFlags
		policy policyFlags
	)

	cmd := &cobra.Command{
		Use:   "add OWNER ORGANIZATION",
		Short: "Add a share of an organization held by a person or an organization",
		Long: `Adds an ownership valid over a period. OWNER is person:id or
organization:id.

Examples:
  popolo ownership add person:pe-rossi o-editrice --percentage 30 --start 2010`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parseOwner(args[0])
			if err != nil {
				return err
			}
			if o.Dateframe, err = dates.dateframe(); err != nil {
				return err
			}
			o.OwnedOrganizationID = args[1]

			return withDeps(func(d *Deps) error {
				res, err := d.Facts.AddOwnership(cmd.Context(), owner, o, policy.policy())
				if err != nil {
					return fmt.Errorf("adding ownership: %w", err)
				}
				printOutcome("ownership", res.Outcome, res.Item.ID)
				return nil
			})
		},
	}

	cmd.Flags().Float64VarP(&o.Percentage, "percentage", "p", 0, "Share held, from 0 to 100")
	dates.register(cmd)
	policy.register(cmd, false)

	return cmd
}

type loadFunc func(d *Deps, cmd *cobra.Command, owner entities.OwnerRef, path string, p *policyFlags) error

// newFactsLoadCmd adds every fact of a JSON file, keeping the ones that succeed.
func newFactsLoadCmd(kind string, load loadFunc) *cobra.Command {
	var policy policyFlags

	cmd := &cobra.Command{
		Use:   "load OWNER FILE",
		Short: fmt.Sprintf("Add each %s of a JSON array file", kind),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parseOwner(args[0])
			if err != nil {
				return err
			}
			return withDeps(func(d *Deps) error {
				return load(d, cmd, owner, args[1], &policy)
			})
		},
	}

	policy.register(cmd, kind == "membership")

	return cmd
}

type replaceFunc func(d *Deps, cmd *cobra.Command, owner entities.OwnerRef, path string, p *policyFlags) (reconcile.ReplaceResult, error)

// newFactsReplaceCmd makes an entity's facts match a JSON file. Items with an
// id overwrite the stored fact, the others are added, the rest are deleted.
func newFactsReplaceCmd(kind string, replace replaceFunc) *cobra.Command {
	var policy policyFlags

	cmd := &cobra.Command{
		Use:   "replace OWNER FILE",
		Short: fmt.Sprintf("Replace every %s of an entity with a JSON array file", kind),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parseOwner(args[0])
			if err != nil {
				return err
			}
			return withDeps(func(d *Deps) error {
				result, err := replace(d, cmd, owner, args[1], &policy)
				if err != nil {
					return fmt.Errorf("replacing %ss: %w", kind, err)
				}
				printReplace(kind+"s", result)
				return nil
			})
		},
	}

	policy.register(cmd, kind == "membership")

	return cmd
}

func newShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show OWNER",
		Short: "Show the dated facts of an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parseOwner(args[0])
			if err != nil {
				return err
			}
			return withDeps(func(d *Deps) error {
				view, err := d.Facts.Show(cmd.Context(), owner)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(os.Stdout, view)
				}
				displayFacts(view)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")

	return cmd
}

func displayFacts(view *handlers.FactsView) {
	fmt.Printf("%s\n", view.Owner)

	fmt.Printf("\nIdentifiers (%d):\n", len(view.Identifiers))
	for _, i := range view.Identifiers {
		fmt.Printf("  %-20s %-30s %s\n", i.Scheme, i.Identifier, i.Interval())
	}

	fmt.Printf("\nOther names (%d):\n", len(view.OtherNames))
	for _, n := range view.OtherNames {
		fmt.Printf("  %-40s %-12s %s\n", n.Name, n.Type, n.Interval())
	}

	if len(view.Memberships) > 0 {
		fmt.Printf("\nMemberships (%d):\n", len(view.Memberships))
		for _, m := range view.Memberships {
			fmt.Printf("  %-38s %-20s %s\n", m.OrganizationID, m.Role, m.Interval())
		}
	}

	if len(view.Ownerships) > 0 {
		fmt.Printf("\nOwnerships (%d):\n", len(view.Ownerships))
		for _, o := range view.Ownerships {
			fmt.Printf("  %-38s %6.2f%% %s\n", o.OwnedOrganizationID, o.Percentage, o.Interval())
		}
	}
}
