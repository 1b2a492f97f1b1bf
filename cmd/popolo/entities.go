package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/popolo-core/internal/domain/entities"
)

func newPersonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "person",
		Short: "Manage persons",
	}

	cmd.AddCommand(
		newPersonAddCmd(),
		&cobra.Command{
			Use:   "get ID",
			Short: "Show a person",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDeps(func(d *Deps) error {
					p, err := d.Entities.GetPerson(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return printJSON(os.Stdout, p)
				})
			},
		},
		newPersonListCmd(),
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a person with its facts and memberships",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDeps(func(d *Deps) error {
					if err := d.Entities.DeletePerson(cmd.Context(), args[0]); err != nil {
						return fmt.Errorf("deleting person: %w", err)
					}
					fmt.Printf("Deleted person %s\n", args[0])
					return nil
				})
			},
		},
	)

	return cmd
}

func newPersonAddCmd() *cobra.Command {
	var (
		p                    entities.Person
		birthDate, deathDate string
	)

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a person",
		Long: `Adds a person.

Examples:
  popolo person add "Mario Rossi" --birth-date 1950
  popolo person add "Anna Bianchi" --id pe-bianchi --gender female`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Name = args[0]
			var err error
			if p.BirthDate, err = parseDate("birth-date", birthDate); err != nil {
				return err
			}
			if p.DeathDate, err = parseDate("death-date", deathDate); err != nil {
				return err
			}
			return withDeps(func(d *Deps) error {
				if err := d.Entities.CreatePerson(cmd.Context(), &p); err != nil {
					return fmt.Errorf("creating person: %w", err)
				}
				fmt.Printf("Created person %s\n", p.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&p.ID, "id", "", "Person ID (generated when empty)")
	cmd.Flags().StringVar(&p.Gender, "gender", "", "Gender")
	cmd.Flags().StringVar(&p.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&birthDate, "birth-date", "", "Birth date")
	cmd.Flags().StringVar(&deathDate, "death-date", "", "Death date")

	return cmd
}

func newPersonListCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List persons",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				result, err := d.Entities.ListPersons(cmd.Context(), limit, offset)
				if err != nil {
					return fmt.Errorf("listing persons: %w", err)
				}
				if len(result.Persons) == 0 {
					fmt.Println("No persons found.")
					return nil
				}
				fmt.Printf("Persons (%d total):\n\n", result.Total)
				for _, p := range result.Persons {
					fmt.Printf("  %-38s %s\n", p.ID, p.Name)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultListLimit, "Maximum number of persons to display")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of persons to skip")

	return cmd
}

func newOrgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "org",
		Aliases: []string{"organization"},
		Short:   "Manage organizations",
	}

	cmd.AddCommand(
		newOrgAddCmd(),
		&cobra.Command{
			Use:   "get ID",
			Short: "Show an organization",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDeps(func(d *Deps) error {
					o, err := d.Entities.GetOrganization(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return printJSON(os.Stdout, o)
				})
			},
		},
		newOrgListCmd(),
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete an organization with its posts and memberships",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDeps(func(d *Deps) error {
					if err := d.Entities.DeleteOrganization(cmd.Context(), args[0]); err != nil {
						return fmt.Errorf("deleting organization: %w", err)
					}
					fmt.Printf("Deleted organization %s\n", args[0])
					return nil
				})
			},
		},
	)

	return cmd
}

func newOrgAddCmd() *cobra.Command {
	var (
		o                     entities.Organization
		founding, dissolution string
	)

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add an organization",
		Long: `Adds an organization.

Examples:
  popolo org add "Camera dei Deputati" --classification chamber --founding-date 1948
  popolo org add "Gruppo Misto" --parent o-camera`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o.Name = args[0]
			var err error
			if o.FoundingDate, err = parseDate("founding-date", founding); err != nil {
				return err
			}
			if o.DissolutionDate, err = parseDate("dissolution-date", dissolution); err != nil {
				return err
			}
			return withDeps(func(d *Deps) error {
				if err := d.Entities.CreateOrganization(cmd.Context(), &o); err != nil {
					return fmt.Errorf("creating organization: %w", err)
				}
				fmt.Printf("Created organization %s\n", o.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&o.ID, "id", "", "Organization ID (generated when empty)")
	cmd.Flags().StringVar(&o.Classification, "classification", "", "Classification")
	cmd.Flags().StringVar(&o.ParentID, "parent", "", "Parent organization ID")
	cmd.Flags().StringVar(&o.AreaID, "area", "", "Area ID")
	cmd.Flags().StringVar(&founding, "founding-date", "", "Founding date")
	cmd.Flags().StringVar(&dissolution, "dissolution-date", "", "Dissolution date")

	return cmd
}

func newOrgListCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List organizations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				result, err := d.Entities.ListOrganizations(cmd.Context(), limit, offset)
				if err != nil {
					return fmt.Errorf("listing organizations: %w", err)
				}
				if len(result.Organizations) == 0 {
					fmt.Println("No organizations found.")
					return nil
				}
				fmt.Printf("Organizations (%d total):\n\n", result.Total)
				for _, o := range result.Organizations {
					fmt.Printf("  %-38s %-40s %s\n", o.ID, o.Name, o.Classification)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultListLimit, "Maximum number of organizations to display")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of organizations to skip")

	return cmd
}

func newPostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Manage posts",
	}

	cmd.AddCommand(newPostAddCmd(), newPostListCmd())

	return cmd
}

func newPostAddCmd() *cobra.Command {
	var (
		p     entities.Post
		org   string
		dates dateFlags
	)

	cmd := &cobra.Command{
		Use:   "add LABEL",
		Short: "Add a post",
		Long: `Adds a post. With --org the post belongs to that organization,
otherwise it is generic and memberships must name their organization.

Examples:
  popolo post add Deputato --org o-camera --role deputy
  popolo post add Sindaco --area a-roma`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Label = args[0]
			df, err := dates.dateframe()
			if err != nil {
				return err
			}
			p.Dateframe = df
			return withDeps(func(d *Deps) error {
				if err := d.Entities.CreatePost(cmd.Context(), org, &p); err != nil {
					return fmt.Errorf("creating post: %w", err)
				}
				fmt.Printf("Created post %s\n", p.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&p.ID, "id", "", "Post ID (generated when empty)")
	cmd.Flags().StringVar(&p.Role, "role", "", "Role held by members")
	cmd.Flags().StringVar(&p.AreaID, "area", "", "Area ID")
	cmd.Flags().StringVar(&org, "org", "", "Organization the post belongs to")
	dates.register(cmd)

	return cmd
}

func newPostListCmd() *cobra.Command {
	var org string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the posts of an organization, or the generic posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				posts, err := d.Entities.ListPosts(cmd.Context(), org)
				if err != nil {
					return fmt.Errorf("listing posts: %w", err)
				}
				if len(posts) == 0 {
					fmt.Println("No posts found.")
					return nil
				}
				for _, p := range posts {
					fmt.Printf("  %-38s %-30s %s\n", p.ID, p.Label, p.Role)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&org, "org", "", "Organization ID")

	return cmd
}

func newAreaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "area",
		Short: "Manage areas",
	}

	cmd.AddCommand(newAreaAddCmd(), newAreaListCmd())

	return cmd
}

func newAreaAddCmd() *cobra.Command {
	var a entities.Area

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add an area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.Name = args[0]
			return withDeps(func(d *Deps) error {
				if err := d.Entities.CreateArea(cmd.Context(), &a); err != nil {
					return fmt.Errorf("creating area: %w", err)
				}
				fmt.Printf("Created area %s\n", a.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&a.ID, "id", "", "Area ID (generated when empty)")
	cmd.Flags().StringVar(&a.Identifier, "identifier", "", "Area code, such as an ISTAT code")
	cmd.Flags().StringVar(&a.Classification, "classification", "", "Classification")
	cmd.Flags().StringVar(&a.ParentID, "parent", "", "Parent area ID")

	return cmd
}

func newAreaListCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List areas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				areas, err := d.Entities.ListAreas(cmd.Context(), limit, offset)
				if err != nil {
					return fmt.Errorf("listing areas: %w", err)
				}
				if len(areas) == 0 {
					fmt.Println("No areas found.")
					return nil
				}
				for _, a := range areas {
					fmt.Printf("  %-38s %-30s %s\n", a.ID, a.Name, a.Classification)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultListLimit, "Maximum number of areas to display")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of areas to skip")

	return cmd
}
