package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/partialdate"
	"github.com/ersonp/popolo-core/internal/domain/reconcile"
	"github.com/ersonp/popolo-core/internal/domain/services"
)

// policyFlags maps the reconciliation policy onto command flags.
type policyFlags struct {
	noExtend       bool
	overwrite      bool
	merge          bool
	sameValuesOnly bool
	allowOverlap   bool
	checkLabel     bool
}

func (f *policyFlags) register(cmd *cobra.Command, memberships bool) {
	cmd.Flags().BoolVar(&f.noExtend, "no-extend", false, "Reject instead of extending a same-valued fact")
	cmd.Flags().BoolVar(&f.overwrite, "overwrite", false, "Replace a crossing fact with a different value")
	cmd.Flags().BoolVar(&f.merge, "merge", false, "Merge into every same-valued fact, ignoring open ends")
	cmd.Flags().BoolVar(&f.sameValuesOnly, "same-values-only", false, "Ignore facts with a different value")
	cmd.Flags().BoolVar(&f.allowOverlap, "allow-overlap", false, "Always create, skipping interval checks")
	if memberships {
		cmd.Flags().BoolVar(&f.checkLabel, "check-label", false, "Keep roles with different labels apart")
	}
}

func (f *policyFlags) policy() reconcile.Policy {
	return reconcile.Policy{
		Extend:         !f.noExtend,
		Overwrite:      f.overwrite,
		Merge:          f.merge,
		SameValuesOnly: f.sameValuesOnly,
		AllowOverlap:   f.allowOverlap,
	}
}

func (f *policyFlags) membershipOptions() services.MembershipOptions {
	return services.MembershipOptions{Policy: f.policy(), CheckLabel: f.checkLabel}
}

// dateFlags are the start and end of a dated fact.
type dateFlags struct {
	start string
	end   string
}

func (f *dateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "Start date (YYYY, YYYY-MM or YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "End date (YYYY, YYYY-MM or YYYY-MM-DD)")
}

func (f *dateFlags) dateframe() (entities.Dateframe, error) {
	start, err := parseDate("start", f.start)
	if err != nil {
		return entities.Dateframe{}, err
	}
	end, err := parseDate("end", f.end)
	if err != nil {
		return entities.Dateframe{}, err
	}
	return entities.Dateframe{StartDate: start, EndDate: end}, nil
}

func parseDate(flag, value string) (partialdate.Date, error) {
	d, err := partialdate.Parse(value)
	if err != nil {
		return partialdate.Null, fmt.Errorf("--%s: %w", flag, err)
	}
	return d, nil
}

// parseOwner parses a kind:id argument.
func parseOwner(arg string) (entities.OwnerRef, error) {
	owner, err := entities.ParseOwnerRef(arg)
	if err != nil {
		return entities.OwnerRef{}, err
	}
	return owner, owner.Validate()
}
