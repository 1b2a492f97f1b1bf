package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/partialdate"
	"github.com/ersonp/popolo-core/internal/domain/reconcile"
	"github.com/ersonp/popolo-core/internal/domain/services"
	"github.com/ersonp/popolo-core/internal/infrastructure/config"
	"github.com/ersonp/popolo-core/internal/infrastructure/relationaldb/sqlite"
)

// newStore opens an in-memory database holding person p1 and organization o1.
func newStore(t *testing.T) (*sqlite.Repository, entities.OwnerRef) {
	t.Helper()
	ctx := context.Background()
	repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.EnsureSchema(ctx))

	require.NoError(t, repo.SavePerson(ctx, &entities.Person{ID: "p1", Name: "Mario Rossi"}))
	require.NoError(t, repo.SaveOrganization(ctx, &entities.Organization{ID: "o1", Name: "Rossi S.p.A."}))
	return repo, entities.OwnerRef{Kind: entities.OwnerPerson, ID: "p1"}
}

func span(start, end string) entities.Dateframe {
	return entities.Dateframe{StartDate: partialdate.MustParse(start), EndDate: partialdate.MustParse(end)}
}

func identifiers(t *testing.T, svc *services.IdentifierService, owner entities.OwnerRef) []string {
	t.Helper()
	list, err := svc.List(context.Background(), owner)
	require.NoError(t, err)
	out := make([]string, 0, len(list))
	for _, i := range list {
		out = append(out, i.Identifier+" "+i.Interval().String())
	}
	return out
}

func TestIdentifierScenarios(t *testing.T) {
	ctx := context.Background()

	add := func(t *testing.T, svc *services.IdentifierService, owner entities.OwnerRef, value string, df entities.Dateframe, policy reconcile.Policy) error {
		t.Helper()
		_, err := svc.Add(ctx, entities.Identifier{Owner: owner, Scheme: "X", Identifier: value, Dateframe: df}, policy)
		return err
	}

	t.Run("disjoint intervals both persist", func(t *testing.T) {
		repo, owner := newStore(t)
		svc := services.NewIdentifierService(repo, nil)

		require.NoError(t, add(t, svc, owner, "A1", span("2000", "2006"), reconcile.DefaultPolicy()))
		require.NoError(t, add(t, svc, owner, "A2", span("2006-06", "2010"), reconcile.DefaultPolicy()))
		assert.ElementsMatch(t, []string{"A1 2000 => 2006", "A2 2006-06 => 2010"}, identifiers(t, svc, owner))
	})

	t.Run("crossing interval with another value is rejected", func(t *testing.T) {
		repo, owner := newStore(t)
		svc := services.NewIdentifierService(repo, nil)

		require.NoError(t, add(t, svc, owner, "A1", span("2000", "2010"), reconcile.DefaultPolicy()))
		err := add(t, svc, owner, "A2", span("2005", "2008"), reconcile.DefaultPolicy())
		assert.ErrorIs(t, err, reconcile.ErrOverlappingInterval)
		assert.Equal(t, []string{"A1 2000 => 2010"}, identifiers(t, svc, owner))
	})

	t.Run("touching interval with the same value extends", func(t *testing.T) {
		repo, owner := newStore(t)
		svc := services.NewIdentifierService(repo, nil)

		require.NoError(t, add(t, svc, owner, "A1", span("2000", "2005"), reconcile.DefaultPolicy()))
		require.NoError(t, add(t, svc, owner, "A1", span("2005", "2010"), reconcile.DefaultPolicy()))
		assert.Equal(t, []string{"A1 2000 => 2010"}, identifiers(t, svc, owner))
	})

	t.Run("chained overlaps collapse into one fact", func(t *testing.T) {
		repo, owner := newStore(t)
		svc := services.NewIdentifierService(repo, nil)

		day0 := partialdate.MustParse("2020-01-01")
		at := func(n int) partialdate.Date {
			d, err := day0.AddDays(n)
			require.NoError(t, err)
			return d
		}
		for _, s := range [][2]int{{0, 50}, {40, 120}, {100, 200}} {
			df := entities.Dateframe{StartDate: at(s[0]), EndDate: at(s[1])}
			require.NoError(t, add(t, svc, owner, "A1", df, reconcile.DefaultPolicy()))
		}
		assert.Equal(t, []string{"A1 2020-01-01 => 2020-07-19"}, identifiers(t, svc, owner))
	})

	t.Run("merge walks the bucket unbounded end first", func(t *testing.T) {
		repo, owner := newStore(t)
		svc := services.NewIdentifierService(repo, nil)

		require.NoError(t, add(t, svc, owner, "A1", span("2000", "2004"), reconcile.DefaultPolicy()))
		require.NoError(t, add(t, svc, owner, "A1", span("2008", ""), reconcile.DefaultPolicy()))
		require.NoError(t, add(t, svc, owner, "A1", span("2003", "2009"), reconcile.Policy{Merge: true}))
		assert.ElementsMatch(t, []string{"A1 2003 => 2009", "A1 2000 => 2009"}, identifiers(t, svc, owner))
	})

	t.Run("overwrite replaces the crossing fact", func(t *testing.T) {
		repo, owner := newStore(t)
		svc := services.NewIdentifierService(repo, nil)

		require.NoError(t, add(t, svc, owner, "A0", span("1990", "1999"), reconcile.DefaultPolicy()))
		require.NoError(t, add(t, svc, owner, "A1", span("2000", "2010"), reconcile.DefaultPolicy()))
		require.NoError(t, add(t, svc, owner, "A2", span("2005", "2008"), reconcile.Policy{Overwrite: true}))
		assert.ElementsMatch(t, []string{"A0 1990 => 1999", "A2 2005 => 2008"}, identifiers(t, svc, owner))
	})
}

func TestMembershipScenario_RequiresOrganization(t *testing.T) {
	repo, person := newStore(t)
	svc := services.NewMembershipService(repo, nil)

	_, err := svc.Add(context.Background(), entities.Membership{PersonID: "p1"}, services.DefaultMembershipOptions())
	require.ErrorIs(t, err, entities.ErrValidation)

	list, err := repo.ListMembershipsByMember(context.Background(), person)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOwnershipScenarios(t *testing.T) {
	ctx := context.Background()
	repo, owner := newStore(t)
	svc := services.NewOwnershipService(repo, nil)

	_, err := svc.AddMany(ctx, owner, []entities.Ownership{
		{OwnedOrganizationID: "o1", Percentage: 51, Dateframe: span("2000", "2005")},
		{OwnedOrganizationID: "o1", Percentage: 30, Dateframe: span("2003", "2008")},
		{OwnedOrganizationID: "o1", Percentage: 51, Dateframe: span("2004", "2010")},
	}, reconcile.DefaultPolicy())
	require.NoError(t, err)

	list, err := svc.ListByOwner(ctx, owner)
	require.NoError(t, err)
	var got []string
	for _, o := range list {
		got = append(got, o.Interval().String())
	}
	assert.ElementsMatch(t, []string{"2000 => 2010", "2003 => 2008"}, got)
}
