package sqlite

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/partialdate"
	"github.com/ersonp/popolo-core/internal/domain/ports"
	"github.com/ersonp/popolo-core/internal/infrastructure/config"
)

// setupTestRepo creates an in-memory SQLite repository for testing.
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	err = repo.EnsureSchema(context.Background())
	require.NoError(t, err)

	return repo
}

func dateframe(start, end string) entities.Dateframe {
	i := partialdate.MustInterval(start, end)
	return entities.Dateframe{StartDate: i.Start, EndDate: i.End}
}

func TestNewRepository(t *testing.T) {
	t.Run("success with memory database", func(t *testing.T) {
		repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
		require.NoError(t, err)
		defer repo.Close()
		assert.NotNil(t, repo)
	})

	t.Run("success with file database", func(t *testing.T) {
		repo, err := NewRepository(config.SQLiteConfig{Path: t.TempDir() + "/popolo.db", BusyTimeout: 100})
		require.NoError(t, err)
		defer repo.Close()
		require.NoError(t, repo.EnsureSchema(context.Background()))
	})

	t.Run("error with empty path", func(t *testing.T) {
		_, err := NewRepository(config.SQLiteConfig{Path: ""})
		require.Error(t, err)
	})
}

func TestRepository_EnsureSchema(t *testing.T) {
	repo := setupTestRepo(t)

	tables := []string{
		"persons", "organizations", "posts", "areas",
		"memberships", "ownerships", "identifiers", "other_names", "audit_log",
	}
	for _, table := range tables {
		var count int
		err := repo.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}
}

func TestRepository_EnsureSchema_Idempotent(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.EnsureSchema(context.Background())
	require.NoError(t, err)
}

func TestRepository_Persons(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	p := &entities.Person{
		Name:      "Mario Rossi",
		BirthDate: partialdate.MustParse("1960-04"),
		Gender:    "male",
	}
	p.Normalize()
	require.NoError(t, repo.SavePerson(ctx, p))
	require.NotEmpty(t, p.ID, "save assigns an id")
	assert.False(t, p.CreatedAt.IsZero())

	t.Run("find by id keeps partial dates", func(t *testing.T) {
		found, err := repo.FindPersonByID(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Mario Rossi", found.Name)
		assert.Equal(t, "1960-04", found.BirthDate.String())
		assert.Equal(t, partialdate.PrecisionMonth, found.BirthDate.Precision())
		assert.Equal(t, "1960-04", found.StartDate.String())
		assert.True(t, found.DeathDate.IsNull())
		assert.True(t, found.EndDate.IsNull())
	})

	t.Run("missing person is nil", func(t *testing.T) {
		found, err := repo.FindPersonByID(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("update in place", func(t *testing.T) {
		p.DeathDate = partialdate.MustParse("2020-01-02")
		p.Normalize()
		require.NoError(t, repo.SavePerson(ctx, p))

		found, err := repo.FindPersonByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "2020-01-02", found.EndDate.String())

		n, err := repo.CountPersons(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("search by other name", func(t *testing.T) {
		require.NoError(t, repo.SaveOtherName(ctx, &entities.OtherName{
			Owner: entities.OwnerRef{Kind: entities.OwnerPerson, ID: p.ID},
			Name:  "Marione",
		}))

		found, err := repo.SearchPersons(ctx, "MARIONE", 10)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, p.ID, found[0].ID)

		found, err = repo.SearchPersons(ctx, "rossi", 10)
		require.NoError(t, err)
		assert.Len(t, found, 1)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeletePerson(ctx, p.ID))
		err := repo.DeletePerson(ctx, p.ID)
		assert.True(t, errors.Is(err, entities.ErrNotFound))
	})
}

func TestRepository_OrganizationsPostsAreas(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	area := &entities.Area{ID: "area-1", Name: "Lazio", Classification: "region"}
	require.NoError(t, repo.SaveArea(ctx, area))

	org := &entities.Organization{ID: "org-1", Name: "Camera dei Deputati", AreaID: "area-1", FoundingDate: partialdate.MustParse("1948")}
	org.Normalize()
	require.NoError(t, repo.SaveOrganization(ctx, org))

	post := &entities.Post{ID: "post-1", Label: "Deputato", OrganizationID: "org-1"}
	require.NoError(t, repo.SavePost(ctx, post))

	foundOrg, err := repo.FindOrganizationByID(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, "1948", foundOrg.StartDate.String())
	assert.Equal(t, "area-1", foundOrg.AreaID)

	orgs, err := repo.SearchOrganizations(ctx, "camera", 5)
	require.NoError(t, err)
	assert.Len(t, orgs, 1)

	posts, err := repo.ListPostsByOrganization(ctx, "org-1")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Deputato", posts[0].Label)

	foundArea, err := repo.FindAreaByID(ctx, "area-1")
	require.NoError(t, err)
	assert.Equal(t, "region", foundArea.Classification)

	areas, err := repo.ListAreas(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, areas, 1)
}

func TestRepository_IdentifierBucketOrder(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	owner := entities.OwnerRef{Kind: entities.OwnerPerson, ID: "p-1"}

	for _, tc := range []struct{ id, value, start, end string }{
		{"a", "A", "2000", "2003"},
		{"b", "B", "2010", ""},
		{"c", "C", "2004", "2008-06"},
	} {
		require.NoError(t, repo.SaveIdentifier(ctx, &entities.Identifier{
			ID: tc.id, Owner: owner, Scheme: "CF", Identifier: tc.value, Dateframe: dateframe(tc.start, tc.end),
		}))
	}
	require.NoError(t, repo.SaveIdentifier(ctx, &entities.Identifier{
		ID: "other", Owner: owner, Scheme: "ISTAT", Identifier: "X",
	}))

	bucket, err := repo.FindIdentifiersByScheme(ctx, owner, "CF")
	require.NoError(t, err)
	require.Len(t, bucket, 3)
	assert.Equal(t, "b", bucket[0].ID, "unbounded end first")
	assert.Equal(t, "c", bucket[1].ID)
	assert.Equal(t, "a", bucket[2].ID)
	assert.Equal(t, owner, bucket[0].Owner)

	found, err := repo.FindIdentifier(ctx, owner, "CF", "C")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "2008-06", found.EndDate.String())

	owners, err := repo.FindOwnersByIdentifier(ctx, entities.OwnerPerson, "ISTAT", "X")
	require.NoError(t, err)
	assert.Equal(t, []entities.OwnerRef{owner}, owners)

	require.NoError(t, repo.DeleteIdentifiers(ctx, []string{"a", "c"}))
	all, err := repo.ListIdentifiers(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepository_OtherNames(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	owner := entities.OwnerRef{Kind: entities.OwnerOrganization, ID: "o-1"}

	n := &entities.OtherName{Owner: owner, Name: "PCI"}
	require.NoError(t, repo.SaveOtherName(ctx, n))
	assert.Equal(t, entities.DefaultOtherNameType, n.Type)

	require.NoError(t, repo.SaveOtherName(ctx, &entities.OtherName{Owner: owner, Type: "FOR", Name: "Partito Comunista d'Italia", Dateframe: dateframe("1921", "1943")}))

	alt, err := repo.FindOtherNamesByType(ctx, owner, "ALT")
	require.NoError(t, err)
	assert.Len(t, alt, 1)

	found, err := repo.FindOtherName(ctx, owner, "FOR", "Partito Comunista d'Italia")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "1921", found.StartDate.String())

	missing, err := repo.FindOtherName(ctx, owner, "FOR", "PCI")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_Memberships(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	member := entities.OwnerRef{Kind: entities.OwnerPerson, ID: "p-1"}

	m1 := &entities.Membership{ID: "m1", PersonID: "p-1", OrganizationID: "org-1", Role: "Deputato", Label: "XVII", Dateframe: dateframe("2013", "2018")}
	m2 := &entities.Membership{ID: "m2", PersonID: "p-1", OrganizationID: "org-1", Role: "Deputato", Label: "XVIII", Dateframe: dateframe("2018", "")}
	m3 := &entities.Membership{ID: "m3", PersonID: "p-1", OrganizationID: "org-1", PostID: "post-1", Role: "Presidente"}
	for _, m := range []*entities.Membership{m1, m2, m3} {
		require.NoError(t, repo.SaveMembership(ctx, m))
	}

	t.Run("label ignored unless given", func(t *testing.T) {
		bucket, err := repo.FindMembershipsInScope(ctx, member, entities.MembershipScope{OrganizationID: "org-1"})
		require.NoError(t, err)
		require.Len(t, bucket, 2)
		assert.Equal(t, "m2", bucket[0].ID)
		assert.Equal(t, "m1", bucket[1].ID)

		bucket, err = repo.FindMembershipsInScope(ctx, member, entities.MembershipScope{OrganizationID: "org-1", Label: "XVII"})
		require.NoError(t, err)
		require.Len(t, bucket, 1)
		assert.Equal(t, "m1", bucket[0].ID)
	})

	t.Run("post is part of the scope", func(t *testing.T) {
		found, err := repo.FindMembership(ctx, member, entities.MembershipScope{OrganizationID: "org-1", PostID: "post-1"}, "Presidente")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "m3", found.ID)
	})

	t.Run("organization members use their own column", func(t *testing.T) {
		require.NoError(t, repo.SaveMembership(ctx, &entities.Membership{ID: "m4", MemberOrganizationID: "org-2", OrganizationID: "org-1"}))
		list, err := repo.ListMembershipsByMember(ctx, entities.OwnerRef{Kind: entities.OwnerOrganization, ID: "org-2"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, entities.OwnerRef{Kind: entities.OwnerOrganization, ID: "org-2"}, list[0].Member())

		byOrg, err := repo.ListMembershipsByOrganization(ctx, "org-1")
		require.NoError(t, err)
		assert.Len(t, byOrg, 4)
	})

	t.Run("schema rejects two members", func(t *testing.T) {
		err := repo.SaveMembership(ctx, &entities.Membership{ID: "bad", PersonID: "p", MemberOrganizationID: "o", OrganizationID: "org-1"})
		assert.Error(t, err)
	})

	t.Run("unsupported member kind", func(t *testing.T) {
		_, err := repo.ListMembershipsByMember(ctx, entities.OwnerRef{Kind: entities.OwnerArea, ID: "a"})
		assert.True(t, errors.Is(err, entities.ErrValidation))
	})
}

func TestRepository_Ownerships(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	owner := entities.OwnerRef{Kind: entities.OwnerOrganization, ID: "holding"}
	scope := entities.OwnershipScope{OwnedOrganizationID: "sub", Percentage: 51}

	require.NoError(t, repo.SaveOwnership(ctx, &entities.Ownership{ID: "w1", OwnerOrganizationID: "holding", OwnedOrganizationID: "sub", Percentage: 51}))
	require.NoError(t, repo.SaveOwnership(ctx, &entities.Ownership{ID: "w2", OwnerOrganizationID: "holding", OwnedOrganizationID: "sub", Percentage: 51, Dateframe: dateframe("2001", "2002")}))
	require.NoError(t, repo.SaveOwnership(ctx, &entities.Ownership{ID: "w3", OwnerOrganizationID: "holding", OwnedOrganizationID: "sub", Percentage: 10}))

	bucket, err := repo.FindOwnershipsInScope(ctx, owner, scope)
	require.NoError(t, err)
	assert.Len(t, bucket, 2)

	unbounded, err := repo.FindUnboundedOwnership(ctx, owner, scope)
	require.NoError(t, err)
	require.NotNil(t, unbounded)
	assert.Equal(t, "w1", unbounded.ID)

	err = repo.SaveOwnership(ctx, &entities.Ownership{ID: "w4", OwnerPersonID: "p", OwnedOrganizationID: "sub", Percentage: 120})
	assert.Error(t, err, "percentage outside 0..100 rejected by schema")

	byOrg, err := repo.ListOwnershipsByOrganization(ctx, "sub")
	require.NoError(t, err)
	assert.Len(t, byOrg, 3)

	require.NoError(t, repo.DeleteOwnerships(ctx, []string{"w1", "w2", "w3"}))
	byOwner, err := repo.ListOwnershipsByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, byOwner)
}

func TestRepository_WithinTx(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	owner := entities.OwnerRef{Kind: entities.OwnerPerson, ID: "p-1"}

	t.Run("commit", func(t *testing.T) {
		err := repo.WithinTx(ctx, func(tx ports.RelationalDB) error {
			return tx.SaveIdentifier(ctx, &entities.Identifier{ID: "i1", Owner: owner, Scheme: "CF", Identifier: "X"})
		})
		require.NoError(t, err)

		found, err := repo.FindIdentifier(ctx, owner, "CF", "X")
		require.NoError(t, err)
		assert.NotNil(t, found)
	})

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := repo.WithinTx(ctx, func(tx ports.RelationalDB) error {
			if err := tx.SaveIdentifier(ctx, &entities.Identifier{ID: "i2", Owner: owner, Scheme: "CF", Identifier: "Y"}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		found, err := repo.FindIdentifier(ctx, owner, "CF", "Y")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("nested reuses the transaction", func(t *testing.T) {
		err := repo.WithinTx(ctx, func(tx ports.RelationalDB) error {
			return tx.WithinTx(ctx, func(inner ports.RelationalDB) error {
				return inner.LogAction(ctx, entities.ActionCreate, "i3", nil)
			})
		})
		require.NoError(t, err)

		entries, err := repo.FindAuditLog(ctx, "i3")
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("failed nested call undoes only its own writes", func(t *testing.T) {
		err := repo.WithinTx(ctx, func(tx ports.RelationalDB) error {
			if err := tx.SavePerson(ctx, &entities.Person{ID: "outer", Name: "Outer"}); err != nil {
				return err
			}
			innerErr := tx.WithinTx(ctx, func(inner ports.RelationalDB) error {
				if err := inner.SavePerson(ctx, &entities.Person{ID: "inner", Name: "Inner"}); err != nil {
					return err
				}
				return errors.New("boom")
			})
			assert.EqualError(t, innerErr, "boom")
			return nil
		})
		require.NoError(t, err)

		outer, err := repo.FindPersonByID(ctx, "outer")
		require.NoError(t, err)
		assert.NotNil(t, outer)

		inner, err := repo.FindPersonByID(ctx, "inner")
		require.NoError(t, err)
		assert.Nil(t, inner)
	})
}

func TestRepository_AuditLog(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.LogAction(ctx, entities.ActionCreate, "id-1", map[string]any{"kind": "Identifier"}))
	require.NoError(t, repo.LogAction(ctx, entities.ActionExtend, "id-1", nil))
	require.NoError(t, repo.LogAction(ctx, entities.ActionCreate, "id-2", nil))

	entries, err := repo.FindAuditLog(ctx, "id-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entities.ActionExtend, entries[0].Action)
	assert.Equal(t, "Identifier", entries[1].Details["kind"])

	creates, err := repo.FindAuditLogByAction(ctx, entities.ActionCreate, 10)
	require.NoError(t, err)
	assert.Len(t, creates, 2)
}

func TestDSN(t *testing.T) {
	got := dsn(config.SQLiteConfig{Path: "/tmp/popolo.db", BusyTimeout: 250})
	assert.True(t, strings.HasPrefix(got, "/tmp/popolo.db?"))
	assert.Contains(t, got, "_txlock=immediate")
	assert.Contains(t, got, "busy_timeout%28250%29")
	assert.Contains(t, got, "foreign_keys%281%29")
}

func TestWithinTx_BeginsImmediate(t *testing.T) {
	ctx := context.Background()
	cfg := config.SQLiteConfig{Path: t.TempDir() + "/popolo.db", BusyTimeout: 50}

	writer, err := NewRepository(cfg)
	require.NoError(t, err)
	defer writer.Close()
	require.NoError(t, writer.EnsureSchema(ctx))

	other, err := NewRepository(cfg)
	require.NoError(t, err)
	defer other.Close()

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- writer.WithinTx(ctx, func(ports.RelationalDB) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	// the first transaction has not written yet, but already holds the write lock
	err = other.WithinTx(ctx, func(ports.RelationalDB) error { return nil })
	assert.Error(t, err)

	close(release)
	require.NoError(t, <-done)
	assert.NoError(t, other.WithinTx(ctx, func(ports.RelationalDB) error { return nil }))
}
