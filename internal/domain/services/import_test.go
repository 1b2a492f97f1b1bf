package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/mocks"
	"github.com/ersonp/popolo-core/internal/domain/partialdate"
	"github.com/ersonp/popolo-core/internal/infrastructure/parsers"
)

func sampleDocument() *parsers.Document {
	return &parsers.Document{
		Areas: []parsers.AreaRecord{
			{ID: "a-lazio", Name: "Lazio"},
			{ID: "a-roma", Name: "Roma", ParentID: "a-lazio"},
		},
		Organizations: []parsers.OrganizationRecord{
			{ID: "o-gruppo", Name: "Gruppo Misto", ParentID: "o-camera"},
			{ID: "o-camera", Name: "Camera dei Deputati", AreaID: "a-lazio", FoundingDate: partialdate.MustParse("1948")},
		},
		Posts: []parsers.PostRecord{
			{ID: "post-dep", Label: "Deputato", Role: "deputy", OrganizationID: "o-camera"},
		},
		Persons: []parsers.PersonRecord{
			{
				ID:          "pe-rossi",
				Name:        "Mario Rossi",
				BirthDate:   partialdate.MustParse("1950"),
				Identifiers: []parsers.IdentifierRecord{{Scheme: "CF", Identifier: "RSSMRA50"}},
				OtherNames:  []parsers.OtherNameRecord{{Name: "M. Rossi"}},
			},
		},
		Memberships: []parsers.MembershipRecord{
			{PersonID: "pe-rossi", PostID: "post-dep", StartDate: partialdate.MustParse("2008-04-29")},
			{ID: "m-gruppo", PersonID: "pe-rossi", OrganizationID: "o-gruppo", Role: "member"},
		},
	}
}

func TestImportService_Import(t *testing.T) {
	ctx := context.Background()
	db := mocks.NewRelationalDB()
	svc := NewImportService(db, nil, nil)

	result, err := svc.Import(ctx, sampleDocument(), DefaultImportOptions())
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 8, result.Created)
	assert.Equal(t, 2, result.Facts)

	assert.Len(t, db.Areas, 2)
	assert.Len(t, db.Organizations, 2)
	assert.Len(t, db.Posts, 1)
	assert.Len(t, db.Persons, 1)
	assert.Len(t, db.Memberships, 2)

	ids := NewIdentifierService(db, nil)
	find := func(kind entities.OwnerKind, sourceID string) string {
		owners, err := ids.FindOwners(ctx, kind, DefaultIDPrefix+string(kind), sourceID)
		require.NoError(t, err)
		require.Len(t, owners, 1, "%s %s", kind, sourceID)
		return owners[0].ID
	}

	camera := find(entities.OwnerOrganization, "o-camera")
	gruppo := find(entities.OwnerOrganization, "o-gruppo")
	assert.Equal(t, camera, db.Organizations[gruppo].ParentID)
	assert.Equal(t, find(entities.OwnerArea, "a-lazio"), db.Organizations[camera].AreaID)
	assert.Equal(t, find(entities.OwnerArea, "a-lazio"), db.Areas[find(entities.OwnerArea, "a-roma")].ParentID)

	person := find(entities.OwnerPerson, "pe-rossi")
	memberships, err := db.ListMembershipsByMember(ctx, entities.OwnerRef{Kind: entities.OwnerPerson, ID: person})
	require.NoError(t, err)
	var roles []string
	for _, m := range memberships {
		roles = append(roles, m.Role)
	}
	assert.ElementsMatch(t, []string{"deputy", "member"}, roles)

	assert.Contains(t, db.Actions(), entities.ActionImport)
}

func TestImportService_Reimport_Updates(t *testing.T) {
	ctx := context.Background()
	db := mocks.NewRelationalDB()
	svc := NewImportService(db, nil, nil)

	_, err := svc.Import(ctx, sampleDocument(), DefaultImportOptions())
	require.NoError(t, err)

	doc := sampleDocument()
	doc.Persons[0].Name = "Mario Rossi Jr."
	result, err := svc.Import(ctx, doc, DefaultImportOptions())
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Zero(t, result.Created)
	assert.Equal(t, 8, result.Updated)

	require.Len(t, db.Persons, 1)
	for _, p := range db.Persons {
		assert.Equal(t, "Mario Rossi Jr.", p.Name)
	}
	assert.Len(t, db.Memberships, 2)
	assert.Len(t, db.OtherNames, 1)
}

func TestImportService_DryRun(t *testing.T) {
	db := mocks.NewRelationalDB()
	svc := NewImportService(db, nil, nil)

	opts := DefaultImportOptions()
	opts.DryRun = true
	result, err := svc.Import(context.Background(), sampleDocument(), opts)
	require.NoError(t, err)
	assert.Equal(t, 8, result.Created)

	assert.Empty(t, db.Persons)
	assert.Empty(t, db.Organizations)
	assert.Empty(t, db.Identifiers)
	assert.Empty(t, db.Audit)
}

func TestImportService_RecordErrors(t *testing.T) {
	db := mocks.NewRelationalDB()
	svc := NewImportService(db, nil, nil)

	doc := &parsers.Document{
		Organizations: []parsers.OrganizationRecord{{ID: "o-1", Name: "Camera"}},
		Persons: []parsers.PersonRecord{
			{ID: "pe-1", Name: "Mario Rossi"},
			{ID: "pe-2", Name: ""},
		},
		Memberships: []parsers.MembershipRecord{
			{PersonID: "pe-1", OrganizationID: "o-missing"},
			{PersonID: "pe-1", OrganizationID: "o-1", Role: "member"},
		},
	}

	result, err := svc.Import(context.Background(), doc, DefaultImportOptions())
	require.NoError(t, err)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "persons", result.Errors[0].Collection)
	assert.Equal(t, "pe-2", result.Errors[0].ID)
	assert.Equal(t, "memberships", result.Errors[1].Collection)
	assert.Contains(t, result.Errors[1].Error(), "not found")

	assert.Len(t, db.Persons, 1)
	assert.Len(t, db.Memberships, 1)
}

func TestImportService_NestedFactErrorsKeepRecord(t *testing.T) {
	db := mocks.NewRelationalDB()
	svc := NewImportService(db, nil, nil)

	doc := &parsers.Document{
		Persons: []parsers.PersonRecord{{
			ID:   "pe-1",
			Name: "Mario Rossi",
			Identifiers: []parsers.IdentifierRecord{
				{Scheme: "X", Identifier: "A1", StartDate: partialdate.MustParse("2000"), EndDate: partialdate.MustParse("2010")},
				{Scheme: "X", Identifier: "A2", StartDate: partialdate.MustParse("2005"), EndDate: partialdate.MustParse("2008")},
			},
		}},
	}

	result, err := svc.Import(context.Background(), doc, DefaultImportOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Facts)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "overlapping")
	assert.Len(t, db.Persons, 1)
}

func TestImportService_IdentifierRows(t *testing.T) {
	ctx := context.Background()
	db := mocks.NewRelationalDB()
	seedPerson(t, db, "p1", "Mario Rossi")
	svc := NewImportService(db, nil, nil)

	_, err := svc.Import(ctx, &parsers.Document{
		Organizations: []parsers.OrganizationRecord{{ID: "o-src", Name: "Camera"}},
	}, DefaultImportOptions())
	require.NoError(t, err)

	csv := "owner_kind,owner_id,scheme,identifier,start_date\n" +
		"person,p1,CF,RSSMRA50,\n" +
		"organization,o-src,ISTAT,12,2001\n" +
		"person,ghost,CF,X,\n" +
		"planet,p1,CF,X,\n"
	doc, err := (&parsers.IdentifierCSVParser{}).Parse(strings.NewReader(csv))
	require.NoError(t, err)

	result, err := svc.Import(ctx, doc, DefaultImportOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Facts)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 4, result.Errors[0].Line)
	assert.Equal(t, 5, result.Errors[1].Line)
	assert.Contains(t, result.Errors[0].Error(), "line 4")
}

func TestImportService_IndexesNames(t *testing.T) {
	db := mocks.NewRelationalDB()
	vectors := mocks.NewVectorDB()
	embedder := &mocks.Embedder{EmbeddingResult: []float32{0.1, 0.2}}
	search := NewSearchService(db, embedder, vectors, nil)
	svc := NewImportService(db, search, nil)

	_, err := svc.Import(context.Background(), sampleDocument(), DefaultImportOptions())
	require.NoError(t, err)

	assert.Len(t, vectors.Records, 3)
	assert.Equal(t, 1, embedder.EmbedBatchCallCount)
	assert.Contains(t, embedder.LastTexts, "Mario Rossi; M. Rossi")
}

func TestImportService_EmptyDocument(t *testing.T) {
	db := mocks.NewRelationalDB()
	result, err := NewImportService(db, nil, nil).Import(context.Background(), &parsers.Document{}, DefaultImportOptions())
	require.NoError(t, err)
	assert.Zero(t, result.Created)
	assert.Zero(t, db.TxCallCount)
}
