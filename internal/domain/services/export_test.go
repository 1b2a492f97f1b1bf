package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/mocks"
)

func TestExportService_Export(t *testing.T) {
	ctx := context.Background()
	db := mocks.NewRelationalDB()
	_, err := NewImportService(db, nil, nil).Import(ctx, sampleDocument(), DefaultImportOptions())
	require.NoError(t, err)

	doc, err := NewExportService(db).Export(ctx)
	require.NoError(t, err)

	assert.Len(t, doc.Areas, 2)
	assert.Len(t, doc.Organizations, 2)
	assert.Len(t, doc.Posts, 1)
	assert.Len(t, doc.Memberships, 2)
	require.Len(t, doc.Persons, 1)

	person := doc.Persons[0]
	assert.Equal(t, "Mario Rossi", person.Name)
	assert.Equal(t, "1950", person.BirthDate.String())
	require.Len(t, person.OtherNames, 1)
	assert.Equal(t, "M. Rossi", person.OtherNames[0].Name)

	var schemes []string
	for _, i := range person.Identifiers {
		schemes = append(schemes, i.Scheme)
	}
	assert.ElementsMatch(t, []string{"CF", "popit-person"}, schemes)

	for _, m := range doc.Memberships {
		assert.Equal(t, person.ID, m.PersonID)
		assert.NotEmpty(t, m.OrganizationID)
	}
}

func TestExportService_RoundTrip(t *testing.T) {
	ctx := context.Background()
	source := mocks.NewRelationalDB()
	_, err := NewImportService(source, nil, nil).Import(ctx, sampleDocument(), DefaultImportOptions())
	require.NoError(t, err)

	doc, err := NewExportService(source).Export(ctx)
	require.NoError(t, err)

	target := mocks.NewRelationalDB()
	result, err := NewImportService(target, nil, nil).Import(ctx, doc, DefaultImportOptions())
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 8, result.Created)

	assert.Len(t, target.Areas, len(source.Areas))
	assert.Len(t, target.Organizations, len(source.Organizations))
	assert.Len(t, target.Memberships, len(source.Memberships))
}

func TestExportService_EmptyStore(t *testing.T) {
	doc, err := NewExportService(mocks.NewRelationalDB()).Export(context.Background())
	require.NoError(t, err)
	assert.True(t, doc.IsEmpty())
}

func TestIdentifierRows(t *testing.T) {
	ctx := context.Background()
	db := mocks.NewRelationalDB()
	_, err := NewImportService(db, nil, nil).Import(ctx, sampleDocument(), DefaultImportOptions())
	require.NoError(t, err)

	doc, err := NewExportService(db).Export(ctx)
	require.NoError(t, err)

	rows := IdentifierRows(doc)
	// one source id per area, organization and person, plus the CF code
	assert.Len(t, rows, 6)

	var cf int
	for _, row := range rows {
		if row.Scheme == "CF" {
			cf++
			assert.Equal(t, string(entities.OwnerPerson), row.OwnerKind)
			assert.Equal(t, doc.Persons[0].ID, row.OwnerID)
		}
	}
	assert.Equal(t, 1, cf)
}
