package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/popolo-core/internal/domain/partialdate"
)

func TestPerson_Validate_CopiesLifeDates(t *testing.T) {
	p := &Person{
		Name:      "Giorgio Napolitano",
		BirthDate: partialdate.MustParse("1925-06-29"),
		DeathDate: partialdate.MustParse("2023-09-22"),
	}

	require.NoError(t, p.Validate())
	assert.Equal(t, "1925-06-29", p.StartDate.String())
	assert.Equal(t, "2023-09-22", p.EndDate.String())
}

func TestPerson_Validate(t *testing.T) {
	tests := []struct {
		name    string
		person  Person
		wantErr string
	}{
		{
			name:    "missing name",
			person:  Person{},
			wantErr: "name",
		},
		{
			name: "death before birth",
			person: Person{
				Name:      "Nobody",
				BirthDate: partialdate.MustParse("1980"),
				DeathDate: partialdate.MustParse("1979-12"),
			},
			wantErr: "initial date must precede end date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.person.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOrganization_Validate_CopiesFoundingDates(t *testing.T) {
	o := &Organization{
		Name:            "Camera dei Deputati",
		FoundingDate:    partialdate.MustParse("1948"),
		DissolutionDate: partialdate.Null,
	}

	require.NoError(t, o.Validate())
	assert.Equal(t, "1948", o.StartDate.String())
	assert.True(t, o.EndDate.IsNull())
}

func TestMembership_Validate(t *testing.T) {
	tests := []struct {
		name       string
		membership Membership
		wantErr    string
	}{
		{
			name:       "person without organization",
			membership: Membership{PersonID: "p1"},
			wantErr:    "organization",
		},
		{
			name:       "no member",
			membership: Membership{OrganizationID: "o1"},
			wantErr:    "member",
		},
		{
			name:       "two members",
			membership: Membership{PersonID: "p1", MemberOrganizationID: "o2", OrganizationID: "o1"},
			wantErr:    "not both",
		},
		{
			name:       "self membership",
			membership: Membership{MemberOrganizationID: "o1", OrganizationID: "o1"},
			wantErr:    "itself",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.membership.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	ok := Membership{PersonID: "p1", OrganizationID: "o1"}
	assert.NoError(t, ok.Validate())
	assert.Equal(t, OwnerRef{Kind: OwnerPerson, ID: "p1"}, ok.Member())
}

func TestMembership_Scope(t *testing.T) {
	m := Membership{PersonID: "p1", OrganizationID: "o1", PostID: "post", Label: "Ministro"}

	assert.Equal(t, MembershipScope{OrganizationID: "o1", PostID: "post"}, m.Scope(false))
	assert.Equal(t, MembershipScope{OrganizationID: "o1", PostID: "post", Label: "Ministro"}, m.Scope(true))
}

func TestOwnership_Validate(t *testing.T) {
	tests := []struct {
		name      string
		ownership Ownership
		wantErr   string
	}{
		{"no owner", Ownership{OwnedOrganizationID: "o1"}, "owner"},
		{"no owned organization", Ownership{OwnerPersonID: "p1"}, "owned_organization"},
		{"negative percentage", Ownership{OwnerPersonID: "p1", OwnedOrganizationID: "o1", Percentage: -1}, "not a percentage"},
		{"over a hundred", Ownership{OwnerOrganizationID: "o2", OwnedOrganizationID: "o1", Percentage: 100.5}, "not a percentage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ownership.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	ok := Ownership{OwnerOrganizationID: "o2", OwnedOrganizationID: "o1", Percentage: 51}
	require.NoError(t, ok.Validate())
	assert.Equal(t, OwnershipScope{OwnedOrganizationID: "o1", Percentage: 51}, ok.Scope())
}

func TestPost_ResolveOrganization(t *testing.T) {
	specific := &Post{Label: "Presidente", OrganizationID: "o1"}
	generic := &Post{Label: "Deputato"}

	org, err := specific.ResolveOrganization("")
	require.NoError(t, err)
	assert.Equal(t, "o1", org)

	_, err = specific.ResolveOrganization("o2")
	assert.ErrorIs(t, err, ErrPostMismatch)

	org, err = generic.ResolveOrganization("o2")
	require.NoError(t, err)
	assert.Equal(t, "o2", org)

	_, err = generic.ResolveOrganization("")
	assert.ErrorIs(t, err, ErrPostMismatch)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOwnerRef(t *testing.T) {
	ref, err := ParseOwnerRef("Person:abc")
	require.NoError(t, err)
	assert.Equal(t, OwnerRef{Kind: OwnerPerson, ID: "abc"}, ref)
	assert.Equal(t, "person:abc", ref.String())

	_, err = ParseOwnerRef("planet:earth")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParseOwnerRef("person")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOtherName_Validate_DefaultType(t *testing.T) {
	n := &OtherName{Owner: OwnerRef{Kind: OwnerPerson, ID: "p1"}, Name: "Re Giorgio"}

	require.NoError(t, n.Validate())
	assert.Equal(t, DefaultOtherNameType, n.Type)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "mario rossi", NormalizeName("  Mario   ROSSI "))
}

func TestNameRecord(t *testing.T) {
	rec := NameRecord{EntityID: "o1", Kind: OwnerOrganization, Name: "Camera dei Deputati", OtherNames: []string{"Camera"}}

	assert.Equal(t, "Camera dei Deputati; Camera", rec.SearchText())
	assert.Equal(t, "organization:o1", rec.Ref().String())
}
