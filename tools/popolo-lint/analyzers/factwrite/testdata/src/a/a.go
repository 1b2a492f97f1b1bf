package a

import "context"

type Identifier struct{ Scheme, Value string }

type Membership struct{ ID string }

type DB interface {
	SaveIdentifier(ctx context.Context, i *Identifier) error
	SaveMembership(ctx context.Context, m *Membership) error
	SavePerson(ctx context.Context, name string) error
	DeleteIdentifiers(ctx context.Context, ids []string) error
}

func direct(ctx context.Context, db DB) {
	db.SaveIdentifier(ctx, &Identifier{Scheme: "CF"}) // want "SaveIdentifier bypasses the overlap resolver"
	db.SaveMembership(ctx, &Membership{})             // want "SaveMembership bypasses the overlap resolver"
}

func fine(ctx context.Context, db DB) {
	db.SavePerson(ctx, "Mario Rossi")
	db.DeleteIdentifiers(ctx, []string{"i1"})

	//factwrite:ok keyed update of a row found by id
	db.SaveMembership(ctx, &Membership{ID: "m1"})
	db.SaveMembership(ctx, &Membership{ID: "m2"}) //factwrite:ok
}
