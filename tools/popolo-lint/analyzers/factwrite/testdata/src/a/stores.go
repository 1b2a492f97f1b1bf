package a

import "context"

type identifierStore struct{ db DB }

func (s identifierStore) create(ctx context.Context, i Identifier) error {
	return s.db.SaveIdentifier(ctx, &i)
}
