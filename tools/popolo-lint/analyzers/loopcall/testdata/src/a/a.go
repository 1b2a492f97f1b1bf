package a

import "context"

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type Record struct {
	ID string
}

type VectorDB interface {
	Save(ctx context.Context, r Record) error
	SaveBatch(ctx context.Context, rs []Record) error
	Delete(ctx context.Context, id string) error
}

func bad(ctx context.Context, names []string, e Embedder, db VectorDB) {
	for _, name := range names {
		e.Embed(ctx, name)             // want "Embed called inside loop, use EmbedBatch"
		db.Save(ctx, Record{ID: name}) // want "Save called inside loop, use SaveBatch"
	}
	for i := 0; i < len(names); i++ {
		e.Embed(ctx, names[i]) // want "Embed called inside loop, use EmbedBatch"
	}
}

func good(ctx context.Context, names []string, e Embedder, db VectorDB) {
	// no batch variant
	for _, name := range names {
		db.Delete(ctx, name)
	}

	// deferred work
	var fns []func()
	for _, name := range names {
		fns = append(fns, func() { e.Embed(ctx, name) })
	}

	e.EmbedBatch(ctx, names)
}
