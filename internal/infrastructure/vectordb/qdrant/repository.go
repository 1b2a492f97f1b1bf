// Package qdrant provides the name index on top of Qdrant.
package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/ports"
	"github.com/ersonp/popolo-core/internal/infrastructure/config"
)

const (
	payloadEntityID   = "entity_id"
	payloadKind       = "kind"
	payloadName       = "name"
	payloadOtherNames = "other_names"
)

var (
	_ ports.VectorDB          = (*Repository)(nil)
	_ ports.CollectionManager = (*Repository)(nil)
)

// Repository stores one point per person or organization. Points are keyed
// by a UUID derived from the entity id, so saving an entity again replaces
// its point.
type Repository struct {
	client     pb.CollectionsClient
	points     pb.PointsClient
	collection string
	apiKey     string
	conn       *grpc.ClientConn
}

// NewRepository creates a new Qdrant repository.
func NewRepository(cfg config.QdrantConfig) (*Repository, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant collection name is required")
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	return &Repository{
		client:     pb.NewCollectionsClient(conn),
		points:     pb.NewPointsClient(conn),
		collection: cfg.Collection,
		apiKey:     cfg.APIKey,
		conn:       conn,
	}, nil
}

// Close closes the gRPC connection.
func (r *Repository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func (r *Repository) withKey(ctx context.Context) context.Context {
	if r.apiKey == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "api-key", r.apiKey)
}

// EnsureCollection creates the collection if it doesn't exist.
func (r *Repository) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	ctx = r.withKey(ctx)
	_, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err == nil {
		return nil
	}

	_, err = r.client.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	return nil
}

// DeleteCollection removes the collection and every point in it.
func (r *Repository) DeleteCollection(ctx context.Context) error {
	_, err := r.client.Delete(r.withKey(ctx), &pb.DeleteCollection{
		CollectionName: r.collection,
	})
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// Save stores a name record with its embedding.
func (r *Repository) Save(ctx context.Context, record entities.NameRecord) error {
	return r.SaveBatch(ctx, []entities.NameRecord{record})
}

// SaveBatch stores multiple name records.
func (r *Repository) SaveBatch(ctx context.Context, records []entities.NameRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, 0, len(records))
	for _, rec := range records {
		points = append(points, &pb.PointStruct{
			Id: pointID(rec.EntityID),
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: rec.Embedding},
				},
			},
			Payload: recordPayload(rec),
		})
	}

	_, err := r.points.Upsert(r.withKey(ctx), &pb.UpsertPoints{
		CollectionName: r.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	return nil
}

// Search returns the names closest to embedding, optionally of one kind.
func (r *Repository) Search(ctx context.Context, embedding []float32, kind entities.OwnerKind, limit int) ([]entities.NameMatch, error) {
	req := &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	}
	if kind != "" {
		req.Filter = keywordFilter(payloadKind, string(kind))
	}

	resp, err := r.points.Search(r.withKey(ctx), req)
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	matches := make([]entities.NameMatch, 0, len(resp.Result))
	for _, point := range resp.Result {
		matches = append(matches, entities.NameMatch{
			NameRecord: payloadRecord(point.Payload),
			Score:      point.Score,
		})
	}
	return matches, nil
}

// Delete removes the point of an entity.
func (r *Repository) Delete(ctx context.Context, entityID string) error {
	_, err := r.points.Delete(r.withKey(ctx), &pb.DeletePoints{
		CollectionName: r.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{pointID(entityID)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting point: %w", err)
	}

	return nil
}

// Count returns the number of indexed entities.
func (r *Repository) Count(ctx context.Context) (uint64, error) {
	resp, err := r.client.Get(r.withKey(ctx), &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err != nil {
		return 0, fmt.Errorf("getting collection info: %w", err)
	}

	if resp.Result.PointsCount == nil {
		return 0, nil
	}

	return *resp.Result.PointsCount, nil
}

// pointID keeps UUID entity ids as they are and maps any other id to a
// stable name-based UUID.
func pointID(entityID string) *pb.PointId {
	id, err := uuid.Parse(entityID)
	if err != nil {
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(entityID))
	}
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id.String()}}
}

func keywordFilter(key, value string) *pb.Filter {
	return &pb.Filter{
		Must: []*pb.Condition{
			{
				ConditionOneOf: &pb.Condition_Field{
					Field: &pb.FieldCondition{
						Key: key,
						Match: &pb.Match{
							MatchValue: &pb.Match_Keyword{Keyword: value},
						},
					},
				},
			},
		},
	}
}

func recordPayload(rec entities.NameRecord) map[string]*pb.Value {
	others := make([]*pb.Value, len(rec.OtherNames))
	for i, n := range rec.OtherNames {
		others[i] = stringValue(n)
	}
	return map[string]*pb.Value{
		payloadEntityID: stringValue(rec.EntityID),
		payloadKind:     stringValue(string(rec.Kind)),
		payloadName:     stringValue(rec.Name),
		payloadOtherNames: {Kind: &pb.Value_ListValue{
			ListValue: &pb.ListValue{Values: others},
		}},
	}
}

func payloadRecord(payload map[string]*pb.Value) entities.NameRecord {
	rec := entities.NameRecord{
		EntityID: getStringValue(payload, payloadEntityID),
		Kind:     entities.OwnerKind(getStringValue(payload, payloadKind)),
		Name:     getStringValue(payload, payloadName),
	}
	if v, ok := payload[payloadOtherNames]; ok {
		for _, n := range v.GetListValue().GetValues() {
			rec.OtherNames = append(rec.OtherNames, n.GetStringValue())
		}
	}
	return rec
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func getStringValue(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}
