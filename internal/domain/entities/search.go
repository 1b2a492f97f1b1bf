package entities

// NameRecord is the searchable view of a person or organization.
type NameRecord struct {
	EntityID   string    `json:"entity_id"`
	Kind       OwnerKind `json:"kind"`
	Name       string    `json:"name"`
	OtherNames []string  `json:"other_names,omitempty"`
	Embedding  []float32 `json:"embedding,omitempty"`
}

// SearchText joins every name of the record.
func (r NameRecord) SearchText() string {
	text := r.Name
	for _, n := range r.OtherNames {
		text += "; " + n
	}
	return text
}

// Ref returns the entity the record describes.
func (r NameRecord) Ref() OwnerRef {
	return OwnerRef{Kind: r.Kind, ID: r.EntityID}
}

// NameMatch is a search hit.
type NameMatch struct {
	NameRecord
	Score float32 `json:"score"`
}
