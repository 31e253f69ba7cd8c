package repository

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EncodeDocument converts a typed document into its bson field map.
func EncodeDocument(doc any) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	out := bson.M{}
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document fields: %w", err)
	}
	return out, nil
}

// DecodeDocument converts a bson field map back into a typed document.
func DecodeDocument[T any](fields bson.M) (T, error) {
	var out T

	raw, err := bson.Marshal(fields)
	if err != nil {
		return out, fmt.Errorf("encode document fields: %w", err)
	}
	if err := bson.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

// TimeValue extracts a timestamp from a decoded bson value.
func TimeValue(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case primitive.DateTime:
		return t.Time(), true
	default:
		return time.Time{}, false
	}
}
