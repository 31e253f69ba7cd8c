package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/praya-stock/internal/domain/models"
)

func TestEncodeDecodeDocument(t *testing.T) {
	created := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	item := models.Item{Code: "BRG-1", Name: "Kopi", Stock: 12, InitialStock: 12, CreatedAt: created}

	fields, err := EncodeDocument(item)
	require.NoError(t, err)

	_, hasID := fields[FieldID]
	assert.False(t, hasID, "empty id must be omitted so the store can assign one")
	assert.Equal(t, "BRG-1", fields["code"])

	fields[FieldID] = "abc"
	decoded, err := DecodeDocument[models.Item](fields)
	require.NoError(t, err)

	assert.Equal(t, "abc", decoded.ID)
	assert.Equal(t, 12, decoded.Stock)
	assert.True(t, created.Equal(decoded.CreatedAt))
}

func TestTimeValue(t *testing.T) {
	now := time.Date(2026, time.May, 1, 8, 0, 0, 0, time.UTC)

	got, ok := TimeValue(now)
	assert.True(t, ok)
	assert.True(t, now.Equal(got))

	got, ok = TimeValue(primitive.NewDateTimeFromTime(now))
	assert.True(t, ok)
	assert.True(t, now.Equal(got))

	_, ok = TimeValue("yesterday")
	assert.False(t, ok)
}
