package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/praya-stock/internal/config"
	"github.com/mamadbah2/praya-stock/internal/domain/models"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Store:     config.StoreConfig{Backend: config.StoreMemory},
		Reporting: config.ReportingConfig{Timezone: "Asia/Makassar", WindowDays: 7},
	}
}

func TestNewWithMemoryStore(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, memoryConfig(), nil)
	require.NoError(t, err)
	defer a.Close(ctx)

	assert.Nil(t, a.Sheets())
	require.NoError(t, a.Store.Ping(ctx))

	item, err := a.Ledger.AddItem(ctx, models.NewItem{Code: "A1", Name: "Gula", Stock: 3})
	require.NoError(t, err)

	list, err := a.Items.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, item.ID, list[0].ID)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store.Backend = "sqlite"

	_, err := New(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "sqlite")
}
