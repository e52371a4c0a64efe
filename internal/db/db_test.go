package db

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crane-booking-backend/config"
	"crane-booking-backend/internal/model"
)

func TestInitSQLiteMigrates(t *testing.T) {
	gormDB, err := Init(MemoryConfig(uuid.NewString()))
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	defer sqlDB.Close()

	for _, table := range []any{
		&model.Resource{}, &model.LoadProfile{}, &model.Reservation{},
		&model.MaintenanceBlock{}, &model.WaitingListEntry{}, &model.PushSubscription{},
	} {
		assert.True(t, gormDB.Migrator().HasTable(table))
	}
	assert.True(t, gormDB.Migrator().HasColumn(&model.Reservation{}, "load_weight"))
	assert.True(t, gormDB.Migrator().HasIndex(&model.Resource{}, "idx_resources_name_lower"))

	require.NoError(t, gormDB.Create(&model.Resource{Name: "Crane A", Capacity: 10, Active: true}).Error)
	assert.Error(t, gormDB.Create(&model.Resource{Name: "CRANE A", Capacity: 10, Active: true}).Error,
		"names are unique regardless of case")
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestInitRejectsUnknownDriver(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)
}
