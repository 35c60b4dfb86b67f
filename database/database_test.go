package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tapolio/tapolio-server/config"
	"github.com/tapolio/tapolio-server/internal/model"
)

func TestSqliteDefaultMigrates(t *testing.T) {
	cfg := &config.Config{Database: config.Database{Driver: "sqlite", Path: "file:dbtest?mode=memory&cache=shared"}}

	db, err := NewDatabase(cfg)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	assert.True(t, db.Migrator().HasTable(&model.InterviewResult{}))
	assert.True(t, db.Migrator().HasTable(&model.PaymentEvent{}))
}

func TestUnknownDriver(t *testing.T) {
	_, err := NewDatabase(&config.Config{Database: config.Database{Driver: "oracle"}})
	assert.ErrorContains(t, err, "unsupported DATABASE_DRIVER")
}
